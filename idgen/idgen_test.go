// Copyright (c) 2023 BVK Chaitanya

package idgen

import (
	"testing"
)

func TestIDGen(t *testing.T) {
	seed := "pure_market_making:1.0.0:default:worker:0"

	g1 := New(seed, 0)
	ids := make(map[string]bool)
	var last string
	for i := 0; i < 20; i++ {
		id := g1.NextID()
		if ids[id] {
			t.Fatalf("duplicate id %q", id)
		}
		if last != "" && id <= last {
			t.Fatalf("ids must be increasing: %q after %q", id, last)
		}
		if !g1.Owns(id) {
			t.Fatalf("generator must own its id %q", id)
		}
		ids[id], last = true, id
	}

	// A restarted generator continues the sequence.
	g2 := New(seed, g1.Offset())
	if id := g2.NextID(); ids[id] {
		t.Fatalf("restarted generator reused id %q", id)
	}

	g2.RevertID()
	if g2.Offset() != g1.Offset() {
		t.Fatalf("revert must take back the last id")
	}

	other := New("pure_market_making:1.0.0:default:worker:1", 0)
	if other.Owns(last) {
		t.Fatalf("ids must be namespaced by the seed")
	}
}
