// Copyright (c) 2025 BVK Chaitanya

package strategy

import (
	"context"
	"errors"
	"os"
	"testing"
)

func TestKey(t *testing.T) {
	k := Key{Strategy: "pure_market_making", Version: "1.0.0", Instance: "default"}
	if s := k.String(); s != "pure_market_making:1.0.0:default" {
		t.Fatalf("unexpected key string %q", s)
	}
	if s := k.WorkerKey("0"); s != "pure_market_making:1.0.0:default:worker:0" {
		t.Fatalf("unexpected worker key %q", s)
	}
	p, err := ParseKey(k.String())
	if err != nil {
		t.Fatal(err)
	}
	if p != k {
		t.Fatalf("want %v, got %v", k, p)
	}
	if _, err := ParseKey("a:b"); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid, got %v", err)
	}
	if err := (Key{Strategy: "a", Version: "b"}).Check(); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("empty instance must be invalid, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	f := func(ctx context.Context, key Key) (Instance, error) { return nil, nil }
	if err := r.Register("pmm", "1.0.0", f); err != nil {
		t.Fatal(err)
	}
	if err := r.Register("pmm", "1.0.0", f); !errors.Is(err, os.ErrExist) {
		t.Fatalf("want os.ErrExist, got %v", err)
	}
	if _, err := r.Lookup("pmm", "1.0.0"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Lookup("pmm", "2.0.0"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist, got %v", err)
	}
	if vs := r.List(); len(vs) != 1 || vs[0] != "pmm:1.0.0" {
		t.Fatalf("unexpected list %v", vs)
	}
}
