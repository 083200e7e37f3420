// Copyright (c) 2025 BVK Chaitanya

package worker

import (
	"slices"
	"strings"
	"testing"

	"github.com/funttastic/fun-api-sub000/exchange"
)

func TestUntrackedOrders(t *testing.T) {
	tracked := toSet([]string{"A", "B", "C"})
	current := toSet([]string{"D"})
	open := []*exchange.Order{{ID: "A"}, {ID: "B"}, {ID: "C"}, {ID: "D"}}

	got := untrackedOrders(tracked, current, open, nil)
	if want := []string{"A", "B", "C"}; !slices.Equal(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}

	// Orders placed by someone else are never canceled even when their ids are
	// tracked.
	owns := func(id string) bool { return strings.HasPrefix(id, "mine") }
	open = []*exchange.Order{
		{ID: "A", ClientID: "mine-1"},
		{ID: "B", ClientID: "manual-1"},
		{ID: "C", ClientID: "mine-2"},
		{ID: "E", ClientID: "mine-3"},
	}
	got = untrackedOrders(tracked, current, open, owns)
	if want := []string{"A", "C"}; !slices.Equal(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestDedupOrders(t *testing.T) {
	orders := []*exchange.Order{
		{ID: "9", ClientID: "x"},
		{ID: "10", ClientID: "x"},
		{ID: "3", ClientID: "y"},
		{ID: "4"},
		{ID: "5"},
	}
	got := dedupOrders(orders)

	var ids []string
	for _, o := range got {
		ids = append(ids, o.ID)
	}
	if want := []string{"3", "4", "5", "10"}; !slices.Equal(ids, want) {
		t.Fatalf("want %v, got %v", want, ids)
	}

	if !newerID("10", "9") || newerID("9", "10") {
		t.Fatalf("numeric ids must compare by value")
	}
	if !newerID("b", "a") || !newerID("aa", "b") {
		t.Fatalf("non-numeric ids must compare by length and then lexically")
	}
}
