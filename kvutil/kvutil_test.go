// Copyright (c) 2023 BVK Chaitanya

package kvutil

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/bvkgo/kv"
	"github.com/bvkgo/kv/kvmemdb"
)

type record struct {
	Name  string
	Count int
}

func TestGetSetDB(t *testing.T) {
	ctx := context.Background()
	db := kvmemdb.New()

	if _, err := GetDB[record](ctx, db, "/records/a"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist, got %v", err)
	}
	if err := SetDB(ctx, db, "/records/a", &record{Name: "a", Count: 1}); err != nil {
		t.Fatal(err)
	}
	if err := SetDB(ctx, db, "/records/b", &record{Name: "b", Count: 2}); err != nil {
		t.Fatal(err)
	}
	if err := SetDB(ctx, db, "/other/c", &record{Name: "c", Count: 3}); err != nil {
		t.Fatal(err)
	}

	v, err := GetDB[record](ctx, db, "/records/b")
	if err != nil {
		t.Fatal(err)
	}
	if v.Name != "b" || v.Count != 2 {
		t.Fatalf("unexpected record %#v", v)
	}

	var names []string
	begin, end := PathRange("/records")
	collect := func(ctx context.Context, _ kv.Reader, key string, r *record) error {
		names = append(names, r.Name)
		return nil
	}
	if err := AscendDB(ctx, db, begin, end, collect); err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("want [a b], got %v", names)
	}

	if err := DeleteDB(ctx, db, "/records/a"); err != nil {
		t.Fatal(err)
	}
	if _, err := GetDB[record](ctx, db, "/records/a"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist after delete, got %v", err)
	}
}
