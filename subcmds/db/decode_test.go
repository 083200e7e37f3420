// Copyright (c) 2025 BVK Chaitanya

package db

import (
	"context"
	"testing"

	"github.com/bvkgo/kv/kvmemdb"
	"github.com/funttastic/fun-api-sub000/kvutil"
	"github.com/funttastic/fun-api-sub000/server"
	"github.com/funttastic/fun-api-sub000/strategy"
	"github.com/funttastic/fun-api-sub000/worker"
)

func TestDecode(t *testing.T) {
	ctx := context.Background()
	db := kvmemdb.New()

	key := strategy.Key{Strategy: "pure_market_making", Version: "1.0.0", Instance: "sol"}
	wkey := worker.StateKey(key.WorkerKey("w1"))
	if err := kvutil.SetDB(ctx, db, wkey, &worker.State{ClientIDOffset: 7}); err != nil {
		t.Fatal(err)
	}
	rkey := server.InstanceRecordKey(key)
	if err := kvutil.SetDB(ctx, db, rkey, &server.InstanceRecord{Key: key.String()}); err != nil {
		t.Fatal(err)
	}

	snap, err := db.NewSnapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer snap.Discard(ctx)

	v, err := Decode(ctx, snap, wkey)
	if err != nil {
		t.Fatal(err)
	}
	if state, ok := v.(*worker.State); !ok || state.ClientIDOffset != 7 {
		t.Fatalf("unexpected worker state %#v", v)
	}

	v, err = Decode(ctx, snap, rkey)
	if err != nil {
		t.Fatal(err)
	}
	if record, ok := v.(*server.InstanceRecord); !ok || record.Key != key.String() {
		t.Fatalf("unexpected instance record %#v", v)
	}

	if _, err := Decode(ctx, snap, "/unknown/key"); err == nil {
		t.Fatalf("want error for unknown keyspace")
	}
}
