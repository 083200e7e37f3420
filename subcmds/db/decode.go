// Copyright (c) 2025 BVK Chaitanya

package db

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/bvkgo/kv"
	"github.com/funttastic/fun-api-sub000/kvutil"
	"github.com/funttastic/fun-api-sub000/server"
	"github.com/funttastic/fun-api-sub000/telegram"
	"github.com/funttastic/fun-api-sub000/worker"
)

type decodeFunc func(ctx context.Context, g kv.Getter, key string) (any, error)

func decoder[T any]() decodeFunc {
	return func(ctx context.Context, g kv.Getter, key string) (any, error) {
		return kvutil.Get[T](ctx, g, key)
	}
}

// keyspaces maps key prefixes to the value types stored under them.
var keyspaces = []struct {
	prefix string
	decode decodeFunc
}{
	{worker.Keyspace + "/", decoder[worker.State]()},
	{server.InstancesKeyspace + "/", decoder[server.InstanceRecord]()},
	{server.ServerStateKey, decoder[server.State]()},
	{"/telegram/", decoder[telegram.State]()},
}

// Decode reads the value at key as the type known for its keyspace.
func Decode(ctx context.Context, g kv.Getter, key string) (any, error) {
	for _, ks := range keyspaces {
		if strings.HasPrefix(key, ks.prefix) {
			return ks.decode(ctx, g, key)
		}
	}
	return nil, fmt.Errorf("value type for key %q is unknown: %w", key, os.ErrInvalid)
}
