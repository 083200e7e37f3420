// Copyright (c) 2023 BVK Chaitanya

// Package idgen generates sequential client order ids. Ids from a generator
// share a prefix derived from the generator's seed so that orders can be
// attributed back to their owner.
package idgen

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Generator struct {
	base uuid.UUID

	prefix string

	next uint64
}

// New creates a generator for the seed. Offset is the number of ids already
// generated for the same seed, so that a restarted owner continues the
// sequence.
func New(seed string, offset uint64) *Generator {
	base := uuid.NewMD5(uuid.NameSpaceOID, []byte(seed))
	return &Generator{
		base:   base,
		prefix: hex.EncodeToString(base[:4]),
		next:   offset,
	}
}

func (v *Generator) Offset() uint64 {
	return v.next
}

func (v *Generator) Prefix() string {
	return v.prefix
}

func (v *Generator) NextID() string {
	id := fmt.Sprintf("%s%012d", v.prefix, v.next)
	v.next++
	return id
}

// RevertID takes back the last generated id.
func (v *Generator) RevertID() {
	if v.next > 0 {
		v.next--
	}
}

// Owns returns true if the client id was generated with the same seed.
func (v *Generator) Owns(clientID string) bool {
	return strings.HasPrefix(clientID, v.prefix)
}
