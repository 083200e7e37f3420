// Copyright (c) 2025 BVK Chaitanya

package telegram

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/bvkgo/kv/kvmemdb"
)

func TestSecretsCheck(t *testing.T) {
	good := &Secrets{BotToken: "token", OwnerID: "alice", AdminID: "bob", OtherIDs: []string{"carol"}}
	if err := good.Check(); err != nil {
		t.Fatal(err)
	}
	if !good.isAllowed("bob") || !good.isAllowed("carol") || good.isAllowed("dave") || good.isAllowed("") {
		t.Fatalf("unexpected user authorization")
	}
	if rs := good.receivers(); len(rs) != 2 || rs[0] != "alice" || rs[1] != "carol" {
		t.Fatalf("unexpected receivers %v", rs)
	}

	bad := []*Secrets{
		{OwnerID: "alice"},
		{BotToken: "token"},
		{BotToken: "token", OwnerID: "alice", OtherIDs: []string{""}},
		{BotToken: "token", OwnerID: "alice", OtherIDs: []string{"alice"}},
		{BotToken: "token", OwnerID: "alice", AdminID: "bob", OtherIDs: []string{"bob"}},
	}
	for i, s := range bad {
		if err := s.Check(); err == nil {
			t.Errorf("%d: want error for invalid secrets %+v", i, s)
		}
	}
}

// TestClient runs against the real telegram service when a credentials file
// is present in the package directory.
func TestClient(t *testing.T) {
	data, err := os.ReadFile("telegram-creds.json")
	if err != nil {
		t.Skip("no credentials")
		return
	}
	secrets := new(Secrets)
	if err := json.Unmarshal(data, secrets); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	c, err := New(ctx, kvmemdb.New(), secrets)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			t.Fatal(err)
		}
	}()

	if err := c.SendMessage(ctx, time.Now(), "hello"); err != nil {
		t.Fatal(err)
	}
}
