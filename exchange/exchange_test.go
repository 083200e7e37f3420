// Copyright (c) 2025 BVK Chaitanya

package exchange

import (
	"errors"
	"os"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseSide(t *testing.T) {
	if s, err := ParseSide("buy"); err != nil || s != BUY {
		t.Fatalf("want BUY, got %q (%v)", s, err)
	}
	if _, err := ParseSide("hold"); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid, got %v", err)
	}
	if s := ParseOrderStatus("partially_filled"); s != PARTIALLY_FILLED {
		t.Fatalf("want PARTIALLY_FILLED, got %s", s)
	}
	if s := ParseOrderStatus("expired"); s != UNKNOWN {
		t.Fatalf("want UNKNOWN, got %s", s)
	}
}

func TestBalances(t *testing.T) {
	var bs *Balances
	if b := bs.Get("USK"); !b.Total().IsZero() {
		t.Fatalf("missing token must have zero balance")
	}
	bs = &Balances{Tokens: map[string]*Balance{
		"KUJI": {Token: "KUJI", Free: decimal.NewFromInt(1), LockedInOrders: decimal.NewFromInt(2), Unsettled: decimal.NewFromInt(3)},
	}}
	if v := bs.Get("KUJI").Total(); !v.Equal(decimal.NewFromInt(6)) {
		t.Fatalf("want 6, got %s", v)
	}
}

func TestOrderBookBest(t *testing.T) {
	ob := &OrderBook{
		Bids: []PriceLevel{{Price: decimal.NewFromInt(9), Size: decimal.NewFromInt(1)}},
	}
	if b, ok := ob.BestBid(); !ok || !b.Price.Equal(decimal.NewFromInt(9)) {
		t.Fatalf("want best bid 9")
	}
	if _, ok := ob.BestAsk(); ok {
		t.Fatalf("empty asks must not report a best ask")
	}
}
