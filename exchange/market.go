// Copyright (c) 2025 BVK Chaitanya

package exchange

import (
	"time"

	"github.com/shopspring/decimal"
)

type Market struct {
	ID   string
	Name string

	BaseToken  string
	QuoteToken string

	MinimumOrderSize      decimal.Decimal
	MinimumPriceIncrement decimal.Decimal
}

type PriceLevel struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// OrderBook holds bids in descending and asks in ascending price order.
type OrderBook struct {
	MarketID string

	Bids []PriceLevel
	Asks []PriceLevel

	Timestamp time.Time
}

// BestBid returns the highest bid. Returns false when there are no bids.
func (v *OrderBook) BestBid() (PriceLevel, bool) {
	if len(v.Bids) == 0 {
		return PriceLevel{}, false
	}
	return v.Bids[0], true
}

// BestAsk returns the lowest ask. Returns false when there are no asks.
func (v *OrderBook) BestAsk() (PriceLevel, bool) {
	if len(v.Asks) == 0 {
		return PriceLevel{}, false
	}
	return v.Asks[0], true
}

type Ticker struct {
	MarketID string

	Price decimal.Decimal

	Timestamp time.Time
}
