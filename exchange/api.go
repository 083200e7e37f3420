// Copyright (c) 2023 BVK Chaitanya

package exchange

import (
	"context"
)

// OrderFilter selects orders in GetOrders. Empty fields match everything.
type OrderFilter struct {
	MarketID string

	OwnerAddress string

	Status OrderStatus

	IDs []string
}

// Venue is the set of remote operations a market-making worker needs from a
// trading venue.
type Venue interface {
	GetMarket(ctx context.Context, marketID string) (*Market, error)
	GetOrderBook(ctx context.Context, marketID string) (*OrderBook, error)
	GetTicker(ctx context.Context, marketID string) (*Ticker, error)
	GetBalances(ctx context.Context, ownerAddress string, tokens []string) (*Balances, error)

	GetOrders(ctx context.Context, filter *OrderFilter) ([]*Order, error)

	// PlaceOrders submits a batch of orders and returns them with their
	// venue-assigned ids.
	PlaceOrders(ctx context.Context, ownerAddress string, orders []*Order) ([]*Order, error)

	CancelOrders(ctx context.Context, marketID, ownerAddress string, ids []string) ([]*Order, error)
	CancelAllOrders(ctx context.Context, marketID, ownerAddress string) ([]*Order, error)

	WithdrawMarket(ctx context.Context, marketID, ownerAddress string) error
}
