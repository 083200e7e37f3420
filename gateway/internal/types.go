// Copyright (c) 2025 BVK Chaitanya

package internal

import (
	"github.com/shopspring/decimal"
)

// ErrorResponse is the error envelope returned by the gateway. ErrorCode is
// nil for successful responses.
type ErrorResponse struct {
	Message   string `json:"message"`
	ErrorCode *int   `json:"errorCode"`
	Stack     string `json:"stack"`
}

// Base holds the connection selector fields carried by every request.
type Base struct {
	Chain     string `json:"chain"`
	Network   string `json:"network"`
	Connector string `json:"connector"`
}

func (v *Base) Query() map[string]string {
	return map[string]string{
		"chain":     v.Chain,
		"network":   v.Network,
		"connector": v.Connector,
	}
}

type Market struct {
	ID                    string          `json:"id"`
	Name                  string          `json:"name"`
	BaseToken             string          `json:"baseToken"`
	QuoteToken            string          `json:"quoteToken"`
	MinimumOrderSize      decimal.Decimal `json:"minimumOrderSize"`
	MinimumPriceIncrement decimal.Decimal `json:"minimumPriceIncrement"`
}

type PriceLevel struct {
	Price  decimal.Decimal `json:"price"`
	Amount decimal.Decimal `json:"amount"`
}

type OrderBook struct {
	MarketID  string       `json:"marketId"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
	Timestamp int64        `json:"timestamp"`
}

type Ticker struct {
	MarketID  string          `json:"marketId"`
	Price     decimal.Decimal `json:"price"`
	Timestamp int64           `json:"timestamp"`
}

type Balance struct {
	Free           decimal.Decimal `json:"free"`
	LockedInOrders decimal.Decimal `json:"lockedInOrders"`
	Unsettled      decimal.Decimal `json:"unsettled"`
}

type Balances struct {
	Tokens map[string]*Balance `json:"tokens"`
}

type Order struct {
	ID           string          `json:"id,omitempty"`
	ClientID     string          `json:"clientId,omitempty"`
	MarketID     string          `json:"marketId"`
	OwnerAddress string          `json:"ownerAddress,omitempty"`
	Side         string          `json:"side"`
	Type         string          `json:"type,omitempty"`
	Status       string          `json:"status,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Amount       decimal.Decimal `json:"amount"`
	Fee          decimal.Decimal `json:"fee"`
	CreationTime int64           `json:"creationTimestamp,omitempty"`
	FillingTime  int64           `json:"fillingTimestamp,omitempty"`
}

type OrdersResponse struct {
	Orders []*Order `json:"orders"`
}

type PlaceOrdersRequest struct {
	Base

	OwnerAddress string   `json:"ownerAddress"`
	Orders       []*Order `json:"orders"`
}

type CancelOrdersRequest struct {
	Base

	MarketID     string   `json:"marketId"`
	OwnerAddress string   `json:"ownerAddress"`
	IDs          []string `json:"ids,omitempty"`
}

type WithdrawMarketRequest struct {
	Base

	MarketID     string `json:"marketId"`
	OwnerAddress string `json:"ownerAddress"`
}

type WithdrawMarketResponse struct {
	Tokens map[string]decimal.Decimal `json:"tokens,omitempty"`
}
