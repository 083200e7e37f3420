// Copyright (c) 2025 BVK Chaitanya

package exchange

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	BUY  Side = "BUY"
	SELL Side = "SELL"
)

func ParseSide(s string) (Side, error) {
	switch v := Side(strings.ToUpper(s)); v {
	case BUY, SELL:
		return v, nil
	}
	return "", fmt.Errorf("order side %q is invalid: %w", s, os.ErrInvalid)
}

type OrderStatus string

const (
	OPEN                 OrderStatus = "OPEN"
	FILLED               OrderStatus = "FILLED"
	CANCELLED            OrderStatus = "CANCELLED"
	PARTIALLY_FILLED     OrderStatus = "PARTIALLY_FILLED"
	CREATION_PENDING     OrderStatus = "CREATION_PENDING"
	CANCELLATION_PENDING OrderStatus = "CANCELLATION_PENDING"
	UNKNOWN              OrderStatus = "UNKNOWN"
)

// ParseOrderStatus maps venue status names to an OrderStatus. Unrecognized
// names map to UNKNOWN.
func ParseOrderStatus(s string) OrderStatus {
	switch v := OrderStatus(strings.ToUpper(s)); v {
	case OPEN, FILLED, CANCELLED, PARTIALLY_FILLED, CREATION_PENDING, CANCELLATION_PENDING:
		return v
	}
	return UNKNOWN
}

type OrderType string

const (
	LIMIT     OrderType = "LIMIT"
	IOC       OrderType = "IOC"
	POST_ONLY OrderType = "POST_ONLY"
	MARKET    OrderType = "MARKET"
)

func ParseOrderType(s string) (OrderType, error) {
	switch v := OrderType(strings.ToUpper(s)); v {
	case LIMIT, IOC, POST_ONLY, MARKET:
		return v, nil
	}
	return "", fmt.Errorf("order type %q is invalid: %w", s, os.ErrInvalid)
}

type Order struct {
	// ID is assigned by the venue. It is empty for proposed orders.
	ID string

	ClientID string

	MarketID string

	OwnerAddress string

	Side Side
	Type OrderType

	Status OrderStatus

	Price  decimal.Decimal
	Amount decimal.Decimal

	Fee decimal.Decimal

	CreationTime time.Time
	FillingTime  time.Time
}

func (v *Order) String() string {
	return fmt.Sprintf("%s %s %s@%s id=%s client-id=%s status=%s", v.MarketID, v.Side, v.Amount.StringFixed(6), v.Price.StringFixed(6), v.ID, v.ClientID, v.Status)
}

// Clone returns a copy of the order.
func (v *Order) Clone() *Order {
	c := *v
	return &c
}
