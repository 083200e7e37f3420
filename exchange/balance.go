// Copyright (c) 2025 BVK Chaitanya

package exchange

import (
	"github.com/shopspring/decimal"
)

type Balance struct {
	Token string

	Free           decimal.Decimal
	LockedInOrders decimal.Decimal
	Unsettled      decimal.Decimal
}

// Total returns the sum of free, locked and unsettled amounts.
func (v *Balance) Total() decimal.Decimal {
	return v.Free.Add(v.LockedInOrders).Add(v.Unsettled)
}

type Balances struct {
	Tokens map[string]*Balance
}

// Get returns the balance for a token. Missing tokens have zero balance.
func (v *Balances) Get(token string) *Balance {
	if v != nil && v.Tokens != nil {
		if b, ok := v.Tokens[token]; ok {
			return b
		}
	}
	return &Balance{Token: token}
}
