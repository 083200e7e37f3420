// Copyright (c) 2025 BVK Chaitanya

package worker

import (
	"sort"
	"strconv"

	"github.com/funttastic/fun-api-sub000/exchange"
)

// newerID returns true if venue order id a was assigned after b. Numeric ids
// are compared by value, others lexically.
func newerID(a, b string) bool {
	x, xerr := strconv.ParseUint(a, 10, 64)
	y, yerr := strconv.ParseUint(b, 10, 64)
	if xerr == nil && yerr == nil {
		return x > y
	}
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return a > b
}

// dedupOrders collapses orders that share a client id into the one with the
// newest venue id. Orders without a client id are kept as is. Result is
// ordered by venue id.
func dedupOrders(orders []*exchange.Order) []*exchange.Order {
	byClientID := make(map[string]*exchange.Order)
	var result []*exchange.Order
	for _, order := range orders {
		if len(order.ClientID) == 0 {
			result = append(result, order)
			continue
		}
		if old, ok := byClientID[order.ClientID]; !ok || newerID(order.ID, old.ID) {
			byClientID[order.ClientID] = order
		}
	}
	for _, order := range byClientID {
		result = append(result, order)
	}
	sort.Slice(result, func(i, j int) bool {
		return newerID(result[j].ID, result[i].ID)
	})
	return result
}

// untrackedOrders returns ids of open orders that were placed by earlier ticks
// but are not part of the current proposal: (tracked ∩ open) - current. Open
// orders whose client id is rejected by the owns function are never
// returned.
func untrackedOrders(tracked, current map[string]struct{}, open []*exchange.Order, owns func(clientID string) bool) []string {
	var ids []string
	for _, order := range open {
		if _, ok := tracked[order.ID]; !ok {
			continue
		}
		if _, ok := current[order.ID]; ok {
			continue
		}
		if owns != nil && len(order.ClientID) != 0 && !owns(order.ClientID) {
			continue
		}
		ids = append(ids, order.ID)
	}
	sort.Strings(ids)
	return ids
}
