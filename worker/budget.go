// Copyright (c) 2025 BVK Chaitanya

package worker

import (
	"fmt"
	"os"
	"slices"

	"github.com/funttastic/fun-api-sub000/exchange"
	"github.com/funttastic/fun-api-sub000/idgen"
	"github.com/shopspring/decimal"
)

// adjustToBudget greedily picks orders, in their given order, that fit the
// free balances. A BUY order is accepted only when the remaining quote balance
// is strictly greater than its amount; SELL orders are checked against the
// remaining base balance the same way. Result is a subsequence of the input.
func adjustToBudget(orders []*exchange.Order, baseFree, quoteFree decimal.Decimal) ([]*exchange.Order, error) {
	base, quote := baseFree, quoteFree

	var accepted []*exchange.Order
	for _, order := range orders {
		switch order.Side {
		case exchange.BUY:
			if quote.GreaterThan(order.Amount) {
				quote = quote.Sub(order.Amount)
				accepted = append(accepted, order)
			}
		case exchange.SELL:
			if base.GreaterThan(order.Amount) {
				base = base.Sub(order.Amount)
				accepted = append(accepted, order)
			}
		default:
			return nil, fmt.Errorf("order %s has invalid side %q: %w", order.ClientID, order.Side, os.ErrInvalid)
		}
	}
	return accepted, nil
}

// revertDroppedIDs takes back the client ids of proposed orders that follow
// the last accepted order. Ids are generated in proposal order, so only that
// tail can be reused.
func revertDroppedIDs(ids *idgen.Generator, proposed, adjusted []*exchange.Order) {
	last := -1
	if len(adjusted) > 0 {
		last = slices.Index(proposed, adjusted[len(adjusted)-1])
	}
	for i := len(proposed) - 1; i > last; i-- {
		ids.RevertID()
	}
}
