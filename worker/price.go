// Copyright (c) 2025 BVK Chaitanya

package worker

import (
	"fmt"
	"os"

	"github.com/funttastic/fun-api-sub000/config"
	"github.com/funttastic/fun-api-sub000/exchange"
	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// simpleAveragePrice returns the mean of best bid and best ask prices.
func simpleAveragePrice(book *exchange.OrderBook) (decimal.Decimal, error) {
	bid, bok := book.BestBid()
	ask, aok := book.BestAsk()
	if !bok || !aok {
		return decimal.Zero, fmt.Errorf("order book needs both bids and asks for SAP: %w", os.ErrInvalid)
	}
	return bid.Price.Add(ask.Price).Div(two), nil
}

// weightedAveragePrice returns the best bid and best ask prices weighted by
// their sizes.
func weightedAveragePrice(book *exchange.OrderBook) (decimal.Decimal, error) {
	bid, bok := book.BestBid()
	ask, aok := book.BestAsk()
	if !bok || !aok {
		return decimal.Zero, fmt.Errorf("order book needs both bids and asks for WAP: %w", os.ErrInvalid)
	}
	total := bid.Size.Add(ask.Size)
	if !total.IsPositive() {
		return decimal.Zero, fmt.Errorf("best levels have no size for WAP: %w", os.ErrInvalid)
	}
	return bid.Price.Mul(bid.Size).Add(ask.Price.Mul(ask.Size)).Div(total), nil
}

// volumeWeightedAveragePrice returns the average price of all levels in the
// order book weighted by their sizes.
func volumeWeightedAveragePrice(book *exchange.OrderBook) (decimal.Decimal, error) {
	var volume, total decimal.Decimal
	for _, levels := range [][]exchange.PriceLevel{book.Bids, book.Asks} {
		for _, l := range levels {
			volume = volume.Add(l.Price.Mul(l.Size))
			total = total.Add(l.Size)
		}
	}
	if !total.IsPositive() {
		return decimal.Zero, fmt.Errorf("order book has no volume for VWAP: %w", os.ErrInvalid)
	}
	return volume.Div(total), nil
}

// middlePriceCascade lists the middle price strategies tried, in order,
// starting from each configured strategy.
var middlePriceCascade = map[config.MiddlePriceStrategy][]config.MiddlePriceStrategy{
	config.VWAP: {config.VWAP, config.WAP, config.SAP},
	config.WAP:  {config.WAP, config.SAP},
	config.SAP:  {config.SAP},
}

func middlePrice(strategy config.MiddlePriceStrategy, book *exchange.OrderBook) (decimal.Decimal, error) {
	switch strategy {
	case config.SAP:
		return simpleAveragePrice(book)
	case config.WAP:
		return weightedAveragePrice(book)
	case config.VWAP:
		return volumeWeightedAveragePrice(book)
	}
	return decimal.Zero, fmt.Errorf("middle price strategy %q is invalid: %w", strategy, os.ErrInvalid)
}

// lastFillPrice returns the price of the most recently filled order.
func lastFillPrice(filled []*exchange.Order) (decimal.Decimal, error) {
	var last *exchange.Order
	for _, order := range filled {
		if last == nil || order.FillingTime.After(last.FillingTime) ||
			(order.FillingTime.Equal(last.FillingTime) && order.CreationTime.After(last.CreationTime)) {
			last = order
		}
	}
	if last == nil {
		return decimal.Zero, fmt.Errorf("no filled orders to pick the last fill price: %w", os.ErrNotExist)
	}
	return last.Price, nil
}

// pickPrice returns the reference price for the proposal per the configured
// price strategy.
func pickPrice(cfg *config.Worker, ticker *exchange.Ticker, book *exchange.OrderBook, filled []*exchange.Order) (decimal.Decimal, error) {
	var price decimal.Decimal
	switch cfg.PriceStrategy {
	case config.TICKER:
		price = ticker.Price

	case config.MIDDLE:
		cascade, ok := middlePriceCascade[cfg.MiddlePriceStrategy]
		if !ok {
			return decimal.Zero, fmt.Errorf("middle price strategy %q is invalid: %w", cfg.MiddlePriceStrategy, os.ErrInvalid)
		}
		price = ticker.Price
		for _, s := range cascade {
			if p, err := middlePrice(s, book); err == nil && p.IsPositive() {
				price = p
				break
			}
		}

	case config.LAST_FILL:
		p, err := lastFillPrice(filled)
		if err != nil {
			return decimal.Zero, err
		}
		price = p

	default:
		return decimal.Zero, fmt.Errorf("price strategy %q is invalid: %w", cfg.PriceStrategy, os.ErrInvalid)
	}

	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("used price %s must be positive: %w", price, os.ErrInvalid)
	}
	return price, nil
}
