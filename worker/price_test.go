// Copyright (c) 2025 BVK Chaitanya

package worker

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/funttastic/fun-api-sub000/config"
	"github.com/funttastic/fun-api-sub000/exchange"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testBook() *exchange.OrderBook {
	return &exchange.OrderBook{
		MarketID: "SOL-USDC",
		Bids: []exchange.PriceLevel{
			{Price: d("9"), Size: d("1")},
			{Price: d("8"), Size: d("2")},
		},
		Asks: []exchange.PriceLevel{
			{Price: d("11"), Size: d("3")},
			{Price: d("12"), Size: d("4")},
		},
	}
}

func TestOrderBookPrices(t *testing.T) {
	book := testBook()

	sap, err := simpleAveragePrice(book)
	if err != nil {
		t.Fatal(err)
	}
	if !sap.Equal(d("10")) {
		t.Fatalf("want sap 10, got %s", sap)
	}

	// (9*1 + 11*3) / 4
	wap, err := weightedAveragePrice(book)
	if err != nil {
		t.Fatal(err)
	}
	if !wap.Equal(d("10.5")) {
		t.Fatalf("want wap 10.5, got %s", wap)
	}

	// (9 + 16 + 33 + 48) / 10
	vwap, err := volumeWeightedAveragePrice(book)
	if err != nil {
		t.Fatal(err)
	}
	if !vwap.Equal(d("10.6")) {
		t.Fatalf("want vwap 10.6, got %s", vwap)
	}

	empty := &exchange.OrderBook{}
	if _, err := simpleAveragePrice(empty); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid for empty book, got %v", err)
	}
	if _, err := volumeWeightedAveragePrice(empty); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid for empty book, got %v", err)
	}
}

func TestPickPrice(t *testing.T) {
	ticker := &exchange.Ticker{Price: d("7")}
	cfg := &config.Worker{PriceStrategy: config.MIDDLE, MiddlePriceStrategy: config.VWAP}

	if p, err := pickPrice(cfg, ticker, testBook(), nil); err != nil || !p.Equal(d("10.6")) {
		t.Fatalf("want vwap 10.6, got %s (err %v)", p, err)
	}

	// WAP needs sizes at the best levels; falls back to SAP.
	zeroed := testBook()
	zeroed.Bids[0].Size, zeroed.Asks[0].Size = decimal.Zero, decimal.Zero
	cfg.MiddlePriceStrategy = config.WAP
	if p, err := pickPrice(cfg, ticker, zeroed, nil); err != nil || !p.Equal(d("10")) {
		t.Fatalf("want sap fallback 10, got %s (err %v)", p, err)
	}

	// One sided book falls back to the ticker price.
	onesided := &exchange.OrderBook{Bids: testBook().Bids}
	cfg.MiddlePriceStrategy = config.SAP
	if p, err := pickPrice(cfg, ticker, onesided, nil); err != nil || !p.Equal(d("7")) {
		t.Fatalf("want ticker fallback 7, got %s (err %v)", p, err)
	}

	cfg.PriceStrategy = config.TICKER
	if p, err := pickPrice(cfg, ticker, testBook(), nil); err != nil || !p.Equal(d("7")) {
		t.Fatalf("want ticker 7, got %s (err %v)", p, err)
	}

	cfg.PriceStrategy = config.LAST_FILL
	if _, err := pickPrice(cfg, ticker, testBook(), nil); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist without fills, got %v", err)
	}
	now := time.Now()
	filled := []*exchange.Order{
		{ID: "1", Price: d("3"), FillingTime: now.Add(-time.Minute)},
		{ID: "2", Price: d("4"), FillingTime: now},
		{ID: "3", Price: d("5"), FillingTime: now.Add(-time.Hour)},
	}
	if p, err := pickPrice(cfg, ticker, testBook(), filled); err != nil || !p.Equal(d("4")) {
		t.Fatalf("want last fill price 4, got %s (err %v)", p, err)
	}

	cfg.PriceStrategy = "RANDOM"
	if _, err := pickPrice(cfg, ticker, testBook(), nil); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid for unknown strategy, got %v", err)
	}

	cfg.PriceStrategy = config.TICKER
	if _, err := pickPrice(cfg, &exchange.Ticker{}, testBook(), nil); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid for zero price, got %v", err)
	}
}
