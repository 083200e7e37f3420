// Copyright (c) 2025 BVK Chaitanya

package worker

import (
	"testing"

	"github.com/funttastic/fun-api-sub000/config"
	"github.com/funttastic/fun-api-sub000/exchange"
	"github.com/funttastic/fun-api-sub000/idgen"
)

func testMarket() *exchange.Market {
	return &exchange.Market{
		ID:                    "SOL-USDC",
		Name:                  "SOL-USDC",
		BaseToken:             "SOL",
		QuoteToken:            "USDC",
		MinimumOrderSize:      d("1"),
		MinimumPriceIncrement: d("0.001"),
	}
}

func testConfig(layers ...config.Layer) *config.Worker {
	return &config.Worker{
		Chain:               "solana",
		Network:             "mainnet-beta",
		Connector:           "openbook",
		WalletAddress:       "owner",
		Market:              "SOL-USDC",
		TickIntervalMs:      1000,
		PriceStrategy:       config.TICKER,
		MiddlePriceStrategy: config.VWAP,
		OrderType:           exchange.LIMIT,
		Layers:              layers,
	}
}

func TestProposalSingleBid(t *testing.T) {
	cfg := testConfig(config.Layer{
		BidSpreadPercentage: d("1"),
		BidQuantity:         1,
		BidMaxLiquidityUSD:  d("10"),
	})
	ids := idgen.New("test", 0)

	// No asks in the book, so bids are priced from the used price alone.
	orders := newProposal(testMarket(), cfg, d("2"), &exchange.OrderBook{}).build(ids)
	if len(orders) != 1 {
		t.Fatalf("want 1 order, got %d", len(orders))
	}
	o := orders[0]
	if o.Side != exchange.BUY {
		t.Fatalf("want BUY, got %s", o.Side)
	}
	if !o.Price.Equal(d("1.98")) {
		t.Fatalf("want price 1.98, got %s", o.Price)
	}
	if diff := o.Amount.Sub(d("5.0505")).Abs(); diff.GreaterThan(d("0.0001")) {
		t.Fatalf("want amount ~5.0505, got %s", o.Amount)
	}
	if !ids.Owns(o.ClientID) {
		t.Fatalf("client id %q is not from the generator", o.ClientID)
	}

	adjusted, err := adjustToBudget(orders, d("0"), d("100"))
	if err != nil {
		t.Fatal(err)
	}
	if len(adjusted) != 1 || adjusted[0] != o {
		t.Fatalf("want the order unchanged after budget adjustment, got %v", adjusted)
	}
}

func TestProposalBestPrices(t *testing.T) {
	cfg := testConfig(config.Layer{
		BidSpreadPercentage: d("10"),
		BidQuantity:         1,
		BidMaxLiquidityUSD:  d("100"),
		AskSpreadPercentage: d("10"),
		AskQuantity:         1,
		AskMaxLiquidityUSD:  d("100"),
	})
	book := &exchange.OrderBook{
		Bids: []exchange.PriceLevel{{Price: d("12"), Size: d("1")}},
		Asks: []exchange.PriceLevel{{Price: d("8"), Size: d("1")}},
	}
	orders := newProposal(testMarket(), cfg, d("10"), book).build(idgen.New("test", 0))
	if len(orders) != 2 {
		t.Fatalf("want 2 orders, got %d", len(orders))
	}
	// Bid uses min(10, best-ask 8) and ask uses max(10, best-bid 12).
	if !orders[0].Price.Equal(d("7.2")) {
		t.Fatalf("want bid price 7.2, got %s", orders[0].Price)
	}
	if !orders[1].Price.Equal(d("13.2")) {
		t.Fatalf("want ask price 13.2, got %s", orders[1].Price)
	}
}

func TestProposalOrdering(t *testing.T) {
	cfg := testConfig(
		config.Layer{
			BidSpreadPercentage: d("1"), BidQuantity: 2, BidMaxLiquidityUSD: d("100"),
			AskSpreadPercentage: d("1"), AskQuantity: 1, AskMaxLiquidityUSD: d("100"),
		},
		config.Layer{
			BidSpreadPercentage: d("2"), BidQuantity: 1, BidMaxLiquidityUSD: d("100"),
			AskSpreadPercentage: d("2"), AskQuantity: 2, AskMaxLiquidityUSD: d("100"),
		},
	)
	orders := newProposal(testMarket(), cfg, d("10"), nil).build(idgen.New("test", 0))

	want := []struct {
		side  exchange.Side
		price string
	}{
		{exchange.BUY, "9.9"}, {exchange.BUY, "9.9"}, {exchange.BUY, "9.8"},
		{exchange.SELL, "10.1"}, {exchange.SELL, "10.2"}, {exchange.SELL, "10.2"},
	}
	if len(orders) != len(want) {
		t.Fatalf("want %d orders, got %d", len(want), len(orders))
	}
	seen := make(map[string]bool)
	for i, w := range want {
		if orders[i].Side != w.side || !orders[i].Price.Equal(d(w.price)) {
			t.Errorf("order %d: want %s@%s, got %s@%s", i, w.side, w.price, orders[i].Side, orders[i].Price)
		}
		if seen[orders[i].ClientID] {
			t.Errorf("order %d: duplicate client id %s", i, orders[i].ClientID)
		}
		seen[orders[i].ClientID] = true
		if i > 0 && orders[i].ClientID <= orders[i-1].ClientID {
			t.Errorf("order %d: client ids are not sequential", i)
		}
	}
}

func TestProposalLayerSkip(t *testing.T) {
	cfg := testConfig(
		// Order size 1/1.98 is below the minimum order size.
		config.Layer{BidSpreadPercentage: d("1"), BidQuantity: 1, BidMaxLiquidityUSD: d("1")},
		config.Layer{BidSpreadPercentage: d("1"), BidQuantity: 1, BidMaxLiquidityUSD: d("10")},
		// Zero quantity layers contribute nothing.
		config.Layer{BidSpreadPercentage: d("1"), BidQuantity: 0, BidMaxLiquidityUSD: d("10")},
	)
	orders := newProposal(testMarket(), cfg, d("2"), nil).build(idgen.New("test", 0))
	if len(orders) != 1 {
		t.Fatalf("want 1 order, got %d", len(orders))
	}
	if !orders[0].Amount.GreaterThanOrEqual(d("1")) {
		t.Fatalf("want order from the second layer, got %s", orders[0])
	}

	// Price below the minimum price increment.
	market := testMarket()
	market.MinimumPriceIncrement = d("5")
	orders = newProposal(market, cfg, d("2"), nil).build(idgen.New("test", 0))
	if len(orders) != 0 {
		t.Fatalf("want no orders, got %d", len(orders))
	}
}
