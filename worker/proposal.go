// Copyright (c) 2025 BVK Chaitanya

package worker

import (
	"log/slog"

	"github.com/funttastic/fun-api-sub000/config"
	"github.com/funttastic/fun-api-sub000/exchange"
	"github.com/funttastic/fun-api-sub000/idgen"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// layerSide is the per-side part of a layer.
type layerSide struct {
	side     exchange.Side
	spread   decimal.Decimal
	quantity int
	maxUSD   decimal.Decimal
}

// proposal holds the candidate orders for one tick.
type proposal struct {
	market *exchange.Market
	cfg    *config.Worker

	usedPrice decimal.Decimal

	// bestBid and bestAsk are taken from the order book. A missing side is
	// unbounded.
	bestBid, bestAsk *decimal.Decimal
}

func newProposal(market *exchange.Market, cfg *config.Worker, usedPrice decimal.Decimal, book *exchange.OrderBook) *proposal {
	p := &proposal{
		market:    market,
		cfg:       cfg,
		usedPrice: usedPrice,
	}
	if book != nil {
		if l, ok := book.BestBid(); ok {
			p.bestBid = &l.Price
		}
		if l, ok := book.BestAsk(); ok {
			p.bestAsk = &l.Price
		}
	}
	return p
}

// sidePrice returns the layer price for a side. Bids never cross the best
// ask and asks never cross the best bid.
func (p *proposal) sidePrice(ls *layerSide) decimal.Decimal {
	if ls.side == exchange.BUY {
		base := p.usedPrice
		if p.bestAsk != nil && p.bestAsk.LessThan(base) {
			base = *p.bestAsk
		}
		return hundred.Sub(ls.spread).Div(hundred).Mul(base)
	}

	base := p.usedPrice
	if p.bestBid != nil && p.bestBid.GreaterThan(base) {
		base = *p.bestBid
	}
	return hundred.Add(ls.spread).Div(hundred).Mul(base)
}

// layerOrders returns the orders for one side of a layer. Layers that would
// produce orders below the market's minimum price increment or minimum order
// size are skipped.
func (p *proposal) layerOrders(index int, ls *layerSide, ids *idgen.Generator) []*exchange.Order {
	if ls.quantity <= 0 {
		return nil
	}

	price := p.sidePrice(ls)
	if !price.IsPositive() || price.LessThan(p.market.MinimumPriceIncrement) {
		slog.Warn("skipping layer with price below minimum price increment", "market", p.market.ID, "layer", index, "side", ls.side,
			"price", price, "min-price-increment", p.market.MinimumPriceIncrement)
		return nil
	}
	size := ls.maxUSD.Div(price).Div(decimal.NewFromInt(int64(ls.quantity)))
	if size.LessThan(p.market.MinimumOrderSize) {
		slog.Warn("skipping layer with order size below minimum order size", "market", p.market.ID, "layer", index, "side", ls.side,
			"size", size, "min-order-size", p.market.MinimumOrderSize)
		return nil
	}

	orders := make([]*exchange.Order, 0, ls.quantity)
	for i := 0; i < ls.quantity; i++ {
		orders = append(orders, &exchange.Order{
			ClientID:     ids.NextID(),
			MarketID:     p.market.ID,
			OwnerAddress: p.cfg.WalletAddress,
			Side:         ls.side,
			Type:         p.cfg.OrderType,
			Price:        price,
			Amount:       size,
		})
	}
	return orders
}

// build returns all bid orders followed by all ask orders, each group in
// layer order.
func (p *proposal) build(ids *idgen.Generator) []*exchange.Order {
	var bids, asks []*exchange.Order
	for i := range p.cfg.Layers {
		layer := &p.cfg.Layers[i]
		bids = append(bids, p.layerOrders(i, &layerSide{
			side:     exchange.BUY,
			spread:   layer.BidSpreadPercentage,
			quantity: layer.BidQuantity,
			maxUSD:   layer.BidMaxLiquidityUSD,
		}, ids)...)
	}
	for i := range p.cfg.Layers {
		layer := &p.cfg.Layers[i]
		asks = append(asks, p.layerOrders(i, &layerSide{
			side:     exchange.SELL,
			spread:   layer.AskSpreadPercentage,
			quantity: layer.AskQuantity,
			maxUSD:   layer.AskMaxLiquidityUSD,
		}, ids)...)
	}
	return append(bids, asks...)
}
