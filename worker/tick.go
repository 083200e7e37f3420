// Copyright (c) 2025 BVK Chaitanya

package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/funttastic/fun-api-sub000/api"
	"github.com/funttastic/fun-api-sub000/config"
	"github.com/funttastic/fun-api-sub000/exchange"
)

// Tick runs one full cycle of the worker. Returns ErrBusy if another tick is
// in progress.
func (w *Worker) Tick(ctx context.Context) error {
	if !w.tickMu.TryLock() {
		return ErrBusy
	}
	defer w.tickMu.Unlock()

	w.mu.Lock()
	if !w.initialized {
		w.mu.Unlock()
		return fmt.Errorf("worker %s is not initialized: %w", w.key, os.ErrInvalid)
	}
	cfg, market := w.cfg.Clone(), w.market
	w.mu.Unlock()

	summary, err := w.tick(ctx, cfg, market)

	w.mu.Lock()
	w.lastTickAt = w.rt.Now()
	if err == nil || ctx.Err() == nil {
		w.lastErr = err
	}
	if summary != nil {
		w.lastSummary = summary
	}
	w.mu.Unlock()

	if summary != nil {
		w.publish(ctx, summary)
	}
	return err
}

func (w *Worker) tick(ctx context.Context, cfg *config.Worker, market *exchange.Market) (*api.WorkerSummary, error) {
	venue, owner := w.rt.Venue, cfg.WalletAddress

	if cfg.WithdrawMarketOnTick {
		if err := venue.WithdrawMarket(ctx, market.ID, owner); err != nil {
			if ctx.Err() != nil {
				return nil, context.Cause(ctx)
			}
			slog.Warn("could not withdraw market funds (ignored)", "worker", w.key, "market", market.ID, "err", err)
		}
	}

	open, err := venue.GetOrders(ctx, &exchange.OrderFilter{MarketID: market.ID, OwnerAddress: owner, Status: exchange.OPEN})
	if err != nil {
		return nil, fmt.Errorf("could not fetch open orders: %w", err)
	}
	open = dedupOrders(open)

	filled, err := venue.GetOrders(ctx, &exchange.OrderFilter{MarketID: market.ID, OwnerAddress: owner, Status: exchange.FILLED})
	if err != nil {
		return nil, fmt.Errorf("could not fetch filled orders: %w", err)
	}

	balances, err := venue.GetBalances(ctx, owner, []string{market.BaseToken, market.QuoteToken})
	if err != nil {
		return nil, fmt.Errorf("could not fetch balances: %w", err)
	}

	// Untracked orders must be computed from the previous tick's bookkeeping.
	w.mu.Lock()
	canceled := untrackedOrders(w.tracked, w.current, open, w.ids.Owns)
	w.mu.Unlock()

	if len(canceled) > 0 {
		acked, err := venue.CancelOrders(ctx, market.ID, owner, canceled)
		if err != nil {
			return nil, fmt.Errorf("could not cancel %d untracked orders: %w", len(canceled), err)
		}
		var pending []string
		for _, order := range acked {
			if order.Status != exchange.CANCELLED {
				pending = append(pending, order.ID)
			}
		}
		slog.Info("canceled untracked orders", "worker", w.key, "ids", canceled, "pending", pending)
	}

	ticker, err := venue.GetTicker(ctx, market.ID)
	if err != nil {
		return nil, fmt.Errorf("could not fetch ticker: %w", err)
	}
	book, err := venue.GetOrderBook(ctx, market.ID)
	if err != nil {
		return nil, fmt.Errorf("could not fetch order book: %w", err)
	}

	usedPrice, err := pickPrice(cfg, ticker, book, filled)
	if err != nil {
		return nil, fmt.Errorf("could not determine the used price: %w", err)
	}

	base, quote := balances.Get(market.BaseToken), balances.Get(market.QuoteToken)

	proposed := newProposal(market, cfg, usedPrice, book).build(w.ids)
	adjusted, err := adjustToBudget(proposed, base.Free, quote.Free)
	if err != nil {
		w.saveState(ctx)
		return nil, fmt.Errorf("could not adjust proposal to budget: %w", err)
	}
	revertDroppedIDs(w.ids, proposed, adjusted)

	var placed []*exchange.Order
	if len(adjusted) > 0 {
		placed, err = venue.PlaceOrders(ctx, owner, adjusted)
		if err != nil {
			w.saveState(ctx)
			return nil, fmt.Errorf("could not place %d orders: %w", len(adjusted), err)
		}
	}

	// Tracked ids are never removed. A canceled order may stay open at the
	// venue and must be canceled again by a later tick.
	w.mu.Lock()
	w.current = make(map[string]struct{}, len(placed))
	for _, order := range placed {
		if len(order.ID) == 0 {
			slog.Warn("venue did not assign an id to placed order", "worker", w.key, "client-id", order.ClientID)
			continue
		}
		w.current[order.ID] = struct{}{}
		w.tracked[order.ID] = struct{}{}
	}
	w.mu.Unlock()

	summary := &api.WorkerSummary{
		WorkerKey:   w.key,
		Market:      market.Name,
		BaseToken:   market.BaseToken,
		QuoteToken:  market.QuoteToken,
		At:          w.rt.Now(),
		BaseFree:    base.Free,
		BaseTotal:   base.Total(),
		QuoteFree:   quote.Free,
		QuoteTotal:  quote.Total(),
		TickerPrice: ticker.Price,
		UsedPrice:   usedPrice,
		NumOpen:     len(open),
		NumFilled:   len(filled),
		NumProposed: len(proposed),
		NumPlaced:   len(placed),
		NumCanceled: len(canceled),
	}
	if len(summary.Market) == 0 {
		summary.Market = market.ID
	}
	summary.SAP, _ = simpleAveragePrice(book)
	summary.WAP, _ = weightedAveragePrice(book)
	summary.VWAP, _ = volumeWeightedAveragePrice(book)

	value := summary.BaseTotal.Mul(ticker.Price).Add(summary.QuoteTotal)
	w.mu.Lock()
	if !w.hasInitialValue {
		w.hasInitialValue, w.initialValue = true, value
	}
	summary.PnL = value.Sub(w.initialValue)
	w.mu.Unlock()

	w.saveState(ctx)

	slog.Info("worker tick completed", "worker", w.key, "market", market.ID, "used-price", usedPrice,
		"proposed", len(proposed), "placed", len(placed), "canceled", len(canceled))
	return summary, nil
}
