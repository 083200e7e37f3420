// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/bvkgo/kv"
	"github.com/funttastic/fun-api-sub000/api"
	"github.com/funttastic/fun-api-sub000/kvutil"
	"github.com/shopspring/decimal"
	"github.com/visvasity/topic"
)

const ServerStateKey = "/server/state"

// State holds the persistent server settings.
type State struct {
	// LowBalanceLimits maps upper-case token symbols to the free balance at or
	// below which an alert is sent.
	LowBalanceLimits map[string]decimal.Decimal
}

func (s *Server) watchForLowBalance(ctx context.Context, receiver *topic.Receiver[*api.WorkerSummary]) {
	summaryCh, err := topic.ReceiveCh(receiver)
	if err != nil {
		slog.Error("could not watch worker summaries for low balances", "err", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case summary, ok := <-summaryCh:
			if !ok {
				return
			}
			if err := s.alertOnLowBalance(ctx, summary.At, summary.BaseToken, summary.BaseFree); err != nil {
				slog.Warn("could not check low balance alert", "token", summary.BaseToken, "err", err)
			}
			if err := s.alertOnLowBalance(ctx, summary.At, summary.QuoteToken, summary.QuoteFree); err != nil {
				slog.Warn("could not check low balance alert", "token", summary.QuoteToken, "err", err)
			}
		}
	}
}

func (s *Server) alertOnLowBalance(ctx context.Context, now time.Time, token string, amount decimal.Decimal) error {
	if s.db == nil || len(token) == 0 {
		return nil
	}
	token = strings.ToUpper(token)

	s.mu.Lock()
	deadline, ok := s.alertFreezeDeadlineMap[token]
	s.mu.Unlock()
	if ok && now.Before(deadline) {
		return nil
	}

	state, err := kvutil.GetDB[State](ctx, s.db, ServerStateKey)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	limit, ok := state.LowBalanceLimits[token]
	if !ok || amount.GreaterThan(limit) {
		return nil
	}

	s.sendf(ctx, "Available balance %s for %s is below the limit %s.", amount.StringFixed(5), token, limit)

	s.mu.Lock()
	s.alertFreezeDeadlineMap[token] = now.Add(s.opts.AlertFreezeDuration)
	s.mu.Unlock()
	return nil
}

// SetLowBalanceLimits adds or updates the low balance limits for tokens.
func SetLowBalanceLimits(ctx context.Context, db kv.Database, limits map[string]decimal.Decimal) error {
	update := func(ctx context.Context, rw kv.ReadWriter) error {
		state, err := kvutil.Get[State](ctx, rw, ServerStateKey)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return err
			}
			state = new(State)
		}
		if state.LowBalanceLimits == nil {
			state.LowBalanceLimits = make(map[string]decimal.Decimal)
		}
		for k, v := range limits {
			if v.IsNegative() {
				return fmt.Errorf("limit for %s cannot be negative: %w", k, os.ErrInvalid)
			}
			state.LowBalanceLimits[strings.ToUpper(k)] = v
		}
		return kvutil.Set(ctx, rw, ServerStateKey, state)
	}
	return kv.WithReadWriter(ctx, db, update)
}
