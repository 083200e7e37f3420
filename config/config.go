// Copyright (c) 2025 BVK Chaitanya

// Package config defines the typed strategy configuration. Configuration
// values are immutable once loaded; a reload produces a new value.
package config

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"time"

	"github.com/funttastic/fun-api-sub000/exchange"
	"github.com/shopspring/decimal"
)

type PriceStrategy string

const (
	TICKER    PriceStrategy = "TICKER"
	MIDDLE    PriceStrategy = "MIDDLE"
	LAST_FILL PriceStrategy = "LAST_FILL"
)

type MiddlePriceStrategy string

const (
	SAP  MiddlePriceStrategy = "SAP"
	WAP  MiddlePriceStrategy = "WAP"
	VWAP MiddlePriceStrategy = "VWAP"
)

// Layer is one tier of the quote ladder.
type Layer struct {
	BidSpreadPercentage decimal.Decimal `yaml:"bid_spread_percentage"`
	BidQuantity         int             `yaml:"bid_quantity"`
	BidMaxLiquidityUSD  decimal.Decimal `yaml:"bid_max_liquidity_usd"`

	AskSpreadPercentage decimal.Decimal `yaml:"ask_spread_percentage"`
	AskQuantity         int             `yaml:"ask_quantity"`
	AskMaxLiquidityUSD  decimal.Decimal `yaml:"ask_max_liquidity_usd"`
}

var hundred = decimal.NewFromInt(100)

func (v *Layer) Check() error {
	if v.BidQuantity < 0 || v.AskQuantity < 0 {
		return fmt.Errorf("layer quantities cannot be negative: %w", os.ErrInvalid)
	}
	if v.BidSpreadPercentage.IsNegative() || v.BidSpreadPercentage.GreaterThanOrEqual(hundred) {
		return fmt.Errorf("bid spread percentage %s must be in [0, 100): %w", v.BidSpreadPercentage, os.ErrInvalid)
	}
	if v.AskSpreadPercentage.IsNegative() {
		return fmt.Errorf("ask spread percentage %s cannot be negative: %w", v.AskSpreadPercentage, os.ErrInvalid)
	}
	if v.BidMaxLiquidityUSD.IsNegative() || v.AskMaxLiquidityUSD.IsNegative() {
		return fmt.Errorf("layer liquidity cannot be negative: %w", os.ErrInvalid)
	}
	return nil
}

// Worker holds the effective configuration for one worker.
type Worker struct {
	Chain     string `yaml:"chain"`
	Network   string `yaml:"network"`
	Connector string `yaml:"connector"`

	WalletAddress string `yaml:"wallet_address"`

	Market string `yaml:"market"`

	TickIntervalMs int64 `yaml:"tick_interval_ms"`
	RunOnlyOnce    bool  `yaml:"run_only_once"`

	PriceStrategy       PriceStrategy       `yaml:"price_strategy"`
	MiddlePriceStrategy MiddlePriceStrategy `yaml:"middle_price_strategy"`
	OrderType           exchange.OrderType  `yaml:"order_type"`

	CancelAllOrdersOnStart bool `yaml:"cancel_all_orders_on_start"`
	CancelAllOrdersOnStop  bool `yaml:"cancel_all_orders_on_stop"`

	WithdrawMarketOnStart bool `yaml:"withdraw_market_on_start"`
	WithdrawMarketOnStop  bool `yaml:"withdraw_market_on_stop"`
	WithdrawMarketOnTick  bool `yaml:"withdraw_market_on_tick"`

	Layers []Layer `yaml:"layers"`
}

func (v *Worker) setDefaults() {
	if v.TickIntervalMs == 0 {
		v.TickIntervalMs = 10000
	}
	if len(v.PriceStrategy) == 0 {
		v.PriceStrategy = MIDDLE
	}
	if len(v.MiddlePriceStrategy) == 0 {
		v.MiddlePriceStrategy = VWAP
	}
	if len(v.OrderType) == 0 {
		v.OrderType = exchange.LIMIT
	}
}

func (v *Worker) Check() error {
	if len(v.Connector) == 0 {
		return fmt.Errorf("connector is required: %w", os.ErrInvalid)
	}
	if len(v.Market) == 0 {
		return fmt.Errorf("market is required: %w", os.ErrInvalid)
	}
	if len(v.WalletAddress) == 0 {
		return fmt.Errorf("wallet address is required: %w", os.ErrInvalid)
	}
	if v.TickIntervalMs <= 0 {
		return fmt.Errorf("tick interval must be positive: %w", os.ErrInvalid)
	}
	if !slices.Contains([]PriceStrategy{TICKER, MIDDLE, LAST_FILL}, v.PriceStrategy) {
		return fmt.Errorf("price strategy %q is invalid: %w", v.PriceStrategy, os.ErrInvalid)
	}
	if !slices.Contains([]MiddlePriceStrategy{SAP, WAP, VWAP}, v.MiddlePriceStrategy) {
		return fmt.Errorf("middle price strategy %q is invalid: %w", v.MiddlePriceStrategy, os.ErrInvalid)
	}
	if _, err := exchange.ParseOrderType(string(v.OrderType)); err != nil {
		return err
	}
	for i := range v.Layers {
		if err := v.Layers[i].Check(); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return nil
}

func (v *Worker) TickInterval() time.Duration {
	return time.Duration(v.TickIntervalMs) * time.Millisecond
}

// Clone returns a deep copy of the worker configuration.
func (v *Worker) Clone() *Worker {
	c := *v
	c.Layers = slices.Clone(v.Layers)
	return &c
}

// Supervisor holds the strategy instance level settings.
type Supervisor struct {
	TickIntervalMs int64 `yaml:"tick_interval_ms"`
	RunOnlyOnce    bool  `yaml:"run_only_once"`
}

func (v *Supervisor) setDefaults() {
	if v.TickIntervalMs == 0 {
		v.TickIntervalMs = 10000
	}
}

func (v *Supervisor) Check() error {
	if v.TickIntervalMs <= 0 {
		return fmt.Errorf("supervisor tick interval must be positive: %w", os.ErrInvalid)
	}
	return nil
}

func (v *Supervisor) TickInterval() time.Duration {
	return time.Duration(v.TickIntervalMs) * time.Millisecond
}

// Strategy is the fully resolved configuration of a strategy instance.
type Strategy struct {
	Strategy string
	Version  string

	Supervisor Supervisor

	workers map[string]*Worker
}

// WorkerIDs returns the configured worker ids in sorted order.
func (v *Strategy) WorkerIDs() []string {
	ids := make([]string, 0, len(v.workers))
	for id := range v.workers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Worker returns a copy of the effective configuration for a worker.
func (v *Strategy) Worker(id string) (*Worker, error) {
	w, ok := v.workers[id]
	if !ok {
		return nil, fmt.Errorf("worker %q is not configured: %w", id, os.ErrNotExist)
	}
	return w.Clone(), nil
}
