// Copyright (c) 2023 BVK Chaitanya

package api

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StrategyStartPath  = "/strategy/start"
	StrategyStopPath   = "/strategy/stop"
	StrategyStatusPath = "/strategy/status"

	WorkerStartPath  = "/strategy/worker/start"
	WorkerStopPath   = "/strategy/worker/stop"
	WorkerStatusPath = "/strategy/worker/status"

	SummariesPath = "/strategy/summaries"

	ServerStatusPath = "/status"
)

type StrategyRequest struct {
	Strategy string
	Version  string
	Instance string
}

type WorkerRequest struct {
	Strategy string
	Version  string
	Instance string

	Worker string
}

type MessageResponse struct {
	Message string
}

type StrategyStatus struct {
	Key string

	Initialized bool

	RunState string

	// Tasks holds the job state of the instance's background tasks.
	Tasks map[string]string

	Workers map[string]*WorkerStatus
}

type WorkerStatus struct {
	Key string

	Market string

	Initialized bool

	RunState  string
	TaskState string

	LastTickAt time.Time
	LastError  string

	NumTracked int
	NumCurrent int

	Summary *WorkerSummary
}

// WorkerSummary is the per-tick report of a worker.
type WorkerSummary struct {
	WorkerKey string

	Market     string
	BaseToken  string
	QuoteToken string

	At time.Time

	BaseFree   decimal.Decimal
	BaseTotal  decimal.Decimal
	QuoteFree  decimal.Decimal
	QuoteTotal decimal.Decimal

	TickerPrice decimal.Decimal
	UsedPrice   decimal.Decimal
	SAP         decimal.Decimal
	WAP         decimal.Decimal
	VWAP        decimal.Decimal

	NumOpen     int
	NumFilled   int
	NumProposed int
	NumPlaced   int
	NumCanceled int

	// PnL is the change in the quote-denominated value of the tracked balances
	// since the worker's first tick.
	PnL decimal.Decimal
}

type ServerStatusRequest struct {
}

type ServerStatusResponse struct {
	PID int

	Uptime time.Duration

	RSSBytes   uint64
	CPUPercent float64

	SystemMemoryUsedPercent float64

	Instances []string
}
