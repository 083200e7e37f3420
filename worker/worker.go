// Copyright (c) 2025 BVK Chaitanya

// Package worker implements the market-making loop for a single market. Every
// tick refreshes venue state, cancels stale orders placed by earlier ticks,
// and places a layered proposal that fits the free balances.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/bvkgo/kv"
	"github.com/funttastic/fun-api-sub000/api"
	"github.com/funttastic/fun-api-sub000/clock"
	"github.com/funttastic/fun-api-sub000/config"
	"github.com/funttastic/fun-api-sub000/ctxutil"
	"github.com/funttastic/fun-api-sub000/exchange"
	"github.com/funttastic/fun-api-sub000/idgen"
	"github.com/funttastic/fun-api-sub000/job"
	"github.com/funttastic/fun-api-sub000/strategy"
	"github.com/shopspring/decimal"
	"github.com/visvasity/topic"
)

// ErrBusy is returned when a tick is requested while another tick of the same
// worker is in progress.
var ErrBusy = errors.New("worker tick is in progress")

// Messenger delivers human readable notifications.
type Messenger interface {
	SendMessage(ctx context.Context, at time.Time, text string) error
}

// Runtime holds the services used by a worker. Only the Venue is required.
type Runtime struct {
	Venue exchange.Venue

	// Database persists the worker bookkeeping across restarts.
	Database kv.Database

	// Clock, when set, is used to wait between ticks.
	Clock *clock.Clock

	Messenger Messenger

	Summaries *topic.Topic[*api.WorkerSummary]

	Now func() time.Time
}

type Worker struct {
	key string

	rt Runtime

	// lifeMu serializes Start and Stop.
	lifeMu sync.Mutex

	// tickMu is held for the duration of a tick.
	tickMu sync.Mutex

	mu sync.Mutex

	cfg *config.Worker

	market *exchange.Market

	runState    strategy.RunState
	initialized bool
	canRun      bool

	// firstWait is the aligned wait before the first tick of the latest Start.
	firstWait time.Duration

	// stopped is set once the stop-time actions have run for the latest Start.
	stopped bool

	ids *idgen.Generator

	tracked map[string]struct{}
	current map[string]struct{}

	hasInitialValue bool
	initialValue    decimal.Decimal

	lastTickAt  time.Time
	lastErr     error
	lastSummary *api.WorkerSummary

	job *job.Job
}

// New creates a worker identified by key. Worker is not initialized.
func New(key string, cfg *config.Worker, rt *Runtime) (*Worker, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("worker key cannot be empty: %w", os.ErrInvalid)
	}
	if rt == nil || rt.Venue == nil {
		return nil, fmt.Errorf("worker venue is required: %w", os.ErrInvalid)
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	w := &Worker{
		key:      key,
		rt:       *rt,
		cfg:      cfg.Clone(),
		runState: strategy.CREATED,
		ids:      idgen.New(key, 0),
		tracked:  make(map[string]struct{}),
		current:  make(map[string]struct{}),
	}
	if w.rt.Now == nil {
		w.rt.Now = time.Now
	}
	return w, nil
}

func (w *Worker) String() string {
	return "worker:" + w.key
}

func (w *Worker) Key() string {
	return w.key
}

// Config returns a copy of the current configuration.
func (w *Worker) Config() *config.Worker {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg.Clone()
}

// UpdateConfig replaces the configuration used by the following ticks. Market
// and venue identity cannot be changed without recreating the worker.
func (w *Worker) UpdateConfig(cfg *config.Worker) error {
	if err := cfg.Check(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	old := w.cfg
	if old.Chain != cfg.Chain || old.Network != cfg.Network || old.Connector != cfg.Connector ||
		old.Market != cfg.Market || old.WalletAddress != cfg.WalletAddress {
		return fmt.Errorf("worker %s cannot change market or venue at runtime: %w", w.key, os.ErrInvalid)
	}
	w.cfg = cfg.Clone()
	return nil
}

// Initialize fetches the market metadata and restores the bookkeeping.
// Calling Initialize on an initialized worker is a no-op.
func (w *Worker) Initialize(ctx context.Context) error {
	w.mu.Lock()
	if w.initialized {
		w.mu.Unlock()
		return nil
	}
	w.runState = strategy.INITIALIZING
	cfg := w.cfg.Clone()
	w.mu.Unlock()

	if err := w.initialize(ctx, cfg); err != nil {
		w.setRunState(strategy.STOPPED)
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.initialized = true
	w.runState = strategy.CREATED
	return nil
}

func (w *Worker) initialize(ctx context.Context, cfg *config.Worker) error {
	market, err := w.rt.Venue.GetMarket(ctx, cfg.Market)
	if err != nil {
		return fmt.Errorf("could not fetch market %q: %w", cfg.Market, err)
	}
	if err := w.loadState(ctx); err != nil {
		return err
	}

	w.mu.Lock()
	w.market = market
	w.mu.Unlock()
	return nil
}

// startActions cancels all open orders and withdraws the market funds if so
// configured. They run on every Start.
func (w *Worker) startActions(ctx context.Context, cfg *config.Worker, market *exchange.Market) error {
	if cfg.CancelAllOrdersOnStart {
		if _, err := w.rt.Venue.CancelAllOrders(ctx, market.ID, cfg.WalletAddress); err != nil {
			if ctx.Err() != nil {
				return context.Cause(ctx)
			}
			slog.Warn("could not cancel all orders on start (ignored)", "worker", w.key, "market", market.ID, "err", err)
		}
	}
	if cfg.WithdrawMarketOnStart {
		if err := w.rt.Venue.WithdrawMarket(ctx, market.ID, cfg.WalletAddress); err != nil {
			if ctx.Err() != nil {
				return context.Cause(ctx)
			}
			slog.Warn("could not withdraw market funds on start (ignored)", "worker", w.key, "market", market.ID, "err", err)
		}
	}
	return nil
}

// stopActions cancels all open orders and withdraws the market funds if so
// configured. They run at most once per Start, either from Stop or when a
// run-once loop ends.
func (w *Worker) stopActions(ctx context.Context) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	cfg, market := w.cfg.Clone(), w.market
	w.mu.Unlock()

	if cfg.CancelAllOrdersOnStop {
		if _, err := w.rt.Venue.CancelAllOrders(ctx, market.ID, cfg.WalletAddress); err != nil {
			slog.Warn("could not cancel all orders on stop (ignored)", "worker", w.key, "market", market.ID, "err", err)
		}
	}
	if cfg.WithdrawMarketOnStop {
		if err := w.rt.Venue.WithdrawMarket(ctx, market.ID, cfg.WalletAddress); err != nil {
			slog.Warn("could not withdraw market funds on stop (ignored)", "worker", w.key, "market", market.ID, "err", err)
		}
	}
}

// Start initializes the worker if necessary, runs the start-time actions and
// launches the tick loop in the background. First tick is aligned to the tick
// interval from the time of this call. Returns os.ErrExist if the worker is
// already running.
func (w *Worker) Start(ctx context.Context) error {
	w.lifeMu.Lock()
	defer w.lifeMu.Unlock()

	w.mu.Lock()
	if w.job != nil && w.job.State() == job.RUNNING {
		w.mu.Unlock()
		return fmt.Errorf("worker %s is already running: %w", w.key, os.ErrExist)
	}
	w.mu.Unlock()

	if err := w.Initialize(ctx); err != nil {
		return fmt.Errorf("could not initialize worker %s: %w", w.key, err)
	}

	w.mu.Lock()
	w.runState = strategy.INITIALIZING
	cfg, market := w.cfg.Clone(), w.market
	w.mu.Unlock()

	if err := w.startActions(ctx, cfg, market); err != nil {
		w.setRunState(strategy.STOPPED)
		return fmt.Errorf("could not start worker %s: %w", w.key, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.firstWait = clock.AlignedWait(w.rt.Now(), cfg.TickInterval())
	w.stopped = false

	j := job.New(w.key, w.run)
	if err := j.Start(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	w.job = j
	w.canRun = true
	w.runState = strategy.RUNNING
	return nil
}

// Stop ends the tick loop and waits for any in-flight tick to finish. Orders
// are canceled and funds are withdrawn afterwards if so configured. Returns
// os.ErrNotExist if the worker is not running.
func (w *Worker) Stop(ctx context.Context) error {
	w.lifeMu.Lock()
	defer w.lifeMu.Unlock()

	w.mu.Lock()
	j := w.job
	if j == nil || job.IsFinal(j.State()) {
		w.canRun = false
		w.mu.Unlock()
		return fmt.Errorf("worker %s is not running: %w", w.key, os.ErrNotExist)
	}
	w.canRun = false
	w.runState = strategy.STOPPING
	w.mu.Unlock()

	j.Stop()

	// Cleanup must run even when the caller's context is already canceled.
	w.stopActions(context.WithoutCancel(ctx))

	w.setRunState(strategy.STOPPED)
	return nil
}

// Wait blocks till the tick loop ends or the context is canceled.
func (w *Worker) Wait(ctx context.Context) error {
	w.mu.Lock()
	j := w.job
	w.mu.Unlock()

	if j == nil {
		return nil
	}
	return j.Wait(ctx)
}

func (w *Worker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.job != nil && w.job.State() == job.RUNNING
}

func (w *Worker) setRunState(s strategy.RunState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.runState = s
}

func (w *Worker) isRunnable() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.canRun
}

func (w *Worker) run(ctx context.Context) error {
	w.mu.Lock()
	wait := w.firstWait
	w.mu.Unlock()

	for w.isRunnable() {
		if err := w.sleep(ctx, wait); err != nil {
			return err
		}

		if err := w.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				return context.Cause(ctx)
			}
			slog.Error("could not complete worker tick (will retry)", "worker", w.key, "err", err)
		}

		cfg := w.Config()
		if cfg.RunOnlyOnce {
			slog.Info("worker is configured to run only once", "worker", w.key)
			w.mu.Lock()
			w.canRun = false
			w.runState = strategy.STOPPING
			w.mu.Unlock()

			w.stopActions(context.WithoutCancel(ctx))
			w.setRunState(strategy.STOPPED)
			return nil
		}
		wait = clock.AlignedWait(w.rt.Now(), cfg.TickInterval())
	}
	return nil
}

// sleep waits for the duration using the shared clock if one is configured.
func (w *Worker) sleep(ctx context.Context, d time.Duration) error {
	if w.rt.Clock == nil {
		return ctxutil.Sleep(ctx, d)
	}
	_, event := w.rt.Clock.Register(w.rt.Clock.Now().Add(d))
	return event.Wait(ctx)
}

// Status returns a snapshot of the worker state.
func (w *Worker) Status() *api.WorkerStatus {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := &api.WorkerStatus{
		Key:         w.key,
		Market:      w.cfg.Market,
		Initialized: w.initialized,
		RunState:    string(w.runState),
		TaskState:   string(job.CREATED),
		LastTickAt:  w.lastTickAt,
		NumTracked:  len(w.tracked),
		NumCurrent:  len(w.current),
		Summary:     w.lastSummary,
	}
	if w.job != nil {
		s.TaskState = string(w.job.State())
	}
	if w.lastErr != nil {
		s.LastError = w.lastErr.Error()
	}
	return s
}
