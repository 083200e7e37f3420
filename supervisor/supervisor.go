// Copyright (c) 2025 BVK Chaitanya

// Package supervisor manages the life cycle of a strategy instance and its
// workers.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/funttastic/fun-api-sub000/api"
	"github.com/funttastic/fun-api-sub000/clock"
	"github.com/funttastic/fun-api-sub000/config"
	"github.com/funttastic/fun-api-sub000/job"
	"github.com/funttastic/fun-api-sub000/strategy"
	"github.com/funttastic/fun-api-sub000/worker"
)

type Supervisor struct {
	opts Options

	key string

	lifeMu sync.Mutex

	wg sync.WaitGroup

	mu sync.Mutex

	cfg *config.Strategy

	runState    strategy.RunState
	initialized bool
	canRun      bool

	deadline time.Time
	event    *clock.Event

	tickJob *job.Job

	workers map[string]*worker.Worker

	done chan struct{}
}

var _ strategy.Instance = &Supervisor{}

func New(opts *Options) (*Supervisor, error) {
	if err := opts.Check(); err != nil {
		return nil, err
	}
	s := &Supervisor{
		opts:     *opts,
		key:      opts.Key.String(),
		runState: strategy.CREATED,
		workers:  make(map[string]*worker.Worker),
		done:     make(chan struct{}),
	}
	return s, nil
}

func (s *Supervisor) String() string {
	return "supervisor:" + s.key
}

func (s *Supervisor) Key() strategy.Key {
	return s.opts.Key
}

func (s *Supervisor) config() *config.Strategy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

func (s *Supervisor) loadConfig(ctx context.Context) (*config.Strategy, error) {
	cfg, err := s.opts.Source.Load(ctx)
	if err != nil {
		return nil, err
	}
	key := s.opts.Key
	if (len(cfg.Strategy) != 0 && cfg.Strategy != key.Strategy) || (len(cfg.Version) != 0 && cfg.Version != key.Version) {
		return nil, fmt.Errorf("configuration is for %s:%s, not %s:%s: %w", cfg.Strategy, cfg.Version, key.Strategy, key.Version, os.ErrInvalid)
	}
	return cfg, nil
}

// Initialize loads the configuration, registers the first supervisor tick
// with the clock and starts all configured workers. Failures of individual
// workers are logged and do not fail the initialization.
func (s *Supervisor) Initialize(ctx context.Context) error {
	s.setRunState(strategy.INITIALIZING)

	cfg, err := s.loadConfig(ctx)
	if err != nil {
		s.setRunState(strategy.STOPPED)
		return fmt.Errorf("could not load configuration for %s: %w", s.key, err)
	}

	s.opts.Clock.Start()
	s.mu.Lock()
	s.cfg = cfg
	s.scheduleLocked(cfg)
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, id := range cfg.WorkerIDs() {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := s.StartWorker(ctx, id); err != nil {
				slog.Error("could not start worker (ignored)", "supervisor", s.key, "worker", id, "err", err)
			}
		}()
	}
	wg.Wait()

	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()
	return nil
}

// scheduleLocked registers the next aligned supervisor tick with the clock.
func (s *Supervisor) scheduleLocked(cfg *config.Strategy) {
	now := s.opts.Clock.Now()
	deadline := now.Add(clock.AlignedWait(now, cfg.Supervisor.TickInterval()))
	s.deadline, s.event = s.opts.Clock.Register(deadline)
}

// Start initializes the instance and launches the supervisor tick loop in the
// background. Returns os.ErrExist if the instance is already running.
func (s *Supervisor) Start(ctx context.Context) error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	switch s.RunState() {
	case strategy.CREATED:
	case strategy.STOPPED, strategy.STOPPING:
		return fmt.Errorf("strategy instance %s is stopped: %w", s.key, os.ErrClosed)
	default:
		return fmt.Errorf("strategy instance %s is already running: %w", s.key, os.ErrExist)
	}

	if err := s.Initialize(ctx); err != nil {
		s.closeDone()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tickJob = job.New(s.key, s.run)
	if err := s.tickJob.Start(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	s.canRun = true
	s.runState = strategy.RUNNING
	return nil
}

// Stop ends the supervisor tick loop and stops all workers. Returns
// os.ErrNotExist if the instance is not running.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()

	s.mu.Lock()
	if s.runState != strategy.RUNNING {
		s.mu.Unlock()
		return fmt.Errorf("strategy instance %s is not running: %w", s.key, os.ErrNotExist)
	}
	s.canRun = false
	s.runState = strategy.STOPPING
	tickJob := s.tickJob
	s.mu.Unlock()

	if tickJob != nil {
		tickJob.Stop()
	}

	var wg sync.WaitGroup
	for _, id := range s.workerIDs() {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := s.StopWorker(ctx, id); err != nil && !errors.Is(err, os.ErrNotExist) {
				slog.Error("could not stop worker (ignored)", "supervisor", s.key, "worker", id, "err", err)
			}
		}()
	}
	wg.Wait()

	s.exit()
	return nil
}

// exit releases the instance resources. Pending clock deadline is left to
// fire because other loops may share the same event.
func (s *Supervisor) exit() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.event = nil
	s.runState = strategy.STOPPED
	s.closeDoneLocked()
}

func (s *Supervisor) closeDone() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeDoneLocked()
}

func (s *Supervisor) closeDoneLocked() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

// Wait blocks till the instance is stopped or the context is canceled.
func (s *Supervisor) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		s.wg.Wait()
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

func (s *Supervisor) RunState() strategy.RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runState
}

func (s *Supervisor) setRunState(state strategy.RunState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runState = state
}

func (s *Supervisor) isRunnable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canRun
}

func (s *Supervisor) run(ctx context.Context) error {
	for s.isRunnable() {
		s.mu.Lock()
		event := s.event
		s.mu.Unlock()

		if err := event.Wait(ctx); err != nil {
			return err
		}

		s.reload(ctx)

		cfg := s.config()
		s.mu.Lock()
		s.scheduleLocked(cfg)
		s.mu.Unlock()

		if cfg.Supervisor.RunOnlyOnce {
			slog.Info("strategy instance is configured to run only once", "supervisor", s.key)
			s.mu.Lock()
			s.canRun = false
			s.mu.Unlock()

			// Stop waits for this job to finish, so it must run in a separate
			// goroutine.
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				if err := s.Stop(context.Background()); err != nil && !errors.Is(err, os.ErrNotExist) {
					slog.Error("could not stop strategy instance", "supervisor", s.key, "err", err)
				}
			}()
			return nil
		}
	}
	return nil
}

// reload replaces the configuration with a freshly loaded one. On failure the
// previous configuration is kept.
func (s *Supervisor) reload(ctx context.Context) {
	cfg, err := s.loadConfig(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("could not reload configuration (ignored)", "supervisor", s.key, "err", err)
		}
		return
	}

	s.mu.Lock()
	s.cfg = cfg
	workers := make(map[string]*worker.Worker, len(s.workers))
	for id, w := range s.workers {
		workers[id] = w
	}
	s.mu.Unlock()

	for id, w := range workers {
		wcfg, err := cfg.Worker(id)
		if err != nil {
			slog.Warn("running worker is removed from the configuration (ignored)", "supervisor", s.key, "worker", id)
			continue
		}
		if err := w.UpdateConfig(wcfg); err != nil {
			slog.Warn("could not update worker configuration (ignored)", "supervisor", s.key, "worker", id, "err", err)
		}
	}
}

func (s *Supervisor) workerIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.workers))
	for id := range s.workers {
		ids = append(ids, id)
	}
	return ids
}

func (s *Supervisor) newWorker(id string) (*worker.Worker, error) {
	cfg := s.config()
	if cfg == nil {
		return nil, fmt.Errorf("strategy instance %s is not initialized: %w", s.key, os.ErrInvalid)
	}
	wcfg, err := cfg.Worker(id)
	if err != nil {
		return nil, err
	}
	venue, err := s.opts.VenueFor(wcfg)
	if err != nil {
		return nil, fmt.Errorf("could not create venue for worker %s: %w", id, err)
	}
	rt := &worker.Runtime{
		Venue:     venue,
		Database:  s.opts.Database,
		Clock:     s.opts.Clock,
		Messenger: s.opts.Messenger,
		Summaries: s.opts.Summaries,
		Now:       s.opts.Clock.Now,
	}
	return worker.New(s.opts.Key.WorkerKey(id), wcfg, rt)
}

// StartWorker starts a configured worker. Returns os.ErrExist if the worker is
// already running.
func (s *Supervisor) StartWorker(ctx context.Context, id string) error {
	s.mu.Lock()
	w, ok := s.workers[id]
	s.mu.Unlock()

	if !ok {
		nw, err := s.newWorker(id)
		if err != nil {
			return err
		}
		s.mu.Lock()
		if w, ok = s.workers[id]; !ok {
			s.workers[id], w = nw, nw
		}
		s.mu.Unlock()
	}

	if w.IsRunning() {
		return fmt.Errorf("worker %s is already running: %w", w.Key(), os.ErrExist)
	}
	return w.Start(ctx)
}

// StopWorker stops a worker and waits for its tick loop to end. Returns
// os.ErrNotExist if the worker is not running.
func (s *Supervisor) StopWorker(ctx context.Context, id string) error {
	s.mu.Lock()
	w, ok := s.workers[id]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("worker %s is not running: %w", s.opts.Key.WorkerKey(id), os.ErrNotExist)
	}
	return w.Stop(ctx)
}

func (s *Supervisor) WorkerStatus(id string) (*api.WorkerStatus, error) {
	s.mu.Lock()
	w, ok := s.workers[id]
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("worker %s is not found: %w", s.opts.Key.WorkerKey(id), os.ErrNotExist)
	}
	return w.Status(), nil
}

// Status returns a snapshot of the instance and its workers.
func (s *Supervisor) Status() *api.StrategyStatus {
	s.mu.Lock()
	status := &api.StrategyStatus{
		Key:         s.key,
		Initialized: s.initialized,
		RunState:    string(s.runState),
		Tasks:       make(map[string]string),
		Workers:     make(map[string]*api.WorkerStatus),
	}
	if s.tickJob != nil {
		status.Tasks["supervisor"] = string(s.tickJob.State())
	}
	workers := make(map[string]*worker.Worker, len(s.workers))
	for id, w := range s.workers {
		workers[id] = w
	}
	s.mu.Unlock()

	for id, w := range workers {
		ws := w.Status()
		status.Workers[id] = ws
		status.Tasks["worker:"+id] = ws.TaskState
	}
	return status
}
