// Copyright (c) 2023 BVK Chaitanya

// Package server implements the controller that owns the running strategy
// instances of the process and exposes them over http and telegram.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/bvkgo/kv"
	"github.com/funttastic/fun-api-sub000/api"
	"github.com/funttastic/fun-api-sub000/clock"
	"github.com/funttastic/fun-api-sub000/config"
	"github.com/funttastic/fun-api-sub000/ctxutil"
	"github.com/funttastic/fun-api-sub000/exchange"
	"github.com/funttastic/fun-api-sub000/gateway"
	"github.com/funttastic/fun-api-sub000/httputil"
	"github.com/funttastic/fun-api-sub000/pushover"
	"github.com/funttastic/fun-api-sub000/strategy"
	"github.com/funttastic/fun-api-sub000/supervisor"
	"github.com/funttastic/fun-api-sub000/telegram"
	"github.com/visvasity/topic"
)

type Server struct {
	cg ctxutil.CloseGroup

	opts Options

	db kv.Database

	start time.Time

	clock *clock.Clock

	gateway *gateway.Client

	telegramClient *telegram.Client
	pushoverClient *pushover.Client

	summaries *topic.Topic[*api.WorkerSummary]

	registry *strategy.Registry

	// opMu serializes the instance lifecycle operations.
	opMu sync.Mutex

	mu sync.Mutex

	instanceMap map[strategy.Key]strategy.Instance

	alertFreezeDeadlineMap map[string]time.Time
}

// New creates the controller. Notification clients and the gateway client are
// created for the secrets that are configured.
func New(ctx context.Context, secrets *Secrets, db kv.Database, opts *Options) (_ *Server, status error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	if secrets == nil {
		secrets = new(Secrets)
	}
	if err := secrets.Check(); err != nil {
		return nil, err
	}

	c, err := clock.New(&clock.Options{PollInterval: opts.ClockPollInterval})
	if err != nil {
		return nil, err
	}

	s := &Server{
		opts:                   *opts,
		db:                     db,
		start:                  time.Now(),
		clock:                  c,
		summaries:              topic.New[*api.WorkerSummary](),
		registry:               strategy.NewRegistry(),
		instanceMap:            make(map[strategy.Key]strategy.Instance),
		alertFreezeDeadlineMap: make(map[string]time.Time),
	}
	defer func() {
		if status != nil {
			s.Close()
		}
	}()

	venueFor := opts.VenueFor
	if venueFor == nil {
		if secrets.Gateway == nil {
			return nil, fmt.Errorf("gateway secrets are required")
		}
		gopts := &gateway.Options{
			BaseURL:  secrets.Gateway.BaseURL,
			CertFile: secrets.Gateway.CertFile,
			KeyFile:  secrets.Gateway.KeyFile,
			CAFile:   secrets.Gateway.CAFile,
		}
		client, err := gateway.New(gopts)
		if err != nil {
			return nil, fmt.Errorf("could not create gateway client: %w", err)
		}
		s.gateway = client
		venueFor = func(cfg *config.Worker) (exchange.Venue, error) {
			return client.Venue(cfg.Chain, cfg.Network, cfg.Connector), nil
		}
	}

	if secrets.Pushover != nil {
		client, err := pushover.New(secrets.Pushover)
		if err != nil {
			return nil, fmt.Errorf("could not create pushover client: %w", err)
		}
		s.pushoverClient = client
	}

	if secrets.Telegram != nil {
		client, err := telegram.New(ctx, db, secrets.Telegram)
		if err != nil {
			return nil, fmt.Errorf("could not create telegram client: %w", err)
		}
		s.telegramClient = client
		if err := s.addTelegramCommands(ctx); err != nil {
			return nil, err
		}
	}

	fopts := &supervisor.FactoryOptions{
		StrategiesDir: opts.StrategiesDir,
		Clock:         s.clock,
		VenueFor:      venueFor,
		Database:      db,
		Messenger:     s,
		Summaries:     s.summaries,
	}
	if err := s.registry.Register(supervisor.StrategyName, supervisor.StrategyVersion, supervisor.NewFactory(fopts)); err != nil {
		return nil, err
	}

	receiver, err := topic.Subscribe(s.summaries, 0, false)
	if err != nil {
		return nil, err
	}
	s.cg.Go(func(ctx context.Context) {
		defer receiver.Close()
		s.watchForLowBalance(ctx, receiver)
	})
	return s, nil
}

// Close stops all running instances. Instance records are kept so that they
// are resumed by the next server process.
func (s *Server) Close() error {
	ctx := context.Background()

	s.opMu.Lock()
	s.mu.Lock()
	instances := make(map[strategy.Key]strategy.Instance, len(s.instanceMap))
	for k, v := range s.instanceMap {
		instances[k] = v
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for key, inst := range instances {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := inst.Stop(ctx); err != nil && !errors.Is(err, os.ErrNotExist) {
				slog.Error("could not stop strategy instance on shutdown", "instance", key, "err", err)
			}
		}()
	}
	wg.Wait()
	s.opMu.Unlock()

	s.cg.Close()
	s.clock.Stop()
	s.summaries.Close()

	if s.telegramClient != nil {
		s.telegramClient.Close()
	}
	if s.gateway != nil {
		s.gateway.Close()
	}
	return nil
}

// Registry returns the strategy registry. Additional strategies can be
// registered before any instance is started.
func (s *Server) Registry() *strategy.Registry {
	return s.registry
}

// Summaries returns the topic that receives all worker summaries.
func (s *Server) Summaries() *topic.Topic[*api.WorkerSummary] {
	return s.summaries
}

// SendMessage sends the text through all configured notification clients.
func (s *Server) SendMessage(ctx context.Context, at time.Time, text string) error {
	var errs []error
	if s.telegramClient != nil {
		if err := s.telegramClient.SendMessage(ctx, at, text); err != nil {
			errs = append(errs, err)
		}
	}
	if s.pushoverClient != nil {
		if err := s.pushoverClient.SendMessage(ctx, at, text); err != nil {
			errs = append(errs, err)
		}
	}
	if s.telegramClient == nil && s.pushoverClient == nil {
		slog.Debug("no notification clients are configured", "message", text)
	}
	return errors.Join(errs...)
}

func (s *Server) sendf(ctx context.Context, format string, args ...any) {
	if err := s.SendMessage(ctx, time.Now(), fmt.Sprintf(format, args...)); err != nil {
		slog.Warn("could not send notification (ignored)", "err", err)
	}
}

// HandlerMap returns the http handlers for the controller api.
func (s *Server) HandlerMap() map[string]http.Handler {
	return map[string]http.Handler{
		api.StrategyStartPath:  httputil.JSONHandler(s.StrategyStart),
		api.StrategyStopPath:   httputil.JSONHandler(s.StrategyStop),
		api.StrategyStatusPath: httputil.JSONHandler(s.StrategyStatus),
		api.WorkerStartPath:    httputil.JSONHandler(s.WorkerStart),
		api.WorkerStopPath:     httputil.JSONHandler(s.WorkerStop),
		api.WorkerStatusPath:   httputil.JSONHandler(s.WorkerStatus),
		api.ServerStatusPath:   httputil.JSONHandler(s.ServerStatus),
		api.SummariesPath:      http.HandlerFunc(s.serveSummaries),
	}
}
