// Copyright (c) 2025 BVK Chaitanya

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bvkgo/kv/kvmemdb"
	"github.com/funttastic/fun-api-sub000/clock"
	"github.com/funttastic/fun-api-sub000/config"
	"github.com/funttastic/fun-api-sub000/exchange"
	"github.com/funttastic/fun-api-sub000/exchange/venuetest"
	"github.com/funttastic/fun-api-sub000/strategy"
	"github.com/shopspring/decimal"
)

const testConfig = `
strategy: pure_market_making
version: "1.0.0"
supervisor:
  tick_interval_ms: 20
  run_only_once: %s
common:
  connector: openbook
  wallet_address: owner
  market: SOL-USDC
  tick_interval_ms: 3600000
  price_strategy: TICKER
  layers:
    - bid_spread_percentage: 1
      bid_quantity: 1
      bid_max_liquidity_usd: 10
workers:
  "0": {}
  "1":
    market: %s
`

// testSource serves a configuration and counts the loads. Loads after the
// first one fail when failReloads is set.
type testSource struct {
	mu sync.Mutex

	data        string
	loads       int
	failReloads bool
}

func (v *testSource) Load(ctx context.Context) (*config.Strategy, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.loads++
	if v.loads > 1 && v.failReloads {
		return nil, os.ErrInvalid
	}
	return config.Parse([]byte(v.data))
}

func (v *testSource) numLoads() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loads
}

func newTestSource(runOnlyOnce bool, market string) *testSource {
	once := "false"
	if runOnlyOnce {
		once = "true"
	}
	return &testSource{data: fmt.Sprintf(testConfig, once, market)}
}

func newTestSupervisor(t *testing.T, src config.Source) (*Supervisor, *venuetest.Venue) {
	venue := venuetest.New()
	venue.AddMarket(&exchange.Market{
		ID:                    "SOL-USDC",
		BaseToken:             "SOL",
		QuoteToken:            "USDC",
		MinimumOrderSize:      decimal.NewFromInt(1),
		MinimumPriceIncrement: decimal.RequireFromString("0.001"),
	}, decimal.NewFromInt(2))
	venue.SetBalance("USDC", decimal.NewFromInt(100))

	c, err := clock.New(&clock.Options{PollInterval: 5 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Stop)

	opts := &Options{
		Key:      strategy.Key{Strategy: "pure_market_making", Version: "1.0.0", Instance: "test"},
		Source:   src,
		Clock:    c,
		VenueFor: func(*config.Worker) (exchange.Venue, error) { return venue, nil },
		Database: kvmemdb.New(),
	}
	s, err := New(opts)
	if err != nil {
		t.Fatal(err)
	}
	return s, venue
}

func TestSupervisorLifecycle(t *testing.T) {
	ctx := context.Background()

	src := newTestSource(false, "SOL-USDC")
	s, _ := newTestSupervisor(t, src)

	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(ctx); !errors.Is(err, os.ErrExist) {
		t.Fatalf("want os.ErrExist, got %v", err)
	}

	status := s.Status()
	if !status.Initialized || status.RunState != string(strategy.RUNNING) || len(status.Workers) != 2 {
		t.Fatalf("unexpected status %+v", status)
	}
	for id, ws := range status.Workers {
		if ws.RunState != string(strategy.RUNNING) {
			t.Fatalf("worker %s: unexpected status %+v", id, ws)
		}
	}

	if err := s.StopWorker(ctx, "0"); err != nil {
		t.Fatal(err)
	}
	if err := s.StopWorker(ctx, "0"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist, got %v", err)
	}
	if ws, err := s.WorkerStatus("0"); err != nil || ws.RunState != string(strategy.STOPPED) {
		t.Fatalf("unexpected worker status %+v (err %v)", ws, err)
	}
	if err := s.StartWorker(ctx, "0"); err != nil {
		t.Fatal(err)
	}
	if err := s.StartWorker(ctx, "0"); !errors.Is(err, os.ErrExist) {
		t.Fatalf("want os.ErrExist, got %v", err)
	}
	if err := s.StartWorker(ctx, "9"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist for unknown worker, got %v", err)
	}
	if _, err := s.WorkerStatus("9"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist for unknown worker, got %v", err)
	}

	// Supervisor ticks reload the configuration.
	deadline := time.Now().Add(5 * time.Second)
	for src.numLoads() < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := src.numLoads(); n < 3 {
		t.Fatalf("want configuration reloads, got %d loads", n)
	}

	if err := s.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	status = s.Status()
	if status.RunState != string(strategy.STOPPED) {
		t.Fatalf("unexpected status %+v", status)
	}
	for id, ws := range status.Workers {
		if ws.RunState != string(strategy.STOPPED) {
			t.Fatalf("worker %s: unexpected status %+v", id, ws)
		}
	}
	if err := s.Stop(ctx); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist, got %v", err)
	}
	if err := s.Start(ctx); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("want os.ErrClosed, got %v", err)
	}
}

func TestSupervisorRunOnlyOnce(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	src := newTestSource(true, "SOL-USDC")
	src.failReloads = true
	s, _ := newTestSupervisor(t, src)

	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if state := s.RunState(); state != strategy.STOPPED {
		t.Fatalf("want STOPPED, got %s", state)
	}
	// Failed reload keeps the previous configuration.
	if src.numLoads() != 2 {
		t.Fatalf("want 2 loads, got %d", src.numLoads())
	}
}

func TestSupervisorWorkerFailure(t *testing.T) {
	ctx := context.Background()

	s, _ := newTestSupervisor(t, newTestSource(false, "ETH-USDC"))
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer s.Stop(ctx)

	status := s.Status()
	if ws := status.Workers["0"]; ws == nil || ws.RunState != string(strategy.RUNNING) {
		t.Fatalf("worker 0 must be running, got %+v", ws)
	}
	if ws := status.Workers["1"]; ws == nil || ws.Initialized {
		t.Fatalf("worker 1 must not be initialized, got %+v", ws)
	}
}

func TestSupervisorBadConfiguration(t *testing.T) {
	s, _ := newTestSupervisor(t, &testSource{data: "unknown_field: 1"})
	if err := s.Start(context.Background()); err == nil {
		t.Fatalf("want configuration error")
	}
	if state := s.RunState(); state != strategy.STOPPED {
		t.Fatalf("want STOPPED, got %s", state)
	}
}

func TestFactory(t *testing.T) {
	dir := t.TempDir()
	key := strategy.Key{Strategy: "pure_market_making", Version: "1.0.0", Instance: "default"}
	if p := ConfigFile(dir, key); p != filepath.Join(dir, "pure_market_making", "1.0.0", "default.yml") {
		t.Fatalf("unexpected config file path %q", p)
	}

	c, err := clock.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	f := NewFactory(&FactoryOptions{
		StrategiesDir: dir,
		Clock:         c,
		VenueFor:      func(*config.Worker) (exchange.Venue, error) { return venuetest.New(), nil },
	})
	inst, err := f(context.Background(), key)
	if err != nil {
		t.Fatal(err)
	}
	if err := inst.Start(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist for missing configuration file, got %v", err)
	}
}
