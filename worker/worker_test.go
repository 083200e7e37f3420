// Copyright (c) 2025 BVK Chaitanya

package worker

import (
	"context"
	"errors"
	"os"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/bvkgo/kv/kvmemdb"
	"github.com/funttastic/fun-api-sub000/api"
	"github.com/funttastic/fun-api-sub000/config"
	"github.com/funttastic/fun-api-sub000/exchange/venuetest"
	"github.com/funttastic/fun-api-sub000/job"
	"github.com/funttastic/fun-api-sub000/strategy"
	"github.com/visvasity/topic"
)

type testMessenger struct {
	mu       sync.Mutex
	messages []string
}

func (m *testMessenger) SendMessage(ctx context.Context, at time.Time, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, text)
	return nil
}

func (m *testMessenger) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

func newTestVenue() *venuetest.Venue {
	v := venuetest.New()
	v.AddMarket(testMarket(), d("2"))
	v.SetBalance("SOL", d("100"))
	v.SetBalance("USDC", d("100"))
	return v
}

func newTestWorkerConfig() *config.Worker {
	return testConfig(config.Layer{
		BidSpreadPercentage: d("1"), BidQuantity: 1, BidMaxLiquidityUSD: d("10"),
		AskSpreadPercentage: d("1"), AskQuantity: 1, AskMaxLiquidityUSD: d("10"),
	})
}

func TestWorkerTick(t *testing.T) {
	ctx := context.Background()
	venue := newTestVenue()
	db := kvmemdb.New()
	messenger := new(testMessenger)
	summaries := topic.New[*api.WorkerSummary]()
	defer summaries.Close()

	receiver, err := topic.Subscribe(summaries, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	defer receiver.Close()

	rt := &Runtime{Venue: venue, Database: db, Messenger: messenger, Summaries: summaries}
	w, err := New("pmm:1.0.0:default:worker:0", newTestWorkerConfig(), rt)
	if err != nil {
		t.Fatal(err)
	}

	if err := w.Tick(ctx); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid before initialize, got %v", err)
	}
	if err := w.Initialize(ctx); err != nil {
		t.Fatal(err)
	}

	// First tick places one bid and one ask.
	if err := w.Tick(ctx); err != nil {
		t.Fatal(err)
	}
	first := venue.OpenOrders()
	if len(first) != 2 {
		t.Fatalf("want 2 open orders, got %d", len(first))
	}
	if s, err := receiver.Receive(); err != nil || s.NumPlaced != 2 {
		t.Fatalf("want a summary with 2 placed orders, got %v (err %v)", s, err)
	}
	if messenger.count() != 1 {
		t.Fatalf("want 1 message, got %d", messenger.count())
	}

	// Second tick keeps the first tick's orders as they are still current.
	if err := w.Tick(ctx); err != nil {
		t.Fatal(err)
	}
	if n := venue.NumCalls("CancelOrders"); n != 0 {
		t.Fatalf("want no cancellations, got %d", n)
	}

	// Third tick cancels exactly the first tick's orders.
	if err := w.Tick(ctx); err != nil {
		t.Fatal(err)
	}
	if len(venue.Canceled) != 1 {
		t.Fatalf("want one cancel request, got %v", venue.Canceled)
	}
	var want []string
	for _, o := range first {
		want = append(want, o.ID)
	}
	slices.Sort(want)
	if !slices.Equal(venue.Canceled[0], want) {
		t.Fatalf("want canceled %v, got %v", want, venue.Canceled[0])
	}
	if n := len(venue.OpenOrders()); n != 4 {
		t.Fatalf("want 4 open orders, got %d", n)
	}

	status := w.Status()
	if !status.Initialized || status.NumCurrent != 2 || status.NumTracked != 6 || len(status.LastError) != 0 {
		t.Fatalf("unexpected status %+v", status)
	}
	if status.Summary == nil || status.Summary.NumCanceled != 2 {
		t.Fatalf("unexpected summary %+v", status.Summary)
	}

	// A new worker with the same key continues the bookkeeping.
	w2, err := New("pmm:1.0.0:default:worker:0", newTestWorkerConfig(), rt)
	if err != nil {
		t.Fatal(err)
	}
	if err := w2.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	if w2.ids.Offset() != 6 {
		t.Fatalf("want client id offset 6, got %d", w2.ids.Offset())
	}
	if s := w2.Status(); s.NumTracked != 6 || s.NumCurrent != 2 {
		t.Fatalf("unexpected restored status %+v", s)
	}
}

func TestWorkerTickErrors(t *testing.T) {
	ctx := context.Background()
	venue := newTestVenue()

	cfg := newTestWorkerConfig()
	cfg.PriceStrategy = config.LAST_FILL
	w, err := New("pmm:1.0.0:default:worker:1", cfg, &Runtime{Venue: venue})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	if err := w.Tick(ctx); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist without fills, got %v", err)
	}
	if s := w.Status(); len(s.LastError) == 0 {
		t.Fatalf("want last error in status")
	}
	if n := venue.NumCalls("PlaceOrders"); n != 0 {
		t.Fatalf("want no orders placed, got %d", n)
	}

	w.tickMu.Lock()
	if err := w.Tick(ctx); !errors.Is(err, ErrBusy) {
		t.Fatalf("want ErrBusy, got %v", err)
	}
	w.tickMu.Unlock()

	if err := w.UpdateConfig(newTestWorkerConfig()); err != nil {
		t.Fatal(err)
	}
	if err := w.Tick(ctx); err != nil {
		t.Fatal(err)
	}

	other := newTestWorkerConfig()
	other.Market = "ETH-USDC"
	if err := w.UpdateConfig(other); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid on market change, got %v", err)
	}
}

func TestWorkerInitializeFailure(t *testing.T) {
	cfg := newTestWorkerConfig()
	cfg.Market = "ETH-USDC"
	w, err := New("pmm:1.0.0:default:worker:2", cfg, &Runtime{Venue: newTestVenue()})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist for unknown market, got %v", err)
	}
	if s := w.Status(); s.Initialized || s.RunState != string(strategy.STOPPED) {
		t.Fatalf("unexpected status %+v", s)
	}
}

func TestWorkerRunOnlyOnce(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	venue := newTestVenue()
	cfg := newTestWorkerConfig()
	cfg.TickIntervalMs = 10
	cfg.RunOnlyOnce = true
	cfg.CancelAllOrdersOnStart = true
	cfg.WithdrawMarketOnStop = true

	w, err := New("pmm:1.0.0:default:worker:3", cfg, &Runtime{Venue: venue})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := w.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if n := venue.NumCalls("PlaceOrders"); n != 1 {
		t.Fatalf("want one tick, got %d", n)
	}
	if n := venue.NumCalls("CancelAllOrders"); n != 1 {
		t.Fatalf("want cancel-all on start, got %d", n)
	}
	if venue.Withdraws != 1 {
		t.Fatalf("want withdraw on stop after the only tick, got %d", venue.Withdraws)
	}
	s := w.Status()
	if s.RunState != string(strategy.STOPPED) || s.TaskState != string(job.COMPLETED) {
		t.Fatalf("unexpected status %+v", s)
	}
	if err := w.Stop(ctx); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist, got %v", err)
	}
	if venue.Withdraws != 1 {
		t.Fatalf("want a single withdraw, got %d", venue.Withdraws)
	}
}

func TestWorkerStartStop(t *testing.T) {
	ctx := context.Background()

	venue := newTestVenue()
	cfg := newTestWorkerConfig()
	cfg.TickIntervalMs = 3600 * 1000
	cfg.CancelAllOrdersOnStop = true
	cfg.WithdrawMarketOnStop = true

	w, err := New("pmm:1.0.0:default:worker:4", cfg, &Runtime{Venue: venue})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := w.Start(ctx); !errors.Is(err, os.ErrExist) {
		t.Fatalf("want os.ErrExist, got %v", err)
	}
	if !w.IsRunning() {
		t.Fatalf("worker must be running")
	}

	if err := w.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	if w.IsRunning() {
		t.Fatalf("worker must not be running")
	}
	if s := w.Status(); s.RunState != string(strategy.STOPPED) || s.TaskState != string(job.STOPPED) {
		t.Fatalf("unexpected status %+v", s)
	}
	if n := venue.NumCalls("CancelAllOrders"); n != 1 {
		t.Fatalf("want cancel-all on stop, got %d", n)
	}
	if venue.Withdraws != 1 {
		t.Fatalf("want withdraw on stop, got %d", venue.Withdraws)
	}
	if err := w.Stop(ctx); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist, got %v", err)
	}
}

func TestWorkerLazyCancel(t *testing.T) {
	ctx := context.Background()
	venue := newTestVenue()
	venue.LazyCancels = 1

	w, err := New("pmm:1.0.0:default:worker:5", newTestWorkerConfig(), &Runtime{Venue: venue})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Initialize(ctx); err != nil {
		t.Fatal(err)
	}

	var placed [][]string
	for i := 0; i < 4; i++ {
		before := make(map[string]bool)
		for _, o := range venue.OpenOrders() {
			before[o.ID] = true
		}
		if err := w.Tick(ctx); err != nil {
			t.Fatal(err)
		}
		var ids []string
		for _, o := range venue.OpenOrders() {
			if !before[o.ID] {
				ids = append(ids, o.ID)
			}
		}
		slices.Sort(ids)
		placed = append(placed, ids)
	}

	// Third tick's cancel of the first tick's orders is only acknowledged, so
	// the fourth tick must cancel them again along with the second tick's.
	if len(venue.Canceled) != 2 {
		t.Fatalf("want two cancel requests, got %v", venue.Canceled)
	}
	if !slices.Equal(venue.Canceled[0], placed[0]) {
		t.Fatalf("want first cancel %v, got %v", placed[0], venue.Canceled[0])
	}
	want := slices.Concat(placed[0], placed[1])
	slices.Sort(want)
	if !slices.Equal(venue.Canceled[1], want) {
		t.Fatalf("want second cancel %v, got %v", want, venue.Canceled[1])
	}
	if n := len(venue.OpenOrders()); n != 4 {
		t.Fatalf("want only the last two ticks' orders open, got %d", n)
	}
	if s := w.Status(); s.NumTracked != 8 {
		t.Fatalf("want all 8 placed ids tracked, got %d", s.NumTracked)
	}
}

func TestWorkerRestart(t *testing.T) {
	ctx := context.Background()

	var mu sync.Mutex
	now := time.UnixMilli(1_700_000_000_000).Truncate(time.Minute).Add(10 * time.Second)
	nowFunc := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	venue := newTestVenue()
	cfg := newTestWorkerConfig()
	cfg.TickIntervalMs = 60 * 1000
	cfg.CancelAllOrdersOnStart = true
	cfg.WithdrawMarketOnStart = true

	w, err := New("pmm:1.0.0:default:worker:6", cfg, &Runtime{Venue: venue, Now: nowFunc})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if w.firstWait != 50*time.Second {
		t.Fatalf("want first wait 50s, got %s", w.firstWait)
	}
	if err := w.Stop(ctx); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	now = now.Add(45 * time.Second)
	mu.Unlock()

	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop(ctx)

	if w.firstWait != 5*time.Second {
		t.Fatalf("want restart wait 5s, got %s", w.firstWait)
	}
	if n := venue.NumCalls("CancelAllOrders"); n != 2 {
		t.Fatalf("want cancel-all on every start, got %d", n)
	}
	if venue.Withdraws != 2 {
		t.Fatalf("want withdraw on every start, got %d", venue.Withdraws)
	}
}
