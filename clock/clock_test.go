// Copyright (c) 2025 BVK Chaitanya

package clock

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"
)

type fakeTime struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeTime) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeTime) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func TestRegisterDedup(t *testing.T) {
	c, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(time.Hour)
	d1, e1 := c.Register(deadline)
	d2, e2 := c.Register(deadline)
	if e1 != e2 {
		t.Fatalf("want same event for the same deadline")
	}
	if !d1.Equal(d2) {
		t.Fatalf("want same deadline, got %v and %v", d1, d2)
	}
	if n := c.NumPending(); n != 1 {
		t.Fatalf("want 1 pending entry, got %d", n)
	}
}

func TestDeregister(t *testing.T) {
	c, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(time.Hour)
	c.Register(deadline)
	if err := c.Deregister(deadline); err != nil {
		t.Fatal(err)
	}
	if err := c.Deregister(deadline); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want os.ErrNotExist, got %v", err)
	}
}

func TestTimeliness(t *testing.T) {
	ft := &fakeTime{now: time.Unix(1700000000, 0)}
	c, err := New(&Options{PollInterval: 5 * time.Millisecond, Now: ft.Now})
	if err != nil {
		t.Fatal(err)
	}
	c.Start()
	c.Start() // no-op
	defer c.Stop()

	deadline := ft.Now().Add(time.Second)
	_, ev := c.Register(deadline)

	time.Sleep(50 * time.Millisecond)
	if ev.Fired() {
		t.Fatalf("event must not fire before the deadline")
	}

	// Exactly at the deadline is still too early.
	ft.Advance(time.Second)
	time.Sleep(50 * time.Millisecond)
	if ev.Fired() {
		t.Fatalf("event must not fire when now equals the deadline")
	}

	ft.Advance(time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := ev.Wait(ctx); err != nil {
		t.Fatalf("event did not fire after the deadline: %v", err)
	}
	if n := c.NumPending(); n != 0 {
		t.Fatalf("fulfilled events must be removed, %d pending", n)
	}
}

func TestIdleWakeup(t *testing.T) {
	c, err := New(&Options{PollInterval: 5 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	c.Start()
	defer c.Stop()

	// Sweep loop is idle now; a new registration must wake it up.
	time.Sleep(20 * time.Millisecond)
	_, ev := c.Register(time.Now().Add(10 * time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := ev.Wait(ctx); err != nil {
		t.Fatalf("idle clock did not fire new event: %v", err)
	}
}

func TestStopIdempotent(t *testing.T) {
	c, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	c.Stop()
	c.Start()
	if !c.IsRunning() {
		t.Fatalf("clock must be running")
	}
	c.Stop()
	c.Stop()
	if c.IsRunning() {
		t.Fatalf("clock must be stopped")
	}
}

func TestAlignedWait(t *testing.T) {
	interval := 500 * time.Millisecond
	if w := AlignedWait(time.UnixMilli(1000), interval); w != interval {
		t.Fatalf("want %s on a boundary, got %s", interval, w)
	}
	if w := AlignedWait(time.UnixMilli(1100), interval); w != 400*time.Millisecond {
		t.Fatalf("want 400ms, got %s", w)
	}
	if w := AlignedWait(time.UnixMilli(1499), interval); w != time.Millisecond {
		t.Fatalf("want 1ms, got %s", w)
	}
}
