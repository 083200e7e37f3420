// Copyright (c) 2025 BVK Chaitanya

// Package clock implements a process-wide timer service. Loops register a
// deadline and wait on the returned event instead of keeping a timer each.
package clock

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"time"
)

// Event is signaled once by the clock after its deadline passes.
type Event struct {
	deadline time.Time

	once sync.Once
	done chan struct{}
}

func newEvent(deadline time.Time) *Event {
	return &Event{deadline: deadline, done: make(chan struct{})}
}

func (e *Event) Deadline() time.Time {
	return e.deadline
}

// Done returns a channel that is closed when the event is fulfilled.
func (e *Event) Done() <-chan struct{} {
	return e.done
}

func (e *Event) Fired() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// Wait blocks till the event is fulfilled or the context is canceled.
func (e *Event) Wait(ctx context.Context) error {
	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

func (e *Event) fire() {
	e.once.Do(func() { close(e.done) })
}

type Clock struct {
	opts Options

	mu sync.Mutex

	pending map[int64]*Event

	// dirty is raised when a new deadline is registered so that an idle sweep
	// loop can wake up.
	dirty chan struct{}

	lifeCancel context.CancelCauseFunc

	wg sync.WaitGroup
}

func New(opts *Options) (*Clock, error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	c := &Clock{
		opts:    *opts,
		pending: make(map[int64]*Event),
		dirty:   make(chan struct{}, 1),
	}
	return c, nil
}

// Now returns the current time as seen by the clock.
func (c *Clock) Now() time.Time {
	return c.opts.Now()
}

// Register returns the event for the given deadline. Registrations for the
// same deadline share one event.
func (c *Clock) Register(deadline time.Time) (time.Time, *Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := deadline.UnixNano()
	if ev, ok := c.pending[key]; ok {
		return ev.deadline, ev
	}
	ev := newEvent(deadline)
	c.pending[key] = ev

	select {
	case c.dirty <- struct{}{}:
	default:
	}
	return deadline, ev
}

// Deregister removes a pending deadline. Returns os.ErrNotExist if the
// deadline is not pending.
func (c *Clock) Deregister(deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := deadline.UnixNano()
	if _, ok := c.pending[key]; !ok {
		return fmt.Errorf("deadline %s is not registered: %w", deadline.Format(time.RFC3339Nano), os.ErrNotExist)
	}
	delete(c.pending, key)
	return nil
}

// NumPending returns the number of registered, unfulfilled deadlines.
func (c *Clock) NumPending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Start launches the background sweep loop. It is a no-op if the clock is
// already running.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lifeCancel != nil {
		return
	}
	ctx, cancel := context.WithCancelCause(context.Background())
	c.lifeCancel = cancel

	c.wg.Add(1)
	go c.goSweep(ctx)
}

// Stop cancels the sweep loop and waits for it to finish. Pending events are
// kept and will fire if the clock is started again.
func (c *Clock) Stop() {
	c.mu.Lock()
	cancel := c.lifeCancel
	c.lifeCancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel(os.ErrClosed)
	}
	c.wg.Wait()
}

func (c *Clock) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lifeCancel != nil
}

func (c *Clock) goSweep(ctx context.Context) {
	defer c.wg.Done()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("CAUGHT PANIC", "panic", r)
			slog.Error(string(debug.Stack()))
			panic(r)
		}
	}()

	for ctx.Err() == nil {
		if c.NumPending() == 0 {
			select {
			case <-ctx.Done():
				return
			case <-c.dirty:
			}
		}

		c.sweep()

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.opts.PollInterval):
		}
	}
}

func (c *Clock) sweep() {
	now := c.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, ev := range c.pending {
		if !ev.deadline.Before(now) {
			continue
		}
		if err := fulfill(ev); err != nil {
			slog.Error("could not fulfill clock event (ignored)", "deadline", ev.deadline, "err", err)
		}
		delete(c.pending, key)
	}
}

func fulfill(ev *Event) (status error) {
	defer func() {
		if r := recover(); r != nil {
			status = fmt.Errorf("panic: %v", r)
		}
	}()
	ev.fire()
	return nil
}
