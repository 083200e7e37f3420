// Copyright (c) 2023 BVK Chaitanya

// Package job implements background activities that are stopped through
// their context.Context argument. Stopping a job cancels its context and waits
// for the job function to return.
package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

type State string

const (
	CREATED   State = "CREATED"
	RUNNING   State = "RUNNING"
	STOPPED   State = "STOPPED"
	COMPLETED State = "COMPLETED"
)

type Func func(ctx context.Context) error

var errStop = errors.New("ErrStop")

type Job struct {
	name string

	f Func

	mu sync.Mutex
	wg sync.WaitGroup

	cancel context.CancelCauseFunc
	done   chan struct{}

	status State
	err    error
}

func New(name string, f Func) *Job {
	return &Job{
		name:   name,
		f:      f,
		status: CREATED,
		done:   make(chan struct{}),
	}
}

func (j *Job) Name() string {
	return j.name
}

// Start runs the job function in a goroutine. Jobs can be started only once.
func (j *Job) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status == RUNNING {
		return fmt.Errorf("job %q is already running: %w", j.name, os.ErrExist)
	}
	if IsFinal(j.status) {
		return fmt.Errorf("job %q is already finished: %w", j.name, os.ErrClosed)
	}

	jctx, jcancel := context.WithCancelCause(ctx)
	j.cancel, j.status = jcancel, RUNNING

	j.wg.Add(1)
	go j.goRun(jctx)
	return nil
}

// Stop cancels the job and waits for the job function to return. Stopping an
// already finished job is a no-op. Stop must not be called from the job
// function itself.
func (j *Job) Stop() {
	defer j.wg.Wait()

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status == CREATED {
		j.status = STOPPED
		close(j.done)
		return
	}
	if j.status != RUNNING {
		return
	}
	if j.cancel != nil {
		j.cancel(errStop)
		j.cancel = nil
	}
	j.status = STOPPED
}

// Wait blocks till the job function returns or the input context is
// canceled.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Err returns the job function's error if the job has failed.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

func (j *Job) goRun(ctx context.Context) {
	defer j.wg.Done()

	err := j.f(ctx)

	j.mu.Lock()
	defer j.mu.Unlock()

	defer close(j.done)

	defer func() {
		if j.cancel != nil {
			j.cancel(os.ErrClosed)
			j.cancel = nil
		}
	}()

	if j.status != RUNNING {
		return
	}
	switch {
	case err == nil:
		j.status = COMPLETED
	case errors.Is(err, context.Cause(ctx)), errors.Is(err, context.Canceled):
		j.status = STOPPED
	default:
		j.status = State(fmt.Sprintf("FAILED: %s", err.Error()))
		j.err = err
	}
}

func IsFinal(s State) bool {
	return s == COMPLETED || s == STOPPED || IsFailed(s)
}

func IsFailed(s State) bool {
	return strings.HasPrefix(string(s), "FAILED:")
}
