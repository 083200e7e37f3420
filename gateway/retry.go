// Copyright (c) 2025 BVK Chaitanya

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/funttastic/fun-api-sub000/ctxutil"
)

type RetryOptions struct {
	// Retries is the total number of attempts. Values below one mean a single
	// attempt.
	Retries int

	// Delay is the wait time between attempts.
	Delay time.Duration

	// AttemptTimeout bounds each attempt. Zero means no per-attempt timeout.
	AttemptTimeout time.Duration
}

// Op is a remote operation.
type Op[REQ, RESP any] func(ctx context.Context, req REQ) (RESP, error)

// Retry wraps an operation with the retry and timeout policy. The wrapped
// operation returns the first successful result. When all attempts fail, it
// returns a *RetryError with every attempt's error. Cancellation of the
// caller's context stops the retries and returns the context's cause.
func Retry[REQ, RESP any](name string, opts RetryOptions, op Op[REQ, RESP]) Op[REQ, RESP] {
	attempts := max(opts.Retries, 1)

	return func(ctx context.Context, req REQ) (RESP, error) {
		var zero RESP
		var errs []error
		for i := 0; i < attempts; i++ {
			if i > 0 {
				if err := ctxutil.Sleep(ctx, opts.Delay); err != nil {
					return zero, err
				}
			}

			resp, err := attempt(ctx, opts.AttemptTimeout, op, req)
			if err == nil {
				return resp, nil
			}
			if cause := context.Cause(ctx); cause != nil {
				return zero, cause
			}
			if i+1 < attempts {
				slog.Warn("gateway operation failed (will retry)", "op", name, "attempt", i+1, "err", err)
			}
			errs = append(errs, err)
		}

		rerr := &RetryError{Op: name, Errs: errs}
		slog.Error("could not perform gateway operation", "op", name, "request", req, "err", rerr)
		return zero, rerr
	}
}

func attempt[REQ, RESP any](ctx context.Context, timeout time.Duration, op Op[REQ, RESP], req REQ) (RESP, error) {
	if timeout <= 0 {
		return op(ctx, req)
	}

	actx, acancel := context.WithTimeout(ctx, timeout)
	defer acancel()

	resp, err := op(actx, req)
	if err != nil && ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
		return resp, fmt.Errorf("attempt timed out after %s: %w", timeout, err)
	}
	return resp, err
}
