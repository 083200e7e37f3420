// Copyright (c) 2023 BVK Chaitanya

package ctxutil

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func TestSleepCanceled(t *testing.T) {
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(os.ErrClosed)

	s := time.Now()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("want os.ErrClosed, got %v", err)
	}
	if d := time.Since(s); d > time.Second {
		t.Fatalf("canceled sleep took %s", d)
	}
}

func TestRetryTimeout(t *testing.T) {
	ctx := context.Background()

	ncalls := 0
	errFail := errors.New("failed")
	f := func() error {
		ncalls++
		if ncalls < 3 {
			return errFail
		}
		return nil
	}
	if err := RetryTimeout(ctx, time.Millisecond, time.Second, f); err != nil {
		t.Fatal(err)
	}
	if ncalls != 3 {
		t.Fatalf("want 3 calls, got %d", ncalls)
	}

	always := func() error { return errFail }
	if err := RetryTimeout(ctx, time.Millisecond, 20*time.Millisecond, always); !errors.Is(err, errFail) {
		t.Fatalf("want errFail, got %v", err)
	}
}
