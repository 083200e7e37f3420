// Copyright (c) 2025 BVK Chaitanya

package clock

import (
	"fmt"
	"os"
	"time"
)

type Options struct {
	// PollInterval is the sweep interval for pending events. An event fires
	// within one poll interval after its deadline.
	PollInterval time.Duration

	// Now returns the current time. Tests can replace it with a fake clock.
	Now func() time.Time
}

func (v *Options) setDefaults() {
	if v.PollInterval == 0 {
		v.PollInterval = 500 * time.Millisecond
	}
	if v.Now == nil {
		v.Now = time.Now
	}
}

func (v *Options) Check() error {
	if v.PollInterval < 0 {
		return fmt.Errorf("poll interval cannot be negative: %w", os.ErrInvalid)
	}
	return nil
}
