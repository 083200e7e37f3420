// Copyright (c) 2023 BVK Chaitanya

package server

import (
	"fmt"
	"os"
	"time"

	"github.com/funttastic/fun-api-sub000/supervisor"
)

type Options struct {
	// StrategiesDir holds the strategy instance configuration files.
	StrategiesDir string

	// NoResume disables restarting the instances that were running when the
	// previous server process was shut down.
	NoResume bool

	// ClockPollInterval is the sweep interval of the process clock.
	ClockPollInterval time.Duration

	// AlertFreezeDuration is the minimum time between two low balance alerts
	// for the same token.
	AlertFreezeDuration time.Duration

	// VenueFor overrides the gateway venues when set.
	VenueFor supervisor.VenueFunc
}

func (v *Options) setDefaults() {
	if v.AlertFreezeDuration == 0 {
		v.AlertFreezeDuration = time.Hour
	}
}

func (v *Options) Check() error {
	if len(v.StrategiesDir) == 0 {
		return fmt.Errorf("strategies directory cannot be empty: %w", os.ErrInvalid)
	}
	if v.AlertFreezeDuration < 0 {
		return fmt.Errorf("alert freeze duration cannot be negative: %w", os.ErrInvalid)
	}
	return nil
}
