// Copyright (c) 2025 BVK Chaitanya

package supervisor

import (
	"fmt"
	"os"

	"github.com/bvkgo/kv"
	"github.com/funttastic/fun-api-sub000/api"
	"github.com/funttastic/fun-api-sub000/clock"
	"github.com/funttastic/fun-api-sub000/config"
	"github.com/funttastic/fun-api-sub000/exchange"
	"github.com/funttastic/fun-api-sub000/strategy"
	"github.com/funttastic/fun-api-sub000/worker"
	"github.com/visvasity/topic"
)

// VenueFunc returns the venue for a worker configuration.
type VenueFunc func(cfg *config.Worker) (exchange.Venue, error)

type Options struct {
	Key strategy.Key

	// Source is loaded on initialization and on every supervisor tick.
	Source config.Source

	// Clock is shared by all instances of the process.
	Clock *clock.Clock

	VenueFor VenueFunc

	Database kv.Database

	Messenger worker.Messenger

	Summaries *topic.Topic[*api.WorkerSummary]
}

func (v *Options) Check() error {
	if err := v.Key.Check(); err != nil {
		return err
	}
	if v.Source == nil {
		return fmt.Errorf("configuration source is required: %w", os.ErrInvalid)
	}
	if v.Clock == nil {
		return fmt.Errorf("clock is required: %w", os.ErrInvalid)
	}
	if v.VenueFor == nil {
		return fmt.Errorf("venue function is required: %w", os.ErrInvalid)
	}
	return nil
}
