// Copyright (c) 2025 BVK Chaitanya

package supervisor

import (
	"context"
	"path/filepath"

	"github.com/bvkgo/kv"
	"github.com/funttastic/fun-api-sub000/api"
	"github.com/funttastic/fun-api-sub000/clock"
	"github.com/funttastic/fun-api-sub000/config"
	"github.com/funttastic/fun-api-sub000/strategy"
	"github.com/funttastic/fun-api-sub000/worker"
	"github.com/visvasity/topic"
)

// Strategy and version served by the supervisor.
const (
	StrategyName    = "pure_market_making"
	StrategyVersion = "1.0.0"
)

// FactoryOptions holds the services shared by all instances created by a
// factory.
type FactoryOptions struct {
	// StrategiesDir holds the instance configuration files as
	// <strategy>/<version>/<instance>.yml
	StrategiesDir string

	Clock *clock.Clock

	VenueFor VenueFunc

	Database kv.Database

	Messenger worker.Messenger

	Summaries *topic.Topic[*api.WorkerSummary]
}

// ConfigFile returns the configuration file path for an instance.
func ConfigFile(dir string, key strategy.Key) string {
	return filepath.Join(dir, key.Strategy, key.Version, key.Instance+".yml")
}

// NewFactory returns a strategy factory that creates supervisors configured
// from files under the strategies directory.
func NewFactory(fopts *FactoryOptions) strategy.Factory {
	return func(ctx context.Context, key strategy.Key) (strategy.Instance, error) {
		opts := &Options{
			Key:       key,
			Source:    config.FileSource(ConfigFile(fopts.StrategiesDir, key)),
			Clock:     fopts.Clock,
			VenueFor:  fopts.VenueFor,
			Database:  fopts.Database,
			Messenger: fopts.Messenger,
			Summaries: fopts.Summaries,
		}
		return New(opts)
	}
}
