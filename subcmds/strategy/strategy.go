// Copyright (c) 2025 BVK Chaitanya

package strategy

import (
	"fmt"

	"github.com/funttastic/fun-api-sub000/api"
)

func (f *Flags) request(args []string) (*api.StrategyRequest, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("this command takes one (instance name) argument")
	}
	return &api.StrategyRequest{
		Strategy: f.strategy,
		Version:  f.version,
		Instance: args[0],
	}, nil
}
