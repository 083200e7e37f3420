// Copyright (c) 2025 BVK Chaitanya

package worker

import (
	"flag"
	"fmt"

	"github.com/funttastic/fun-api-sub000/api"
	"github.com/funttastic/fun-api-sub000/strategy"
	"github.com/funttastic/fun-api-sub000/subcmds/cmdutil"
)

type Flags struct {
	cmdutil.ClientFlags
}

func (f *Flags) SetFlags(fset *flag.FlagSet) {
	f.ClientFlags.SetFlags(fset)
}

// request parses STRATEGY:VERSION:INSTANCE and WORKER-ID arguments.
func (f *Flags) request(args []string) (*api.WorkerRequest, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("this command takes two (instance key and worker id) arguments")
	}
	key, err := strategy.ParseKey(args[0])
	if err != nil {
		return nil, err
	}
	return &api.WorkerRequest{
		Strategy: key.Strategy,
		Version:  key.Version,
		Instance: key.Instance,
		Worker:   args[1],
	}, nil
}
