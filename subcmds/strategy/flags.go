// Copyright (c) 2025 BVK Chaitanya

package strategy

import (
	"flag"

	"github.com/funttastic/fun-api-sub000/subcmds/cmdutil"
	"github.com/funttastic/fun-api-sub000/supervisor"
)

type Flags struct {
	cmdutil.ClientFlags

	strategy string
	version  string
}

func (f *Flags) SetFlags(fset *flag.FlagSet) {
	f.ClientFlags.SetFlags(fset)
	fset.StringVar(&f.strategy, "strategy", supervisor.StrategyName, "strategy name")
	fset.StringVar(&f.version, "version", supervisor.StrategyVersion, "strategy version")
}
