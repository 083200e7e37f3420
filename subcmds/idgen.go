// Copyright (c) 2023 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"

	"github.com/funttastic/fun-api-sub000/idgen"
	"github.com/funttastic/fun-api-sub000/strategy"
	"github.com/visvasity/cli"
)

type IDGen struct {
	from  uint64
	count int
}

// Example: funapi idgen pure_market_making:1.0.0:sol w1
func (c *IDGen) run(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("this command takes two (instance key and worker id) arguments")
	}
	key, err := strategy.ParseKey(args[0])
	if err != nil {
		return err
	}
	seed := key.WorkerKey(args[1])
	gen := idgen.New(seed, c.from)
	stdout := cli.Stdout(ctx)
	fmt.Fprintf(stdout, "prefix: %s\n", gen.Prefix())
	for i := 0; i < c.count; i++ {
		offset, id := gen.Offset(), gen.NextID()
		fmt.Fprintf(stdout, "%d: %s\n", offset, id)
	}
	return nil
}

func (c *IDGen) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("idgen", flag.ContinueOnError)
	fset.Uint64Var(&c.from, "from", 0, "initial id offset")
	fset.IntVar(&c.count, "count", 10, "number of client order ids")
	return "idgen", fset, cli.CmdFunc(c.run)
}

func (c *IDGen) Purpose() string {
	return "Prints client-order-ids of a worker"
}
