// Copyright (c) 2025 BVK Chaitanya

package strategy

import (
	"context"
	"flag"
	"fmt"

	"github.com/funttastic/fun-api-sub000/api"
	"github.com/funttastic/fun-api-sub000/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type Stop struct {
	Flags
}

func (c *Stop) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("stop", flag.ContinueOnError)
	c.Flags.SetFlags(fset)
	return "stop", fset, cli.CmdFunc(c.run)
}

func (c *Stop) run(ctx context.Context, args []string) error {
	req, err := c.request(args)
	if err != nil {
		return err
	}
	resp, err := cmdutil.Post[api.MessageResponse](ctx, &c.ClientFlags, api.StrategyStopPath, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.Stdout(ctx), resp.Message)
	return nil
}

func (c *Stop) Purpose() string {
	return "Stops a strategy instance after canceling its open orders"
}
