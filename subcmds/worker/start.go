// Copyright (c) 2025 BVK Chaitanya

package worker

import (
	"context"
	"flag"
	"fmt"

	"github.com/funttastic/fun-api-sub000/api"
	"github.com/funttastic/fun-api-sub000/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type Start struct {
	Flags
}

func (c *Start) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("start", flag.ContinueOnError)
	c.Flags.SetFlags(fset)
	return "start", fset, cli.CmdFunc(c.run)
}

func (c *Start) run(ctx context.Context, args []string) error {
	req, err := c.request(args)
	if err != nil {
		return err
	}
	resp, err := cmdutil.Post[api.MessageResponse](ctx, &c.ClientFlags, api.WorkerStartPath, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.Stdout(ctx), resp.Message)
	return nil
}

func (c *Start) Purpose() string {
	return "Starts a worker of a running strategy instance"
}
