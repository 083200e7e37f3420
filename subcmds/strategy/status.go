// Copyright (c) 2025 BVK Chaitanya

package strategy

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"

	"github.com/funttastic/fun-api-sub000/api"
	"github.com/funttastic/fun-api-sub000/server"
	"github.com/funttastic/fun-api-sub000/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type Status struct {
	Flags

	printJSON bool
}

func (c *Status) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("status", flag.ContinueOnError)
	c.Flags.SetFlags(fset)
	fset.BoolVar(&c.printJSON, "json", false, "prints the status in json format")
	return "status", fset, cli.CmdFunc(c.run)
}

func (c *Status) run(ctx context.Context, args []string) error {
	req, err := c.request(args)
	if err != nil {
		return err
	}
	resp, err := cmdutil.Post[api.StrategyStatus](ctx, &c.ClientFlags, api.StrategyStatusPath, req)
	if err != nil {
		return err
	}
	if c.printJSON {
		jsdata, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Fprintf(cli.Stdout(ctx), "%s\n", jsdata)
		return nil
	}
	server.WriteStrategyStatus(cli.Stdout(ctx), resp)
	return nil
}

func (c *Status) Purpose() string {
	return "Prints the status of a strategy instance and its workers"
}
