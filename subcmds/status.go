// Copyright (c) 2023 BVK Chaitanya

package subcmds

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
	cmdutil.ClientFlags

	printJSON bool
}

func (c *Status) Purpose() string {
	return "Prints the server process health and running strategy instances"
}

func (c *Status) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("status", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	fset.BoolVar(&c.printJSON, "json", false, "prints the status in json format")
	return "status", fset, cli.CmdFunc(c.run)
}

func (c *Status) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}
	resp, err := cmdutil.Post[api.ServerStatusResponse](ctx, &c.ClientFlags, api.ServerStatusPath, new(api.ServerStatusRequest))
	if err != nil {
		return err
	}
	if c.printJSON {
		jsdata, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Fprintf(cli.Stdout(ctx), "%s\n", jsdata)
		return nil
	}
	server.WriteServerStatus(cli.Stdout(ctx), resp)
	return nil
}
