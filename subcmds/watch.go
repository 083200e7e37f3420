// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"path"

	"github.com/funttastic/fun-api-sub000/api"
	"github.com/funttastic/fun-api-sub000/subcmds/cmdutil"
	"github.com/funttastic/fun-api-sub000/worker"
	"github.com/gorilla/websocket"
	"github.com/visvasity/cli"
)

type Watch struct {
	cmdutil.ClientFlags

	prefix string
}

func (c *Watch) Purpose() string {
	return "Prints worker summaries as they are published"
}

func (c *Watch) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("watch", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	fset.StringVar(&c.prefix, "prefix", "", "prints summaries only for worker keys with this prefix")
	return "watch", fset, cli.CmdFunc(c.run)
}

func (c *Watch) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}

	addrURL := c.ClientFlags.AddressURL()
	addrURL.Scheme = "ws"
	addrURL.Path = path.Join(addrURL.Path, api.SummariesPath)
	if len(c.prefix) != 0 {
		addrURL.RawQuery = url.Values{"prefix": []string{c.prefix}}.Encode()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, addrURL.String(), nil)
	if err != nil {
		return fmt.Errorf("could not connect to %s: %w", addrURL, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	stdout := cli.Stdout(ctx)
	for {
		summary := new(api.WorkerSummary)
		if err := conn.ReadJSON(summary); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		fmt.Fprintf(stdout, "%s\n\n", worker.FormatSummary(summary))
	}
}
