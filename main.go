// Copyright (c) 2023 BVK Chaitanya

package main

import (
	"context"
	"log"
	"os"

	"github.com/funttastic/fun-api-sub000/subcmds"
	"github.com/funttastic/fun-api-sub000/subcmds/alerts"
	"github.com/funttastic/fun-api-sub000/subcmds/db"
	"github.com/funttastic/fun-api-sub000/subcmds/setup"
	"github.com/funttastic/fun-api-sub000/subcmds/strategy"
	"github.com/funttastic/fun-api-sub000/subcmds/worker"
	"github.com/visvasity/cli"
)

func main() {
	dbCmds := []cli.Command{
		new(db.Get),
		new(db.Delete),
		new(db.List),
	}

	setupCmds := []cli.Command{
		new(setup.Gateway),
		new(setup.Telegram),
		new(setup.PushOver),
	}

	strategyCmds := []cli.Command{
		new(strategy.Start),
		new(strategy.Stop),
		new(strategy.Status),
	}

	workerCmds := []cli.Command{
		new(worker.Start),
		new(worker.Stop),
		new(worker.Status),
	}

	alertsCmds := []cli.Command{
		new(alerts.LowBalanceLimits),
	}

	cmds := []cli.Command{
		new(subcmds.Run),
		new(subcmds.Status),
		new(subcmds.Watch),
		new(subcmds.IDGen),
		cli.NewGroup("strategy", "Control strategy instances", strategyCmds...),
		cli.NewGroup("worker", "Control workers of a strategy instance", workerCmds...),
		cli.NewGroup("setup", "Configure gateway and notification parameters", setupCmds...),
		cli.NewGroup("alerts", "Configure alerts", alertsCmds...),
		cli.NewGroup("db", "View/update database directly", dbCmds...),
	}
	if err := cli.Run(context.Background(), cmds, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
