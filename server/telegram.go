// Copyright (c) 2023 BVK Chaitanya

package server

import (
	"context"
	"fmt"
	"sort"

	"github.com/funttastic/fun-api-sub000/api"
	"github.com/funttastic/fun-api-sub000/telegram"
	"github.com/visvasity/cli"
)

func (s *Server) addTelegramCommands(ctx context.Context) error {
	cmds := []struct {
		name, purpose string
		handler       telegram.CmdFunc
	}{
		{"strategy_start", "Starts a strategy instance: <strategy> <version> <instance>", s.startTelegramCmd},
		{"strategy_stop", "Stops a strategy instance: <strategy> <version> <instance>", s.stopTelegramCmd},
		{"strategy_status", "Prints the status of a strategy instance: <strategy> <version> <instance>", s.statusTelegramCmd},
		{"health", "Prints the server health", s.healthTelegramCmd},
	}
	for _, c := range cmds {
		if err := s.telegramClient.AddCommand(ctx, c.name, c.purpose, c.handler); err != nil {
			return fmt.Errorf("could not add telegram command %q: %w", c.name, err)
		}
	}
	return nil
}

func parseStrategyArgs(args []string) (*api.StrategyRequest, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("command takes three arguments: <strategy> <version> <instance>")
	}
	return &api.StrategyRequest{Strategy: args[0], Version: args[1], Instance: args[2]}, nil
}

func (s *Server) startTelegramCmd(ctx context.Context, args []string) error {
	req, err := parseStrategyArgs(args)
	if err != nil {
		return err
	}
	resp, err := s.StrategyStart(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprint(cli.Stdout(ctx), resp.Message)
	return nil
}

func (s *Server) stopTelegramCmd(ctx context.Context, args []string) error {
	req, err := parseStrategyArgs(args)
	if err != nil {
		return err
	}
	resp, err := s.StrategyStop(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprint(cli.Stdout(ctx), resp.Message)
	return nil
}

func (s *Server) statusTelegramCmd(ctx context.Context, args []string) error {
	req, err := parseStrategyArgs(args)
	if err != nil {
		return err
	}
	status, err := s.StrategyStatus(ctx, req)
	if err != nil {
		return err
	}
	WriteStrategyStatus(cli.Stdout(ctx), status)
	return nil
}

func (s *Server) healthTelegramCmd(ctx context.Context, _ []string) error {
	resp, err := s.ServerStatus(ctx, &api.ServerStatusRequest{})
	if err != nil {
		return err
	}
	WriteServerStatus(cli.Stdout(ctx), resp)
	return nil
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
