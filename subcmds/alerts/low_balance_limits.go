// Copyright (c) 2025 BVK Chaitanya

package alerts

import (
	"context"
	"flag"
	"fmt"
	"regexp"
	"strings"

	"github.com/funttastic/fun-api-sub000/server"
	"github.com/funttastic/fun-api-sub000/subcmds/cmdutil"
	"github.com/shopspring/decimal"
	"github.com/visvasity/cli"
)

type LowBalanceLimits struct {
	cmdutil.DBFlags
}

func (c *LowBalanceLimits) Purpose() string {
	return "Adds or updates lower-limits to raise alert on token balance"
}

func (c *LowBalanceLimits) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("low-balance-limits", flag.ContinueOnError)
	c.DBFlags.SetFlags(fset)
	return "low-balance-limits", fset, cli.CmdFunc(c.run)
}

var symbolRe = regexp.MustCompile("^[A-Z][A-Z0-9]+$")

// ParseLimits parses SYMBOL=LIMIT arguments.
func ParseLimits(args []string) (map[string]decimal.Decimal, error) {
	limitsMap := make(map[string]decimal.Decimal)
	for _, arg := range args {
		vs := strings.SplitN(arg, "=", 2)
		if len(vs) != 2 {
			return nil, fmt.Errorf("invalid SYMBOL=LIMIT argument %q", arg)
		}
		// Token symbols are all-capitals with at least two characters.
		if !symbolRe.MatchString(vs[0]) {
			return nil, fmt.Errorf("unsupported/invalid symbol name in %q", arg)
		}
		limit, err := decimal.NewFromString(vs[1])
		if err != nil {
			return nil, fmt.Errorf("invalid limit value in %q", arg)
		}
		if limit.IsNegative() {
			return nil, fmt.Errorf("limit value cannot be negative in %q", arg)
		}
		limitsMap[vs[0]] = limit
	}
	return limitsMap, nil
}

// Example: funapi alerts low-balance-limits SOL=10 USDC=200
func (c *LowBalanceLimits) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("this command takes one or more arguments")
	}
	limitsMap, err := ParseLimits(args)
	if err != nil {
		return err
	}

	db, closer, err := c.DBFlags.GetDatabase(ctx)
	if err != nil {
		return fmt.Errorf("could not create database client: %w", err)
	}
	defer closer()

	return server.SetLowBalanceLimits(ctx, db, limitsMap)
}
