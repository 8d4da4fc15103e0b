package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/fundsync"
	"github.com/etnz/fundsync/fundgz"
	"github.com/etnz/fundsync/renderer"
	"github.com/google/subcommands"
)

// fundsCmd is the top-level command to manage the tracked funds.
type fundsCmd struct{}

func (*fundsCmd) Name() string     { return "funds" }
func (*fundsCmd) Synopsis() string { return "manage the tracked funds" }
func (*fundsCmd) Usage() string {
	return `funds <subcommand> <options>

Lists, adds and removes the funds tracked in the funds file.
`
}
func (c *fundsCmd) SetFlags(f *flag.FlagSet) {}

func (c *fundsCmd) commands() []subcommands.Command {
	return []subcommands.Command{&fundsListCmd{}, &fundsAddCmd{}, &fundsRemoveCmd{}}
}

func (c *fundsCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return execute(ctx, c, "funds", f, args...)
}

type fundsListCmd struct{}

func (*fundsListCmd) Name() string     { return "list" }
func (*fundsListCmd) Synopsis() string { return "list the tracked funds" }
func (*fundsListCmd) Usage() string {
	return `funds list

  Lists the tracked funds.
`
}
func (c *fundsListCmd) SetFlags(f *flag.FlagSet) {}

func (c *fundsListCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	funds, err := DecodeFunds()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load funds: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.Funds(funds))
	return subcommands.ExitSuccess
}

// fundsAddCmd holds the flags for the 'funds add' subcommand.
type fundsAddCmd struct {
	fund     fundsync.Fund
	fundType string
	lookup   bool
}

func (*fundsAddCmd) Name() string     { return "add" }
func (*fundsAddCmd) Synopsis() string { return "track a new fund" }
func (*fundsAddCmd) Usage() string {
	return `funds add -code <code> [-type etf_linked|bond|active] [-etf-code <code> -etf-name <name>] [-source <text>]

  Adds a fund to the tracked funds.

  Unless -lookup=false, the fund name and risk level are looked up online
  when not given.
`
}

func (c *fundsAddCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fund.Code, "code", "", "fund code, e.g. 002963")
	f.StringVar(&c.fund.Name, "name", "", "fund name")
	f.StringVar(&c.fundType, "type", string(fundsync.Active), "fund type: etf_linked, bond or active")
	f.StringVar(&c.fund.ETFCode, "etf-code", "", "code of the ETF an etf_linked fund tracks")
	f.StringVar(&c.fund.ETFName, "etf-name", "", "name of the ETF an etf_linked fund tracks")
	f.StringVar(&c.fund.IndexCode, "index-code", "", "code of the tracked index")
	f.StringVar(&c.fund.IndexName, "index-name", "", "name of the tracked index")
	f.StringVar(&c.fund.Source, "source", "", "where the fund is held")
	f.StringVar(&c.fund.RiskLevel, "risk", "", "risk level, e.g. 'R3 中等风险'")
	f.BoolVar(&c.lookup, "lookup", true, "look up missing name and risk level online")
}

func (c *fundsAddCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	c.fund.Code = strings.TrimSpace(c.fund.Code)
	if c.fund.Code == "" {
		fmt.Fprintln(os.Stderr, "Error: -code is required")
		return subcommands.ExitUsageError
	}
	switch t := fundsync.FundType(c.fundType); t {
	case fundsync.ETFLinked, fundsync.Bond, fundsync.Active:
		c.fund.Type = t
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown fund type %q\n", c.fundType)
		return subcommands.ExitUsageError
	}
	if c.fund.Type == fundsync.ETFLinked && c.fund.ETFCode == "" {
		fmt.Fprintln(os.Stderr, "Error: -etf-code is required for etf_linked funds")
		return subcommands.ExitUsageError
	}

	funds, err := DecodeFunds()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load funds: %v\n", err)
		return subcommands.ExitFailure
	}
	if _, exists := funds.Find(c.fund.Code); exists {
		fmt.Fprintf(os.Stderr, "Error: fund %s is already tracked\n", c.fund.Code)
		return subcommands.ExitFailure
	}

	if c.lookup {
		c.lookupMissing(ctx)
	}

	if err := funds.Add(c.fund); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := EncodeFunds(funds); err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not save funds: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(stdout, "Added %s %s\n", c.fund.Code, c.fund.Name)
	return subcommands.ExitSuccess
}

// lookupMissing fills the name and risk level from the providers, failures are only logged.
func (c *fundsAddCmd) lookupMissing(ctx context.Context) {
	client := providerClient()
	if c.fund.Name == "" {
		e, err := fundgz.Quote(ctx, client, c.fund)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning, cannot look up the name of %s: %v\n", c.fund.Code, err)
		}
		c.fund.Name = e.Name
	}
	if c.fund.RiskLevel == "" {
		level, err := fundgz.RiskLevel(ctx, client, c.fund.Code)
		if err != nil && !errors.Is(err, fundgz.ErrNoRiskLevel) {
			fmt.Fprintf(os.Stderr, "warning, cannot look up the risk level of %s: %v\n", c.fund.Code, err)
		}
		c.fund.RiskLevel = level
	}
}

type fundsRemoveCmd struct{}

func (*fundsRemoveCmd) Name() string     { return "remove" }
func (*fundsRemoveCmd) Synopsis() string { return "stop tracking funds" }
func (*fundsRemoveCmd) Usage() string {
	return `funds remove <code>...

  Removes funds from the tracked funds.
  The next vika sync deletes their rows.
`
}
func (c *fundsRemoveCmd) SetFlags(f *flag.FlagSet) {}

func (c *fundsRemoveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: no fund code given")
		return subcommands.ExitUsageError
	}
	funds, err := DecodeFunds()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load funds: %v\n", err)
		return subcommands.ExitFailure
	}
	status := subcommands.ExitSuccess
	for _, code := range f.Args() {
		if !funds.Remove(code) {
			fmt.Fprintf(os.Stderr, "Error: fund %s is not tracked\n", code)
			status = subcommands.ExitFailure
			continue
		}
		fmt.Fprintf(stdout, "Removed %s\n", code)
	}
	if err := EncodeFunds(funds); err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not save funds: %v\n", err)
		return subcommands.ExitFailure
	}
	return status
}
