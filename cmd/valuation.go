package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/fundsync/fundgz"
	"github.com/etnz/fundsync/renderer"
	"github.com/google/subcommands"
)

// estimateAll is replaced in tests.
var estimateAll = fundgz.EstimateAll

// riskLevel is replaced in tests.
var riskLevel = fundgz.RiskLevel

// valuationCmd is the top-level command for fund valuations.
type valuationCmd struct{}

func (*valuationCmd) Name() string     { return "valuation" }
func (*valuationCmd) Synopsis() string { return "estimate the tracked funds" }
func (*valuationCmd) Usage() string {
	return `valuation <subcommand> <options>

Fetches intraday estimates and risk levels of the tracked funds.
`
}
func (c *valuationCmd) SetFlags(f *flag.FlagSet) {}

func (c *valuationCmd) commands() []subcommands.Command {
	return []subcommands.Command{&estimateCmd{}, &updateRiskCmd{}}
}

func (c *valuationCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return execute(ctx, c, "valuation", f, args...)
}

type estimateCmd struct{}

func (*estimateCmd) Name() string     { return "estimate" }
func (*estimateCmd) Synopsis() string { return "display the current estimate of the tracked funds" }
func (*estimateCmd) Usage() string {
	return `valuation estimate

  Displays the intraday estimate of every tracked fund.
`
}
func (c *estimateCmd) SetFlags(f *flag.FlagSet) {}

func (c *estimateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	funds, err := DecodeFunds()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load funds: %v\n", err)
		return subcommands.ExitFailure
	}
	estimates, err := estimateAll(ctx, providerClient(), funds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning, some funds could not be estimated:\n%v\n", err)
	}
	printMarkdown(renderer.Estimates(estimates))
	if len(estimates) < len(funds) {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// updateRiskCmd holds the flags for the 'valuation update-risk' subcommand.
type updateRiskCmd struct {
	all bool
}

func (*updateRiskCmd) Name() string     { return "update-risk" }
func (*updateRiskCmd) Synopsis() string { return "fetch the risk level of the tracked funds" }
func (*updateRiskCmd) Usage() string {
	return `valuation update-risk [-all]

  Fetches the risk level of the tracked funds that have none, and saves them.
`
}
func (c *updateRiskCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.all, "all", false, "refresh the risk level of every fund")
}

func (c *updateRiskCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	funds, err := DecodeFunds()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load funds: %v\n", err)
		return subcommands.ExitFailure
	}
	client := providerClient()
	var updated int
	var errs []error
	for _, fund := range funds {
		if fund.RiskLevel != "" && !c.all {
			continue
		}
		level, err := riskLevel(ctx, client, fund.Code)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if level == fund.RiskLevel {
			continue
		}
		fund.RiskLevel = level
		funds.Update(fund)
		updated++
		fmt.Fprintf(stdout, "%s %s: %s\n", fund.Code, fund.Name, level)
	}
	if updated > 0 {
		if err := EncodeFunds(funds); err != nil {
			fmt.Fprintf(os.Stderr, "Error: could not save funds: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	fmt.Fprintf(stdout, "Updated %d risk level(s)\n", updated)
	if err := errors.Join(errs...); err != nil {
		fmt.Fprintf(os.Stderr, "warning, some risk levels could not be fetched:\n%v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
