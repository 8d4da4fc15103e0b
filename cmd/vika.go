package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etnz/fundsync"
	"github.com/etnz/fundsync/renderer"
	"github.com/etnz/fundsync/vika"
	"github.com/google/subcommands"
)

// Environment variables read when the matching flag is not set.
const (
	vikaTokenEnv     = "VIKA_API_TOKEN"
	vikaDatasheetEnv = "VIKA_DATASHEET_ID"
)

// vikaCmd is the top-level command for Vika datasheet operations.
type vikaCmd struct{}

func (*vikaCmd) Name() string     { return "vika" }
func (*vikaCmd) Synopsis() string { return "Vika datasheet commands" }
func (*vikaCmd) Usage() string {
	return `vika <subcommand> <options>

Publishes fund valuations to a Vika datasheet.
`
}
func (c *vikaCmd) SetFlags(f *flag.FlagSet) {}

func (c *vikaCmd) commands() []subcommands.Command {
	return []subcommands.Command{&vikaSyncCmd{}}
}

func (c *vikaCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	return execute(ctx, c, "vika", f, args...)
}

// vikaSyncCmd holds the flags for the 'vika sync' subcommand.
type vikaSyncCmd struct {
	token     string
	datasheet string
	baseURL   string
	interval  time.Duration
	retries   int
	dryRun    bool
	partial   bool
}

func (*vikaSyncCmd) Name() string     { return "sync" }
func (*vikaSyncCmd) Synopsis() string { return "converge the datasheet to the current estimates" }
func (*vikaSyncCmd) Usage() string {
	return `vika sync [-dry-run] [-vika-token <token>] [-vika-datasheet <id>]

  Estimates every tracked fund and converges the datasheet to exactly one row
  per fund: missing rows are created, existing rows updated, stale, duplicate
  and unkeyed rows deleted.

  Requires the ` + vikaTokenEnv + ` and ` + vikaDatasheetEnv + ` environment variables
  to be set or passed as flags.
`
}

func (c *vikaSyncCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.token, "vika-token", "", "Vika API token. This flag takes precedence over the "+vikaTokenEnv+" environment variable.")
	f.StringVar(&c.datasheet, "vika-datasheet", "", "Vika datasheet id. This flag takes precedence over the "+vikaDatasheetEnv+" environment variable.")
	f.StringVar(&c.baseURL, "vika-url", vika.DefaultBaseURL, "Vika API base URL")
	f.DurationVar(&c.interval, "interval", vika.DefaultInterval, "minimum delay between two Vika API calls")
	f.IntVar(&c.retries, "retries", vika.DefaultRetries, "extra attempts for a failing batch")
	f.BoolVar(&c.dryRun, "dry-run", false, "print the changes without applying them")
	f.BoolVar(&c.partial, "partial", false, "sync even if some funds could not be estimated, deleting their rows")
}

// config returns the reconciler configuration, flags taking precedence over the environment.
func (c *vikaSyncCmd) config() vika.Config {
	if c.token == "" {
		c.token = os.Getenv(vikaTokenEnv)
	}
	if c.datasheet == "" {
		c.datasheet = os.Getenv(vikaDatasheetEnv)
	}
	cfg := vika.Config{
		BaseURL:     c.baseURL,
		Token:       c.token,
		DatasheetID: c.datasheet,
		Schema:      fundsync.FundSchema,
		Interval:    c.interval,
		Retries:     c.retries,
	}
	if c.interval == 0 {
		cfg.Interval = -1
	}
	if c.retries == 0 {
		cfg.Retries = -1
	}
	return cfg
}

func (c *vikaSyncCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	r, err := vika.New(c.config())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v. Use -vika-token and -vika-datasheet flags or %s and %s environment variables\n", err, vikaTokenEnv, vikaDatasheetEnv)
		return subcommands.ExitUsageError
	}

	funds, err := DecodeFunds()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load funds: %v\n", err)
		return subcommands.ExitFailure
	}
	if len(funds) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no fund is tracked in %s, refusing to empty the datasheet\n", *fundsFile)
		return subcommands.ExitFailure
	}
	estimates, err := estimateAll(ctx, providerClient(), funds)
	if err != nil {
		if !c.partial {
			fmt.Fprintf(os.Stderr, "Error: some funds could not be estimated, use -partial to sync anyway:\n%v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Fprintf(os.Stderr, "warning, some funds could not be estimated:\n%v\n", err)
	}
	records := fundsync.Records(estimates)
	if len(records) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no fund could be estimated, refusing to empty the datasheet")
		return subcommands.ExitFailure
	}

	if c.dryRun {
		plan, err := r.Preview(ctx, records)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		printMarkdown(renderer.Plan(plan, r.Schema()))
		return subcommands.ExitSuccess
	}

	summary, err := r.Reconcile(ctx, records)
	printMarkdown(renderer.Summary(summary))
	switch {
	case errors.Is(err, vika.ErrUnauthorized):
		fmt.Fprintf(os.Stderr, "Error: Vika rejected the token: %v\n", err)
		return subcommands.ExitFailure
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	case len(summary.Errors) > 0:
		fmt.Fprintf(os.Stderr, "Error: synced with %d failed batch(es)\n", len(summary.Errors))
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
