// Package cmd implements the CLI application that tracks fund valuations and
// publishes them to a Vika datasheet.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/fundsync"
	"github.com/etnz/fundsync/fundgz"
	"github.com/google/subcommands"
)

// Commands are the top-level commands of the application, registered by the
// main package.
var Commands = []subcommands.Command{
	&fundsCmd{},
	&valuationCmd{},
	&vikaCmd{},
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, cmd := range Commands {
		c.Register(cmd, "")
	}
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var fundsFile = flag.String("funds-file", "funds.json", "Path to the tracked funds file (JSON format)")
var cacheTTL = flag.Duration("cache", time.Minute, "How long provider responses are cached on disk, 0 to disable")
var timeout = flag.Duration("timeout", 10*time.Second, "Timeout of each provider request")
var raw = flag.Bool("raw", false, "Print plain markdown instead of rendering it for the terminal")

// stdout is where reports are printed.
var stdout io.Writer = os.Stdout

// DecodeFunds decodes the tracked funds from the app funds file.
func DecodeFunds() (fundsync.Funds, error) {
	if _, err := os.Stat(*fundsFile); errors.Is(err, fs.ErrNotExist) {
		log.Println("warning, funds file", *fundsFile, "does not exist, no fund is tracked")
	}
	return fundsync.DecodeFunds(*fundsFile)
}

// EncodeFunds encodes the tracked funds into the app funds file.
func EncodeFunds(funds fundsync.Funds) error {
	return fundsync.EncodeFunds(*fundsFile, funds)
}

// providerClient returns the client used to query valuation providers.
func providerClient() *http.Client {
	return fundgz.NewClient(*cacheTTL, *timeout)
}

// printMarkdown renders md for the terminal, or prints it as is with -raw.
func printMarkdown(md string) {
	if !*raw {
		out, err := glamour.Render(md, "auto")
		if err == nil {
			md = out
		} else {
			log.Printf("cannot render markdown (printing raw): %v", err)
		}
	}
	fmt.Fprint(stdout, md)
}

// subcommand lists the commands of a command group.
type subcommand interface {
	commands() []subcommands.Command
}

// execute runs the group's commands the way the top level commander does.
func execute(ctx context.Context, group subcommand, name string, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	commander := subcommands.NewCommander(f, name)
	commander.Register(commander.HelpCommand(), "")
	for _, c := range group.commands() {
		commander.Register(c, "")
	}
	return commander.Execute(ctx, args...)
}
