// Command fundctl tracks fund valuations and publishes them to a Vika datasheet.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"

	"github.com/etnz/fundsync/cmd"
	"github.com/google/subcommands"
)

func main() {
	name := path.Base(os.Args[0])
	commander := subcommands.NewCommander(flag.CommandLine, name)
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	// exits when invoked by the shell to complete a command line
	cmd.Completion().Complete(name)

	flag.Parse()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}
