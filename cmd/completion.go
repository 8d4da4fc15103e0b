package cmd

import (
	"flag"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// flagPredictors complete the values of flags that take more than free text.
var flagPredictors = map[string]complete.Predictor{
	"funds-file": predict.Files("*.json"),
	"type":       predict.Set{"etf_linked", "bond", "active"},
}

// Completion returns the shell completion of the application, global flags
// included.
func Completion() *complete.Command {
	root := &complete.Command{
		Sub:   map[string]*complete.Command{},
		Flags: predictors(flag.CommandLine),
	}
	for _, c := range Commands {
		root.Sub[c.Name()] = completion(c)
	}
	return root
}

func completion(c subcommands.Command) *complete.Command {
	fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	c.SetFlags(fs)
	cc := &complete.Command{Flags: predictors(fs)}
	if group, ok := c.(subcommand); ok {
		cc.Sub = map[string]*complete.Command{}
		for _, sub := range group.commands() {
			cc.Sub[sub.Name()] = completion(sub)
		}
	}
	return cc
}

func predictors(fs *flag.FlagSet) map[string]complete.Predictor {
	flags := map[string]complete.Predictor{}
	fs.VisitAll(func(f *flag.Flag) {
		switch p, ok := flagPredictors[f.Name]; {
		case ok:
			flags[f.Name] = p
		case isBool(f):
			flags[f.Name] = predict.Nothing
		default:
			flags[f.Name] = predict.Something
		}
	})
	return flags
}

func isBool(f *flag.Flag) bool {
	b, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && b.IsBoolFlag()
}
