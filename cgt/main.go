package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/cgtcalc/cmd"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	// Shell completion, enabled with: complete -C cgt cgt
	tradesFlag := map[string]complete.Predictor{"trades": predict.Files("*.jsonl")}
	(&complete.Command{
		Sub: map[string]*complete.Command{
			"report": {Flags: map[string]complete.Predictor{
				"trades": predict.Files("*.jsonl"),
				"level":  predict.Set{"annual", "brief", "normal", "calculate", "verbose"},
			}},
			"years": {Flags: tradesFlag},
			"stats": {Flags: tradesFlag},
		},
	}).Complete(path.Base(os.Args[0]))

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
