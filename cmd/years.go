package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

// yearsCmd holds the flags for the 'years' subcommand.
type yearsCmd struct {
	tradesFile string
	cgt        bool
}

func (*yearsCmd) Name() string     { return "years" }
func (*yearsCmd) Synopsis() string { return "list the tax years touched by the trades" }
func (*yearsCmd) Usage() string {
	return `cgt years [-trades <file>]

  Matches all trades and lists the distinct tax years in which a position
  was closed.
`
}

func (c *yearsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.tradesFile, "trades", "trades.jsonl", "Trades file (JSONL format), '-' for stdin")
	f.BoolVar(&c.cgt, "cgt", true, "CGT-style matching (same-day and 30-day rules); false for pooled cost only")
}

func (c *yearsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	calc, err := allocate(c.tradesFile, c.cgt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	for _, year := range calc.TaxYears() {
		fmt.Printf("%d\n", year)
	}
	return subcommands.ExitSuccess
}
