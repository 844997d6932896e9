package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/cgtcalc/renderer"
	"github.com/google/subcommands"
)

// reportCmd holds the flags for the 'report' subcommand.
type reportCmd struct {
	tradesFile string
	year       int
	cgt        bool
	level      string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "tax report for one tax year" }
func (*reportCmd) Usage() string {
	return `cgt report [-trades <file>] [-year <year>] [-cgt=<bool>] [-level <level>]

  Matches all trades and renders the tax report for one tax year. The year
  names the calendar year its tax year ends in: -year 2022 reports the year
  ending 5 April 2022.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.tradesFile, "trades", "trades.jsonl", "Trades file (JSONL format), '-' for stdin")
	f.IntVar(&c.year, "year", 0, "Tax year to report on. Defaults to the latest year in the trades file.")
	f.BoolVar(&c.cgt, "cgt", true, "CGT-style matching (same-day and 30-day rules); false for pooled cost only")
	f.StringVar(&c.level, "level", "normal", "Reporting level (annual, brief, normal, calculate, verbose)")
}

func (c *reportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	level, err := renderer.ParseLevel(c.level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing reporting level: %v\n", err)
		return subcommands.ExitUsageError
	}

	calc, err := allocate(c.tradesFile, c.cgt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	md := renderer.TaxReport(calc, renderer.Options{
		TaxYear: defaultTaxYear(calc, c.year),
		CGTCalc: c.cgt,
		Level:   level,
	})
	printMarkdown(md)

	return subcommands.ExitSuccess
}
