package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
)

// statsCmd holds the flags for the 'stats' subcommand.
type statsCmd struct {
	tradesFile string
	year       int
	cgt        bool
}

func (*statsCmd) Name() string     { return "stats" }
func (*statsCmd) Synopsis() string { return "win/loss statistics and average commissions" }
func (*statsCmd) Usage() string {
	return `cgt stats [-trades <file>] [-year <year>]

  Matches all trades and prints win/loss statistics and the average
  commission per unit dealt, per code and portfolio-wide, for one tax year.
`
}

func (c *statsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.tradesFile, "trades", "trades.jsonl", "Trades file (JSONL format), '-' for stdin")
	f.IntVar(&c.year, "year", 0, "Tax year to report on. Defaults to the latest year in the trades file.")
	f.BoolVar(&c.cgt, "cgt", true, "CGT-style matching (same-day and 30-day rules); false for pooled cost only")
}

func (c *statsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	calc, err := allocate(c.tradesFile, c.cgt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	year := defaultTaxYear(calc, c.year)

	var b strings.Builder
	fmt.Fprintf(&b, "# Trading statistics for the year ending 5 April %d\n\n", year)

	stats := calc.WinLossStats(year)
	fmt.Fprintln(&b, "| Wins | Average Win | Losses | Average Loss |")
	fmt.Fprintln(&b, "|---:|---:|---:|---:|")
	fmt.Fprintf(&b, "| %d | %s | %d | %s |\n\n",
		stats.Wins, stats.AverageWin.SignedString(), stats.Losses, stats.AverageLoss.SignedString())

	fmt.Fprintln(&b, "## Average commission per unit dealt")
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "| Code | Average Commission |")
	fmt.Fprintln(&b, "|:---|---:|")
	avgs := calc.AverageCommissions(year)
	for _, code := range calc.Codes() {
		if avg, ok := avgs[code]; ok {
			fmt.Fprintf(&b, "| %s | %s |\n", code, avg)
		}
	}
	if avg, ok := calc.AverageCommission(year); ok {
		fmt.Fprintf(&b, "| **all codes** | **%s** |\n", avg)
	}

	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
