// Package cmd implements the CLI application to compute CGT tax reports.
package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/cgtcalc"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&reportCmd{}, "reports")
	c.Register(&yearsCmd{}, "reports")
	c.Register(&statsCmd{}, "reports")
}

// decodeTradesFile reads a JSONL trades file, "-" meaning stdin.
func decodeTradesFile(path string) (map[string][]cgtcalc.Trade, error) {
	if path == "-" {
		return cgtcalc.DecodeTrades(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return cgtcalc.DecodeTrades(f)
}

// allocate builds and runs the calculator over a trades file.
func allocate(tradesFile string, cgt bool) (*cgtcalc.Calculator, error) {
	trades, err := decodeTradesFile(tradesFile)
	if err != nil {
		return nil, fmt.Errorf("could not load trades from %q: %w", tradesFile, err)
	}
	calc, err := cgtcalc.NewCalculator(trades)
	if err != nil {
		return nil, err
	}
	if err := calc.Allocate(cgt); err != nil {
		return nil, err
	}
	return calc, nil
}

// defaultTaxYear resolves a zero year flag to the latest tax year in the
// portfolio.
func defaultTaxYear(calc *cgtcalc.Calculator, year int) int {
	if year != 0 {
		return year
	}
	years := calc.TaxYears()
	if len(years) == 0 {
		return 0
	}
	return years[len(years)-1]
}

// printMarkdown renders a markdown string to the terminal.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
