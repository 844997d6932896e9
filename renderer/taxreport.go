// Package renderer renders matching results to markdown.
package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/cgtcalc"
)

// Level selects how much detail the tax report carries.
type Level int

const (
	// Annual renders the tax-year summary only.
	Annual Level = iota
	// Brief adds one line per closing trade.
	Brief
	// Normal adds the matched tiers of every group.
	Normal
	// Calculate adds the proceeds/cost/gain arithmetic of every group.
	Calculate
	// Verbose adds every sub-trade consumed during matching.
	Verbose
)

func (l Level) String() string {
	switch l {
	case Annual:
		return "annual"
	case Brief:
		return "brief"
	case Normal:
		return "normal"
	case Calculate:
		return "calculate"
	case Verbose:
		return "verbose"
	default:
		return "unknown"
	}
}

// ParseLevel parses a string into a Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "annual":
		return Annual, nil
	case "brief":
		return Brief, nil
	case "normal":
		return Normal, nil
	case "calculate":
		return Calculate, nil
	case "verbose":
		return Verbose, nil
	default:
		return 0, fmt.Errorf("unknown reporting level: %q", s)
	}
}

// Options configures one tax report. It is passed explicitly into the
// rendering entry point; the renderer holds no state of its own.
type Options struct {
	TaxYear int
	CGTCalc bool
	Level   Level
}

// TaxReport renders the tax report of an allocated calculator to a markdown
// string.
func TaxReport(c *cgtcalc.Calculator, opts Options) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Tax report for the year ending 5 April %d\n\n", opts.TaxYear)

	summary := c.Summary(opts.TaxYear)
	if summary.Disposals == 0 {
		fmt.Fprintf(&b, "No relevant trades for tax year %d.\n", opts.TaxYear)
		return b.String()
	}

	if opts.Level >= Brief {
		for _, code := range c.Codes() {
			engine, _ := c.Engine(code)
			ConditionalBlock(&b, func(w io.Writer) bool {
				return codeSection(w, engine, opts)
			})
		}
	}

	summarySection(&b, summary, opts)
	return b.String()
}

// codeSection renders the in-year match groups of one code and reports
// whether it rendered any.
func codeSection(w io.Writer, engine *cgtcalc.MatchingEngine, opts Options) bool {
	fmt.Fprintf(w, "## %s\n\n", engine.Code())

	wrote := false
	if opts.Level == Brief {
		fmt.Fprintln(w, "| # | Date | Quantity | Proceeds | Cost | Gain |")
		fmt.Fprintln(w, "|--:|:---|---:|---:|---:|---:|")
	}
	for seq, g := range engine.Matches().All() {
		if g.Closing.Date.TaxYear() != opts.TaxYear {
			continue
		}
		wrote = true
		if opts.Level == Brief {
			fmt.Fprintf(w, "| %d | %s | %s | %s | %s | %s |\n",
				seq, g.Closing.Date, g.Closing.Quantity.Abs(),
				g.Proceeds(), g.AllowableCost(), g.Gain().SignedString())
			continue
		}
		groupSection(w, seq, g, opts)
	}
	if opts.Level == Brief {
		fmt.Fprintln(w)
	}
	return wrote
}

// groupSection renders one match group at level Normal or above.
func groupSection(w io.Writer, seq int, g *cgtcalc.MatchGroup, opts Options) {
	fmt.Fprintf(w, "### Match %d: %s\n\n", seq, g.Closing)

	tiers := []struct {
		name   string
		pieces []cgtcalc.Trade
	}{
		{"same day", g.SameDay},
		{"within 30 days", g.WithinMonth},
		{"pooled", g.Pooled},
	}
	for _, tier := range tiers {
		if len(tier.pieces) == 0 {
			continue
		}
		var quantity cgtcalc.Quantity
		for _, p := range tier.pieces {
			quantity = quantity.Add(p.Quantity.Abs())
		}
		fmt.Fprintf(w, "- matched %s against %d trade(s) %s\n", quantity, len(tier.pieces), tier.name)
		if opts.Level >= Verbose {
			for _, p := range tier.pieces {
				fmt.Fprintf(w, "  - %s (commission %s)\n", p, p.Commission)
			}
		}
	}
	fmt.Fprintln(w)

	if opts.Level >= Calculate {
		fmt.Fprintf(w, "Proceeds %s less allowable cost %s: gain %s.\n",
			g.Proceeds(), g.AllowableCost(), g.Gain().SignedString())
		fmt.Fprintf(w, "Gross profit %s less commissions %s and taxes %s: net %s.\n\n",
			g.GrossProfit().SignedString(), g.Commissions(), g.Taxes(), g.NetProfit().SignedString())
	}
}

// summarySection renders the tax-year totals. The CGT view reports the
// figures a self-assessment return asks for; the true-cost view reports the
// trading profit after costs.
func summarySection(w io.Writer, d cgtcalc.TaxData, opts Options) {
	fmt.Fprintf(w, "## Summary for tax year ending 5 April %d\n\n", opts.TaxYear)

	if opts.CGTCalc {
		fmt.Fprintln(w, "| Disposal Proceeds | Allowable Costs | Disposals | Year Gains | Year Losses | Profit |")
		fmt.Fprintln(w, "|---:|---:|---:|---:|---:|---:|")
		fmt.Fprintf(w, "| %s | %s | %d | %s | %s | %s |\n\n",
			d.DisposalProceeds, d.AllowableCosts, d.Disposals,
			d.Gains, d.Losses, d.NetProfit.SignedString())
		return
	}

	fmt.Fprintln(w, "| Gross Profit | Commissions | Taxes | Net Profit |")
	fmt.Fprintln(w, "|---:|---:|---:|---:|")
	fmt.Fprintf(w, "| %s | %s | %s | %s |\n\n",
		d.GrossProfit.SignedString(), d.Commissions, d.Taxes, d.NetProfit.SignedString())
	fmt.Fprintln(w, "Not included: interest paid or received, data and other fees, nor dividend income (report separately).")
}
