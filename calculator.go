package cgtcalc

import (
	"fmt"
	"sort"
)

// Calculator runs one matching engine per instrument code and aggregates
// their results portfolio-wide.
//
// Build it once per matching run from the grouped trades of the reporting
// period, call Allocate, then query. Trades are expected in the reporting
// currency already; the calculator performs no conversion.
type Calculator struct {
	engines map[string]*MatchingEngine
}

// NewCalculator builds a calculator from trades grouped by instrument code.
func NewCalculator(tradesByCode map[string][]Trade) (*Calculator, error) {
	c := &Calculator{engines: make(map[string]*MatchingEngine, len(tradesByCode))}
	for code, trades := range tradesByCode {
		engine, err := NewMatchingEngine(trades)
		if err != nil {
			return nil, fmt.Errorf("code %s: %w", code, err)
		}
		if engine.Code() != "" && engine.Code() != code {
			return nil, fmt.Errorf("trades filed under %q carry code %q", code, engine.Code())
		}
		c.engines[code] = engine
	}
	return c, nil
}

// Codes returns the instrument codes in sorted order.
func (c *Calculator) Codes() []string {
	codes := make([]string, 0, len(c.engines))
	for code := range c.engines {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Engine returns the matching engine of one code.
func (c *Calculator) Engine(code string) (*MatchingEngine, bool) {
	e, ok := c.engines[code]
	return e, ok
}

// Allocate runs the matching loop for every code. When cgt is true the
// same-day and 30-day tiers apply before pooled matching. Codes are
// processed in sorted order; each code's matching is independent of every
// other's.
func (c *Calculator) Allocate(cgt bool) error {
	for _, code := range c.Codes() {
		if err := c.engines[code].Allocate(cgt); err != nil {
			return fmt.Errorf("code %s: %w", code, err)
		}
	}
	return nil
}

// Summary returns the field-wise sum of every code's tuple for the given tax
// year. With no relevant trades it is the zero tuple, not an error.
func (c *Calculator) Summary(taxYear int) TaxData {
	var sum TaxData
	for _, code := range c.Codes() {
		sum = sum.Add(c.engines[code].TaxData(taxYear))
	}
	return sum
}

// AverageCommissions returns the per-code average commission for the given
// tax year, omitting codes with no data to average.
func (c *Calculator) AverageCommissions(taxYear int) map[string]Money {
	avgs := make(map[string]Money)
	for code, e := range c.engines {
		if avg, ok := e.AverageCommission(taxYear); ok {
			avgs[code] = avg
		}
	}
	return avgs
}

// AverageCommission returns the mean of the per-code averages, skipping
// codes with no data. ok is false when no code has data at all.
func (c *Calculator) AverageCommission(taxYear int) (avg Money, ok bool) {
	var sum Money
	var n int
	for _, e := range c.engines {
		if a, k := e.AverageCommission(taxYear); k {
			sum = sum.Add(a)
			n++
		}
	}
	if n == 0 {
		return Money{}, false
	}
	return sum.Div(Q(n)), true
}

// Profits returns the net profit of every match group in the portfolio, in
// code then match order. Groups outside the tax year contribute zero.
func (c *Calculator) Profits(taxYear int) []Money {
	var profits []Money
	for _, code := range c.Codes() {
		for _, g := range c.engines[code].Matches().All() {
			profits = append(profits, g.TaxData(taxYear).NetProfit)
		}
	}
	return profits
}

// WinLossStats summarises the winning and losing trades of a tax year.
type WinLossStats struct {
	AverageWin  Money
	AverageLoss Money
	Wins        int
	Losses      int
}

// WinLossStats computes win/loss statistics over the individual per-group
// net profits of a tax year. Zero-profit groups count on neither side.
func (c *Calculator) WinLossStats(taxYear int) WinLossStats {
	var stats WinLossStats
	var wins, losses Money
	for _, p := range c.Profits(taxYear) {
		switch {
		case p.IsPositive():
			wins = wins.Add(p)
			stats.Wins++
		case p.IsNegative():
			losses = losses.Add(p)
			stats.Losses++
		}
	}
	if stats.Wins > 0 {
		stats.AverageWin = wins.Div(Q(stats.Wins))
	}
	if stats.Losses > 0 {
		stats.AverageLoss = losses.Div(Q(stats.Losses))
	}
	return stats
}

// TaxYears returns the sorted distinct tax years touched by any closing
// trade in the portfolio.
func (c *Calculator) TaxYears() []int {
	seen := make(map[int]bool)
	for _, e := range c.engines {
		for _, d := range e.closingDates() {
			seen[d.TaxYear()] = true
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
