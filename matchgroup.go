package cgtcalc

import "iter"

// MatchGroup is one completed matching event: a single closing trade paired
// with the acquisition pieces that were identified for it, kept by tier.
//
// A group is fully matched exactly when the magnitudes of the pieces sum to
// the closing trade's magnitude; the engine never records a group for which
// this does not hold.
type MatchGroup struct {
	// Closing is the disposal (or short-cover) this group settles.
	Closing Trade
	// SameDay holds pieces identified under the same-day rule.
	SameDay []Trade
	// WithinMonth holds pieces identified under the 30-day rule.
	WithinMonth []Trade
	// Pooled holds pieces consumed proportionately from the S104-style pool.
	Pooled []Trade
}

// NewMatchGroup starts an empty group for the given closing trade.
func NewMatchGroup(closing Trade) *MatchGroup {
	return &MatchGroup{Closing: closing}
}

// Pieces iterates over every consumed acquisition piece in tier order:
// same-day first, then within-month, then pooled.
func (g *MatchGroup) Pieces() iter.Seq[Trade] {
	return func(yield func(Trade) bool) {
		for _, tier := range [][]Trade{g.SameDay, g.WithinMonth, g.Pooled} {
			for _, t := range tier {
				if !yield(t) {
					return
				}
			}
		}
	}
}

// Matched returns the magnitude already covered by the consumed pieces.
func (g *MatchGroup) Matched() Quantity {
	var sum Quantity
	for t := range g.Pieces() {
		sum = sum.Add(t.Quantity.Abs())
	}
	return sum
}

// Unmatched returns the magnitude of the closing trade not yet covered.
func (g *MatchGroup) Unmatched() Quantity {
	return g.Closing.Quantity.Abs().Sub(g.Matched())
}

// IsUnmatched reports whether any quantity remains to be matched.
func (g *MatchGroup) IsUnmatched() bool { return !g.Unmatched().IsZero() }

// Proceeds returns the disposal proceeds: closing magnitude times closing
// price, net of the closing commission.
func (g *MatchGroup) Proceeds() Money {
	return g.Closing.Price.Mul(g.Closing.Quantity.Abs()).Sub(g.Closing.Commission)
}

// AllowableCost returns the total allowable cost: for every consumed piece,
// its magnitude times its price plus its apportioned commission.
func (g *MatchGroup) AllowableCost() Money {
	var cost Money
	for t := range g.Pieces() {
		cost = cost.Add(t.Price.Mul(t.Quantity.Abs())).Add(t.Commission)
	}
	return cost
}

// Gain returns the signed gain or loss: proceeds less allowable cost.
func (g *MatchGroup) Gain() Money { return g.Proceeds().Sub(g.AllowableCost()) }

// GrossProfit returns the signed trading profit of the whole group before
// commissions and taxes: the negated sum of the signed cash values of the
// closing trade and every consumed piece.
func (g *MatchGroup) GrossProfit() Money {
	flow := g.Closing.Value()
	for t := range g.Pieces() {
		flow = flow.Add(t.Value())
	}
	return flow.Neg()
}

// Commissions returns the closing commission plus the apportioned
// commissions of every consumed piece.
func (g *MatchGroup) Commissions() Money {
	sum := g.Closing.Commission
	for t := range g.Pieces() {
		sum = sum.Add(t.Commission)
	}
	return sum
}

// Taxes returns the notional taxes carried by the closing trade and every
// consumed piece.
func (g *MatchGroup) Taxes() Money {
	sum := g.Closing.Tax
	for t := range g.Pieces() {
		sum = sum.Add(t.Tax)
	}
	return sum
}

// NetProfit returns gross profit less commissions and taxes.
func (g *MatchGroup) NetProfit() Money {
	return g.GrossProfit().Sub(g.Commissions()).Sub(g.Taxes())
}

// TaxData is the reporting tuple of one or more matching events. Tuples sum
// field-wise, so the figures of a code or of a whole portfolio are the Add
// of their groups' tuples. The zero value is the defined "nothing to report"
// result.
type TaxData struct {
	DisposalProceeds Money
	AllowableCosts   Money
	// Gains holds the gain value of winning disposals; Losses the (negative)
	// gain value of losing ones. Each group fills exactly one of the two.
	Gains     Money
	Losses    Money
	Disposals int
	// Commissions and Taxes are the total execution costs of the group.
	Commissions Money
	Taxes       Money
	GrossProfit Money
	// Quantity is the absolute matched quantity.
	Quantity  Quantity
	NetProfit Money
}

// Add returns the field-wise sum of two tuples.
func (d TaxData) Add(o TaxData) TaxData {
	return TaxData{
		DisposalProceeds: d.DisposalProceeds.Add(o.DisposalProceeds),
		AllowableCosts:   d.AllowableCosts.Add(o.AllowableCosts),
		Gains:            d.Gains.Add(o.Gains),
		Losses:           d.Losses.Add(o.Losses),
		Disposals:        d.Disposals + o.Disposals,
		Commissions:      d.Commissions.Add(o.Commissions),
		Taxes:            d.Taxes.Add(o.Taxes),
		GrossProfit:      d.GrossProfit.Add(o.GrossProfit),
		Quantity:         d.Quantity.Add(o.Quantity),
		NetProfit:        d.NetProfit.Add(o.NetProfit),
	}
}

// TaxData classifies the group's financials for one tax year. A group whose
// closing trade falls outside the requested year contributes the zero tuple.
func (g *MatchGroup) TaxData(taxYear int) TaxData {
	if g.Closing.Date.TaxYear() != taxYear {
		return TaxData{}
	}
	d := TaxData{
		DisposalProceeds: g.Proceeds(),
		AllowableCosts:   g.AllowableCost(),
		Disposals:        1,
		Commissions:      g.Commissions(),
		Taxes:            g.Taxes(),
		GrossProfit:      g.GrossProfit(),
		Quantity:         g.Closing.Quantity.Abs(),
		NetProfit:        g.NetProfit(),
	}
	if gain := g.Gain(); gain.IsNegative() {
		d.Losses = gain
	} else {
		d.Gains = gain
	}
	return d
}
