package cgtcalc

import (
	"errors"
	"fmt"
	"iter"
)

// ErrUnmatched reports a closing trade for which the three matching tiers
// could not find enough counter-trade quantity. It is fatal: the input data
// is malformed or incomplete, and aborting is the only way to guarantee a
// consistent tax position.
var ErrUnmatched = errors.New("no match for closing trade")

// MatchList is the ordered result set of one engine: match groups keyed by a
// 1-based sequence number in chronological match order. It only ever grows.
type MatchList struct {
	groups []*MatchGroup
}

// Len returns the number of recorded groups.
func (m *MatchList) Len() int { return len(m.groups) }

// Get returns the group recorded under the given sequence number.
func (m *MatchList) Get(seq int) (*MatchGroup, bool) {
	if seq < 1 || seq > len(m.groups) {
		return nil, false
	}
	return m.groups[seq-1], true
}

// All iterates over the groups in match order with their sequence numbers.
func (m *MatchList) All() iter.Seq2[int, *MatchGroup] {
	return func(yield func(int, *MatchGroup) bool) {
		for i, g := range m.groups {
			if !yield(i+1, g) {
				return
			}
		}
	}
}

func (m *MatchList) append(g *MatchGroup) { m.groups = append(m.groups, g) }

// MatchingEngine matches the trades of a single instrument code.
//
// The engine exclusively owns its ledger; matching two codes concurrently is
// safe because engines share nothing.
type MatchingEngine struct {
	ledger  *TradeLedger
	matched MatchList
}

// NewMatchingEngine builds an engine over the given trades of one code.
func NewMatchingEngine(trades []Trade) (*MatchingEngine, error) {
	ledger, err := NewTradeLedger(trades)
	if err != nil {
		return nil, err
	}
	return &MatchingEngine{ledger: ledger}, nil
}

// Code returns the engine's instrument code.
func (e *MatchingEngine) Code() string { return e.ledger.Code() }

// Matches returns the engine's ordered result set.
func (e *MatchingEngine) Matches() *MatchList { return &e.matched }

// OpenPosition returns the signed quantity left unmatched in the ledger: the
// genuine open position at period end once Allocate has run.
func (e *MatchingEngine) OpenPosition() Quantity { return e.ledger.FinalPosition() }

// Allocate drives the matching loop: it repeatedly pulls the earliest
// closing trade from the ledger and builds a match group for it until no
// closing trade remains, then resolves any leftover trades that net to zero.
//
// When cgt is true the same-day and 30-day identification tiers run before
// pooled matching; otherwise every disposal falls straight to pooled cost.
func (e *MatchingEngine) Allocate(cgt bool) error {
	for {
		closing, ok := e.ledger.PopEarliestClosing()
		if !ok {
			break
		}
		group, err := e.matchGroup(closing, cgt)
		if err != nil {
			return err
		}
		e.matched.append(group)
	}

	if e.ledger.Len() == 0 || !e.ledger.FinalPosition().IsZero() {
		// Either everything matched, or a genuine open position remains.
		return nil
	}

	// The remaining trades were all marked Open yet net to zero: the trailing
	// trades must be unrecorded closing events. Re-type them as Close, latest
	// first, and match until the ledger is empty.
	for e.ledger.Len() > 0 {
		e.ledger.SortByDate()
		closing, _ := e.ledger.PopLast()
		closing.Type = Close
		group, err := e.matchGroup(closing, cgt)
		if err != nil {
			return err
		}
		e.matched.append(group)
	}
	return nil
}

// matchGroup builds the match group for one closing trade, consuming
// counter-trades from the ledger tier by tier.
func (e *MatchingEngine) matchGroup(closing Trade, cgt bool) (*MatchGroup, error) {
	group := NewMatchGroup(closing)

	if cgt {
		// Same-day rule: acquisitions dated the day of the disposal, most
		// recently booked first.
		for group.IsUnmatched() {
			i := e.ledger.LastSameDay(closing)
			if i < 0 {
				break
			}
			piece, err := e.ledger.PartialPopAt(i, group.Unmatched())
			if err != nil {
				return nil, err
			}
			group.SameDay = append(group.SameDay, piece)
		}

		// 30-day rule: the earliest acquisition within the 30 days following
		// the disposal, repeatedly.
		for group.IsUnmatched() {
			i := e.ledger.FirstWithin30Days(closing)
			if i < 0 {
				break
			}
			piece, err := e.ledger.PartialPopAt(i, group.Unmatched())
			if err != nil {
				return nil, err
			}
			group.WithinMonth = append(group.WithinMonth, piece)
		}
	}

	// Pooled cost: whatever is still unmatched comes proportionately out of
	// every earlier trade, shrinking the whole pool by one fraction.
	if group.IsUnmatched() {
		indices := e.ledger.IndicesBefore(closing)
		if len(indices) > 0 {
			pieces, err := e.ledger.ProportionatePop(indices, group.Unmatched())
			switch {
			case errors.Is(err, ErrInsufficientQuantity):
				// The pool is short: fall through to the unmatched report.
			case err != nil:
				return nil, err
			default:
				group.Pooled = pieces
			}
		}
	}

	if group.IsUnmatched() {
		return nil, fmt.Errorf("%w: %s of %s left unmatched", ErrUnmatched, group.Unmatched(), closing)
	}
	return group, nil
}

// TaxData sums the tuples of every group whose closing trade falls in the
// given tax year.
func (e *MatchingEngine) TaxData(taxYear int) TaxData {
	var sum TaxData
	for _, g := range e.matched.All() {
		sum = sum.Add(g.TaxData(taxYear))
	}
	return sum
}

// AverageCommission returns the average commission per unit dealt in the
// given tax year: total commissions over twice the total matched quantity
// (each unit is dealt once to open and once to close). ok is false when the
// year saw no matched quantity and no commission: there is no data to
// average. A nonzero commission over zero quantity averages to zero rather
// than dividing by zero.
func (e *MatchingEngine) AverageCommission(taxYear int) (avg Money, ok bool) {
	d := e.TaxData(taxYear)
	if d.Quantity.IsZero() {
		if d.Commissions.IsZero() {
			return Money{}, false
		}
		return M(0, d.Commissions.Currency()), true
	}
	return d.Commissions.Div(d.Quantity.Mul(Q(2))), true
}

// closingDates returns the closing trade date of every recorded group.
func (e *MatchingEngine) closingDates() []Date {
	dates := make([]Date, 0, e.matched.Len())
	for _, g := range e.matched.All() {
		dates = append(dates, g.Closing.Date)
	}
	return dates
}
