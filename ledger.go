package cgtcalc

import (
	"errors"
	"fmt"
	"iter"
	"sort"
)

// ErrInsufficientQuantity reports that a pool of trades holds less quantity
// than a consumption asked for. It is fatal: the matching cannot guarantee a
// consistent position and the input data must be fixed.
var ErrInsufficientQuantity = errors.New("insufficient quantity in pool")

// TradeLedger is the ordered collection of the not-yet-matched trades of a
// single instrument code.
//
// The ledger exclusively owns its trades. It is mutated only by the pop
// operations below and shrinks monotonically over the life of one matching
// pass: every pop decreases the total remaining quantity by exactly the
// amount it returns.
type TradeLedger struct {
	code   string
	trades []Trade
}

// NewTradeLedger builds a ledger from the given trades, preserving their
// order. All trades must carry the same instrument code; mixing codes in one
// ledger is a caller error, rejected here.
func NewTradeLedger(trades []Trade) (*TradeLedger, error) {
	l := &TradeLedger{trades: append([]Trade(nil), trades...)}
	for _, t := range l.trades {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if l.code == "" {
			l.code = t.Code
		}
		if t.Code != l.code {
			return nil, fmt.Errorf("mixed instrument codes in one ledger: %q and %q", l.code, t.Code)
		}
	}
	return l, nil
}

// Code returns the instrument code shared by every trade in the ledger.
func (l *TradeLedger) Code() string { return l.code }

// Len returns the number of remaining unmatched trades.
func (l *TradeLedger) Len() int { return len(l.trades) }

// Trades iterates over the remaining trades in ledger order.
func (l *TradeLedger) Trades() iter.Seq[Trade] {
	return func(yield func(Trade) bool) {
		for _, t := range l.trades {
			if !yield(t) {
				return
			}
		}
	}
}

// FinalPosition returns the signed sum of the remaining quantities. Once the
// closing trades are exhausted it reflects the instrument's open position at
// period end.
func (l *TradeLedger) FinalPosition() Quantity {
	var sum Quantity
	for _, t := range l.trades {
		sum = sum.Add(t.Quantity)
	}
	return sum
}

// PopEarliestClosing removes and returns the chronologically earliest trade
// of type Close. Trades sharing the earliest date are returned in insertion
// order. ok is false when no closing trade remains.
func (l *TradeLedger) PopEarliestClosing() (t Trade, ok bool) {
	best := -1
	for i, c := range l.trades {
		if c.Type != Close {
			continue
		}
		if best < 0 || c.Date.Before(l.trades[best].Date) {
			best = i
		}
	}
	if best < 0 {
		return Trade{}, false
	}
	t = l.trades[best]
	l.removeAt(best)
	return t, true
}

// SortByDate stable-sorts the remaining trades chronologically, keeping the
// insertion order of trades sharing a date.
func (l *TradeLedger) SortByDate() {
	sort.SliceStable(l.trades, func(i, j int) bool {
		return l.trades[i].Date.Before(l.trades[j].Date)
	})
}

// PopLast removes and returns the last trade in ledger order. ok is false on
// an empty ledger.
func (l *TradeLedger) PopLast() (t Trade, ok bool) {
	if len(l.trades) == 0 {
		return Trade{}, false
	}
	t = l.trades[len(l.trades)-1]
	l.trades = l.trades[:len(l.trades)-1]
	return t, true
}

// LastSameDay returns the index of the most recently inserted opposite-side
// trade dated exactly ref's date, or -1 when none remains.
func (l *TradeLedger) LastSameDay(ref Trade) int {
	found := -1
	for i, t := range l.trades {
		if t.Date == ref.Date && ref.opposite(t) {
			found = i
		}
	}
	return found
}

// FirstWithin30Days returns the index of the earliest-dated opposite-side
// trade dated strictly after ref's date and within the following 30 calendar
// days, or -1 when none exists. Equal dates resolve to the first inserted.
// Trades dated before the reference are never eligible: the lookahead is
// asymmetric by design of the bed-and-breakfast rule.
func (l *TradeLedger) FirstWithin30Days(ref Trade) int {
	limit := ref.Date.Add(30)
	found := -1
	for i, t := range l.trades {
		if !ref.opposite(t) || !t.Date.After(ref.Date) || t.Date.After(limit) {
			continue
		}
		if found < 0 || t.Date.Before(l.trades[found].Date) {
			found = i
		}
	}
	return found
}

// IndicesBefore returns the indices of all remaining trades, either side,
// dated strictly before ref's date. These are the candidates for pooled-cost
// matching.
func (l *TradeLedger) IndicesBefore(ref Trade) []int {
	var indices []int
	for i, t := range l.trades {
		if t.Date.Before(ref.Date) {
			indices = append(indices, i)
		}
	}
	return indices
}

// PartialPopAt consumes up to max (a positive magnitude) from the trade at
// index i. When the trade holds more than max it is split: the consumed piece
// is returned with its pro-rata commission and tax, and the remainder stays
// in the ledger at the same index. Otherwise the whole trade is removed and
// returned.
func (l *TradeLedger) PartialPopAt(i int, max Quantity) (Trade, error) {
	if i < 0 || i >= len(l.trades) {
		return Trade{}, fmt.Errorf("no trade at index %d", i)
	}
	if !max.IsPositive() {
		return Trade{}, fmt.Errorf("cannot pop a quantity of %s", max)
	}
	t := l.trades[i]
	if !t.Quantity.Abs().GreaterThan(max) {
		l.removeAt(i)
		return t, nil
	}
	consumed, remainder, err := t.Split(max)
	if err != nil {
		return Trade{}, err
	}
	l.trades[i] = remainder
	return consumed, nil
}

// ProportionatePop consumes exactly target (a positive magnitude) in
// aggregate from the trades at the given indices, apportioned to each trade
// in proportion to its own remaining quantity so that every contributing lot
// shrinks by the same fraction. The consumed pieces are returned in ledger
// order. It fails with ErrInsufficientQuantity when the indices hold less
// than target in aggregate.
func (l *TradeLedger) ProportionatePop(indices []int, target Quantity) ([]Trade, error) {
	if !target.IsPositive() {
		return nil, fmt.Errorf("cannot pop a quantity of %s", target)
	}
	var available Quantity
	for _, i := range indices {
		if i < 0 || i >= len(l.trades) {
			return nil, fmt.Errorf("no trade at index %d", i)
		}
		available = available.Add(l.trades[i].Quantity.Abs())
	}
	if available.LessThan(target) {
		return nil, fmt.Errorf("%w: need %s of %s, only %s remain", ErrInsufficientQuantity, target, l.code, available)
	}

	// First pass: the proportional share of each trade. Division rounds, so
	// the shares may not sum exactly to target.
	shares := make([]Quantity, len(indices))
	var taken Quantity
	for n, i := range indices {
		abs := l.trades[i].Quantity.Abs()
		share := abs.Mul(target).Div(available)
		if share.GreaterThan(abs) {
			share = abs
		}
		shares[n] = share
		taken = taken.Add(share)
	}
	// Second pass: settle the rounding residual against lots with slack so
	// the total consumed is exactly target.
	residual := target.Sub(taken)
	for n, i := range indices {
		if residual.IsZero() {
			break
		}
		if residual.IsPositive() {
			slack := l.trades[i].Quantity.Abs().Sub(shares[n])
			if !slack.IsPositive() {
				continue
			}
			if slack.GreaterThan(residual) {
				slack = residual
			}
			shares[n] = shares[n].Add(slack)
			residual = residual.Sub(slack)
		} else {
			back := residual.Neg()
			if shares[n].LessThan(back) {
				back = shares[n]
			}
			shares[n] = shares[n].Sub(back)
			residual = residual.Add(back)
		}
	}

	// Consume the settled shares, highest index first so earlier indices
	// stay valid, then report the pieces in ledger order.
	pieces := make([]Trade, 0, len(indices))
	removed := make(map[int]bool)
	for n := len(indices) - 1; n >= 0; n-- {
		i := indices[n]
		if shares[n].IsZero() {
			continue
		}
		t := l.trades[i]
		if shares[n].Equal(t.Quantity.Abs()) {
			removed[i] = true
			pieces = append(pieces, t)
			continue
		}
		consumed, remainder, err := t.Split(shares[n])
		if err != nil {
			return nil, err
		}
		l.trades[i] = remainder
		pieces = append(pieces, consumed)
	}
	if len(removed) > 0 {
		kept := l.trades[:0]
		for i, t := range l.trades {
			if !removed[i] {
				kept = append(kept, t)
			}
		}
		l.trades = kept
	}
	// pieces were collected in reverse ledger order.
	for a, b := 0, len(pieces)-1; a < b; a, b = a+1, b-1 {
		pieces[a], pieces[b] = pieces[b], pieces[a]
	}
	return pieces, nil
}

func (l *TradeLedger) removeAt(i int) {
	l.trades = append(l.trades[:i], l.trades[i+1:]...)
}
