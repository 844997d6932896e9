package cgtcalc

import (
	"fmt"
)

// TradeType classifies an execution as opening or closing a position,
// as reported by the broker.
type TradeType int

const (
	// Open is a trade that increases the position in an instrument.
	Open TradeType = iota
	// Close is a trade that reduces the position in an instrument. Closing
	// trades drive the matching loop.
	Close
)

func (t TradeType) String() string {
	switch t {
	case Open:
		return "open"
	case Close:
		return "close"
	default:
		return "unknown"
	}
}

// ParseTradeType parses a string into a TradeType.
func ParseTradeType(s string) (TradeType, error) {
	switch s {
	case "open":
		return Open, nil
	case "close":
		return Close, nil
	default:
		return 0, fmt.Errorf("unknown trade type: %q", s)
	}
}

// Trade is a single execution record for one instrument.
//
// Quantity is signed: positive for a buy, negative for a sell. Commission and
// Tax are unsigned amounts paid on the execution; both apportion pro-rata to
// quantity when the trade is split during matching.
type Trade struct {
	Code       string
	Date       Date
	Quantity   Quantity
	Price      Money
	Commission Money
	Tax        Money
	Type       TradeType
}

// Validate checks a trade for correctness.
func (t Trade) Validate() error {
	if t.Code == "" {
		return fmt.Errorf("trade on %s has no instrument code", t.Date)
	}
	if t.Quantity.IsZero() {
		return fmt.Errorf("trade %s on %s has zero quantity", t.Code, t.Date)
	}
	return nil
}

// Value returns the signed cash value of the trade: positive for money paid
// out (a buy), negative for money received (a sell). Commission and tax are
// not included.
func (t Trade) Value() Money { return t.Price.Mul(t.Quantity) }

// opposite reports whether o is on the other side of the book than t.
func (t Trade) opposite(o Trade) bool { return t.Quantity.Sign()*o.Quantity.Sign() < 0 }

// Split divides the trade into a consumed piece of the given magnitude and
// the remainder. Commission and tax are apportioned pro-rata to quantity, and
// the remainder receives the exact complement so that the two pieces always
// sum back to the original. Price, date, code and type are unchanged.
func (t Trade) Split(magnitude Quantity) (consumed, remainder Trade, err error) {
	abs := t.Quantity.Abs()
	if !magnitude.IsPositive() || magnitude.GreaterThanOrEqual(abs) {
		return Trade{}, Trade{}, fmt.Errorf("cannot split %s off a trade of %s %s", magnitude, abs, t.Code)
	}
	fraction := magnitude.Div(abs)

	consumed = t
	consumed.Quantity = magnitude
	if t.Quantity.IsNegative() {
		consumed.Quantity = magnitude.Neg()
	}
	consumed.Commission = t.Commission.Mul(fraction)
	consumed.Tax = t.Tax.Mul(fraction)

	remainder = t
	remainder.Quantity = t.Quantity.Sub(consumed.Quantity)
	remainder.Commission = t.Commission.Sub(consumed.Commission)
	remainder.Tax = t.Tax.Sub(consumed.Tax)
	return consumed, remainder, nil
}

func (t Trade) String() string {
	return fmt.Sprintf("%s %s %s %s @ %s", t.Date, t.Type, t.Code, t.Quantity, t.Price)
}

// MarshalJSON writes the trade with a canonical field order.
func (t Trade) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("code", t.Code)
	w.Append("date", t.Date)
	w.Append("type", t.Type.String())
	w.Append("quantity", t.Quantity)
	w.Append("price", t.Price)
	w.Optional("commission", t.Commission)
	w.Optional("tax", t.Tax)
	return w.MarshalJSON()
}
