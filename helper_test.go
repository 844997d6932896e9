package cgtcalc

// trade builds a GBP trade for tests. Quantity is signed: positive buys,
// negative sells.
func trade(code, date string, qty, price, commission float64, typ TradeType) Trade {
	return Trade{
		Code:       code,
		Date:       MustParseDate(date),
		Quantity:   Q(qty),
		Price:      M(price, "GBP"),
		Commission: M(commission, "GBP"),
		Tax:        M(0, "GBP"),
		Type:       typ,
	}
}

func gbp(v float64) Money { return M(v, "GBP") }
