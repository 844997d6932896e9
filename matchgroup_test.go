package cgtcalc

import "testing"

// group builds a fully matched group: a sale of 100 @ £12 settled by one
// pooled buy of 100 @ £10, £5 commission on each side.
func group() *MatchGroup {
	g := NewMatchGroup(trade("VOD", "2022-6-10", -100, 12, 5, Close))
	g.Pooled = append(g.Pooled, trade("VOD", "2022-1-10", 100, 10, 5, Open))
	return g
}

func TestMatchGroup_Financials(t *testing.T) {
	g := group()

	if got := g.Matched(); !got.Equal(Q(100)) {
		t.Errorf("Matched() = %s, want 100", got)
	}
	if g.IsUnmatched() {
		t.Error("group should be fully matched")
	}
	if got := g.Proceeds(); !got.Equal(gbp(1195)) {
		t.Errorf("Proceeds() = %s, want £1195", got)
	}
	if got := g.AllowableCost(); !got.Equal(gbp(1005)) {
		t.Errorf("AllowableCost() = %s, want £1005", got)
	}
	if got := g.Gain(); !got.Equal(gbp(190)) {
		t.Errorf("Gain() = %s, want £190", got)
	}
	if got := g.GrossProfit(); !got.Equal(gbp(200)) {
		t.Errorf("GrossProfit() = %s, want £200", got)
	}
	if got := g.Commissions(); !got.Equal(gbp(10)) {
		t.Errorf("Commissions() = %s, want £10", got)
	}
	if got := g.NetProfit(); !got.Equal(gbp(190)) {
		t.Errorf("NetProfit() = %s, want £190", got)
	}
}

func TestMatchGroup_PiecesTierOrder(t *testing.T) {
	g := NewMatchGroup(trade("VOD", "2022-6-10", -60, 12, 0, Close))
	g.SameDay = append(g.SameDay, trade("VOD", "2022-6-10", 20, 11, 0, Open))
	g.WithinMonth = append(g.WithinMonth, trade("VOD", "2022-6-20", 20, 10, 0, Open))
	g.Pooled = append(g.Pooled, trade("VOD", "2022-1-10", 20, 9, 0, Open))

	var prices []Money
	for p := range g.Pieces() {
		prices = append(prices, p.Price)
	}
	want := []Money{gbp(11), gbp(10), gbp(9)}
	if len(prices) != len(want) {
		t.Fatalf("got %d pieces, want %d", len(prices), len(want))
	}
	for i := range want {
		if !prices[i].Equal(want[i]) {
			t.Errorf("piece %d priced %s, want %s", i, prices[i], want[i])
		}
	}
}

func TestMatchGroup_TaxData(t *testing.T) {
	g := group() // closes on 2022-06-10, tax year 2023

	d := g.TaxData(2023)
	if d.Disposals != 1 {
		t.Fatalf("Disposals = %d, want 1", d.Disposals)
	}
	if !d.DisposalProceeds.Equal(gbp(1195)) || !d.AllowableCosts.Equal(gbp(1005)) {
		t.Errorf("proceeds/costs = %s/%s, want £1195/£1005", d.DisposalProceeds, d.AllowableCosts)
	}
	if !d.Gains.Equal(gbp(190)) || !d.Losses.IsZero() {
		t.Errorf("gains/losses = %s/%s, want £190/zero", d.Gains, d.Losses)
	}
	if !d.Quantity.Equal(Q(100)) {
		t.Errorf("Quantity = %s, want 100", d.Quantity)
	}
	if !d.NetProfit.Equal(gbp(190)) {
		t.Errorf("NetProfit = %s, want £190", d.NetProfit)
	}

	// Out of year: the zero tuple.
	if out := g.TaxData(2022); out != (TaxData{}) {
		t.Errorf("TaxData(2022) = %+v, want the zero tuple", out)
	}
}

func TestMatchGroup_TaxDataLossBucket(t *testing.T) {
	g := NewMatchGroup(trade("VOD", "2022-6-10", -100, 8, 5, Close))
	g.Pooled = append(g.Pooled, trade("VOD", "2022-1-10", 100, 10, 5, Open))

	d := g.TaxData(2023)
	// proceeds 795, cost 1005: a £210 loss, recorded signed in Losses.
	if !d.Losses.Equal(gbp(-210)) {
		t.Errorf("Losses = %s, want -£210", d.Losses)
	}
	if !d.Gains.IsZero() {
		t.Errorf("Gains = %s, want zero", d.Gains)
	}
}

func TestTaxData_Add(t *testing.T) {
	a := group().TaxData(2023)
	sum := a.Add(a)
	if sum.Disposals != 2 {
		t.Errorf("Disposals = %d, want 2", sum.Disposals)
	}
	if !sum.Gains.Equal(gbp(380)) {
		t.Errorf("Gains = %s, want £380", sum.Gains)
	}
	if !sum.Quantity.Equal(Q(200)) {
		t.Errorf("Quantity = %s, want 200", sum.Quantity)
	}
}
