package cgtcalc

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// signature flattens an engine's result set into a comparable string.
func signature(e *MatchingEngine) string {
	var b strings.Builder
	for seq, g := range e.Matches().All() {
		fmt.Fprintf(&b, "%d: %s gain=%s\n", seq, g.Closing, g.Gain())
		for p := range g.Pieces() {
			fmt.Fprintf(&b, "  %s\n", p)
		}
	}
	return b.String()
}

func TestMatchingEngine_PooledOnly(t *testing.T) {
	e, err := NewMatchingEngine([]Trade{
		trade("VOD", "2022-1-1", 100, 10, 5, Open),
		trade("VOD", "2022-1-10", -100, 12, 5, Close),
	})
	if err != nil {
		t.Fatalf("NewMatchingEngine() failed: %v", err)
	}
	if err := e.Allocate(false); err != nil {
		t.Fatalf("Allocate() failed: %v", err)
	}

	g, ok := e.Matches().Get(1)
	if !ok || e.Matches().Len() != 1 {
		t.Fatalf("want exactly 1 match group, got %d", e.Matches().Len())
	}
	if len(g.Pooled) != 1 || len(g.SameDay) != 0 || len(g.WithinMonth) != 0 {
		t.Fatalf("the whole disposal should match from the pool: %+v", g)
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
	if got := g.NetProfit(); !got.Equal(gbp(190)) {
		t.Errorf("NetProfit() = %s, want £190", got)
	}
	if !e.OpenPosition().IsZero() {
		t.Errorf("OpenPosition() = %s, want 0", e.OpenPosition())
	}
}

func TestMatchingEngine_SameDayRule(t *testing.T) {
	e, err := NewMatchingEngine([]Trade{
		trade("VOD", "2022-1-10", 50, 10, 0, Open),
		trade("VOD", "2022-1-10", 50, 11, 0, Open),
		trade("VOD", "2022-1-10", -100, 12, 0, Close),
	})
	if err != nil {
		t.Fatalf("NewMatchingEngine() failed: %v", err)
	}
	if err := e.Allocate(true); err != nil {
		t.Fatalf("Allocate() failed: %v", err)
	}

	g, _ := e.Matches().Get(1)
	if len(g.SameDay) != 2 || len(g.WithinMonth) != 0 || len(g.Pooled) != 0 {
		t.Fatalf("both buys should match under the same-day rule: %+v", g)
	}
	// Most recently booked first: the 50 @ £11 buy before the 50 @ £10 one.
	if !g.SameDay[0].Price.Equal(gbp(11)) || !g.SameDay[1].Price.Equal(gbp(10)) {
		t.Errorf("same-day pieces priced %s then %s, want £11 then £10",
			g.SameDay[0].Price, g.SameDay[1].Price)
	}
	if got := g.Gain(); !got.Equal(gbp(150)) {
		t.Errorf("Gain() = %s, want £150", got)
	}
}

func TestMatchingEngine_ThirtyDayRule(t *testing.T) {
	// A sale followed by a repurchase ten days later matches the repurchase,
	// not the long-held lot.
	e, err := NewMatchingEngine([]Trade{
		trade("VOD", "2021-6-1", 100, 5, 0, Open),
		trade("VOD", "2022-1-10", -100, 12, 0, Close),
		trade("VOD", "2022-1-20", 100, 9, 0, Open),
	})
	if err != nil {
		t.Fatalf("NewMatchingEngine() failed: %v", err)
	}
	if err := e.Allocate(true); err != nil {
		t.Fatalf("Allocate() failed: %v", err)
	}

	g, _ := e.Matches().Get(1)
	if len(g.WithinMonth) != 1 || len(g.SameDay) != 0 || len(g.Pooled) != 0 {
		t.Fatalf("the disposal should match the later repurchase: %+v", g)
	}
	if !g.WithinMonth[0].Price.Equal(gbp(9)) {
		t.Errorf("matched piece priced %s, want £9", g.WithinMonth[0].Price)
	}
	if got := g.Gain(); !got.Equal(gbp(300)) {
		t.Errorf("Gain() = %s, want £300", got)
	}
	// The original holding is untouched and stays open.
	if got := e.OpenPosition(); !got.Equal(Q(100)) {
		t.Errorf("OpenPosition() = %s, want 100", got)
	}
}

func TestMatchingEngine_ThirtyDayRuleOffWithoutCGT(t *testing.T) {
	e, _ := NewMatchingEngine([]Trade{
		trade("VOD", "2021-6-1", 100, 5, 0, Open),
		trade("VOD", "2022-1-10", -100, 12, 0, Close),
		trade("VOD", "2022-1-20", 100, 9, 0, Open),
	})
	if err := e.Allocate(false); err != nil {
		t.Fatalf("Allocate() failed: %v", err)
	}
	g, _ := e.Matches().Get(1)
	if len(g.Pooled) != 1 || len(g.WithinMonth) != 0 {
		t.Fatalf("without identification rules the disposal should pool: %+v", g)
	}
	if !g.Pooled[0].Price.Equal(gbp(5)) {
		t.Errorf("pooled piece priced %s, want £5", g.Pooled[0].Price)
	}
}

func TestMatchingEngine_PooledIsProportionate(t *testing.T) {
	e, _ := NewMatchingEngine([]Trade{
		trade("VOD", "2022-1-1", 100, 10, 2, Open),
		trade("VOD", "2022-1-2", 300, 11, 6, Open),
		trade("VOD", "2022-2-1", -200, 12, 0, Close),
	})
	if err := e.Allocate(true); err != nil {
		t.Fatalf("Allocate() failed: %v", err)
	}
	g, _ := e.Matches().Get(1)
	if len(g.Pooled) != 2 {
		t.Fatalf("both lots should contribute, got %d pieces", len(g.Pooled))
	}
	if !g.Pooled[0].Quantity.Equal(Q(50)) || !g.Pooled[1].Quantity.Equal(Q(150)) {
		t.Errorf("pooled pieces = %s and %s, want 50 and 150",
			g.Pooled[0].Quantity, g.Pooled[1].Quantity)
	}
	if got := e.OpenPosition(); !got.Equal(Q(200)) {
		t.Errorf("OpenPosition() = %s, want 200", got)
	}
}

func TestMatchingEngine_LeftoverResolution(t *testing.T) {
	// Every trade marked Open, yet the position nets to zero: the trailing
	// trade is treated as the unrecorded closing event.
	e, _ := NewMatchingEngine([]Trade{
		trade("VOD", "2022-1-1", 100, 10, 0, Open),
		trade("VOD", "2022-2-1", -100, 12, 0, Open),
	})
	if err := e.Allocate(true); err != nil {
		t.Fatalf("Allocate() failed: %v", err)
	}
	if e.Matches().Len() != 1 {
		t.Fatalf("want 1 resolved group, got %d", e.Matches().Len())
	}
	g, _ := e.Matches().Get(1)
	if g.Closing.Type != Close {
		t.Errorf("resolved closing trade kept type %s", g.Closing.Type)
	}
	if !g.Closing.Quantity.Equal(Q(-100)) {
		t.Errorf("resolved closing quantity = %s, want -100", g.Closing.Quantity)
	}
	if got := g.Gain(); !got.Equal(gbp(200)) {
		t.Errorf("Gain() = %s, want £200", got)
	}
}

func TestMatchingEngine_UnmatchableDisposal(t *testing.T) {
	e, _ := NewMatchingEngine([]Trade{
		trade("VOD", "2022-1-1", 40, 10, 0, Open),
		trade("VOD", "2022-2-1", -100, 12, 0, Close),
	})
	err := e.Allocate(true)
	if !errors.Is(err, ErrUnmatched) {
		t.Fatalf("Allocate() error = %v, want ErrUnmatched", err)
	}
}

func TestMatchingEngine_ShortPosition(t *testing.T) {
	// Sell to open, buy to close: the same machinery works with signs flipped.
	e, _ := NewMatchingEngine([]Trade{
		trade("VOD", "2022-1-1", -100, 12, 0, Open),
		trade("VOD", "2022-2-1", 100, 10, 0, Close),
	})
	if err := e.Allocate(true); err != nil {
		t.Fatalf("Allocate() failed: %v", err)
	}
	g, _ := e.Matches().Get(1)
	if got := g.GrossProfit(); !got.Equal(gbp(200)) {
		t.Errorf("GrossProfit() = %s, want £200", got)
	}
}

func TestMatchingEngine_Deterministic(t *testing.T) {
	trades := []Trade{
		trade("VOD", "2022-1-1", 100, 10, 2, Open),
		trade("VOD", "2022-1-2", 300, 11, 6, Open),
		trade("VOD", "2022-1-15", -150, 12, 3, Close),
		trade("VOD", "2022-1-20", 50, 9, 1, Open),
		trade("VOD", "2022-2-1", -200, 13, 4, Close),
	}
	run := func() string {
		e, err := NewMatchingEngine(trades)
		if err != nil {
			t.Fatalf("NewMatchingEngine() failed: %v", err)
		}
		if err := e.Allocate(true); err != nil {
			t.Fatalf("Allocate() failed: %v", err)
		}
		return signature(e)
	}
	first := run()
	for i := 0; i < 5; i++ {
		if got := run(); got != first {
			t.Fatalf("run %d differs:\n%s\nwant:\n%s", i+2, got, first)
		}
	}
}

func TestMatchingEngine_AverageCommission(t *testing.T) {
	e, _ := NewMatchingEngine([]Trade{
		trade("VOD", "2022-1-1", 100, 10, 6, Open),
		trade("VOD", "2022-1-10", -100, 12, 4, Close),
	})
	if err := e.Allocate(false); err != nil {
		t.Fatalf("Allocate() failed: %v", err)
	}

	// £10 over 2 × 100 units dealt.
	avg, ok := e.AverageCommission(2022)
	if !ok {
		t.Fatal("AverageCommission(2022) reported no data")
	}
	if !avg.Equal(gbp(0.05)) {
		t.Errorf("AverageCommission(2022) = %s, want £0.05", avg)
	}

	// A year without activity has no data to average.
	if _, ok := e.AverageCommission(2025); ok {
		t.Error("AverageCommission(2025) should report no data")
	}
}
