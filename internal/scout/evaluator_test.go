package scout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"chainscout/internal/model"
	"chainscout/internal/source"
)

func testWindow(t *testing.T) model.TimeWindow {
	t.Helper()
	w, err := model.ParseWindow("2021-01-01 00:00:00", "2021-01-02 00:00:00")
	if err != nil {
		t.Fatalf("build window: %v", err)
	}
	return w
}

func ev(account, asset string, amount string, ts time.Time) model.TransferEvent {
	return model.TransferEvent{
		Account:     model.Account(account),
		Asset:       asset,
		AmountDelta: decimal.RequireFromString(amount),
		Timestamp:   ts,
	}
}

func spec(symbol, minUnits string) model.AssetSpec {
	return model.AssetSpec{Symbol: symbol, MinUnits: decimal.RequireFromString(minUnits)}
}

func TestEvaluate_BoundaryInclusive(t *testing.T) {
	w := testWindow(t)
	ts := w.Start.Add(time.Hour)
	src := &source.MockSource{Events: []model.TransferEvent{
		ev("0xa", "AAVE", "100", ts),  // exactly the threshold
		ev("0xb", "AAVE", "99.9", ts), // just below
	}}

	seeds, err := (&Evaluator{Source: src}).Evaluate(context.Background(), spec("AAVE", "100"), w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !seeds.Has("0xa") {
		t.Error("account netting exactly the threshold should qualify")
	}
	if seeds.Has("0xb") {
		t.Error("account below the threshold should not qualify")
	}
}

func TestEvaluate_NetsDisposals(t *testing.T) {
	w := testWindow(t)
	ts := w.Start.Add(time.Hour)
	src := &source.MockSource{Events: []model.TransferEvent{
		ev("0xa", "AAVE", "150", ts),
		ev("0xa", "AAVE", "-60", ts.Add(time.Hour)), // nets to 90
		ev("0xc", "AAVE", "120", ts),
		ev("0xc", "AAVE", "-10", ts.Add(time.Hour)), // nets to 110
	}}

	seeds, err := (&Evaluator{Source: src}).Evaluate(context.Background(), spec("AAVE", "100"), w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seeds.Has("0xa") {
		t.Error("150 acquired minus 60 disposed nets 90, must fail a threshold of 100")
	}
	if !seeds.Has("0xc") {
		t.Error("net 110 should pass a threshold of 100")
	}
}

func TestEvaluate_NoEvents(t *testing.T) {
	w := testWindow(t)
	src := &source.MockSource{}

	seeds, err := (&Evaluator{Source: src}).Evaluate(context.Background(), spec("AAVE", "100"), w)
	if err != nil {
		t.Fatalf("zero matching events is not an error, got: %v", err)
	}
	if len(seeds) != 0 {
		t.Errorf("expected empty set, got %d accounts", len(seeds))
	}
}

func TestEvaluate_InvalidSpecBeforeQuery(t *testing.T) {
	w := testWindow(t)
	src := &source.MockSource{}

	_, err := (&Evaluator{Source: src}).Evaluate(context.Background(), spec("AAVE", "0"), w)
	if !errors.Is(err, model.ErrInvalidSpec) {
		t.Fatalf("expected ErrInvalidSpec, got %v", err)
	}
	if src.Calls() != 0 {
		t.Errorf("validation must happen before any query, got %d calls", src.Calls())
	}
}

func TestEvaluate_IgnoresOutOfWindowEvents(t *testing.T) {
	w := testWindow(t)
	src := &source.MockSource{Events: []model.TransferEvent{
		ev("0xa", "AAVE", "500", w.Start.Add(-time.Hour)), // before window
		ev("0xa", "AAVE", "500", w.End),                   // at the excluded end boundary
		ev("0xa", "AAVE", "50", w.Start),                  // inside
	}}

	seeds, err := (&Evaluator{Source: src}).Evaluate(context.Background(), spec("AAVE", "100"), w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seeds.Has("0xa") {
		t.Error("only the in-window 50 units count, below the 100 threshold")
	}
}
