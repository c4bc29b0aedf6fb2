package scout

import (
	"context"
	"errors"
	"testing"
	"time"

	"chainscout/internal/model"
	"chainscout/internal/source"
)

func newResolver(src source.Source) *Resolver {
	return &Resolver{Evaluator: &Evaluator{Source: src}, Concurrency: 2}
}

func multiAssetSource(w model.TimeWindow) *source.MockSource {
	ts := w.Start.Add(time.Hour)
	return &source.MockSource{Events: []model.TransferEvent{
		// 0xa qualifies for AAVE only, 0xb for SNX only, 0xc for both
		ev("0xa", "AAVE", "150", ts),
		ev("0xb", "SNX", "250", ts),
		ev("0xc", "AAVE", "100", ts),
		ev("0xc", "SNX", "200", ts),
		ev("0xd", "AAVE", "10", ts),
	}}
}

func TestResolveSeeds_AnyIsUnion(t *testing.T) {
	w := testWindow(t)
	specs := []model.AssetSpec{spec("AAVE", "100"), spec("SNX", "200")}

	seeds, err := newResolver(multiAssetSource(w)).ResolveSeeds(context.Background(), specs, w, model.CombineAny)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []model.Account{"0xa", "0xb", "0xc"} {
		if !seeds.Has(want) {
			t.Errorf("union should contain %s", want)
		}
	}
	if seeds.Has("0xd") {
		t.Error("0xd met no threshold")
	}
}

func TestResolveSeeds_AllIsIntersection(t *testing.T) {
	w := testWindow(t)
	specs := []model.AssetSpec{spec("AAVE", "100"), spec("SNX", "200")}

	seeds, err := newResolver(multiAssetSource(w)).ResolveSeeds(context.Background(), specs, w, model.CombineAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seeds) != 1 || !seeds.Has("0xc") {
		t.Errorf("intersection should be exactly {0xc}, got %v", seeds.Sorted())
	}
}

func TestResolveSeeds_AnyAtLeastAsLargeAsAll(t *testing.T) {
	w := testWindow(t)
	specs := []model.AssetSpec{spec("AAVE", "100"), spec("SNX", "200")}

	anySeeds, err := newResolver(multiAssetSource(w)).ResolveSeeds(context.Background(), specs, w, model.CombineAny)
	if err != nil {
		t.Fatalf("any: %v", err)
	}
	allSeeds, err := newResolver(multiAssetSource(w)).ResolveSeeds(context.Background(), specs, w, model.CombineAll)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(anySeeds) < len(allSeeds) {
		t.Errorf("union size %d smaller than intersection size %d", len(anySeeds), len(allSeeds))
	}
}

func TestResolveSeeds_EmptySpecs(t *testing.T) {
	w := testWindow(t)
	src := &source.MockSource{}

	_, err := newResolver(src).ResolveSeeds(context.Background(), nil, w, model.CombineAny)
	if !errors.Is(err, model.ErrInvalidSpec) {
		t.Fatalf("expected ErrInvalidSpec, got %v", err)
	}
	if src.Calls() != 0 {
		t.Errorf("expected no queries, got %d", src.Calls())
	}
}

func TestResolveSeeds_InvalidSpecBeforeAnyQuery(t *testing.T) {
	w := testWindow(t)
	src := multiAssetSource(w)
	specs := []model.AssetSpec{spec("AAVE", "100"), spec("SNX", "0")}

	_, err := newResolver(src).ResolveSeeds(context.Background(), specs, w, model.CombineAny)
	if !errors.Is(err, model.ErrInvalidSpec) {
		t.Fatalf("expected ErrInvalidSpec, got %v", err)
	}
	if src.Calls() != 0 {
		t.Errorf("all specs must validate before the first query, got %d calls", src.Calls())
	}
}

func TestResolveSeeds_AllEmptyIsNotAnError(t *testing.T) {
	w := testWindow(t)
	src := &source.MockSource{} // no events at all
	specs := []model.AssetSpec{spec("AAVE", "100"), spec("SNX", "200")}

	seeds, err := newResolver(src).ResolveSeeds(context.Background(), specs, w, model.CombineAny)
	if err != nil {
		t.Fatalf("empty per-spec sets are not an error, got: %v", err)
	}
	if len(seeds) != 0 {
		t.Errorf("expected empty seed set, got %d", len(seeds))
	}
}

func TestResolveSeeds_SourceFailureAborts(t *testing.T) {
	w := testWindow(t)
	src := &source.MockSource{FailFirst: 1 << 20, Errs: source.ErrTimeout}
	specs := []model.AssetSpec{spec("AAVE", "100"), spec("SNX", "200")}

	_, err := newResolver(src).ResolveSeeds(context.Background(), specs, w, model.CombineAny)
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if !errors.Is(err, source.ErrTimeout) {
		t.Errorf("originating cause should stay in the chain, got %v", err)
	}
}
