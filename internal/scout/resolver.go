package scout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"chainscout/internal/model"
)

// ErrAborted marks a run that failed after exhausting retries against a
// remote collaborator. The originating cause is attached in the chain; a run
// never returns a partial seed set or partial ranking instead.
var ErrAborted = errors.New("scouting aborted")

// Resolver orchestrates the Evaluator across all specs and combines the
// per-spec account sets.
type Resolver struct {
	Evaluator   *Evaluator
	Concurrency int
}

// ResolveSeeds evaluates every spec over the window, in parallel up to the
// concurrency limit, and combines the resulting sets: union for CombineAny,
// intersection for CombineAll. All input validation happens before the first
// remote query. On the first hard failure all sibling evaluations are
// cancelled and the run fails with ErrAborted.
func (r *Resolver) ResolveSeeds(ctx context.Context, specs []model.AssetSpec, window model.TimeWindow, mode model.CombineMode) (model.SeedSet, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: no asset specs", model.ErrInvalidSpec)
	}
	if !window.Start.Before(window.End) {
		return nil, fmt.Errorf("%w: window start is not before end", model.ErrInvalidSpec)
	}
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
	}
	if mode != model.CombineAny && mode != model.CombineAll {
		return nil, fmt.Errorf("%w: combine mode %q", model.ErrInvalidSpec, mode)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limit := r.Concurrency
	if limit <= 0 {
		limit = 4
	}
	sem := make(chan struct{}, limit)

	results := make([]model.SeedSet, len(specs))
	errs := make([]error, len(specs))
	var wg sync.WaitGroup
	for i := range specs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				errs[i] = ctx.Err()
				return
			}
			set, err := r.Evaluator.Evaluate(ctx, specs[i], window)
			if err != nil {
				errs[i] = err
				cancel()
				return
			}
			results[i] = set
		}(i)
	}
	wg.Wait()

	if err := firstCause(errs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAborted, err)
	}

	seeds := combine(results, mode)
	log.Printf("[INFO] resolved %d seed accounts from %d specs (mode=%s)", len(seeds), len(specs), mode)
	return seeds, nil
}

// firstCause prefers a real failure over the context errors its cancellation
// caused in sibling tasks.
func firstCause(errs []error) error {
	var ctxErr error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			ctxErr = err
			continue
		}
		return err
	}
	return ctxErr
}

func combine(sets []model.SeedSet, mode model.CombineMode) model.SeedSet {
	out := make(model.SeedSet)
	if mode == model.CombineAny {
		for _, set := range sets {
			for acct := range set {
				out.Add(acct)
			}
		}
		return out
	}
	// intersection: seed from the first set, drop anything missing elsewhere
	for acct := range sets[0] {
		inAll := true
		for _, set := range sets[1:] {
			if !set.Has(acct) {
				inAll = false
				break
			}
		}
		if inAll {
			out.Add(acct)
		}
	}
	return out
}
