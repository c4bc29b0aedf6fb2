package scout

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"chainscout/internal/model"
	"chainscout/internal/source"
)

// Evaluator resolves the accumulation predicate for one asset: which
// accounts netted at least the spec's threshold within the window.
type Evaluator struct {
	Source source.Source
}

// Evaluate streams every transfer of the spec's asset in the window, folds
// signed deltas into a per-account net, and returns the accounts whose final
// net is >= MinUnits. The fold is single-pass and commutative; the source
// guarantees no ordering. An asset with no matching events yields an empty
// set.
func (e *Evaluator) Evaluate(ctx context.Context, spec model.AssetSpec, window model.TimeWindow) (model.SeedSet, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	st, err := e.Source.FetchTransfers(ctx, spec.Symbol, nil, window)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", spec.Symbol, err)
	}

	nets := make(map[model.Account]decimal.Decimal)
	count := 0
	for st.Next(ctx) {
		ev := st.Event()
		nets[ev.Account] = nets[ev.Account].Add(ev.AmountDelta)
		count++
	}
	if err := st.Err(); err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", spec.Symbol, err)
	}

	seeds := make(model.SeedSet)
	for acct, net := range nets {
		if net.GreaterThanOrEqual(spec.MinUnits) {
			seeds.Add(acct)
		}
	}
	log.Printf("[INFO] %s: %d transfers, %d accounts, %d above threshold %s",
		spec.Symbol, count, len(nets), len(seeds), spec.MinUnits)
	return seeds, nil
}
