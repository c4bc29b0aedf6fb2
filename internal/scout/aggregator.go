package scout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/shopspring/decimal"

	"chainscout/internal/model"
	"chainscout/internal/oracle"
	"chainscout/internal/source"
)

type pairKey struct {
	account model.Account
	asset   string
}

// Aggregator computes the USD-weighted net accumulation ranking for a seed
// account set over the recent window.
type Aggregator struct {
	Source source.Source
	Oracle oracle.Oracle

	// ChunkSize bounds how many accounts go into one restricted query.
	ChunkSize int
	// Concurrency bounds parallel chunk fetches.
	Concurrency int
	// IncludeUnpriced keeps assets the oracle cannot price in the ranking,
	// reporting raw units with a zero USD total.
	IncludeUnpriced bool
	// MinTotalUSD drops priced rows below this floor. Zero keeps everything.
	MinTotalUSD decimal.Decimal
}

// Aggregate folds the seed accounts' recent transfers into per-(account,
// asset) nets, keeps positive nets only, prices them at the window end, and
// returns the canonical ranking. An empty seed set returns an empty ranking
// without touching the source.
func (a *Aggregator) Aggregate(ctx context.Context, seeds model.SeedSet, window model.TimeWindow) (model.Ranking, error) {
	if len(seeds) == 0 {
		return model.Ranking{}, nil
	}

	nets, err := a.foldRecent(ctx, seeds, window)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAborted, err)
	}

	return a.rank(ctx, nets, window)
}

// foldRecent fetches the seed accounts' transfers in account chunks, each
// chunk an independent bounded-parallel task with its own accumulator, and
// merges the per-chunk nets.
func (a *Aggregator) foldRecent(ctx context.Context, seeds model.SeedSet, window model.TimeWindow) (map[pairKey]decimal.Decimal, error) {
	chunkSize := a.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 25
	}
	accounts := seeds.Sorted()
	var chunks [][]model.Account
	for start := 0; start < len(accounts); start += chunkSize {
		end := start + chunkSize
		if end > len(accounts) {
			end = len(accounts)
		}
		chunks = append(chunks, accounts[start:end])
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limit := a.Concurrency
	if limit <= 0 {
		limit = 4
	}
	sem := make(chan struct{}, limit)

	partials := make([]map[pairKey]decimal.Decimal, len(chunks))
	errs := make([]error, len(chunks))
	var wg sync.WaitGroup
	for i := range chunks {
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
			nets, err := a.foldChunk(ctx, chunks[i], window)
			if err != nil {
				errs[i] = err
				cancel()
				return
			}
			partials[i] = nets
		}(i)
	}
	wg.Wait()

	if err := firstCause(errs); err != nil {
		return nil, err
	}

	merged := make(map[pairKey]decimal.Decimal)
	for _, nets := range partials {
		for key, net := range nets {
			merged[key] = merged[key].Add(net)
		}
	}
	return merged, nil
}

func (a *Aggregator) foldChunk(ctx context.Context, accounts []model.Account, window model.TimeWindow) (map[pairKey]decimal.Decimal, error) {
	st, err := a.Source.FetchTransfers(ctx, "", accounts, window)
	if err != nil {
		return nil, fmt.Errorf("fetch recent activity: %w", err)
	}
	nets := make(map[pairKey]decimal.Decimal)
	for st.Next(ctx) {
		ev := st.Event()
		key := pairKey{account: ev.Account, asset: ev.Asset}
		nets[key] = nets[key].Add(ev.AmountDelta)
	}
	if err := st.Err(); err != nil {
		return nil, fmt.Errorf("fetch recent activity: %w", err)
	}
	return nets, nil
}

// rank drops non-positive nets, prices each asset at the window end, and
// sorts. Only accumulation counts: a net-negative or net-zero position
// contributes nothing to the asset's totals.
func (a *Aggregator) rank(ctx context.Context, nets map[pairKey]decimal.Decimal, window model.TimeWindow) (model.Ranking, error) {
	type assetAgg struct {
		units    decimal.Decimal
		accounts int
	}
	byAsset := make(map[string]*assetAgg)
	for key, net := range nets {
		if net.Sign() <= 0 {
			continue
		}
		agg := byAsset[key.asset]
		if agg == nil {
			agg = &assetAgg{}
			byAsset[key.asset] = agg
		}
		agg.units = agg.units.Add(net)
		agg.accounts++
	}

	ranking := make(model.Ranking, 0, len(byAsset))
	for asset, agg := range byAsset {
		row := model.AssetAccumulation{
			Symbol:       asset,
			TotalUnits:   agg.units,
			AccountCount: agg.accounts,
		}
		price, err := a.Oracle.PriceAt(ctx, asset, window.End)
		switch {
		case err == nil:
			row.TotalUSD = agg.units.Mul(price)
			row.Priced = true
		case errors.Is(err, oracle.ErrUnavailable):
			if !a.IncludeUnpriced {
				log.Printf("[WARN] dropping unpriced asset %s: %v", asset, err)
				continue
			}
			log.Printf("[WARN] keeping unpriced asset %s with zero USD value", asset)
		default:
			return nil, fmt.Errorf("%w: price %s: %w", ErrAborted, asset, err)
		}
		if row.Priced && a.MinTotalUSD.Sign() > 0 && row.TotalUSD.LessThan(a.MinTotalUSD) {
			continue
		}
		ranking = append(ranking, row)
	}

	ranking.Sort()
	return ranking, nil
}
