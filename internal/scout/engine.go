package scout

import (
	"context"
	"log"
	"time"

	"chainscout/internal/model"
)

// Result is the output of one full scouting run.
type Result struct {
	Seeds        model.SeedSet
	Ranking      model.Ranking
	SeedWindow   model.TimeWindow
	RecentWindow model.TimeWindow
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Engine runs the two scouting phases back to back: seed discovery over the
// historical window, then recent-activity aggregation for the resolved
// accounts.
type Engine struct {
	Resolver   *Resolver
	Aggregator *Aggregator
}

// Run executes both phases. An empty resolved seed set is not an error; it
// produces a well-formed empty ranking.
func (e *Engine) Run(ctx context.Context, specs []model.AssetSpec, seedWindow, recentWindow model.TimeWindow, mode model.CombineMode) (*Result, error) {
	started := time.Now()
	log.Printf("[INFO] seed discovery: %d specs over %s", len(specs), seedWindow)

	seeds, err := e.Resolver.ResolveSeeds(ctx, specs, seedWindow, mode)
	if err != nil {
		return nil, err
	}

	log.Printf("[INFO] recent activity: %d seed accounts over %s", len(seeds), recentWindow)
	ranking, err := e.Aggregator.Aggregate(ctx, seeds, recentWindow)
	if err != nil {
		return nil, err
	}

	return &Result{
		Seeds:        seeds,
		Ranking:      ranking,
		SeedWindow:   seedWindow,
		RecentWindow: recentWindow,
		StartedAt:    started,
		FinishedAt:   time.Now(),
	}, nil
}
