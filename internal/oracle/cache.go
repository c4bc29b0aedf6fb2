package oracle

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// CachedOracle memoizes lookups for the duration of a single run. Price
// staleness is already bounded by the underlying oracle, so a run-scoped
// cache never serves a quote the run would not have accepted. Negative
// results (unpriced assets) are cached too, sparing repeated failing lookups.
type CachedOracle struct {
	next Oracle

	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
}

type cacheKey struct {
	asset string
	at    int64
}

type cacheEntry struct {
	price decimal.Decimal
	err   error
}

// NewCachedOracle wraps next with run-scoped memoization.
func NewCachedOracle(next Oracle) *CachedOracle {
	return &CachedOracle{next: next, entries: make(map[cacheKey]cacheEntry)}
}

func (c *CachedOracle) PriceAt(ctx context.Context, asset string, at time.Time) (decimal.Decimal, error) {
	key := cacheKey{asset: asset, at: at.Unix()}

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return e.price, e.err
	}
	c.mu.Unlock()

	price, err := c.next.PriceAt(ctx, asset, at)

	c.mu.Lock()
	c.entries[key] = cacheEntry{price: price, err: err}
	c.mu.Unlock()
	return price, err
}
