package source

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// TokenInfo describes one token known to the indexing service.
type TokenInfo struct {
	ID             string
	Symbol         string
	Name           string
	TradeVolumeUSD decimal.Decimal
}

// Directory resolves asset symbols to token identifiers usable in subgraph
// query filters.
type Directory interface {
	Resolve(ctx context.Context, symbol string) (TokenInfo, error)
}

// TokenCache persists the token universe between runs so the paginated
// tokens query does not have to be replayed every time.
type TokenCache interface {
	LoadTokens() ([]TokenInfo, time.Time, error)
	SaveTokens(tokens []TokenInfo) error
}

// GraphDirectory fetches the token universe from the subgraph, keeps the
// highest-volume token per symbol, and memoizes the result for the lifetime
// of the directory. A TokenCache, when configured, short-circuits the fetch
// as long as the cached copy is younger than RefreshTTL.
type GraphDirectory struct {
	client     *Client
	cache      TokenCache
	refreshTTL time.Duration
	pageSize   int

	mu     sync.Mutex
	tokens map[string]TokenInfo // symbol -> token
}

// NewGraphDirectory creates a directory backed by the given subgraph client.
// cache may be nil.
func NewGraphDirectory(client *Client, cache TokenCache, refreshTTL time.Duration, pageSize int) *GraphDirectory {
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &GraphDirectory{
		client:     client,
		cache:      cache,
		refreshTTL: refreshTTL,
		pageSize:   pageSize,
	}
}

// Resolve returns the token entry for a symbol, loading the universe on
// first use.
func (d *GraphDirectory) Resolve(ctx context.Context, symbol string) (TokenInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.tokens == nil {
		if err := d.load(ctx); err != nil {
			return TokenInfo{}, err
		}
	}
	tok, ok := d.tokens[symbol]
	if !ok {
		return TokenInfo{}, fmt.Errorf("%w: unknown token symbol %q", ErrUnavailable, symbol)
	}
	return tok, nil
}

func (d *GraphDirectory) load(ctx context.Context) error {
	if d.cache != nil {
		if cached, fetchedAt, err := d.cache.LoadTokens(); err != nil {
			log.Printf("[WARN] token cache read failed: %v", err)
		} else if len(cached) > 0 && time.Since(fetchedAt) < d.refreshTTL {
			d.index(cached)
			log.Printf("[INFO] token directory loaded from cache: %d symbols", len(d.tokens))
			return nil
		}
	}

	tokens, err := d.fetchAll(ctx)
	if err != nil {
		return err
	}
	d.index(tokens)
	log.Printf("[INFO] token directory fetched: %d symbols", len(d.tokens))

	if d.cache != nil {
		if err := d.cache.SaveTokens(tokens); err != nil {
			log.Printf("[WARN] token cache write failed: %v", err)
		}
	}
	return nil
}

const tokensQuery = `
query manyTokens($lastID: String!, $first: Int!) {
  tokens(first: $first, orderBy: id, orderDirection: asc, where: { id_gt: $lastID }) {
    id
    symbol
    name
    tradeVolumeUSD
  }
}`

type tokenRecord struct {
	ID             string `json:"id"`
	Symbol         string `json:"symbol"`
	Name           string `json:"name"`
	TradeVolumeUSD string `json:"tradeVolumeUSD"`
}

func (d *GraphDirectory) fetchAll(ctx context.Context) ([]TokenInfo, error) {
	var out []TokenInfo
	lastID := ""
	for {
		var page struct {
			Tokens []tokenRecord `json:"tokens"`
		}
		vars := map[string]any{"lastID": lastID, "first": d.pageSize}
		if err := d.client.Do(ctx, tokensQuery, vars, &page); err != nil {
			return nil, fmt.Errorf("fetch tokens page: %w", err)
		}
		if len(page.Tokens) == 0 {
			break
		}
		for _, rec := range page.Tokens {
			vol, err := decimal.NewFromString(rec.TradeVolumeUSD)
			if err != nil {
				vol = decimal.Zero
			}
			out = append(out, TokenInfo{
				ID:             rec.ID,
				Symbol:         rec.Symbol,
				Name:           rec.Name,
				TradeVolumeUSD: vol,
			})
		}
		lastID = page.Tokens[len(page.Tokens)-1].ID
		if len(page.Tokens) < d.pageSize {
			break
		}
	}
	return out, nil
}

// index keeps the highest-volume token per symbol, matching how the
// indexing service's duplicate listings are usually disambiguated.
func (d *GraphDirectory) index(tokens []TokenInfo) {
	d.tokens = make(map[string]TokenInfo, len(tokens))
	for _, tok := range tokens {
		cur, ok := d.tokens[tok.Symbol]
		if !ok || tok.TradeVolumeUSD.GreaterThan(cur.TradeVolumeUSD) {
			d.tokens[tok.Symbol] = tok
		}
	}
}

// StaticDirectory maps symbols to fixed token infos; used in tests and when
// the operator pins token ids in configuration.
type StaticDirectory map[string]TokenInfo

func (d StaticDirectory) Resolve(_ context.Context, symbol string) (TokenInfo, error) {
	tok, ok := d[symbol]
	if !ok {
		return TokenInfo{}, fmt.Errorf("%w: unknown token symbol %q", ErrUnavailable, symbol)
	}
	return tok, nil
}
