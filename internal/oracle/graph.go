package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"chainscout/internal/source"
)

const priceQuery = `
query tokenPrice($token: String!, $at: Int!) {
  tokenDayDatas(first: 1, orderBy: date, orderDirection: desc,
                where: { token: $token, date_lte: $at }) {
    date
    priceUSD
  }
}`

// GraphOracle resolves USD prices from the indexing service's per-day token
// price data. A quote is accepted only when it is no older than the staleness
// tolerance relative to the requested timestamp.
type GraphOracle struct {
	client    *source.Client
	directory source.Directory
	staleness time.Duration
}

// NewGraphOracle creates a price oracle sharing the subgraph client and token
// directory with the transfer source.
func NewGraphOracle(client *source.Client, directory source.Directory, staleness time.Duration) *GraphOracle {
	if staleness <= 0 {
		staleness = 48 * time.Hour
	}
	return &GraphOracle{client: client, directory: directory, staleness: staleness}
}

func (o *GraphOracle) PriceAt(ctx context.Context, asset string, at time.Time) (decimal.Decimal, error) {
	tok, err := o.directory.Resolve(ctx, asset)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var out struct {
		TokenDayDatas []struct {
			Date     int64  `json:"date"`
			PriceUSD string `json:"priceUSD"`
		} `json:"tokenDayDatas"`
	}
	vars := map[string]any{"token": tok.ID, "at": at.Unix()}
	if err := o.client.Do(ctx, priceQuery, vars, &out); err != nil {
		return decimal.Zero, fmt.Errorf("price query for %s: %w", asset, err)
	}
	if len(out.TokenDayDatas) == 0 {
		return decimal.Zero, fmt.Errorf("%w: no quote for %s at %s", ErrUnavailable, asset, at.Format(time.RFC3339))
	}

	quote := out.TokenDayDatas[0]
	quotedAt := time.Unix(quote.Date, 0)
	if at.Sub(quotedAt) > o.staleness {
		return decimal.Zero, fmt.Errorf("%w: quote for %s is stale (%s old)", ErrUnavailable, asset, at.Sub(quotedAt))
	}

	price, err := decimal.NewFromString(quote.PriceUSD)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: bad quote %q for %s", ErrUnavailable, quote.PriceUSD, asset)
	}
	return price, nil
}
