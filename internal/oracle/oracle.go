package oracle

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnavailable indicates no price could be resolved within the configured
// staleness tolerance of the requested timestamp. Unpriced assets are a
// recoverable condition for the caller, not a run failure.
var ErrUnavailable = errors.New("price unavailable")

// Oracle looks up an asset's USD unit price at or near a timestamp.
type Oracle interface {
	PriceAt(ctx context.Context, asset string, at time.Time) (decimal.Decimal, error)
}
