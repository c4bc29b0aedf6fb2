package oracle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MockOracle serves fixed prices for testing. Assets absent from Prices fail
// with ErrUnavailable.
type MockOracle struct {
	Prices map[string]decimal.Decimal

	mu    sync.Mutex
	calls int
}

func (m *MockOracle) PriceAt(_ context.Context, asset string, _ time.Time) (decimal.Decimal, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	p, ok := m.Prices[asset]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no mock price for %s", ErrUnavailable, asset)
	}
	return p, nil
}

// Calls reports how many lookups reached the mock.
func (m *MockOracle) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
