package source

import (
	"context"
	"sync"

	"chainscout/internal/model"
)

// MockSource returns controllable fixed data for development and testing.
// Events are filtered by asset, window, and the optional account restriction,
// mirroring the remote contract. FailFirst injects transient failures: the
// first N FetchTransfers calls fail with Errs (or ErrUnavailable).
type MockSource struct {
	Events    []model.TransferEvent
	FailFirst int
	Errs      error

	mu       sync.Mutex
	calls    int
	failures int
}

func (m *MockSource) FetchTransfers(_ context.Context, asset string, accounts []model.Account, window model.TimeWindow) (Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.failures < m.FailFirst {
		m.failures++
		err := m.Errs
		if err == nil {
			err = ErrUnavailable
		}
		return nil, err
	}

	var restrict model.SeedSet
	if len(accounts) > 0 {
		restrict = model.NewSeedSet(accounts...)
	}

	var events []model.TransferEvent
	for _, ev := range m.Events {
		if asset != "" && ev.Asset != asset {
			continue
		}
		if !window.Contains(ev.Timestamp) {
			continue
		}
		if restrict != nil && !restrict.Has(ev.Account) {
			continue
		}
		events = append(events, ev)
	}
	return &sliceStream{events: events}, nil
}

// Calls reports how many FetchTransfers calls were made, including failed ones.
func (m *MockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type sliceStream struct {
	events []model.TransferEvent
	idx    int
	cur    model.TransferEvent
}

func (s *sliceStream) Next(_ context.Context) bool {
	if s.idx >= len(s.events) {
		return false
	}
	s.cur = s.events[s.idx]
	s.idx++
	return true
}

func (s *sliceStream) Event() model.TransferEvent { return s.cur }

func (s *sliceStream) Err() error { return nil }
