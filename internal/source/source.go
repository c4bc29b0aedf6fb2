package source

import (
	"context"
	"errors"

	"chainscout/internal/model"
)

var (
	// ErrUnavailable indicates a transport or query failure against the
	// indexing source after local retries were exhausted.
	ErrUnavailable = errors.New("source unavailable")
	// ErrTimeout indicates the indexing source did not answer within the
	// configured deadline.
	ErrTimeout = errors.New("source timeout")
)

// Source fetches transfer events for one asset within a time window.
// A nil/empty accounts list means all transfers of the asset; a populated
// list restricts the query to those accounts, bounding query cost to the
// seed set during recent-activity aggregation. An empty asset with a
// populated account list is a broad query covering every asset those
// accounts touched; empty asset with no accounts is rejected.
type Source interface {
	FetchTransfers(ctx context.Context, asset string, accounts []model.Account, window model.TimeWindow) (Stream, error)
}

// Stream is a lazy, possibly paginated sequence of transfer events.
// Iterate exactly once per FetchTransfers call:
//
//	for st.Next(ctx) {
//	    ev := st.Event()
//	    ...
//	}
//	if err := st.Err(); err != nil { ... }
type Stream interface {
	Next(ctx context.Context) bool
	Event() model.TransferEvent
	Err() error
}
