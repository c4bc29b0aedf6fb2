package source

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"chainscout/internal/model"
)

const transfersQuery = `
query manyTransfers($lastID: String!, $first: Int!, $token: String!, $start: Int!, $end: Int!) {
  transfers(first: $first, orderBy: id, orderDirection: asc,
            where: { id_gt: $lastID, token: $token, timestamp_gte: $start, timestamp_lt: $end }) {
    id
    account
    amount
    timestamp
    token { symbol }
  }
}`

const transfersByAccountsQuery = `
query manyTransfersByAccounts($lastID: String!, $first: Int!, $token: String!, $start: Int!, $end: Int!, $accounts: [String!]) {
  transfers(first: $first, orderBy: id, orderDirection: asc,
            where: { id_gt: $lastID, token: $token, timestamp_gte: $start, timestamp_lt: $end, account_in: $accounts }) {
    id
    account
    amount
    timestamp
    token { symbol }
  }
}`

const accountTransfersQuery = `
query accountTransfers($lastID: String!, $first: Int!, $start: Int!, $end: Int!, $accounts: [String!]) {
  transfers(first: $first, orderBy: id, orderDirection: asc,
            where: { id_gt: $lastID, timestamp_gte: $start, timestamp_lt: $end, account_in: $accounts }) {
    id
    account
    amount
    timestamp
    token { symbol }
  }
}`

// GraphSource implements Source against a GraphQL transfer index. Pagination
// uses an ascending id cursor so pages stay stable while the upstream index
// keeps ingesting new events.
type GraphSource struct {
	client    *Client
	directory Directory
	pageSize  int
}

// NewGraphSource creates a source using the given subgraph client and token
// directory.
func NewGraphSource(client *Client, directory Directory, pageSize int) *GraphSource {
	if pageSize <= 0 {
		pageSize = 500
	}
	return &GraphSource{client: client, directory: directory, pageSize: pageSize}
}

func (s *GraphSource) FetchTransfers(ctx context.Context, asset string, accounts []model.Account, window model.TimeWindow) (Stream, error) {
	vars := map[string]any{
		"first": s.pageSize,
		"start": window.Start.Unix(),
		"end":   window.End.Unix(),
	}

	var query string
	switch {
	case asset == "" && len(accounts) == 0:
		return nil, fmt.Errorf("%w: refusing unbounded query (no asset, no accounts)", ErrUnavailable)
	case asset == "":
		// broad query across all assets the given accounts touched
		query = accountTransfersQuery
		vars["accounts"] = accountStrings(accounts)
	default:
		tok, err := s.directory.Resolve(ctx, asset)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", asset, err)
		}
		vars["token"] = tok.ID
		if len(accounts) > 0 {
			query = transfersByAccountsQuery
			vars["accounts"] = accountStrings(accounts)
		} else {
			query = transfersQuery
		}
	}

	return &graphStream{
		client:   s.client,
		query:    query,
		vars:     vars,
		pageSize: s.pageSize,
	}, nil
}

func accountStrings(accounts []model.Account) []string {
	out := make([]string, len(accounts))
	for i, a := range accounts {
		out[i] = string(a)
	}
	return out
}

type transferRecord struct {
	ID        string `json:"id"`
	Account   string `json:"account"`
	Amount    string `json:"amount"`
	Timestamp string `json:"timestamp"`
	Token     struct {
		Symbol string `json:"symbol"`
	} `json:"token"`
}

type graphStream struct {
	client   *Client
	query    string
	vars     map[string]any
	pageSize int

	lastID string
	buf    []model.TransferEvent
	idx    int
	done   bool
	cur    model.TransferEvent
	err    error
}

func (st *graphStream) Next(ctx context.Context) bool {
	if st.err != nil {
		return false
	}
	for st.idx >= len(st.buf) {
		if st.done {
			return false
		}
		if !st.fetchPage(ctx) {
			return false
		}
	}
	st.cur = st.buf[st.idx]
	st.idx++
	return true
}

func (st *graphStream) Event() model.TransferEvent { return st.cur }

func (st *graphStream) Err() error { return st.err }

func (st *graphStream) fetchPage(ctx context.Context) bool {
	var page struct {
		Transfers []transferRecord `json:"transfers"`
	}
	st.vars["lastID"] = st.lastID
	if err := st.client.Do(ctx, st.query, st.vars, &page); err != nil {
		st.err = fmt.Errorf("fetch transfers: %w", err)
		return false
	}

	st.buf = st.buf[:0]
	st.idx = 0
	for _, rec := range page.Transfers {
		ev, err := rec.toEvent()
		if err != nil {
			st.err = fmt.Errorf("%w: bad transfer record %s: %v", ErrUnavailable, rec.ID, err)
			return false
		}
		st.buf = append(st.buf, ev)
	}

	if len(page.Transfers) > 0 {
		st.lastID = page.Transfers[len(page.Transfers)-1].ID
	}
	if len(page.Transfers) < st.pageSize {
		st.done = true
	}
	return len(st.buf) > 0 || !st.done
}

func (r transferRecord) toEvent() (model.TransferEvent, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return model.TransferEvent{}, fmt.Errorf("amount %q: %v", r.Amount, err)
	}
	ts, err := strconv.ParseInt(r.Timestamp, 10, 64)
	if err != nil {
		return model.TransferEvent{}, fmt.Errorf("timestamp %q: %v", r.Timestamp, err)
	}
	return model.TransferEvent{
		Account:     model.Account(r.Account),
		Asset:       r.Token.Symbol,
		AmountDelta: amount,
		Timestamp:   time.Unix(ts, 0).UTC(),
	}, nil
}
