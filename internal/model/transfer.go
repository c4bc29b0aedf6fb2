package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Account is an opaque on-chain address. The engine assumes nothing beyond
// equality and hashing.
type Account string

// TransferEvent is one signed transfer of an asset: positive AmountDelta is
// an acquisition, negative a disposal.
type TransferEvent struct {
	Account     Account
	Asset       string
	AmountDelta decimal.Decimal
	Timestamp   time.Time
}

// SeedSet is the set of accounts that passed seed discovery.
type SeedSet map[Account]struct{}

// NewSeedSet builds a set from a list of accounts.
func NewSeedSet(accounts ...Account) SeedSet {
	s := make(SeedSet, len(accounts))
	for _, a := range accounts {
		s[a] = struct{}{}
	}
	return s
}

func (s SeedSet) Add(a Account) { s[a] = struct{}{} }

func (s SeedSet) Has(a Account) bool {
	_, ok := s[a]
	return ok
}

// Sorted returns the accounts in lexicographic order, for deterministic
// query composition and logging.
func (s SeedSet) Sorted() []Account {
	out := make([]Account, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
