package model

import (
	"sort"

	"github.com/shopspring/decimal"
)

// AssetAccumulation is one ranking row: what the seed accounts accumulated
// of a single asset over the recent window.
type AssetAccumulation struct {
	Symbol       string          `json:"symbol"`
	TotalUSD     decimal.Decimal `json:"total_usd"`
	TotalUnits   decimal.Decimal `json:"total_units"`
	AccountCount int             `json:"account_count"`
	Priced       bool            `json:"priced"`
}

// Ranking is the ordered report payload: descending by TotalUSD, ties broken
// by ascending symbol so repeated runs over identical data are byte-identical.
type Ranking []AssetAccumulation

// Sort applies the canonical ordering in place.
func (r Ranking) Sort() {
	sort.SliceStable(r, func(i, j int) bool {
		if c := r[i].TotalUSD.Cmp(r[j].TotalUSD); c != 0 {
			return c > 0
		}
		return r[i].Symbol < r[j].Symbol
	})
}
