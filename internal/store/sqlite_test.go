package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"chainscout/internal/source"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "scout.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_TokenRoundtrip(t *testing.T) {
	s := openTestStore(t)

	tokens, fetchedAt, err := s.LoadTokens()
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(tokens) != 0 || !fetchedAt.IsZero() {
		t.Fatalf("fresh store should be empty, got %d tokens", len(tokens))
	}

	want := []source.TokenInfo{
		{ID: "0x1", Symbol: "AAVE", Name: "Aave Token", TradeVolumeUSD: decimal.RequireFromString("123.45")},
		{ID: "0x2", Symbol: "REN", Name: "Republic Token", TradeVolumeUSD: decimal.NewFromInt(67)},
	}
	if err := s.SaveTokens(want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, fetchedAt, err := s.LoadTokens()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(got), len(want))
	}
	byID := make(map[string]source.TokenInfo, len(got))
	for _, tok := range got {
		byID[tok.ID] = tok
	}
	for _, w := range want {
		g, ok := byID[w.ID]
		if !ok {
			t.Fatalf("token %s missing after roundtrip", w.ID)
		}
		if g.Symbol != w.Symbol || g.Name != w.Name || !g.TradeVolumeUSD.Equal(w.TradeVolumeUSD) {
			t.Errorf("token %s = %+v, want %+v", w.ID, g, w)
		}
	}
	if time.Since(fetchedAt) > time.Minute {
		t.Errorf("fetchedAt = %s, want roughly now", fetchedAt)
	}
}

func TestSQLiteStore_SaveTokensReplaces(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveTokens([]source.TokenInfo{{ID: "0x1", Symbol: "OLD"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveTokens([]source.TokenInfo{{ID: "0x2", Symbol: "NEW"}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, _, err := s.LoadTokens()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].Symbol != "NEW" {
		t.Errorf("save must replace the universe, got %v", got)
	}
}

func TestSQLiteStore_RecordRunAssignsID(t *testing.T) {
	s := openTestStore(t)

	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := &RunRecord{
		TokenList:    `[["AAVE",100]]`,
		SeedStart:    start,
		SeedEnd:      start.AddDate(0, 0, 1),
		RecentStart:  start.AddDate(0, 0, 9),
		RecentEnd:    start.AddDate(0, 1, 8),
		CombineMode:  "any",
		SeedAccounts: 3,
		ReportJSON:   []byte(`{"assets":[]}`),
	}
	if err := s.RecordRun(rec); err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.ID == "" {
		t.Error("RecordRun should assign an id")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("RecordRun should stamp createdAt")
	}

	var count int
	var mode string
	if err := s.db.QueryRow(`SELECT COUNT(*), MAX(combine_mode) FROM runs`).Scan(&count, &mode); err != nil {
		t.Fatalf("query runs: %v", err)
	}
	if count != 1 || mode != "any" {
		t.Errorf("runs table has %d rows (mode %q), want 1 row with mode any", count, mode)
	}
}

func TestSQLiteStore_RecordRunKeepsGivenID(t *testing.T) {
	s := openTestStore(t)

	now := time.Date(2021, 2, 1, 12, 0, 0, 0, time.UTC)
	rec := &RunRecord{
		ID:          "run-fixed",
		SeedStart:   now,
		SeedEnd:     now.Add(time.Hour),
		RecentStart: now,
		RecentEnd:   now.Add(time.Hour),
		CreatedAt:   now,
	}
	if err := s.RecordRun(rec); err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.ID != "run-fixed" {
		t.Errorf("id = %q, want the caller's run-fixed", rec.ID)
	}

	var createdAt int64
	if err := s.db.QueryRow(`SELECT created_at FROM runs WHERE id = ?`, rec.ID).Scan(&createdAt); err != nil {
		t.Fatalf("query run: %v", err)
	}
	if createdAt != now.Unix() {
		t.Errorf("createdAt = %d, want %d", createdAt, now.Unix())
	}
}
