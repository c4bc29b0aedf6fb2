package store

import (
	"time"

	"chainscout/internal/source"
)

// RunRecord captures one completed scouting run for later inspection.
type RunRecord struct {
	ID           string
	TokenList    string
	SeedStart    time.Time
	SeedEnd      time.Time
	RecentStart  time.Time
	RecentEnd    time.Time
	CombineMode  string
	SeedAccounts int
	ReportJSON   []byte
	CreatedAt    time.Time
}

// Store persists the token universe between runs and records run history.
type Store interface {
	LoadTokens() ([]source.TokenInfo, time.Time, error)
	SaveTokens(tokens []source.TokenInfo) error
	RecordRun(rec *RunRecord) error
	Close() error
}
