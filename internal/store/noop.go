package store

import (
	"time"

	"chainscout/internal/source"
)

// NoopStore is used when no database path is configured.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) LoadTokens() ([]source.TokenInfo, time.Time, error) { return nil, time.Time{}, nil }
func (n *NoopStore) SaveTokens(_ []source.TokenInfo) error              { return nil }
func (n *NoopStore) RecordRun(_ *RunRecord) error                       { return nil }
func (n *NoopStore) Close() error                                       { return nil }
