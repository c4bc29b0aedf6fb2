package store

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"chainscout/internal/source"
)

// SQLiteStore persists the token directory and run history to SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tokens (
			id               TEXT PRIMARY KEY,
			symbol           TEXT NOT NULL,
			name             TEXT,
			trade_volume_usd TEXT,
			fetched_at       INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tokens_symbol ON tokens(symbol)`,

		`CREATE TABLE IF NOT EXISTS runs (
			id            TEXT PRIMARY KEY,
			token_list    TEXT,
			seed_start    INTEGER,
			seed_end      INTEGER,
			recent_start  INTEGER,
			recent_end    INTEGER,
			combine_mode  TEXT,
			seed_accounts INTEGER,
			report_json   TEXT,
			created_at    INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// LoadTokens returns the cached token universe and when it was fetched.
func (s *SQLiteStore) LoadTokens() ([]source.TokenInfo, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT id, symbol, name, trade_volume_usd, fetched_at FROM tokens`)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("query tokens: %w", err)
	}
	defer rows.Close()

	var tokens []source.TokenInfo
	var oldest int64
	for rows.Next() {
		var tok source.TokenInfo
		var vol string
		var fetchedAt int64
		if err := rows.Scan(&tok.ID, &tok.Symbol, &tok.Name, &vol, &fetchedAt); err != nil {
			return nil, time.Time{}, fmt.Errorf("scan token: %w", err)
		}
		if v, err := decimal.NewFromString(vol); err == nil {
			tok.TradeVolumeUSD = v
		}
		if oldest == 0 || fetchedAt < oldest {
			oldest = fetchedAt
		}
		tokens = append(tokens, tok)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("iterate tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil, time.Time{}, nil
	}
	return tokens, time.Unix(oldest, 0), nil
}

// SaveTokens replaces the cached token universe.
func (s *SQLiteStore) SaveTokens(tokens []source.TokenInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM tokens`); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear tokens: %w", err)
	}
	now := time.Now().Unix()
	for _, tok := range tokens {
		if _, err := tx.Exec(
			`INSERT INTO tokens (id, symbol, name, trade_volume_usd, fetched_at) VALUES (?,?,?,?,?)`,
			tok.ID, tok.Symbol, tok.Name, tok.TradeVolumeUSD.String(), now,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert token %s: %w", tok.Symbol, err)
		}
	}
	return tx.Commit()
}

// RecordRun stores one completed run; an id is assigned when missing.
func (s *SQLiteStore) RecordRun(rec *RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(`INSERT INTO runs
		(id, token_list, seed_start, seed_end, recent_start, recent_end, combine_mode, seed_accounts, report_json, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		rec.ID, rec.TokenList,
		rec.SeedStart.Unix(), rec.SeedEnd.Unix(),
		rec.RecentStart.Unix(), rec.RecentEnd.Unix(),
		rec.CombineMode, rec.SeedAccounts, string(rec.ReportJSON), rec.CreatedAt.Unix(),
	)
	return err
}

func (s *SQLiteStore) Close() error {
	log.Println("[INFO] closing sqlite store")
	return s.db.Close()
}
