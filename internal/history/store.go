// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists loop pressure readings in SQLite so the
// pressure timeline survives restarts. It stores numbers only.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/signal-engine/pkg/types"
)

// Store manages the pressure history database.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens or creates the history database at path, creating the
// parent directory and schema as needed.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS pressure_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at INTEGER NOT NULL,
			pressure REAL NOT NULL,
			trend TEXT NOT NULL,
			signal_count INTEGER NOT NULL,
			feeds_responded INTEGER NOT NULL,
			feeds_failed INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pressure_history_recorded_at ON pressure_history(recorded_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record appends one reading.
func (s *Store) Record(ctx context.Context, p types.PressurePoint) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pressure_history
			(recorded_at, pressure, trend, signal_count, feeds_responded, feeds_failed)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.RecordedAt.UnixMilli(), p.Pressure, string(p.Trend),
		p.SignalCount, p.FeedsResponded, p.FeedsFailed,
	)
	if err != nil {
		return fmt.Errorf("recording pressure: %w", err)
	}
	return nil
}

// Recent returns readings taken at or after since, oldest first. A zero
// since returns everything.
func (s *Store) Recent(ctx context.Context, since time.Time) ([]types.PressurePoint, error) {
	var cutoff int64
	if !since.IsZero() {
		cutoff = since.UnixMilli()
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT recorded_at, pressure, trend, signal_count, feeds_responded, feeds_failed
		FROM pressure_history
		WHERE recorded_at >= ?
		ORDER BY recorded_at ASC, id ASC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	points := []types.PressurePoint{}
	for rows.Next() {
		var (
			p     types.PressurePoint
			ms    int64
			trend string
		)
		if err := rows.Scan(&ms, &p.Pressure, &trend, &p.SignalCount, &p.FeedsResponded, &p.FeedsFailed); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		p.RecordedAt = time.UnixMilli(ms).UTC()
		p.Trend = types.PressureTrend(trend)
		points = append(points, p)
	}
	return points, rows.Err()
}

// Prune deletes readings older than before and returns how many went.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM pressure_history WHERE recorded_at < ?`, before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("pruning history: %w", err)
	}
	return res.RowsAffected()
}
