package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mahesh-hegde/visualize/app/chartconfig"
)

// SQLiteSessionStore keeps configurator states in the visualize_sessions
// table.
type SQLiteSessionStore struct {
	db *sql.DB
}

var _ SessionStore = &SQLiteSessionStore{}

func NewSQLiteSessionStore(db *sql.DB) *SQLiteSessionStore {
	return &SQLiteSessionStore{db: db}
}

func (s *SQLiteSessionStore) Init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS visualize_sessions (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create visualize_sessions table: %w", err)
	}
	return nil
}

func (s *SQLiteSessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM visualize_sessions WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *SQLiteSessionStore) Set(ctx context.Context, key string, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO visualize_sessions (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().Unix())
	return err
}

func (s *SQLiteSessionStore) Remove(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM visualize_sessions WHERE key = ?", key)
	return err
}

// SQLiteChartStore keeps published charts in the visualize_charts table.
type SQLiteChartStore struct {
	db *sql.DB
}

var _ ChartStore = &SQLiteChartStore{}

func NewSQLiteChartStore(db *sql.DB) *SQLiteChartStore {
	return &SQLiteChartStore{db: db}
}

func (s *SQLiteChartStore) Init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS visualize_charts (
			key TEXT PRIMARY KEY,
			data_set TEXT NOT NULL,
			config BLOB NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_charts_data_set ON visualize_charts(data_set);
	`)
	if err != nil {
		return fmt.Errorf("failed to create visualize_charts table: %w", err)
	}
	return nil
}

func (s *SQLiteChartStore) Save(ctx context.Context, chart chartconfig.SavedChart) (string, error) {
	raw, err := json.Marshal(chart)
	if err != nil {
		return "", fmt.Errorf("error while encoding chart: %w", err)
	}
	key := NewChartID()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO visualize_charts (key, data_set, config, created_at) VALUES (?, ?, ?, ?)",
		key, chart.DataSet, raw, time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("error while saving chart: %w", err)
	}
	return key, nil
}

func (s *SQLiteChartStore) Fetch(ctx context.Context, key string) (*chartconfig.SavedChart, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, "SELECT config FROM visualize_charts WHERE key = ?", key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("chart %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var chart chartconfig.SavedChart
	if err := json.Unmarshal(raw, &chart); err != nil {
		return nil, fmt.Errorf("chart %s: %w", key, err)
	}
	return &chart, nil
}

// CountByDataset returns how many charts were published for each dataset.
func (s *SQLiteChartStore) CountByDataset(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT data_set, COUNT(*) FROM visualize_charts GROUP BY data_set")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var ds string
		var n int
		if err := rows.Scan(&ds, &n); err != nil {
			return nil, err
		}
		out[ds] = n
	}
	return out, rows.Err()
}
