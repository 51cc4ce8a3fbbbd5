// Package history keeps a record of every published schedule.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/solischarge/core/model"
)

// ErrEmpty is returned by Latest when nothing has been recorded.
var ErrEmpty = errors.New("history: no schedules recorded")

// Query filters stored schedules. Zero fields match everything.
type Query struct {
	Device string
	Start  time.Time
	End    time.Time
	Limit  int
}

// SQLiteStore persists schedules to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS schedules (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id TEXT NOT NULL,
        ts INTEGER NOT NULL,
        device TEXT,
        layout TEXT,
        summary TEXT,
        record TEXT
    );
    CREATE INDEX IF NOT EXISTS schedules_ts ON schedules (ts);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the schedule to the database.
func (s *SQLiteStore) Append(ctx context.Context, sch model.Schedule) error {
	b, err := json.Marshal(sch)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO schedules (run_id, ts, device, layout, summary, record) VALUES (?, ?, ?, ?, ?, ?)`,
		sch.RunID, sch.CreatedAt.UnixMilli(), sch.Device, sch.Layout, sch.Summary, string(b))
	return err
}

// Latest returns the most recent schedule.
func (s *SQLiteStore) Latest(ctx context.Context) (model.Schedule, error) {
	out, err := s.Query(ctx, Query{Limit: 1})
	if err != nil {
		return model.Schedule{}, err
	}
	if len(out) == 0 {
		return model.Schedule{}, ErrEmpty
	}
	return out[0], nil
}

// Query returns schedules matching q, newest first.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]model.Schedule, error) {
	var args []any
	query := `SELECT record FROM schedules WHERE 1=1`
	if q.Device != "" {
		query += ` AND device = ?`
		args = append(args, q.Device)
	}
	if !q.Start.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Start.UnixMilli())
	}
	if !q.End.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, q.End.UnixMilli())
	}
	query += ` ORDER BY ts DESC, id DESC`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Schedule
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var sch model.Schedule
		if err := json.Unmarshal([]byte(data), &sch); err != nil {
			return nil, fmt.Errorf("unmarshal schedule: %w", err)
		}
		res = append(res, sch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
