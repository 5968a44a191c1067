package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jimezsa/jobfinder/internal/models"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS listings (
	url          TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	company      TEXT NOT NULL,
	location     TEXT NOT NULL,
	degree       TEXT NOT NULL,
	experience   TEXT NOT NULL,
	retrieved_at TEXT NOT NULL
);`

// SQLiteSink mirrors merged records into a SQLite database keyed by URL.
// Like the CSV store, the first copy of a URL wins.
type SQLiteSink struct {
	db *sql.DB
}

func OpenSQLite(ctx context.Context, path string) (*SQLiteSink, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

// Save inserts records not yet stored and returns how many were added.
func (s *SQLiteSink) Save(ctx context.Context, records []models.Record) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT OR IGNORE INTO listings (url, title, company, location, degree, experience, retrieved_at)
VALUES (?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	added := 0
	for _, r := range records {
		key, ok := Key(r)
		if !ok {
			continue
		}
		res, err := stmt.ExecContext(ctx, key, r.Title, r.Company, r.Location, r.Degree, r.Experience, r.RetrievedAt)
		if err != nil {
			return 0, fmt.Errorf("insert listing: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			added++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}

func (s *SQLiteSink) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings;`).Scan(&n)
	return n, err
}

func (s *SQLiteSink) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
