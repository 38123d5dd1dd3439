package sqlite

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pkg/errors"

	"github.com/quipper/poc/gradebook/pkg/repositories/kv"
)

type SQLiteRepo struct{ db *sql.DB }

// Ensure interface compliance
var _ kv.Repository = (*SQLiteRepo)(nil)

func NewSQLiteRepo(path string) (*SQLiteRepo, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite %s", path)
	}
	// one writer; the roster is rewritten as a whole on every mutation
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	// Pragmas safe for simple single-process usage
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "set journal mode")
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "init schema")
	}
	return &SQLiteRepo{db: db}, nil
}

func (s *SQLiteRepo) Disconnect() { _ = s.db.Close() }

func (s *SQLiteRepo) Health(ctx context.Context) error { return s.db.PingContext(ctx) }

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS kv_entries (
	  key TEXT PRIMARY KEY,
	  value TEXT NOT NULL,
	  updated_at TIMESTAMP NOT NULL
	);
	`)
	return err
}

func (s *SQLiteRepo) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, kv.ErrEmptyKey
	}
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "get %s", key)
	}
	return value, true, nil
}

func (s *SQLiteRepo) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return kv.ErrEmptyKey
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO kv_entries (key, value, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(key)
	DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, now)
	return errors.Wrapf(err, "set %s", key)
}
