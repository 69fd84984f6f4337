package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const defaultRecentLimit = 50

// Store is the sqlite-backed post store. A single connection keeps all
// mutations serialized; counter increments are single UPDATE statements so
// concurrent callers cannot lose updates.
type Store struct {
	db *sql.DB

	maxContent int
	now        func() time.Time
}

type Options struct {
	// MaxContentChars bounds wuphf content length (runes). 0 means 280.
	MaxContentChars int
}

func Open(path string, opts Options) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	maxContent := opts.MaxContentChars
	if maxContent <= 0 {
		maxContent = 280
	}
	return &Store{
		db:         db,
		maxContent: maxContent,
		now:        time.Now,
	}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func initPragmas(db *sql.DB) error {
	// WAL keeps readers off the writer's back; NORMAL is a fine durability
	// tradeoff for a demo store.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS wuphfs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			content TEXT NOT NULL,
			author_name TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			likes INTEGER NOT NULL DEFAULT 0,
			rewuphfs INTEGER NOT NULL DEFAULT 0,
			channels TEXT NOT NULL DEFAULT '',
			urgent INTEGER NOT NULL DEFAULT 0,
			printed INTEGER NOT NULL DEFAULT 0,
			image_url TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_wuphfs_recent ON wuphfs(created_at DESC, id DESC);`,
		`CREATE TABLE IF NOT EXISTS replies (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			wuphf_id INTEGER NOT NULL REFERENCES wuphfs(id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			author_name TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_replies_wuphf ON replies(wuphf_id);`,
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL,
			phone_number TEXT NOT NULL,
			facebook_id TEXT NOT NULL DEFAULT '',
			twitter_handle TEXT NOT NULL DEFAULT '',
			printer_notifications INTEGER NOT NULL DEFAULT 1,
			sound_notifications INTEGER NOT NULL DEFAULT 1,
			email_notifications INTEGER NOT NULL DEFAULT 1,
			sms_notifications INTEGER NOT NULL DEFAULT 1,
			joined_at INTEGER NOT NULL,
			wuphfs_sent INTEGER NOT NULL DEFAULT 0,
			wuphfs_received INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS channels (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL,
			icon_class TEXT NOT NULL DEFAULT '',
			active INTEGER NOT NULL DEFAULT 1
		);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}

// CountWuphfs reports the number of stored posts (metrics).
func (s *Store) CountWuphfs(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM wuphfs`).Scan(&n)
	return n, err
}
