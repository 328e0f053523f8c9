// Package sqlitestore implements formcache.Store on SQLite.
//
// It expects an *sql.DB opened with a SQLite driver, for example:
//
//	import _ "modernc.org/sqlite"
//
//	db, err := sql.Open("sqlite", "file:forms.db")
//
// Expired rows are filtered on read and can be removed with PurgeExpired.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-jsonform/pkg/formcache"
)

// Store is a formcache.Store backed by a SQLite table.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ formcache.Store = (*Store)(nil)

// Option customises a Store.
type Option func(*Store)

// WithClock injects the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New initialises the schema in db and returns a Store.
func New(ctx context.Context, db *sql.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, errors.New("sqlitestore: db is required")
	}
	s := &Store{db: db, now: time.Now}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("sqlitestore: init schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS jsonform_cache (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			expires_at INTEGER NOT NULL
		);`,
	); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS jsonform_cache_expires_at ON jsonform_cache (expires_at);`)
	return err
}

// Get returns the value under key unless its row has expired. Expired rows
// read as formcache.ErrNotFound until PurgeExpired removes them.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM jsonform_cache WHERE key = ? AND expires_at > ?`,
		key, s.now().UnixNano(),
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, formcache.ErrNotFound
		}
		return nil, err
	}
	return value, nil
}

// Set upserts value with an expiry of now plus ttl.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jsonform_cache (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, s.now().Add(ttl).UnixNano(),
	)
	return err
}

// Delete removes the row for key.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM jsonform_cache WHERE key = ?`, key)
	return err
}

// PurgeExpired deletes expired rows and returns how many were removed.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM jsonform_cache WHERE expires_at <= ?`, s.now().UnixNano())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
