// Package sqlite is the single-device session backend: durable key-value
// storage with no network and no push delivery, intended for counting without
// a second device. Staleness is bounded only by caller-initiated reads.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bookway/stocktake/internal/domain/models"
	"github.com/bookway/stocktake/internal/session"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
	key          TEXT PRIMARY KEY,
	data         TEXT NOT NULL,
	created_at   INTEGER NOT NULL,
	last_updated INTEGER NOT NULL
);
`

// Store persists session snapshots in a local SQLite database, one row per
// session under the shared stock-session- key prefix.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path. SQLite supports one writer at a
// time, so the pool is capped at a single connection.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect session database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply session schema: %w", err)
	}

	return &Store{db: db}, nil
}

// CreateSession writes the snapshot, overwriting any session already stored
// under the same identifier.
func (s *Store) CreateSession(ctx context.Context, id string, data models.SessionData) error {
	data.LastUpdated = time.Now().UnixMilli()

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", id, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (key, data, created_at, last_updated) VALUES (?, ?, ?, ?)`,
		session.Key(id), string(raw), data.CreatedAt, data.LastUpdated)
	if err != nil {
		return fmt.Errorf("store session %s: %w", id, err)
	}
	return nil
}

// JoinSession loads the stored snapshot.
func (s *Store) JoinSession(ctx context.Context, id string) (models.SessionData, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM sessions WHERE key = ?`, session.Key(id)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SessionData{}, session.ErrSessionNotFound
	}
	if err != nil {
		return models.SessionData{}, fmt.Errorf("load session %s: %w", id, err)
	}

	var data models.SessionData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return models.SessionData{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return data, nil
}

// UpdateSession replaces the stored product list and bumps lastUpdated.
func (s *Store) UpdateSession(ctx context.Context, id string, products []models.ProductRecord) error {
	data, err := s.JoinSession(ctx, id)
	if err != nil {
		return err
	}

	data.Products = products
	data.LastUpdated = time.Now().UnixMilli()

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", id, err)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE sessions SET data = ?, last_updated = ? WHERE key = ?`,
		string(raw), data.LastUpdated, session.Key(id))
	if err != nil {
		return fmt.Errorf("store session %s: %w", id, err)
	}
	return nil
}

// Subscribe is a no-op: the local backend has no push delivery.
func (s *Store) Subscribe(ctx context.Context, id string, fn func([]models.ProductRecord)) (func(), error) {
	return func() {}, nil
}

// CleanupExpired removes sessions created more than maxAge ago and reports
// how many were swept.
func (s *Store) CleanupExpired(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge).UnixMilli()

	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup expired sessions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.db.Close()
}
