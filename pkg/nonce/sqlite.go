package nonce

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// sqliteSchema creates the nonce table. Consumption is an UPDATE guarded
// by the row's consumed flag, so SQLite's row-level atomicity gives
// exactly-once semantics without an application lock.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS nonces (
    token TEXT PRIMARY KEY,
    issued_at TEXT NOT NULL,
    expires_at TEXT NOT NULL,
    consumed INTEGER NOT NULL DEFAULT 0,
    consumed_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_nonces_expires_at ON nonces(expires_at);
`

// SQLiteStore implements Store using SQLite, so replay protection
// survives process restarts.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a SQLite-backed nonce store at the given path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, NewStoreError("sqlite", "open", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, NewStoreError("sqlite", "enable_wal", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, NewStoreError("sqlite", "create_schema", err)
	}

	logger := slog.Default().With("component", "nonce.store.sqlite")
	logger.Info("SQLite nonce store initialized", "path", path)

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Insert records a freshly issued nonce.
func (s *SQLiteStore) Insert(ctx context.Context, n *Nonce) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO nonces (token, issued_at, expires_at, consumed)
		VALUES (?, ?, ?, 0)`,
		n.Token,
		n.IssuedAt.UTC().Format(time.RFC3339Nano),
		n.ExpiresAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return NewStoreError("sqlite", "insert", err)
	}
	return nil
}

// Consume atomically marks the token consumed. The UPDATE succeeds for
// exactly one of any set of racing consumers; losers fall through to the
// diagnostic SELECT to learn why.
func (s *SQLiteStore) Consume(ctx context.Context, token string, now time.Time) error {
	nowStr := now.UTC().Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(ctx, `
		UPDATE nonces
		SET consumed = 1, consumed_at = ?
		WHERE token = ? AND consumed = 0 AND expires_at > ?`,
		nowStr, token, nowStr,
	)
	if err != nil {
		return NewStoreError("sqlite", "consume", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return NewStoreError("sqlite", "consume_rows", err)
	}
	if affected == 1 {
		return nil
	}

	// The guarded update missed; classify the failure.
	var consumed int
	var expiresAt string
	err = s.db.QueryRowContext(ctx,
		`SELECT consumed, expires_at FROM nonces WHERE token = ?`, token,
	).Scan(&consumed, &expiresAt)
	if err == sql.ErrNoRows {
		return NewValidationError(CodeUnknown)
	}
	if err != nil {
		return NewStoreError("sqlite", "consume_lookup", err)
	}

	if consumed != 0 {
		return NewValidationError(CodeAlreadyConsumed)
	}
	return NewValidationError(CodeExpired)
}

// Sweep removes expired unconsumed tokens and consumed tokens past the
// retention window.
func (s *SQLiteStore) Sweep(ctx context.Context, now time.Time, retainConsumed time.Duration) (int64, error) {
	nowStr := now.UTC().Format(time.RFC3339Nano)
	consumedCutoff := now.Add(-retainConsumed).UTC().Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM nonces
		WHERE (consumed = 0 AND expires_at <= ?)
		   OR (consumed = 1 AND consumed_at <= ?)`,
		nowStr, consumedCutoff,
	)
	if err != nil {
		return 0, NewStoreError("sqlite", "sweep", err)
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count swept nonces: %w", err)
	}
	return removed, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
