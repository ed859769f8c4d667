package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"arbiter-hq/arbiter/pkg/provenance"
)

// SQLiteConfig contains configuration for the SQLite ledger backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/ledger.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore implements provenance.Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite ledger backend. It initializes the
// schema and enables WAL mode if configured.
func NewSQLiteStore(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "provenance.storage.sqlite")

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, provenance.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStore{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite ledger storage initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

// initialize sets up the database schema and enables WAL mode.
func (s *SQLiteStore) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return provenance.NewStorageError("sqlite", "enable_wal", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return provenance.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return provenance.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return provenance.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return provenance.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return provenance.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// Append persists a signed event. The composite primary key turns any
// attempt to reuse a (trace_id, sequence_index) slot into a constraint
// violation, reported as DuplicateEventError.
func (s *SQLiteStore) Append(ctx context.Context, event *provenance.SignedEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ledger_events (
			trace_id, sequence_index, timestamp, event_type, payload,
			event_hash, previous_event_hash, signature, signing_key_id, algorithm
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.TraceID,
		event.Sequence,
		event.Timestamp.UTC().Format(time.RFC3339Nano),
		string(event.Type),
		string(event.Payload),
		event.EventHash,
		event.PrevEventHash,
		event.Signature,
		event.KeyID,
		event.Algorithm,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &provenance.DuplicateEventError{TraceID: event.TraceID, Sequence: event.Sequence}
		}
		return provenance.NewStorageError("sqlite", "append", err)
	}
	return nil
}

// Tail returns the last event of a trace, or nil for an empty trace.
func (s *SQLiteStore) Tail(ctx context.Context, traceID string) (*provenance.SignedEvent, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT trace_id, sequence_index, timestamp, event_type, payload,
		       event_hash, previous_event_hash, signature, signing_key_id, algorithm
		FROM ledger_events
		WHERE trace_id = ?
		ORDER BY sequence_index DESC
		LIMIT 1`, traceID)

	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, provenance.NewStorageError("sqlite", "tail", err)
	}
	return event, nil
}

// Read returns all events of a trace in sequence order.
func (s *SQLiteStore) Read(ctx context.Context, traceID string) ([]*provenance.SignedEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT trace_id, sequence_index, timestamp, event_type, payload,
		       event_hash, previous_event_hash, signature, signing_key_id, algorithm
		FROM ledger_events
		WHERE trace_id = ?
		ORDER BY sequence_index ASC`, traceID)
	if err != nil {
		return nil, provenance.NewStorageError("sqlite", "read", err)
	}
	defer rows.Close()

	events := make([]*provenance.SignedEvent, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, provenance.NewStorageError("sqlite", "read_scan", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, provenance.NewStorageError("sqlite", "read_rows", err)
	}

	return events, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEvent reads one ledger event row.
func scanEvent(row rowScanner) (*provenance.SignedEvent, error) {
	var (
		event     provenance.SignedEvent
		timestamp string
		eventType string
		payload   string
	)

	err := row.Scan(
		&event.TraceID,
		&event.Sequence,
		&timestamp,
		&eventType,
		&payload,
		&event.EventHash,
		&event.PrevEventHash,
		&event.Signature,
		&event.KeyID,
		&event.Algorithm,
	)
	if err != nil {
		return nil, err
	}

	ts, err := time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse event timestamp %q: %w", timestamp, err)
	}

	event.Timestamp = ts
	event.Type = provenance.EventType(eventType)
	event.Payload = json.RawMessage(payload)
	return &event, nil
}

// isUniqueViolation reports whether err is a SQLite primary-key
// constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
