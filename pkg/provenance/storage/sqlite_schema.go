package storage

// SchemaVersion is the current ledger database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the ledger schema. The
// events table has no UPDATE or DELETE path anywhere in this package; the
// composite primary key makes overwriting a chain slot impossible.
const Schema = `
-- Signed ledger events, one row per chain link
CREATE TABLE IF NOT EXISTS ledger_events (
    trace_id TEXT NOT NULL,
    sequence_index INTEGER NOT NULL,
    timestamp TEXT NOT NULL,
    event_type TEXT NOT NULL,
    payload TEXT NOT NULL,
    event_hash TEXT NOT NULL,
    previous_event_hash TEXT NOT NULL,
    signature TEXT NOT NULL,
    signing_key_id TEXT NOT NULL,
    algorithm TEXT NOT NULL,

    PRIMARY KEY (trace_id, sequence_index)
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ledger_events_hash ON ledger_events(event_hash);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
