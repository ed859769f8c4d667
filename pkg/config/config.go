package config

import "time"

// Config is the root configuration structure for Arbiter. It contains all
// configuration sections for the HTTP server, the policy rule set, replay
// protection, the provenance ledger, event signing, and telemetry.
type Config struct {
	// Server contains HTTP server configuration including listen address
	// and timeouts.
	Server ServerConfig `yaml:"server"`

	// Policy contains configuration for the rule set including the rules
	// file location and watch mode.
	Policy PolicyConfig `yaml:"policy"`

	// Nonce contains configuration for single-use token replay protection.
	Nonce NonceConfig `yaml:"nonce"`

	// Ledger contains configuration for the append-only provenance ledger
	// including backend selection.
	Ledger LedgerConfig `yaml:"ledger"`

	// Signing contains configuration for event signing including the
	// active key and any retired verification keys.
	Signing SigningConfig `yaml:"signing"`

	// Telemetry contains configuration for observability including
	// logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port for the server to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8085").
	// Default: "127.0.0.1:8085"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. A zero or negative value means no timeout.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of
	// the response. A zero or negative value means no timeout.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next
	// request when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown before in-flight requests are abandoned.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// PolicyConfig contains configuration for the enforcement rule set.
type PolicyConfig struct {
	// FilePath is the path to the YAML rules file. When empty, the
	// built-in rule set is used.
	// Default: "" (built-in rules)
	FilePath string `yaml:"file_path"`

	// Watch enables hot-reloading of the rules file on change. Ignored
	// when FilePath is empty.
	// Default: false
	Watch bool `yaml:"watch"`

	// WatchDebounce is the quiet period after a file event before the
	// rules are reloaded, collapsing editor write bursts into one reload.
	// Default: 100ms
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// NonceConfig contains configuration for replay protection.
type NonceConfig struct {
	// Mode controls how requests without a token are handled. "require"
	// rejects them; "auto" issues a token on the caller's behalf.
	// Default: "require"
	Mode string `yaml:"mode"`

	// Backend selects the nonce store implementation.
	// Valid values: "memory", "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLitePath is the path to the SQLite nonce database. Only used when
	// Backend is "sqlite".
	// Default: "data/nonces.db"
	SQLitePath string `yaml:"sqlite_path"`

	// TTL is how long an issued token remains valid.
	// Default: 10m
	TTL time.Duration `yaml:"ttl"`

	// RetainConsumed is how long consumed tokens are kept before the
	// sweeper removes them. Kept tokens let replays be reported as
	// ALREADY_CONSUMED rather than UNKNOWN.
	// Default: 20m
	RetainConsumed time.Duration `yaml:"retain_consumed"`

	// SweepSchedule is the cron expression for the expired-token sweeper.
	// Default: "*/5 * * * *" (every five minutes)
	SweepSchedule string `yaml:"sweep_schedule"`

	// SweepEnabled controls whether the background sweeper runs.
	// Default: true
	SweepEnabled bool `yaml:"sweep_enabled"`
}

// LedgerConfig contains configuration for the provenance ledger.
type LedgerConfig struct {
	// Backend selects the ledger store implementation.
	// Valid values: "memory", "sqlite".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLitePath is the path to the SQLite ledger database. Only used
	// when Backend is "sqlite".
	// Default: "data/ledger.db"
	SQLitePath string `yaml:"sqlite_path"`

	// SQLiteMaxOpenConns is the maximum number of open database
	// connections.
	// Default: 10
	SQLiteMaxOpenConns int `yaml:"sqlite_max_open_conns"`

	// SQLiteMaxIdleConns is the maximum number of idle database
	// connections.
	// Default: 5
	SQLiteMaxIdleConns int `yaml:"sqlite_max_idle_conns"`

	// SQLiteWALMode enables write-ahead logging for better concurrency.
	// Default: true
	SQLiteWALMode bool `yaml:"sqlite_wal_mode"`

	// SQLiteBusyTimeout is how long SQLite waits on a locked database
	// before returning SQLITE_BUSY.
	// Default: 5s
	SQLiteBusyTimeout time.Duration `yaml:"sqlite_busy_timeout"`
}

// SigningConfig contains configuration for event signing.
type SigningConfig struct {
	// ActiveKeyID identifies the key used to sign new events.
	// Default: "primary"
	ActiveKeyID string `yaml:"active_key_id"`

	// Secret is the HMAC secret for the active key. Prefer setting it via
	// the ARBITER_SIGNING_KEY environment variable; a value in the file
	// is honored but discouraged outside development.
	Secret string `yaml:"secret"`

	// RetiredKeys are keys no longer used for signing but still accepted
	// for verifying previously recorded events.
	RetiredKeys []RetiredKey `yaml:"retired_keys"`
}

// RetiredKey is a verification-only signing key.
type RetiredKey struct {
	// ID identifies the key as recorded on events it signed.
	ID string `yaml:"id"`

	// Secret is the key's HMAC secret.
	Secret string `yaml:"secret"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format: "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes the source file and line in log records.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether the /metrics endpoint is served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path the metrics handler is mounted on.
	// Default: "/metrics"
	Path string `yaml:"path"`
}
