package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8085"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// Policy defaults
	DefaultPolicyWatch         = false
	DefaultPolicyWatchDebounce = 100 * time.Millisecond

	// Nonce defaults
	DefaultNonceMode           = "require"
	DefaultNonceBackend        = "memory"
	DefaultNonceSQLitePath     = "data/nonces.db"
	DefaultNonceTTL            = 10 * time.Minute
	DefaultNonceRetainConsumed = 20 * time.Minute
	DefaultNonceSweepSchedule  = "*/5 * * * *"
	DefaultNonceSweepEnabled   = true

	// Ledger defaults
	DefaultLedgerBackend           = "sqlite"
	DefaultLedgerSQLitePath        = "data/ledger.db"
	DefaultLedgerSQLiteMaxOpen     = 10
	DefaultLedgerSQLiteMaxIdle     = 5
	DefaultLedgerSQLiteWALMode     = true
	DefaultLedgerSQLiteBusyTimeout = 5 * time.Second

	// Signing defaults
	DefaultSigningActiveKeyID = "primary"

	// Telemetry defaults
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	DefaultMetricsEnabled = true
	DefaultMetricsPath    = "/metrics"
)

// ApplyDefaults fills in default values for any configuration field that
// has its zero value. It modifies the configuration in place.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyPolicyDefaults(&cfg.Policy)
	applyNonceDefaults(&cfg.Nonce)
	applyLedgerDefaults(&cfg.Ledger)
	applySigningDefaults(&cfg.Signing)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyServerDefaults(s *ServerConfig) {
	if s.ListenAddress == "" {
		s.ListenAddress = DefaultListenAddress
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.IdleTimeout == 0 {
		s.IdleTimeout = DefaultIdleTimeout
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = DefaultShutdownTimeout
	}
	if s.MaxHeaderBytes == 0 {
		s.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
}

func applyPolicyDefaults(p *PolicyConfig) {
	if p.WatchDebounce == 0 {
		p.WatchDebounce = DefaultPolicyWatchDebounce
	}
}

func applyNonceDefaults(n *NonceConfig) {
	if n.Mode == "" {
		n.Mode = DefaultNonceMode
	}
	if n.Backend == "" {
		n.Backend = DefaultNonceBackend
	}
	if n.SQLitePath == "" {
		n.SQLitePath = DefaultNonceSQLitePath
	}
	if n.TTL == 0 {
		n.TTL = DefaultNonceTTL
	}
	if n.RetainConsumed == 0 {
		n.RetainConsumed = DefaultNonceRetainConsumed
	}
	if n.SweepSchedule == "" {
		n.SweepSchedule = DefaultNonceSweepSchedule
		// SweepEnabled defaults to true only when the section was left
		// entirely unset; an explicit schedule with sweep_enabled: false
		// is respected.
		n.SweepEnabled = DefaultNonceSweepEnabled
	}
}

func applyLedgerDefaults(l *LedgerConfig) {
	if l.Backend == "" {
		l.Backend = DefaultLedgerBackend
		// WAL defaults on only when the section was left unset; an
		// explicit backend with sqlite_wal_mode: false is respected.
		l.SQLiteWALMode = DefaultLedgerSQLiteWALMode
	}
	if l.SQLitePath == "" {
		l.SQLitePath = DefaultLedgerSQLitePath
	}
	if l.SQLiteMaxOpenConns == 0 {
		l.SQLiteMaxOpenConns = DefaultLedgerSQLiteMaxOpen
	}
	if l.SQLiteMaxIdleConns == 0 {
		l.SQLiteMaxIdleConns = DefaultLedgerSQLiteMaxIdle
	}
	if l.SQLiteBusyTimeout == 0 {
		l.SQLiteBusyTimeout = DefaultLedgerSQLiteBusyTimeout
	}
}

func applySigningDefaults(s *SigningConfig) {
	if s.ActiveKeyID == "" {
		s.ActiveKeyID = DefaultSigningActiveKeyID
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLogLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLogFormat
	}
	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
		t.Metrics.Enabled = DefaultMetricsEnabled
	}
}
