package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration
// field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. It implements the error interface and provides access to
// all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a
// ValidationError if any validation rules fail. It returns nil if the
// configuration is valid. All validation errors are collected and returned
// together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateNonce(&cfg.Nonce)...)
	errs = append(errs, validateLedger(&cfg.Ledger)...)
	errs = append(errs, validateSigning(&cfg.Signing)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(s *ServerConfig) []FieldError {
	var errs []FieldError

	if s.ListenAddress == "" {
		errs = append(errs, FieldError{"server.listen_address", "must not be empty"})
	} else if _, _, err := net.SplitHostPort(s.ListenAddress); err != nil {
		errs = append(errs, FieldError{"server.listen_address", fmt.Sprintf("invalid host:port address: %v", err)})
	}
	if s.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{"server.max_header_bytes", "must not be negative"})
	}

	return errs
}

func validateNonce(n *NonceConfig) []FieldError {
	var errs []FieldError

	switch n.Mode {
	case "require", "auto":
	default:
		errs = append(errs, FieldError{"nonce.mode", fmt.Sprintf("must be %q or %q, got %q", "require", "auto", n.Mode)})
	}

	switch n.Backend {
	case "memory":
	case "sqlite":
		if n.SQLitePath == "" {
			errs = append(errs, FieldError{"nonce.sqlite_path", "must not be empty when backend is sqlite"})
		}
	default:
		errs = append(errs, FieldError{"nonce.backend", fmt.Sprintf("must be %q or %q, got %q", "memory", "sqlite", n.Backend)})
	}

	if n.TTL <= 0 {
		errs = append(errs, FieldError{"nonce.ttl", "must be positive"})
	}
	if n.RetainConsumed < 0 {
		errs = append(errs, FieldError{"nonce.retain_consumed", "must not be negative"})
	}
	if n.SweepEnabled {
		if _, err := cron.ParseStandard(n.SweepSchedule); err != nil {
			errs = append(errs, FieldError{"nonce.sweep_schedule", fmt.Sprintf("invalid cron expression: %v", err)})
		}
	}

	return errs
}

func validateLedger(l *LedgerConfig) []FieldError {
	var errs []FieldError

	switch l.Backend {
	case "memory":
	case "sqlite":
		if l.SQLitePath == "" {
			errs = append(errs, FieldError{"ledger.sqlite_path", "must not be empty when backend is sqlite"})
		}
		if l.SQLiteMaxOpenConns <= 0 {
			errs = append(errs, FieldError{"ledger.sqlite_max_open_conns", "must be positive"})
		}
		if l.SQLiteMaxIdleConns < 0 {
			errs = append(errs, FieldError{"ledger.sqlite_max_idle_conns", "must not be negative"})
		}
	default:
		errs = append(errs, FieldError{"ledger.backend", fmt.Sprintf("must be %q or %q, got %q", "memory", "sqlite", l.Backend)})
	}

	return errs
}

func validateSigning(s *SigningConfig) []FieldError {
	var errs []FieldError

	if s.ActiveKeyID == "" {
		errs = append(errs, FieldError{"signing.active_key_id", "must not be empty"})
	}
	if s.Secret == "" {
		errs = append(errs, FieldError{"signing.secret", "must be set (use the ARBITER_SIGNING_KEY environment variable)"})
	}

	seen := map[string]bool{s.ActiveKeyID: true}
	for i, k := range s.RetiredKeys {
		field := fmt.Sprintf("signing.retired_keys[%d]", i)
		if k.ID == "" {
			errs = append(errs, FieldError{field + ".id", "must not be empty"})
			continue
		}
		if seen[k.ID] {
			errs = append(errs, FieldError{field + ".id", fmt.Sprintf("duplicate key id %q", k.ID)})
		}
		seen[k.ID] = true
		if k.Secret == "" {
			errs = append(errs, FieldError{field + ".secret", "must not be empty"})
		}
	}

	return errs
}

func validateTelemetry(t *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch t.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{"telemetry.logging.level", fmt.Sprintf("must be one of debug, info, warn, error; got %q", t.Logging.Level)})
	}

	switch t.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{"telemetry.logging.format", fmt.Sprintf("must be %q or %q, got %q", "json", "text", t.Logging.Format)})
	}

	if t.Metrics.Enabled && !strings.HasPrefix(t.Metrics.Path, "/") {
		errs = append(errs, FieldError{"telemetry.metrics.path", "must start with /"})
	}

	return errs
}
