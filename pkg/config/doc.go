// Package config defines the configuration structures for the Arbiter
// enforcement gateway and provides loading, defaulting, and validation.
//
// Configuration is read from a YAML file, defaults are applied for any
// omitted field, and environment variables with the ARBITER_ prefix
// override file values. Signing key material is never written to the
// configuration file in production deployments; set ARBITER_SIGNING_KEY
// instead.
package config
