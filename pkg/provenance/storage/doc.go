// Package storage provides persistence backends for the hash-chain
// ledger: an in-memory store for tests and development, and a SQLite
// store for durable deployments. Both are append-only per trace; neither
// supports editing or deleting an event.
package storage
