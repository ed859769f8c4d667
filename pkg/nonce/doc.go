// Package nonce issues and validates single-use tokens that prevent
// replay of already-processed requests.
//
// A token is consumable exactly once: concurrent consumption attempts
// serialize per token, so one caller wins and every other receives
// ALREADY_CONSUMED. Tokens expire after a fixed TTL; expired and long-
// consumed tokens are swept on a cron schedule. Two store backends are
// provided, an in-memory sharded map and SQLite for replay protection
// that survives restarts.
package nonce
