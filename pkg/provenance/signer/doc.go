// Package signer produces and verifies the content hash and keyed
// signature of ledger events.
//
// Events are serialized canonically (JSON per RFC 8785) before hashing, so
// the same logical payload hashes identically across processes and
// languages. The signature is an HMAC-SHA256 over exactly the bytes that
// were hashed; an attacker cannot alter the hash inputs without
// invalidating the signature. Signing keys are identified by key id, so
// events signed under a retired key keep verifying after rotation.
package signer
