// Arbiter is a policy-gated enforcement decision engine with a
// cryptographic provenance chain.
//
// Every gated action is evaluated against an ordered rule set to produce
// an ALLOW, SOFT_REDIRECT, BLOCK, or ESCALATE decision. Each decision is
// HMAC-signed and appended to a per-trace hash chain, so the full lineage
// of any trace can be re-verified offline. Single-use nonces protect the
// decision endpoint against replay.
//
// Usage:
//
//	# Start the server with default configuration
//	arbiter run
//
//	# Start with a custom configuration file
//	arbiter run --config /etc/arbiter/config.yaml
//
//	# Validate a configuration file
//	arbiter validate --config config.yaml
//
//	# Lint a rules file
//	arbiter rules lint --file rules.yaml
//
//	# Verify a recorded trace
//	arbiter verify --trace-id case-123
package main

func main() {
	Execute()
}
