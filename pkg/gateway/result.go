package gateway

import (
	"arbiter-hq/arbiter/pkg/enforce"
	"arbiter-hq/arbiter/pkg/nonce"
	"arbiter-hq/arbiter/pkg/provenance"
)

// Status distinguishes a result that carries a governance decision from
// one rejected before evaluation.
type Status string

const (
	// StatusDecided means the pipeline ran to completion and the result
	// carries a decision (of any kind, including BLOCK).
	StatusDecided Status = "decided"

	// StatusRejected means the request was refused before evaluation
	// (replay protection); no decision was made.
	StatusRejected Status = "rejected"
)

// Reason codes summarize the outcome for operators and callers.
const (
	ReasonAllowed         = "allowed"
	ReasonSoftRedirect    = "soft_redirect"
	ReasonPolicyViolation = "policy_violation"
	ReasonUncertainty     = "uncertainty"
	ReasonReplay          = "replay_rejected"
	ReasonNonceRequired   = "nonce_required"
	ReasonInternalFault   = "internal_fault"
)

// Request is one gated action submitted to the pipeline.
type Request struct {
	// TraceID is the caller-generated, opaque identifier tying the
	// decision to its ledger trace. Required.
	TraceID string `json:"trace_id"`

	// NonceToken is the single-use token for replay protection. May be
	// empty when the gateway runs in auto-issue mode.
	NonceToken string `json:"nonce,omitempty"`

	// Context describes the action being gated.
	Context *enforce.RequestContext `json:"context"`
}

// Result is the structured outcome of the pipeline. Exactly one of the
// decision path (Status "decided", Decision and usually Proof set) or the
// rejection path (Status "rejected", RejectionCode set) applies.
type Result struct {
	// Status reports which path the request took.
	Status Status `json:"status"`

	// ReasonCode summarizes the outcome (allowed, policy_violation,
	// uncertainty, replay_rejected, internal_fault, ...).
	ReasonCode string `json:"reason_code"`

	// Decision is the signed governance verdict. Nil when rejected.
	Decision *enforce.Decision `json:"decision,omitempty"`

	// Proof lets the caller re-verify the recorded decision without
	// querying the ledger. Nil when the ledger was unavailable.
	Proof *provenance.Proof `json:"proof,omitempty"`

	// RejectionCode is the nonce failure code for rejected requests.
	RejectionCode nonce.Code `json:"rejection_code,omitempty"`
}

// Proceed reports whether the caller may carry out the gated action.
func (r *Result) Proceed() bool {
	return r.Status == StatusDecided && r.Decision != nil && !r.Decision.Kind.Terminal()
}

// reasonFor maps a decision to its reason code.
func reasonFor(d *enforce.Decision) string {
	if d.RuleID == enforce.RuleIDEngineFailsafe || d.RuleID == enforce.RuleIDLedgerUnavailable {
		return ReasonInternalFault
	}
	switch d.Kind {
	case enforce.KindAllow:
		return ReasonAllowed
	case enforce.KindSoftRedirect:
		return ReasonSoftRedirect
	case enforce.KindEscalate:
		return ReasonUncertainty
	default:
		return ReasonPolicyViolation
	}
}
