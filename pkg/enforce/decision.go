package enforce

import "time"

// Kind is the governance verdict produced by rule evaluation.
type Kind string

const (
	// KindAllow permits the gated action to proceed.
	KindAllow Kind = "ALLOW"

	// KindSoftRedirect permits the action but signals the caller to steer
	// the user toward a safer or better-supported path.
	KindSoftRedirect Kind = "SOFT_REDIRECT"

	// KindBlock refuses the action outright.
	KindBlock Kind = "BLOCK"

	// KindEscalate defers the action to human or secondary review. It marks
	// uncertainty, not invalidity.
	KindEscalate Kind = "ESCALATE"
)

// Terminal reports whether the kind stops the gated action. SOFT_REDIRECT
// counts as proceeding; ESCALATE and BLOCK do not.
func (k Kind) Terminal() bool {
	return k == KindBlock || k == KindEscalate
}

// Source identifies the policy category a rule belongs to. Sources have a
// fixed evaluation priority; see SourcePriority.
type Source string

const (
	SourceConstitutional Source = "constitutional"
	SourceJurisdictional Source = "jurisdictional"
	SourceSafety         Source = "safety"
	SourceCompliance     Source = "compliance"
	SourceGeneral        Source = "general"
)

// SourcePriority returns the evaluation priority for a policy source.
// Lower values evaluate first. Unknown sources sort last so a mistyped
// source in a rule file can never preempt the built-in ordering.
func SourcePriority(s Source) int {
	switch s {
	case SourceConstitutional:
		return 0
	case SourceJurisdictional:
		return 1
	case SourceSafety:
		return 2
	case SourceCompliance:
		return 3
	case SourceGeneral:
		return 4
	default:
		return 5
	}
}

// Reserved rule ids. These never appear in a loaded rule set; the engine
// synthesizes them for its fail-safe paths.
const (
	// RuleIDDefaultBlock is returned when no rule matches the context.
	RuleIDDefaultBlock = "DEFAULT-BLOCK"

	// RuleIDEngineFailsafe is returned when the rule set is unavailable or
	// a predicate fails to evaluate.
	RuleIDEngineFailsafe = "ENGINE-FAILSAFE"

	// RuleIDLedgerUnavailable is used by the gateway when a decision could
	// not be recorded and the pipeline degrades to refusal.
	RuleIDLedgerUnavailable = "LEDGER-UNAVAILABLE"
)

// RequestContext describes the action being gated. It is owned by the
// caller; the engine only reads it. String fields left empty are treated
// as absent by predicates.
type RequestContext struct {
	// CaseID identifies the case or session the action belongs to.
	CaseID string `json:"case_id"`

	// Country is the country the request originated from.
	Country string `json:"country"`

	// Domain is the subject-matter domain (e.g. "constitutional",
	// "criminal", "general").
	Domain string `json:"domain"`

	// ProcedureID names the procedure the action relates to, or "unknown"
	// when the upstream resolver could not identify one.
	ProcedureID string `json:"procedure_id"`

	// Confidence is the upstream confidence score in [0, 1].
	Confidence float64 `json:"confidence"`

	// Signal is the free-text signal the action carries (the user request,
	// feedback text, or similar). Safety predicates scan it.
	Signal string `json:"signal"`

	// Jurisdiction is the jurisdiction the request was routed to.
	Jurisdiction string `json:"jurisdiction"`

	// ActionType distinguishes what is being gated: "query",
	// "learning_update", "routing", and so on.
	ActionType string `json:"action_type"`

	// Attributes carries caller-defined fields that rule predicates may
	// reference by name.
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Field resolves a named context field for predicate evaluation. The core
// fields are addressable by their JSON names; anything else falls through
// to Attributes. The second return reports whether the field is known.
func (rc *RequestContext) Field(name string) (string, bool) {
	switch name {
	case "case_id":
		return rc.CaseID, true
	case "country":
		return rc.Country, true
	case "domain":
		return rc.Domain, true
	case "procedure_id":
		return rc.ProcedureID, true
	case "signal":
		return rc.Signal, true
	case "jurisdiction":
		return rc.Jurisdiction, true
	case "action_type":
		return rc.ActionType, true
	}
	if rc.Attributes != nil {
		if v, ok := rc.Attributes[name]; ok {
			return v, true
		}
	}
	return "", false
}

// Decision is the engine's verdict on a request context. It is created
// exactly once per evaluation and must not be mutated after the pipeline
// stamps TraceID and Timestamp.
type Decision struct {
	// Kind is the governance verdict.
	Kind Kind `json:"decision"`

	// RuleID identifies the rule that produced the verdict, or one of the
	// reserved ids for the fail-safe paths.
	RuleID string `json:"rule_id"`

	// Source is the policy category of the matched rule.
	Source Source `json:"policy_source"`

	// Reasoning is the human-readable explanation for the verdict.
	Reasoning string `json:"reasoning"`

	// TraceID ties the decision to its ledger trace. Injected by the
	// pipeline, not computed by the engine.
	TraceID string `json:"trace_id,omitempty"`

	// Timestamp is when the decision was made. Injected by the pipeline.
	Timestamp time.Time `json:"timestamp,omitempty"`

	// Metadata carries evaluation facts downstream consumers may use
	// (confidence, domain, action type). Never read back by the engine.
	Metadata map[string]any `json:"metadata,omitempty"`
}
