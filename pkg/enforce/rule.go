package enforce

import (
	"fmt"
	"sort"
)

// Rule pairs a predicate with the decision it produces. Rules are
// immutable once loaded into a RuleSet.
type Rule struct {
	// ID uniquely identifies the rule (e.g. "CONST-001").
	ID string `yaml:"id" json:"id"`

	// Source is the policy category, which fixes evaluation priority.
	Source Source `yaml:"source" json:"source"`

	// Decision is the verdict this rule yields when its predicate matches.
	Decision Kind `yaml:"decision" json:"decision"`

	// Reasoning is the human-readable explanation attached to decisions
	// produced by this rule.
	Reasoning string `yaml:"reasoning" json:"reasoning"`

	// Predicate is the condition over the request context.
	Predicate Predicate `yaml:"predicate" json:"predicate"`
}

// Validate checks the rule is complete and its predicate well-formed.
func (r *Rule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rule missing id")
	}
	if r.ID == RuleIDDefaultBlock || r.ID == RuleIDEngineFailsafe || r.ID == RuleIDLedgerUnavailable {
		return fmt.Errorf("rule id %q is reserved", r.ID)
	}
	switch r.Decision {
	case KindAllow, KindSoftRedirect, KindBlock, KindEscalate:
	default:
		return fmt.Errorf("rule %q: invalid decision %q", r.ID, r.Decision)
	}
	switch r.Source {
	case SourceConstitutional, SourceJurisdictional, SourceSafety, SourceCompliance, SourceGeneral:
	default:
		return fmt.Errorf("rule %q: invalid policy source %q", r.ID, r.Source)
	}
	if err := r.Predicate.Validate(); err != nil {
		return fmt.Errorf("rule %q: %w", r.ID, err)
	}
	return nil
}

// RuleSet is an ordered, immutable collection of rules. Construction sorts
// rules by source priority and preserves declaration order within a
// source, so evaluation order is fixed regardless of input order. A
// RuleSet is safe for unsynchronized concurrent reads after NewRuleSet
// returns.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet validates, orders, and seals a rule collection. Duplicate
// rule ids are rejected.
func NewRuleSet(rules []Rule) (*RuleSet, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("rule set is empty")
	}

	seen := make(map[string]struct{}, len(rules))
	for i := range rules {
		if err := rules[i].Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[rules[i].ID]; dup {
			return nil, fmt.Errorf("duplicate rule id %q", rules[i].ID)
		}
		seen[rules[i].ID] = struct{}{}
	}

	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return SourcePriority(ordered[i].Source) < SourcePriority(ordered[j].Source)
	})

	return &RuleSet{rules: ordered}, nil
}

// Rules returns the rules in evaluation order. The returned slice is a
// copy; callers cannot mutate the set through it.
func (rs *RuleSet) Rules() []Rule {
	out := make([]Rule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// Len returns the number of rules in the set.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// DefaultRules returns the compiled-in rule inventory. It mirrors the
// production policy surface: constitutional confidence gating,
// jurisdiction boundary enforcement, safety keyword blocking, procedure
// integrity checks, and general confidence thresholds.
func DefaultRules() []Rule {
	below := func(v float64) *float64 { return &v }
	atLeast := func(v float64) *float64 { return &v }

	return []Rule{
		{
			ID:        "CONST-001",
			Source:    SourceConstitutional,
			Decision:  KindEscalate,
			Reasoning: "constitutional matters require high confidence; below-threshold answers escalate to review",
			Predicate: Predicate{All: []Predicate{
				{Field: "domain", In: []string{"constitutional", "fundamental_rights", "directive_principles"}},
				{ConfidenceBelow: below(0.8)},
			}},
		},
		{
			ID:        "JURIS-001",
			Source:    SourceJurisdictional,
			Decision:  KindBlock,
			Reasoning: "request was routed to a jurisdiction that does not match its country of origin",
			Predicate: Predicate{Field: "country", DiffersFrom: "jurisdiction"},
		},
		{
			ID:        "SAFETY-001",
			Source:    SourceSafety,
			Decision:  KindBlock,
			Reasoning: "request signal matches a pattern that attempts to subvert governance controls",
			Predicate: Predicate{SignalContainsAny: []string{
				"ignore all rules", "disregard", "bypass", "override", "circumvent",
			}},
		},
		{
			ID:        "PROC-001",
			Source:    SourceCompliance,
			Decision:  KindEscalate,
			Reasoning: "the procedure could not be identified; escalating rather than guessing",
			Predicate: Predicate{Field: "procedure_id", Equals: "unknown"},
		},
		{
			ID:        "PROC-002",
			Source:    SourceCompliance,
			Decision:  KindEscalate,
			Reasoning: "appeal procedures require heightened confidence before proceeding",
			Predicate: Predicate{All: []Predicate{
				{Field: "procedure_id", Contains: "appeal"},
				{ConfidenceBelow: below(0.75)},
			}},
		},
		{
			ID:        "CONF-003",
			Source:    SourceGeneral,
			Decision:  KindEscalate,
			Reasoning: "high-stakes domain with insufficient confidence; escalating to review",
			Predicate: Predicate{All: []Predicate{
				{Field: "domain", In: []string{"criminal", "property"}},
				{ConfidenceBelow: below(0.75)},
			}},
		},
		{
			ID:        "CONF-002",
			Source:    SourceGeneral,
			Decision:  KindSoftRedirect,
			Reasoning: "confidence is below the general threshold; redirecting to a safer path",
			Predicate: Predicate{ConfidenceBelow: below(0.5)},
		},
		{
			ID:        "CONF-001",
			Source:    SourceGeneral,
			Decision:  KindAllow,
			Reasoning: "confidence meets the general threshold and no restrictive rule matched",
			Predicate: Predicate{ConfidenceAtLeast: atLeast(0.5)},
		},
	}
}
