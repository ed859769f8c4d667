package enforce

import (
	"fmt"
	"log/slog"
	"sync"
)

// Engine evaluates request contexts against an immutable rule set. The
// only mutable state is the rule set pointer, which reload replaces
// atomically; evaluation itself is pure and side-effect free, so an Engine
// is safe for concurrent use by many callers.
type Engine struct {
	mu     sync.RWMutex
	rules  *RuleSet
	logger *slog.Logger
}

// NewEngine creates an engine over the given rule set. A nil rule set is
// accepted; every evaluation then takes the ENGINE-FAILSAFE path until
// Reload installs one. This keeps construction total: a deployment with a
// broken rule file degrades to refusal instead of failing to start.
func NewEngine(rules *RuleSet, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		rules:  rules,
		logger: logger.With("component", "enforce.engine"),
	}
}

// Reload atomically replaces the rule set. In-flight evaluations finish
// against the set they started with.
func (e *Engine) Reload(rules *RuleSet) error {
	if rules == nil || rules.Len() == 0 {
		return fmt.Errorf("refusing to install empty rule set")
	}
	e.mu.Lock()
	e.rules = rules
	e.mu.Unlock()
	e.logger.Info("rule set reloaded", "rule_count", rules.Len())
	return nil
}

// RuleSet returns the currently installed rule set, or nil if none.
func (e *Engine) RuleSet() *RuleSet {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rules
}

// Evaluate produces exactly one decision for the request context. Rules
// run in fixed priority order and the first match wins. Evaluate never
// returns an error: a missing rule set or a predicate failure yields the
// ENGINE-FAILSAFE block, and a context matching no rule yields the
// DEFAULT-BLOCK. TraceID and Timestamp are left unset for the pipeline to
// inject.
func (e *Engine) Evaluate(rc *RequestContext) *Decision {
	if rc == nil {
		return e.failsafe("request context is nil")
	}

	e.mu.RLock()
	rules := e.rules
	e.mu.RUnlock()

	if rules == nil || rules.Len() == 0 {
		return e.failsafe("no rule set loaded")
	}

	for i := range rules.rules {
		rule := &rules.rules[i]
		matched, err := rule.Predicate.Eval(rc)
		if err != nil {
			e.logger.Error("predicate evaluation failed",
				"rule_id", rule.ID,
				"error", err,
			)
			return e.failsafe(fmt.Sprintf("rule %s failed to evaluate", rule.ID))
		}
		if !matched {
			continue
		}

		e.logger.Debug("rule matched",
			"rule_id", rule.ID,
			"decision", rule.Decision,
			"policy_source", rule.Source,
		)
		return &Decision{
			Kind:      rule.Decision,
			RuleID:    rule.ID,
			Source:    rule.Source,
			Reasoning: rule.Reasoning,
			Metadata:  decisionMetadata(rc),
		}
	}

	// Refusal is the default, never silent allow.
	return &Decision{
		Kind:      KindBlock,
		RuleID:    RuleIDDefaultBlock,
		Source:    SourceSafety,
		Reasoning: "no enforcement rule matched the request; refusing by default",
		Metadata:  decisionMetadata(rc),
	}
}

// failsafe builds the BLOCK decision for internal faults. It is a
// first-class decision, signed and recorded like any other.
func (e *Engine) failsafe(reason string) *Decision {
	return &Decision{
		Kind:      KindBlock,
		RuleID:    RuleIDEngineFailsafe,
		Source:    SourceSafety,
		Reasoning: "enforcement engine fault, refusing by default: " + reason,
	}
}

// decisionMetadata captures the evaluation facts downstream consumers
// (routing, learning updates) read alongside the decision kind.
func decisionMetadata(rc *RequestContext) map[string]any {
	return map[string]any{
		"domain":      rc.Domain,
		"confidence":  rc.Confidence,
		"action_type": rc.ActionType,
	}
}
