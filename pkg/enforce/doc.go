// Package enforce implements the deterministic enforcement decision engine.
//
// The engine evaluates an immutable, priority-ordered rule set against a
// caller-supplied request context and produces exactly one governance
// decision (ALLOW, SOFT_REDIRECT, BLOCK, or ESCALATE). Rules are pure data:
// each carries a small declarative predicate that is interpreted at
// evaluation time, so the rule set can be loaded from configuration without
// embedding executable code.
//
// Evaluation is total and fail-safe. The first matching rule wins; if no
// rule matches, the engine returns a BLOCK decision with the reserved rule
// id DEFAULT-BLOCK, and if rule evaluation itself fails the engine returns
// a BLOCK decision with the reserved rule id ENGINE-FAILSAFE. No input or
// internal fault can cause the engine to allow an action by accident, and
// no error escapes Evaluate as an unstructured failure.
package enforce
