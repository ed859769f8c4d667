package enforce

import (
	"fmt"
	"strings"
)

// Predicate is a declarative condition over a RequestContext. Exactly one
// variant must be populated: a combinator (All, Any), a field test (Field
// plus one of Equals, In, Contains, DiffersFrom), a confidence threshold
// (ConfidenceBelow, ConfidenceAtLeast), or a signal keyword scan
// (SignalContainsAny). Predicates are pure data so rule sets stay loadable
// from YAML without embedding code.
type Predicate struct {
	// All matches when every child predicate matches.
	All []Predicate `yaml:"all,omitempty" json:"all,omitempty"`

	// Any matches when at least one child predicate matches.
	Any []Predicate `yaml:"any,omitempty" json:"any,omitempty"`

	// Field names the context field the comparison operators apply to.
	Field string `yaml:"field,omitempty" json:"field,omitempty"`

	// Equals matches when the field equals the value (case-insensitive).
	Equals string `yaml:"equals,omitempty" json:"equals,omitempty"`

	// In matches when the field equals any listed value (case-insensitive).
	In []string `yaml:"in,omitempty" json:"in,omitempty"`

	// Contains matches when the field contains the value as a substring
	// (case-insensitive).
	Contains string `yaml:"contains,omitempty" json:"contains,omitempty"`

	// DiffersFrom names a second context field; the predicate matches when
	// the two field values differ.
	DiffersFrom string `yaml:"differs_from,omitempty" json:"differs_from,omitempty"`

	// ConfidenceBelow matches when the context confidence is strictly
	// below the threshold.
	ConfidenceBelow *float64 `yaml:"confidence_below,omitempty" json:"confidence_below,omitempty"`

	// ConfidenceAtLeast matches when the context confidence is at or above
	// the threshold.
	ConfidenceAtLeast *float64 `yaml:"confidence_at_least,omitempty" json:"confidence_at_least,omitempty"`

	// SignalContainsAny matches when the free-text signal contains any of
	// the listed phrases (case-insensitive).
	SignalContainsAny []string `yaml:"signal_contains_any,omitempty" json:"signal_contains_any,omitempty"`
}

// Eval interprets the predicate against a request context. It returns an
// error for malformed predicates (empty variant, unknown field) so the
// engine can take its fail-safe path instead of silently not matching.
func (p *Predicate) Eval(rc *RequestContext) (bool, error) {
	switch {
	case len(p.All) > 0:
		for i := range p.All {
			ok, err := p.All[i].Eval(rc)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil

	case len(p.Any) > 0:
		for i := range p.Any {
			ok, err := p.Any[i].Eval(rc)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil

	case p.Field != "":
		return p.evalField(rc)

	case p.ConfidenceBelow != nil:
		return rc.Confidence < *p.ConfidenceBelow, nil

	case p.ConfidenceAtLeast != nil:
		return rc.Confidence >= *p.ConfidenceAtLeast, nil

	case len(p.SignalContainsAny) > 0:
		signal := strings.ToLower(rc.Signal)
		for _, phrase := range p.SignalContainsAny {
			if phrase == "" {
				continue
			}
			if strings.Contains(signal, strings.ToLower(phrase)) {
				return true, nil
			}
		}
		return false, nil
	}

	return false, fmt.Errorf("empty predicate")
}

// evalField applies the field comparison operators.
func (p *Predicate) evalField(rc *RequestContext) (bool, error) {
	value, ok := rc.Field(p.Field)
	if !ok {
		return false, fmt.Errorf("unknown context field %q", p.Field)
	}
	value = strings.ToLower(value)

	switch {
	case p.Equals != "":
		return value == strings.ToLower(p.Equals), nil

	case len(p.In) > 0:
		for _, candidate := range p.In {
			if value == strings.ToLower(candidate) {
				return true, nil
			}
		}
		return false, nil

	case p.Contains != "":
		return strings.Contains(value, strings.ToLower(p.Contains)), nil

	case p.DiffersFrom != "":
		other, ok := rc.Field(p.DiffersFrom)
		if !ok {
			return false, fmt.Errorf("unknown context field %q", p.DiffersFrom)
		}
		return value != strings.ToLower(other), nil
	}

	return false, fmt.Errorf("field predicate on %q has no operator", p.Field)
}

// Validate checks the predicate is structurally sound without evaluating
// it. Used by the rule loader so malformed rule files fail at load time,
// not per request.
func (p *Predicate) Validate() error {
	variants := 0
	if len(p.All) > 0 {
		variants++
		for i := range p.All {
			if err := p.All[i].Validate(); err != nil {
				return err
			}
		}
	}
	if len(p.Any) > 0 {
		variants++
		for i := range p.Any {
			if err := p.Any[i].Validate(); err != nil {
				return err
			}
		}
	}
	if p.Field != "" {
		variants++
		operators := 0
		if p.Equals != "" {
			operators++
		}
		if len(p.In) > 0 {
			operators++
		}
		if p.Contains != "" {
			operators++
		}
		if p.DiffersFrom != "" {
			operators++
		}
		if operators != 1 {
			return fmt.Errorf("field predicate on %q needs exactly one operator, has %d", p.Field, operators)
		}
	}
	if p.ConfidenceBelow != nil {
		variants++
	}
	if p.ConfidenceAtLeast != nil {
		variants++
	}
	if len(p.SignalContainsAny) > 0 {
		variants++
	}

	if variants == 0 {
		return fmt.Errorf("empty predicate")
	}
	if variants > 1 {
		return fmt.Errorf("predicate mixes %d variants, want 1", variants)
	}
	return nil
}
