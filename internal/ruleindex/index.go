// Package ruleindex derives which validation rules apply to which actions.
package ruleindex

import (
	"slices"

	"github.com/aretw0/formwork/pkg/domain"
)

// Normalize unifies the validate entries of a registration and appends the
// shorthand rules (bound to validateTrigger) when present.
func Normalize(validate []domain.ValidateRule, rules []domain.Rule, validateTrigger []string) []domain.ValidateRule {
	out := make([]domain.ValidateRule, 0, len(validate)+1)
	for _, item := range validate {
		trigger := item.Trigger
		if trigger == nil {
			trigger = []string{}
		}
		out = append(out, domain.ValidateRule{Rules: item.Rules, Trigger: slices.Clone(trigger)})
	}
	if len(rules) > 0 {
		trigger := []string{}
		if validateTrigger != nil {
			trigger = slices.Clone(validateTrigger)
		}
		out = append(out, domain.ValidateRule{Rules: rules, Trigger: trigger})
	}
	return out
}

// ForAction returns the rules of meta that fire for action, flattened in
// declaration order. An empty action selects every rule; entries without
// triggers apply to any action.
func ForAction(meta domain.Meta, action string) []domain.Rule {
	var rules []domain.Rule
	for _, item := range meta.Validate {
		if action == "" || len(item.Trigger) == 0 || slices.Contains(item.Trigger, action) {
			rules = append(rules, item.Rules...)
		}
	}
	return rules
}

// Triggers returns the distinct actions, in first-seen order, bound to at least
// one non-empty rule list. These actions must be wired to validation.
func Triggers(validate []domain.ValidateRule) []string {
	var triggers []string
	for _, item := range validate {
		if len(item.Rules) == 0 {
			continue
		}
		for _, t := range item.Trigger {
			if !slices.Contains(triggers, t) {
				triggers = append(triggers, t)
			}
		}
	}
	return triggers
}

// HasRules reports whether any entry carries at least one rule.
func HasRules(validate []domain.ValidateRule) bool {
	return slices.ContainsFunc(validate, func(item domain.ValidateRule) bool {
		return len(item.Rules) > 0
	})
}
