package dsl

import (
	"maps"
	"slices"

	"github.com/aretw0/formwork/pkg/domain"
)

// FieldBuilder provides a fluent API for configuring a field.
type FieldBuilder struct {
	name string
	opts domain.FieldOptions
}

// Trigger sets the action that collects the value.
func (f *FieldBuilder) Trigger(action string) *FieldBuilder {
	f.opts.Trigger = action
	return f
}

// ValuePropName sets the prop that carries the value to the input.
func (f *FieldBuilder) ValuePropName(prop string) *FieldBuilder {
	f.opts.ValuePropName = prop
	return f
}

// Rules appends rules run on the ValidateOn actions.
func (f *FieldBuilder) Rules(rules ...domain.Rule) *FieldBuilder {
	f.opts.Rules = append(f.opts.Rules, rules...)
	return f
}

// ValidateOn sets the actions that run Rules.
func (f *FieldBuilder) ValidateOn(actions ...string) *FieldBuilder {
	f.opts.ValidateTrigger = actions
	return f
}

// Validate binds rules to actions. Without actions the rules run on every
// validation of the field.
func (f *FieldBuilder) Validate(rules []domain.Rule, actions ...string) *FieldBuilder {
	f.opts.Validate = append(f.opts.Validate, domain.ValidateRule{Rules: rules, Trigger: actions})
	return f
}

// Initial sets the initial value.
func (f *FieldBuilder) Initial(value any) *FieldBuilder {
	f.opts.InitialValue = value
	f.opts.HasInitialValue = true
	return f
}

// Hidden keeps the field out of the visible values.
func (f *FieldBuilder) Hidden() *FieldBuilder {
	f.opts.Hidden = true
	return f
}

// First stops the field's rules at the first failure.
func (f *FieldBuilder) First() *FieldBuilder {
	f.opts.ValidateFirst = true
	return f
}

// Normalize sets the function that rewrites a value before it is committed.
func (f *FieldBuilder) Normalize(fn domain.NormalizeFunc) *FieldBuilder {
	f.opts.Normalize = fn
	return f
}

// ValueFromEvent sets the function that extracts the value from an event.
func (f *FieldBuilder) ValueFromEvent(fn func(args ...any) any) *FieldBuilder {
	f.opts.GetValueFromEvent = fn
	return f
}

// ValueProps sets the function that builds the input props from the value.
func (f *FieldBuilder) ValueProps(fn func(value any) map[string]any) *FieldBuilder {
	f.opts.GetValueProps = fn
	return f
}

// On adds a listener invoked with the raw arguments of action.
func (f *FieldBuilder) On(action string, fn func(args ...any)) *FieldBuilder {
	if f.opts.Listeners == nil {
		f.opts.Listeners = make(map[string]func(args ...any))
	}
	f.opts.Listeners[action] = fn
	return f
}

// Build returns a copy of the options of the field.
func (f *FieldBuilder) Build() domain.FieldOptions {
	opts := f.opts
	opts.Rules = slices.Clone(f.opts.Rules)
	opts.ValidateTrigger = slices.Clone(f.opts.ValidateTrigger)
	opts.Validate = slices.Clone(f.opts.Validate)
	opts.Listeners = maps.Clone(f.opts.Listeners)
	return opts
}
