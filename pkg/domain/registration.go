package domain

import "context"

// FieldOptions configures the registration of a field.
type FieldOptions struct {
	// Trigger is the action that collects the value. Defaults to DefaultTrigger.
	Trigger string `json:"trigger,omitempty" mapstructure:"trigger"`

	// ValuePropName is the prop that carries the value. Defaults to DefaultValuePropName.
	ValuePropName string `json:"value_prop_name,omitempty" mapstructure:"value_prop_name"`

	// Rules is shorthand for a Validate entry triggered by ValidateTrigger.
	Rules []Rule `json:"rules,omitempty" mapstructure:"rules"`

	// ValidateTrigger defaults to Trigger when nil.
	ValidateTrigger []string `json:"validate_trigger,omitempty" mapstructure:"validate_trigger"`

	Validate []ValidateRule `json:"validate,omitempty" mapstructure:"validate"`

	InitialValue    any  `json:"initial_value,omitempty" mapstructure:"initial_value"`
	HasInitialValue bool `json:"-" mapstructure:"-"`

	Hidden        bool `json:"hidden,omitempty" mapstructure:"hidden"`
	ValidateFirst bool `json:"validate_first,omitempty" mapstructure:"validate_first"`

	Normalize         NormalizeFunc                  `json:"-" mapstructure:"-"`
	GetValueFromEvent func(args ...any) any          `json:"-" mapstructure:"-"`
	GetValueProps     func(value any) map[string]any `json:"-" mapstructure:"-"`

	// Listeners are invoked with the raw event arguments before the value is
	// collected, keyed by action.
	Listeners map[string]func(args ...any) `json:"-" mapstructure:"-"`
}

// Handler receives the raw event arguments of an action.
type Handler func(ctx context.Context, args ...any)

// Binding is what a UI layer needs to wire an input to a registered field.
type Binding struct {
	Name string

	// Props carries the value under ValuePropName (or GetValueProps output).
	Props map[string]any

	// Handlers maps every collect and validate trigger to its handler.
	Handlers map[string]Handler

	Meta  Meta
	Field Field
}

// ValidateRequest selects the fields of a validation pass.
type ValidateRequest struct {
	// Names restricts the pass to these names or prefixes. Empty means every visible field.
	Names []string `json:"names,omitempty"`

	// Action restricts the rules to those triggered by it. Empty means every rule.
	Action string `json:"action,omitempty"`

	Options ValidateOptions `json:"options"`
}

// Callback receives the outcome of a validation pass. The error is non-nil
// only when the validator itself failed.
type Callback func(Result, error)
