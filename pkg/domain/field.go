package domain

// Rule is an opaque validation descriptor. Only the validator interprets it.
type Rule any

// Opt is an optional attribute of a Patch.
type Opt[T any] struct {
	Val T
	Set bool
}

// Some returns an Opt carrying v.
func Some[T any](v T) Opt[T] {
	return Opt[T]{Val: v, Set: true}
}

// ErrorEntry is a single validation message reported for a field.
type ErrorEntry struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Field is the live record of a registered field.
type Field struct {
	Name string `json:"name"`

	// Value is only meaningful when HasValue is true. Otherwise the
	// field falls back to Meta.InitialValue.
	Value    any  `json:"value,omitempty"`
	HasValue bool `json:"has_value,omitempty"`

	Errors     []ErrorEntry `json:"errors,omitempty"`
	Touched    bool         `json:"touched,omitempty"`
	Dirty      bool         `json:"dirty,omitempty"`
	Validating bool         `json:"validating,omitempty"`
}

// Patch is a partial Field update. Unset attributes keep their stored value.
type Patch struct {
	Value      Opt[any]
	Errors     Opt[[]ErrorEntry]
	Touched    Opt[bool]
	Dirty      Opt[bool]
	Validating Opt[bool]

	// Reset discards the stored record (including its value) before the
	// other attributes are applied.
	Reset bool
}

// ValuePatch returns a Patch that only sets the value.
func ValuePatch(v any) Patch {
	return Patch{Value: Some(v)}
}

// Apply merges p into f and returns the result.
func (p Patch) Apply(f Field) Field {
	if p.Reset {
		f = Field{Name: f.Name}
	}
	if p.Value.Set {
		f.Value = p.Value.Val
		f.HasValue = true
	}
	if p.Errors.Set {
		f.Errors = p.Errors.Val
	}
	if p.Touched.Set {
		f.Touched = p.Touched.Val
	}
	if p.Dirty.Set {
		f.Dirty = p.Dirty.Val
	}
	if p.Validating.Set {
		f.Validating = p.Validating.Val
	}
	return f
}

// PatchFrom returns a Patch that overwrites every attribute with the ones of f.
func PatchFrom(f Field) Patch {
	p := Patch{
		Errors:     Some(f.Errors),
		Touched:    Some(f.Touched),
		Dirty:      Some(f.Dirty),
		Validating: Some(f.Validating),
		Reset:      true,
	}
	if f.HasValue {
		p.Value = Some(f.Value)
	}
	return p
}

// ErrorMessages returns the messages of the field errors, or nil.
func (f Field) ErrorMessages() []string {
	if f.Errors == nil {
		return nil
	}
	msgs := make([]string, len(f.Errors))
	for i, e := range f.Errors {
		msgs[i] = e.Message
	}
	return msgs
}

// ValidateRule binds a set of rules to the actions that trigger them.
// An empty Trigger applies the rules regardless of the action.
type ValidateRule struct {
	Rules   []Rule   `json:"rules"`
	Trigger []string `json:"trigger"`
}

// NormalizeFunc rewrites a value before it is committed.
// all holds the pending effective values of every registered field.
type NormalizeFunc func(value, prev any, all map[string]any) any

// Meta is the registration metadata of a field.
type Meta struct {
	Name            string         `json:"name"`
	Trigger         string         `json:"trigger"`
	ValuePropName   string         `json:"value_prop_name"`
	Validate        []ValidateRule `json:"validate,omitempty"`
	ValidateTrigger []string       `json:"validate_trigger,omitempty"`
	InitialValue    any            `json:"initial_value,omitempty"`
	HasInitialValue bool           `json:"has_initial_value,omitempty"`
	Hidden          bool           `json:"hidden,omitempty"`
	ValidateFirst   bool           `json:"validate_first,omitempty"`

	Normalize         NormalizeFunc                  `json:"-"`
	GetValueFromEvent func(args ...any) any          `json:"-"`
	GetValueProps     func(value any) map[string]any `json:"-"`
}

// Snapshot is the record and metadata of a detached field, kept for recovery.
type Snapshot struct {
	Field Field `json:"field"`
	Meta  Meta  `json:"meta"`
}

// EventTarget is implemented by UI events that carry an input value.
type EventTarget interface {
	InputType() string
	Checked() bool
	InputValue() any
}

// InputEvent is a plain EventTarget for hosts without their own event types.
type InputEvent struct {
	Type    string
	Value   any
	IsCheck bool
}

func (e InputEvent) InputType() string { return e.Type }
func (e InputEvent) Checked() bool     { return e.IsCheck }
func (e InputEvent) InputValue() any   { return e.Value }
