package schema

import "fmt"

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Key    string // Field name
	Reason string // Predicate of the field, e.g. "is required"
	Value  any    // The value that failed validation
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Key, e.Reason)
}

// MessageError carries a user supplied message for a failed rule.
type MessageError struct {
	Message string
	Err     error
}

func (e *MessageError) Error() string { return e.Message }

func (e *MessageError) Unwrap() error { return e.Err }

// UnknownRuleError is returned when a rule descriptor cannot be interpreted.
type UnknownRuleError struct {
	Field string
	Rule  any
}

func (e *UnknownRuleError) Error() string {
	return fmt.Sprintf("field %q: unsupported rule %v (%T)", e.Field, e.Rule, e.Rule)
}
