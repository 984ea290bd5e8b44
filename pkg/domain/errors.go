package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyFieldName is returned when a field is registered without a name.
var ErrEmptyFieldName = errors.New("field name must not be empty")

// ErrFieldNotFound is returned when an operation targets a field that is not registered.
var ErrFieldNotFound = errors.New("field not found")

// ErrUnboundAction is returned when an event names an action that neither
// collects nor validates the field.
var ErrUnboundAction = errors.New("action is not bound to the field")

// UnregisteredFieldError is returned when a value is written to a path that was never registered.
type UnregisteredFieldError struct {
	Names []string
}

func (e *UnregisteredFieldError) Error() string {
	return fmt.Sprintf("cannot set field before registering it: %s", strings.Join(e.Names, ", "))
}

// AmbiguousFieldNameError is returned when a name is an ancestor or descendant of a registered one.
type AmbiguousFieldNameError struct {
	Name     string
	Conflict string
}

func (e *AmbiguousFieldNameError) Error() string {
	return fmt.Sprintf("field name %q cannot be part of another (conflicts with %q)", e.Name, e.Conflict)
}

// MalformedStructureError reports non-container values found where the
// traversal expected a map or a list.
type MalformedStructureError struct {
	Paths []string
}

func (e *MalformedStructureError) Error() string {
	return fmt.Sprintf("malformed structure at %s", strings.Join(e.Paths, ", "))
}
