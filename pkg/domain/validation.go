package domain

import "slices"

// FirstFields selects the fields whose validation stops at their first error.
type FirstFields struct {
	All   bool     `json:"all,omitempty"`
	Names []string `json:"names,omitempty"`
}

// Applies reports whether name stops at its first error.
func (f FirstFields) Applies(name string) bool {
	return f.All || slices.Contains(f.Names, name)
}

// ValidateOptions tunes a validation pass.
type ValidateOptions struct {
	// Force re-validates fields that are not dirty.
	Force bool `json:"force,omitempty"`

	// First stops the whole pass at the first error.
	First bool `json:"first,omitempty"`

	// FirstFields stops individual fields at their first error. When nil,
	// the fields registered with ValidateFirst are used.
	FirstFields *FirstFields `json:"first_fields,omitempty"`
}

// FieldErrors is the per-field outcome reported by a validation pass.
type FieldErrors struct {
	Errors  []ErrorEntry `json:"errors"`
	Expired bool         `json:"expired,omitempty"`
}

// Result is delivered to the caller when a validation pass completes.
type Result struct {
	// Errors is nil when no field ended with an error.
	Errors map[string]FieldErrors `json:"errors,omitempty"`

	// Values holds the nested values of the requested fields.
	Values map[string]any `json:"values"`
}

// HasErrors reports whether any field failed or expired.
func (r Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Expired returns the names whose result was discarded as stale, sorted.
func (r Result) Expired() []string {
	var names []string
	for name, fe := range r.Errors {
		if fe.Expired {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}
