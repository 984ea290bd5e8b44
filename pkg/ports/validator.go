package ports

import (
	"context"

	"github.com/aretw0/formwork/pkg/domain"
)

// ValidationRequest is one batch handed to a Validator.
type ValidationRequest struct {
	// Rules maps each field to the rules it must satisfy, in order.
	Rules map[string][]domain.Rule

	// Values holds the value of each field as of dispatch time.
	Values map[string]any

	// First stops the whole batch at the first error.
	First bool

	// FirstFields stops individual fields at their first error.
	FirstFields domain.FirstFields
}

// Validator evaluates rules against values.
// A field that passes contributes no entry; an error return means the request
// itself could not be evaluated (e.g. an unknown rule descriptor).
type Validator interface {
	Validate(ctx context.Context, req ValidationRequest) ([]domain.ErrorEntry, error)
}

// ValidatorFunc adapts a plain function to the Validator interface.
type ValidatorFunc func(ctx context.Context, req ValidationRequest) ([]domain.ErrorEntry, error)

// Validate calls f.
func (f ValidatorFunc) Validate(ctx context.Context, req ValidationRequest) ([]domain.ErrorEntry, error) {
	return f(ctx, req)
}
