// Package playground validates fields with github.com/go-playground/validator.
//
// Rules are validator tag strings such as "required,email" or "min=3,max=20".
// Each rule of a field is evaluated with Validate.VarCtx against the field value.
package playground

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/ports"
)

// InvalidRuleError is returned when a rule is not a tag string, or names an
// unknown validation.
type InvalidRuleError struct {
	Field string
	Rule  any
	Cause string
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("field %q: invalid rule %v: %s", e.Field, e.Rule, e.Cause)
}

// Validator implements ports.Validator.
type Validator struct {
	validate *validator.Validate
}

type Option func(*Validator) error

// WithValidation registers a custom validation function under tag.
func WithValidation(tag string, fn validator.Func) Option {
	return func(v *Validator) error {
		return v.validate.RegisterValidation(tag, fn)
	}
}

// New creates a Validator with the default tag set plus the given options.
func New(opts ...Option) (*Validator, error) {
	v := &Validator{validate: validator.New()}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, fmt.Errorf("failed to configure validator: %w", err)
		}
	}
	return v, nil
}

// Validate evaluates the rules of every field in name order.
func (v *Validator) Validate(ctx context.Context, req ports.ValidationRequest) ([]domain.ErrorEntry, error) {
	names := make([]string, 0, len(req.Rules))
	for name := range req.Rules {
		names = append(names, name)
	}
	slices.Sort(names)

	var out []domain.ErrorEntry
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, rule := range req.Rules[name] {
			tag, ok := rule.(string)
			if !ok {
				return nil, &InvalidRuleError{Field: name, Rule: rule, Cause: "not a tag string"}
			}
			entries, err := v.check(ctx, name, req.Values[name], tag)
			if err != nil {
				return nil, err
			}
			if len(entries) == 0 {
				continue
			}
			if req.First {
				return entries[:1], nil
			}
			if req.FirstFields.Applies(name) {
				out = append(out, entries[0])
				break
			}
			out = append(out, entries...)
		}
	}
	return out, nil
}

// check runs one tag. The validator panics on undefined tags.
func (v *Validator) check(ctx context.Context, name string, value any, tag string) (entries []domain.ErrorEntry, err error) {
	defer func() {
		if r := recover(); r != nil {
			entries = nil
			err = &InvalidRuleError{Field: name, Rule: tag, Cause: fmt.Sprint(r)}
		}
	}()

	verr := v.validate.VarCtx(ctx, value, tag)
	if verr == nil {
		return nil, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(verr, &fieldErrs) {
		return nil, &InvalidRuleError{Field: name, Rule: tag, Cause: verr.Error()}
	}
	for _, fe := range fieldErrs {
		entries = append(entries, domain.ErrorEntry{Field: name, Message: message(name, fe)})
	}
	return entries, nil
}

func message(name string, fe validator.FieldError) string {
	if fe.Param() != "" {
		return fmt.Sprintf("%s failed on the '%s=%s' rule", name, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s failed on the '%s' rule", name, fe.Tag())
}
