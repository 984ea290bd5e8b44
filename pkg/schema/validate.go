package schema

import (
	"context"
	"errors"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/ports"
)

// Validator evaluates schema rules. It implements ports.Validator.
type Validator struct {
	limit int
	rules *Registry
}

type Option func(*Validator)

// WithConcurrency bounds the number of fields evaluated at once.
// Zero or negative means unbounded.
func WithConcurrency(n int) Option {
	return func(v *Validator) {
		v.limit = n
	}
}

// WithRegistry lets rule descriptors name the rules registered in r.
func WithRegistry(r *Registry) Option {
	return func(v *Validator) {
		v.rules = r
	}
}

// New creates a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks every field of req against its rules, in order. Fields are
// evaluated concurrently; the entries are returned sorted by field name.
// An unknown rule descriptor fails the whole request before anything runs.
func (v *Validator) Validate(ctx context.Context, req ports.ValidationRequest) ([]domain.ErrorEntry, error) {
	names := make([]string, 0, len(req.Rules))
	for name := range req.Rules {
		names = append(names, name)
	}
	slices.Sort(names)

	resolved := make([][]Rule, len(names))
	for i, name := range names {
		for _, descriptor := range req.Rules[name] {
			rule, err := v.rules.Resolve(name, descriptor)
			if err != nil {
				return nil, err
			}
			resolved[i] = append(resolved[i], rule)
		}
	}

	results := make([][]domain.ErrorEntry, len(names))
	g, gctx := errgroup.WithContext(ctx)
	if v.limit > 0 {
		g.SetLimit(v.limit)
	}
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = runRules(name, req.Values[name], resolved[i], req.FirstFields.Applies(name))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []domain.ErrorEntry
	for _, entries := range results {
		if len(entries) == 0 {
			continue
		}
		if req.First {
			return entries[:1], nil
		}
		out = append(out, entries...)
	}
	return out, nil
}

// runRules runs rules against value in order.
func runRules(name string, value any, rules []Rule, first bool) []domain.ErrorEntry {
	var entries []domain.ErrorEntry
	for _, rule := range rules {
		err := rule.Validate(value)
		if err == nil {
			continue
		}
		entries = append(entries, domain.ErrorEntry{Field: name, Message: message(name, value, err)})
		if first {
			break
		}
	}
	return entries
}

func message(name string, value any, err error) string {
	var custom *MessageError
	if errors.As(err, &custom) {
		return custom.Message
	}
	return (&ValidationError{Key: name, Reason: err.Error(), Value: value}).Error()
}
