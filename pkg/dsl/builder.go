package dsl

import (
	"context"
	"fmt"

	"github.com/aretw0/formwork/pkg/domain"
)

// Registrar is implemented by forms that fields can be registered on.
type Registrar interface {
	RegisterField(ctx context.Context, name string, opts domain.FieldOptions) (*domain.Binding, error)
}

// Builder collects field declarations.
type Builder struct {
	fields map[string]*FieldBuilder
	order  []string
}

// New creates a new field builder.
func New() *Builder {
	return &Builder{
		fields: make(map[string]*FieldBuilder),
	}
}

// Add declares a field.
// If the field already exists, it returns the existing builder.
func (b *Builder) Add(name string) *FieldBuilder {
	if fb, ok := b.fields[name]; ok {
		return fb
	}
	fb := &FieldBuilder{name: name}
	b.fields[name] = fb
	b.order = append(b.order, name)
	return fb
}

// Names returns the declared names in declaration order.
func (b *Builder) Names() []string {
	return append([]string(nil), b.order...)
}

// Build returns the options of every declared field, keyed by name.
func (b *Builder) Build() map[string]domain.FieldOptions {
	out := make(map[string]domain.FieldOptions, len(b.fields))
	for name, fb := range b.fields {
		out[name] = fb.Build()
	}
	return out
}

// Register registers every declared field on r, in declaration order, and
// stops at the first failure.
func (b *Builder) Register(ctx context.Context, r Registrar) error {
	for _, name := range b.order {
		if _, err := r.RegisterField(ctx, name, b.fields[name].Build()); err != nil {
			return fmt.Errorf("failed to register %q: %w", name, err)
		}
	}
	return nil
}
