package formwork

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/formwork/internal/logging"
	"github.com/aretw0/formwork/internal/runtime"
	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/ports"
	"github.com/aretw0/formwork/pkg/schema"
)

// Form is the high-level entry point of the library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Form struct {
	runtime   *runtime.Engine
	validator ports.Validator
	cache     ports.RecoveryCache
	hooks     domain.Hooks
	logger    *slog.Logger
	fields    any
	Name      string
}

// Option defines a functional option for configuring the Form.
type Option func(*Form)

// WithValidator sets the validator that interprets field rules.
// The default is a schema.Validator.
func WithValidator(v ports.Validator) Option {
	return func(f *Form) {
		f.validator = v
	}
}

// WithRecoveryCache sets where detached fields are parked.
func WithRecoveryCache(c ports.RecoveryCache) Option {
	return func(f *Form) {
		f.cache = c
	}
}

// WithHooks registers observability hooks. Repeated calls are merged.
func WithHooks(h domain.Hooks) Option {
	return func(f *Form) {
		f.hooks = f.hooks.Merge(h)
	}
}

// WithLogger sets a custom structured logger for the form.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Form) {
		f.logger = logger
	}
}

// WithDiagnostics logs to stderr at level. It is a shortcut for
// WithLogger(logging.New(level)).
func WithDiagnostics(level slog.Level) Option {
	return func(f *Form) {
		f.logger = logging.New(level)
	}
}

// WithFields seeds the form with a nested tree of domain.Field records.
func WithFields(tree any) Option {
	return func(f *Form) {
		f.fields = tree
	}
}

// WithName labels the form in logs.
func WithName(name string) Option {
	return func(f *Form) {
		f.Name = name
	}
}

// New initializes a new Form.
func New(opts ...Option) (*Form, error) {
	f := &Form{}
	for _, opt := range opts {
		opt(f)
	}

	if f.validator == nil {
		f.validator = schema.New()
	}
	if f.logger == nil {
		f.logger = logging.NewNop()
	}
	if f.Name != "" {
		f.logger = f.logger.With("form", f.Name)
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithValidator(f.validator),
		runtime.WithHooks(f.hooks),
		runtime.WithLogger(f.logger),
	}
	if f.cache != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithRecoveryCache(f.cache))
	}
	if f.fields != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithInitialFields(f.fields))
	}

	rt, err := runtime.NewEngine(runtimeOpts...)
	if err != nil {
		return nil, err
	}
	f.runtime = rt
	return f, nil
}

// RegisterField registers name and returns the binding for its input.
// Registering an existing name updates its metadata and keeps its state.
func (f *Form) RegisterField(ctx context.Context, name string, opts domain.FieldOptions) (*domain.Binding, error) {
	b, err := f.runtime.RegisterField(ctx, name, opts)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Collect captures a value for name from an input event, without validating.
func (f *Form) Collect(ctx context.Context, name, action string, args ...any) error {
	return f.runtime.Collect(ctx, name, action, args...)
}

// CollectValidate captures a value for name and validates it with the rules
// bound to action.
func (f *Form) CollectValidate(ctx context.Context, name, action string, args ...any) error {
	return f.runtime.CollectValidate(ctx, name, action, args...)
}

// Handle routes an input event for name to the collector bound to action.
func (f *Form) Handle(ctx context.Context, name, action string, args ...any) error {
	return f.runtime.Handle(ctx, name, action, args...)
}

// SetFields writes records given as a nested or flat tree of domain.Field
// or domain.Patch leaves.
func (f *Form) SetFields(tree any) error {
	return f.runtime.SetFields(tree)
}

// SetFieldsValue sets values given as a nested tree.
func (f *Form) SetFieldsValue(tree any) {
	f.runtime.SetFieldsValue(tree)
}

// SetFieldsInitialValue sets the values the fields fall back to.
func (f *Form) SetFieldsInitialValue(tree any) error {
	return f.runtime.SetFieldsInitialValue(tree)
}

// UpdateFields replaces every record with the domain.Field leaves of tree.
func (f *Form) UpdateFields(tree any) error {
	return f.runtime.UpdateFields(tree)
}

// ResetFields restores names, or every field, to the initial state.
func (f *Form) ResetFields(ctx context.Context, names ...string) {
	f.runtime.ResetFields(ctx, names...)
}

// Attach mounts name again after Detach.
func (f *Form) Attach(ctx context.Context, name string) error {
	return f.runtime.Attach(ctx, name)
}

// Detach unmounts name, parking its state until it is registered or attached again.
func (f *Form) Detach(ctx context.Context, name string) error {
	return f.runtime.Detach(ctx, name)
}

// ValidateFields starts a validation pass and reports to cb.
func (f *Form) ValidateFields(ctx context.Context, req domain.ValidateRequest, cb domain.Callback) {
	f.runtime.ValidateFields(ctx, req, cb)
}

// Validate runs a validation pass and waits for its outcome.
func (f *Form) Validate(ctx context.Context, req domain.ValidateRequest) (domain.Result, error) {
	return f.runtime.Validate(ctx, req)
}

// Wait blocks until every in-flight validation pass has completed.
func (f *Form) Wait() {
	f.runtime.Wait()
}

func (f *Form) FieldValue(name string) any { return f.runtime.FieldValue(name) }

func (f *Form) FieldsValue(names ...string) map[string]any { return f.runtime.FieldsValue(names...) }

func (f *Form) FieldError(name string) any { return f.runtime.FieldError(name) }

func (f *Form) FieldsError(names ...string) map[string]any { return f.runtime.FieldsError(names...) }

func (f *Form) IsFieldTouched(name string) bool { return f.runtime.IsFieldTouched(name) }

func (f *Form) IsFieldsTouched(names ...string) bool { return f.runtime.IsFieldsTouched(names...) }

func (f *Form) IsFieldValidating(name string) bool { return f.runtime.IsFieldValidating(name) }

func (f *Form) IsFieldsValidating(names ...string) bool {
	return f.runtime.IsFieldsValidating(names...)
}

// Field returns a copy of the record of name.
func (f *Form) Field(name string) (domain.Field, bool) { return f.runtime.Field(name) }

// Meta returns the registration metadata of name.
func (f *Form) Meta(name string) (domain.Meta, bool) { return f.runtime.Meta(name) }

// Names returns every registered name in registration order.
func (f *Form) Names() []string { return f.runtime.Names() }

// Decode copies the nested values of names, or of every visible field, into
// out, which must be a pointer. Struct fields are matched by their
// "mapstructure" tag, or by name.
func (f *Form) Decode(out any, names ...string) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(f.FieldsValue(names...)); err != nil {
		return fmt.Errorf("failed to decode values: %w", err)
	}
	return nil
}
