// Package runtime implements the form state machine: registration, value
// collection and the coordination of asynchronous validation passes.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/formwork/internal/logging"
	"github.com/aretw0/formwork/internal/ruleindex"
	"github.com/aretw0/formwork/internal/store"
	"github.com/aretw0/formwork/pkg/adapters/memory"
	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/fieldpath"
	"github.com/aretw0/formwork/pkg/ports"
)

// Engine serializes every access to the field store behind a single mutex.
// Hooks and callbacks always run after the mutex is released.
type Engine struct {
	mu        sync.Mutex
	store     *store.Store
	listeners map[string]map[string]func(args ...any)
	// names with a snapshot this engine parked and has not taken back
	parked map[string]struct{}

	validator ports.Validator
	cache     ports.RecoveryCache
	hooks     domain.Hooks
	logger    *slog.Logger

	initial any
	passes  sync.WaitGroup
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithValidator sets the validator used by validation passes.
func WithValidator(v ports.Validator) EngineOption {
	return func(e *Engine) {
		if v != nil {
			e.validator = v
		}
	}
}

// WithRecoveryCache sets where detached fields are parked.
func WithRecoveryCache(c ports.RecoveryCache) EngineOption {
	return func(e *Engine) {
		if c != nil {
			e.cache = c
		}
	}
}

// WithHooks registers observability hooks. Repeated calls are merged.
func WithHooks(h domain.Hooks) EngineOption {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(h)
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithInitialFields seeds the store with a nested tree of domain.Field records.
func WithInitialFields(tree any) EngineOption {
	return func(e *Engine) {
		e.initial = tree
	}
}

// NewEngine creates an engine. Without a validator every rule passes; without
// a recovery cache detached fields are parked in process memory.
func NewEngine(opts ...EngineOption) (*Engine, error) {
	e := &Engine{
		store:     store.New(),
		listeners: make(map[string]map[string]func(args ...any)),
		parked:    make(map[string]struct{}),
		validator: ports.ValidatorFunc(func(context.Context, ports.ValidationRequest) ([]domain.ErrorEntry, error) {
			return nil, nil
		}),
		cache:  memory.NewCache(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.initial != nil {
		if _, err := e.store.UpdateFields(e.initial); err != nil {
			return nil, fmt.Errorf("invalid initial fields: %w", err)
		}
	}
	return e, nil
}

// RegisterField registers name, or updates its metadata when it already
// exists, and returns the binding for the input that renders it.
func (e *Engine) RegisterField(ctx context.Context, name string, opts domain.FieldOptions) (domain.Binding, error) {
	if name == "" {
		return domain.Binding{}, domain.ErrEmptyFieldName
	}
	if _, err := fieldpath.Parse(name); err != nil {
		return domain.Binding{}, fmt.Errorf("invalid field name: %w", err)
	}

	e.mu.Lock()
	conflict, ambiguous := e.store.Conflict(name)
	e.mu.Unlock()
	if ambiguous {
		return domain.Binding{}, &domain.AmbiguousFieldNameError{Name: name, Conflict: conflict}
	}

	// A parked snapshot is consumed by the first successful registration
	// that follows, whether or not it is used.
	snap, recovered := e.take(ctx, name)

	e.mu.Lock()
	if conflict, ok := e.store.Conflict(name); ok {
		e.mu.Unlock()
		if recovered {
			if err := e.park(ctx, name, snap); err != nil {
				e.logger.Warn("failed to park field", "field", name, "error", err)
			}
		}
		return domain.Binding{}, &domain.AmbiguousFieldNameError{Name: name, Conflict: conflict}
	}

	var n notice
	if _, registered := e.store.Meta(name); !registered && recovered {
		e.store.Restore(snap)
		n = e.noticeLocked([]string{name}, nil)
		e.logger.Debug("field recovered", "field", name)
	}

	meta := metaFromOptions(name, opts)
	e.store.RegisterOrUpdateMeta(name, meta)
	meta, _ = e.store.Meta(name)

	if len(opts.Listeners) > 0 {
		e.listeners[name] = opts.Listeners
	} else {
		delete(e.listeners, name)
	}

	binding := domain.Binding{
		Name:     name,
		Props:    e.store.ValuePropValue(meta),
		Handlers: e.handlers(name, meta),
		Meta:     meta,
		Field:    e.store.Field(name),
	}
	e.mu.Unlock()

	e.emit(n)
	return binding, nil
}

func metaFromOptions(name string, opts domain.FieldOptions) domain.Meta {
	trigger := opts.Trigger
	if trigger == "" {
		trigger = domain.DefaultTrigger
	}
	valueProp := opts.ValuePropName
	if valueProp == "" {
		valueProp = domain.DefaultValuePropName
	}
	validateTrigger := opts.ValidateTrigger
	if validateTrigger == nil {
		validateTrigger = []string{trigger}
	}

	return domain.Meta{
		Name:              name,
		Trigger:           trigger,
		ValuePropName:     valueProp,
		Validate:          ruleindex.Normalize(opts.Validate, opts.Rules, validateTrigger),
		ValidateTrigger:   slices.Clone(validateTrigger),
		InitialValue:      opts.InitialValue,
		HasInitialValue:   opts.HasInitialValue,
		Hidden:            opts.Hidden,
		ValidateFirst:     opts.ValidateFirst,
		Normalize:         opts.Normalize,
		GetValueFromEvent: opts.GetValueFromEvent,
		GetValueProps:     opts.GetValueProps,
	}
}

// handlers binds a validating collector to every validate trigger, and a
// plain collector to the collect trigger unless it also validates.
func (e *Engine) handlers(name string, meta domain.Meta) map[string]domain.Handler {
	out := make(map[string]domain.Handler)
	triggers := ruleindex.Triggers(meta.Validate)
	for _, action := range triggers {
		out[action] = func(ctx context.Context, args ...any) {
			if err := e.CollectValidate(ctx, name, action, args...); err != nil {
				e.logger.Warn("collect failed", "field", name, "action", action, "error", err)
			}
		}
	}
	if meta.Trigger != "" && !slices.Contains(triggers, meta.Trigger) {
		action := meta.Trigger
		out[action] = func(ctx context.Context, args ...any) {
			if err := e.Collect(ctx, name, action, args...); err != nil {
				e.logger.Warn("collect failed", "field", name, "action", action, "error", err)
			}
		}
	}
	return out
}

// Handle routes an input event to the collector bound to action, as the
// binding handlers do. Unlike them, it reports failures to the caller.
func (e *Engine) Handle(ctx context.Context, name, action string, args ...any) error {
	e.mu.Lock()
	meta, ok := e.store.Meta(name)
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrFieldNotFound, name)
	}

	if slices.Contains(ruleindex.Triggers(meta.Validate), action) {
		return e.CollectValidate(ctx, name, action, args...)
	}
	if action == meta.Trigger {
		return e.Collect(ctx, name, action, args...)
	}
	return fmt.Errorf("%w: %s on %s", domain.ErrUnboundAction, action, name)
}

// SetFields writes records. Leaves of tree are domain.Field (replacing the
// record) or domain.Patch (merged into it). Nothing is written when a leaf
// is not a registered field.
func (e *Engine) SetFields(tree any) error {
	e.mu.Lock()
	flat, err := e.store.FlattenRegistered(tree)
	if err != nil {
		e.mu.Unlock()
		return err
	}

	patches := make(map[string]domain.Patch, len(flat))
	for name, v := range flat {
		switch rec := v.(type) {
		case domain.Field:
			patches[name] = domain.PatchFrom(rec)
		case domain.Patch:
			patches[name] = rec
		default:
			e.mu.Unlock()
			return fmt.Errorf("field %q: unsupported record type %T", name, v)
		}
	}
	n := e.setFieldsLocked(patches)
	e.mu.Unlock()

	e.emit(n)
	return nil
}

// SetFieldsValue sets the values found in tree. Values at unregistered paths
// are ignored with a warning.
func (e *Engine) SetFieldsValue(tree any) {
	e.mu.Lock()
	flat, err := e.store.FlattenRegistered(tree)
	if err != nil {
		var unregistered *domain.UnregisteredFieldError
		if errors.As(err, &unregistered) {
			e.logger.Warn("cannot set value before registering the field", "fields", unregistered.Names)
		} else {
			e.logger.Warn("ignoring malformed values", "error", err)
		}
	}

	before := make(map[string]any, len(flat))
	patches := make(map[string]domain.Patch, len(flat))
	for name, v := range flat {
		before[name] = e.store.EffectiveValue(name)
		patches[name] = domain.ValuePatch(v)
	}
	n := e.setFieldsLocked(patches)

	changed := false
	for name, prev := range before {
		if !equal(prev, e.store.EffectiveValue(name)) {
			changed = true
			break
		}
	}
	if changed && e.hooks.OnValuesChange != nil {
		n.valuesChanged = nestValues(flat)
		n.allValues = e.store.AllValues()
		n.hasValues = true
	}
	e.mu.Unlock()

	e.emit(n)
}

// ResetFields drops the explicit value and state of the targeted fields and
// the snapshots parked under or below them. Without names every field and
// every snapshot is targeted.
func (e *Engine) ResetFields(ctx context.Context, names ...string) {
	e.mu.Lock()
	n := notice{}
	if patches := e.store.ResetFields(names); len(patches) > 0 {
		n = e.setFieldsLocked(patches)
	}
	e.mu.Unlock()

	e.emit(n)

	if len(names) == 0 {
		e.mu.Lock()
		clear(e.parked)
		e.mu.Unlock()
		if err := e.cache.Clear(ctx); err != nil {
			e.logger.Warn("failed to clear recovery cache", "error", err)
		}
		return
	}

	// Targets cover the snapshots parked below them, as they do for the
	// registered fields.
	e.mu.Lock()
	targets := slices.Clone(names)
	for parked := range e.parked {
		if !slices.Contains(targets, parked) && slices.ContainsFunc(names, func(target string) bool {
			return fieldpath.HasPrefix(parked, target)
		}) {
			targets = append(targets, parked)
		}
	}
	for _, name := range targets {
		delete(e.parked, name)
	}
	e.mu.Unlock()

	for _, name := range targets {
		if err := e.cache.Delete(ctx, name); err != nil {
			e.logger.Warn("failed to drop parked field", "field", name, "error", err)
		}
	}
}

// take consumes the snapshot parked under name. Lookup failures other than a
// missing snapshot are logged and treated as a miss.
func (e *Engine) take(ctx context.Context, name string) (domain.Snapshot, bool) {
	snap, err := e.cache.Take(ctx, name)
	if err != nil && !errors.Is(err, ports.ErrSnapshotNotFound) {
		e.logger.Warn("recovery cache lookup failed", "field", name, "error", err)
		return domain.Snapshot{}, false
	}
	e.mu.Lock()
	delete(e.parked, name)
	e.mu.Unlock()
	return snap, err == nil
}

// park stores snap under name and remembers it for ResetFields.
func (e *Engine) park(ctx context.Context, name string, snap domain.Snapshot) error {
	if err := e.cache.Put(ctx, name, snap); err != nil {
		return err
	}
	e.mu.Lock()
	e.parked[name] = struct{}{}
	e.mu.Unlock()
	return nil
}

// Attach marks the input of name as mounted. A field that was detached is
// recovered from the cache.
func (e *Engine) Attach(ctx context.Context, name string) error {
	e.mu.Lock()
	_, registered := e.store.Meta(name)
	e.mu.Unlock()
	if registered {
		return nil
	}

	snap, err := e.cache.Take(ctx, name)
	if err != nil && !errors.Is(err, ports.ErrSnapshotNotFound) {
		return fmt.Errorf("failed to recover field %s: %w", name, err)
	}
	e.mu.Lock()
	delete(e.parked, name)
	e.mu.Unlock()
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrFieldNotFound, name)
	}

	e.mu.Lock()
	var n notice
	if _, registered := e.store.Meta(name); !registered {
		e.store.Restore(snap)
		n = e.noticeLocked([]string{name}, nil)
	}
	e.mu.Unlock()

	e.emit(n)
	return nil
}

// Detach removes name from the store and parks its record and metadata in
// the recovery cache.
func (e *Engine) Detach(ctx context.Context, name string) error {
	e.mu.Lock()
	snap, ok := e.store.Snapshot(name)
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrFieldNotFound, name)
	}
	e.store.ClearField(name)
	delete(e.listeners, name)
	n := e.noticeLocked([]string{name}, nil)
	e.mu.Unlock()

	e.emit(n)

	if err := e.park(ctx, name, snap); err != nil {
		return fmt.Errorf("failed to park field %s: %w", name, err)
	}
	e.logger.Debug("field detached", "field", name)
	return nil
}

// UpdateFields replaces every record with the domain.Field leaves of tree.
func (e *Engine) UpdateFields(tree any) error {
	e.mu.Lock()
	changed, err := e.store.UpdateFields(tree)
	n := e.noticeLocked(changed, nil)
	e.mu.Unlock()

	e.emit(n)
	return err
}

// SetFieldsInitialValue sets the initial values of the registered fields in tree.
func (e *Engine) SetFieldsInitialValue(tree any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.SetFieldsInitialValue(tree)
}

// Wait blocks until every in-flight validation pass has reconciled.
func (e *Engine) Wait() {
	e.passes.Wait()
}

// setFieldsLocked applies patches and prepares the notifications they cause.
func (e *Engine) setFieldsLocked(patches map[string]domain.Patch) notice {
	if len(patches) == 0 {
		return notice{}
	}
	changed := e.store.SetFields(patches)
	return e.noticeLocked(changed, slices.Collect(maps.Keys(patches)))
}
