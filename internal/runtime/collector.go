package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/formwork/internal/ruleindex"
	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/fieldpath"
)

// ValueFromEvent extracts the value carried by the arguments of a UI event.
// An EventTarget yields its checked state for checkboxes and its input value
// otherwise; any other first argument is the value itself.
func ValueFromEvent(args ...any) any {
	if len(args) == 0 {
		return nil
	}
	target, ok := args[0].(domain.EventTarget)
	if !ok {
		return args[0]
	}
	if target.InputType() == domain.InputCheckbox {
		return target.Checked()
	}
	return target.InputValue()
}

// Collect captures the value of name from an event without validating it.
func (e *Engine) Collect(ctx context.Context, name, action string, args ...any) error {
	field, meta, err := e.collectCommon(name, action, args)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if _, ok := e.store.Meta(name); !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrFieldNotFound, name)
	}
	n := e.setFieldsLocked(map[string]domain.Patch{
		name: {
			Value:   domain.Some(field.Value),
			Touched: domain.Some(true),
			Dirty:   domain.Some(ruleindex.HasRules(meta.Validate)),
		},
	})
	e.mu.Unlock()

	e.emit(n)
	return nil
}

// CollectValidate captures the value of name and starts a validation pass
// with the rules triggered by action. The pass outcome is only visible in
// the store and through the hooks.
func (e *Engine) CollectValidate(ctx context.Context, name, action string, args ...any) error {
	field, meta, err := e.collectCommon(name, action, args)
	if err != nil {
		return err
	}
	field.Dirty = true

	e.mu.Lock()
	if _, ok := e.store.Meta(name); !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrFieldNotFound, name)
	}
	p, n := e.prepareLocked(ctx, []domain.Field{field}, passPlan{
		action:      action,
		firstFields: domain.FirstFields{All: meta.ValidateFirst},
	})
	e.mu.Unlock()

	e.emit(n)
	e.dispatch(p)
	return nil
}

// collectCommon runs the action listener, extracts the value and reports a
// value change. It returns the record of name carrying the new value.
func (e *Engine) collectCommon(name, action string, args []any) (domain.Field, domain.Meta, error) {
	e.mu.Lock()
	meta, ok := e.store.Meta(name)
	listener := e.listeners[name][action]
	e.mu.Unlock()
	if !ok {
		return domain.Field{}, domain.Meta{}, fmt.Errorf("%w: %s", domain.ErrFieldNotFound, name)
	}

	if listener != nil {
		listener(args...)
	}

	var value any
	if meta.GetValueFromEvent != nil {
		value = meta.GetValueFromEvent(args...)
	} else {
		value = ValueFromEvent(args...)
	}

	e.mu.Lock()
	var n notice
	if e.hooks.OnValuesChange != nil && !equal(value, e.store.EffectiveValue(name)) {
		all, err := fieldpath.Set(e.store.AllValues(), name, value)
		if err == nil {
			n.valuesChanged = nestValues(map[string]any{name: value})
			n.allValues = all.(map[string]any)
			n.hasValues = true
		}
	}
	field := e.store.Field(name)
	field.Value = value
	field.HasValue = true
	field.Touched = true
	e.mu.Unlock()

	e.emit(n)
	return field, meta, nil
}
