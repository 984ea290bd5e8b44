package runtime

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/formwork/internal/ruleindex"
	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/ports"
)

// passPlan describes what a validation pass runs and reports.
type passPlan struct {
	// names whose values are reported; nil means every visible field.
	names       []string
	action      string
	options     domain.ValidateOptions
	firstFields domain.FirstFields
	callback    domain.Callback
}

// pass is a validation pass between dispatch and reconciliation.
type pass struct {
	ctx      context.Context
	plan     passPlan
	event    *domain.PassEvent
	rules    map[string][]domain.Rule
	values   map[string]any
	retained map[string]domain.FieldErrors
}

// ValidateFields validates the requested fields that have rules and reports
// the outcome to cb, which may be nil. cb runs synchronously when no field
// needs validation, and from the pass goroutine otherwise.
func (e *Engine) ValidateFields(ctx context.Context, req domain.ValidateRequest, cb domain.Callback) {
	e.mu.Lock()
	names := e.store.ValidFieldNames()
	if len(req.Names) > 0 {
		names = e.store.ValidFullNames(req.Names)
	}

	var candidates []domain.Field
	for _, name := range names {
		meta, _ := e.store.Meta(name)
		if !ruleindex.HasRules(meta.Validate) {
			continue
		}
		f := e.store.Field(name)
		if !e.store.HasField(name) {
			f.Dirty = true
		}
		f.Value = e.store.EffectiveValue(name)
		f.HasValue = true
		candidates = append(candidates, f)
	}

	if len(candidates) == 0 {
		values := e.store.FieldsValue(names)
		e.mu.Unlock()
		if cb != nil {
			cb(domain.Result{Values: values}, nil)
		}
		return
	}

	var firstFields domain.FirstFields
	if req.Options.FirstFields != nil {
		firstFields = *req.Options.FirstFields
	} else {
		for _, name := range names {
			if meta, _ := e.store.Meta(name); meta.ValidateFirst {
				firstFields.Names = append(firstFields.Names, name)
			}
		}
	}

	p, n := e.prepareLocked(ctx, candidates, passPlan{
		names:       names,
		action:      req.Action,
		options:     req.Options,
		firstFields: firstFields,
		callback:    cb,
	})
	e.mu.Unlock()

	e.emit(n)
	e.dispatch(p)
}

// Validate is the blocking form of ValidateFields.
func (e *Engine) Validate(ctx context.Context, req domain.ValidateRequest) (domain.Result, error) {
	type outcome struct {
		res domain.Result
		err error
	}
	done := make(chan outcome, 1)
	e.ValidateFields(ctx, req, func(res domain.Result, err error) {
		done <- outcome{res, err}
	})

	select {
	case out := <-done:
		return out.res, out.err
	case <-ctx.Done():
		return domain.Result{}, ctx.Err()
	}
}

// prepareLocked selects the candidates that need validation and marks them
// as validating. Clean fields keep their last errors, which are reported
// with the pass outcome.
func (e *Engine) prepareLocked(ctx context.Context, candidates []domain.Field, plan passPlan) (*pass, notice) {
	p := &pass{
		ctx:      ctx,
		plan:     plan,
		rules:    make(map[string][]domain.Rule),
		values:   make(map[string]any),
		retained: make(map[string]domain.FieldErrors),
	}

	patches := make(map[string]domain.Patch)
	for _, f := range candidates {
		if !plan.options.Force && !f.Dirty {
			if len(f.Errors) > 0 {
				p.retained[f.Name] = domain.FieldErrors{Errors: slices.Clone(f.Errors)}
			}
			continue
		}
		meta, _ := e.store.Meta(f.Name)
		p.rules[f.Name] = ruleindex.ForAction(meta, plan.action)
		patches[f.Name] = domain.Patch{
			Value:      domain.Some(f.Value),
			Errors:     domain.Some[[]domain.ErrorEntry](nil),
			Touched:    domain.Some(f.Touched),
			Dirty:      domain.Some(true),
			Validating: domain.Some(true),
		}
	}
	n := e.setFieldsLocked(patches)

	// Read back after normalization.
	for name := range p.rules {
		p.values[name] = e.store.EffectiveValue(name)
	}

	if len(p.rules) > 0 {
		fields := make([]string, 0, len(p.rules))
		for name := range p.rules {
			fields = append(fields, name)
		}
		slices.Sort(fields)
		p.event = &domain.PassEvent{
			ID:        uuid.NewString(),
			Timestamp: time.Now(),
			Action:    plan.action,
			Fields:    fields,
		}
	}
	return p, n
}

// dispatch hands the pass to the validator in its own goroutine. A pass
// that selected nothing completes synchronously with the retained errors.
func (e *Engine) dispatch(p *pass) {
	if len(p.rules) == 0 {
		e.mu.Lock()
		values := e.store.FieldsValue(p.plan.names)
		e.mu.Unlock()
		if p.plan.callback != nil {
			p.plan.callback(domain.Result{Errors: errorsOrNil(p.retained), Values: values}, nil)
		}
		return
	}

	if e.hooks.OnValidationStart != nil {
		e.hooks.OnValidationStart(p.ctx, p.event)
	}
	e.logger.Debug("validation pass dispatched",
		"pass_id", p.event.ID,
		"action", p.plan.action,
		"fields", p.event.Fields)

	req := ports.ValidationRequest{
		Rules:       p.rules,
		Values:      p.values,
		First:       p.plan.options.First,
		FirstFields: p.plan.firstFields,
	}

	e.passes.Add(1)
	go func() {
		defer e.passes.Done()
		entries, err := e.validator.Validate(p.ctx, req)
		e.reconcile(p, entries, err)
	}()
}

// reconcile commits the outcome for every dispatched field whose value is
// still the one that was validated. The others are reported as expired and
// their live state is left alone.
func (e *Engine) reconcile(p *pass, entries []domain.ErrorEntry, verr error) {
	grouped := make(map[string]domain.FieldErrors, len(p.retained))
	for name, fe := range p.retained {
		grouped[name] = fe
	}
	if verr == nil {
		for _, entry := range entries {
			fe := grouped[entry.Field]
			fe.Errors = append(fe.Errors, entry)
			grouped[entry.Field] = fe
		}
	}

	e.mu.Lock()
	var expired []string
	patches := make(map[string]domain.Patch)
	for _, name := range p.event.Fields {
		if !e.store.HasField(name) || !equal(e.store.EffectiveValue(name), p.values[name]) {
			expired = append(expired, name)
			continue
		}
		if verr != nil {
			patches[name] = domain.Patch{Validating: domain.Some(false)}
			continue
		}
		patches[name] = domain.Patch{
			Errors:     domain.Some(grouped[name].Errors),
			Validating: domain.Some(false),
			Dirty:      domain.Some(false),
		}
	}
	n := e.setFieldsLocked(patches)

	for _, name := range expired {
		grouped[name] = domain.FieldErrors{
			Errors:  []domain.ErrorEntry{{Field: name, Message: fmt.Sprintf("%s need to revalidate", name)}},
			Expired: true,
		}
	}
	values := e.store.FieldsValue(p.plan.names)
	e.mu.Unlock()

	e.emit(n)

	event := *p.event
	event.Duration = time.Since(p.event.Timestamp)
	event.Expired = expired
	event.Err = verr
	for _, name := range p.event.Fields {
		if len(grouped[name].Errors) > 0 && !grouped[name].Expired {
			event.Failed = append(event.Failed, name)
		}
	}

	if verr != nil {
		e.logger.Error("validation pass failed", "pass_id", event.ID, "error", verr)
	} else {
		e.logger.Debug("validation pass reconciled",
			"pass_id", event.ID,
			"failed", event.Failed,
			"expired", event.Expired,
			"duration", event.Duration)
	}

	if e.hooks.OnValidationDone != nil {
		e.hooks.OnValidationDone(p.ctx, &event)
	}

	if p.plan.callback == nil {
		return
	}
	if verr != nil {
		p.plan.callback(domain.Result{Values: values}, fmt.Errorf("validation pass %s: %w", event.ID, verr))
		return
	}
	p.plan.callback(domain.Result{Errors: errorsOrNil(grouped), Values: values}, nil)
}

func errorsOrNil(m map[string]domain.FieldErrors) map[string]domain.FieldErrors {
	for name, fe := range m {
		if len(fe.Errors) == 0 {
			delete(m, name)
		}
	}
	if len(m) == 0 {
		return nil
	}
	return m
}
