package domain

import (
	"context"
	"time"
)

// PassEvent describes one validation pass.
type PassEvent struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Action    string        `json:"action,omitempty"`
	Fields    []string      `json:"fields"`
	Expired   []string      `json:"expired,omitempty"`
	Failed    []string      `json:"failed,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Err       error         `json:"-"`
}

// Hooks defines callbacks for store and validation observability.
// Every hook is invoked outside of the engine lock.
type Hooks struct {
	// OnFieldsChange receives the changed fields and every field, both nested by path.
	OnFieldsChange func(changed, all map[string]any)

	// OnValuesChange receives the changed values and every value, both nested by path.
	OnValuesChange func(changed, all map[string]any)

	// OnStoreChange receives the names of the records that changed.
	OnStoreChange func(names []string)

	OnValidationStart func(context.Context, *PassEvent)
	OnValidationDone  func(context.Context, *PassEvent)
}

// Merge returns hooks that call both h and other.
func (h Hooks) Merge(other Hooks) Hooks {
	return Hooks{
		OnFieldsChange:    chain2(h.OnFieldsChange, other.OnFieldsChange),
		OnValuesChange:    chain2(h.OnValuesChange, other.OnValuesChange),
		OnStoreChange:     chain1(h.OnStoreChange, other.OnStoreChange),
		OnValidationStart: chain2(h.OnValidationStart, other.OnValidationStart),
		OnValidationDone:  chain2(h.OnValidationDone, other.OnValidationDone),
	}
}

func chain1[A any](a, b func(A)) func(A) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(x A) {
		a(x)
		b(x)
	}
}

func chain2[A, B any](a, b func(A, B)) func(A, B) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(x A, y B) {
		a(x, y)
		b(x, y)
	}
}
