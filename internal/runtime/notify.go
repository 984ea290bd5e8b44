package runtime

import (
	"reflect"
	"slices"

	"github.com/aretw0/formwork/pkg/fieldpath"
)

// notice holds the hook payloads prepared under the lock.
type notice struct {
	storeChanged []string

	fieldsChanged map[string]any
	allFields     map[string]any
	hasFields     bool

	valuesChanged map[string]any
	allValues     map[string]any
	hasValues     bool
}

// noticeLocked prepares the notifications for a store write. patched holds
// the names that were written, changed or not.
func (e *Engine) noticeLocked(changed, patched []string) notice {
	n := notice{storeChanged: changed}
	if e.hooks.OnFieldsChange != nil && len(patched) > 0 {
		n.fieldsChanged = e.store.NestedFields(slices.Sorted(slices.Values(patched)))
		n.allFields = e.store.NestedAllFields()
		n.hasFields = true
	}
	return n
}

// emit runs the hooks of n. Must be called without the lock.
func (e *Engine) emit(n notice) {
	if n.hasFields {
		e.hooks.OnFieldsChange(n.fieldsChanged, n.allFields)
	}
	if n.hasValues {
		e.hooks.OnValuesChange(n.valuesChanged, n.allValues)
	}
	if len(n.storeChanged) > 0 && e.hooks.OnStoreChange != nil {
		e.hooks.OnStoreChange(n.storeChanged)
	}
}

func equal(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// nestValues turns a flat name -> value mapping into a tree.
func nestValues(flat map[string]any) map[string]any {
	tree, err := fieldpath.Unflatten(flat)
	if err != nil {
		return map[string]any{}
	}
	if m, ok := tree.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}
