package runtime

import "github.com/aretw0/formwork/pkg/domain"

// FieldValue returns the value of name, or the nested values below a prefix.
func (e *Engine) FieldValue(name string) any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.FieldValue(name)
}

// FieldsValue returns the nested values of names, or of every visible field.
func (e *Engine) FieldsValue(names ...string) map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.FieldsValue(nilIfEmpty(names))
}

// FieldError returns the error messages of name, or nil.
func (e *Engine) FieldError(name string) any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.FieldError(name)
}

// FieldsError returns the nested error messages of names, or of every visible field.
func (e *Engine) FieldsError(names ...string) map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.FieldsError(nilIfEmpty(names))
}

func (e *Engine) IsFieldTouched(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.IsFieldTouched(name)
}

func (e *Engine) IsFieldsTouched(names ...string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.IsFieldsTouched(nilIfEmpty(names))
}

func (e *Engine) IsFieldValidating(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.IsFieldValidating(name)
}

func (e *Engine) IsFieldsValidating(names ...string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.IsFieldsValidating(nilIfEmpty(names))
}

// AllValues returns the value of every registered field, hidden ones included.
func (e *Engine) AllValues() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.AllValues()
}

// Field returns a copy of the record of name.
func (e *Engine) Field(name string) (domain.Field, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.store.Meta(name); !ok {
		return domain.Field{}, false
	}
	return e.store.Field(name), true
}

// Meta returns the registration metadata of name.
func (e *Engine) Meta(name string) (domain.Meta, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Meta(name)
}

// Names returns every registered name in registration order.
func (e *Engine) Names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.AllFieldNames()
}

func nilIfEmpty(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	return names
}
