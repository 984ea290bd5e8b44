package store

import (
	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/fieldpath"
)

// FieldValue returns the value of name. When name is a prefix of registered
// fields rather than a field, their values are returned nested below it.
func (s *Store) FieldValue(name string) any {
	return s.nestedField(name, s.EffectiveValue)
}

// FieldsValue returns the nested values of names, or of every visible field.
func (s *Store) FieldsValue(names []string) map[string]any {
	return s.nestedFields(names, s.FieldValue)
}

// FieldError returns the error messages of name, nested like FieldValue.
func (s *Store) FieldError(name string) any {
	return s.nestedField(name, func(full string) any {
		if msgs := s.fields[full].ErrorMessages(); msgs != nil {
			return msgs
		}
		return nil
	})
}

// FieldsError returns the nested error messages of names, or of every visible field.
func (s *Store) FieldsError(names []string) map[string]any {
	return s.nestedFields(names, s.FieldError)
}

// IsFieldTouched reports whether name was touched by the user.
func (s *Store) IsFieldTouched(name string) bool {
	return s.fields[name].Touched
}

// IsFieldsTouched reports whether any of names, or any visible field, was touched.
func (s *Store) IsFieldsTouched(names []string) bool {
	return s.any(names, s.IsFieldTouched)
}

// IsFieldValidating reports whether a validation pass is in flight for name.
func (s *Store) IsFieldValidating(name string) bool {
	return s.fields[name].Validating
}

// IsFieldsValidating reports whether any of names, or any visible field, is validating.
func (s *Store) IsFieldsValidating(names []string) bool {
	return s.any(names, s.IsFieldValidating)
}

// AllValues returns the effective value of every registered field, nested by path.
func (s *Store) AllValues() map[string]any {
	acc := map[string]any{}
	for _, name := range s.names {
		acc = setPath(acc, name, s.EffectiveValue(name))
	}
	return acc
}

// NestedFields returns the records of names nested by path.
func (s *Store) NestedFields(names []string) map[string]any {
	acc := map[string]any{}
	for _, name := range names {
		acc = setPath(acc, name, s.Field(name))
	}
	return acc
}

// NestedAllFields returns every record nested by path, including visible
// fields that were registered but never written.
func (s *Store) NestedAllFields() map[string]any {
	acc := map[string]any{}
	for _, name := range s.ValidFieldNames() {
		if _, ok := s.fields[name]; ok {
			continue
		}
		meta := s.metas[name]
		acc = setPath(acc, name, domain.Field{
			Name:     name,
			Value:    meta.InitialValue,
			HasValue: meta.HasInitialValue,
		})
	}
	for name := range s.fields {
		acc = setPath(acc, name, s.Field(name))
	}
	return acc
}

func (s *Store) nestedField(name string, get func(string) any) any {
	full := s.ValidFullNames([]string{name})
	if len(full) == 0 || (len(full) == 1 && full[0] == name) {
		return get(name)
	}

	var acc any = map[string]any{}
	if full[0][len(name)] == '[' {
		acc = []any{}
	}
	for _, fn := range full {
		acc, _ = fieldpath.Set(acc, fieldpath.TrimPrefix(fn, name), get(fn))
	}
	return acc
}

func (s *Store) nestedFields(names []string, get func(string) any) map[string]any {
	if names == nil {
		names = s.ValidFieldNames()
	}
	acc := map[string]any{}
	for _, name := range names {
		acc = setPath(acc, name, get(name))
	}
	return acc
}

func (s *Store) any(names []string, pred func(string) bool) bool {
	if names == nil {
		names = s.ValidFieldNames()
	}
	for _, name := range names {
		if pred(name) {
			return true
		}
	}
	return false
}

// setPath ignores malformed paths: registered names are parsed at registration.
func setPath(acc map[string]any, path string, v any) map[string]any {
	out, err := fieldpath.Set(acc, path, v)
	if err != nil {
		return acc
	}
	return out.(map[string]any)
}
