// Package store owns the field records and the field metadata of a form.
//
// The Store is not safe for concurrent use; the runtime engine serializes
// access to it.
package store

import (
	"errors"
	"maps"
	"reflect"
	"slices"

	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/fieldpath"
)

// Store keeps two owned mappings: name -> record and name -> metadata.
// Reads never create entries; every creation goes through an explicit upsert.
type Store struct {
	fields map[string]domain.Field
	metas  map[string]domain.Meta
	names  []string // registration order of metas
}

// New creates an empty store.
func New() *Store {
	return &Store{
		fields: make(map[string]domain.Field),
		metas:  make(map[string]domain.Meta),
	}
}

// FlattenFields flattens a nested tree whose leaves are domain.Field records.
// Each record is renamed after the path it was found at.
func FlattenFields(tree any) (map[string]domain.Field, error) {
	flat, err := fieldpath.Flatten(tree, func(_ string, node any) bool {
		_, ok := node.(domain.Field)
		return ok
	})
	out := make(map[string]domain.Field, len(flat))
	for name, node := range flat {
		f := node.(domain.Field)
		f.Name = name
		out[name] = f
	}
	return out, err
}

// UpdateFields replaces every record with the ones found in tree.
// Records that were collected before the error are kept.
func (s *Store) UpdateFields(tree any) ([]string, error) {
	next, err := FlattenFields(tree)
	changed := domain.DiffFields(s.fields, next)
	s.fields = next
	return changed, err
}

// FlattenRegistered flattens tree using "is a registered field" as the leaf
// predicate. Values found at unregistered leaf positions are reported with a
// *domain.UnregisteredFieldError; the registered ones are still returned.
func (s *Store) FlattenRegistered(tree any) (map[string]any, error) {
	flat, err := fieldpath.Flatten(tree, func(path string, _ any) bool {
		_, ok := s.metas[path]
		return ok
	})
	var malformed *domain.MalformedStructureError
	if errors.As(err, &malformed) {
		return flat, &domain.UnregisteredFieldError{Names: malformed.Paths}
	}
	return flat, err
}

// RegisterOrUpdateMeta upserts the metadata of name. An existing initial value
// and existing hook functions are kept unless meta supplies them again.
func (s *Store) RegisterOrUpdateMeta(name string, meta domain.Meta) {
	if prev, ok := s.metas[name]; ok {
		if !meta.HasInitialValue {
			meta.InitialValue = prev.InitialValue
			meta.HasInitialValue = prev.HasInitialValue
		}
		if meta.Normalize == nil {
			meta.Normalize = prev.Normalize
		}
		if meta.GetValueFromEvent == nil {
			meta.GetValueFromEvent = prev.GetValueFromEvent
		}
		if meta.GetValueProps == nil {
			meta.GetValueProps = prev.GetValueProps
		}
	}
	s.SetMeta(name, meta)
}

// SetMeta replaces the metadata of name.
func (s *Store) SetMeta(name string, meta domain.Meta) {
	meta.Name = name
	if _, ok := s.metas[name]; !ok {
		s.names = append(s.names, name)
	}
	s.metas[name] = meta
}

// Meta returns the metadata of name.
func (s *Store) Meta(name string) (domain.Meta, bool) {
	m, ok := s.metas[name]
	return m, ok
}

// SetFieldsInitialValue sets the initial value of the registered fields found in tree.
func (s *Store) SetFieldsInitialValue(tree any) error {
	flat, err := s.FlattenRegistered(tree)
	for name, v := range flat {
		meta := s.metas[name]
		meta.InitialValue = v
		meta.HasInitialValue = true
		s.metas[name] = meta
	}
	return err
}

// SetFields merges patches into the records, then runs every normalizer
// against the pending values. Fields whose effective value changed, or whose
// record did not exist yet, are marked dirty unless the patch says otherwise. The new records replace the old ones
// in a single step. It returns the names whose record changed.
func (s *Store) SetFields(patches map[string]domain.Patch) []string {
	next := maps.Clone(s.fields)
	if next == nil {
		next = make(map[string]domain.Field)
	}
	for name, p := range patches {
		f := next[name]
		f.Name = name
		next[name] = p.Apply(f)
	}

	pending := make(map[string]any, len(s.names))
	for _, name := range s.names {
		pending[name] = s.valueFrom(name, next)
	}
	for _, name := range s.names {
		normalize := s.metas[name].Normalize
		if normalize == nil {
			continue
		}
		value := pending[name]
		normalized := normalize(value, s.valueFrom(name, s.fields), pending)
		if !reflect.DeepEqual(normalized, value) {
			f := next[name]
			f.Name = name
			f.Value = normalized
			f.HasValue = true
			next[name] = f
		}
	}

	// A value that changed without an explicit dirty flag has not been
	// validated yet. Neither has a reset field, nor one whose record is
	// created by this write.
	for _, name := range s.names {
		p, patched := patches[name]
		if patched && p.Dirty.Set {
			continue
		}
		_, existed := s.fields[name]
		if (patched && (p.Reset || !existed)) || !reflect.DeepEqual(s.valueFrom(name, s.fields), s.valueFrom(name, next)) {
			f := next[name]
			f.Name = name
			f.Dirty = true
			next[name] = f
		}
	}

	changed := domain.DiffFields(s.fields, next)
	s.fields = next
	return changed
}

// ResetFields returns reset patches for the targeted fields that carry an
// explicit value. Without names every registered field is targeted; names may
// be path prefixes.
func (s *Store) ResetFields(names []string) map[string]domain.Patch {
	targets := s.AllFieldNames()
	if len(names) > 0 {
		targets = s.ValidFullNames(names)
	}
	patches := make(map[string]domain.Patch)
	for _, name := range targets {
		if f, ok := s.fields[name]; ok && f.HasValue {
			patches[name] = domain.Patch{Reset: true}
		}
	}
	return patches
}

// Field returns a copy of the record of name.
func (s *Store) Field(name string) domain.Field {
	f := s.fields[name]
	f.Name = name
	f.Errors = slices.Clone(f.Errors)
	return f
}

// HasField reports whether a record exists for name.
func (s *Store) HasField(name string) bool {
	_, ok := s.fields[name]
	return ok
}

// Snapshot returns the record and metadata of name.
func (s *Store) Snapshot(name string) (domain.Snapshot, bool) {
	meta, ok := s.metas[name]
	if !ok {
		return domain.Snapshot{}, false
	}
	return domain.Snapshot{Field: s.Field(name), Meta: meta}, true
}

// Restore puts back a snapshot taken before ClearField.
func (s *Store) Restore(snap domain.Snapshot) {
	name := snap.Meta.Name
	if name == "" {
		name = snap.Field.Name
	}
	f := snap.Field
	f.Name = name
	s.fields[name] = f
	s.SetMeta(name, snap.Meta)
}

// ClearField removes both the record and the metadata of name.
func (s *Store) ClearField(name string) {
	delete(s.fields, name)
	if _, ok := s.metas[name]; ok {
		delete(s.metas, name)
		s.names = slices.DeleteFunc(s.names, func(n string) bool { return n == name })
	}
}

// EffectiveValue returns the explicit value of name, or its initial value.
func (s *Store) EffectiveValue(name string) any {
	return s.valueFrom(name, s.fields)
}

func (s *Store) valueFrom(name string, fields map[string]domain.Field) any {
	if f, ok := fields[name]; ok && f.HasValue {
		return f.Value
	}
	return s.metas[name].InitialValue
}

// ValuePropValue returns the props carrying the value of the field described by meta.
func (s *Store) ValuePropValue(meta domain.Meta) map[string]any {
	value := meta.InitialValue
	if f, ok := s.fields[meta.Name]; ok && f.HasValue {
		value = f.Value
	}
	if meta.GetValueProps != nil {
		return meta.GetValueProps(value)
	}
	prop := meta.ValuePropName
	if prop == "" {
		prop = domain.DefaultValuePropName
	}
	return map[string]any{prop: value}
}

// AllFieldNames returns every registered name in registration order.
func (s *Store) AllFieldNames() []string {
	return slices.Clone(s.names)
}

// ValidFieldNames returns the registered names that are not hidden.
func (s *Store) ValidFieldNames() []string {
	var names []string
	for _, name := range s.names {
		if !s.metas[name].Hidden {
			names = append(names, name)
		}
	}
	return names
}

// ValidFullNames returns the non hidden names equal to, or below, one of partials.
func (s *Store) ValidFullNames(partials []string) []string {
	var names []string
	for _, full := range s.ValidFieldNames() {
		if slices.ContainsFunc(partials, func(p string) bool { return fieldpath.HasPrefix(full, p) }) {
			names = append(names, full)
		}
	}
	return names
}

// IsValidNestedFieldName reports whether name can be registered without
// standing in an ancestor/descendant relation with another name.
func (s *Store) IsValidNestedFieldName(name string) bool {
	_, conflict := s.Conflict(name)
	return !conflict
}

// Conflict returns the first registered name related to name.
func (s *Store) Conflict(name string) (string, bool) {
	for _, n := range s.names {
		if fieldpath.Related(n, name) {
			return n, true
		}
	}
	return "", false
}
