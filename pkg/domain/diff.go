package domain

import (
	"reflect"
	"sort"
)

// DiffFields returns the names whose record differs between oldFields and newFields,
// including records that were added or removed. The result is sorted.
func DiffFields(oldFields, newFields map[string]Field) []string {
	var changed []string

	// Added or modified
	for name, nf := range newFields {
		of, exists := oldFields[name]
		if !exists || !reflect.DeepEqual(of, nf) {
			changed = append(changed, name)
		}
	}

	// Removed
	for name := range oldFields {
		if _, exists := newFields[name]; !exists {
			changed = append(changed, name)
		}
	}

	sort.Strings(changed)
	return changed
}
