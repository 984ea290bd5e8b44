package fieldpath

import (
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/formwork/pkg/domain"
)

// LeafFunc decides whether node, found at path, is a leaf of the traversal.
type LeafFunc func(path string, node any) bool

// IsScalar treats every value that is not a map or a list as a leaf.
func IsScalar(_ string, node any) bool {
	return !isContainer(node)
}

// Flatten converts a nested structure into a map keyed by canonical path.
// Maps are traversed in sorted key order and nil subtrees are skipped.
// A node that is neither a leaf nor a container is reported through a
// *domain.MalformedStructureError; traversal goes on with its siblings, so the
// returned map always holds every leaf that could be collected.
func Flatten(tree any, isLeaf LeafFunc) (map[string]any, error) {
	w := walker{isLeaf: isLeaf, out: make(map[string]any)}
	w.walk("", tree)
	if len(w.malformed) > 0 {
		return w.out, &domain.MalformedStructureError{Paths: w.malformed}
	}
	return w.out, nil
}

type walker struct {
	isLeaf    LeafFunc
	out       map[string]any
	malformed []string
}

func (w *walker) walk(path string, node any) {
	if w.isLeaf(path, node) {
		w.out[path] = node
		return
	}
	if node == nil {
		return
	}
	if !isContainer(node) {
		w.malformed = append(w.malformed, path)
		return
	}

	switch v := node.(type) {
	case map[string]any:
		for _, k := range sortedKeys(v) {
			w.walk(Child(path, k), v[k])
		}
		return
	case []any:
		for i, child := range v {
			w.walk(Element(path, i), child)
		}
		return
	}

	rv := reflect.ValueOf(node)
	if rv.Kind() == reflect.Map {
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		for _, k := range keys {
			w.walk(Child(path, k), rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface())
		}
		return
	}
	for i := 0; i < rv.Len(); i++ {
		w.walk(Element(path, i), rv.Index(i).Interface())
	}
}

// Unflatten builds a fresh nested structure from a flat path map.
// The root is a list when every path starts with an index, a map otherwise.
func Unflatten(flat map[string]any) (any, error) {
	paths := sortedKeys(flat)

	var root any = map[string]any{}
	if len(paths) > 0 && allIndexed(paths) {
		root = []any{}
	}

	for _, p := range paths {
		var err error
		root, err = Set(root, p, flat[p])
		if err != nil {
			return nil, err
		}
	}
	return root, nil
}

// Set stores value at path below root and returns the (possibly new) root.
// Intermediate maps and lists are created as needed; existing containers are
// modified in place.
func Set(root any, path string, value any) (any, error) {
	segs, err := Parse(path)
	if err != nil {
		return root, err
	}
	return setSegments(root, segs, value), nil
}

func setSegments(node any, segs []Segment, value any) any {
	if len(segs) == 0 {
		return value
	}
	seg, rest := segs[0], segs[1:]

	if seg.IsIndex {
		if m, ok := node.(map[string]any); ok {
			key := strconv.Itoa(seg.Index)
			m[key] = setSegments(m[key], rest, value)
			return m
		}
		list, _ := node.([]any)
		for len(list) <= seg.Index {
			list = append(list, nil)
		}
		list[seg.Index] = setSegments(list[seg.Index], rest, value)
		return list
	}

	m, ok := node.(map[string]any)
	if !ok {
		m = make(map[string]any)
	}
	m[seg.Key] = setSegments(m[seg.Key], rest, value)
	return m
}

// Get returns the value stored at path below root.
func Get(root any, path string) (any, bool) {
	segs, err := Parse(path)
	if err != nil {
		return nil, false
	}
	node := root
	for _, seg := range segs {
		switch v := node.(type) {
		case map[string]any:
			key := seg.Key
			if seg.IsIndex {
				key = strconv.Itoa(seg.Index)
			}
			next, ok := v[key]
			if !ok {
				return nil, false
			}
			node = next
		case []any:
			if !seg.IsIndex || seg.Index >= len(v) {
				return nil, false
			}
			node = v[seg.Index]
		default:
			return nil, false
		}
	}
	return node, true
}

func isContainer(node any) bool {
	switch node.(type) {
	case map[string]any, []any:
		return true
	case nil:
		return false
	}
	switch reflect.ValueOf(node).Kind() {
	case reflect.Map:
		return reflect.TypeOf(node).Key().Kind() == reflect.String
	case reflect.Slice, reflect.Array:
		// []byte is a value, not a list of fields
		return reflect.TypeOf(node).Elem().Kind() != reflect.Uint8
	}
	return false
}

func allIndexed(paths []string) bool {
	for _, p := range paths {
		if !strings.HasPrefix(p, "[") {
			return false
		}
	}
	return true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
