package fieldpath

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is one step of a path: an object key or a list index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

func (s Segment) String() string {
	if s.IsIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Key
}

// Key returns a key segment.
func Key(k string) Segment { return Segment{Key: k} }

// Index returns an index segment.
func Index(i int) Segment { return Segment{Index: i, IsIndex: true} }

// Parse splits a path such as `list[0].name` into its segments.
func Parse(path string) ([]Segment, error) {
	if path == "" {
		return nil, fmt.Errorf("empty path")
	}

	var segs []Segment
	i := 0
	expectKey := true // a key may start at the beginning or after a dot
	for i < len(path) {
		switch c := path[i]; c {
		case '[':
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("path %q: unterminated index at offset %d", path, i)
			}
			raw := path[i+1 : i+end]
			idx, err := strconv.Atoi(raw)
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("path %q: invalid index %q", path, raw)
			}
			segs = append(segs, Index(idx))
			i += end + 1
			expectKey = false
		case '.':
			if i == 0 || i == len(path)-1 || path[i+1] == '.' || path[i+1] == '[' {
				return nil, fmt.Errorf("path %q: empty key at offset %d", path, i)
			}
			i++
			expectKey = true
		default:
			if !expectKey {
				return nil, fmt.Errorf("path %q: missing separator at offset %d", path, i)
			}
			end := strings.IndexAny(path[i:], ".[")
			if end < 0 {
				end = len(path) - i
			}
			if strings.IndexByte(path[i:i+end], ']') >= 0 {
				return nil, fmt.Errorf("path %q: unexpected ']' at offset %d", path, i)
			}
			segs = append(segs, Key(path[i:i+end]))
			i += end
			expectKey = false
		}
	}
	return segs, nil
}

// Join renders segments in canonical form.
func Join(segs []Segment) string {
	var b strings.Builder
	for i, s := range segs {
		if !s.IsIndex && i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.String())
	}
	return b.String()
}

// Child appends a key to path.
func Child(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// Element appends an index to path.
func Element(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

// IsAncestor reports whether a is a strict ancestor of b (`a` of `a.b` or `a[0]`).
// `a` is not an ancestor of `ab`.
func IsAncestor(a, b string) bool {
	return len(b) > len(a) && strings.HasPrefix(b, a) && (b[len(a)] == '.' || b[len(a)] == '[')
}

// Related reports whether one of the paths is an ancestor of the other.
func Related(a, b string) bool {
	return IsAncestor(a, b) || IsAncestor(b, a)
}

// HasPrefix reports whether full equals partial or lies below it.
func HasPrefix(full, partial string) bool {
	return full == partial || IsAncestor(partial, full)
}

// TrimPrefix returns the part of full below prefix, keeping a leading index
// segment (`a[0].b` minus `a` is `[0].b`, `a.b` minus `a` is `b`).
func TrimPrefix(full, prefix string) string {
	if !IsAncestor(prefix, full) {
		return full
	}
	if full[len(prefix)] == '[' {
		return full[len(prefix):]
	}
	return full[len(prefix)+1:]
}
