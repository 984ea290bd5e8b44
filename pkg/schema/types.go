package schema

import (
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

// Rule defines the contract for field validation.
type Rule interface {
	// Name returns the textual form of the rule (e.g. "string", "len=3,8").
	// ParseRule(Name()) rebuilds an equivalent built-in rule.
	Name() string
	// Validate checks if a value conforms to this rule.
	// The error reads as a predicate of the field, e.g. "is required".
	Validate(value any) error
}

// check is the shared implementation of the built-in rules.
type check struct {
	name      string
	skipEmpty bool
	fn        func(any) error
}

func (c *check) Name() string { return c.name }

func (c *check) Validate(value any) error {
	if c.skipEmpty && IsEmpty(value) {
		return nil
	}
	return c.fn(value)
}

// IsEmpty reports whether value counts as missing: nil, an empty string, or
// an empty slice or map.
func IsEmpty(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return s == ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// --- Built-in Rules ---

// Required fails on empty values.
func Required() Rule {
	return &check{name: "required", fn: func(v any) error {
		if IsEmpty(v) {
			return fmt.Errorf("is required")
		}
		return nil
	}}
}

// String accepts strings.
func String() Rule {
	return &check{name: "string", skipEmpty: true, fn: func(v any) error {
		if _, ok := v.(string); !ok {
			return fmt.Errorf("must be a string, got %T", v)
		}
		return nil
	}}
}

// Int accepts integers, and floats that are whole numbers (from JSON unmarshaling).
func Int() Rule {
	return &check{name: "int", skipEmpty: true, fn: func(v any) error {
		switch n := v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return nil
		case float64:
			if n == float64(int64(n)) {
				return nil
			}
			return fmt.Errorf("must be an int, got a float that is not a whole number")
		default:
			return fmt.Errorf("must be an int, got %T", v)
		}
	}}
}

// Float accepts any number.
func Float() Rule {
	return &check{name: "float", skipEmpty: true, fn: func(v any) error {
		if _, ok := toFloat(v); !ok {
			return fmt.Errorf("must be a number, got %T", v)
		}
		return nil
	}}
}

// Bool accepts booleans.
func Bool() Rule {
	return &check{name: "bool", skipEmpty: true, fn: func(v any) error {
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("must be a bool, got %T", v)
		}
		return nil
	}}
}

// Slice accepts slices whose elements all satisfy elem.
func Slice(elem Rule) Rule {
	return &check{name: "[" + elem.Name() + "]", skipEmpty: true, fn: func(v any) error {
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return fmt.Errorf("must be a list, got %T", v)
		}
		for i := 0; i < rv.Len(); i++ {
			if err := elem.Validate(rv.Index(i).Interface()); err != nil {
				return fmt.Errorf("element %d %w", i, err)
			}
		}
		return nil
	}}
}

// Pattern accepts strings matching re.
func Pattern(re *regexp.Regexp) Rule {
	return &check{name: "pattern=" + re.String(), skipEmpty: true, fn: func(v any) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("must be a string, got %T", v)
		}
		if !re.MatchString(s) {
			return fmt.Errorf("does not match %s", re.String())
		}
		return nil
	}}
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Email accepts strings that look like an e-mail address.
func Email() Rule {
	return &check{name: "email", skipEmpty: true, fn: func(v any) error {
		s, ok := v.(string)
		if !ok || !emailPattern.MatchString(s) {
			return fmt.Errorf("is not a valid email")
		}
		return nil
	}}
}

// Length bounds the length of strings (in runes), slices and maps, or the
// value of numbers. A negative max means no upper bound.
func Length(min, max int) Rule {
	name := fmt.Sprintf("len=%d,", min)
	if max >= 0 {
		name += fmt.Sprint(max)
	}
	return &check{name: name, skipEmpty: true, fn: func(v any) error {
		var n float64
		switch x := v.(type) {
		case string:
			n = float64(utf8.RuneCountInString(x))
		default:
			if f, ok := toFloat(v); ok {
				n = f
				break
			}
			rv := reflect.ValueOf(v)
			switch rv.Kind() {
			case reflect.Slice, reflect.Array, reflect.Map:
				n = float64(rv.Len())
			default:
				return fmt.Errorf("has no length, got %T", v)
			}
		}
		if n < float64(min) || (max >= 0 && n > float64(max)) {
			if max < 0 {
				return fmt.Errorf("must be at least %d", min)
			}
			return fmt.Errorf("must be between %d and %d", min, max)
		}
		return nil
	}}
}

// Enum accepts one of values, compared by their string form.
func Enum(values ...string) Rule {
	return &check{name: "enum=" + strings.Join(values, "|"), skipEmpty: true, fn: func(v any) error {
		if !slices.Contains(values, fmt.Sprint(v)) {
			return fmt.Errorf("must be one of %s", strings.Join(values, ", "))
		}
		return nil
	}}
}

// Custom creates a rule from a user-defined function.
func Custom(name string, validate func(any) error) Rule {
	return &check{name: name, fn: validate}
}

// messageRule replaces the message of a failing rule.
type messageRule struct {
	Rule
	message string
}

func (r *messageRule) Validate(value any) error {
	if err := r.Rule.Validate(value); err != nil {
		return &MessageError{Message: r.message, Err: err}
	}
	return nil
}

// Message reports msg verbatim when r fails.
func Message(r Rule, msg string) Rule {
	return &messageRule{Rule: r, message: msg}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
