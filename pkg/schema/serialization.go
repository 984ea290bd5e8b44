package schema

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/formwork/pkg/domain"
)

// MarshalJSON serializes a built-in rule as its textual form.
func (c *check) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.name)
}

// MarshalJSON serializes the rule and its message as an object.
func (r *messageRule) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"rule": r.Rule.Name(), "message": r.message})
}

// ParseRule converts the textual form of a rule into a Rule.
// Supports: "required", "string", "int", "float", "bool", "email",
// "[<rule>]", "pattern=<regexp>", "len=<min>,<max>" (max may be empty),
// "enum=<a>|<b>|...".
func ParseRule(text string) (Rule, error) {
	// Handle slice rules: [string], [int], etc.
	if len(text) > 2 && text[0] == '[' && text[len(text)-1] == ']' {
		elem, err := ParseRule(text[1 : len(text)-1])
		if err != nil {
			return nil, err
		}
		return Slice(elem), nil
	}

	name, arg, hasArg := strings.Cut(text, "=")
	if hasArg {
		switch name {
		case "pattern":
			re, err := regexp.Compile(arg)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
			}
			return Pattern(re), nil
		case "len":
			return parseLength(arg)
		case "enum":
			return Enum(strings.Split(arg, "|")...), nil
		}
		return nil, fmt.Errorf("unsupported rule: %s", text)
	}

	switch text {
	case "required":
		return Required(), nil
	case "string":
		return String(), nil
	case "int":
		return Int(), nil
	case "float":
		return Float(), nil
	case "bool":
		return Bool(), nil
	case "email":
		return Email(), nil
	default:
		return nil, fmt.Errorf("unsupported rule: %s", text)
	}
}

func parseLength(arg string) (Rule, error) {
	lo, hi, _ := strings.Cut(arg, ",")
	min, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return nil, fmt.Errorf("invalid length %q: %w", arg, err)
	}
	max := -1
	if hi = strings.TrimSpace(hi); hi != "" {
		if max, err = strconv.Atoi(hi); err != nil {
			return nil, fmt.Errorf("invalid length %q: %w", arg, err)
		}
	}
	return Length(min, max), nil
}

// Resolve interprets a rule descriptor: a Rule, its textual form, or the
// object form produced by Message ({"rule": ..., "message": ...}).
func Resolve(field string, r domain.Rule) (Rule, error) {
	return resolve(field, r, ParseRule)
}

func resolve(field string, r domain.Rule, parse func(string) (Rule, error)) (Rule, error) {
	switch v := r.(type) {
	case Rule:
		return v, nil
	case string:
		rule, err := parse(v)
		if err != nil {
			return nil, &UnknownRuleError{Field: field, Rule: r}
		}
		return rule, nil
	case map[string]any:
		text, _ := v["rule"].(string)
		rule, err := parse(text)
		if err != nil {
			return nil, &UnknownRuleError{Field: field, Rule: r}
		}
		if msg, ok := v["message"].(string); ok && msg != "" {
			rule = Message(rule, msg)
		}
		return rule, nil
	}
	return nil, &UnknownRuleError{Field: field, Rule: r}
}
