// Package schema provides the built-in rule set and the default validator of
// formwork.
//
// Rules check a single field value. Type rules (string, int, float, bool,
// slices) and format rules (pattern, length, enum, email) skip empty values;
// Required is the only rule that fails on them.
//
// Basic usage:
//
//	opts := domain.FieldOptions{
//	    Rules: []domain.Rule{
//	        schema.Required(),
//	        schema.String(),
//	        schema.Message(schema.Length(3, 20), "pick a longer nickname"),
//	    },
//	}
//
// Rules can also be written as text, which is how definition files and the
// recovery cache carry them:
//
//	rule, err := schema.ParseRule("len=3,20")
//
// Custom rules can be registered for domain-specific checks:
//
//	positive := schema.Custom("positive", func(v any) error {
//	    i, ok := v.(int)
//	    if !ok || i <= 0 {
//	        return fmt.Errorf("must be positive")
//	    }
//	    return nil
//	})
//
// Validator implements ports.Validator over these rules and evaluates the
// fields of a request concurrently.
package schema
