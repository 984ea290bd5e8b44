package playground_test

import (
	"context"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formwork/pkg/adapters/playground"
	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/ports"
)

func TestValidator_Tags(t *testing.T) {
	v, err := playground.New()
	require.NoError(t, err)

	entries, err := v.Validate(context.Background(), ports.ValidationRequest{
		Rules: map[string][]domain.Rule{
			"email": {"required,email"},
			"nick":  {"min=3", "alphanum"},
			"ok":    {"required"},
		},
		Values: map[string]any{
			"email": "not-an-email",
			"nick":  "a!",
			"ok":    "yes",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.ErrorEntry{
		{Field: "email", Message: "email failed on the 'email' rule"},
		{Field: "nick", Message: "nick failed on the 'min=3' rule"},
		{Field: "nick", Message: "nick failed on the 'alphanum' rule"},
	}, entries)
}

func TestValidator_First(t *testing.T) {
	v, err := playground.New()
	require.NoError(t, err)
	req := ports.ValidationRequest{
		Rules:  map[string][]domain.Rule{"a": {"min=3", "numeric"}, "b": {"required"}},
		Values: map[string]any{"a": "x", "b": ""},
	}

	req.FirstFields = domain.FirstFields{All: true}
	entries, err := v.Validate(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	req.First = true
	entries, err = v.Validate(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].Field)
}

func TestValidator_CustomValidation(t *testing.T) {
	v, err := playground.New(playground.WithValidation("lower", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == strings.ToLower(s)
	}))
	require.NoError(t, err)

	entries, err := v.Validate(context.Background(), ports.ValidationRequest{
		Rules:  map[string][]domain.Rule{"slug": {"lower"}},
		Values: map[string]any{"slug": "Hello"},
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "slug failed on the 'lower' rule", entries[0].Message)
}

func TestValidator_InvalidRules(t *testing.T) {
	v, err := playground.New()
	require.NoError(t, err)

	var invalid *playground.InvalidRuleError

	_, err = v.Validate(context.Background(), ports.ValidationRequest{
		Rules:  map[string][]domain.Rule{"x": {"no_such_tag"}},
		Values: map[string]any{"x": "v"},
	})
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "x", invalid.Field)

	_, err = v.Validate(context.Background(), ports.ValidationRequest{
		Rules: map[string][]domain.Rule{"x": {42}},
	})
	assert.ErrorAs(t, err, &invalid)
}
