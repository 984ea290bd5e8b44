package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formwork/internal/config"
	"github.com/aretw0/formwork/pkg/adapters/playground"
	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/schema"
)

const signupYAML = `
name: signup
fields:
  user.email:
    rules: [required, email]
    validate_trigger: [onBlur]
  user.age:
    initial_value: 18
    rules:
      - int
      - rule: len=18,
        message: too young
  terms:
    validate_first: true
    validate:
      - trigger: [onSubmit]
        rules: [required]
`

func TestParse_YAML(t *testing.T) {
	def, err := config.Parse([]byte(signupYAML), "yaml")
	require.NoError(t, err)

	assert.Equal(t, "signup", def.Name)
	assert.Equal(t, config.ValidatorSchema, def.Validator)
	assert.Equal(t, []string{"terms", "user.age", "user.email"}, def.Names())

	email := def.Fields["user.email"]
	assert.Equal(t, []domain.Rule{"required", "email"}, email.Rules)
	assert.Equal(t, []string{"onBlur"}, email.ValidateTrigger)
	assert.False(t, email.HasInitialValue)

	age := def.Fields["user.age"]
	assert.True(t, age.HasInitialValue)
	assert.Equal(t, 18, age.InitialValue)

	terms := def.Fields["terms"]
	assert.True(t, terms.ValidateFirst)
	require.Len(t, terms.Validate, 1)
	assert.Equal(t, []string{"onSubmit"}, terms.Validate[0].Trigger)
}

func TestParse_JSON(t *testing.T) {
	def, err := config.Parse([]byte(`{
		"validator": "playground",
		"fields": {"email": {"rules": ["required,email"]}}
	}`), "json")
	require.NoError(t, err)
	assert.Equal(t, config.ValidatorPlayground, def.Validator)
	assert.Equal(t, []domain.Rule{"required,email"}, def.Fields["email"].Rules)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format string
	}{
		{"syntax", "fields: [", "yaml"},
		{"format", "{}", "toml"},
		{"unknown key", "fields:\n  a:\n    rulez: [required]\n", "yaml"},
		{"unknown validator", "validator: other\n", "yaml"},
		{"unknown rule", "fields:\n  a:\n    rules: [nope]\n", "yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.data), tt.format)
			assert.Error(t, err)
		})
	}

	_, err := config.Parse([]byte("fields:\n  a:\n    rules: [nope]\n"), "yaml")
	var unknown *schema.UnknownRuleError
	assert.ErrorAs(t, err, &unknown)

	_, err = config.Parse([]byte("validator: playground\nfields:\n  a:\n    rules: [{rule: required}]\n"), "yaml")
	var invalid *playground.InvalidRuleError
	assert.ErrorAs(t, err, &invalid)
}

func TestDefinition_NewForm(t *testing.T) {
	def, err := config.Parse([]byte(signupYAML), "yaml")
	require.NoError(t, err)

	ctx := context.Background()
	form, err := def.NewForm(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"terms", "user.age", "user.email"}, form.Names())

	form.SetFieldsValue(map[string]any{"user": map[string]any{"email": "a@b.co", "age": 12}})
	res, err := form.Validate(ctx, domain.ValidateRequest{})
	require.NoError(t, err)

	require.Contains(t, res.Errors, "user.age")
	assert.Equal(t, "too young", res.Errors["user.age"].Errors[0].Message)
	assert.Contains(t, res.Errors, "terms")
	assert.NotContains(t, res.Errors, "user.email")
}

func TestDefinition_NewForm_Playground(t *testing.T) {
	def, err := config.Parse([]byte("validator: playground\nfields:\n  email:\n    rules: [\"required,email\"]\n"), "yaml")
	require.NoError(t, err)

	ctx := context.Background()
	form, err := def.NewForm(ctx)
	require.NoError(t, err)

	form.SetFieldsValue(map[string]any{"email": "nope"})
	res, err := form.Validate(ctx, domain.ValidateRequest{})
	require.NoError(t, err)
	require.Contains(t, res.Errors, "email")
}

func TestDefinition_NewForm_RegisteredRules(t *testing.T) {
	data := []byte("fields:\n  user:\n    rules: [required, no_admin]\n")

	_, err := config.Parse(data, "yaml")
	var unknown *schema.UnknownRuleError
	require.ErrorAs(t, err, &unknown)

	rules := schema.NewRegistry()
	rules.RegisterFunc("no_admin", func(v any) error {
		if v == "admin" {
			return errors.New("is reserved")
		}
		return nil
	})
	def, err := config.Parse(data, "yaml", config.WithRules(rules))
	require.NoError(t, err)

	ctx := context.Background()
	form, err := def.NewForm(ctx)
	require.NoError(t, err)

	form.SetFieldsValue(map[string]any{"user": "admin"})
	res, err := form.Validate(ctx, domain.ValidateRequest{})
	require.NoError(t, err)
	require.Contains(t, res.Errors, "user")
	assert.Equal(t, "user is reserved", res.Errors["user"].Errors[0].Message)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "form.yaml")
	require.NoError(t, os.WriteFile(path, []byte(signupYAML), 0o644))

	def, err := config.Load(path)
	require.NoError(t, err)
	assert.Len(t, def.Fields, 3)

	_, err = config.Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	valuesPath := filepath.Join(dir, "values.json")
	require.NoError(t, os.WriteFile(valuesPath, []byte(`{"user": {"age": 20}}`), 0o644))
	values, err := config.LoadValues(valuesPath)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"user": map[string]any{"age": float64(20)}}, values)
}

func TestDefinition_NewForm_Process(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	dir := t.TempDir()
	script := "#!/bin/sh\ncat > /dev/null\necho '[{\"field\":\"code\",\"message\":\"code is taken\"}]'\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "check.sh"), []byte(script), 0o755))

	path := filepath.Join(dir, "form.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
validator: process
process:
  command: ./check.sh
fields:
  code:
    rules: [unique]
`), 0o644))

	def, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir, def.BaseDir)

	ctx := context.Background()
	form, err := def.NewForm(ctx)
	require.NoError(t, err)

	res, err := form.Validate(ctx, domain.ValidateRequest{})
	require.NoError(t, err)
	assert.Equal(t, "code is taken", res.Errors["code"].Errors[0].Message)

	_, err = config.Parse([]byte("validator: process\n"), "yaml")
	assert.Error(t, err)
}
