package formwork_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/formwork"
	"github.com/aretw0/formwork/pkg/adapters/memory"
	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/ports"
	"github.com/aretw0/formwork/pkg/schema"
)

func TestNew_DefaultsToSchemaValidator(t *testing.T) {
	form, err := formwork.New()
	require.NoError(t, err)

	ctx := context.Background()
	_, err = form.RegisterField(ctx, "age", domain.FieldOptions{Rules: []domain.Rule{"required", "int"}})
	require.NoError(t, err)

	res, err := form.Validate(ctx, domain.ValidateRequest{})
	require.NoError(t, err)
	require.Contains(t, res.Errors, "age")
	assert.Equal(t, "age is required", res.Errors["age"].Errors[0].Message)

	form.SetFieldsValue(map[string]any{"age": 12})
	res, err = form.Validate(ctx, domain.ValidateRequest{})
	require.NoError(t, err)
	assert.False(t, res.HasErrors())
	assert.Equal(t, map[string]any{"age": 12}, res.Values)
}

func TestNew_UnknownRuleIsAHardError(t *testing.T) {
	form, err := formwork.New()
	require.NoError(t, err)

	ctx := context.Background()
	_, err = form.RegisterField(ctx, "x", domain.FieldOptions{Rules: []domain.Rule{"no-such-rule"}})
	require.NoError(t, err)

	_, err = form.Validate(ctx, domain.ValidateRequest{})
	var unknown *schema.UnknownRuleError
	assert.ErrorAs(t, err, &unknown)
	assert.False(t, form.IsFieldValidating("x"))
}

func TestNew_CustomValidatorAndHooks(t *testing.T) {
	var mu sync.Mutex
	var stored [][]string
	var done []*domain.PassEvent

	v := ports.ValidatorFunc(func(_ context.Context, req ports.ValidationRequest) ([]domain.ErrorEntry, error) {
		var out []domain.ErrorEntry
		for name := range req.Rules {
			out = append(out, domain.ErrorEntry{Field: name, Message: "nope"})
		}
		return out, nil
	})

	form, err := formwork.New(
		formwork.WithValidator(v),
		formwork.WithHooks(domain.Hooks{OnStoreChange: func(names []string) {
			mu.Lock()
			defer mu.Unlock()
			stored = append(stored, names)
		}}),
		formwork.WithHooks(domain.Hooks{OnValidationDone: func(_ context.Context, e *domain.PassEvent) {
			mu.Lock()
			defer mu.Unlock()
			done = append(done, e)
		}}),
	)
	require.NoError(t, err)

	ctx := context.Background()
	b, err := form.RegisterField(ctx, "name", domain.FieldOptions{Rules: []domain.Rule{"anything"}})
	require.NoError(t, err)

	b.Handlers[domain.DefaultTrigger](ctx, domain.InputEvent{Value: "x"})
	form.Wait()

	assert.Equal(t, []string{"nope"}, form.FieldError("name"))

	mu.Lock()
	defer mu.Unlock()
	assert.NotEmpty(t, stored)
	require.Len(t, done, 1)
	assert.Equal(t, []string{"name"}, done[0].Failed)
}

func TestNew_WithFields(t *testing.T) {
	form, err := formwork.New(formwork.WithFields(map[string]any{
		"a": domain.Field{Value: 1, HasValue: true, Touched: true},
	}))
	require.NoError(t, err)

	_, err = form.RegisterField(context.Background(), "a", domain.FieldOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, form.FieldValue("a"))
	assert.True(t, form.IsFieldTouched("a"))
}

func TestNew_InvalidFields(t *testing.T) {
	_, err := formwork.New(formwork.WithFields(map[string]any{"a": 1}))
	assert.Error(t, err)
}

func TestForm_RegisterField_Errors(t *testing.T) {
	form, err := formwork.New()
	require.NoError(t, err)
	ctx := context.Background()

	_, err = form.RegisterField(ctx, "", domain.FieldOptions{})
	assert.True(t, errors.Is(err, domain.ErrEmptyFieldName))

	_, err = form.RegisterField(ctx, "a", domain.FieldOptions{})
	require.NoError(t, err)
	_, err = form.RegisterField(ctx, "a.b", domain.FieldOptions{})
	var ambiguous *domain.AmbiguousFieldNameError
	assert.ErrorAs(t, err, &ambiguous)
}

func TestForm_DetachAttach_SharedCache(t *testing.T) {
	cache := memory.NewCache()
	form, err := formwork.New(formwork.WithRecoveryCache(cache))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = form.RegisterField(ctx, "note", domain.FieldOptions{})
	require.NoError(t, err)
	form.SetFieldsValue(map[string]any{"note": "draft"})

	require.NoError(t, form.Detach(ctx, "note"))
	assert.Equal(t, 1, cache.Len())
	assert.Empty(t, form.Names())

	require.NoError(t, form.Attach(ctx, "note"))
	assert.Equal(t, "draft", form.FieldValue("note"))
	assert.Equal(t, 0, cache.Len())
}

func TestForm_SetFieldsValue_WarnsWithDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	form, err := formwork.New(formwork.WithLogger(logger), formwork.WithName("signup"))
	require.NoError(t, err)

	form.SetFieldsValue(map[string]any{"ghost": 1})
	assert.Contains(t, buf.String(), "cannot set value before registering the field")
	assert.Contains(t, buf.String(), "form=signup")
	assert.Empty(t, form.FieldsValue())
}

func TestForm_Decode(t *testing.T) {
	form, err := formwork.New()
	require.NoError(t, err)
	ctx := context.Background()

	for _, name := range []string{"user.name", "user.age"} {
		_, err := form.RegisterField(ctx, name, domain.FieldOptions{})
		require.NoError(t, err)
	}
	form.SetFieldsValue(map[string]any{"user": map[string]any{"name": "ada", "age": "36"}})

	var out struct {
		User struct {
			Name string `mapstructure:"name"`
			Age  int    `mapstructure:"age"`
		} `mapstructure:"user"`
	}
	require.NoError(t, form.Decode(&out))
	assert.Equal(t, "ada", out.User.Name)
	assert.Equal(t, 36, out.User.Age)

	var partial map[string]any
	require.NoError(t, form.Decode(&partial, "user.name"))
	assert.Equal(t, map[string]any{"user": map[string]any{"name": "ada"}}, partial)

	assert.Error(t, form.Decode(out))
}
