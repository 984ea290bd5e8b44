package dsl_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/aretw0/formwork"
	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/dsl"
	"github.com/aretw0/formwork/pkg/schema"
)

func TestBuilder_Build(t *testing.T) {
	b := dsl.New()

	b.Add("user.email").
		Rules(schema.Required(), schema.Email()).
		ValidateOn("onBlur")

	b.Add("user.age").
		Initial(18).
		Validate([]domain.Rule{"int"}).
		Validate([]domain.Rule{"len=18,"}, "onSubmit").
		First()

	b.Add("token").Hidden().Trigger("onInput").ValuePropName("text")

	// Adding again returns the same builder.
	b.Add("user.email").Rules(schema.String())

	if got := b.Names(); !slices.Equal(got, []string{"user.email", "user.age", "token"}) {
		t.Fatalf("Names() = %v", got)
	}

	opts := b.Build()
	email := opts["user.email"]
	if len(email.Rules) != 3 {
		t.Errorf("Expected 3 rules on user.email, got %d", len(email.Rules))
	}
	if !slices.Equal(email.ValidateTrigger, []string{"onBlur"}) {
		t.Errorf("Expected ValidateTrigger [onBlur], got %v", email.ValidateTrigger)
	}

	age := opts["user.age"]
	if !age.HasInitialValue || age.InitialValue != 18 {
		t.Errorf("Expected initial value 18, got %v (%v)", age.InitialValue, age.HasInitialValue)
	}
	if len(age.Validate) != 2 || age.Validate[0].Trigger != nil || age.Validate[1].Trigger[0] != "onSubmit" {
		t.Errorf("Unexpected validate entries: %+v", age.Validate)
	}
	if !age.ValidateFirst {
		t.Error("Expected ValidateFirst on user.age")
	}

	token := opts["token"]
	if !token.Hidden || token.Trigger != "onInput" || token.ValuePropName != "text" {
		t.Errorf("Unexpected token options: %+v", token)
	}
}

func TestFieldBuilder_BuildIsACopy(t *testing.T) {
	fb := dsl.New().Add("name").Rules("required")
	opts := fb.Build()
	opts.Rules[0] = "string"

	if got := fb.Build().Rules[0]; got != "required" {
		t.Errorf("Build() shares its rules, got %v", got)
	}
}

func TestBuilder_Register(t *testing.T) {
	ctx := context.Background()
	var heard []any

	b := dsl.New()
	b.Add("user.name").
		Rules("required").
		Normalize(func(value, prev any, all map[string]any) any {
			if s, ok := value.(string); ok {
				return strings.TrimSpace(s)
			}
			return value
		}).
		On("onChange", func(args ...any) { heard = append(heard, args...) })
	b.Add("user.email").Rules("email").ValidateOn("onBlur")

	form, err := formwork.New()
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Register(ctx, form); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if got := form.Names(); !slices.Equal(got, []string{"user.name", "user.email"}) {
		t.Errorf("Names() = %v", got)
	}

	if err := form.Collect(ctx, "user.name", "onChange", "  ada  "); err != nil {
		t.Fatalf("Collect() failed: %v", err)
	}
	if got := form.FieldValue("user.name"); got != "ada" {
		t.Errorf("Expected normalized value 'ada', got %v", got)
	}
	if !slices.Equal(heard, []any{"  ada  "}) {
		t.Errorf("Expected the listener to hear the raw event, got %v", heard)
	}
	form.SetFieldsValue(map[string]any{"user": map[string]any{"email": "nope"}})

	res, err := form.Validate(ctx, domain.ValidateRequest{})
	if err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if _, ok := res.Errors["user.email"]; !ok {
		t.Errorf("Expected an error on user.email, got %v", res.Errors)
	}

}

type failingRegistrar struct{ calls int }

func (r *failingRegistrar) RegisterField(ctx context.Context, name string, opts domain.FieldOptions) (*domain.Binding, error) {
	r.calls++
	return nil, errors.New("boom")
}

func TestBuilder_RegisterStopsOnError(t *testing.T) {
	b := dsl.New()
	b.Add("a")
	b.Add("b")

	r := &failingRegistrar{}
	err := b.Register(context.Background(), r)
	if err == nil || !strings.Contains(err.Error(), `"a"`) {
		t.Errorf("Expected the failure on a, got %v", err)
	}
	if r.calls != 1 {
		t.Errorf("Expected registration to stop after the first failure, got %d calls", r.calls)
	}
}
