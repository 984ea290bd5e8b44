package formwork_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/formwork"
	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/schema"
)

// ExampleNew registers two fields, fills one in and validates the form.
func ExampleNew() {
	form, err := formwork.New()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if _, err := form.RegisterField(ctx, "user.email", domain.FieldOptions{
		Rules: []domain.Rule{schema.Required(), schema.Email()},
	}); err != nil {
		log.Fatal(err)
	}
	if _, err := form.RegisterField(ctx, "user.age", domain.FieldOptions{
		Rules:           []domain.Rule{"int"},
		InitialValue:    30,
		HasInitialValue: true,
	}); err != nil {
		log.Fatal(err)
	}

	form.SetFieldsValue(map[string]any{"user": map[string]any{"email": "not-an-email"}})

	res, err := form.Validate(ctx, domain.ValidateRequest{})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Errors["user.email"].Errors[0].Message)
	fmt.Println(res.Values)
	// Output:
	// user.email is not a valid email
	// map[user:map[age:30 email:not-an-email]]
}

// ExampleForm_Decode copies the form values into a struct.
func ExampleForm_Decode() {
	form, err := formwork.New()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	for _, name := range []string{"name", "tags[0]", "tags[1]"} {
		if _, err := form.RegisterField(ctx, name, domain.FieldOptions{}); err != nil {
			log.Fatal(err)
		}
	}
	form.SetFieldsValue(map[string]any{"name": "widget", "tags": []any{"a", "b"}})

	var out struct {
		Name string   `mapstructure:"name"`
		Tags []string `mapstructure:"tags"`
	}
	if err := form.Decode(&out); err != nil {
		log.Fatal(err)
	}
	fmt.Println(out.Name, out.Tags)
	// Output: widget [a b]
}
