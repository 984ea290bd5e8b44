/*
Package dsl provides a fluent builder for declaring the fields of a form in Go.

It is the programmatic counterpart of a definition file: fields are declared
with their rules and triggers, then registered on a form in declaration order.

Example usage:

	b := dsl.New()

	b.Add("user.email").
		Rules(schema.Required(), schema.Email()).
		ValidateOn("onBlur")

	b.Add("user.age").
		Initial(18).
		Validate([]domain.Rule{"int", "len=18,"}, "onSubmit")

	form, _ := formwork.New()
	if err := b.Register(ctx, form); err != nil {
		// ...
	}
*/
package dsl
