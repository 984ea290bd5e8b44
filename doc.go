/*
Package formwork is a headless form state engine: it owns the values and
validation state of a set of named fields and coordinates asynchronous
validation against a pluggable validator.

# Concept

Fields are identified by paths ("user.name", "items[0].qty") and registered
by the host UI. Input events are collected into the store through the handlers
of the returned Binding, and validation passes run the rules bound to the
triggering action. A pass is asynchronous; when its result arrives the engine
commits it only for fields whose value is still the one that was validated.
Fields edited in the meantime are reported as expired instead.

The engine is hexagonal: validators (pkg/schema, pkg/adapters/playground) and
recovery caches for detached fields (pkg/adapters/memory, pkg/adapters/redis)
are adapters of the interfaces in pkg/ports.

# Usage

	form, err := formwork.New(formwork.WithDiagnostics(slog.LevelWarn))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	email, err := form.RegisterField(ctx, "user.email", domain.FieldOptions{
		Rules: []domain.Rule{schema.Required(), schema.Email()},
	})
	if err != nil {
		log.Fatal(err)
	}

	// Wire the handler to the input.
	email.Handlers[domain.DefaultTrigger](ctx, domain.InputEvent{Value: "me@example.com"})

	res, err := form.Validate(ctx, domain.ValidateRequest{})
	if err != nil {
		log.Fatal(err)
	}
	if !res.HasErrors() {
		submit(res.Values)
	}

# Observability

Hooks (domain.Hooks) report store changes and validation passes. The
pkg/observability package turns them into Prometheus metrics and log lines.
*/
package formwork
