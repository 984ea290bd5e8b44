package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/formwork/pkg/domain"
)

// LogHooks returns hooks that log every validation pass with logger.
func LogHooks(logger *slog.Logger) domain.Hooks {
	return domain.Hooks{
		OnValidationStart: func(ctx context.Context, e *domain.PassEvent) {
			logger.InfoContext(ctx, "validation_start",
				"pass_id", e.ID,
				"action", e.Action,
				"fields", e.Fields,
			)
		},
		OnValidationDone: func(ctx context.Context, e *domain.PassEvent) {
			if e.Err != nil {
				logger.ErrorContext(ctx, "validation_done", "pass_id", e.ID, "error", e.Err)
				return
			}
			logger.InfoContext(ctx, "validation_done",
				"pass_id", e.ID,
				"failed", e.Failed,
				"expired", e.Expired,
				"duration", e.Duration,
			)
		},
	}
}
