package service

import (
	"context"
	"errors"
	"log/slog"

	customError "github.com/segyhp/lending-engine/pkg/errors"
)

// withRetry re-runs fn while it fails on an optimistic version check. Each run
// must start its own transaction so it re-reads current state.
func withRetry(ctx context.Context, logger *slog.Logger, entity string, attempts int, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; ; attempt++ {
		err := fn()
		if !errors.Is(err, customError.ErrVersionConflict) {
			return err
		}
		if attempt >= attempts {
			logger.WarnContext(ctx, "giving up after version conflicts", "entity", entity, "attempts", attempt)
			return customError.WrapConcurrentModification(entity, attempt)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		logger.DebugContext(ctx, "version conflict, retrying", "entity", entity, "attempt", attempt)
	}
}

// storageError passes business errors and version conflicts through untouched
// and wraps anything else as a database failure.
func storageError(err error) error {
	if err == nil {
		return nil
	}
	var be *customError.BusinessError
	if errors.As(err, &be) || errors.Is(err, customError.ErrVersionConflict) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return customError.WrapDatabaseError(err)
}
