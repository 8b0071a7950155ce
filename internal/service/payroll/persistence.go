package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/buildcrew/workforce-backend/internal/domain/payroll"
)

const defaultPersistenceTimeout = 10 * time.Second

// withTimeout bounds one storage round trip.
func withTimeout[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		timeout = defaultPersistenceTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}

// persistenceError marks err as a retryable storage failure.
func persistenceError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, payroll.ErrPersistence, err)
}
