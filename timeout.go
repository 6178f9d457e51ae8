package cachalot

import (
	"context"
	"time"
)

// withTimeout races op against the deadline. On timeout the caller is
// released with an OperationTimeoutError while op keeps running on its own
// goroutine; the adapter port has no cancellation channel, so in-flight
// transport work is never interrupted (its eventual result is discarded).
func withTimeout[T any](ctx context.Context, timeout time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	type outcome struct {
		v   T
		err error
	}

	done := make(chan outcome, 1)
	go func() {
		v, err := op(ctx)
		done <- outcome{v: v, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var zero T
	select {
	case out := <-done:
		return out.v, out.err
	case <-timer.C:
		return zero, &OperationTimeoutError{Timeout: timeout}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
