package resilience

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/errors"
)

// Bounded runs fn under a deadline of limit and returns its value. When
// the deadline passes first, the error wraps apperrors.ErrTimeout; fn keeps
// running in the background but its result is dropped. limit <= 0 calls fn
// directly.
func Bounded[T any](ctx context.Context, limit time.Duration, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	if limit <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	type outcome struct {
		v   T
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		v, err := fn(ctx)
		ch <- outcome{v, err}
	}()

	select {
	case o := <-ch:
		return o.v, o.err
	case <-ctx.Done():
		var zero T
		if ctx.Err() == context.DeadlineExceeded {
			return zero, fmt.Errorf("%s: %w after %v", name, apperrors.ErrTimeout, limit)
		}
		return zero, fmt.Errorf("%s: %w", name, ctx.Err())
	}
}
