package grafpe

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// EncryptAll encrypts independent values concurrently under one tweak. At
// most workers calls run at once; workers <= 0 means GOMAXPROCS. Results keep
// the order of values.
func EncryptAll[T any](ctx context.Context, c Cipher[T], values []T, tweak Tweak, workers int) ([]T, error) {
	return applyAll(ctx, values, tweak, workers, c.Encrypt)
}

// DecryptAll is the batch inverse of EncryptAll.
func DecryptAll[T any](ctx context.Context, c Cipher[T], values []T, tweak Tweak, workers int) ([]T, error) {
	return applyAll(ctx, values, tweak, workers, c.Decrypt)
}

func applyAll[T any](ctx context.Context, values []T, tweak Tweak, workers int, op func(T, Tweak) (T, error)) ([]T, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]T, len(values))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range values {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := op(values[i], tweak)
			if err != nil {
				return fmt.Errorf("value %d: %w", i, err)
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
