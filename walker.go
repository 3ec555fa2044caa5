package grafpe

import "fmt"

// CycleWalker restricts a cipher over a larger domain to the subset of
// values accepted by a predicate. Encryption re-applies the inner cipher
// until it lands back in the subset; since the inner cipher is a
// permutation, the walk always returns to the subset.
type CycleWalker[T any] struct {
	inner    Cipher[T]
	inDomain func(T) bool
}

// NewCycleWalker returns a cipher over the values of inner's domain for
// which inDomain holds.
func NewCycleWalker[T any](inner Cipher[T], inDomain func(T) bool) *CycleWalker[T] {
	return &CycleWalker[T]{inner: inner, inDomain: inDomain}
}

// Encrypt implements Cipher.
func (w *CycleWalker[T]) Encrypt(value T, tweak Tweak) (T, error) {
	return w.walk(value, tweak, w.inner.Encrypt)
}

// Decrypt implements Cipher.
func (w *CycleWalker[T]) Decrypt(value T, tweak Tweak) (T, error) {
	return w.walk(value, tweak, w.inner.Decrypt)
}

func (w *CycleWalker[T]) walk(value T, tweak Tweak, step func(T, Tweak) (T, error)) (T, error) {
	if !w.inDomain(value) {
		var zero T
		return zero, fmt.Errorf("%w: %v is outside the target set", ErrOutOfDomain, value)
	}
	x := value
	for {
		var err error
		x, err = step(x, tweak)
		if err != nil {
			return x, err
		}
		if w.inDomain(x) {
			return x, nil
		}
	}
}
