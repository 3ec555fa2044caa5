package grafpe

import (
	"fmt"

	"github.com/adambudziak/grafpe/dfare"
)

// Codec maps a structured domain T onto a cipher's native domain U and back.
// The mapping must be a bijection onto the whole native domain.
type Codec[T, U any] interface {
	Cast(value T) (U, error)
	Uncast(value U) (T, error)
}

// CastCipher encrypts values of T by casting them into the domain of an
// inner cipher.
type CastCipher[T, U any] struct {
	codec Codec[T, U]
	inner Cipher[U]
}

// NewCastCipher wraps inner with codec.
func NewCastCipher[T, U any](codec Codec[T, U], inner Cipher[U]) *CastCipher[T, U] {
	return &CastCipher[T, U]{codec: codec, inner: inner}
}

// Encrypt implements Cipher.
func (c *CastCipher[T, U]) Encrypt(value T, tweak Tweak) (T, error) {
	return c.apply(value, tweak, c.inner.Encrypt)
}

// Decrypt implements Cipher.
func (c *CastCipher[T, U]) Decrypt(value T, tweak Tweak) (T, error) {
	return c.apply(value, tweak, c.inner.Decrypt)
}

func (c *CastCipher[T, U]) apply(value T, tweak Tweak, op func(U, Tweak) (U, error)) (T, error) {
	var zero T
	u, err := c.codec.Cast(value)
	if err != nil {
		return zero, fmt.Errorf("failed to cast value: %w", err)
	}
	u, err = op(u, tweak)
	if err != nil {
		return zero, err
	}
	out, err := c.codec.Uncast(u)
	if err != nil {
		return zero, fmt.Errorf("failed to uncast value: %w", err)
	}
	return out, nil
}

// ContainerCodec maps the items of a fixed list to their indices.
type ContainerCodec[T comparable] struct {
	items []T
	index map[T]uint64
}

// NewContainerCodec returns a codec for items. Items must be distinct.
func NewContainerCodec[T comparable](items []T) (*ContainerCodec[T], error) {
	index := make(map[T]uint64, len(items))
	for i, item := range items {
		if _, dup := index[item]; dup {
			return nil, fmt.Errorf("duplicate container item %v", item)
		}
		index[item] = uint64(i)
	}
	return &ContainerCodec[T]{items: append([]T(nil), items...), index: index}, nil
}

// Len returns the number of items.
func (c *ContainerCodec[T]) Len() uint64 { return uint64(len(c.items)) }

// Cast implements Codec.
func (c *ContainerCodec[T]) Cast(value T) (uint64, error) {
	i, ok := c.index[value]
	if !ok {
		return 0, fmt.Errorf("%w: %v is not in the container", ErrOutOfDomain, value)
	}
	return i, nil
}

// Uncast implements Codec.
func (c *ContainerCodec[T]) Uncast(i uint64) (T, error) {
	if i >= uint64(len(c.items)) {
		var zero T
		return zero, fmt.Errorf("%w: index %d, container has %d items", ErrOutOfDomain, i, len(c.items))
	}
	return c.items[i], nil
}

// NewContainerCipher encrypts items of a fixed list. p.N is set to the
// number of items.
func NewContainerCipher[T comparable](items []T, key, iv []byte, p Params, opts ...Option) (*CastCipher[T, uint64], error) {
	codec, err := NewContainerCodec(items)
	if err != nil {
		return nil, err
	}
	p.N = codec.Len()
	inner, err := NewScalar(key, iv, p, opts...)
	if err != nil {
		return nil, err
	}
	return NewCastCipher[T, uint64](codec, inner), nil
}

// RankCodec maps the words of a ranked language to their ranks.
type RankCodec struct {
	dfa *dfare.RankedDFA
}

// NewRankCodec returns a codec over the words accepted by d.
func NewRankCodec(d *dfare.RankedDFA) *RankCodec {
	return &RankCodec{dfa: d}
}

// Cast implements Codec.
func (c *RankCodec) Cast(word string) (uint64, error) {
	r, err := c.dfa.Rank(word)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrOutOfDomain, err)
	}
	return r, nil
}

// Uncast implements Codec.
func (c *RankCodec) Uncast(i uint64) (string, error) {
	if i >= c.dfa.MaxRank() {
		return "", fmt.Errorf("%w: rank %d, language has %d words", ErrOutOfDomain, i, c.dfa.MaxRank())
	}
	return c.dfa.Unrank(i), nil
}

// NewRankedCipher encrypts the fixed-length words of a regular language.
// p.N is set to the number of words.
func NewRankedCipher(d *dfare.RankedDFA, key, iv []byte, p Params, opts ...Option) (*CastCipher[string, uint64], error) {
	p.N = d.MaxRank()
	inner, err := NewScalar(key, iv, p, opts...)
	if err != nil {
		return nil, err
	}
	return NewCastCipher[string, uint64](NewRankCodec(d), inner), nil
}

// AlphabetCodec maps a string over an alphabet to the vector of its
// character indices.
type AlphabetCodec struct {
	alphabet dfare.Alphabet
}

// NewAlphabetCodec returns a codec for strings over a.
func NewAlphabetCodec(a dfare.Alphabet) *AlphabetCodec {
	return &AlphabetCodec{alphabet: a}
}

// Cast implements Codec.
func (c *AlphabetCodec) Cast(s string) ([]uint64, error) {
	out := make([]uint64, len(s))
	for i := 0; i < len(s); i++ {
		idx := c.alphabet.Index(s[i])
		if idx < 0 {
			return nil, fmt.Errorf("%w: character %q at %d is not in the alphabet", ErrOutOfDomain, s[i], i)
		}
		out[i] = uint64(idx)
	}
	return out, nil
}

// Uncast implements Codec.
func (c *AlphabetCodec) Uncast(v []uint64) (string, error) {
	out := make([]byte, len(v))
	for i, idx := range v {
		if idx >= uint64(c.alphabet.Len()) {
			return "", fmt.Errorf("%w: index %d at %d", ErrOutOfDomain, idx, i)
		}
		out[i] = c.alphabet.Char(int(idx))
	}
	return string(out), nil
}

// NewStringCipher encrypts strings over an alphabet character by character
// with the vector cipher, so the length and alphabet are preserved.
func NewStringCipher(a dfare.Alphabet, key, iv []byte, p Params, opts ...Option) (*CastCipher[string, []uint64], error) {
	p.N = uint64(a.Len())
	inner, err := New(key, iv, p, opts...)
	if err != nil {
		return nil, err
	}
	return NewCastCipher[string, []uint64](NewAlphabetCodec(a), inner), nil
}

// Tuple encrypts each component of a fixed-size tuple with its own cipher.
type Tuple struct {
	parts []Cipher[uint64]
}

// NewTuple returns a tuple cipher with one component per part.
func NewTuple(parts ...Cipher[uint64]) *Tuple {
	return &Tuple{parts: parts}
}

// Encrypt implements Cipher.
func (t *Tuple) Encrypt(values []uint64, tweak Tweak) ([]uint64, error) {
	return t.apply(values, tweak, func(c Cipher[uint64], v uint64, tw Tweak) (uint64, error) {
		return c.Encrypt(v, tw)
	})
}

// Decrypt implements Cipher.
func (t *Tuple) Decrypt(values []uint64, tweak Tweak) ([]uint64, error) {
	return t.apply(values, tweak, func(c Cipher[uint64], v uint64, tw Tweak) (uint64, error) {
		return c.Decrypt(v, tw)
	})
}

func (t *Tuple) apply(values []uint64, tweak Tweak, op func(Cipher[uint64], uint64, Tweak) (uint64, error)) ([]uint64, error) {
	if len(values) != len(t.parts) {
		return nil, fmt.Errorf("tuple has %d components, got %d values", len(t.parts), len(values))
	}
	out := make([]uint64, len(values))
	for i, part := range t.parts {
		v, err := op(part, values[i], tweak)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
