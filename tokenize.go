package grafpe

import (
	"fmt"

	"github.com/adambudziak/grafpe/dfare"
)

// Common tokenizer alphabets.
var (
	Digits       = dfare.NewAlphabet("0123456789")
	Alphanumeric = dfare.NewAlphabet("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz")
)

// Tokenizer encrypts the characters of a string that belong to an alphabet
// and keeps every other character in its position. With Digits,
// "123-45-6789" tokenizes to another string of the form ddd-dd-dddd.
type Tokenizer struct {
	alphabet dfare.Alphabet
	inner    Cipher[[]uint64]
}

// NewTokenizer builds a vector cipher over the alphabet. p.N is set to the
// alphabet size.
func NewTokenizer(a dfare.Alphabet, key, iv []byte, p Params, opts ...Option) (*Tokenizer, error) {
	p.N = uint64(a.Len())
	inner, err := New(key, iv, p, opts...)
	if err != nil {
		return nil, err
	}
	return &Tokenizer{alphabet: a, inner: inner}, nil
}

// Tokenize encrypts the data characters of s under tweak.
func (t *Tokenizer) Tokenize(s string, tweak Tweak) (string, error) {
	return t.apply(s, tweak, t.inner.Encrypt)
}

// Detokenize inverts Tokenize for the same tweak.
func (t *Tokenizer) Detokenize(s string, tweak Tweak) (string, error) {
	return t.apply(s, tweak, t.inner.Decrypt)
}

// Encrypt implements Cipher.
func (t *Tokenizer) Encrypt(s string, tweak Tweak) (string, error) { return t.Tokenize(s, tweak) }

// Decrypt implements Cipher.
func (t *Tokenizer) Decrypt(s string, tweak Tweak) (string, error) { return t.Detokenize(s, tweak) }

func (t *Tokenizer) apply(s string, tweak Tweak, op func([]uint64, Tweak) ([]uint64, error)) (string, error) {
	positions, data := t.separate(s)
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %q has no characters from the alphabet", ErrOutOfDomain, s)
	}
	out, err := op(data, tweak)
	if err != nil {
		return "", err
	}
	result := []byte(s)
	for i, pos := range positions {
		result[pos] = t.alphabet.Char(int(out[i]))
	}
	return string(result), nil
}

// separate returns the positions of the data characters of s and their
// alphabet indices. Format characters are left where they are.
func (t *Tokenizer) separate(s string) (positions []int, data []uint64) {
	for i := 0; i < len(s); i++ {
		if idx := t.alphabet.Index(s[i]); idx >= 0 {
			positions = append(positions, i)
			data = append(data, uint64(idx))
		}
	}
	return positions, data
}
