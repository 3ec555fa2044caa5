// Package grafpe implements GraFPE, a tweakable format-preserving cipher over
// an arbitrary integer domain [0, N).
// This file defines the Cipher interface shared by the cipher and its adapters.
// For Tink integration, see the tinkgrafpe package.

package grafpe

import "github.com/adambudziak/grafpe/subtle"

// Tweak is a public domain-separation value. The zero Tweak is the same as
// encrypting without a tweak.
type Tweak = subtle.Tweak

// Cipher is a tweakable format-preserving cipher over values of type T.
// Ciphers are deterministic: same key + tweak + value = same ciphertext.
//
// Decryption has no integrity check. Decrypting with the wrong key, tweak or
// parameters yields a wrong value of the right shape, never an error.
type Cipher[T any] interface {
	// Encrypt maps value to another value of the same domain.
	Encrypt(value T, tweak Tweak) (T, error)

	// Decrypt is the inverse of Encrypt for the same tweak.
	Decrypt(value T, tweak Tweak) (T, error)
}

// Verify that the cipher implementations satisfy Cipher.
var (
	_ Cipher[[]uint64] = (*Grafpe)(nil)
	_ Cipher[uint64]   = (*Scalar)(nil)
	_ Cipher[[]uint64] = (*Tuple)(nil)
	_ Cipher[string]   = (*Tokenizer)(nil)
)
