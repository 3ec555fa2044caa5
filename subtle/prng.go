// Package subtle provides the raw-key building blocks of GraFPE: keyed
// pseudorandom byte sources, permutation generators, the permutation graph
// builder and the graph traverser that implements the cipher's step function.
//
// Most users should use the grafpe package or the tinkgrafpe integration
// instead of this package directly.
package subtle

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"math/rand"
)

const (
	// IVSize is the size in bytes of the AES-CTR initialization vector.
	IVSize = aes.BlockSize

	blockSize = aes.BlockSize
	blockBits = blockSize * 8
)

// ByteSource is a keyed deterministic generator of pseudorandom bytes and bits.
// The same key, iv and call sequence always produce the same output.
type ByteSource interface {
	// FillBytes overwrites b with pseudorandom bytes.
	FillBytes(b []byte)
	// FetchBit returns the next pseudorandom bit.
	FetchBit() bool
}

// ValidKeySize reports whether n is an AES key size.
func ValidKeySize(n int) bool {
	return n == 16 || n == 24 || n == 32
}

// AESCTRSource is a ByteSource backed by the AES-CTR keystream.
type AESCTRSource struct {
	stream cipher.Stream
	block  [blockSize]byte
	bit    int
}

// NewAESCTRSource creates an AES-CTR byte source. The key must be 16, 24 or
// 32 bytes and the iv must be 16 bytes; anything else panics.
func NewAESCTRSource(key, iv []byte) *AESCTRSource {
	if !ValidKeySize(len(key)) {
		panic(fmt.Sprintf("grafpe/subtle: invalid AES key size %d", len(key)))
	}
	if len(iv) != IVSize {
		panic(fmt.Sprintf("grafpe/subtle: invalid iv size %d, want %d", len(iv), IVSize))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		panic(fmt.Sprintf("grafpe/subtle: %v", err))
	}
	return &AESCTRSource{
		stream: cipher.NewCTR(block, iv),
		bit:    blockBits,
	}
}

// FillBytes writes whole keystream blocks into b. A trailing partial block
// consumes one full block of keystream of which only the prefix is kept.
func (s *AESCTRSource) FillBytes(b []byte) {
	full := len(b) - len(b)%blockSize
	clear(b[:full])
	s.stream.XORKeyStream(b[:full], b[:full])
	if full == len(b) {
		return
	}
	var tail [blockSize]byte
	s.stream.XORKeyStream(tail[:], tail[:])
	copy(b[full:], tail[:])
}

// FetchBit returns bits of the keystream, least significant bit of each byte first.
func (s *AESCTRSource) FetchBit() bool {
	if s.bit == blockBits {
		s.FillBytes(s.block[:])
		s.bit = 0
	}
	i := s.bit
	s.bit++
	return s.block[i/8]&(1<<(i%8)) != 0
}

// SeededSource is a non-cryptographic ByteSource for tests and simulations.
type SeededSource struct {
	rng   *rand.Rand
	block [blockSize]byte
	bit   int
}

// NewSeededSource returns a deterministic source driven by math/rand.
func NewSeededSource(seed int64) *SeededSource {
	return &SeededSource{
		rng: rand.New(rand.NewSource(seed)),
		bit: blockBits,
	}
}

// FillBytes implements ByteSource.
func (s *SeededSource) FillBytes(b []byte) {
	s.rng.Read(b)
}

// FetchBit implements ByteSource.
func (s *SeededSource) FetchBit() bool {
	if s.bit == blockBits {
		s.FillBytes(s.block[:])
		s.bit = 0
	}
	i := s.bit
	s.bit++
	return s.block[i/8]&(1<<(i%8)) != 0
}

var (
	_ ByteSource = (*AESCTRSource)(nil)
	_ ByteSource = (*SeededSource)(nil)
)
