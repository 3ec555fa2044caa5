package subtle

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Tweak is a public domain-separation value. The zero tweak means "no tweak".
type Tweak uint64

// TweakFromBytes interprets b as a little-endian tweak.
func TweakFromBytes(b [8]byte) Tweak {
	return Tweak(binary.LittleEndian.Uint64(b[:]))
}

// Bytes returns the little-endian encoding of t.
func (t Tweak) Bytes() [8]byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(t))
	return b
}

var (
	kdfInfo   = []byte("grafpe key/iv")
	ivKDFInfo = []byte("grafpe iv")
)

func expand(digest []byte, tweak Tweak, info []byte, out []byte) {
	var salt []byte
	if tweak != 0 {
		b := tweak.Bytes()
		salt = b[:]
	}
	r := hkdf.New(sha256.New, digest, salt, info)
	if _, err := io.ReadFull(r, out); err != nil {
		// HKDF-SHA256 can produce up to 8160 bytes.
		panic(fmt.Sprintf("grafpe/subtle: hkdf: %v", err))
	}
}

// DeriveKeyIV derives a key of keySize bytes and an iv from a digest and a
// tweak. The tweak is the HKDF salt; the zero tweak uses no salt.
func DeriveKeyIV(digest []byte, tweak Tweak, keySize int) (key, iv []byte) {
	out := make([]byte, keySize+IVSize)
	expand(digest, tweak, kdfInfo, out)
	return out[:keySize], out[keySize:]
}

// DeriveIV derives only an iv from a digest and a tweak, for streams keyed
// with an existing key. It uses its own HKDF info, so the result is not a
// suffix of DeriveKeyIV's output.
func DeriveIV(digest []byte, tweak Tweak) []byte {
	iv := make([]byte, IVSize)
	expand(digest, tweak, ivKDFInfo, iv)
	return iv
}

// Digest encodes the walk context of position i: every element except the
// one at i, followed by i itself. The elements are the already transformed
// prefix ys[:i] and the untouched suffix xs[i+1:], each a little-endian
// uint64, and i is a little-endian uint32. A one-element vector encodes its
// elements as the single byte 0.
func Digest(xs, ys []uint64, i int) []byte {
	out := make([]byte, 0, 8*len(xs)+4)
	if len(xs) <= 1 {
		out = append(out, 0)
	} else {
		for _, v := range ys[:i] {
			out = binary.LittleEndian.AppendUint64(out, v)
		}
		for _, v := range xs[i+1:] {
			out = binary.LittleEndian.AppendUint64(out, v)
		}
	}
	return binary.LittleEndian.AppendUint32(out, uint32(i))
}
