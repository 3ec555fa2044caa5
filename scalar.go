package grafpe

import (
	"fmt"

	"github.com/adambudziak/grafpe/subtle"
)

// scalarDigest is the digest of a one-element vector.
var scalarDigest = subtle.Digest([]uint64{0}, []uint64{0}, 0)

// Scalar encrypts single values in [0, N). Both rounds share one walk
// derived from the tweak alone.
type Scalar struct {
	g *Grafpe
}

// NewScalar builds a graph like New and returns its scalar cipher.
func NewScalar(key, iv []byte, p Params, opts ...Option) (*Scalar, error) {
	g, err := New(key, iv, p, opts...)
	if err != nil {
		return nil, err
	}
	return g.Scalar(), nil
}

// Scalar returns a scalar cipher sharing g's graph and key.
func (g *Grafpe) Scalar() *Scalar {
	return &Scalar{g: g}
}

// Size returns N.
func (s *Scalar) Size() uint64 { return s.g.Size() }

// Encrypt encrypts x under tweak.
func (s *Scalar) Encrypt(x uint64, tweak Tweak) (uint64, error) {
	if x >= s.g.Size() {
		return 0, fmt.Errorf("failed to encrypt: %w: %d not below %d", ErrOutOfDomain, x, s.g.Size())
	}
	buf := s.walk(tweak)
	t := s.g.traverser
	return t.Go(t.Go(x, buf), buf), nil
}

// Decrypt inverts Encrypt for the same tweak.
func (s *Scalar) Decrypt(y uint64, tweak Tweak) (uint64, error) {
	if y >= s.g.Size() {
		return 0, fmt.Errorf("failed to decrypt: %w: %d not below %d", ErrOutOfDomain, y, s.g.Size())
	}
	buf := s.walk(tweak)
	t := s.g.traverser
	return t.GoBack(t.GoBack(y, buf), buf), nil
}

func (s *Scalar) walk(tweak Tweak) []byte {
	buf := make([]byte, s.g.traverser.RandomBufferSize())
	s.g.fillWalk(buf, scalarDigest, tweak)
	return buf
}
