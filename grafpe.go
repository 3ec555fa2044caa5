// Package grafpe implements GraFPE, a format-preserving cipher built from
// random walks on a pseudorandom d-regular graph.
//
// The key and iv seed an AES-CTR stream from which d/2 permutations of
// [0, N) are drawn. Together they form a graph without self-loops, 2-cycles
// or multi-edges. Encrypting a value walks the graph along a path chosen by a
// second AES-CTR stream, so every ciphertext stays in [0, N).
//
// Vectors are encrypted in two absorbing passes. The walk for each position
// is keyed by all other positions, so changing one element changes every
// element of the ciphertext.
//
// Example usage:
//
//	key := []byte("0123456789abcdef")
//	iv := []byte("fedcba9876543210")
//
//	cipher, err := grafpe.New(key, iv, grafpe.DefaultParams(256))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	ciphertext, err := cipher.Encrypt([]uint64{104, 105}, 7)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	plaintext, err := cipher.Decrypt(ciphertext, 7)
//	if err != nil {
//		log.Fatal(err)
//	}
//	// plaintext is []uint64{104, 105}
package grafpe

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/adambudziak/grafpe/subtle"
)

// ErrOutOfDomain is returned when a value lies outside the cipher's domain.
var ErrOutOfDomain = errors.New("grafpe: value out of domain")

// Option configures construction of a cipher.
type Option func(*options)

type options struct {
	log      logrus.FieldLogger
	prefetch bool
}

// WithLogger sets the logger used while building the graph.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.log = l }
}

// WithPrefetch draws the graph permutations from a background goroutine.
// The resulting graph is identical.
func WithPrefetch() Option {
	return func(o *options) { o.prefetch = true }
}

// Grafpe encrypts vectors of values in [0, N). It is immutable and safe for
// concurrent use.
type Grafpe struct {
	key       []byte
	params    Params
	traverser *subtle.Traverser
}

// New builds the graph for key, iv and p and returns the cipher. The key
// must be 16, 24 or 32 bytes and the iv 16 bytes.
func New(key, iv []byte, p Params, opts ...Option) (*Grafpe, error) {
	if !subtle.ValidKeySize(len(key)) {
		return nil, fmt.Errorf("invalid key size: %d bytes (must be 16, 24, or 32)", len(key))
	}
	if len(iv) != subtle.IVSize {
		return nil, fmt.Errorf("invalid iv size: %d bytes (must be %d)", len(iv), subtle.IVSize)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	o := options{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	var src subtle.ByteSource = subtle.NewAESCTRSource(key, iv)
	if o.prefetch {
		pre := subtle.NewPrefetchSource(context.Background(), src)
		defer pre.Close()
		src = pre
	}

	builder := subtle.NewGraphBuilder(p.newGenerator(src),
		subtle.WithPolicy(p.Policy),
		subtle.WithLogger(o.log),
	)
	graph, err := builder.Build(p.N, p.D)
	if err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	return newGrafpe(key, graph, p), nil
}

// NewFromGraph returns a cipher over an existing graph, for example one
// shared between several keys or loaded from storage.
func NewFromGraph(key []byte, g *subtle.Graph, walkLength int) (*Grafpe, error) {
	if !subtle.ValidKeySize(len(key)) {
		return nil, fmt.Errorf("invalid key size: %d bytes (must be 16, 24, or 32)", len(key))
	}
	if walkLength <= 0 {
		return nil, fmt.Errorf("%w: walk length must be positive, got %d", ErrInvalidParams, walkLength)
	}
	if !subtle.IsGraphValid(g) {
		return nil, fmt.Errorf("%w: graph is not a simple regular graph", ErrInvalidParams)
	}
	p := Params{N: g.N, D: g.D, WalkLength: walkLength}
	return newGrafpe(key, g, p), nil
}

func newGrafpe(key []byte, g *subtle.Graph, p Params) *Grafpe {
	return &Grafpe{
		key:       append([]byte(nil), key...),
		params:    p,
		traverser: subtle.NewTraverser(g, p.WalkLength),
	}
}

// Size returns N.
func (g *Grafpe) Size() uint64 { return g.traverser.N() }

// Params returns the parameters the cipher was built with.
func (g *Grafpe) Params() Params { return g.params }

// Encrypt encrypts msg under tweak. All values must be in [0, N).
func (g *Grafpe) Encrypt(msg []uint64, tweak Tweak) ([]uint64, error) {
	if err := g.checkDomain(msg); err != nil {
		return nil, fmt.Errorf("failed to encrypt: %w", err)
	}
	absorbed := make([]uint64, len(msg))
	out := make([]uint64, len(msg))
	buf := make([]byte, g.traverser.RandomBufferSize())

	g.encryptPass(msg, absorbed, tweak, buf)
	g.encryptPass(absorbed, out, tweak, buf)
	return out, nil
}

// Decrypt inverts Encrypt for the same tweak.
func (g *Grafpe) Decrypt(ciphertext []uint64, tweak Tweak) ([]uint64, error) {
	if err := g.checkDomain(ciphertext); err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	absorbed := make([]uint64, len(ciphertext))
	out := make([]uint64, len(ciphertext))
	buf := make([]byte, g.traverser.RandomBufferSize())

	g.decryptPass(ciphertext, absorbed, tweak, buf)
	g.decryptPass(absorbed, out, tweak, buf)
	return out, nil
}

// encryptPass walks every position left to right. The start of each walk is
// offset by the previous output, and its path is keyed by the outputs so far
// and the inputs still to come.
func (g *Grafpe) encryptPass(src, dst []uint64, tweak Tweak, buf []byte) {
	n := g.traverser.N()
	var prev uint64
	for i := range src {
		g.fillWalk(buf, subtle.Digest(src, dst, i), tweak)
		dst[i] = g.traverser.Go((src[i]+prev)%n, buf)
		prev = dst[i]
	}
}

// decryptPass undoes encryptPass right to left. src is the pass output and
// dst receives its input.
func (g *Grafpe) decryptPass(src, dst []uint64, tweak Tweak, buf []byte) {
	if len(src) == 0 {
		return
	}
	n := g.traverser.N()
	for i := len(src) - 1; i >= 1; i-- {
		g.fillWalk(buf, subtle.Digest(dst, src, i), tweak)
		dst[i] = (g.traverser.GoBack(src[i], buf) + n - src[i-1]) % n
	}
	g.fillWalk(buf, subtle.Digest(dst, src, 0), tweak)
	dst[0] = g.traverser.GoBack(src[0], buf)
}

// fillWalk fills buf with the walk randomness for one position. The stream
// is keyed with the cipher key and an iv derived from digest and tweak.
func (g *Grafpe) fillWalk(buf, digest []byte, tweak Tweak) {
	subtle.NewAESCTRSource(g.key, subtle.DeriveIV(digest, tweak)).FillBytes(buf)
}

func (g *Grafpe) checkDomain(values []uint64) error {
	n := g.traverser.N()
	for i, v := range values {
		if v >= n {
			return fmt.Errorf("%w: element %d is %d, domain size is %d", ErrOutOfDomain, i, v, n)
		}
	}
	return nil
}
