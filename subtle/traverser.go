package subtle

import (
	"fmt"
	"math/bits"
)

// Traverser walks a permutation graph. Every step reads a group of bits from
// a random buffer: the high bits select a permutation and the trailing bit
// selects the direction (1 = inverse).
//
// A Traverser is immutable and safe for concurrent use.
type Traverser struct {
	n           uint64
	d           uint64
	walkLength  int
	indexBits   int
	perms       []Permutation
	inversePerm []Permutation
}

// NewTraverser takes ownership of g and precomputes the inverse permutations.
func NewTraverser(g *Graph, walkLength int) *Traverser {
	if walkLength <= 0 {
		panic(fmt.Sprintf("grafpe/subtle: walk length must be positive, got %d", walkLength))
	}
	if g.D < 2 || uint64(len(g.Permutations)) != g.D/2 {
		panic(fmt.Sprintf("grafpe/subtle: graph has %d permutations for degree %d", len(g.Permutations), g.D))
	}
	inv := make([]Permutation, len(g.Permutations))
	for i, p := range g.Permutations {
		inv[i] = Inverse(p)
	}
	return &Traverser{
		n:           g.N,
		d:           g.D,
		walkLength:  walkLength,
		indexBits:   bits.Len64(g.D/2 - 1),
		perms:       g.Permutations,
		inversePerm: inv,
	}
}

// N returns the number of vertices, i.e. the size of the domain.
func (t *Traverser) N() uint64 { return t.n }

// D returns the degree of the graph.
func (t *Traverser) D() uint64 { return t.d }

// WalkLength returns the number of steps of a walk.
func (t *Traverser) WalkLength() int { return t.walkLength }

// BitsPerStep returns how many buffer bits one step consumes.
func (t *Traverser) BitsPerStep() int { return t.indexBits + 1 }

// RandomBufferSize returns the number of buffer bytes a walk consumes.
func (t *Traverser) RandomBufferSize() int {
	return (t.walkLength*t.BitsPerStep() + 7) / 8
}

// Step decodes step i of buf into a permutation index and a direction.
//
// The index is the high bits of the step reduced modulo d/2. When d/2 is not
// a power of two the low permutation indices are chosen more often; with the
// default degree of 8 every index is equally likely.
func (t *Traverser) Step(buf []byte, i int) (perm int, inverse bool) {
	width := t.BitsPerStep()
	v := GetBits(buf, i*width, width)
	return int((v >> 1) % uint64(len(t.perms))), v&1 == 1
}

// Go walks forward from start.
func (t *Traverser) Go(start uint64, buf []byte) uint64 {
	t.checkBuffer(buf)
	x := start
	for i := 0; i < t.walkLength; i++ {
		p, inverse := t.Step(buf, i)
		if inverse {
			x = t.inversePerm[p][x]
		} else {
			x = t.perms[p][x]
		}
	}
	return x
}

// GoBack undoes Go for the same buffer.
func (t *Traverser) GoBack(start uint64, buf []byte) uint64 {
	t.checkBuffer(buf)
	x := start
	for i := t.walkLength - 1; i >= 0; i-- {
		p, inverse := t.Step(buf, i)
		if inverse {
			x = t.perms[p][x]
		} else {
			x = t.inversePerm[p][x]
		}
	}
	return x
}

func (t *Traverser) checkBuffer(buf []byte) {
	if len(buf) < t.RandomBufferSize() {
		panic(fmt.Sprintf("grafpe/subtle: random buffer has %d bytes, walk needs %d", len(buf), t.RandomBufferSize()))
	}
}

// GetBit returns bit i of buf, counting from the most significant bit of
// buf[0].
func GetBit(buf []byte, i int) bool {
	return buf[i/8]&(0x80>>(i%8)) != 0
}

// GetBits reads count bits starting at bit offset start, most significant
// first.
func GetBits(buf []byte, start, count int) uint64 {
	var v uint64
	for i := start; i < start+count; i++ {
		v <<= 1
		if GetBit(buf, i) {
			v |= 1
		}
	}
	return v
}
