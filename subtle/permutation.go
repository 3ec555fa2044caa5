package subtle

import "fmt"

// MinPermutationSize is the smallest size for which a permutation without
// fixed points and 2-cycles exists.
const MinPermutationSize = 3

// Permutation is a bijection on [0, len(p)).
type Permutation []uint64

// PermutationGenerator produces pseudorandom permutations that have neither
// fixed points nor 2-cycles.
type PermutationGenerator interface {
	// CreatePermutation returns a fresh valid permutation of [0, size).
	CreatePermutation(size uint64) Permutation
	// Repermute shuffles p in place until it is valid again. index is the
	// vertex that made the permutation unacceptable; generators may use it
	// to limit how much of p is disturbed.
	Repermute(p Permutation, index uint64)
}

// IsPermutation reports whether p is a bijection on [0, len(p)).
func IsPermutation(p []uint64) bool {
	seen := make([]bool, len(p))
	for _, v := range p {
		if v >= uint64(len(p)) || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

// ValidPermutation returns the first index i with p[p[i]] == i, which
// covers both fixed points and 2-cycles. ok is true when there is none.
func ValidPermutation(p Permutation) (index uint64, ok bool) {
	for i := range p {
		if p[p[i]] == uint64(i) {
			return uint64(i), false
		}
	}
	return 0, true
}

// Inverse returns the inverse of p.
func Inverse(p Permutation) Permutation {
	inv := make(Permutation, len(p))
	for i, v := range p {
		inv[v] = uint64(i)
	}
	return inv
}

func identity(size uint64) Permutation {
	p := make(Permutation, size)
	for i := range p {
		p[i] = uint64(i)
	}
	return p
}

func checkPermutationSize(size uint64) {
	if size < MinPermutationSize {
		panic(fmt.Sprintf("grafpe/subtle: no valid permutation of size %d", size))
	}
}

// RiffleGenerator generates permutations with the inverse riffle shuffle.
// It is the generator whose output two parties can reproduce from the same
// key and iv.
type RiffleGenerator struct {
	src ByteSource
}

// NewRiffleGenerator returns a RiffleGenerator that owns src.
func NewRiffleGenerator(src ByteSource) *RiffleGenerator {
	return &RiffleGenerator{src: src}
}

// riffleState holds the per-position bit histories and the scratch buffers
// for one shuffle.
type riffleState struct {
	slots     []uint64
	nextNums  Permutation
	nextSlots []uint64
}

func newRiffleState(size uint64) *riffleState {
	return &riffleState{
		slots:     make([]uint64, size),
		nextNums:  make(Permutation, size),
		nextSlots: make([]uint64, size),
	}
}

// CreatePermutation implements PermutationGenerator.
func (g *RiffleGenerator) CreatePermutation(size uint64) Permutation {
	checkPermutationSize(size)
	p := identity(size)
	st := newRiffleState(size)

	// Shuffle until every element has a distinct bit history.
	for {
		g.round(p, st)
		if !hasAdjacentEqual(st.slots) {
			break
		}
	}
	for {
		if _, ok := ValidPermutation(p); ok {
			return p
		}
		g.round(p, st)
	}
}

// Repermute implements PermutationGenerator. The riffle shuffle always
// touches the whole permutation, so index is ignored.
func (g *RiffleGenerator) Repermute(p Permutation, _ uint64) {
	st := newRiffleState(uint64(len(p)))
	for {
		g.round(p, st)
		if _, ok := ValidPermutation(p); ok {
			return
		}
	}
}

// round draws one bit per position and stably moves the elements that drew
// a one to the back.
func (g *RiffleGenerator) round(p Permutation, st *riffleState) {
	ones := 0
	for i := range st.slots {
		var bit uint64
		if g.src.FetchBit() {
			bit = 1
		}
		st.slots[i] = st.slots[i]<<1 | bit
		ones += int(bit)
	}

	size := len(p)
	movedOnes, movedZeros := 0, 0
	for i := size - 1; i >= 0; i-- {
		var pos int
		if st.slots[i]&1 == 1 {
			pos = size - movedOnes - 1
			movedOnes++
		} else {
			pos = size - ones - movedZeros - 1
			movedZeros++
		}
		st.nextSlots[pos] = st.slots[i]
		st.nextNums[pos] = p[i]
	}
	copy(p, st.nextNums)
	st.slots, st.nextSlots = st.nextSlots, st.slots
}

func hasAdjacentEqual(s []uint64) bool {
	for i := 1; i < len(s); i++ {
		if s[i] == s[i-1] {
			return true
		}
	}
	return false
}

// SwapGenerator is a faster, unstable shuffle. Its output differs from
// RiffleGenerator for the same source, so both parties must agree on it.
type SwapGenerator struct {
	src ByteSource
}

// NewSwapGenerator returns a SwapGenerator that owns src.
func NewSwapGenerator(src ByteSource) *SwapGenerator {
	return &SwapGenerator{src: src}
}

// CreatePermutation implements PermutationGenerator.
func (g *SwapGenerator) CreatePermutation(size uint64) Permutation {
	checkPermutationSize(size)
	p := identity(size)
	slots := make([]uint64, size)
	for !g.shuffle(p, slots) {
	}
	g.repair(p)
	return p
}

// Repermute implements PermutationGenerator. Each round stops as soon as the
// element at index has been moved.
func (g *SwapGenerator) Repermute(p Permutation, index uint64) {
	for !g.swapRound(p, index) {
	}
	g.repair(p)
}

func (g *SwapGenerator) repair(p Permutation) {
	for {
		bad, ok := ValidPermutation(p)
		if ok {
			return
		}
		for !g.swapRound(p, bad) {
		}
	}
}

// shuffle moves the elements that drew a one to the front and reports
// whether all neighbouring bit histories differ.
func (g *SwapGenerator) shuffle(p Permutation, slots []uint64) bool {
	front := 0
	valid := true
	prev := ^uint64(0)
	for i := range p {
		cur := i
		var bit uint64
		if g.src.FetchBit() {
			bit = 1
		}
		slots[i] = slots[i]<<1 | bit
		if bit == 1 {
			p[i], p[front] = p[front], p[i]
			slots[i], slots[front] = slots[front], slots[i]
			cur = front
			front++
		}
		valid = valid && prev != slots[cur]
		prev = slots[cur]
	}
	return valid
}

// swapRound is one pass of swaps. It returns true once position index took
// part in a swap.
func (g *SwapGenerator) swapRound(p Permutation, index uint64) bool {
	front := uint64(0)
	for i := uint64(0); i < uint64(len(p)); i++ {
		if !g.src.FetchBit() {
			continue
		}
		p[i], p[front] = p[front], p[i]
		if index == i || front == index {
			return true
		}
		front++
	}
	return false
}

var (
	_ PermutationGenerator = (*RiffleGenerator)(nil)
	_ PermutationGenerator = (*SwapGenerator)(nil)
)
