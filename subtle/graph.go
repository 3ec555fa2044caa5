package subtle

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// MaxGraphEntries bounds n*d/2, the number of permutation entries a graph
// holds. Each entry costs 16 bytes once the traverser adds the inverses.
const MaxGraphEntries = 1 << 28

const (
	// maxRepairs bounds the repairs of one permutation under PolicyCompat.
	maxRepairs = 1 << 20
	// maxPruneAttempts bounds the batches drawn under PolicyPrune.
	maxPruneAttempts = 1 << 24
)

var (
	// ErrNoValidGraph is returned when no graph without self-loops, 2-cycles
	// and multi-edges exists for the requested parameters.
	ErrNoValidGraph = errors.New("grafpe: parameters imply no valid graph exists")
	// ErrGraphTooLarge is returned when the graph would exceed MaxGraphEntries.
	ErrGraphTooLarge = errors.New("grafpe: graph too large")
	// ErrGraphTooDense is returned when d exceeds MaxDegree(n). Random
	// repairs practically never complete such graphs.
	ErrGraphTooDense = errors.New("grafpe: degree too high for the number of vertices")
)

// BuildPolicy selects how the builder reacts to conflicting permutations.
type BuildPolicy int

const (
	// PolicyCompat repairs only the newest permutation until it agrees with
	// every earlier one. It is the interoperable default.
	PolicyCompat BuildPolicy = iota
	// PolicyPrune discards and regenerates the whole batch on any conflict.
	PolicyPrune
)

// String implements fmt.Stringer.
func (p BuildPolicy) String() string {
	switch p {
	case PolicyCompat:
		return "compat"
	case PolicyPrune:
		return "prune"
	default:
		return fmt.Sprintf("BuildPolicy(%d)", int(p))
	}
}

// Graph is a d-regular graph on n vertices described by d/2 permutations.
// Every permutation contributes the edges v->P(v) and v->P^-1(v).
type Graph struct {
	N            uint64
	D            uint64
	Permutations []Permutation
}

// BuilderOption configures a GraphBuilder.
type BuilderOption func(*GraphBuilder)

// WithPolicy sets the construction policy.
func WithPolicy(p BuildPolicy) BuilderOption {
	return func(b *GraphBuilder) { b.policy = p }
}

// WithLogger sets the logger used to report progress.
func WithLogger(l logrus.FieldLogger) BuilderOption {
	return func(b *GraphBuilder) { b.log = l }
}

// GraphBuilder builds pseudorandom permutation graphs.
type GraphBuilder struct {
	gen    PermutationGenerator
	policy BuildPolicy
	log    logrus.FieldLogger
}

// NewGraphBuilder returns a builder drawing permutations from gen.
func NewGraphBuilder(gen PermutationGenerator, opts ...BuilderOption) *GraphBuilder {
	b := &GraphBuilder{
		gen:    gen,
		policy: PolicyCompat,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// MaxDegree returns the largest degree the builder accepts for n vertices:
// the even part of (n-1)/2, but at least 2.
func MaxDegree(n uint64) uint64 {
	if n < MinPermutationSize {
		return 2
	}
	return max(2, ((n-1)/2)&^1)
}

// CheckGraphParams reports whether a valid graph with n vertices and degree
// d can be built. An odd d is a programming error and panics.
func CheckGraphParams(n, d uint64) error {
	if d%2 != 0 {
		panic(fmt.Sprintf("grafpe/subtle: degree must be even, got %d", d))
	}
	if d == 0 || n < MinPermutationSize || d >= n {
		return fmt.Errorf("%w: n=%d d=%d (need 2 <= d < n and n >= %d)", ErrNoValidGraph, n, d, MinPermutationSize)
	}
	if d > MaxDegree(n) {
		return fmt.Errorf("%w: n=%d d=%d (at most %d)", ErrGraphTooDense, n, d, MaxDegree(n))
	}
	if n > MaxGraphEntries/(d/2) {
		return fmt.Errorf("%w: n=%d d=%d", ErrGraphTooLarge, n, d)
	}
	return nil
}

// Build generates a graph on n vertices with degree d.
func (b *GraphBuilder) Build(n, d uint64) (*Graph, error) {
	if err := CheckGraphParams(n, d); err != nil {
		return nil, err
	}
	log := b.log.WithFields(logrus.Fields{"n": n, "d": d, "policy": b.policy})

	var (
		perms []Permutation
		err   error
	)
	switch b.policy {
	case PolicyCompat:
		perms, err = b.buildCompat(n, d, log)
	case PolicyPrune:
		perms, err = b.buildPrune(n, d, log)
	default:
		return nil, fmt.Errorf("unknown build policy %v", b.policy)
	}
	if err != nil {
		return nil, err
	}

	log.Info("permutation graph built")
	return &Graph{N: n, D: d, Permutations: perms}, nil
}

func (b *GraphBuilder) buildCompat(n, d uint64, log logrus.FieldLogger) ([]Permutation, error) {
	perms := make([]Permutation, 0, d/2)
	for i := uint64(0); i < d/2; i++ {
		perms = append(perms, b.gen.CreatePermutation(n))
		last := perms[len(perms)-1]

		repairs := 0
		for {
			bad, ok := ValidLastPermutation(perms)
			if ok {
				break
			}
			if repairs == maxRepairs {
				return nil, fmt.Errorf("%w: permutation %d still conflicts after %d repairs", ErrNoValidGraph, i+1, repairs)
			}
			b.gen.Repermute(last, bad)
			repairs++
		}
		log.WithFields(logrus.Fields{"permutation": i + 1, "repairs": repairs}).Debug("generated permutation")
	}
	return perms, nil
}

func (b *GraphBuilder) buildPrune(n, d uint64, log logrus.FieldLogger) ([]Permutation, error) {
	perms := make([]Permutation, d/2)
	for attempt := 1; attempt <= maxPruneAttempts; attempt++ {
		for i := range perms {
			perms[i] = b.gen.CreatePermutation(n)
		}
		if _, ok := ValidPermutations(perms); ok {
			log.WithField("attempts", attempt).Debug("permutation batch accepted")
			return perms, nil
		}
	}
	return nil, fmt.Errorf("%w: no valid batch in %d attempts", ErrNoValidGraph, maxPruneAttempts)
}

// ValidLastPermutation checks the newest permutation of perms against all
// earlier ones. It returns the first vertex at which the newest permutation
// duplicates an edge of an earlier one.
func ValidLastPermutation(perms []Permutation) (index uint64, ok bool) {
	if len(perms) < 2 {
		return 0, true
	}
	last := perms[len(perms)-1]
	earlier := perms[:len(perms)-1]
	for i, v := range last {
		for _, p := range earlier {
			if p[v] == uint64(i) || p[i] == v {
				return uint64(i), false
			}
		}
	}
	return 0, true
}

// ValidPermutations checks every permutation against all that precede it.
func ValidPermutations(perms []Permutation) (index uint64, ok bool) {
	for k := 2; k <= len(perms); k++ {
		if bad, valid := ValidLastPermutation(perms[:k]); !valid {
			return bad, false
		}
	}
	return 0, true
}

// IsGraphValid reports whether g is a simple d-regular graph: it has d/2
// permutations of [0,n) and every vertex has d distinct neighbours, none
// of which is the vertex itself.
func IsGraphValid(g *Graph) bool {
	if g == nil || g.D%2 != 0 || uint64(len(g.Permutations)) != g.D/2 {
		return false
	}
	invs := make([]Permutation, len(g.Permutations))
	for i, p := range g.Permutations {
		if uint64(len(p)) != g.N || !IsPermutation(p) {
			return false
		}
		invs[i] = Inverse(p)
	}

	neighbours := make(map[uint64]struct{}, g.D)
	for v := uint64(0); v < g.N; v++ {
		clear(neighbours)
		for i, p := range g.Permutations {
			for _, w := range [2]uint64{p[v], invs[i][v]} {
				if w == v {
					return false
				}
				if _, dup := neighbours[w]; dup {
					return false
				}
				neighbours[w] = struct{}{}
			}
		}
	}
	return true
}

// WriteDot writes g in GraphViz format. Each permutation becomes a set of
// directed edges labelled with its index.
func (g *Graph) WriteDot(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "digraph grafpe {\n")
	fmt.Fprintf(bw, "\t// n=%d d=%d\n", g.N, g.D)
	for i, p := range g.Permutations {
		for v, u := range p {
			fmt.Fprintf(bw, "\t%d -> %d [label=%d];\n", v, u, i)
		}
	}
	fmt.Fprintf(bw, "}\n")
	return bw.Flush()
}
