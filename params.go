package grafpe

import (
	"errors"
	"fmt"

	"github.com/adambudziak/grafpe/subtle"
)

const (
	// DefaultDegree is the graph degree used by DefaultParams.
	DefaultDegree = 8
	// DefaultWalkLength is the walk length used by DefaultParams.
	DefaultWalkLength = 20
)

// ErrInvalidParams is returned for parameters that cannot describe a cipher.
var ErrInvalidParams = errors.New("grafpe: invalid parameters")

// GeneratorKind selects the permutation generator used to build the graph.
type GeneratorKind int

const (
	// GeneratorRiffle is the inverse riffle shuffle.
	GeneratorRiffle GeneratorKind = iota
	// GeneratorSwap is the faster swap shuffle.
	GeneratorSwap
)

// String implements fmt.Stringer.
func (k GeneratorKind) String() string {
	switch k {
	case GeneratorRiffle:
		return "riffle"
	case GeneratorSwap:
		return "swap"
	default:
		return fmt.Sprintf("GeneratorKind(%d)", int(k))
	}
}

// Params describes a GraFPE instance. Together with the key and iv they
// determine the graph, so both parties must agree on all of them.
type Params struct {
	// N is the size of the domain [0, N).
	N uint64
	// D is the degree of the graph. It must be even and at most
	// subtle.MaxDegree(N).
	D uint64
	// WalkLength is the number of graph steps per walk.
	WalkLength int
	// Policy selects how conflicting permutations are repaired.
	Policy subtle.BuildPolicy
	// Generator selects the permutation generator.
	Generator GeneratorKind
}

// DefaultParams returns parameters for a domain of size n. Small domains get
// the highest degree the builder accepts, subtle.MaxDegree(n).
func DefaultParams(n uint64) Params {
	d := min(uint64(DefaultDegree), subtle.MaxDegree(n))
	return Params{
		N:          n,
		D:          d,
		WalkLength: DefaultWalkLength,
		Policy:     subtle.PolicyCompat,
		Generator:  GeneratorRiffle,
	}
}

// Validate checks that p describes a buildable cipher.
func (p Params) Validate() error {
	if p.D%2 != 0 {
		return fmt.Errorf("%w: degree must be even, got %d", ErrInvalidParams, p.D)
	}
	if p.WalkLength <= 0 {
		return fmt.Errorf("%w: walk length must be positive, got %d", ErrInvalidParams, p.WalkLength)
	}
	switch p.Policy {
	case subtle.PolicyCompat, subtle.PolicyPrune:
	default:
		return fmt.Errorf("%w: unknown policy %v", ErrInvalidParams, p.Policy)
	}
	switch p.Generator {
	case GeneratorRiffle, GeneratorSwap:
	default:
		return fmt.Errorf("%w: unknown generator %v", ErrInvalidParams, p.Generator)
	}
	if err := subtle.CheckGraphParams(p.N, p.D); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return nil
}

func (p Params) newGenerator(src subtle.ByteSource) subtle.PermutationGenerator {
	if p.Generator == GeneratorSwap {
		return subtle.NewSwapGenerator(src)
	}
	return subtle.NewRiffleGenerator(src)
}
