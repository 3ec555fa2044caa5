package dfare

import (
	"fmt"
	"math/bits"
)

// RankedDFA ranks the words of length n accepted by a DFA in lexicographic
// order of its alphabet.
// A RankedDFA is immutable and safe for concurrent use.
type RankedDFA struct {
	dfa *DFA
	n   int
	// table[k][s] is the number of words of length k leading from s to an
	// accepting state.
	table [][]uint64
}

// RankedFromString builds the ranked automaton of pattern for words of
// length n.
func RankedFromString(pattern string, n int) (*RankedDFA, error) {
	d, err := FromString(pattern)
	if err != nil {
		return nil, err
	}
	return NewRankedDFA(d, n)
}

// NewRankedDFA counts the accepted words of every length up to n. It fails
// with ErrRankOverflow if a count does not fit in a uint64.
func NewRankedDFA(d *DFA, n int) (*RankedDFA, error) {
	if n < 0 {
		return nil, fmt.Errorf("word length must not be negative, got %d", n)
	}
	states := d.NumStates()
	table := make([][]uint64, n+1)
	table[0] = make([]uint64, states)
	for s := 0; s < states; s++ {
		if d.IsAccepting(s) {
			table[0][s] = 1
		}
	}
	for k := 1; k <= n; k++ {
		row := make([]uint64, states)
		for s := 0; s < states; s++ {
			var sum, carry uint64
			for ci := 0; ci < d.alphabet.Len(); ci++ {
				sum, carry = bits.Add64(sum, table[k-1][d.transitionAt(s, ci)], 0)
				if carry != 0 {
					return nil, fmt.Errorf("%w: words of length %d", ErrRankOverflow, k)
				}
			}
			row[s] = sum
		}
		table[k] = row
	}
	return &RankedDFA{dfa: d, n: n, table: table}, nil
}

// DFA returns the underlying automaton.
func (r *RankedDFA) DFA() *DFA { return r.dfa }

// WordLength returns n.
func (r *RankedDFA) WordLength() int { return r.n }

// MaxRank returns the number of accepted words of length n.
func (r *RankedDFA) MaxRank() uint64 {
	return r.table[r.n][r.dfa.Start()]
}

// Count returns the number of words of length k leading from state to
// acceptance.
func (r *RankedDFA) Count(state, k int) uint64 {
	if k < 0 || k > r.n || state < 0 || state >= r.dfa.NumStates() {
		return 0
	}
	return r.table[k][state]
}

// Rank returns the position of word among the accepted words of length n.
func (r *RankedDFA) Rank(word string) (uint64, error) {
	if len(word) != r.n {
		return 0, fmt.Errorf("%w: %q has length %d, want %d", ErrNotInLanguage, word, len(word), r.n)
	}
	if !r.dfa.Accepts(word) {
		return 0, fmt.Errorf("%w: %q", ErrNotInLanguage, word)
	}
	d := r.dfa
	state := d.Start()
	var rank uint64
	for i := 0; i < len(word); i++ {
		rest := r.n - i - 1
		ci := d.alphabet.Index(word[i])
		for smaller := 0; smaller < ci; smaller++ {
			rank += r.table[rest][d.transitionAt(state, smaller)]
		}
		state = d.transitionAt(state, ci)
	}
	return rank, nil
}

// Unrank returns the accepted word of length n with the given rank. It
// panics if rank >= MaxRank().
func (r *RankedDFA) Unrank(rank uint64) string {
	if rank >= r.MaxRank() {
		panic(fmt.Sprintf("dfare: rank %d out of range [0, %d)", rank, r.MaxRank()))
	}
	d := r.dfa
	state := d.Start()
	word := make([]byte, r.n)
	for i := range word {
		rest := r.n - i - 1
		for ci := 0; ci < d.alphabet.Len(); ci++ {
			next := d.transitionAt(state, ci)
			count := r.table[rest][next]
			if rank < count {
				word[i] = d.alphabet.Char(ci)
				state = next
				break
			}
			rank -= count
		}
	}
	return string(word)
}
