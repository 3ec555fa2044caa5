package dfare

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// MaxStates bounds the number of states explored while building a DFA.
const MaxStates = 1 << 16

// DFA is the derivative automaton of a regular expression. State 0 is the
// start state; the last state is a dead state that rejects everything.
// A DFA is immutable and safe for concurrent use.
type DFA struct {
	states    []*RegExp
	trans     [][]int // trans[state][alphabet index]
	accepting []bool
	alphabet  Alphabet
}

// FromString parses pattern and builds its DFA.
func FromString(pattern string) (*DFA, error) {
	r, err := Parse(pattern)
	if err != nil {
		return nil, err
	}
	return NewDFA(r)
}

// NewDFA explores the derivatives of r. Derivatives that are equivalent to
// an already known state are merged into it.
func NewDFA(r *RegExp) (*DFA, error) {
	d := &DFA{alphabet: AlphabetOf(r)}
	known := map[string]int{r.canonical(): 0}
	d.states = append(d.states, r)

	for s := 0; s < len(d.states); s++ {
		row := make([]int, d.alphabet.Len())
		for ci := range row {
			next := d.states[s].Derivative(d.alphabet.Char(ci))
			if next.Kind() == KindEmpty {
				row[ci] = -1 // patched to the dead state below
				continue
			}
			key := next.canonical()
			j, ok := known[key]
			if !ok {
				if len(d.states) == MaxStates {
					return nil, fmt.Errorf("%w: more than %d", ErrTooManyStates, MaxStates)
				}
				j = len(d.states)
				known[key] = j
				d.states = append(d.states, next)
			}
			row[ci] = j
		}
		d.trans = append(d.trans, row)
	}

	dead := len(d.states)
	for _, row := range d.trans {
		for ci, t := range row {
			if t < 0 {
				row[ci] = dead
			}
		}
	}
	d.states = append(d.states, Empty())
	deadRow := make([]int, d.alphabet.Len())
	for i := range deadRow {
		deadRow[i] = dead
	}
	d.trans = append(d.trans, deadRow)

	d.accepting = make([]bool, len(d.states))
	for i, st := range d.states {
		d.accepting[i] = st.MatchesEmpty()
	}
	return d, nil
}

// Start returns the start state.
func (d *DFA) Start() int { return 0 }

// Dead returns the dead state.
func (d *DFA) Dead() int { return len(d.states) - 1 }

// NumStates returns the number of states including the dead state.
func (d *DFA) NumStates() int { return len(d.states) }

// State returns the expression that state i stands for.
func (d *DFA) State(i int) *RegExp { return d.states[i] }

// Alphabet returns the characters of the automaton.
func (d *DFA) Alphabet() Alphabet { return d.alphabet }

// IsAccepting reports whether state i accepts.
func (d *DFA) IsAccepting(i int) bool {
	return i >= 0 && i < len(d.accepting) && d.accepting[i]
}

// Transition returns the state reached from state from on c. Characters
// outside the alphabet and unknown states lead to the dead state.
func (d *DFA) Transition(from int, c byte) int {
	ci := d.alphabet.Index(c)
	if ci < 0 || from < 0 || from >= len(d.trans) {
		return d.Dead()
	}
	return d.trans[from][ci]
}

// transitionAt is Transition for a known alphabet index.
func (d *DFA) transitionAt(from, ci int) int {
	return d.trans[from][ci]
}

// Run returns the state reached from the start state on input.
func (d *DFA) Run(input string) int {
	s := d.Start()
	for i := 0; i < len(input); i++ {
		s = d.Transition(s, input[i])
	}
	return s
}

// Accepts reports whether input is in the language of the automaton.
func (d *DFA) Accepts(input string) bool {
	return d.accepting[d.Run(input)]
}

// WriteDot writes the automaton in GraphViz format. Accepting states are
// drawn with a double circle; the dead state and edges into it are omitted.
func (d *DFA) WriteDot(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "digraph dfa {\n\trankdir=LR;\n")
	dead := d.Dead()
	for s := 0; s < dead; s++ {
		shape := "circle"
		if d.accepting[s] {
			shape = "doublecircle"
		}
		fmt.Fprintf(bw, "\t%d [shape=%s, tooltip=%s];\n", s, shape, strconv.Quote(d.states[s].String()))
	}
	for s := 0; s < dead; s++ {
		for ci, t := range d.trans[s] {
			if t == dead {
				continue
			}
			fmt.Fprintf(bw, "\t%d -> %d [label=%s];\n", s, t, strconv.Quote(string(d.alphabet.Char(ci))))
		}
	}
	fmt.Fprintf(bw, "}\n")
	return bw.Flush()
}
