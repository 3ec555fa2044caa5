package dfare

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRegexp is wrapped by every parse error.
	ErrInvalidRegexp = errors.New("invalid regexp")
	// ErrNotInLanguage is returned when ranking a word the automaton rejects.
	ErrNotInLanguage = errors.New("word not in language")
	// ErrRankOverflow is returned when a word count does not fit in uint64.
	ErrRankOverflow = errors.New("rank table overflows uint64")
	// ErrTooManyStates is returned when an automaton exceeds MaxStates.
	ErrTooManyStates = errors.New("automaton has too many states")
)

// SyntaxError describes why a pattern could not be parsed.
type SyntaxError struct {
	Pattern string
	Reason  string
}

// Error implements error.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrInvalidRegexp, e.Pattern, e.Reason)
}

// Unwrap returns ErrInvalidRegexp.
func (e *SyntaxError) Unwrap() error {
	return ErrInvalidRegexp
}
