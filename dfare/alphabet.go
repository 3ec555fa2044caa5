package dfare

import "sort"

// Alphabet is a sorted set of distinct characters. The position of a
// character in the set is its order for ranking.
type Alphabet struct {
	chars []byte
}

// NewAlphabet returns the alphabet of the distinct characters of s.
func NewAlphabet(s string) Alphabet {
	var a Alphabet
	for i := 0; i < len(s); i++ {
		a = a.With(s[i])
	}
	return a
}

// AlphabetOf returns the characters that appear as literals in r.
func AlphabetOf(r *RegExp) Alphabet {
	set := make(map[byte]struct{})
	r.literals(set)
	chars := make([]byte, 0, len(set))
	for c := range set {
		chars = append(chars, c)
	}
	sort.Slice(chars, func(i, j int) bool { return chars[i] < chars[j] })
	return Alphabet{chars: chars}
}

// With returns a copy of a that also contains c.
func (a Alphabet) With(c byte) Alphabet {
	i, found := a.search(c)
	if found {
		return a
	}
	chars := make([]byte, 0, len(a.chars)+1)
	chars = append(chars, a.chars[:i]...)
	chars = append(chars, c)
	chars = append(chars, a.chars[i:]...)
	return Alphabet{chars: chars}
}

func (a Alphabet) search(c byte) (int, bool) {
	i := sort.Search(len(a.chars), func(i int) bool { return a.chars[i] >= c })
	return i, i < len(a.chars) && a.chars[i] == c
}

// Index returns the position of c, or -1 if c is not in the alphabet.
func (a Alphabet) Index(c byte) int {
	if i, ok := a.search(c); ok {
		return i
	}
	return -1
}

// Contains reports whether c is in the alphabet.
func (a Alphabet) Contains(c byte) bool {
	_, ok := a.search(c)
	return ok
}

// Char returns the character at position i.
func (a Alphabet) Char(i int) byte { return a.chars[i] }

// Len returns the number of characters.
func (a Alphabet) Len() int { return len(a.chars) }

// String returns the characters in order.
func (a Alphabet) String() string { return string(a.chars) }
