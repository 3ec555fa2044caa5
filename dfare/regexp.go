// Package dfare turns regular expressions into deterministic automata with
// Brzozowski derivatives and ranks the fixed-length words of their languages.
//
// Ranking gives an order-preserving bijection between the words of length n
// accepted by an expression and the integers [0, MaxRank), which lets a
// format-preserving cipher over integers encrypt structured strings.
package dfare

import (
	"fmt"
	"sort"
	"strings"
)

// Kind identifies the variant of a RegExp node.
type Kind uint8

const (
	// KindEmpty matches nothing.
	KindEmpty Kind = iota
	// KindEps matches only the empty string.
	KindEps
	// KindLiteral matches one character.
	KindLiteral
	// KindConcat matches Left followed by Right.
	KindConcat
	// KindSum matches Left or Right.
	KindSum
	// KindClosure matches any number of repetitions of Left.
	KindClosure
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindEps:
		return "Eps"
	case KindLiteral:
		return "Literal"
	case KindConcat:
		return "Concat"
	case KindSum:
		return "Sum"
	case KindClosure:
		return "Closure"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// RegExp is an immutable regular expression node. Nodes are shared between
// expressions, so they must never be modified after construction.
//
// Nodes are built with the smart constructors Empty, Eps, Literal, Concat,
// Sum and Closure, which apply the simplifications that keep the set of
// derivatives finite.
type RegExp struct {
	kind  Kind
	char  byte
	left  *RegExp
	right *RegExp
}

var (
	emptyNode = &RegExp{kind: KindEmpty}
	epsNode   = &RegExp{kind: KindEps}
)

// Empty returns the expression matching no strings.
func Empty() *RegExp { return emptyNode }

// Eps returns the expression matching only the empty string.
func Eps() *RegExp { return epsNode }

// Literal returns the expression matching the single character c.
func Literal(c byte) *RegExp {
	return &RegExp{kind: KindLiteral, char: c}
}

// Concat returns l followed by r. Empty absorbs, Eps is the identity and
// concatenations are kept right-associated.
func Concat(l, r *RegExp) *RegExp {
	switch {
	case l.kind == KindEmpty || r.kind == KindEmpty:
		return emptyNode
	case l.kind == KindEps:
		return r
	case r.kind == KindEps:
		return l
	case l.kind == KindConcat:
		return Concat(l.left, Concat(l.right, r))
	}
	return &RegExp{kind: KindConcat, left: l, right: r}
}

// Sum returns the alternative of l and r. Sum is idempotent, Empty is the
// identity, and a Sum that already contains the other operand as a direct
// child absorbs it.
func Sum(l, r *RegExp) *RegExp {
	switch {
	case l.Equal(r):
		return l
	case l.kind == KindEmpty:
		return r
	case r.kind == KindEmpty:
		return l
	case l.kind == KindSum && (l.left.Equal(r) || l.right.Equal(r)):
		return l
	case r.kind == KindSum && (r.left.Equal(l) || r.right.Equal(l)):
		return r
	}
	return &RegExp{kind: KindSum, left: l, right: r}
}

// Closure returns the Kleene star of x.
func Closure(x *RegExp) *RegExp {
	switch x.kind {
	case KindClosure:
		return x
	case KindEps, KindEmpty:
		return epsNode
	}
	return &RegExp{kind: KindClosure, left: x}
}

// Kind returns the node variant.
func (r *RegExp) Kind() Kind { return r.kind }

// Char returns the character of a Literal node.
func (r *RegExp) Char() byte { return r.char }

// Left returns the left operand of Concat and Sum, or the operand of Closure.
func (r *RegExp) Left() *RegExp { return r.left }

// Right returns the right operand of Concat and Sum.
func (r *RegExp) Right() *RegExp { return r.right }

// MatchesEmpty reports whether the empty string is in the language of r.
func (r *RegExp) MatchesEmpty() bool {
	switch r.kind {
	case KindEps, KindClosure:
		return true
	case KindConcat:
		return r.left.MatchesEmpty() && r.right.MatchesEmpty()
	case KindSum:
		return r.left.MatchesEmpty() || r.right.MatchesEmpty()
	default:
		return false
	}
}

// Derivative returns the Brzozowski derivative of r with respect to c: the
// expression matching every w such that c+w matches r.
func (r *RegExp) Derivative(c byte) *RegExp {
	switch r.kind {
	case KindLiteral:
		if r.char == c {
			return epsNode
		}
		return emptyNode
	case KindConcat:
		head := Concat(r.left.Derivative(c), r.right)
		if !r.left.MatchesEmpty() {
			return head
		}
		return Sum(head, r.right.Derivative(c))
	case KindSum:
		return Sum(r.left.Derivative(c), r.right.Derivative(c))
	case KindClosure:
		return Concat(r.left.Derivative(c), r)
	default:
		return emptyNode
	}
}

// Equal reports whether r and o are structurally identical.
func (r *RegExp) Equal(o *RegExp) bool {
	if r == o {
		return true
	}
	if r == nil || o == nil || r.kind != o.kind {
		return false
	}
	switch r.kind {
	case KindEmpty, KindEps:
		return true
	case KindLiteral:
		return r.char == o.char
	case KindClosure:
		return r.left.Equal(o.left)
	default:
		return r.left.Equal(o.left) && r.right.Equal(o.right)
	}
}

// Equivalent reports whether r and o are equal up to associativity of
// concatenation and associativity, commutativity and idempotence of sums.
// Equivalent expressions denote the same language.
func (r *RegExp) Equivalent(o *RegExp) bool {
	return r.Equal(o) || r.canonical() == o.canonical()
}

// canonical returns a key that is identical for equivalent expressions.
func (r *RegExp) canonical() string {
	var sb strings.Builder
	r.writeCanonical(&sb)
	return sb.String()
}

func (r *RegExp) writeCanonical(sb *strings.Builder) {
	switch r.kind {
	case KindEmpty:
		sb.WriteByte('0')
	case KindEps:
		sb.WriteByte('1')
	case KindLiteral:
		fmt.Fprintf(sb, "'%02x", r.char)
	case KindClosure:
		sb.WriteString("K(")
		r.left.writeCanonical(sb)
		sb.WriteByte(')')
	case KindConcat:
		sb.WriteString("C(")
		for i, f := range r.flatten(KindConcat, nil) {
			if i > 0 {
				sb.WriteByte(',')
			}
			f.writeCanonical(sb)
		}
		sb.WriteByte(')')
	case KindSum:
		terms := r.flatten(KindSum, nil)
		keys := make([]string, 0, len(terms))
		for _, t := range terms {
			keys = append(keys, t.canonical())
		}
		sort.Strings(keys)
		uniq := keys[:1]
		for _, k := range keys[1:] {
			if k != uniq[len(uniq)-1] {
				uniq = append(uniq, k)
			}
		}
		if len(uniq) == 1 {
			sb.WriteString(uniq[0])
			return
		}
		sb.WriteString("S(")
		sb.WriteString(strings.Join(uniq, ","))
		sb.WriteByte(')')
	}
}

// flatten collects the operands of nested nodes of the given kind in order.
func (r *RegExp) flatten(kind Kind, out []*RegExp) []*RegExp {
	if r.kind != kind {
		return append(out, r)
	}
	out = r.left.flatten(kind, out)
	return r.right.flatten(kind, out)
}

// String renders r in the parser's syntax: Empty is "Null", Eps is "eps",
// sums are parenthesized and a starred non-literal is wrapped in "(...)*".
func (r *RegExp) String() string {
	var sb strings.Builder
	r.writeString(&sb)
	return sb.String()
}

func (r *RegExp) writeString(sb *strings.Builder) {
	switch r.kind {
	case KindEmpty:
		sb.WriteString("Null")
	case KindEps:
		sb.WriteString("eps")
	case KindLiteral:
		sb.WriteByte(r.char)
	case KindConcat:
		r.left.writeString(sb)
		r.right.writeString(sb)
	case KindSum:
		sb.WriteByte('(')
		r.left.writeString(sb)
		sb.WriteByte('+')
		r.right.writeString(sb)
		sb.WriteByte(')')
	case KindClosure:
		if r.left.kind == KindLiteral {
			sb.WriteByte(r.left.char)
		} else {
			sb.WriteByte('(')
			r.left.writeString(sb)
			sb.WriteByte(')')
		}
		sb.WriteByte('*')
	}
}

// literals adds every literal character of r to set.
func (r *RegExp) literals(set map[byte]struct{}) {
	switch r.kind {
	case KindLiteral:
		set[r.char] = struct{}{}
	case KindClosure:
		r.left.literals(set)
	case KindConcat, KindSum:
		r.left.literals(set)
		r.right.literals(set)
	}
}
