package dfare

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type RegExpSuite struct {
	suite.Suite
	a, b, c *RegExp
}

func (s *RegExpSuite) SetupTest() {
	s.a = Literal('a')
	s.b = Literal('b')
	s.c = Literal('c')
}

func TestRegExpSuite(t *testing.T) {
	suite.Run(t, new(RegExpSuite))
}

func (s *RegExpSuite) TestConcatSimplifications() {
	s.Equal(KindEmpty, Concat(Empty(), s.a).Kind())
	s.Equal(KindEmpty, Concat(s.a, Empty()).Kind())
	s.True(Concat(Eps(), s.a).Equal(s.a))
	s.True(Concat(s.a, Eps()).Equal(s.a))

	r := Concat(Concat(s.a, s.b), s.c)
	s.Equal(KindConcat, r.Kind())
	s.True(r.Left().Equal(s.a), "left operand of a right-associated chain")
	s.True(r.Right().Equal(Concat(s.b, s.c)))
	s.True(r.Equal(Concat(s.a, Concat(s.b, s.c))))
}

func (s *RegExpSuite) TestSumSimplifications() {
	s.True(Sum(s.a, Literal('a')).Equal(s.a))
	s.True(Sum(Empty(), s.a).Equal(s.a))
	s.True(Sum(s.a, Empty()).Equal(s.a))

	ab := Sum(s.a, s.b)
	s.True(Sum(ab, s.b).Equal(ab))
	s.True(Sum(ab, s.a).Equal(ab))
	s.True(Sum(s.a, ab).Equal(ab))

	// Order is not canonicalized.
	s.False(Sum(s.a, s.b).Equal(Sum(s.b, s.a)))
}

func (s *RegExpSuite) TestClosureSimplifications() {
	star := Closure(s.a)
	s.True(Closure(star).Equal(star))
	s.Equal(KindEps, Closure(Eps()).Kind())
	s.Equal(KindEps, Closure(Empty()).Kind())
}

func (s *RegExpSuite) TestMatchesEmpty() {
	tests := []struct {
		r    *RegExp
		want bool
	}{
		{Empty(), false},
		{Eps(), true},
		{s.a, false},
		{Closure(s.a), true},
		{Concat(Closure(s.a), s.b), false},
		{Concat(Closure(s.a), Closure(s.b)), true},
		{Sum(s.a, Closure(s.b)), true},
		{Sum(s.a, s.b), false},
	}
	for _, tt := range tests {
		s.Equal(tt.want, tt.r.MatchesEmpty(), tt.r.String())
	}
}

func (s *RegExpSuite) TestDerivativeAlgebra() {
	for _, ch := range []byte("abz+*") {
		s.Equal(KindEmpty, Eps().Derivative(ch).Kind())
		s.Equal(KindEmpty, Empty().Derivative(ch).Kind())
	}
	s.Equal(KindEps, s.a.Derivative('a').Kind())
	s.Equal(KindEmpty, s.a.Derivative('b').Kind())

	r := Sum(s.a, Concat(s.b, s.c))
	for _, ch := range []byte("abc") {
		want := Concat(r.Derivative(ch), Closure(r))
		s.True(Closure(r).Derivative(ch).Equal(want), "d/d%c of %v", ch, Closure(r))
	}

	s.True(Closure(s.a).Derivative('a').Equal(Closure(s.a)))
	s.Equal(KindEps, Concat(Closure(s.a), s.b).Derivative('b').Kind())
	s.True(Concat(s.a, s.b).Derivative('a').Equal(s.b))
}

func (s *RegExpSuite) TestEquivalent() {
	s.True(Sum(s.a, s.b).Equivalent(Sum(s.b, s.a)))
	s.True(Sum(s.a, Sum(s.b, s.c)).Equivalent(Sum(Sum(s.c, s.a), s.b)))
	s.True(Sum(s.a, Sum(s.b, s.a)).Equivalent(Sum(s.b, s.a)))
	s.True(Closure(Sum(s.a, s.b)).Equivalent(Closure(Sum(s.b, s.a))))
	s.True(Concat(Sum(s.a, s.b), s.c).Equivalent(Concat(Sum(s.b, s.a), s.c)))

	s.False(Concat(s.a, s.b).Equivalent(Concat(s.b, s.a)))
	s.False(Closure(s.a).Equivalent(s.a))
	s.False(Eps().Equivalent(Empty()))
}

func (s *RegExpSuite) TestString() {
	tests := []struct {
		r    *RegExp
		want string
	}{
		{Empty(), "Null"},
		{Eps(), "eps"},
		{s.a, "a"},
		{Concat(s.a, s.b), "ab"},
		{Sum(s.a, s.b), "(a+b)"},
		{Closure(s.a), "a*"},
		{Closure(Concat(s.a, s.b)), "(ab)*"},
		{Concat(s.a, Concat(Closure(Sum(s.b, s.c)), Literal('d'))), "a((b+c))*d"},
	}
	for _, tt := range tests {
		s.Equal(tt.want, tt.r.String())
	}
}

func (s *RegExpSuite) TestAlphabetOf() {
	r := Concat(s.c, Closure(Sum(s.a, Concat(s.c, s.b))))
	s.Equal("abc", AlphabetOf(r).String())
	s.Equal(0, AlphabetOf(Eps()).Len())
}
