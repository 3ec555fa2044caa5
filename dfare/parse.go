package dfare

import "fmt"

// Pattern syntax:
//
//	ab     concatenation (implicit)
//	a+b    alternation
//	a*     Kleene star
//	(...)  grouping
//	[x-y]  any character from x to y inclusive
//	\c     the character c, even if it is an operator
//
// Whitespace outside ranges and escapes is ignored. Every other character,
// including '.', stands for itself.

type tokenKind uint8

const (
	tokLiteral tokenKind = iota
	tokOpen
	tokClose
	tokSum
	tokConcat
	tokStar
)

type token struct {
	kind tokenKind
	char byte
}

// precedence of the binary operators; higher binds tighter.
func (k tokenKind) precedence() int {
	switch k {
	case tokConcat:
		return 2
	case tokSum:
		return 1
	default:
		return 0
	}
}

// Parse compiles pattern into a RegExp. Errors wrap ErrInvalidRegexp.
func Parse(pattern string) (*RegExp, error) {
	p := parser{pattern: pattern}
	tokens, err := p.tokenize()
	if err != nil {
		return nil, err
	}
	tokens, err = p.insertConcat(tokens)
	if err != nil {
		return nil, err
	}
	return p.evaluate(p.toPostfix(tokens))
}

// MustParse is like Parse but panics on error. It simplifies initialization
// of package-level expressions.
func MustParse(pattern string) *RegExp {
	r, err := Parse(pattern)
	if err != nil {
		panic(err)
	}
	return r
}

type parser struct {
	pattern string
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Pattern: p.pattern, Reason: fmt.Sprintf(format, args...)}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func (p *parser) tokenize() ([]token, error) {
	s := p.pattern
	tokens := make([]token, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isSpace(c):
		case c == '\\':
			if i+1 == len(s) {
				return nil, p.errorf("trailing backslash")
			}
			i++
			tokens = append(tokens, token{kind: tokLiteral, char: s[i]})
		case c == '[':
			if i+4 >= len(s) || s[i+2] != '-' || s[i+4] != ']' {
				return nil, p.errorf("malformed character range at offset %d", i)
			}
			lo, hi := s[i+1], s[i+3]
			if lo > hi {
				return nil, p.errorf("character range %q-%q is reversed", lo, hi)
			}
			tokens = append(tokens, token{kind: tokOpen})
			for ch := int(lo); ch <= int(hi); ch++ {
				if ch > int(lo) {
					tokens = append(tokens, token{kind: tokSum})
				}
				tokens = append(tokens, token{kind: tokLiteral, char: byte(ch)})
			}
			tokens = append(tokens, token{kind: tokClose})
			i += 4
		case c == '(':
			tokens = append(tokens, token{kind: tokOpen})
		case c == ')':
			tokens = append(tokens, token{kind: tokClose})
		case c == '+':
			tokens = append(tokens, token{kind: tokSum})
		case c == '*':
			tokens = append(tokens, token{kind: tokStar})
		default:
			tokens = append(tokens, token{kind: tokLiteral, char: c})
		}
	}
	return tokens, nil
}

// insertConcat makes concatenation explicit and rejects operators without
// operands and unbalanced parentheses.
func (p *parser) insertConcat(tokens []token) ([]token, error) {
	if len(tokens) == 0 {
		return nil, p.errorf("empty pattern")
	}
	out := make([]token, 0, 2*len(tokens))
	expectOperand := true
	depth := 0
	for _, t := range tokens {
		switch t.kind {
		case tokLiteral, tokOpen:
			if !expectOperand {
				out = append(out, token{kind: tokConcat})
			}
			if t.kind == tokOpen {
				depth++
			} else {
				expectOperand = false
			}
		case tokClose:
			if depth == 0 {
				return nil, p.errorf("unbalanced ')'")
			}
			if expectOperand {
				return nil, p.errorf("missing operand before ')'")
			}
			depth--
		case tokStar:
			if expectOperand {
				return nil, p.errorf("'*' without operand")
			}
		case tokSum:
			if expectOperand {
				return nil, p.errorf("'+' without left operand")
			}
			expectOperand = true
		}
		out = append(out, t)
	}
	if expectOperand {
		return nil, p.errorf("missing operand at end of pattern")
	}
	if depth != 0 {
		return nil, p.errorf("unbalanced '('")
	}
	return out, nil
}

// toPostfix is the shunting-yard conversion. Binary operators of equal
// precedence associate to the right. Stars are postfix already and go
// straight to the output.
func (p *parser) toPostfix(tokens []token) []token {
	out := make([]token, 0, len(tokens))
	var ops []token
	for _, t := range tokens {
		switch t.kind {
		case tokLiteral, tokStar:
			out = append(out, t)
		case tokOpen:
			ops = append(ops, t)
		case tokClose:
			for len(ops) > 0 && ops[len(ops)-1].kind != tokOpen {
				out = append(out, ops[len(ops)-1])
				ops = ops[:len(ops)-1]
			}
			ops = ops[:len(ops)-1]
		case tokSum, tokConcat:
			for len(ops) > 0 && ops[len(ops)-1].kind.precedence() > t.kind.precedence() {
				out = append(out, ops[len(ops)-1])
				ops = ops[:len(ops)-1]
			}
			ops = append(ops, t)
		}
	}
	for i := len(ops) - 1; i >= 0; i-- {
		out = append(out, ops[i])
	}
	return out
}

func (p *parser) evaluate(postfix []token) (*RegExp, error) {
	var stack []*RegExp
	pop := func() (*RegExp, error) {
		if len(stack) == 0 {
			return nil, p.errorf("operator without operand")
		}
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return top, nil
	}

	for _, t := range postfix {
		switch t.kind {
		case tokLiteral:
			stack = append(stack, Literal(t.char))
		case tokStar:
			x, err := pop()
			if err != nil {
				return nil, err
			}
			stack = append(stack, Closure(x))
		case tokSum, tokConcat:
			r, err := pop()
			if err != nil {
				return nil, err
			}
			l, err := pop()
			if err != nil {
				return nil, err
			}
			if t.kind == tokSum {
				stack = append(stack, Sum(l, r))
			} else {
				stack = append(stack, Concat(l, r))
			}
		default:
			return nil, p.errorf("unexpected parenthesis")
		}
	}
	if len(stack) != 1 {
		return nil, p.errorf("malformed expression")
	}
	return stack[0], nil
}
