package parser

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/metabake/internal/ast"
	"github.com/vk/metabake/internal/diag"
	"github.com/vk/metabake/internal/expr"
)

// ParseCondition parses the condition mini-grammar used in if blocks:
//
//	DEBUG=='1' and TOOLSET!='gnu'
//	!( A=='x' or B )
//
// Identifiers are variable references, quoted strings are literals, and
// the operators are ==, !=, !, and, or, with parentheses for grouping.
func ParseCondition(src string, pos *hcl.Range) (ast.Value, error) {
	p := &condParser{src: src, pos: pos}
	p.next()
	if p.err != nil {
		return nil, p.err
	}
	v := p.parseOr()
	if p.err != nil {
		return nil, p.err
	}
	if p.tok != tokEOF {
		return nil, p.fail("unexpected %q", p.lit)
	}
	return v, nil
}

type condToken int

const (
	tokEOF condToken = iota
	tokIdent
	tokString
	tokEq
	tokNeq
	tokNot
	tokLParen
	tokRParen
	tokAnd
	tokOr
)

type condParser struct {
	src string
	pos *hcl.Range
	i   int

	tok condToken
	lit string
	err error
}

func (p *condParser) fail(format string, args ...any) error {
	if p.err == nil {
		msg := fmt.Sprintf(format, args...)
		p.err = diag.NewParseError(fmt.Sprintf("invalid condition %q: %s", p.src, msg), p.pos)
	}
	return p.err
}

func (p *condParser) next() {
	for p.i < len(p.src) && unicode.IsSpace(rune(p.src[p.i])) {
		p.i++
	}
	if p.i >= len(p.src) {
		p.tok, p.lit = tokEOF, ""
		return
	}
	c := p.src[p.i]
	switch {
	case c == '(':
		p.i++
		p.tok, p.lit = tokLParen, "("
	case c == ')':
		p.i++
		p.tok, p.lit = tokRParen, ")"
	case c == '!':
		if strings.HasPrefix(p.src[p.i:], "!=") {
			p.i += 2
			p.tok, p.lit = tokNeq, "!="
			return
		}
		p.i++
		p.tok, p.lit = tokNot, "!"
	case strings.HasPrefix(p.src[p.i:], "=="):
		p.i += 2
		p.tok, p.lit = tokEq, "=="
	case c == '\'' || c == '"':
		quote := c
		j := strings.IndexByte(p.src[p.i+1:], quote)
		if j < 0 {
			p.fail("unterminated string")
			p.tok = tokEOF
			return
		}
		p.lit = p.src[p.i+1 : p.i+1+j]
		p.i += j + 2
		p.tok = tokString
	case isIdentStart(c):
		start := p.i
		for p.i < len(p.src) && isIdentPart(p.src[p.i]) {
			p.i++
		}
		p.lit = p.src[start:p.i]
		switch p.lit {
		case "and":
			p.tok = tokAnd
		case "or":
			p.tok = tokOr
		case "not":
			p.tok = tokNot
		default:
			p.tok = tokIdent
		}
	default:
		p.fail("unexpected character %q", string(c))
		p.tok = tokEOF
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c == '.' || ('0' <= c && c <= '9')
}

func (p *condParser) parseOr() ast.Value {
	left := p.parseAnd()
	for p.err == nil && p.tok == tokOr {
		p.next()
		right := p.parseAnd()
		left = ast.NewBool(expr.OpOr, left, right, p.pos)
	}
	return left
}

func (p *condParser) parseAnd() ast.Value {
	left := p.parseUnary()
	for p.err == nil && p.tok == tokAnd {
		p.next()
		right := p.parseUnary()
		left = ast.NewBool(expr.OpAnd, left, right, p.pos)
	}
	return left
}

func (p *condParser) parseUnary() ast.Value {
	if p.tok == tokNot {
		p.next()
		operand := p.parseUnary()
		return ast.NewBool(expr.OpNot, operand, nil, p.pos)
	}
	return p.parseAtom()
}

func (p *condParser) parseAtom() ast.Value {
	if p.tok == tokLParen {
		p.next()
		v := p.parseOr()
		if p.err != nil {
			return nil
		}
		if p.tok != tokRParen {
			p.fail("missing \")\"")
			return nil
		}
		p.next()
		return v
	}
	left := p.parseOperand()
	if p.err != nil {
		return nil
	}
	switch p.tok {
	case tokEq:
		p.next()
		right := p.parseOperand()
		return ast.NewBool(expr.OpEqual, left, right, p.pos)
	case tokNeq:
		p.next()
		right := p.parseOperand()
		return ast.NewBool(expr.OpNotEqual, left, right, p.pos)
	}
	return left
}

func (p *condParser) parseOperand() ast.Value {
	switch p.tok {
	case tokIdent:
		v := ast.NewRef(p.lit, p.pos)
		p.next()
		return v
	case tokString:
		v := ast.NewText(p.lit, p.pos)
		p.next()
		return v
	default:
		p.fail("expected a variable or a quoted string, got %q", p.lit)
		return nil
	}
}
