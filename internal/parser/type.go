package parser

import (
	"github.com/eduardojvieira/stc/internal/ast"
	"github.com/eduardojvieira/stc/internal/token"
)

var elementaryKeywords = map[token.Kind]ast.ElementaryKind{
	token.BOOL: ast.BOOL, token.SINT: ast.SINT, token.USINT: ast.USINT,
	token.INT_T: ast.INT, token.UINT_T: ast.UINT, token.DINT: ast.DINT, token.UDINT: ast.UDINT,
	token.LINT: ast.LINT, token.ULINT: ast.ULINT, token.REAL_T: ast.REAL, token.LREAL: ast.LREAL,
	token.TIME_T: ast.TIME, token.STRING_T: ast.STRING, token.WSTRING_T: ast.WSTRING,
	token.DATE_T: ast.DATE, token.TOD_T: ast.TOD, token.DT_T: ast.DT,
}

// parseType parses a type reference: an elementary keyword, ARRAY[...]
// OF <type>, REF_TO <type>, or a bare identifier naming a struct,
// function block, enum, or stdlib block.
func (p *Parser) parseType() (*ast.TypeAnnotation, error) {
	pos := p.tok().Pos
	if kind, ok := elementaryKeywords[p.tok().Kind]; ok {
		p.advance()
		return &ast.TypeAnnotation{Position: pos, Kind: ast.TypeElementary, Elementary: kind}, nil
	}
	switch p.tok().Kind {
	case token.ARRAY:
		p.advance()
		if _, err := p.expect(token.LBRACKET); err != nil {
			return nil, err
		}
		var dims []ast.ArrayDimension
		for {
			lo, err := p.parseIntegerBound()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RANGE); err != nil {
				return nil, err
			}
			hi, err := p.parseIntegerBound()
			if err != nil {
				return nil, err
			}
			dims = append(dims, ast.ArrayDimension{Lower: lo, Upper: hi})
			if p.at(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		if len(dims) > 3 {
			return nil, p.errorf(pos, "array declares %d dimensions, maximum is 3", len(dims))
		}
		if _, err := p.expect(token.RBRACKET); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.OF); err != nil {
			return nil, err
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &ast.TypeAnnotation{Position: pos, Kind: ast.TypeArray, Dimensions: dims, ElementType: elem}, nil
	case token.REF_TO:
		p.advance()
		base, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return &ast.TypeAnnotation{Position: pos, Kind: ast.TypePointer, Base: base}, nil
	case token.IDENT:
		name := p.advance().Lit
		return &ast.TypeAnnotation{Position: pos, Kind: ast.TypeNamed, Name: name}, nil
	default:
		return nil, p.errorf(pos, "expected a type, got %s %q", p.tok().Kind, p.tok().Lit)
	}
}

// parseIntegerBound parses a (possibly negative) integer array bound.
func (p *Parser) parseIntegerBound() (int, error) {
	neg := false
	if p.at(token.MINUS) {
		neg = true
		p.advance()
	}
	tok, err := p.expect(token.INT)
	if err != nil {
		return 0, err
	}
	v, err := parseIntLiteral(tok.Lit)
	if err != nil {
		return 0, p.errorf(tok.Pos, "invalid array bound %q", tok.Lit)
	}
	if neg {
		v = -v
	}
	return int(v), nil
}
