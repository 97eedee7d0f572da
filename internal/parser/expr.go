package parser

import (
	"github.com/eduardojvieira/stc/internal/ast"
	"github.com/eduardojvieira/stc/internal/token"
)

// parseExpression parses a full expression at OR precedence, the lowest
// level in the precedence chain: OR < XOR < AND < comparison < additive
// < multiplicative < unary < primary.
func (p *Parser) parseExpression() (ast.Expression, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expression, error) {
	left, err := p.parseXor()
	if err != nil {
		return nil, err
	}
	for p.at(token.OR) {
		pos := p.advance().Pos
		right, err := p.parseXor()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{Left: left, Operator: "OR", Right: right, Position: pos}
	}
	return left, nil
}

func (p *Parser) parseXor() (ast.Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.at(token.XOR) {
		pos := p.advance().Pos
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{Left: left, Operator: "XOR", Right: right, Position: pos}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expression, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.at(token.AND) {
		pos := p.advance().Pos
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{Left: left, Operator: "AND", Right: right, Position: pos}
	}
	return left, nil
}

var comparisonOps = map[token.Kind]string{
	token.EQ: "=", token.NEQ: "<>", token.LT: "<", token.LTE: "<=", token.GT: ">", token.GTE: ">=",
}

// parseComparison is non-associative: at most one comparison operator per
// chain (`a < b < c` is a parse error, not a chained comparison).
func (p *Parser) parseComparison() (ast.Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if op, ok := comparisonOps[p.tok().Kind]; ok {
		pos := p.advance().Pos
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{Left: left, Operator: op, Right: right, Position: pos}
		if _, ok := comparisonOps[p.tok().Kind]; ok {
			return nil, p.errorf(p.tok().Pos, "comparison operators do not chain")
		}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.at(token.PLUS) || p.at(token.MINUS) {
		op := "+"
		if p.at(token.MINUS) {
			op = "-"
		}
		pos := p.advance().Pos
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{Left: left, Operator: op, Right: right, Position: pos}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.at(token.STAR) || p.at(token.SLASH) || p.at(token.MOD) {
		var op string
		switch p.tok().Kind {
		case token.STAR:
			op = "*"
		case token.SLASH:
			op = "/"
		case token.MOD:
			op = "MOD"
		}
		pos := p.advance().Pos
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{Left: left, Operator: op, Right: right, Position: pos}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	if p.at(token.NOT) {
		pos := p.advance().Pos
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpression{Operator: "NOT", Operand: operand, Position: pos}, nil
	}
	if p.at(token.MINUS) {
		pos := p.advance().Pos
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpression{Operator: "-", Operand: operand, Position: pos}, nil
	}
	return p.parsePrimary()
}

// parsePrimary parses a literal, parenthesized subexpression, REF(x), or
// THIS, then greedily consumes a postfix chain of `.name`, `.name(args)`,
// `[e,e,e]`, and `^`.
func (p *Parser) parsePrimary() (ast.Expression, error) {
	base, err := p.parsePrimaryBase()
	if err != nil {
		return nil, err
	}
	return p.parsePostfix(base)
}

func (p *Parser) parsePrimaryBase() (ast.Expression, error) {
	tok := p.tok()
	switch tok.Kind {
	case token.INT:
		p.advance()
		v, err := parseIntLiteral(tok.Lit)
		if err != nil {
			return nil, p.errorf(tok.Pos, "invalid integer literal %q", tok.Lit)
		}
		return &ast.IntegerLiteral{Value: v, Position: tok.Pos}, nil
	case token.REAL:
		p.advance()
		v, err := parseRealLiteral(tok.Lit)
		if err != nil {
			return nil, p.errorf(tok.Pos, "invalid real literal %q", tok.Lit)
		}
		return &ast.RealLiteral{Value: v, Position: tok.Pos}, nil
	case token.TRUE:
		p.advance()
		return &ast.BoolLiteral{Value: true, Position: tok.Pos}, nil
	case token.FALSE:
		p.advance()
		return &ast.BoolLiteral{Value: false, Position: tok.Pos}, nil
	case token.STRING_LITERAL:
		p.advance()
		return &ast.StringLiteral{Value: tok.Lit, Position: tok.Pos}, nil
	case token.WSTRING_LITERAL:
		p.advance()
		return &ast.StringLiteral{Value: tok.Lit, Wide: true, Position: tok.Pos}, nil
	case token.TIME_LITERAL:
		p.advance()
		ms, err := parseTimeLiteral(tok.Lit)
		if err != nil {
			return nil, p.errorf(tok.Pos, "%s", err)
		}
		return &ast.TimeLiteral{Milliseconds: ms, Position: tok.Pos}, nil
	case token.DATE_LITERAL:
		p.advance()
		days, err := parseDateLiteral(tok.Lit)
		if err != nil {
			return nil, p.errorf(tok.Pos, "%s", err)
		}
		return &ast.DateLiteral{Days: days, Position: tok.Pos}, nil
	case token.TOD_LITERAL:
		p.advance()
		ms, err := parseTODLiteral(tok.Lit)
		if err != nil {
			return nil, p.errorf(tok.Pos, "%s", err)
		}
		return &ast.TODLiteral{MillisSinceMidnight: ms, Position: tok.Pos}, nil
	case token.DT_LITERAL:
		p.advance()
		ms, err := parseDTLiteral(tok.Lit)
		if err != nil {
			return nil, p.errorf(tok.Pos, "%s", err)
		}
		return &ast.DTLiteral{MillisSinceEpoch: ms, Position: tok.Pos}, nil
	case token.THIS:
		p.advance()
		return &ast.ThisExpression{Position: tok.Pos}, nil
	case token.REF:
		p.advance()
		if _, err := p.expect(token.LPAREN); err != nil {
			return nil, err
		}
		target, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return &ast.RefExpression{Target: target, Position: tok.Pos}, nil
	case token.LPAREN:
		p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return inner, nil
	case token.IDENT:
		name, err := p.identifier()
		if err != nil {
			return nil, err
		}
		if p.at(token.LPAREN) {
			return p.parseCallExpression(name)
		}
		return name, nil
	default:
		return nil, p.errorf(tok.Pos, "unexpected token %s %q in expression", tok.Kind, tok.Lit)
	}
}

func (p *Parser) parsePostfix(base ast.Expression) (ast.Expression, error) {
	for {
		switch p.tok().Kind {
		case token.DOT:
			pos := p.advance().Pos
			name, err := p.identifier()
			if err != nil {
				return nil, err
			}
			if p.at(token.LPAREN) {
				args, named, err := p.parseArgList()
				if err != nil {
					return nil, err
				}
				base = &ast.MethodCallExpression{Object: base, Method: name, Args: args, Named: named, Position: pos}
				continue
			}
			base = &ast.MemberAccessExpression{Object: base, Member: name, Position: pos}
		case token.LBRACKET:
			pos := p.advance().Pos
			var indices []ast.Expression
			for {
				idx, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				indices = append(indices, idx)
				if p.at(token.COMMA) {
					p.advance()
					continue
				}
				break
			}
			if len(indices) > 3 {
				return nil, p.errorf(pos, "array access declares %d indices, maximum is 3", len(indices))
			}
			if _, err := p.expect(token.RBRACKET); err != nil {
				return nil, err
			}
			base = &ast.ArrayAccessExpression{Object: base, Indices: indices, Position: pos}
		case token.CARET:
			pos := p.advance().Pos
			base = &ast.DerefExpression{Target: base, Position: pos}
		default:
			return base, nil
		}
	}
}

func (p *Parser) parseCallExpression(callee *ast.Identifier) (ast.Expression, error) {
	args, named, err := p.parseArgList()
	if err != nil {
		return nil, err
	}
	return &ast.CallExpression{Callee: callee, Args: args, Named: named, Position: callee.Position}, nil
}

// parseArgList parses a parenthesized, comma-separated argument list
// where each argument is either a positional expression or a
// `name := expr` named argument; both forms may mix within one call.
func (p *Parser) parseArgList() ([]ast.Expression, []*ast.NamedArg, error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, nil, err
	}
	var args []ast.Expression
	var named []*ast.NamedArg
	if p.at(token.RPAREN) {
		p.advance()
		return args, named, nil
	}
	for {
		if p.at(token.IDENT) && p.cur.peek(1).Kind == token.ASSIGN {
			nameTok := p.advance()
			p.advance() // consume :=
			val, err := p.parseExpression()
			if err != nil {
				return nil, nil, err
			}
			named = append(named, &ast.NamedArg{
				Name:  &ast.Identifier{Value: nameTok.Lit, Position: nameTok.Pos},
				Value: val,
			})
		} else {
			val, err := p.parseExpression()
			if err != nil {
				return nil, nil, err
			}
			args = append(args, val)
		}
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, nil, err
	}
	return args, named, nil
}
