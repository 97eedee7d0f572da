package parser

import (
	"github.com/eduardojvieira/stc/internal/ast"
	"github.com/eduardojvieira/stc/internal/token"
)

// parseStatementList parses statements until one of the given terminator
// keywords is the current token (not consumed).
func (p *Parser) parseStatementList(terminators ...token.Kind) ([]ast.Statement, error) {
	var stmts []ast.Statement
	for {
		if p.cur.err != nil {
			return nil, p.cur.err
		}
		for _, t := range terminators {
			if p.at(t) {
				return stmts, nil
			}
		}
		if p.at(token.EOF) {
			return nil, p.errorf(p.tok().Pos, "unexpected end of input, expected one of the block terminators")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.tok().Kind {
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.REPEAT:
		return p.parseRepeatStatement()
	case token.CASE:
		return p.parseCaseStatement()
	case token.EXIT:
		pos := p.advance().Pos
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return &ast.ExitStatement{Position: pos}, nil
	case token.CONTINUE:
		pos := p.advance().Pos
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return &ast.ContinueStatement{Position: pos}, nil
	case token.RETURN:
		pos := p.advance().Pos
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return &ast.ReturnStatement{Position: pos}, nil
	case token.IDENT:
		return p.parseIdentifierLedStatement()
	default:
		return nil, p.errorf(p.tok().Pos, "unexpected token %s %q at start of statement", p.tok().Kind, p.tok().Lit)
	}
}

func (p *Parser) parseIfStatement() (ast.Statement, error) {
	pos := p.advance().Pos // IF
	var branches []*ast.IfBranch
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.THEN); err != nil {
		return nil, err
	}
	body, err := p.parseStatementList(token.ELSIF, token.ELSE, token.END_IF)
	if err != nil {
		return nil, err
	}
	branches = append(branches, &ast.IfBranch{Condition: cond, Body: body})
	for p.at(token.ELSIF) {
		p.advance()
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.THEN); err != nil {
			return nil, err
		}
		body, err := p.parseStatementList(token.ELSIF, token.ELSE, token.END_IF)
		if err != nil {
			return nil, err
		}
		branches = append(branches, &ast.IfBranch{Condition: cond, Body: body})
	}
	var elseBody []ast.Statement
	if p.at(token.ELSE) {
		p.advance()
		elseBody, err = p.parseStatementList(token.END_IF)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.END_IF); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.IfStatement{Branches: branches, Else: elseBody, Position: pos}, nil
}

func (p *Parser) parseWhileStatement() (ast.Statement, error) {
	pos := p.advance().Pos
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.DO); err != nil {
		return nil, err
	}
	body, err := p.parseStatementList(token.END_WHILE)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.END_WHILE); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.WhileStatement{Condition: cond, Body: body, Position: pos}, nil
}

func (p *Parser) parseForStatement() (ast.Statement, error) {
	pos := p.advance().Pos
	counter, err := p.identifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}
	start, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.TO); err != nil {
		return nil, err
	}
	end, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	var step ast.Expression
	if p.at(token.BY) {
		p.advance()
		step, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.DO); err != nil {
		return nil, err
	}
	body, err := p.parseStatementList(token.END_FOR)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.END_FOR); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.ForStatement{Counter: counter, Start: start, End: end, Step: step, Body: body, Position: pos}, nil
}

func (p *Parser) parseRepeatStatement() (ast.Statement, error) {
	pos := p.advance().Pos
	body, err := p.parseStatementList(token.UNTIL)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.UNTIL); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.at(token.SEMICOLON) {
		p.advance()
	}
	if _, err := p.expect(token.END_REPEAT); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.RepeatStatement{Body: body, Condition: cond, Position: pos}, nil
}

func (p *Parser) parseCaseStatement() (ast.Statement, error) {
	pos := p.advance().Pos
	selector, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.OF); err != nil {
		return nil, err
	}
	var branches []*ast.CaseBranch
	for !p.at(token.ELSE) && !p.at(token.END_CASE) {
		values, err := p.parseCaseValueList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.COLON); err != nil {
			return nil, err
		}
		body, err := p.parseCaseBranchBody()
		if err != nil {
			return nil, err
		}
		branches = append(branches, &ast.CaseBranch{Values: values, Body: body})
	}
	var elseBody []ast.Statement
	if p.at(token.ELSE) {
		p.advance()
		elseBody, err = p.parseStatementList(token.END_CASE)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.END_CASE); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.CaseStatement{Selector: selector, Branches: branches, Else: elseBody, Position: pos}, nil
}

// parseCaseBranchBody parses the statements of one CASE branch, stopping
// at ELSE, END_CASE, or the start of the next branch's selector. A
// branch selector is a value list immediately followed by `:`; this is
// indistinguishable from a statement by its first token alone (both may
// start with an integer or identifier), so each iteration speculatively
// tries the value-list-then-colon shape and backtracks if it doesn't
// match, the same disambiguation idiom used for FB-call statements.
func (p *Parser) parseCaseBranchBody() ([]ast.Statement, error) {
	var stmts []ast.Statement
	for {
		if p.cur.err != nil {
			return nil, p.cur.err
		}
		if p.at(token.ELSE) || p.at(token.END_CASE) || p.at(token.EOF) {
			return stmts, nil
		}
		if p.looksLikeNextBranchSelector() {
			return stmts, nil
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
}

func (p *Parser) looksLikeNextBranchSelector() bool {
	mark := p.cur.mark()
	defer p.cur.reset(mark)
	if _, err := p.parseCaseValueList(); err != nil {
		return false
	}
	return p.at(token.COLON)
}

func (p *Parser) parseCaseValueList() ([]*ast.CaseValue, error) {
	var values []*ast.CaseValue
	for {
		v, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if p.at(token.RANGE) {
			p.advance()
			hi, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			values = append(values, &ast.CaseValue{RangeLow: v, RangeHi: hi})
		} else {
			values = append(values, &ast.CaseValue{Single: v})
		}
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	return values, nil
}

// parseIdentifierLedStatement disambiguates `ident (` as an FB-call
// statement from a plain assignment by peeking past the identifier.
func (p *Parser) parseIdentifierLedStatement() (ast.Statement, error) {
	mark := p.cur.mark()
	name, err := p.identifier()
	if err != nil {
		return nil, err
	}
	if p.at(token.LPAREN) {
		args, named, err := p.parseArgList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return &ast.CallStatement{Instance: name, Args: args, Named: named, Position: name.Position}, nil
	}
	p.cur.reset(mark)
	return p.parseAssignOrExpressionStatement()
}

func (p *Parser) parseAssignOrExpressionStatement() (ast.Statement, error) {
	pos := p.tok().Pos
	target, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.at(token.ASSIGN) {
		p.advance()
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return &ast.AssignStatement{Target: target, Value: value, Position: pos}, nil
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.ExpressionStatement{Expr: target, Position: pos}, nil
}
