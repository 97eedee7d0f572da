// Package parser implements a recursive-descent, precedence-climbing
// parser for IEC 61131-3 Structured Text, producing an internal/ast tree.
package parser

import (
	"fmt"

	"github.com/eduardojvieira/stc/internal/ast"
	"github.com/eduardojvieira/stc/internal/cerrors"
	"github.com/eduardojvieira/stc/internal/lexer"
	"github.com/eduardojvieira/stc/internal/token"
)

// ParseError is a single parse failure, following the spec's
// ParseError{line,col,message} contract.
type ParseError struct {
	Pos     cerrors.Position
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ParseError at %s: %s", e.Pos, e.Message)
}

// Parser consumes a token stream and builds a *ast.CompilationUnit. It
// fails fast on the first error, matching the pipeline's no-recovery
// contract.
type Parser struct {
	cur    *tokenCursor
	source string
}

// New creates a Parser over source.
func New(source string) *Parser {
	return &Parser{cur: newTokenCursor(lexer.New(source)), source: source}
}

func (p *Parser) errorf(pos cerrors.Position, format string, args ...interface{}) error {
	return &ParseError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}

func (p *Parser) tok() token.Token { return p.cur.current() }

func (p *Parser) at(k token.Kind) bool { return p.tok().Kind == k }

func (p *Parser) advance() token.Token { return p.cur.advance() }

// expect consumes the current token if it has kind k, else returns a
// ParseError describing what was found instead.
func (p *Parser) expect(k token.Kind) (token.Token, error) {
	if !p.at(k) {
		return token.Token{}, p.errorf(p.tok().Pos, "expected %s, got %s %q", k, p.tok().Kind, p.tok().Lit)
	}
	return p.advance(), nil
}

func (p *Parser) identifier() (*ast.Identifier, error) {
	tok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	return &ast.Identifier{Value: tok.Lit, Position: tok.Pos}, nil
}

// Parse runs the top-level declaration loop until EOF, dispatching on
// VAR_GLOBAL, FUNCTION, FUNCTION_BLOCK, PROGRAM, TYPE, INTERFACE.
func (p *Parser) Parse() (*ast.CompilationUnit, error) {
	if p.cur.err != nil {
		return nil, p.cur.err
	}
	cu := &ast.CompilationUnit{}
	for !p.at(token.EOF) {
		switch p.tok().Kind {
		case token.VAR_GLOBAL:
			vb, err := p.parseVarBlock()
			if err != nil {
				return nil, err
			}
			cu.Globals = append(cu.Globals, vb)
		case token.FUNCTION:
			fn, err := p.parseFunction()
			if err != nil {
				return nil, err
			}
			cu.Functions = append(cu.Functions, fn)
		case token.FUNCTION_BLOCK:
			fb, err := p.parseFunctionBlock()
			if err != nil {
				return nil, err
			}
			cu.FunctionBlocks = append(cu.FunctionBlocks, fb)
		case token.PROGRAM:
			prog, err := p.parseProgram()
			if err != nil {
				return nil, err
			}
			cu.Programs = append(cu.Programs, prog)
		case token.TYPE:
			decl, err := p.parseTypeDecl()
			if err != nil {
				return nil, err
			}
			cu.Types = append(cu.Types, decl)
		case token.INTERFACE:
			iface, err := p.parseInterface()
			if err != nil {
				return nil, err
			}
			cu.Interfaces = append(cu.Interfaces, iface)
		default:
			return nil, p.errorf(p.tok().Pos, "unexpected token %s %q at top level", p.tok().Kind, p.tok().Lit)
		}
		if p.cur.err != nil {
			return nil, p.cur.err
		}
	}
	return cu, nil
}
