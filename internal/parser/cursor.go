package parser

import (
	"github.com/eduardojvieira/stc/internal/lexer"
	"github.com/eduardojvieira/stc/internal/token"
)

// tokenCursor buffers tokens from the lexer to support bounded lookahead
// (Peek) and position save/restore (Mark/Reset), the combination the
// top-level declaration loop and the identifier-vs-FB-call statement
// disambiguation both need.
type tokenCursor struct {
	lex    *lexer.Lexer
	tokens []token.Token
	index  int
	err    error // first lex error encountered, sticky
}

func newTokenCursor(l *lexer.Lexer) *tokenCursor {
	c := &tokenCursor{lex: l}
	c.fill(1)
	return c
}

// fill ensures at least n tokens are buffered from the current lexer
// position onward, stopping (and latching c.err) at the first lex error.
func (c *tokenCursor) fill(n int) {
	for len(c.tokens) < n {
		if c.err != nil {
			return
		}
		tok, err := c.lex.NextToken()
		if err != nil {
			c.err = err
			return
		}
		c.tokens = append(c.tokens, tok)
		if tok.Kind == token.EOF {
			return
		}
	}
}

// current returns the token at the cursor.
func (c *tokenCursor) current() token.Token {
	c.fill(c.index + 1)
	if c.index < len(c.tokens) {
		return c.tokens[c.index]
	}
	return token.Token{Kind: token.EOF}
}

// peek returns the token n positions ahead of current (peek(0) == current()).
func (c *tokenCursor) peek(n int) token.Token {
	c.fill(c.index + n + 1)
	idx := c.index + n
	if idx < len(c.tokens) {
		return c.tokens[idx]
	}
	return token.Token{Kind: token.EOF}
}

// advance moves the cursor forward one token and returns the token it was on.
func (c *tokenCursor) advance() token.Token {
	t := c.current()
	c.index++
	return t
}

// mark returns a resumable position for backtracking.
func (c *tokenCursor) mark() int { return c.index }

// reset rewinds the cursor to a previously marked position.
func (c *tokenCursor) reset(pos int) { c.index = pos }
