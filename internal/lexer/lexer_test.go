package lexer

import (
	"testing"

	"github.com/eduardojvieira/stc/internal/token"
)

func allTokens(t *testing.T, input string) []token.Token {
	t.Helper()
	l := New(input)
	var toks []token.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("unexpected lex error: %v", err)
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks
}

func TestLexKeywordsAndIdents(t *testing.T) {
	toks := allTokens(t, "VAR a END_VAR")
	want := []token.Kind{token.VAR, token.IDENT, token.END_VAR, token.EOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got kind %v, want %v", i, toks[i].Kind, k)
		}
	}
}

func TestLexCompoundKeywords(t *testing.T) {
	cases := []struct {
		input string
		kind  token.Kind
	}{
		{"VAR_INPUT", token.VAR_INPUT},
		{"VAR_OUTPUT", token.VAR_OUTPUT},
		{"VAR_IN_OUT", token.VAR_IN_OUT},
		{"END_FUNCTION_BLOCK", token.END_FUNCTION_BLOCK},
		{"REF_TO", token.REF_TO},
	}
	for _, c := range cases {
		toks := allTokens(t, c.input)
		if toks[0].Kind != c.kind {
			t.Errorf("%q: got kind %v, want %v", c.input, toks[0].Kind, c.kind)
		}
	}
}

func TestLexCaseInsensitiveKeyword(t *testing.T) {
	toks := allTokens(t, "var_input")
	if toks[0].Kind != token.VAR_INPUT {
		t.Errorf("got kind %v, want VAR_INPUT", toks[0].Kind)
	}
}

func TestLexIdentifierNotMistakenForCompoundKeyword(t *testing.T) {
	toks := allTokens(t, "VAR_INPUTX")
	if toks[0].Kind != token.IDENT {
		t.Errorf("got kind %v, want IDENT", toks[0].Kind)
	}
	if toks[0].Lit != "VAR_INPUTX" {
		t.Errorf("got lit %q", toks[0].Lit)
	}
}

func TestLexIntegerAndHex(t *testing.T) {
	toks := allTokens(t, "42 0xFF")
	if toks[0].Kind != token.INT || toks[0].Lit != "42" {
		t.Errorf("got %+v", toks[0])
	}
	if toks[1].Kind != token.INT || toks[1].Lit != "0xFF" {
		t.Errorf("got %+v", toks[1])
	}
}

func TestLexReal(t *testing.T) {
	toks := allTokens(t, "3.14 2.5e-3")
	if toks[0].Kind != token.REAL || toks[0].Lit != "3.14" {
		t.Errorf("got %+v", toks[0])
	}
	if toks[1].Kind != token.REAL || toks[1].Lit != "2.5e-3" {
		t.Errorf("got %+v", toks[1])
	}
}

func TestLexRealRequiresDigitOnBothSides(t *testing.T) {
	// "3." followed by a non-digit must not be consumed as a real: DOT then IDENT "a".
	toks := allTokens(t, "3.a")
	if toks[0].Kind != token.INT || toks[0].Lit != "3" {
		t.Errorf("got %+v", toks[0])
	}
	if toks[1].Kind != token.DOT {
		t.Errorf("got %+v", toks[1])
	}
}

func TestLexTypedLiterals(t *testing.T) {
	cases := []struct {
		input  string
		kind   token.Kind
		prefix string
	}{
		{"T#500ms", token.TIME_LITERAL, "T"},
		{"TIME#1s", token.TIME_LITERAL, "TIME"},
		{"D#2020-01-01", token.DATE_LITERAL, "D"},
		{"TOD#12:30:00", token.TOD_LITERAL, "TOD"},
		{"DT#2020-01-01-12:30:00", token.DT_LITERAL, "DT"},
	}
	for _, c := range cases {
		toks := allTokens(t, c.input)
		if toks[0].Kind != c.kind {
			t.Errorf("%q: got kind %v, want %v", c.input, toks[0].Kind, c.kind)
		}
		if toks[0].Prefix != c.prefix {
			t.Errorf("%q: got prefix %q, want %q", c.input, toks[0].Prefix, c.prefix)
		}
	}
}

func TestLexTIdentifierNotTypedLiteral(t *testing.T) {
	toks := allTokens(t, "T")
	if toks[0].Kind != token.IDENT {
		t.Errorf("got kind %v, want IDENT (bare T without # is an identifier)", toks[0].Kind)
	}
}

func TestLexStringLiteralWithEscape(t *testing.T) {
	toks := allTokens(t, "'it''s ok'")
	if toks[0].Kind != token.STRING_LITERAL {
		t.Fatalf("got kind %v", toks[0].Kind)
	}
	if toks[0].Lit != "it's ok" {
		t.Errorf("got lit %q", toks[0].Lit)
	}
}

func TestLexWideStringLiteral(t *testing.T) {
	toks := allTokens(t, `WSTRING#"hi"`)
	if toks[0].Kind != token.WSTRING_LITERAL {
		t.Fatalf("got kind %v", toks[0].Kind)
	}
	if toks[0].Lit != "hi" {
		t.Errorf("got lit %q", toks[0].Lit)
	}
}

func TestLexIOAddresses(t *testing.T) {
	cases := []string{"%I0.0", "%QX0.3", "%IW12", "%MB4"}
	for _, c := range cases {
		toks := allTokens(t, c)
		if toks[0].Kind != token.IO_ADDRESS {
			t.Errorf("%q: got kind %v, want IO_ADDRESS", c, toks[0].Kind)
		}
		if toks[0].Lit != c {
			t.Errorf("%q: got lit %q", c, toks[0].Lit)
		}
	}
}

func TestLexOperators(t *testing.T) {
	toks := allTokens(t, ":= .. ^ <> <= >= = < >")
	want := []token.Kind{token.ASSIGN, token.RANGE, token.CARET, token.NEQ, token.LTE, token.GTE, token.EQ, token.LT, token.GT, token.EOF}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %v, want %v", i, toks[i].Kind, k)
		}
	}
}

func TestLexLineComment(t *testing.T) {
	toks := allTokens(t, "a // comment\nb")
	if len(toks) != 3 || toks[0].Lit != "a" || toks[1].Lit != "b" {
		t.Fatalf("got %+v", toks)
	}
}

func TestLexBlockComment(t *testing.T) {
	toks := allTokens(t, "a (* multi\nline *) b")
	if len(toks) != 3 || toks[0].Lit != "a" || toks[1].Lit != "b" {
		t.Fatalf("got %+v", toks)
	}
}

func TestLexUnterminatedStringError(t *testing.T) {
	l := New("'abc")
	_, err := l.NextToken()
	if err == nil {
		t.Fatal("expected error for unterminated string")
	}
}

func TestLexUnterminatedCommentError(t *testing.T) {
	l := New("(* never closed")
	_, err := l.NextToken()
	if err == nil {
		t.Fatal("expected error for unterminated comment")
	}
}

func TestLexUnexpectedCharacterError(t *testing.T) {
	l := New("@")
	_, err := l.NextToken()
	if err == nil {
		t.Fatal("expected error for unexpected character")
	}
}

func TestLexPositionTracking(t *testing.T) {
	l := New("a\nbb")
	tok, _ := l.NextToken()
	if tok.Pos.Line != 1 || tok.Pos.Column != 1 {
		t.Errorf("got pos %+v", tok.Pos)
	}
	tok, _ = l.NextToken()
	if tok.Pos.Line != 2 || tok.Pos.Column != 1 {
		t.Errorf("got pos %+v", tok.Pos)
	}
}
