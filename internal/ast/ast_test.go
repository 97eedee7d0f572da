package ast

import (
	"testing"

	"github.com/eduardojvieira/stc/internal/cerrors"
)

func TestIdentifierIsExpression(t *testing.T) {
	var _ Expression = &Identifier{Value: "x"}
}

func TestStatementNodesImplementStatement(t *testing.T) {
	pos := cerrors.Position{Line: 1, Column: 1}
	var stmts []Statement = []Statement{
		&AssignStatement{Position: pos},
		&IfStatement{Position: pos},
		&WhileStatement{Position: pos},
		&ForStatement{Position: pos},
		&RepeatStatement{Position: pos},
		&CaseStatement{Position: pos},
		&ExitStatement{Position: pos},
		&ContinueStatement{Position: pos},
		&ReturnStatement{Position: pos},
		&CallStatement{Instance: &Identifier{Value: "T1"}, Position: pos},
		&ExpressionStatement{Position: pos},
	}
	for _, s := range stmts {
		if s.Pos() != pos {
			t.Errorf("%T: got pos %+v, want %+v", s, s.Pos(), pos)
		}
	}
}

func TestDeclarationNodesImplementDeclaration(t *testing.T) {
	name := &Identifier{Value: "Foo"}
	var decls []Declaration = []Declaration{
		&FunctionDecl{Name: name},
		&FunctionBlockDecl{Name: name},
		&ProgramDecl{Name: name},
		&StructDecl{Name: name},
		&EnumDecl{Name: name},
		&InterfaceDecl{Name: name},
	}
	for _, d := range decls {
		if d.TokenLiteral() != "Foo" {
			t.Errorf("%T: got token literal %q", d, d.TokenLiteral())
		}
	}
}

func TestMethodDeclSectionAccessors(t *testing.T) {
	m := &MethodDecl{
		Name: &Identifier{Value: "M"},
		VarBlocks: []*VarBlock{
			{Section: SectionInput, Decls: []*VarDecl{{Name: &Identifier{Value: "a"}}}},
			{Section: SectionOutput, Decls: []*VarDecl{{Name: &Identifier{Value: "b"}}}},
			{Section: SectionVar, Decls: []*VarDecl{{Name: &Identifier{Value: "c"}}}},
			{Section: SectionTemp, Decls: []*VarDecl{{Name: &Identifier{Value: "d"}}}},
		},
	}
	if got := m.Inputs(); len(got) != 1 || got[0].Name.Value != "a" {
		t.Errorf("Inputs() = %+v", got)
	}
	if got := m.Outputs(); len(got) != 1 || got[0].Name.Value != "b" {
		t.Errorf("Outputs() = %+v", got)
	}
	locals := m.Locals()
	if len(locals) != 2 || locals[0].Name.Value != "c" || locals[1].Name.Value != "d" {
		t.Errorf("Locals() = %+v", locals)
	}
}

func TestCaseValueIsRange(t *testing.T) {
	single := &CaseValue{Single: &IntegerLiteral{Value: 1}}
	if single.IsRange() {
		t.Error("single value reported as range")
	}
	rng := &CaseValue{RangeLow: &IntegerLiteral{Value: 1}, RangeHi: &IntegerLiteral{Value: 5}}
	if !rng.IsRange() {
		t.Error("range value not reported as range")
	}
}
