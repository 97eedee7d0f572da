package codegen

import (
	"strings"
	"testing"

	"github.com/eduardojvieira/stc/internal/ast"
	"github.com/eduardojvieira/stc/internal/stdlib"
	"github.com/eduardojvieira/stc/internal/symbols"
	"github.com/eduardojvieira/stc/internal/types"
)

func elemAnnot(k ast.ElementaryKind) *ast.TypeAnnotation {
	return &ast.TypeAnnotation{Kind: ast.TypeElementary, Elementary: k}
}

func ident(name string) *ast.Identifier { return &ast.Identifier{Value: name} }

func varDecl(name string, ta *ast.TypeAnnotation) *ast.VarDecl {
	return &ast.VarDecl{Name: ident(name), Type: ta}
}

func intLit(v int64) *ast.IntegerLiteral { return &ast.IntegerLiteral{Value: v} }

// build lays out cu and returns a ready-to-use Generator plus the unit
// it compiled against.
func build(t *testing.T, cu *ast.CompilationUnit) (*Generator, *symbols.Unit) {
	t.Helper()
	unit, err := symbols.NewBuilder(symbols.Options{}, "").Build(cu)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	return New(unit, cu, stdlib.NewCatalog(), ""), unit
}

func TestGenerateSimpleCycle(t *testing.T) {
	cu := &ast.CompilationUnit{
		Globals: []*ast.VarBlock{
			{Section: ast.SectionVar, Decls: []*ast.VarDecl{varDecl("counter", elemAnnot(ast.DINT))}},
		},
		Programs: []*ast.ProgramDecl{
			{
				Name: ident("main"),
				Body: []ast.Statement{
					&ast.AssignStatement{
						Target: ident("counter"),
						Value: &ast.BinaryExpression{
							Operator: "+",
							Left:     ident("counter"),
							Right:    intLit(1),
						},
					},
				},
			},
		},
	}
	g, _ := build(t, cu)
	out, err := g.Generate("main")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, want := range []string{"JMP _start", "_start:", "_cycle:", "HALT", "DSTORE", "DLOAD"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	// assignment must load the value before resolving the store address:
	// DLOAD (counter) / PUSH 1 / ADD must precede the final DSTORE.
	storeIdx := strings.LastIndex(out, "DSTORE")
	addIdx := strings.Index(out, "ADD")
	if addIdx == -1 || addIdx > storeIdx {
		t.Errorf("expected ADD before the final DSTORE, got:\n%s", out)
	}
}

func TestGenerateUnknownProgram(t *testing.T) {
	cu := &ast.CompilationUnit{Programs: []*ast.ProgramDecl{{Name: ident("main"), Body: nil}}}
	g, _ := build(t, cu)
	if _, err := g.Generate("missing"); err == nil {
		t.Fatal("expected an error for an unknown program name")
	}
}

func TestGenerateIfElse(t *testing.T) {
	cu := &ast.CompilationUnit{
		Globals: []*ast.VarBlock{
			{Section: ast.SectionVar, Decls: []*ast.VarDecl{
				varDecl("flag", elemAnnot(ast.BOOL)),
				varDecl("count", elemAnnot(ast.DINT)),
			}},
		},
		Programs: []*ast.ProgramDecl{
			{
				Name: ident("main"),
				Body: []ast.Statement{
					&ast.IfStatement{
						Branches: []*ast.IfBranch{
							{
								Condition: ident("flag"),
								Body: []ast.Statement{
									&ast.AssignStatement{Target: ident("count"), Value: intLit(1)},
								},
							},
						},
						Else: []ast.Statement{
							&ast.AssignStatement{Target: ident("count"), Value: intLit(0)},
						},
					},
				},
			},
		},
	}
	g, _ := build(t, cu)
	out, err := g.Generate("main")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, want := range []string{"JZ", "_if_next_", "_if_end_", "JMP _if_end_"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestGenerateForLoop(t *testing.T) {
	cu := &ast.CompilationUnit{
		Globals: []*ast.VarBlock{
			{Section: ast.SectionVar, Decls: []*ast.VarDecl{
				varDecl("i", elemAnnot(ast.DINT)),
				varDecl("total", elemAnnot(ast.DINT)),
			}},
		},
		Programs: []*ast.ProgramDecl{
			{
				Name: ident("main"),
				Body: []ast.Statement{
					&ast.ForStatement{
						Counter: ident("i"),
						Start:   intLit(1),
						End:     intLit(10),
						Body: []ast.Statement{
							&ast.AssignStatement{
								Target: ident("total"),
								Value: &ast.BinaryExpression{
									Operator: "+",
									Left:     ident("total"),
									Right:    ident("i"),
								},
							},
						},
					},
				},
			},
		},
	}
	g, _ := build(t, cu)
	out, err := g.Generate("main")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, want := range []string{"_for_top_", "_for_step_", "_for_end_", "GT", "JNZ"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestGenerateCaseStatement(t *testing.T) {
	cu := &ast.CompilationUnit{
		Globals: []*ast.VarBlock{
			{Section: ast.SectionVar, Decls: []*ast.VarDecl{
				varDecl("sel", elemAnnot(ast.DINT)),
				varDecl("out", elemAnnot(ast.DINT)),
			}},
		},
		Programs: []*ast.ProgramDecl{
			{
				Name: ident("main"),
				Body: []ast.Statement{
					&ast.CaseStatement{
						Selector: ident("sel"),
						Branches: []*ast.CaseBranch{
							{
								Values: []*ast.CaseValue{{Single: intLit(1)}},
								Body:   []ast.Statement{&ast.AssignStatement{Target: ident("out"), Value: intLit(10)}},
							},
							{
								Values: []*ast.CaseValue{{RangeLow: intLit(2), RangeHi: intLit(4)}},
								Body:   []ast.Statement{&ast.AssignStatement{Target: ident("out"), Value: intLit(20)}},
							},
						},
						Else: []ast.Statement{
							&ast.AssignStatement{Target: ident("out"), Value: intLit(0)},
						},
					},
				},
			},
		},
	}
	g, _ := build(t, cu)
	out, err := g.Generate("main")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, want := range []string{"DUP", "EQ", "GE", "LE", "DROP", "_case_body_", "_case_end_"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestGenerateUserFunctionCall(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name:       ident("double"),
		ReturnType: elemAnnot(ast.DINT),
		VarBlocks: []*ast.VarBlock{
			{Section: ast.SectionInput, Decls: []*ast.VarDecl{varDecl("x", elemAnnot(ast.DINT))}},
		},
		Body: []ast.Statement{
			&ast.AssignStatement{
				Target: ident("double"),
				Value: &ast.BinaryExpression{
					Operator: "*",
					Left:     ident("x"),
					Right:    intLit(2),
				},
			},
		},
	}
	cu := &ast.CompilationUnit{
		Functions: []*ast.FunctionDecl{fn},
		Globals: []*ast.VarBlock{
			{Section: ast.SectionVar, Decls: []*ast.VarDecl{varDecl("result", elemAnnot(ast.DINT))}},
		},
		Programs: []*ast.ProgramDecl{
			{
				Name: ident("main"),
				Body: []ast.Statement{
					&ast.AssignStatement{
						Target: ident("result"),
						Value:  &ast.CallExpression{Callee: ident("double"), Args: []ast.Expression{intLit(21)}},
					},
				},
			},
		},
	}
	g, _ := build(t, cu)
	out, err := g.Generate("main")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, want := range []string{"_fn_double:", "CALL _fn_double", "RET"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	// the CALL must appear before _start so it's only ever reached via
	// JMP/CALL, never by falling through from the header.
	if strings.Index(out, "_fn_double:") > strings.Index(out, "_start:") {
		t.Errorf("function body must be emitted before _start:\n%s", out)
	}
}

func TestGenerateStringEquality(t *testing.T) {
	cu := &ast.CompilationUnit{
		Globals: []*ast.VarBlock{
			{Section: ast.SectionVar, Decls: []*ast.VarDecl{
				varDecl("s", elemAnnot(ast.STRING)),
				varDecl("match", elemAnnot(ast.BOOL)),
			}},
		},
		Programs: []*ast.ProgramDecl{
			{
				Name: ident("main"),
				Body: []ast.Statement{
					&ast.AssignStatement{
						Target: ident("match"),
						Value: &ast.BinaryExpression{
							Operator: "=",
							Left:     ident("s"),
							Right:    &ast.StringLiteral{Value: "ok"},
						},
					},
				},
			},
		},
	}
	g, _ := build(t, cu)
	out, err := g.Generate("main")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, want := range []string{"WLOADIN", "BLOADIN", "_streq_loop_", "_streq_true_", "_streq_false_"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestGenerateStdlibFunctionCall(t *testing.T) {
	cu := &ast.CompilationUnit{
		Globals: []*ast.VarBlock{
			{Section: ast.SectionVar, Decls: []*ast.VarDecl{
				varDecl("a", elemAnnot(ast.DINT)),
				varDecl("b", elemAnnot(ast.DINT)),
				varDecl("m", elemAnnot(ast.DINT)),
			}},
		},
		Programs: []*ast.ProgramDecl{
			{
				Name: ident("main"),
				Body: []ast.Statement{
					&ast.AssignStatement{
						Target: ident("m"),
						Value: &ast.CallExpression{
							Callee: ident("MAX"),
							Args:   []ast.Expression{ident("a"), ident("b")},
						},
					},
				},
			},
		},
	}
	g, _ := build(t, cu)
	out, err := g.Generate("main")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(out, "MAX") && !strings.Contains(out, "GT") {
		t.Errorf("expected MAX's comparison in output:\n%s", out)
	}
}

func TestAllocScratchNeverAliases(t *testing.T) {
	cu := &ast.CompilationUnit{Programs: []*ast.ProgramDecl{{Name: ident("main")}}}
	g, _ := build(t, cu)
	g.scratchCursor = 100
	a := g.allocScratch(4)
	b := g.allocScratch(1)
	c := g.allocScratch(4)
	if a == b || b == c || a == c {
		t.Errorf("allocScratch produced overlapping addresses: %d %d %d", a, b, c)
	}
	if c < b+1 {
		t.Errorf("allocScratch did not advance past a 1-byte allocation: b=%d c=%d", b, c)
	}
}

func TestIsFloatType(t *testing.T) {
	if !isFloatType(types.Real) {
		t.Error("REAL must report as float")
	}
	if isFloatType(types.Dint) {
		t.Error("DINT must not report as float")
	}
}
