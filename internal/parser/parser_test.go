package parser

import (
	"testing"

	"github.com/eduardojvieira/stc/internal/ast"
)

func mustParse(t *testing.T, src string) *ast.CompilationUnit {
	t.Helper()
	cu, err := New(src).Parse()
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return cu
}

func TestParseGlobalVarBlock(t *testing.T) {
	tests := []struct {
		name  string
		input string
		count int
	}{
		{"single", "VAR_GLOBAL\n  x : INT;\nEND_VAR", 1},
		{"comma group", "VAR_GLOBAL\n  x, y, z : BOOL;\nEND_VAR", 3},
		{"with init", "VAR_GLOBAL\n  x : DINT := 42;\nEND_VAR", 1},
		{"constant", "VAR_GLOBAL CONSTANT\n  PI : REAL := 3.14;\nEND_VAR", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cu := mustParse(t, tt.input)
			if len(cu.Globals) != 1 {
				t.Fatalf("got %d global blocks, want 1", len(cu.Globals))
			}
			if n := len(cu.Globals[0].Decls); n != tt.count {
				t.Fatalf("got %d decls, want %d", n, tt.count)
			}
		})
	}
}

func TestParseIOBoundVar(t *testing.T) {
	src := "VAR_GLOBAL\n  startBtn AT %I0.0 : BOOL;\nEND_VAR"
	cu := mustParse(t, src)
	decl := cu.Globals[0].Decls[0]
	if decl.IOAddress != "%I0.0" {
		t.Errorf("IOAddress = %q, want %%I0.0", decl.IOAddress)
	}
}

func TestParseFunction(t *testing.T) {
	src := `
FUNCTION Add : DINT
  VAR_INPUT
    a, b : DINT;
  END_VAR
  Add := a + b;
END_FUNCTION
`
	cu := mustParse(t, src)
	if len(cu.Functions) != 1 {
		t.Fatalf("got %d functions, want 1", len(cu.Functions))
	}
	fn := cu.Functions[0]
	if fn.Name.Value != "Add" {
		t.Errorf("Name = %q, want Add", fn.Name.Value)
	}
	if fn.ReturnType == nil || fn.ReturnType.Elementary != ast.DINT {
		t.Errorf("ReturnType = %+v, want DINT", fn.ReturnType)
	}
	if len(fn.Body) != 1 {
		t.Fatalf("got %d body statements, want 1", len(fn.Body))
	}
	assign, ok := fn.Body[0].(*ast.AssignStatement)
	if !ok {
		t.Fatalf("body[0] is %T, want *ast.AssignStatement", fn.Body[0])
	}
	bin, ok := assign.Value.(*ast.BinaryExpression)
	if !ok || bin.Operator != "+" {
		t.Errorf("assign value = %#v, want a + binary expression", assign.Value)
	}
}

func TestParseFunctionBlockWithExtendsAndMethod(t *testing.T) {
	src := `
FUNCTION_BLOCK Derived EXTENDS Base IMPLEMENTS IRunnable
  VAR
    counter : DINT;
  END_VAR

  METHOD PUBLIC OVERRIDE Run
    counter := counter + 1;
  END_METHOD
END_FUNCTION_BLOCK
`
	cu := mustParse(t, src)
	if len(cu.FunctionBlocks) != 1 {
		t.Fatalf("got %d function blocks, want 1", len(cu.FunctionBlocks))
	}
	fb := cu.FunctionBlocks[0]
	if fb.Extends == nil || fb.Extends.Value != "Base" {
		t.Fatalf("Extends = %+v, want Base", fb.Extends)
	}
	if len(fb.Implements) != 1 || fb.Implements[0].Value != "IRunnable" {
		t.Fatalf("Implements = %+v, want [IRunnable]", fb.Implements)
	}
	if len(fb.Methods) != 1 {
		t.Fatalf("got %d methods, want 1", len(fb.Methods))
	}
	m := fb.Methods[0]
	if m.Name.Value != "Run" || !m.IsOverride || m.Visibility != ast.Public {
		t.Errorf("method = %+v, want Run/override/public", m)
	}
}

func TestParseProgram(t *testing.T) {
	src := `
PROGRAM Main
  VAR
    count : DINT;
  END_VAR
  count := count + 1;
END_PROGRAM
`
	cu := mustParse(t, src)
	if len(cu.Programs) != 1 {
		t.Fatalf("got %d programs, want 1", len(cu.Programs))
	}
	if cu.Programs[0].Name.Value != "Main" {
		t.Errorf("Name = %q, want Main", cu.Programs[0].Name.Value)
	}
}

func TestParseStructType(t *testing.T) {
	src := `
TYPE Point : STRUCT
  x : DINT;
  y : DINT;
END_STRUCT;
END_TYPE
`
	cu := mustParse(t, src)
	if len(cu.Types) != 1 {
		t.Fatalf("got %d types, want 1", len(cu.Types))
	}
	sd, ok := cu.Types[0].(*ast.StructDecl)
	if !ok {
		t.Fatalf("type is %T, want *ast.StructDecl", cu.Types[0])
	}
	if len(sd.Members) != 2 {
		t.Fatalf("got %d members, want 2", len(sd.Members))
	}
}

func TestParseEnumType(t *testing.T) {
	src := "TYPE Color : (Red, Green, Blue := 10, Yellow);\nEND_TYPE"
	cu := mustParse(t, src)
	ed, ok := cu.Types[0].(*ast.EnumDecl)
	if !ok {
		t.Fatalf("type is %T, want *ast.EnumDecl", cu.Types[0])
	}
	want := []int{0, 1, 10, 11}
	for i, v := range ed.Values {
		if v.Value != want[i] {
			t.Errorf("value[%d] = %d, want %d", i, v.Value, want[i])
		}
	}
}

func TestParseInterface(t *testing.T) {
	src := `
INTERFACE IRunnable
  METHOD Run
    VAR_INPUT
      delta : DINT;
    END_VAR
  END_METHOD
END_INTERFACE
`
	cu := mustParse(t, src)
	if len(cu.Interfaces) != 1 {
		t.Fatalf("got %d interfaces, want 1", len(cu.Interfaces))
	}
	iface := cu.Interfaces[0]
	if len(iface.Methods) != 1 || iface.Methods[0].Name.Value != "Run" {
		t.Fatalf("Methods = %+v", iface.Methods)
	}
	if len(iface.Methods[0].Inputs) != 1 {
		t.Fatalf("got %d inputs, want 1", len(iface.Methods[0].Inputs))
	}
}

func TestParseIfStatement(t *testing.T) {
	src := `
FUNCTION F : BOOL
  VAR_INPUT
    x : DINT;
  END_VAR
  IF x > 0 THEN
    F := TRUE;
  ELSIF x < 0 THEN
    F := FALSE;
  ELSE
    F := TRUE;
  END_IF;
END_FUNCTION
`
	cu := mustParse(t, src)
	ifStmt, ok := cu.Functions[0].Body[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("body[0] is %T, want *ast.IfStatement", cu.Functions[0].Body[0])
	}
	if len(ifStmt.Branches) != 2 {
		t.Fatalf("got %d branches, want 2", len(ifStmt.Branches))
	}
	if len(ifStmt.Else) != 1 {
		t.Fatalf("got %d else statements, want 1", len(ifStmt.Else))
	}
}

func TestParseCaseStatementWithRange(t *testing.T) {
	src := `
FUNCTION F : DINT
  VAR_INPUT
    x : DINT;
  END_VAR
  CASE x OF
    1, 2:
      F := 1;
    3..5:
      F := 2;
    ELSE
      F := 0;
  END_CASE;
END_FUNCTION
`
	cu := mustParse(t, src)
	caseStmt, ok := cu.Functions[0].Body[0].(*ast.CaseStatement)
	if !ok {
		t.Fatalf("body[0] is %T, want *ast.CaseStatement", cu.Functions[0].Body[0])
	}
	if len(caseStmt.Branches) != 2 {
		t.Fatalf("got %d branches, want 2", len(caseStmt.Branches))
	}
	if len(caseStmt.Branches[0].Values) != 2 {
		t.Fatalf("got %d values in first branch, want 2", len(caseStmt.Branches[0].Values))
	}
	if caseStmt.Branches[1].Values[0].RangeLow == nil {
		t.Fatalf("second branch value is not a range")
	}
	if len(caseStmt.Else) != 1 {
		t.Fatalf("got %d else statements, want 1", len(caseStmt.Else))
	}
}

func TestParseForWhileRepeat(t *testing.T) {
	src := `
FUNCTION F : DINT
  VAR
    i : DINT;
  END_VAR
  FOR i := 1 TO 10 BY 2 DO
    CONTINUE;
  END_FOR;
  WHILE i > 0 DO
    EXIT;
  END_WHILE;
  REPEAT
    i := i - 1;
  UNTIL i = 0
  END_REPEAT;
END_FUNCTION
`
	cu := mustParse(t, src)
	body := cu.Functions[0].Body
	if len(body) != 3 {
		t.Fatalf("got %d statements, want 3", len(body))
	}
	forStmt, ok := body[0].(*ast.ForStatement)
	if !ok || forStmt.Step == nil {
		t.Fatalf("body[0] = %#v, want ForStatement with a BY step", body[0])
	}
	if _, ok := body[1].(*ast.WhileStatement); !ok {
		t.Fatalf("body[1] is %T, want *ast.WhileStatement", body[1])
	}
	if _, ok := body[2].(*ast.RepeatStatement); !ok {
		t.Fatalf("body[2] is %T, want *ast.RepeatStatement", body[2])
	}
}

func TestParseFBCallStatement(t *testing.T) {
	src := `
PROGRAM Main
  VAR
    timer : DINT;
  END_VAR
  timer(IN := TRUE, PT := 100);
END_PROGRAM
`
	cu := mustParse(t, src)
	call, ok := cu.Programs[0].Body[0].(*ast.CallStatement)
	if !ok {
		t.Fatalf("body[0] is %T, want *ast.CallStatement", cu.Programs[0].Body[0])
	}
	if len(call.Named) != 2 {
		t.Fatalf("got %d named args, want 2", len(call.Named))
	}
}

func TestParseExpressionPrecedence(t *testing.T) {
	src := `
FUNCTION F : BOOL
  VAR_INPUT
    a, b, c : DINT;
  END_VAR
  F := a + b * c > 0 AND NOT a < 0;
END_FUNCTION
`
	cu := mustParse(t, src)
	assign := cu.Functions[0].Body[0].(*ast.AssignStatement)
	top, ok := assign.Value.(*ast.BinaryExpression)
	if !ok || top.Operator != "AND" {
		t.Fatalf("top operator = %#v, want AND", assign.Value)
	}
	left, ok := top.Left.(*ast.BinaryExpression)
	if !ok || left.Operator != ">" {
		t.Fatalf("left operator = %#v, want >", top.Left)
	}
	addExpr, ok := left.Left.(*ast.BinaryExpression)
	if !ok || addExpr.Operator != "+" {
		t.Fatalf("addition not parsed as left of comparison: %#v", left.Left)
	}
	mulExpr, ok := addExpr.Right.(*ast.BinaryExpression)
	if !ok || mulExpr.Operator != "*" {
		t.Fatalf("multiplication not bound tighter than addition: %#v", addExpr.Right)
	}
}

func TestParseComparisonChainIsError(t *testing.T) {
	src := `
FUNCTION F : BOOL
  VAR_INPUT
    a : DINT;
  END_VAR
  F := a < 1 < 2;
END_FUNCTION
`
	if _, err := New(src).Parse(); err == nil {
		t.Fatal("expected a parse error for a chained comparison")
	}
}

func TestParseArrayTooManyDimensionsIsError(t *testing.T) {
	src := "VAR_GLOBAL\n  m : ARRAY[1..2,1..2,1..2,1..2] OF DINT;\nEND_VAR"
	if _, err := New(src).Parse(); err == nil {
		t.Fatal("expected a parse error for a 4-dimensional array")
	}
}

func TestParseArrayAccessTooManyIndicesIsError(t *testing.T) {
	src := `
FUNCTION F : DINT
  VAR
    m : ARRAY[1..2,1..2] OF DINT;
  END_VAR
  F := m[1,1,1,1];
END_FUNCTION
`
	if _, err := New(src).Parse(); err == nil {
		t.Fatal("expected a parse error for a 4-index array access")
	}
}

func TestParseMissingEndVarIsError(t *testing.T) {
	src := "VAR_GLOBAL\n  x : INT;"
	if _, err := New(src).Parse(); err == nil {
		t.Fatal("expected a parse error for a missing END_VAR")
	}
}

func TestParseMemberAndDerefChain(t *testing.T) {
	src := `
FUNCTION F : DINT
  VAR_INPUT
    p : REF_TO Point;
  END_VAR
  F := p^.x;
END_FUNCTION
`
	cu := mustParse(t, src)
	assign := cu.Functions[0].Body[0].(*ast.AssignStatement)
	member, ok := assign.Value.(*ast.MemberAccessExpression)
	if !ok {
		t.Fatalf("value is %T, want *ast.MemberAccessExpression", assign.Value)
	}
	if _, ok := member.Object.(*ast.DerefExpression); !ok {
		t.Fatalf("object is %T, want *ast.DerefExpression", member.Object)
	}
}

func TestParseMethodCallExpression(t *testing.T) {
	src := `
PROGRAM Main
  VAR
    fb : DINT;
  END_VAR
  fb.Reset();
END_PROGRAM
`
	cu := mustParse(t, src)
	stmt, ok := cu.Programs[0].Body[0].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("body[0] is %T, want *ast.ExpressionStatement", cu.Programs[0].Body[0])
	}
	if _, ok := stmt.Expr.(*ast.MethodCallExpression); !ok {
		t.Fatalf("expr is %T, want *ast.MethodCallExpression", stmt.Expr)
	}
}
