package stdlib

import (
	"testing"

	"github.com/eduardojvieira/stc/internal/ast"
	"github.com/eduardojvieira/stc/internal/cerrors"
)

// fakeSink records every instruction, label, and comment emitted by a
// template, for assertions that don't care about exact formatting.
type fakeSink struct {
	instrs   []string
	labels   []string
	comments int
}

func (f *fakeSink) Instr(op string, args ...string) {
	f.instrs = append(f.instrs, op)
}

func (f *fakeSink) Label(name string) {
	f.labels = append(f.labels, name)
}

func (f *fakeSink) Comment(format string, args ...interface{}) {
	f.comments++
}

// fakeLabels hands out unique labels without needing a real codegen
// label allocator.
type fakeLabels struct{ n int }

func (f *fakeLabels) NewLabel(prefix string) string {
	f.n++
	return prefix + "_" + itoa(f.n)
}

// fakeExpr just emits a PUSH for whatever identifier it's given, enough
// to drive a template through its EvalArg calls.
type fakeExpr struct{ sink *fakeSink }

func (f *fakeExpr) Expr(e ast.Expression) error {
	f.sink.Instr("PUSH", e.TokenLiteral())
	return nil
}

func ident(name string) *ast.Identifier {
	return &ast.Identifier{Value: name, Position: cerrors.Position{}}
}

func newCapability(base int, instance string, args map[string]ast.Expression) (*Capability, *fakeSink) {
	sink := &fakeSink{}
	cap := &Capability{
		Base:     base,
		Instance: instance,
		Sink:     sink,
		Labels:   &fakeLabels{},
		Expr:     &fakeExpr{sink: sink},
		Args:     args,
	}
	return cap, sink
}

func TestNewCatalogRegistersEveryEntry(t *testing.T) {
	c := NewCatalog()

	blocks := []string{
		"TON", "TOF", "TP",
		"CTU", "CTD",
		"R_TRIG", "F_TRIG",
		"SR", "RS",
		"HYSTERESIS", "PID", "FIFO", "LIFO",
	}
	for _, name := range blocks {
		if _, ok := c.LookupBlock(name); !ok {
			t.Errorf("block %q not registered", name)
		}
		if _, ok := c.LookupBlock(lowerName(name)); !ok {
			t.Errorf("block lookup for %q should be case-insensitive", name)
		}
	}

	functions := []string{
		"MIN", "MAX", "LIMIT", "SEL", "MUX",
		"SHL", "SHR", "ROL", "ROR",
		"SQRT", "EXP", "LN", "LOG",
		"SIN", "COS", "TAN", "ATAN", "ASIN", "ACOS", "ATAN2",
		"LEN", "FIND", "CONCAT", "DELETE", "INSERT", "REPLACE",
	}
	for _, name := range functions {
		if _, ok := c.LookupFunction(name); !ok {
			t.Errorf("function %q not registered", name)
		}
	}
}

func TestLookupUnknownFails(t *testing.T) {
	c := NewCatalog()
	if _, ok := c.LookupBlock("NOSUCHBLOCK"); ok {
		t.Fatal("expected lookup of unknown block to fail")
	}
	if _, ok := c.LookupFunction("NOSUCHFUNC"); ok {
		t.Fatal("expected lookup of unknown function to fail")
	}
}

func TestExpandBlockUnknownReturnsError(t *testing.T) {
	c := NewCatalog()
	cap, _ := newCapability(0, "x1", nil)
	if err := c.ExpandBlock("NOSUCH", cap); err == nil {
		t.Fatal("expected error expanding unknown block")
	}
}

func TestExpandFunctionUnknownReturnsError(t *testing.T) {
	c := NewCatalog()
	cap, _ := newCapability(0, "x1", nil)
	if err := c.ExpandFunction("NOSUCH", cap); err == nil {
		t.Fatal("expected error expanding unknown function")
	}
}

func TestTimerLayoutOffsets(t *testing.T) {
	c := NewCatalog()
	typ, ok := c.LookupBlock("TON")
	if !ok {
		t.Fatal("TON not registered")
	}
	in, ok := typ.ByName["in"]
	if !ok {
		t.Fatal("TON missing IN member")
	}
	if in.Offset != 0 {
		t.Fatalf("IN offset = %d, want 0", in.Offset)
	}
}

func TestCounterBlockExpandsWithoutError(t *testing.T) {
	c := NewCatalog()
	args := map[string]ast.Expression{
		"CU": ident("x"),
		"R":  ident("y"),
		"PV": ident("z"),
	}
	cap, sink := newCapability(100, "ctr1", args)
	if err := c.ExpandBlock("CTU", cap); err != nil {
		t.Fatalf("CTU expansion failed: %v", err)
	}
	if len(sink.instrs) == 0 {
		t.Fatal("expected CTU template to emit instructions")
	}
}

func TestBistableBlocksExpandWithoutError(t *testing.T) {
	c := NewCatalog()
	cases := []struct {
		name string
		args map[string]ast.Expression
	}{
		{"SR", map[string]ast.Expression{"SET1": ident("s"), "RESET": ident("r")}},
		{"RS", map[string]ast.Expression{"SET": ident("s"), "RESET1": ident("r")}},
	}
	for _, tc := range cases {
		cap, sink := newCapability(0, "bi1", tc.args)
		if err := c.ExpandBlock(tc.name, cap); err != nil {
			t.Fatalf("%s expansion failed: %v", tc.name, err)
		}
		if len(sink.instrs) == 0 {
			t.Fatalf("%s emitted nothing", tc.name)
		}
	}
}

func TestPIDExpandsAndClampsOutput(t *testing.T) {
	c := NewCatalog()
	args := map[string]ast.Expression{
		"SP": ident("sp"), "PV": ident("pv"), "KP": ident("kp"),
		"KI": ident("ki"), "KD": ident("kd"), "DT": ident("dt"),
		"OUT_MIN": ident("lo"), "OUT_MAX": ident("hi"),
	}
	cap, sink := newCapability(200, "pid1", args)
	if err := c.ExpandBlock("PID", cap); err != nil {
		t.Fatalf("PID expansion failed: %v", err)
	}
	foundClamp := false
	for _, l := range sink.labels {
		if l != "" {
			foundClamp = true
		}
	}
	if !foundClamp {
		t.Fatal("expected PID template to emit clamp branch labels")
	}
}

func TestFIFOAndLIFOShareLayout(t *testing.T) {
	c := NewCatalog()
	fifo, ok := c.LookupBlock("FIFO")
	if !ok {
		t.Fatal("FIFO not registered")
	}
	lifo, ok := c.LookupBlock("LIFO")
	if !ok {
		t.Fatal("LIFO not registered")
	}
	if fifo.Size() != lifo.Size() {
		t.Fatalf("FIFO/LIFO sizes differ: %d vs %d", fifo.Size(), lifo.Size())
	}
	if _, ok := fifo.ByName["_data15"]; !ok {
		t.Fatal("expected 16-element data array in buffer layout")
	}
}

func TestSelectionFunctionsReturnDint(t *testing.T) {
	c := NewCatalog()
	for _, name := range []string{"MIN", "MAX", "SEL", "MUX"} {
		typ, ok := c.LookupFunction(name)
		if !ok {
			t.Fatalf("%s not registered", name)
		}
		if typ.ReturnType == nil || typ.ReturnType.String() != "DINT" {
			t.Fatalf("%s return type = %v, want DINT", name, typ.ReturnType)
		}
	}
}

func TestMuxExpandsAllFourCases(t *testing.T) {
	c := NewCatalog()
	args := map[string]ast.Expression{
		"K": ident("k"), "IN0": ident("a"), "IN1": ident("b"),
		"IN2": ident("c"), "IN3": ident("d"),
	}
	cap, sink := newCapability(0, "m1", args)
	if err := c.ExpandFunction("MUX", cap); err != nil {
		t.Fatalf("MUX expansion failed: %v", err)
	}
	if len(sink.labels) < 5 { // 4 cases + default, at minimum
		t.Fatalf("expected at least 5 labels for MUX's case dispatch, got %d", len(sink.labels))
	}
}

func TestMathFunctionsExpandWithoutError(t *testing.T) {
	c := NewCatalog()
	names := []string{"SQRT", "EXP", "LN", "LOG", "SIN", "COS", "TAN", "ATAN", "ASIN", "ACOS"}
	for _, name := range names {
		args := map[string]ast.Expression{"IN": ident("x")}
		cap, sink := newCapability(0, "f1", args)
		if err := c.ExpandFunction(name, cap); err != nil {
			t.Fatalf("%s expansion failed: %v", name, err)
		}
		if len(sink.instrs) == 0 {
			t.Fatalf("%s emitted nothing", name)
		}
	}
}

func TestAtan2CoversAllQuadrantBranches(t *testing.T) {
	c := NewCatalog()
	args := map[string]ast.Expression{"Y": ident("y"), "X": ident("x")}
	cap, sink := newCapability(0, "a1", args)
	if err := c.ExpandFunction("ATAN2", cap); err != nil {
		t.Fatalf("ATAN2 expansion failed: %v", err)
	}
	// four quadrant branches plus the degenerate X=0,Y=0 case plus a shared
	// end label is at least six distinct labels.
	if len(sink.labels) < 6 {
		t.Fatalf("expected at least 6 labels for ATAN2's quadrant dispatch, got %d", len(sink.labels))
	}
}

func TestStringFunctionsExpandWithoutError(t *testing.T) {
	c := NewCatalog()

	t.Run("LEN", func(t *testing.T) {
		cap, sink := newCapability(0, "l1", map[string]ast.Expression{"S": ident("s")})
		if err := c.ExpandFunction("LEN", cap); err != nil {
			t.Fatalf("LEN expansion failed: %v", err)
		}
		if len(sink.instrs) == 0 {
			t.Fatal("LEN emitted nothing")
		}
	})

	t.Run("FIND", func(t *testing.T) {
		cap, sink := newCapability(300, "f1", map[string]ast.Expression{"S1": ident("s1"), "S2": ident("s2")})
		if err := c.ExpandFunction("FIND", cap); err != nil {
			t.Fatalf("FIND expansion failed: %v", err)
		}
		if len(sink.instrs) == 0 {
			t.Fatal("FIND emitted nothing")
		}
	})

	t.Run("CONCAT", func(t *testing.T) {
		cap, sink := newCapability(300, "c1", map[string]ast.Expression{"S1": ident("s1"), "S2": ident("s2")})
		if err := c.ExpandFunction("CONCAT", cap); err != nil {
			t.Fatalf("CONCAT expansion failed: %v", err)
		}
		if len(sink.instrs) == 0 {
			t.Fatal("CONCAT emitted nothing")
		}
	})

	t.Run("DELETE", func(t *testing.T) {
		args := map[string]ast.Expression{"S": ident("s"), "LEN_": ident("n"), "P": ident("p")}
		cap, sink := newCapability(300, "d1", args)
		if err := c.ExpandFunction("DELETE", cap); err != nil {
			t.Fatalf("DELETE expansion failed: %v", err)
		}
		if len(sink.instrs) == 0 {
			t.Fatal("DELETE emitted nothing")
		}
	})

	t.Run("INSERT", func(t *testing.T) {
		args := map[string]ast.Expression{"S1": ident("s1"), "S2": ident("s2"), "P": ident("p")}
		cap, sink := newCapability(300, "i1", args)
		if err := c.ExpandFunction("INSERT", cap); err != nil {
			t.Fatalf("INSERT expansion failed: %v", err)
		}
		if len(sink.instrs) == 0 {
			t.Fatal("INSERT emitted nothing")
		}
	})

	t.Run("REPLACE", func(t *testing.T) {
		args := map[string]ast.Expression{"S1": ident("s1"), "S2": ident("s2"), "LEN_": ident("n"), "P": ident("p")}
		cap, sink := newCapability(300, "r1", args)
		if err := c.ExpandFunction("REPLACE", cap); err != nil {
			t.Fatalf("REPLACE expansion failed: %v", err)
		}
		if len(sink.instrs) == 0 {
			t.Fatal("REPLACE emitted nothing")
		}
	})
}

func TestStringFunctionsReturnStringType(t *testing.T) {
	c := NewCatalog()
	for _, name := range []string{"CONCAT", "DELETE", "INSERT", "REPLACE"} {
		typ, ok := c.LookupFunction(name)
		if !ok {
			t.Fatalf("%s not registered", name)
		}
		if typ.ReturnType.String() != "STRING" {
			t.Fatalf("%s return type = %s, want STRING", name, typ.ReturnType.String())
		}
	}
}
