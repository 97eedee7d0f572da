package symbols

import (
	"testing"

	"github.com/eduardojvieira/stc/internal/ast"
	"github.com/eduardojvieira/stc/internal/types"
)

func elemAnnot(k ast.ElementaryKind) *ast.TypeAnnotation {
	return &ast.TypeAnnotation{Kind: ast.TypeElementary, Elementary: k}
}

func varDecl(name string, ta *ast.TypeAnnotation) *ast.VarDecl {
	return &ast.VarDecl{Name: &ast.Identifier{Value: name}, Type: ta}
}

func TestLayoutGlobalsAlignedInWorkRegion(t *testing.T) {
	cu := &ast.CompilationUnit{
		Globals: []*ast.VarBlock{
			{
				Section: ast.SectionVar,
				Decls: []*ast.VarDecl{
					varDecl("flag", elemAnnot(ast.BOOL)),
					varDecl("count", elemAnnot(ast.DINT)),
				},
			},
		},
	}
	unit, err := NewBuilder(Options{}, "").Build(cu)
	if err != nil {
		t.Fatal(err)
	}
	flag, _ := unit.Globals.Resolve("flag")
	count, _ := unit.Globals.Resolve("count")
	if flag.Address != DefaultWorkBase {
		t.Errorf("flag address = 0x%x, want 0x%x", flag.Address, DefaultWorkBase)
	}
	// count (4-byte) must be aligned to a multiple of 4 after the 1-byte flag.
	if count.Address != DefaultWorkBase+4 {
		t.Errorf("count address = 0x%x, want 0x%x", count.Address, DefaultWorkBase+4)
	}
}

func TestLayoutIOBoundVariable(t *testing.T) {
	vd := varDecl("startBtn", elemAnnot(ast.BOOL))
	vd.IOAddress = "%I0.3"
	cu := &ast.CompilationUnit{
		Globals: []*ast.VarBlock{{Section: ast.SectionVar, Decls: []*ast.VarDecl{vd}}},
	}
	unit, err := NewBuilder(Options{}, "").Build(cu)
	if err != nil {
		t.Fatal(err)
	}
	sym, _ := unit.Globals.Resolve("startBtn")
	if sym.Region != RegionInput || sym.Address != DefaultInputBase {
		t.Errorf("got region %v addr 0x%x", sym.Region, sym.Address)
	}
}

func TestLayoutDuplicateSymbolIsError(t *testing.T) {
	cu := &ast.CompilationUnit{
		Globals: []*ast.VarBlock{
			{Section: ast.SectionVar, Decls: []*ast.VarDecl{
				varDecl("x", elemAnnot(ast.INT)),
				varDecl("x", elemAnnot(ast.INT)),
			}},
		},
	}
	if _, err := NewBuilder(Options{}, "").Build(cu); err == nil {
		t.Fatal("expected duplicate symbol error")
	}
}

func TestLayoutStructMemberOffsets(t *testing.T) {
	structDecl := &ast.StructDecl{
		Name: &ast.Identifier{Value: "Point"},
		Members: []*ast.VarDecl{
			varDecl("x", elemAnnot(ast.DINT)),
			varDecl("flag", elemAnnot(ast.BOOL)),
			varDecl("y", elemAnnot(ast.DINT)),
		},
	}
	cu := &ast.CompilationUnit{Types: []ast.Declaration{structDecl}}
	unit, err := NewBuilder(Options{}, "").Build(cu)
	if err != nil {
		t.Fatal(err)
	}
	st := unit.Structs["point"]
	if st.ByName["x"].Offset != 0 {
		t.Errorf("x offset = %d, want 0", st.ByName["x"].Offset)
	}
	if st.ByName["flag"].Offset != 4 {
		t.Errorf("flag offset = %d, want 4", st.ByName["flag"].Offset)
	}
	if st.ByName["y"].Offset != 8 {
		t.Errorf("y offset = %d, want 8 (aligned up from 5)", st.ByName["y"].Offset)
	}
	if st.Size() != 12 {
		t.Errorf("struct size = %d, want 12", st.Size())
	}
}

func TestLayoutEnumValuesBecomeGlobalConstants(t *testing.T) {
	enumDecl := &ast.EnumDecl{
		Name: &ast.Identifier{Value: "Color"},
		Values: []*ast.EnumValue{
			{Name: &ast.Identifier{Value: "Red"}, Value: 0},
			{Name: &ast.Identifier{Value: "Green"}, Value: 1},
		},
	}
	cu := &ast.CompilationUnit{Types: []ast.Declaration{enumDecl}}
	unit, err := NewBuilder(Options{}, "").Build(cu)
	if err != nil {
		t.Fatal(err)
	}
	sym, ok := unit.Globals.Resolve("Green")
	if !ok || sym.Section != ast.SectionConstant {
		t.Fatal("Green constant symbol not registered")
	}
	lit := sym.Init.(*ast.IntegerLiteral)
	if lit.Value != 1 {
		t.Errorf("Green value = %d, want 1", lit.Value)
	}
}

func TestLayoutFunctionBlockInheritance(t *testing.T) {
	base := &ast.FunctionBlockDecl{
		Name: &ast.Identifier{Value: "Base"},
		VarBlocks: []*ast.VarBlock{
			{Section: ast.SectionVar, Decls: []*ast.VarDecl{varDecl("a", elemAnnot(ast.DINT))}},
		},
	}
	derived := &ast.FunctionBlockDecl{
		Name:    &ast.Identifier{Value: "Derived"},
		Extends: &ast.Identifier{Value: "Base"},
		VarBlocks: []*ast.VarBlock{
			{Section: ast.SectionVar, Decls: []*ast.VarDecl{varDecl("b", elemAnnot(ast.INT))}},
		},
	}
	cu := &ast.CompilationUnit{FunctionBlocks: []*ast.FunctionBlockDecl{derived, base}}
	unit, err := NewBuilder(Options{}, "").Build(cu)
	if err != nil {
		t.Fatal(err)
	}
	fb := unit.FunctionBlocks["derived"]
	if fb.ByName["a"].Offset != 0 {
		t.Errorf("inherited member a offset = %d, want 0", fb.ByName["a"].Offset)
	}
	if fb.ByName["b"].Offset != 4 {
		t.Errorf("own member b offset = %d, want 4", fb.ByName["b"].Offset)
	}
	if fb.Size() != 6 {
		t.Errorf("derived size = %d, want 6", fb.Size())
	}
}

func TestLayoutCyclicInheritanceIsError(t *testing.T) {
	a := &ast.FunctionBlockDecl{Name: &ast.Identifier{Value: "A"}, Extends: &ast.Identifier{Value: "B"}}
	bfb := &ast.FunctionBlockDecl{Name: &ast.Identifier{Value: "B"}, Extends: &ast.Identifier{Value: "A"}}
	cu := &ast.CompilationUnit{FunctionBlocks: []*ast.FunctionBlockDecl{a, bfb}}
	if _, err := NewBuilder(Options{}, "").Build(cu); err == nil {
		t.Fatal("expected cyclic inheritance error")
	}
}

func TestLayoutOverrideRequiredWhenShadowing(t *testing.T) {
	base := &ast.FunctionBlockDecl{
		Name: &ast.Identifier{Value: "Base"},
		Methods: []*ast.MethodDecl{
			{Name: &ast.Identifier{Value: "Step"}},
		},
	}
	derived := &ast.FunctionBlockDecl{
		Name:    &ast.Identifier{Value: "Derived"},
		Extends: &ast.Identifier{Value: "Base"},
		Methods: []*ast.MethodDecl{
			{Name: &ast.Identifier{Value: "Step"}}, // no IsOverride
		},
	}
	cu := &ast.CompilationUnit{FunctionBlocks: []*ast.FunctionBlockDecl{base, derived}}
	if _, err := NewBuilder(Options{}, "").Build(cu); err == nil {
		t.Fatal("expected missing-OVERRIDE error")
	}
}

func TestLayoutOverrideFinalIsError(t *testing.T) {
	base := &ast.FunctionBlockDecl{
		Name: &ast.Identifier{Value: "Base"},
		Methods: []*ast.MethodDecl{
			{Name: &ast.Identifier{Value: "Step"}, IsFinal: true},
		},
	}
	derived := &ast.FunctionBlockDecl{
		Name:    &ast.Identifier{Value: "Derived"},
		Extends: &ast.Identifier{Value: "Base"},
		Methods: []*ast.MethodDecl{
			{Name: &ast.Identifier{Value: "Step"}, IsOverride: true},
		},
	}
	cu := &ast.CompilationUnit{FunctionBlocks: []*ast.FunctionBlockDecl{base, derived}}
	if _, err := NewBuilder(Options{}, "").Build(cu); err == nil {
		t.Fatal("expected override-of-FINAL error")
	}
}

func TestLayoutInterfaceConformance(t *testing.T) {
	iface := &ast.InterfaceDecl{
		Name: &ast.Identifier{Value: "Steppable"},
		Methods: []*ast.InterfaceMethodSig{
			{Name: &ast.Identifier{Value: "Step"}},
		},
	}
	fb := &ast.FunctionBlockDecl{
		Name:       &ast.Identifier{Value: "Motor"},
		Implements: []*ast.Identifier{{Value: "Steppable"}},
		Methods: []*ast.MethodDecl{
			{Name: &ast.Identifier{Value: "Step"}},
		},
	}
	cu := &ast.CompilationUnit{
		Interfaces:     []*ast.InterfaceDecl{iface},
		FunctionBlocks: []*ast.FunctionBlockDecl{fb},
	}
	if _, err := NewBuilder(Options{}, "").Build(cu); err != nil {
		t.Fatalf("unexpected conformance error: %v", err)
	}
}

func TestLayoutInterfaceConformanceMissingMethodIsError(t *testing.T) {
	iface := &ast.InterfaceDecl{
		Name: &ast.Identifier{Value: "Steppable"},
		Methods: []*ast.InterfaceMethodSig{
			{Name: &ast.Identifier{Value: "Step"}},
		},
	}
	fb := &ast.FunctionBlockDecl{
		Name:       &ast.Identifier{Value: "Motor"},
		Implements: []*ast.Identifier{{Value: "Steppable"}},
	}
	cu := &ast.CompilationUnit{
		Interfaces:     []*ast.InterfaceDecl{iface},
		FunctionBlocks: []*ast.FunctionBlockDecl{fb},
	}
	if _, err := NewBuilder(Options{}, "").Build(cu); err == nil {
		t.Fatal("expected missing-method conformance error")
	}
}

func TestLayoutFunctionReturnPseudoVariable(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name:       &ast.Identifier{Value: "Double"},
		ReturnType: elemAnnot(ast.DINT),
		VarBlocks: []*ast.VarBlock{
			{Section: ast.SectionInput, Decls: []*ast.VarDecl{varDecl("n", elemAnnot(ast.DINT))}},
		},
	}
	cu := &ast.CompilationUnit{Functions: []*ast.FunctionDecl{fn}}
	unit, err := NewBuilder(Options{}, "").Build(cu)
	if err != nil {
		t.Fatal(err)
	}
	info := unit.Functions["double"]
	if info.ReturnVar.Name != "Double" {
		t.Errorf("return var name = %q, want Double", info.ReturnVar.Name)
	}
	if _, ok := info.Table.Resolve("n"); !ok {
		t.Error("function input n not resolvable")
	}
}

func TestResolvePathMemberAndArray(t *testing.T) {
	elemType := types.Dint
	arr, _ := types.NewArrayType(elemType, []types.Dimension{{Lower: 0, Upper: 9}})
	st := &StructType{
		Name: "Buf",
		ByName: map[string]*Member{
			"data": {Name: "data", Offset: 0, Size: arr.Size(), Type: arr},
		},
	}
	root := &Symbol{Name: "buf", Type: st}
	expr := &ast.ArrayAccessExpression{
		Object:  &ast.MemberAccessExpression{Object: &ast.Identifier{Value: "buf"}, Member: &ast.Identifier{Value: "data"}},
		Indices: []ast.Expression{&ast.IntegerLiteral{Value: 3}},
	}
	steps, finalType, err := ResolvePath(root, expr)
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 2 {
		t.Fatalf("got %d steps, want 2", len(steps))
	}
	idx := steps[1].(IndexStep)
	if !idx.IsConst || idx.ConstOffset != 12 {
		t.Errorf("const offset = %d (const=%v), want 12", idx.ConstOffset, idx.IsConst)
	}
	if finalType.String() != "DINT" {
		t.Errorf("final type = %s, want DINT", finalType.String())
	}
}

func TestIOAddressParsing(t *testing.T) {
	io, err := ParseIOAddress("%QW4")
	if err != nil {
		t.Fatal(err)
	}
	if io.Region != RegionOutput || io.Offset != 4 || io.SizeCode != 'W' {
		t.Errorf("got %+v", io)
	}
}
