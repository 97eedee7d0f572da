package codegen

import (
	"fmt"
	"strings"

	"github.com/eduardojvieira/stc/internal/ast"
	"github.com/eduardojvieira/stc/internal/cerrors"
	"github.com/eduardojvieira/stc/internal/symbols"
	"github.com/eduardojvieira/stc/internal/types"
)

// lvalue is a resolved load/store target. Exactly one addressing mode
// applies: direct, where constAddr is a compile-time constant, or
// indirect, where emitAddress has already left the final address on top
// of stack for a *LOADIN/*STOREIN pair to consume. bit/hasBit carry a
// bit-addressed BOOL's position within the byte at constAddr; ST never
// bit-addresses through a runtime-computed (indirect) address, since
// %IX/%QX bindings are always direct symbols.
type lvalue struct {
	typ       types.Type
	size      int
	indirect  bool
	constAddr int
	bit       int
	hasBit    bool
}

// resolveRoot looks up name against the visibility hierarchy spec.md §4.3
// describes for code emitted inside a method body: (1) method-scope
// inputs/outputs/locals (including the method's own name, bound to its
// dedicated return slot), (2) the implicit `this` scope, FB members by
// unqualified name, (3) the ordinary lexical scope chain (locals then
// globals, already threaded through symbols.Table). Plain FUNCTION and
// PROGRAM bodies have no method/this scope, so only (3) ever applies.
func (g *Generator) resolveRoot(name string, pos cerrors.Position) (*symbols.Symbol, error) {
	if g.method != nil {
		if strings.EqualFold(name, g.method.Name) {
			if g.method.ReturnType == nil {
				return nil, g.errf(pos, "method %s has no return value to assign", g.method.Name)
			}
			return &symbols.Symbol{
				Name:    g.method.Name,
				Type:    g.method.ReturnType,
				Region:  symbols.RegionWork,
				Address: g.method.ReturnAddr,
				Size:    g.method.ReturnType.Size(),
			}, nil
		}
		for _, p := range methodParams(g.method) {
			if strings.EqualFold(p.Name, name) {
				return &symbols.Symbol{
					Name:    p.Name,
					Type:    p.Type,
					Region:  symbols.RegionWork,
					Address: p.Address,
					Size:    p.Type.Size(),
				}, nil
			}
		}
	}
	if g.fbInstance != nil {
		if m, ok := g.fbInstance.Members[lower(name)]; ok {
			return &symbols.Symbol{
				Name:    m.Name,
				Type:    m.Type,
				Region:  g.fbInstance.Region,
				Address: m.AbsoluteAddress(g.fbInstance.Address),
				Size:    m.Size,
			}, nil
		}
	}
	if g.table != nil {
		if sym, ok := g.table.Resolve(name); ok {
			return sym, nil
		}
	}
	return nil, g.errf(pos, "undefined identifier %q", name)
}

// methodParams gives every input, output, and local of m as a single
// ordered list, the scope resolveRoot searches for a method-local name.
func methodParams(m *symbols.MethodInfo) []*symbols.Parameter {
	all := make([]*symbols.Parameter, 0, len(m.Inputs)+len(m.Outputs)+len(m.Locals))
	all = append(all, m.Inputs...)
	all = append(all, m.Outputs...)
	all = append(all, m.Locals...)
	return all
}

// emitAddress resolves expr to an lvalue, emitting whatever runtime
// address-computation code a non-constant array index or pointer
// dereference requires along the way. It supersedes symbols.ResolvePath
// for code generation: ResolvePath cannot root a chain at THIS (its
// internal flatten helper has no *ast.ThisExpression case) and, being a
// pure planner, never emits the runtime offset code a dynamic index or a
// dereference needs.
func (g *Generator) emitAddress(expr ast.Expression) (*lvalue, error) {
	switch e := expr.(type) {
	case *ast.Identifier:
		sym, err := g.resolveRoot(e.Value, e.Position)
		if err != nil {
			return nil, err
		}
		return &lvalue{typ: sym.Type, size: sym.Size, constAddr: sym.Address, bit: sym.Bit, hasBit: sym.HasBit}, nil

	case *ast.ThisExpression:
		if g.fbInstance == nil {
			return nil, g.errf(e.Position, "THIS used outside a function block method")
		}
		return &lvalue{typ: g.fbInstance.Type, size: g.fbInstance.Size, constAddr: g.fbInstance.Address}, nil

	case *ast.MemberAccessExpression:
		base, err := g.emitAddress(e.Object)
		if err != nil {
			return nil, err
		}
		member, err := lookupMember(base.typ, e.Member.Value)
		if err != nil {
			return nil, g.errf(e.Position, "%s", err)
		}
		g.addConstOffset(base, member.Offset)
		base.typ, base.size = member.Type, member.Size
		base.bit, base.hasBit = 0, false
		return base, nil

	case *ast.ArrayAccessExpression:
		base, err := g.emitAddress(e.Object)
		if err != nil {
			return nil, err
		}
		arr, ok := base.typ.(*types.ArrayType)
		if !ok {
			return nil, g.errf(e.Position, "index applied to non-array type %s", base.typ.String())
		}
		if constIdx, ok := constIndices(e.Indices); ok {
			off, err := arr.Offset(constIdx)
			if err != nil {
				return nil, g.errf(e.Position, "%s", err)
			}
			g.addConstOffset(base, off)
		} else {
			if err := g.emitArrayRuntimeOffset(arr, e.Indices); err != nil {
				return nil, err
			}
			g.addRuntimeOffset(base)
		}
		base.typ, base.size = arr.Element, arr.Element.Size()
		base.bit, base.hasBit = 0, false
		return base, nil

	case *ast.DerefExpression:
		base, err := g.emitAddress(e.Target)
		if err != nil {
			return nil, err
		}
		ptr, ok := base.typ.(*types.PointerType)
		if !ok {
			return nil, g.errf(e.Position, "dereference applied to non-pointer type %s", base.typ.String())
		}
		if base.indirect {
			g.Instr(sizeOpIndirect(types.PointerSize, false))
		} else {
			g.Instr(sizeOp(types.PointerSize, false), itoa(base.constAddr))
		}
		return &lvalue{typ: ptr.Base, size: ptr.Base.Size(), indirect: true}, nil

	default:
		return nil, g.errf(expr.Pos(), "expression is not a valid assignment target")
	}
}

// addConstOffset folds a compile-time-constant member/element offset into
// lv: adjusting constAddr directly while lv is still direct, or emitting
// `PUSH offset; ADD` against the address already sitting on stack once
// lv has gone indirect.
func (g *Generator) addConstOffset(lv *lvalue, offset int) {
	if lv.indirect {
		if offset != 0 {
			g.Instr("PUSH", itoa(offset))
			g.Instr("ADD")
		}
		return
	}
	lv.constAddr += offset
}

// addRuntimeOffset folds a runtime offset value, already sitting on top
// of stack, into lv, flipping lv to indirect the first time this is
// called on a still-direct lvalue.
func (g *Generator) addRuntimeOffset(lv *lvalue) {
	if !lv.indirect {
		g.Instr("PUSH", itoa(lv.constAddr))
		lv.indirect = true
	}
	g.Instr("ADD")
}

// emitArrayRuntimeOffset pushes the byte offset of indices within arr,
// per spec.md's address formula `((i0-l0)*s1*s2 + (i1-l1)*s2 + (i2-l2))
// * element_size`, evaluating each index expression left to right.
func (g *Generator) emitArrayRuntimeOffset(arr *types.ArrayType, indices []ast.Expression) error {
	strides := arr.Strides()
	for i, idxExpr := range indices {
		if err := g.compileExpr(idxExpr); err != nil {
			return err
		}
		if lower := arr.Dims[i].Lower; lower != 0 {
			g.Instr("PUSH", itoa(lower))
			g.Instr("SUB")
		}
		if strides[i] != 1 {
			g.Instr("PUSH", itoa(strides[i]))
			g.Instr("MUL")
		}
		if i > 0 {
			g.Instr("ADD")
		}
	}
	if sz := arr.Element.Size(); sz != 1 {
		g.Instr("PUSH", itoa(sz))
		g.Instr("MUL")
	}
	return nil
}

// constIndices reports whether every index expression is a constant
// integer literal, returning their values when so; mirrors
// symbols.allConstant, kept private to this package since ResolvePath's
// copy is unexported.
func constIndices(exprs []ast.Expression) ([]int, bool) {
	out := make([]int, len(exprs))
	for i, e := range exprs {
		lit, ok := e.(*ast.IntegerLiteral)
		if !ok {
			return nil, false
		}
		out[i] = int(lit.Value)
	}
	return out, true
}

// lookupMember mirrors symbols.lookupMember (unexported there): checks
// user structs, user function blocks, and stdlib function blocks, in
// that order, for a member named name.
func lookupMember(t types.Type, name string) (*symbols.Member, error) {
	var byName map[string]*symbols.Member
	switch ct := t.(type) {
	case *symbols.StructType:
		byName = ct.ByName
	case *symbols.FunctionBlockType:
		byName = ct.ByName
	case *symbols.StdlibBlockType:
		byName = ct.ByName
	default:
		return nil, fmt.Errorf("type %s has no members", t.String())
	}
	m, ok := byName[lower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown member %q on %s", name, t.String())
	}
	return m, nil
}

// emitLoadLValue emits the load sequence for lv, leaving its value on
// top of stack. Bit-addressed BOOLs isolate their bit with SHR+AND after
// the containing byte loads; everything else is a direct width-matched
// load or, once indirect, its *LOADIN counterpart.
func (g *Generator) emitLoadLValue(lv *lvalue) {
	if lv.hasBit {
		g.Instr(sizeOp(1, false), itoa(lv.constAddr))
		g.Instr("PUSH", itoa(lv.bit))
		g.Instr("SHR")
		g.Instr("PUSH", "1")
		g.Instr("AND")
		return
	}
	if lv.indirect {
		g.Instr(sizeOpIndirect(lv.size, false))
		return
	}
	g.Instr(sizeOp(lv.size, false), itoa(lv.constAddr))
}

// emitStoreLValue emits the store sequence for lv, consuming the value
// currently on top of stack. A bit-addressed BOOL does a read-modify-
// write of its containing byte so its sibling bits are preserved.
func (g *Generator) emitStoreLValue(lv *lvalue) {
	if lv.hasBit {
		mask := 1 << uint(lv.bit)
		g.Instr("PUSH", itoa(lv.bit))
		g.Instr("SHL")
		g.Instr(sizeOp(1, false), itoa(lv.constAddr))
		g.Instr("PUSH", itoa(mask))
		g.Instr("NOT")
		g.Instr("AND")
		g.Instr("OR")
		g.Instr(sizeOp(1, true), itoa(lv.constAddr))
		return
	}
	if lv.indirect {
		g.Instr(sizeOpIndirect(lv.size, true))
		return
	}
	g.Instr(sizeOp(lv.size, true), itoa(lv.constAddr))
}
