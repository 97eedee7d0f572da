// Package symbols implements the symbol table and memory-layout planner:
// type registration, function-block inheritance layout, interface
// conformance checking, and absolute address assignment across the four
// memory regions (input image, output image, work, retain).
package symbols

import (
	"fmt"
	"strings"

	"github.com/eduardojvieira/stc/internal/ast"
	"github.com/eduardojvieira/stc/internal/cerrors"
	"github.com/eduardojvieira/stc/internal/types"
)

// FunctionInfo is a laid-out FUNCTION: its input/local table and the
// pseudo-variable (named identically to the function) that holds its
// return value.
type FunctionInfo struct {
	Name       string
	Decl       *ast.FunctionDecl
	ReturnType types.Type
	ReturnVar  *Symbol
	Table      *Table
}

// ProgramInfo is a laid-out PROGRAM: its local-variable table, enclosed
// in the unit's globals.
type ProgramInfo struct {
	Name  string
	Decl  *ast.ProgramDecl
	Table *Table
}

// Unit is the complete result of laying out one compilation unit: every
// type definition, every global/function/program symbol table, placed at
// absolute addresses.
type Unit struct {
	Structs        map[string]*StructType
	Enums          map[string]*EnumType
	Interfaces     map[string]*InterfaceType
	FunctionBlocks map[string]*FunctionBlockType
	Globals        *Table
	Functions      map[string]*FunctionInfo
	Programs       map[string]*ProgramInfo

	WorkBase int

	workCursor   int
	retainCursor int
}

// WorkSize returns the number of bytes allocated so far in the work
// region, i.e. the offset one past the last byte any symbol, function
// return variable, or method local occupies. internal/codegen uses this
// to place the `_initialized` init-guard flag by default at
// WorkBase + WorkSize(): the first byte after the laid-out variables, not
// the work region's last byte.
func (u *Unit) WorkSize() int { return u.workCursor }

// RetainSize returns the number of bytes allocated so far in the retain
// region.
func (u *Unit) RetainSize() int { return u.retainCursor }

// Options configures the layout builder.
type Options struct {
	// WorkBase is the absolute address of the first byte of the work
	// region. Defaults to DefaultWorkBase (0x2000).
	WorkBase int
	// Catalog resolves stdlib block/function names; may be nil, in
	// which case any reference to a stdlib name is an unresolved-type
	// error.
	Catalog Catalog
}

// Builder runs the six-pass layout algorithm over a parsed compilation
// unit.
type Builder struct {
	opts   Options
	source string
	unit   *Unit
}

// NewBuilder creates a layout Builder. source is the original text, kept
// only so layout errors can render a source-annotated diagnostic.
func NewBuilder(opts Options, source string) *Builder {
	if opts.WorkBase == 0 {
		opts.WorkBase = DefaultWorkBase
	}
	return &Builder{
		opts:   opts,
		source: source,
		unit: &Unit{
			Structs:        make(map[string]*StructType),
			Enums:          make(map[string]*EnumType),
			Interfaces:     make(map[string]*InterfaceType),
			FunctionBlocks: make(map[string]*FunctionBlockType),
			Globals:        NewTable(),
			Functions:      make(map[string]*FunctionInfo),
			Programs:       make(map[string]*ProgramInfo),
			WorkBase:       opts.WorkBase,
		},
	}
}

func (b *Builder) errf(pos cerrors.Position, format string, args ...interface{}) error {
	return cerrors.New(cerrors.Semantic, pos, fmt.Sprintf(format, args...), b.source, "")
}

// Build runs all six passes in order and returns the laid-out unit, or
// the first error encountered. The pipeline does not attempt recovery:
// a single failure aborts the build.
func (b *Builder) Build(cu *ast.CompilationUnit) (*Unit, error) {
	if err := b.defineTypes(cu); err != nil {
		return nil, err
	}
	if err := b.defineInterfaces(cu); err != nil {
		return nil, err
	}
	if err := b.defineFunctionBlocks(cu); err != nil {
		return nil, err
	}
	if err := b.defineGlobals(cu); err != nil {
		return nil, err
	}
	if err := b.defineFunctions(cu); err != nil {
		return nil, err
	}
	if err := b.definePrograms(cu); err != nil {
		return nil, err
	}
	return b.unit, nil
}

// --- Pass 1: type definitions --------------------------------------------

func (b *Builder) defineTypes(cu *ast.CompilationUnit) error {
	for _, decl := range cu.Types {
		switch d := decl.(type) {
		case *ast.StructDecl:
			if err := b.defineStruct(d); err != nil {
				return err
			}
		case *ast.EnumDecl:
			if err := b.defineEnum(d); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Builder) defineStruct(d *ast.StructDecl) error {
	name := lower(d.Name.Value)
	if _, exists := b.unit.Structs[name]; exists {
		return b.errf(d.Position, "duplicate type %q", d.Name.Value)
	}
	members := make([]*Member, 0, len(d.Members))
	byName := make(map[string]*Member, len(d.Members))
	offset := 0
	for _, vd := range d.Members {
		typ, err := b.resolveType(vd.Type)
		if err != nil {
			return err
		}
		if _, dup := byName[lower(vd.Name.Value)]; dup {
			return b.errf(vd.Position, "duplicate member %q in struct %s", vd.Name.Value, d.Name.Value)
		}
		offset = align(offset, typ.Size())
		m := &Member{Name: vd.Name.Value, Offset: offset, Size: typ.Size(), Type: typ}
		offset += typ.Size()
		members = append(members, m)
		byName[lower(vd.Name.Value)] = m
	}
	st := &StructType{Name: d.Name.Value, Members: members, ByName: byName, size: offset}
	b.unit.Structs[name] = st
	return nil
}

func (b *Builder) defineEnum(d *ast.EnumDecl) error {
	name := lower(d.Name.Value)
	if _, exists := b.unit.Enums[name]; exists {
		return b.errf(d.Position, "duplicate type %q", d.Name.Value)
	}
	byName := make(map[string]int, len(d.Values))
	for _, v := range d.Values {
		key := lower(v.Name.Value)
		if _, dup := byName[key]; dup {
			return b.errf(d.Position, "duplicate enum value %q in %s", v.Name.Value, d.Name.Value)
		}
		byName[key] = v.Value
		// Each enum value becomes a global constant symbol, so it is a
		// valid primary expression wherever a plain identifier is.
		b.unit.Globals.Define(&Symbol{
			Name:    v.Name.Value,
			Type:    types.Dint,
			Section: ast.SectionConstant,
			Init:    &ast.IntegerLiteral{Value: int64(v.Value), Position: d.Position},
		})
	}
	b.unit.Enums[name] = &EnumType{Name: d.Name.Value, Values: d.Values, ByName: byName}
	return nil
}

// --- Pass 2: interfaces ----------------------------------------------------

func (b *Builder) defineInterfaces(cu *ast.CompilationUnit) error {
	for _, d := range cu.Interfaces {
		if _, exists := b.unit.Interfaces[lower(d.Name.Value)]; exists {
			return b.errf(d.Position, "duplicate interface %q", d.Name.Value)
		}
		// Placeholder entries first so base lookups (potentially
		// forward-referenced) can resolve a name that appears later in
		// the source in a single pass over the list.
		b.unit.Interfaces[lower(d.Name.Value)] = &InterfaceType{Name: d.Name.Value, Methods: map[string]*InterfaceMethodSig{}}
	}
	for _, d := range cu.Interfaces {
		iface := b.unit.Interfaces[lower(d.Name.Value)]
		for _, base := range d.Bases {
			baseIface, ok := b.unit.Interfaces[lower(base.Value)]
			if !ok {
				return b.errf(d.Position, "interface %s extends unknown interface %s", d.Name.Value, base.Value)
			}
			for k, sig := range baseIface.Methods {
				iface.Methods[k] = sig
			}
		}
		for _, m := range d.Methods {
			sig, err := b.buildInterfaceSig(m)
			if err != nil {
				return err
			}
			iface.Methods[lower(m.Name.Value)] = sig
		}
	}
	return nil
}

func (b *Builder) buildInterfaceSig(m *ast.InterfaceMethodSig) (*InterfaceMethodSig, error) {
	var ret types.Type
	var err error
	if m.ReturnType != nil {
		ret, err = b.resolveType(m.ReturnType)
		if err != nil {
			return nil, err
		}
	}
	inputs, err := b.buildParams(m.Inputs)
	if err != nil {
		return nil, err
	}
	outputs, err := b.buildParams(m.Outputs)
	if err != nil {
		return nil, err
	}
	return &InterfaceMethodSig{Name: m.Name.Value, ReturnType: ret, Inputs: inputs, Outputs: outputs}, nil
}

func (b *Builder) buildParams(params []*ast.Parameter) ([]*Parameter, error) {
	out := make([]*Parameter, 0, len(params))
	for _, p := range params {
		typ, err := b.resolveType(p.Type)
		if err != nil {
			return nil, err
		}
		out = append(out, &Parameter{Name: p.Name.Value, Type: typ})
	}
	return out, nil
}

// --- Pass 3: function blocks -----------------------------------------------

func (b *Builder) defineFunctionBlocks(cu *ast.CompilationUnit) error {
	byName := make(map[string]*ast.FunctionBlockDecl, len(cu.FunctionBlocks))
	for _, fb := range cu.FunctionBlocks {
		key := lower(fb.Name.Value)
		if _, dup := byName[key]; dup {
			return b.errf(fb.Position, "duplicate function block %q", fb.Name.Value)
		}
		byName[key] = fb
	}
	state := make(map[string]int) // 0 unvisited, 1 in-progress, 2 done
	var visit func(name string) error
	visit = func(name string) error {
		key := lower(name)
		switch state[key] {
		case 2:
			return nil
		case 1:
			return b.errf(byName[key].Position, "cyclic FUNCTION_BLOCK inheritance involving %s", name)
		}
		decl, ok := byName[key]
		if !ok {
			return fmt.Errorf("function block %s not found", name)
		}
		state[key] = 1
		var base *FunctionBlockType
		if decl.Extends != nil {
			baseKey := lower(decl.Extends.Value)
			if _, exists := byName[baseKey]; !exists {
				return b.errf(decl.Position, "function block %s extends unknown base %s", decl.Name.Value, decl.Extends.Value)
			}
			if err := visit(decl.Extends.Value); err != nil {
				return err
			}
			base = b.unit.FunctionBlocks[baseKey]
		}
		fbType, err := b.buildFunctionBlock(decl, base)
		if err != nil {
			return err
		}
		b.unit.FunctionBlocks[key] = fbType
		state[key] = 2
		return nil
	}
	for _, fb := range cu.FunctionBlocks {
		if err := visit(fb.Name.Value); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) buildFunctionBlock(d *ast.FunctionBlockDecl, base *FunctionBlockType) (*FunctionBlockType, error) {
	var members []*Member
	byName := make(map[string]*Member)
	methods := make(map[string]*MethodInfo)
	offset := 0
	if base != nil {
		// Inherited members occupy the prefix of the instance at their
		// base-assigned offsets, unchanged.
		members = append(members, base.Members...)
		for k, m := range base.ByName {
			byName[k] = m
		}
		for k, mi := range base.Methods {
			methods[k] = mi
		}
		offset = base.size
	}
	for _, vb := range d.VarBlocks {
		for _, vd := range vb.Decls {
			typ, err := b.resolveType(vd.Type)
			if err != nil {
				return nil, err
			}
			key := lower(vd.Name.Value)
			if _, dup := byName[key]; dup {
				return nil, b.errf(vd.Position, "duplicate member %q in function block %s", vd.Name.Value, d.Name.Value)
			}
			offset = align(offset, typ.Size())
			m := &Member{Name: vd.Name.Value, Offset: offset, Size: typ.Size(), Type: typ}
			offset += typ.Size()
			members = append(members, m)
			byName[key] = m
		}
	}

	var implements []*InterfaceType
	for _, ifaceName := range d.Implements {
		iface, ok := b.unit.Interfaces[lower(ifaceName.Value)]
		if !ok {
			return nil, b.errf(d.Position, "function block %s implements unknown interface %s", d.Name.Value, ifaceName.Value)
		}
		implements = append(implements, iface)
	}

	for _, md := range d.Methods {
		info, err := b.buildMethod(d.Name.Value, md)
		if err != nil {
			return nil, err
		}
		key := lower(md.Name.Value)
		if baseMethod, shadowing := methods[key]; shadowing {
			if !md.IsOverride {
				return nil, b.errf(md.Position, "method %s.%s hides base method without OVERRIDE", d.Name.Value, md.Name.Value)
			}
			if baseMethod.IsFinal {
				return nil, b.errf(md.Position, "method %s.%s overrides FINAL base method", d.Name.Value, md.Name.Value)
			}
			if err := matchSignature(baseMethod, info); err != nil {
				return nil, b.errf(md.Position, "method %s.%s: %s", d.Name.Value, md.Name.Value, err)
			}
		} else if md.IsOverride {
			return nil, b.errf(md.Position, "method %s.%s marked OVERRIDE but no base method %s exists", d.Name.Value, md.Name.Value, md.Name.Value)
		}
		methods[key] = info
	}

	fbType := &FunctionBlockType{
		Name:       d.Name.Value,
		Base:       base,
		Implements: implements,
		Members:    members,
		ByName:     byName,
		Methods:    methods,
		size:       offset,
	}

	for _, iface := range implements {
		if err := checkConformance(fbType, iface); err != nil {
			return nil, b.errf(d.Position, "function block %s does not implement interface %s: %s", d.Name.Value, iface.Name, err)
		}
	}

	return fbType, nil
}

func (b *Builder) buildMethod(fbName string, md *ast.MethodDecl) (*MethodInfo, error) {
	var ret types.Type
	var err error
	if md.ReturnType != nil {
		ret, err = b.resolveType(md.ReturnType)
		if err != nil {
			return nil, err
		}
	}
	mangle := func(vd *ast.VarDecl) (*Parameter, error) {
		typ, err := b.resolveType(vd.Type)
		if err != nil {
			return nil, err
		}
		b.unit.workCursor = align(b.unit.workCursor, typ.Size())
		addr := b.opts.WorkBase + b.unit.workCursor
		b.unit.workCursor += typ.Size()
		return &Parameter{
			Name:        vd.Name.Value,
			MangledName: MangleMethodVar(fbName, md.Name.Value, vd.Name.Value),
			Type:        typ,
			Address:     addr,
		}, nil
	}
	build := func(decls []*ast.VarDecl) ([]*Parameter, error) {
		out := make([]*Parameter, 0, len(decls))
		for _, vd := range decls {
			p, err := mangle(vd)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		return out, nil
	}
	inputs, err := build(md.Inputs())
	if err != nil {
		return nil, err
	}
	outputs, err := build(md.Outputs())
	if err != nil {
		return nil, err
	}
	locals, err := build(md.Locals())
	if err != nil {
		return nil, err
	}
	var returnAddr int
	if ret != nil {
		b.unit.workCursor = align(b.unit.workCursor, ret.Size())
		returnAddr = b.opts.WorkBase + b.unit.workCursor
		b.unit.workCursor += ret.Size()
	}
	return &MethodInfo{
		Name:       md.Name.Value,
		Decl:       md,
		OwnerFB:    fbName,
		ReturnType: ret,
		Inputs:     inputs,
		Outputs:    outputs,
		Locals:     locals,
		IsAbstract: md.IsAbstract,
		IsFinal:    md.IsFinal,
		Visibility: md.Visibility,
		ReturnAddr: returnAddr,
	}, nil
}

func matchSignature(base, derived *MethodInfo) error {
	if !typeEqual(base.ReturnType, derived.ReturnType) {
		return fmt.Errorf("return type does not match base")
	}
	if err := matchParams("input", base.Inputs, derived.Inputs); err != nil {
		return err
	}
	return matchParams("output", base.Outputs, derived.Outputs)
}

func matchParams(kind string, base, derived []*Parameter) error {
	if len(base) != len(derived) {
		return fmt.Errorf("%s arity does not match base", kind)
	}
	for i := range base {
		if !strings.EqualFold(base[i].Name, derived[i].Name) {
			return fmt.Errorf("%s %d name does not match base", kind, i)
		}
		if !typeEqual(base[i].Type, derived[i].Type) {
			return fmt.Errorf("%s %s type does not match base", kind, base[i].Name)
		}
	}
	return nil
}

func checkConformance(fb *FunctionBlockType, iface *InterfaceType) error {
	for name, sig := range iface.Methods {
		m, ok := fb.Methods[name]
		if !ok {
			return fmt.Errorf("missing method %s", sig.Name)
		}
		if !typeEqual(sig.ReturnType, m.ReturnType) {
			return fmt.Errorf("method %s return type mismatch", sig.Name)
		}
		if len(sig.Inputs) != len(m.Inputs) || len(sig.Outputs) != len(m.Outputs) {
			return fmt.Errorf("method %s arity mismatch", sig.Name)
		}
		for i := range sig.Inputs {
			if !strings.EqualFold(sig.Inputs[i].Name, m.Inputs[i].Name) || !typeEqual(sig.Inputs[i].Type, m.Inputs[i].Type) {
				return fmt.Errorf("method %s input %d mismatch", sig.Name, i)
			}
		}
		for i := range sig.Outputs {
			if !strings.EqualFold(sig.Outputs[i].Name, m.Outputs[i].Name) || !typeEqual(sig.Outputs[i].Type, m.Outputs[i].Type) {
				return fmt.Errorf("method %s output %d mismatch", sig.Name, i)
			}
		}
	}
	return nil
}

func typeEqual(a, b types.Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}

// --- Pass 4: globals --------------------------------------------------------

func (b *Builder) defineGlobals(cu *ast.CompilationUnit) error {
	for _, vb := range cu.Globals {
		section := vb.Section
		if section == ast.SectionVar {
			section = ast.SectionGlobal
		}
		for _, vd := range vb.Decls {
			if err := b.defineVariable(b.unit.Globals, vd, section); err != nil {
				return err
			}
		}
	}
	return nil
}

// defineVariable resolves vd's type and places it: at its I/O binding's
// address if AT-bound, otherwise the next free, aligned slot in the work
// (or retain, if Retain is set) region.
func (b *Builder) defineVariable(table *Table, vd *ast.VarDecl, section ast.Section) error {
	if table.IsDeclaredHere(vd.Name.Value) {
		return b.errf(vd.Position, "duplicate symbol %q", vd.Name.Value)
	}
	typ, err := b.resolveType(vd.Type)
	if err != nil {
		return err
	}
	sym := &Symbol{
		Name:    vd.Name.Value,
		Type:    typ,
		Size:    typ.Size(),
		Section: section,
		Init:    vd.Init,
		Retain:  vd.Retain,
	}
	if st, ok := typ.(*StructType); ok {
		sym.Members = st.ByName
	} else if fb, ok := typ.(*FunctionBlockType); ok {
		sym.Members = fb.ByName
	} else if sb, ok := typ.(*StdlibBlockType); ok {
		sym.Members = sb.ByName
	}
	if vd.IOAddress != "" {
		io, err := ParseIOAddress(vd.IOAddress)
		if err != nil {
			return b.errf(vd.Position, "%s", err)
		}
		sym.IOAddress = vd.IOAddress
		sym.Region = io.Region
		sym.Address = RegionBase(io.Region) + io.Offset
		sym.Bit = io.Bit
		sym.HasBit = io.HasBit
	} else if vd.Retain {
		sym.Region = RegionRetain
		b.unit.retainCursor = align(b.unit.retainCursor, typ.Size())
		sym.Address = DefaultRetainBase + b.unit.retainCursor
		b.unit.retainCursor += typ.Size()
	} else {
		sym.Region = RegionWork
		b.unit.workCursor = align(b.unit.workCursor, typ.Size())
		sym.Address = b.opts.WorkBase + b.unit.workCursor
		b.unit.workCursor += typ.Size()
	}
	table.Define(sym)
	return nil
}

// --- Pass 5: functions -------------------------------------------------------

func (b *Builder) defineFunctions(cu *ast.CompilationUnit) error {
	for _, fn := range cu.Functions {
		if _, exists := b.unit.Functions[lower(fn.Name.Value)]; exists {
			return b.errf(fn.Position, "duplicate function %q", fn.Name.Value)
		}
		retType, err := b.resolveType(fn.ReturnType)
		if err != nil {
			return err
		}
		table := NewEnclosedTable(b.unit.Globals)
		for _, vb := range fn.VarBlocks {
			for _, vd := range vb.Decls {
				if err := b.defineVariable(table, vd, vb.Section); err != nil {
					return err
				}
			}
		}
		retVar := &Symbol{Name: fn.Name.Value, Type: retType, Size: retType.Size(), Section: ast.SectionVar}
		b.unit.workCursor = align(b.unit.workCursor, retType.Size())
		retVar.Region = RegionWork
		retVar.Address = b.opts.WorkBase + b.unit.workCursor
		b.unit.workCursor += retType.Size()
		table.Define(retVar)

		b.unit.Functions[lower(fn.Name.Value)] = &FunctionInfo{
			Name:       fn.Name.Value,
			Decl:       fn,
			ReturnType: retType,
			ReturnVar:  retVar,
			Table:      table,
		}
	}
	return nil
}

// --- Pass 6: programs ---------------------------------------------------------

func (b *Builder) definePrograms(cu *ast.CompilationUnit) error {
	for _, p := range cu.Programs {
		if _, exists := b.unit.Programs[lower(p.Name.Value)]; exists {
			return b.errf(p.Position, "duplicate program %q", p.Name.Value)
		}
		table := NewEnclosedTable(b.unit.Globals)
		for _, vb := range p.VarBlocks {
			for _, vd := range vb.Decls {
				if err := b.defineVariable(table, vd, vb.Section); err != nil {
					return err
				}
			}
		}
		b.unit.Programs[lower(p.Name.Value)] = &ProgramInfo{Name: p.Name.Value, Decl: p, Table: table}
	}
	return nil
}

// --- Type resolution ----------------------------------------------------------

var elementaryByASTKind = map[ast.ElementaryKind]types.ElementaryKind{
	ast.BOOL: types.BOOL, ast.SINT: types.SINT, ast.USINT: types.USINT,
	ast.INT: types.INT, ast.UINT: types.UINT, ast.DINT: types.DINT, ast.UDINT: types.UDINT,
	ast.LINT: types.LINT, ast.ULINT: types.ULINT, ast.REAL: types.REAL, ast.LREAL: types.LREAL,
	ast.TIME: types.TIME, ast.DATE: types.DATE, ast.TOD: types.TOD, ast.DT: types.DT,
}

// resolveType turns a parsed type annotation into a concrete types.Type,
// looking up named types against structs, function blocks, enums,
// interfaces, and (if configured) the stdlib catalog, in that order.
func (b *Builder) resolveType(ta *ast.TypeAnnotation) (types.Type, error) {
	switch ta.Kind {
	case ast.TypeElementary:
		switch ta.Elementary {
		case ast.STRING:
			return types.NewStringType(false), nil
		case ast.WSTRING:
			return types.NewStringType(true), nil
		default:
			kind, ok := elementaryByASTKind[ta.Elementary]
			if !ok {
				return nil, b.errf(ta.Position, "unsupported elementary type")
			}
			return types.ByKind(kind), nil
		}
	case ast.TypeArray:
		elem, err := b.resolveType(ta.ElementType)
		if err != nil {
			return nil, err
		}
		dims := make([]types.Dimension, len(ta.Dimensions))
		for i, d := range ta.Dimensions {
			dims[i] = types.Dimension{Lower: d.Lower, Upper: d.Upper}
		}
		arr, err := types.NewArrayType(elem, dims)
		if err != nil {
			return nil, b.errf(ta.Position, "%s", err)
		}
		return arr, nil
	case ast.TypePointer:
		base, err := b.resolveType(ta.Base)
		if err != nil {
			return nil, err
		}
		return &types.PointerType{Base: base}, nil
	case ast.TypeNamed:
		name := lower(ta.Name)
		if st, ok := b.unit.Structs[name]; ok {
			return st, nil
		}
		if fb, ok := b.unit.FunctionBlocks[name]; ok {
			return fb, nil
		}
		if en, ok := b.unit.Enums[name]; ok {
			return en, nil
		}
		if iface, ok := b.unit.Interfaces[name]; ok {
			return iface, nil
		}
		if b.opts.Catalog != nil {
			if blk, ok := b.opts.Catalog.LookupBlock(ta.Name); ok {
				return blk, nil
			}
		}
		return nil, b.errf(ta.Position, "unknown type %q", ta.Name)
	}
	return nil, b.errf(ta.Position, "unrecognized type annotation")
}
