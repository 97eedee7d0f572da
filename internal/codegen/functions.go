package codegen

import (
	"sort"

	"github.com/eduardojvieira/stc/internal/ast"
	"github.com/eduardojvieira/stc/internal/cerrors"
	"github.com/eduardojvieira/stc/internal/stdlib"
	"github.com/eduardojvieira/stc/internal/symbols"
	"github.com/eduardojvieira/stc/internal/types"
)

// functionLabel names the CALL target for a user FUNCTION, per spec.md
// §4.6 item 3: a function call pushes arguments left-to-right, the
// callee pops them in reverse into its local storage, and the whole
// thing is an ordinary CALL/RET pair (adapted from db47h-ngaro's
// implicit-call idiom into an explicit mnemonic, since this VM's calls
// are never implicit).
func functionLabel(name string) string { return "_fn_" + lower(name) }

func inputDecls(fn *ast.FunctionDecl) []*ast.VarDecl {
	var out []*ast.VarDecl
	for _, vb := range fn.VarBlocks {
		if vb.Section == ast.SectionInput {
			out = append(out, vb.Decls...)
		}
	}
	return out
}

// compileFunction emits one user FUNCTION as a CALL-targetable label:
// pop its inputs (pushed left-to-right by the caller, so popped here in
// reverse), run its body, then push the return pseudo-variable and RET.
func (g *Generator) compileFunction(fn *ast.FunctionDecl) error {
	info, ok := g.unit.Functions[lower(fn.Name.Value)]
	if !ok {
		return g.errf(fn.Position, "function %s has no laid-out symbol table", fn.Name.Value)
	}

	savedTable, savedFn, savedMethod, savedFB := g.table, g.fn, g.method, g.fbInstance
	savedExit := g.fnExitLabel
	g.table, g.fn, g.method, g.fbInstance = info.Table, info, nil, nil
	exit := g.NewLabel("fn_exit")
	g.fnExitLabel = exit
	defer func() {
		g.table, g.fn, g.method, g.fbInstance = savedTable, savedFn, savedMethod, savedFB
		g.fnExitLabel = savedExit
	}()

	g.Label(functionLabel(fn.Name.Value))
	g.lastSourceLine = -1

	inputs := inputDecls(fn)
	for i := len(inputs) - 1; i >= 0; i-- {
		sym, ok := info.Table.Resolve(inputs[i].Name.Value)
		if !ok {
			return g.errf(inputs[i].Position, "input %s missing from function table", inputs[i].Name.Value)
		}
		g.Instr(sizeOp(sym.Size, true), itoa(sym.Address))
	}

	for _, stmt := range fn.Body {
		if err := g.compileStatement(stmt); err != nil {
			return err
		}
	}

	g.Label(exit)
	if info.ReturnVar != nil {
		g.Instr(sizeOp(info.ReturnVar.Size, false), itoa(info.ReturnVar.Address))
	}
	g.Instr("RET")
	return nil
}

// --- init guard / variable initializers / string pool -----------------

// emitInitGuard emits the one-time initialization section spec.md §4.6
// item 4 describes: a single-byte flag gates re-running variable
// initializers and the string pool's data after the first cycle.
func (g *Generator) emitInitGuard(prog *symbols.ProgramInfo) error {
	skip := g.NewLabel("already_initialized")
	g.Instr(sizeOp(1, false), itoa(g.initFlagAddr))
	g.Instr("JNZ", skip)

	if err := g.emitVarInits(prog); err != nil {
		return err
	}
	if err := g.emitStringPoolInit(); err != nil {
		return err
	}

	g.Instr("PUSH", "1")
	g.Instr(sizeOp(1, true), itoa(g.initFlagAddr))
	g.Label(skip)
	return nil
}

// emitVarInits stores every symbol's initial-value expression once.
// prog.Table.All() already merges the enclosing Globals table, so a
// single pass covers both globals and program locals without double-
// initializing a global through two different tables. Enum constants
// (SectionConstant) have no allocated storage and are skipped.
func (g *Generator) emitVarInits(prog *symbols.ProgramInfo) error {
	all := prog.Table.All()
	names := make([]string, 0, len(all))
	for k := range all {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		sym := all[k]
		if sym.Section == ast.SectionConstant || sym.Init == nil {
			continue
		}
		if err := g.compileExpr(sym.Init); err != nil {
			return err
		}
		g.Instr(sizeOp(sym.Size, true), itoa(sym.Address))
	}
	return nil
}

// emitStringPoolInit writes every pool entry's [len][cap][bytes...]
// header. Pool entries are tight-fit (freeze sizes them to their own
// content), so len and cap are always equal.
func (g *Generator) emitStringPoolInit() error {
	for _, e := range g.pool.entries() {
		charSize := 1
		if e.wide {
			charSize = 2
		}
		length := len(e.content)

		g.Comment("string literal %q", e.content)
		g.Instr("PUSH", itoa(length))
		g.Instr(sizeOp(2, true), itoa(e.addr))
		g.Instr("PUSH", itoa(length))
		g.Instr(sizeOp(2, true), itoa(e.addr+2))
		for i := 0; i < length; i++ {
			g.Instr("PUSH", itoa(int(e.content[i])))
			g.Instr(sizeOp(charSize, true), itoa(e.addr+stringHeaderBytes+i*charSize))
		}
	}
	return nil
}

// --- pre-pass string-literal collection --------------------------------

// collectStringsUnit walks every reachable declaration initializer and
// statement/expression in the compilation unit, registering every
// STRING/WSTRING literal with the pool before any code is emitted. This
// must run to completion before compileExpr touches a *ast.StringLiteral,
// since stringPool.intern panics on a cache miss.
func (g *Generator) collectStringsUnit() {
	for _, vb := range g.cu.Globals {
		g.collectVarBlockInits(vb)
	}
	for _, fn := range g.cu.Functions {
		for _, vb := range fn.VarBlocks {
			g.collectVarBlockInits(vb)
		}
		g.collectStatements(fn.Body)
	}
	for _, fb := range g.cu.FunctionBlocks {
		for _, vb := range fb.VarBlocks {
			g.collectVarBlockInits(vb)
		}
		g.collectStatements(fb.Body)
		for _, m := range fb.Methods {
			for _, vb := range m.VarBlocks {
				g.collectVarBlockInits(vb)
			}
			g.collectStatements(m.Body)
		}
	}
	for _, p := range g.cu.Programs {
		for _, vb := range p.VarBlocks {
			g.collectVarBlockInits(vb)
		}
		g.collectStatements(p.Body)
	}
}

func (g *Generator) collectVarBlockInits(vb *ast.VarBlock) {
	for _, d := range vb.Decls {
		if d.Init != nil {
			g.collectExpr(d.Init)
		}
	}
}

func (g *Generator) collectStatements(stmts []ast.Statement) {
	for _, s := range stmts {
		g.collectStatement(s)
	}
}

func (g *Generator) collectStatement(s ast.Statement) {
	switch st := s.(type) {
	case *ast.AssignStatement:
		g.collectExpr(st.Target)
		g.collectExpr(st.Value)
	case *ast.IfStatement:
		for _, br := range st.Branches {
			g.collectExpr(br.Condition)
			g.collectStatements(br.Body)
		}
		g.collectStatements(st.Else)
	case *ast.WhileStatement:
		g.collectExpr(st.Condition)
		g.collectStatements(st.Body)
	case *ast.ForStatement:
		g.collectExpr(st.Start)
		g.collectExpr(st.End)
		if st.Step != nil {
			g.collectExpr(st.Step)
		}
		g.collectStatements(st.Body)
	case *ast.RepeatStatement:
		g.collectStatements(st.Body)
		g.collectExpr(st.Condition)
	case *ast.CaseStatement:
		g.collectExpr(st.Selector)
		for _, br := range st.Branches {
			for _, v := range br.Values {
				if v.IsRange() {
					g.collectExpr(v.RangeLow)
					g.collectExpr(v.RangeHi)
				} else {
					g.collectExpr(v.Single)
				}
			}
			g.collectStatements(br.Body)
		}
		g.collectStatements(st.Else)
	case *ast.CallStatement:
		for _, a := range st.Args {
			g.collectExpr(a)
		}
		for _, na := range st.Named {
			g.collectExpr(na.Value)
		}
	case *ast.ExpressionStatement:
		g.collectExpr(st.Expr)
	}
}

func (g *Generator) collectExpr(e ast.Expression) {
	if e == nil {
		return
	}
	switch ex := e.(type) {
	case *ast.StringLiteral:
		g.pool.collect(ex.Value, ex.Wide)
	case *ast.UnaryExpression:
		g.collectExpr(ex.Operand)
	case *ast.BinaryExpression:
		g.collectExpr(ex.Left)
		g.collectExpr(ex.Right)
	case *ast.RefExpression:
		g.collectExpr(ex.Target)
	case *ast.MemberAccessExpression:
		g.collectExpr(ex.Object)
	case *ast.ArrayAccessExpression:
		g.collectExpr(ex.Object)
		for _, idx := range ex.Indices {
			g.collectExpr(idx)
		}
	case *ast.DerefExpression:
		g.collectExpr(ex.Target)
	case *ast.CallExpression:
		for _, a := range ex.Args {
			g.collectExpr(a)
		}
		for _, na := range ex.Named {
			g.collectExpr(na.Value)
		}
	case *ast.MethodCallExpression:
		g.collectExpr(ex.Object)
		for _, a := range ex.Args {
			g.collectExpr(a)
		}
		for _, na := range ex.Named {
			g.collectExpr(na.Value)
		}
	}
}

// --- calls / invocations ------------------------------------------------

// compileCallExpr dispatches a CallExpression to the stdlib catalog's
// stateless-function templates or to a user FUNCTION's CALL, in that
// order (a user FUNCTION can't share a name with a stdlib function,
// enforced during symbol-table construction, but the catalog is checked
// first since it never needs g.unit.Functions to be populated).
func (g *Generator) compileCallExpr(e *ast.CallExpression) error {
	name := e.Callee.Value
	if ft, ok := g.catalog.LookupFunction(name); ok {
		return g.expandStdlibFunction(ft, name, e)
	}
	if fn, ok := g.fnDecls[lower(name)]; ok {
		return g.compileUserCall(fn, e.Args, e.Named, e.Position)
	}
	return g.errf(e.Position, "call to undefined function %q", name)
}

func (g *Generator) expandStdlibFunction(ft *symbols.StdlibFunctionType, name string, e *ast.CallExpression) error {
	args := make(map[string]ast.Expression, len(e.Args)+len(e.Named))
	if ft.Variadic {
		for i, a := range e.Args {
			args[variadicParamName(i+1)] = a
		}
	} else {
		if len(e.Args) > len(ft.ParamNames) {
			return g.errf(e.Position, "%s expects at most %d arguments, got %d", name, len(ft.ParamNames), len(e.Args))
		}
		for i, a := range e.Args {
			args[ft.ParamNames[i]] = a
		}
	}
	byLower := make(map[string]string, len(ft.ParamNames))
	for _, p := range ft.ParamNames {
		byLower[lower(p)] = p
	}
	for _, na := range e.Named {
		canon, ok := byLower[lower(na.Name.Value)]
		if !ok {
			return g.errf(e.Position, "%s has no argument named %s", name, na.Name.Value)
		}
		args[canon] = na.Value
	}

	cap := &stdlib.Capability{Instance: name, Sink: g, Labels: g, Expr: g, Args: args}
	return g.catalog.ExpandFunction(name, cap)
}

func variadicParamName(i int) string {
	return "IN" + itoa(i)
}

// compileUserCall pushes arguments in the function's declared input
// order (whether the call site used positional or named arguments),
// then CALLs the function's label.
func (g *Generator) compileUserCall(fn *ast.FunctionDecl, args []ast.Expression, named []*ast.NamedArg, pos cerrors.Position) error {
	inputs := inputDecls(fn)
	if len(named) > 0 {
		if len(args) > 0 {
			return g.errf(pos, "call to %s mixes positional and named arguments", fn.Name.Value)
		}
		byName := make(map[string]ast.Expression, len(named))
		for _, na := range named {
			byName[lower(na.Name.Value)] = na.Value
		}
		for _, in := range inputs {
			expr, ok := byName[lower(in.Name.Value)]
			if !ok {
				return g.errf(pos, "missing required argument %s to %s", in.Name.Value, fn.Name.Value)
			}
			if err := g.compileExpr(expr); err != nil {
				return err
			}
		}
	} else {
		if len(args) != len(inputs) {
			return g.errf(pos, "%s expects %d arguments, got %d", fn.Name.Value, len(inputs), len(args))
		}
		for _, a := range args {
			if err := g.compileExpr(a); err != nil {
				return err
			}
		}
	}
	g.Instr("CALL", functionLabel(fn.Name.Value))
	return nil
}

func (g *Generator) callReturnType(e *ast.CallExpression) (types.Type, error) {
	name := e.Callee.Value
	if ft, ok := g.catalog.LookupFunction(name); ok {
		return ft.ReturnType, nil
	}
	if fn, ok := g.fnDecls[lower(name)]; ok {
		info, ok := g.unit.Functions[lower(fn.Name.Value)]
		if !ok {
			return nil, g.errf(e.Position, "function %s has no laid-out symbol table", name)
		}
		return info.ReturnType, nil
	}
	return nil, g.errf(e.Position, "call to undefined function %q", name)
}

// compileCallStatement lowers a stateful function-block instance's
// invocation: only named arguments are accepted (spec.md §4.6), stored
// to the instance's member addresses, then either a stdlib template or
// a user FB's own default body is run.
func (g *Generator) compileCallStatement(s *ast.CallStatement) error {
	if len(s.Args) > 0 {
		return g.errf(s.Position, "function block invocation %s must use named arguments", s.Instance.Value)
	}
	sym, err := g.resolveRoot(s.Instance.Value, s.Position)
	if err != nil {
		return err
	}

	switch bt := sym.Type.(type) {
	case *symbols.StdlibBlockType:
		return g.expandStdlibBlock(bt, sym, s.Named, s.Position)
	case *symbols.FunctionBlockType:
		return g.compileFBInvocation(bt, sym, s.Named, s.Position)
	default:
		return g.errf(s.Position, "%s is not a function block instance", s.Instance.Value)
	}
}

func (g *Generator) expandStdlibBlock(bt *symbols.StdlibBlockType, sym *symbols.Symbol, named []*ast.NamedArg, pos cerrors.Position) error {
	args := make(map[string]ast.Expression, len(named))
	for _, na := range named {
		m, ok := bt.ByName[lower(na.Name.Value)]
		if !ok {
			return g.errf(pos, "%s has no input named %s", bt.Name, na.Name.Value)
		}
		args[m.Name] = na.Value
	}
	cap := &stdlib.Capability{Base: sym.Address, Instance: sym.Name, Sink: g, Labels: g, Expr: g, Args: args}
	return g.catalog.ExpandBlock(bt.Name, cap)
}

// compileFBInvocation stores each named input to the instance's member
// address, then inlines the FB's own default body with current_fb_
// instance bound, per spec.md §4.6. Unqualified identifiers inside the
// body resolve against that instance's members first, then globals:
// the caller's own locals are deliberately not in scope, so g.table is
// switched to the unit's globals for the duration of the inlined body.
func (g *Generator) compileFBInvocation(bt *symbols.FunctionBlockType, sym *symbols.Symbol, named []*ast.NamedArg, pos cerrors.Position) error {
	for _, na := range named {
		m, ok := bt.ByName[lower(na.Name.Value)]
		if !ok {
			return g.errf(pos, "%s has no member named %s", bt.Name, na.Name.Value)
		}
		if err := g.compileExpr(na.Value); err != nil {
			return err
		}
		g.Instr(sizeOp(m.Size, true), itoa(m.AbsoluteAddress(sym.Address)))
	}

	decl, ok := g.fbDecls[lower(bt.Name)]
	if !ok {
		return g.errf(pos, "function block %s has no declaration", bt.Name)
	}

	savedTable, savedFn, savedMethod, savedFB := g.table, g.fn, g.method, g.fbInstance
	g.table, g.fn, g.method, g.fbInstance = g.unit.Globals, nil, nil, sym
	defer func() {
		g.table, g.fn, g.method, g.fbInstance = savedTable, savedFn, savedMethod, savedFB
	}()

	for _, stmt := range decl.Body {
		if err := g.compileStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

// compileMethodCallExpr resolves the receiver's address via emitAddress
// (so a member- or array-accessed instance works, not only a bare
// identifier), then inlines the method.
func (g *Generator) compileMethodCallExpr(e *ast.MethodCallExpression) error {
	lv, err := g.emitAddress(e.Object)
	if err != nil {
		return err
	}
	if lv.indirect {
		return g.errf(e.Position, "method call target must be a directly addressed function block instance")
	}
	bt, ok := lv.typ.(*symbols.FunctionBlockType)
	if !ok {
		return g.errf(e.Position, "method call on non-function-block type %s", lv.typ.String())
	}
	mi := bt.ResolveMethod(e.Method.Value)
	if mi == nil {
		return g.errf(e.Position, "%s has no method %s", bt.Name, e.Method.Value)
	}
	return g.inlineMethod(bt, mi, lv.constAddr, e.Args, e.Named, e.Position)
}

func (g *Generator) methodReturnType(e *ast.MethodCallExpression) (types.Type, error) {
	objType, err := g.resolveExprType(e.Object)
	if err != nil {
		return nil, err
	}
	bt, ok := objType.(*symbols.FunctionBlockType)
	if !ok {
		return nil, g.errf(e.Position, "method call on non-function-block type %s", objType.String())
	}
	mi := bt.ResolveMethod(e.Method.Value)
	if mi == nil {
		return nil, g.errf(e.Position, "%s has no method %s", bt.Name, e.Method.Value)
	}
	if mi.ReturnType == nil {
		return nil, g.errf(e.Position, "method %s has no return value", mi.Name)
	}
	return mi.ReturnType, nil
}

func findMethodParam(params []*symbols.Parameter, name string) *symbols.Parameter {
	for _, p := range params {
		if lower(p.Name) == lower(name) {
			return p
		}
	}
	return nil
}

// inlineMethod binds argument expressions into the method's mangled
// input slots (positional or named, per spec.md §4.6's method-invocation
// rule), then emits the method body with current_method/current_fb_
// instance bound, and finally loads the return pseudo-variable so the
// caller finds it on top of stack. Locals are not re-initialized from
// their declared initial expressions on every call: a method has no
// per-call frame, so re-running its VAR initializers on each inlined
// invocation would stomp state a prior call already built up exactly as
// if it were a declared VAR of the instance, which is the whole point of
// allocating method locals in the instance's own work-region slots.
func (g *Generator) inlineMethod(bt *symbols.FunctionBlockType, mi *symbols.MethodInfo, instAddr int, args []ast.Expression, named []*ast.NamedArg, pos cerrors.Position) error {
	if len(named) > 0 {
		if len(args) > 0 {
			return g.errf(pos, "call to method %s mixes positional and named arguments", mi.Name)
		}
		for _, na := range named {
			p := findMethodParam(mi.Inputs, na.Name.Value)
			if p == nil {
				return g.errf(pos, "method %s has no input named %s", mi.Name, na.Name.Value)
			}
			if err := g.compileExpr(na.Value); err != nil {
				return err
			}
			g.Instr(sizeOp(p.Type.Size(), true), itoa(p.Address))
		}
	} else {
		if len(args) > len(mi.Inputs) {
			return g.errf(pos, "too many arguments to method %s", mi.Name)
		}
		for i, a := range args {
			if err := g.compileExpr(a); err != nil {
				return err
			}
			p := mi.Inputs[i]
			g.Instr(sizeOp(p.Type.Size(), true), itoa(p.Address))
		}
	}

	instSym := &symbols.Symbol{Name: bt.Name, Type: bt, Region: symbols.RegionWork, Address: instAddr, Size: bt.Size()}

	savedTable, savedFn, savedMethod, savedFB := g.table, g.fn, g.method, g.fbInstance
	savedExit := g.methodExitLabel
	g.table, g.fn = g.unit.Globals, nil
	g.method, g.fbInstance = mi, instSym
	exit := g.NewLabel("method_exit")
	g.methodExitLabel = exit
	defer func() {
		g.table, g.fn, g.method, g.fbInstance = savedTable, savedFn, savedMethod, savedFB
		g.methodExitLabel = savedExit
	}()

	for _, stmt := range mi.Decl.Body {
		if err := g.compileStatement(stmt); err != nil {
			return err
		}
	}
	g.Label(exit)
	if mi.ReturnType != nil {
		g.Instr(sizeOp(mi.ReturnType.Size(), false), itoa(mi.ReturnAddr))
	}
	return nil
}

// exprProducesValue reports whether a statement-level expression leaves
// a value on stack that compileExpressionStatement must DROP. A void
// method call leaves nothing; every other expression form legal in
// statement position (a stateless-function or user-function call) does.
func (g *Generator) exprProducesValue(expr ast.Expression) (bool, error) {
	mc, ok := expr.(*ast.MethodCallExpression)
	if !ok {
		return true, nil
	}
	objType, err := g.resolveExprType(mc.Object)
	if err != nil {
		return false, err
	}
	bt, ok := objType.(*symbols.FunctionBlockType)
	if !ok {
		return false, g.errf(mc.Position, "method call on non-function-block type %s", objType.String())
	}
	mi := bt.ResolveMethod(mc.Method.Value)
	if mi == nil {
		return false, g.errf(mc.Position, "%s has no method %s", bt.Name, mc.Method.Value)
	}
	return mi.ReturnType != nil, nil
}
