// Package codegen lowers a laid-out compilation unit (internal/symbols)
// into textual VM assembly: one PROGRAM per artifact, its statements and
// expressions lowered per the type-directed rules in spec.md §4.4/§4.6,
// user FUNCTION bodies compiled as real CALL/RET targets, and
// FUNCTION_BLOCK instance/method invocation always inlined at the call
// site, since neither carries a per-call stack frame.
package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/eduardojvieira/stc/internal/ast"
	"github.com/eduardojvieira/stc/internal/cerrors"
	"github.com/eduardojvieira/stc/internal/stdlib"
	"github.com/eduardojvieira/stc/internal/symbols"
	"github.com/eduardojvieira/stc/internal/types"
)

// loopContext is one entry of the loop-context stack: the labels EXIT and
// CONTINUE jump to, for the innermost enclosing WHILE/FOR/REPEAT.
type loopContext struct {
	continueLabel string
	exitLabel     string
}

// Generator lowers one compilation unit's laid-out symbols into textual
// assembly for a single named PROGRAM. Shared resources (label counter,
// string pool, loop-context stack) live only for the duration of one
// Generate call, matching spec.md's "all codegen state is owned by the
// top-level compile operation and destroyed on return" lifecycle note.
type Generator struct {
	unit    *symbols.Unit
	cu      *ast.CompilationUnit
	catalog *stdlib.Catalog
	source  string

	fbDecls map[string]*ast.FunctionBlockDecl
	fnDecls map[string]*ast.FunctionDecl

	out          strings.Builder
	labelCounter map[string]int
	loopStack    []*loopContext
	pool         *stringPool
	lastSourceLine int

	// Current compilation context. table is the innermost variable
	// scope (a program's or function's locals, enclosed in globals);
	// fbInstance and method are set only while compiling a method body
	// or a function-block instance's own Body, per the visibility
	// hierarchy in spec.md §4.3.
	table      *symbols.Table
	fbInstance *symbols.Symbol
	fn         *symbols.FunctionInfo
	method     *symbols.MethodInfo

	// fnExitLabel/methodExitLabel are where a RETURN statement jumps
	// while compiling a FUNCTION/METHOD body, per spec.md §4.6: RETURN
	// inside a function or method drops to its return path rather than
	// halting the whole cycle. Both are empty outside such a body.
	fnExitLabel     string
	methodExitLabel string

	// scratchCursor is a monotonically increasing work-region allocator
	// for codegen's own runtime temporaries (a FOR loop's saved end/step,
	// a string-equality comparison's saved operand addresses and index).
	// Every syntactic occurrence of
	// one of these constructs gets its own slot, allocated once at the
	// point code for it is emitted: since the allocation is keyed to
	// source position, not call depth, two overlapping slots can never
	// alias even when constructs nest (a FOR loop whose body contains a
	// string comparison, say), unlike a fixed shared scratch block would.
	scratchCursor int

	// initFlagAddr is the address of the single-byte flag _start checks
	// to run variable initializers and the string pool's data exactly
	// once, on the first cycle.
	initFlagAddr int

	// initFlagOverride, when >= 0, replaces the default placement for
	// initFlagAddr, per the init_flag_address compile option. -1 means
	// "use the default": WorkBase + WorkSize(), the first byte after the
	// unit's laid-out work variables, not the work region's last byte.
	// The string pool and scratch slots start right after the flag.
	initFlagOverride int

	// emitAnnotations gates annotateSource's `; @source <line>` output,
	// per the emit_source_annotations/generate_debug_map compile options:
	// both are satisfied by the same annotation stream, so the caller
	// turns this on whenever either is requested.
	emitAnnotations bool
}

// SetInitFlagAddr overrides the address of the init-guard flag byte; pass
// a negative value to restore the default (the first byte after the
// unit's laid-out work variables).
func (g *Generator) SetInitFlagAddr(addr int) { g.initFlagOverride = addr }

// SetAnnotateSource toggles `; @source <line>` emission ahead of every
// statement. Off by default.
func (g *Generator) SetAnnotateSource(on bool) { g.emitAnnotations = on }

// allocScratch hands out size bytes of scratch work memory never reused
// by any other call site, so two constructs that happen to be active at
// once (a FOR loop whose body contains a string comparison, say) never
// alias. Addresses are 4-byte aligned when size calls for it.
func (g *Generator) allocScratch(size int) int {
	if size > 1 {
		if rem := g.scratchCursor % 4; rem != 0 {
			g.scratchCursor += 4 - rem
		}
	}
	addr := g.scratchCursor
	g.scratchCursor += size
	return addr
}

// New creates a Generator over a laid-out unit and its originating AST.
// source is kept only to render source-annotated diagnostics.
func New(unit *symbols.Unit, cu *ast.CompilationUnit, catalog *stdlib.Catalog, source string) *Generator {
	fbDecls := make(map[string]*ast.FunctionBlockDecl, len(cu.FunctionBlocks))
	for _, fb := range cu.FunctionBlocks {
		fbDecls[strings.ToLower(fb.Name.Value)] = fb
	}
	fnDecls := make(map[string]*ast.FunctionDecl, len(cu.Functions))
	for _, fn := range cu.Functions {
		fnDecls[strings.ToLower(fn.Name.Value)] = fn
	}
	return &Generator{
		unit:         unit,
		cu:           cu,
		catalog:      catalog,
		source:       source,
		fbDecls:      fbDecls,
		fnDecls:      fnDecls,
		labelCounter:     make(map[string]int),
		pool:             newStringPool(),
		lastSourceLine:   -1,
		initFlagOverride: -1,
	}
}

func (g *Generator) errf(pos cerrors.Position, format string, args ...interface{}) error {
	return cerrors.New(cerrors.Codegen, pos, fmt.Sprintf(format, args...), g.source, "")
}

// Generate lowers the named PROGRAM into a complete textual-assembly
// artifact: header/memory-map comment, bootstrap jump, every user
// FUNCTION's body as a CALL target, the _start init-guard section, and
// the _cycle section running the program's own statements.
func (g *Generator) Generate(programName string) (string, error) {
	prog, ok := g.unit.Programs[strings.ToLower(programName)]
	if !ok {
		return "", fmt.Errorf("codegen: unknown program %q", programName)
	}

	g.collectStringsUnit()

	if g.initFlagOverride >= 0 {
		g.initFlagAddr = g.initFlagOverride
	} else {
		g.initFlagAddr = g.unit.WorkBase + g.unit.WorkSize()
	}
	poolBase := g.initFlagAddr + 1
	g.scratchCursor = g.pool.freeze(poolBase)

	g.emitHeader(prog)
	g.Instr("JMP", "_start")

	for _, fn := range g.cu.Functions {
		if err := g.compileFunction(fn); err != nil {
			return "", err
		}
	}

	g.Label("_start")
	g.table = prog.Table
	g.fn, g.method, g.fbInstance = nil, nil, nil
	if err := g.emitInitGuard(prog); err != nil {
		return "", err
	}

	g.Label("_cycle")
	g.lastSourceLine = -1
	for _, stmt := range prog.Decl.Body {
		if err := g.compileStatement(stmt); err != nil {
			return "", err
		}
	}
	g.Instr("HALT")

	return g.out.String(), nil
}

// emitHeader writes the header comment block and a memory-map comment
// listing every global and program-local symbol and its absolute
// address, per spec.md §4.6 item 1.
func (g *Generator) emitHeader(prog *symbols.ProgramInfo) {
	fmt.Fprintf(&g.out, "; program %s\n", prog.Name)
	g.out.WriteString("; memory map\n")

	all := g.unit.Globals.All()
	for k, v := range prog.Table.All() {
		all[k] = v
	}
	names := make([]string, 0, len(all))
	for k := range all {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		sym := all[k]
		fmt.Fprintf(&g.out, ";   %-24s %-7s 0x%04X  %d bytes\n", sym.Name, sym.Region, sym.Address, sym.Size)
	}
	g.out.WriteString(";\n")
}

// --- stdlib.Sink / stdlib.LabelGen / stdlib.ExprEmitter ---------------------

// Instr implements stdlib.Sink.
func (g *Generator) Instr(op string, args ...string) {
	g.out.WriteByte('\t')
	g.out.WriteString(op)
	if len(args) > 0 {
		g.out.WriteByte(' ')
		g.out.WriteString(strings.Join(args, ", "))
	}
	g.out.WriteByte('\n')
}

// Label implements stdlib.Sink.
func (g *Generator) Label(name string) {
	g.out.WriteString(name)
	g.out.WriteString(":\n")
}

// Comment implements stdlib.Sink.
func (g *Generator) Comment(format string, args ...interface{}) {
	g.out.WriteString("\t; ")
	fmt.Fprintf(&g.out, format, args...)
	g.out.WriteByte('\n')
}

// NewLabel implements stdlib.LabelGen: a process-wide unique label name
// built from prefix and a per-prefix counter.
func (g *Generator) NewLabel(prefix string) string {
	g.labelCounter[prefix]++
	return fmt.Sprintf("_%s_%d", prefix, g.labelCounter[prefix])
}

// Expr implements stdlib.ExprEmitter, letting catalog templates lower
// their own argument expressions without reaching into this package's
// statement/expression machinery.
func (g *Generator) Expr(e ast.Expression) error {
	return g.compileExpr(e)
}

var _ stdlib.Sink = (*Generator)(nil)
var _ stdlib.LabelGen = (*Generator)(nil)
var _ stdlib.ExprEmitter = (*Generator)(nil)

// annotateSource emits `; @source <line>` ahead of a statement whose
// source line differs from the last one annotated, per spec.md §4.6's
// source-annotation contract used by the downstream assembler to build a
// PC-to-line debug map.
func (g *Generator) annotateSource(pos cerrors.Position) {
	if !g.emitAnnotations || pos.Line == g.lastSourceLine {
		return
	}
	g.lastSourceLine = pos.Line
	fmt.Fprintf(&g.out, "\t; @source %d\n", pos.Line)
}

// sizeOp returns the direct load/store mnemonic for a value of the given
// byte width: 1->B, 2->W, 4->D, else Q, matching internal/stdlib's own
// sizeOp (internal/stdlib/emit.go) so both packages pick the identical
// opcode for a symbol of a given size.
func sizeOp(size int, store bool) string {
	var base string
	switch size {
	case 1:
		base = "B"
	case 2:
		base = "W"
	case 4:
		base = "D"
	default:
		base = "Q"
	}
	if store {
		return base + "STORE"
	}
	return base + "LOAD"
}

// sizeOpIndirect is sizeOp's *LOADIN/*STOREIN counterpart, used when the
// address is a runtime value already sitting on top of stack rather than
// a compile-time constant.
func sizeOpIndirect(size int, store bool) string {
	return sizeOp(size, store) + "IN"
}

func itoa(n int) string { return fmt.Sprintf("%d", n) }

func lower(s string) string { return strings.ToLower(s) }

// isFloatType reports whether t is REAL/LREAL, the discriminator for
// float-vs-integer opcode selection (spec.md §4.4).
func isFloatType(t types.Type) bool {
	et, ok := t.(*types.ElementaryType)
	return ok && et.IsFloat()
}
