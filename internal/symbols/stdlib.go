package symbols

import "github.com/eduardojvieira/stc/internal/types"

// StdlibBlockType is a standard-library stateful function block (TON,
// Hysteresis, compact PID, FIFO, ...). The symbol table only needs its
// name and instance layout to place and resolve VAR declarations of this
// type; the catalog in internal/stdlib owns the emission template that
// reads this same layout during code generation.
type StdlibBlockType struct {
	Name    string
	Members []*Member
	ByName  map[string]*Member
	size    int
}

func (b *StdlibBlockType) String() string { return b.Name }
func (b *StdlibBlockType) Size() int      { return b.size }

// NewStdlibBlockType builds a StdlibBlockType from an ordered member
// list, computing offsets with the same min(size,4) alignment rule as
// user structs.
func NewStdlibBlockType(name string, members []*Member) *StdlibBlockType {
	byName := make(map[string]*Member, len(members))
	offset := 0
	for _, m := range members {
		offset = align(offset, m.Size)
		m.Offset = offset
		offset += m.Size
		byName[lower(m.Name)] = m
	}
	return &StdlibBlockType{Name: name, Members: members, ByName: byName, size: offset}
}

// StdlibFunctionType is a standard-library stateless function (MIN, MAX,
// SIN, SQRT, CONCAT, ...): fixed or variadic arity and a return type,
// enough for the parser/codegen to validate a call site's argument count
// before invoking the catalog's emission template.
type StdlibFunctionType struct {
	Name       string
	Variadic   bool
	Arity      int // ignored when Variadic is true
	ReturnType types.Type

	// ParamNames gives the EvalArg name each positional call argument
	// binds to, in declaration order, so a positional call site
	// (SQRT(x), MIN(a,b), LIMIT(mn,in,mx)) can be rewritten into the
	// named Capability.Args map the catalog's templates expect. Empty
	// for Variadic functions, which bind every argument to "IN" plus a
	// 1-based index instead (see internal/codegen).
	ParamNames []string
}

// Catalog is the seam between the symbol table and internal/stdlib's
// block/function registry, implemented there to avoid a package cycle
// (internal/stdlib imports internal/symbols for Member/MethodInfo, not
// the reverse).
type Catalog interface {
	LookupBlock(name string) (*StdlibBlockType, bool)
	LookupFunction(name string) (*StdlibFunctionType, bool)
}
