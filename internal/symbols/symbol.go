package symbols

import (
	"github.com/eduardojvieira/stc/internal/ast"
	"github.com/eduardojvieira/stc/internal/types"
)

// Symbol is a fully resolved variable: its type, its placement, and
// (for composite instances) the member layout needed to resolve paths
// rooted at it.
type Symbol struct {
	Name      string // original-case name, for diagnostics
	Type      types.Type
	Region    Region
	Address   int // absolute byte address within Region
	Size      int
	Section   ast.Section
	IOAddress string   // raw "%I0.0" text, empty if not I/O-bound
	Bit       int      // bit index within the byte at Address, valid only when HasBit
	HasBit    bool
	Init      ast.Expression
	Retain    bool

	// Members is non-nil for symbols whose Type is a composite
	// (*StructType, *FunctionBlockType): member-name (lowercased) to
	// offset-within-instance layout.
	Members map[string]*Member
}

// Member describes one field of a composite type: its offset within the
// owning instance, its resolved type, and its size.
type Member struct {
	Name   string
	Offset int
	Size   int
	Type   types.Type
}

// AbsoluteAddress returns the byte address of member m within a symbol
// placed at baseAddr.
func (m *Member) AbsoluteAddress(baseAddr int) int { return baseAddr + m.Offset }
