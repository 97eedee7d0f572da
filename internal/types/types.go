// Package types implements the IEC 61131-3 Structured Text type system:
// elementary types, arrays (1-3 dimensions), pointers, and the string
// literal-pool layout. Composite types (structs, function blocks, enums,
// interfaces, and stdlib block/function descriptors) are defined in
// internal/symbols, which imports this package for their member types.
package types

import "fmt"

// Type is implemented by every resolved type value: elementary types,
// arrays, pointers, and (from internal/symbols) composite descriptors.
type Type interface {
	fmt.Stringer
	// Size returns the type's size in bytes.
	Size() int
}

// ElementaryKind enumerates the built-in scalar types.
type ElementaryKind int

const (
	BOOL ElementaryKind = iota
	SINT
	USINT
	INT
	UINT
	DINT
	UDINT
	LINT
	ULINT
	REAL
	LREAL
	TIME
	DATE
	TOD
	DT
)

var elementaryNames = map[ElementaryKind]string{
	BOOL: "BOOL", SINT: "SINT", USINT: "USINT", INT: "INT", UINT: "UINT",
	DINT: "DINT", UDINT: "UDINT", LINT: "LINT", ULINT: "ULINT",
	REAL: "REAL", LREAL: "LREAL", TIME: "TIME", DATE: "DATE", TOD: "TOD", DT: "DT",
}

var elementarySizes = map[ElementaryKind]int{
	BOOL: 1, SINT: 1, USINT: 1, INT: 2, UINT: 2,
	DINT: 4, UDINT: 4, LINT: 8, ULINT: 8,
	REAL: 4, LREAL: 8, TIME: 4, DATE: 4, TOD: 4, DT: 8,
}

// ElementaryType is a built-in scalar type value. There is exactly one
// instance per ElementaryKind; compare with IsElementary + Kind() rather
// than pointer identity.
type ElementaryType struct {
	kind ElementaryKind
}

func (e *ElementaryType) Kind() ElementaryKind { return e.kind }
func (e *ElementaryType) String() string       { return elementaryNames[e.kind] }
func (e *ElementaryType) Size() int            { return elementarySizes[e.kind] }

// IsFloat reports whether this elementary type is REAL or LREAL — the
// discriminator code generation uses to select float vs. integer opcodes.
func (e *ElementaryType) IsFloat() bool { return e.kind == REAL || e.kind == LREAL }

// IsInteger reports whether this elementary type is one of the integer
// kinds (signed or unsigned, any width).
func (e *ElementaryType) IsInteger() bool {
	switch e.kind {
	case SINT, USINT, INT, UINT, DINT, UDINT, LINT, ULINT:
		return true
	}
	return false
}

// Singleton elementary type values, shared by the parser, symbol table, and
// code generator.
var (
	Bool  = &ElementaryType{BOOL}
	Sint  = &ElementaryType{SINT}
	Usint = &ElementaryType{USINT}
	Int   = &ElementaryType{INT}
	Uint  = &ElementaryType{UINT}
	Dint  = &ElementaryType{DINT}
	Udint = &ElementaryType{UDINT}
	Lint  = &ElementaryType{LINT}
	Ulint = &ElementaryType{ULINT}
	Real  = &ElementaryType{REAL}
	Lreal = &ElementaryType{LREAL}
	Time  = &ElementaryType{TIME}
	Date  = &ElementaryType{DATE}
	Tod   = &ElementaryType{TOD}
	Dt    = &ElementaryType{DT}
)

var byKind = map[ElementaryKind]*ElementaryType{
	BOOL: Bool, SINT: Sint, USINT: Usint, INT: Int, UINT: Uint,
	DINT: Dint, UDINT: Udint, LINT: Lint, ULINT: Ulint,
	REAL: Real, LREAL: Lreal, TIME: Time, DATE: Date, TOD: Tod, DT: Dt,
}

// ByKind returns the singleton ElementaryType for kind.
func ByKind(kind ElementaryKind) *ElementaryType { return byKind[kind] }

// DefaultStringCapacity is the character capacity assumed for STRING/WSTRING
// declarations that do not specify one explicitly (this spec's grammar has
// no declared-length syntax for VAR declarations; stdlib string literals
// still size themselves exactly to their content via StringLiteralType).
const DefaultStringCapacity = 80

// StringType is STRING or WSTRING with a fixed declared capacity. Layout is
// `[len:2][cap:2][bytes:cap+1]`, doubled (2 bytes per character) for WSTRING.
type StringType struct {
	Wide     bool
	Capacity int
}

func (s *StringType) String() string {
	if s.Wide {
		return "WSTRING"
	}
	return "STRING"
}

func (s *StringType) Size() int {
	charSize := 1
	if s.Wide {
		charSize = 2
	}
	return 2 + 2 + (s.Capacity+1)*charSize
}

// NewStringType returns a STRING/WSTRING type with the default capacity.
func NewStringType(wide bool) *StringType {
	return &StringType{Wide: wide, Capacity: DefaultStringCapacity}
}
