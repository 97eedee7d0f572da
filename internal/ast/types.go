package ast

import "github.com/eduardojvieira/stc/internal/cerrors"

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
	STRING
	WSTRING
	DATE
	TOD
	DT
)

// ArrayDimension is one dimension of an array type: inclusive bounds.
type ArrayDimension struct {
	Lower int
	Upper int
}

// TypeAnnotation is a syntactic type reference as written in source: either
// an elementary type, an array of 1-3 dimensions over an element type, a
// REF_TO pointer, or the name of a user- or stdlib-defined composite type.
type TypeAnnotation struct {
	Position    cerrors.Position
	Name        string // set when Kind == TypeNamed
	Elementary  ElementaryKind
	Dimensions  []ArrayDimension // set when Kind == TypeArray
	ElementType *TypeAnnotation  // set when Kind == TypeArray
	Base        *TypeAnnotation  // set when Kind == TypePointer
	Kind        TypeRefKind
}

type TypeRefKind int

const (
	TypeElementary TypeRefKind = iota
	TypeArray
	TypePointer
	TypeNamed
)

func (t *TypeAnnotation) Pos() cerrors.Position { return t.Position }
func (t *TypeAnnotation) TokenLiteral() string  { return t.Name }
