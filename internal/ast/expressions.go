package ast

import "github.com/eduardojvieira/stc/internal/cerrors"

// IntegerLiteral is a decimal or hex integer literal.
type IntegerLiteral struct {
	Value    int64
	Position cerrors.Position
}

func (e *IntegerLiteral) Pos() cerrors.Position { return e.Position }
func (e *IntegerLiteral) TokenLiteral() string  { return "" }
func (e *IntegerLiteral) expressionNode()       {}

// RealLiteral is a floating-point literal.
type RealLiteral struct {
	Value    float64
	Position cerrors.Position
}

func (e *RealLiteral) Pos() cerrors.Position { return e.Position }
func (e *RealLiteral) TokenLiteral() string  { return "" }
func (e *RealLiteral) expressionNode()       {}

// BoolLiteral is TRUE or FALSE.
type BoolLiteral struct {
	Value    bool
	Position cerrors.Position
}

func (e *BoolLiteral) Pos() cerrors.Position { return e.Position }
func (e *BoolLiteral) TokenLiteral() string  { return "" }
func (e *BoolLiteral) expressionNode()       {}

// StringLiteral is a narrow or wide quoted string literal.
type StringLiteral struct {
	Value    string
	Wide     bool
	Position cerrors.Position
}

func (e *StringLiteral) Pos() cerrors.Position { return e.Position }
func (e *StringLiteral) TokenLiteral() string  { return e.Value }
func (e *StringLiteral) expressionNode()       {}

// TimeLiteral is a T#/TIME# duration literal, normalized to milliseconds.
type TimeLiteral struct {
	Milliseconds int64
	Position     cerrors.Position
}

func (e *TimeLiteral) Pos() cerrors.Position { return e.Position }
func (e *TimeLiteral) TokenLiteral() string  { return "" }
func (e *TimeLiteral) expressionNode()       {}

// DateLiteral is a D#/DATE# literal, stored as days since the Unix epoch.
type DateLiteral struct {
	Days     int64
	Position cerrors.Position
}

func (e *DateLiteral) Pos() cerrors.Position { return e.Position }
func (e *DateLiteral) TokenLiteral() string  { return "" }
func (e *DateLiteral) expressionNode()       {}

// TODLiteral is a TOD# (time-of-day) literal, stored as milliseconds since
// midnight.
type TODLiteral struct {
	MillisSinceMidnight int64
	Position            cerrors.Position
}

func (e *TODLiteral) Pos() cerrors.Position { return e.Position }
func (e *TODLiteral) TokenLiteral() string  { return "" }
func (e *TODLiteral) expressionNode()       {}

// DTLiteral is a DT# (date-and-time) literal, stored as milliseconds since
// the Unix epoch.
type DTLiteral struct {
	MillisSinceEpoch int64
	Position         cerrors.Position
}

func (e *DTLiteral) Pos() cerrors.Position { return e.Position }
func (e *DTLiteral) TokenLiteral() string  { return "" }
func (e *DTLiteral) expressionNode()       {}

// MemberAccessExpression is `object.member`.
type MemberAccessExpression struct {
	Object   Expression
	Member   *Identifier
	Position cerrors.Position
}

func (e *MemberAccessExpression) Pos() cerrors.Position { return e.Position }
func (e *MemberAccessExpression) TokenLiteral() string  { return "." }
func (e *MemberAccessExpression) expressionNode()       {}

// ArrayAccessExpression is `object[i]`, `object[i,j]`, or `object[i,j,k]`.
type ArrayAccessExpression struct {
	Object   Expression
	Indices  []Expression
	Position cerrors.Position
}

func (e *ArrayAccessExpression) Pos() cerrors.Position { return e.Position }
func (e *ArrayAccessExpression) TokenLiteral() string  { return "[]" }
func (e *ArrayAccessExpression) expressionNode()       {}

// UnaryExpression is NOT x or -x.
type UnaryExpression struct {
	Operator string // "NOT" or "-"
	Operand  Expression
	Position cerrors.Position
}

func (e *UnaryExpression) Pos() cerrors.Position { return e.Position }
func (e *UnaryExpression) TokenLiteral() string  { return e.Operator }
func (e *UnaryExpression) expressionNode()       {}

// BinaryExpression is a left op right expression: arithmetic, comparison,
// or logical.
type BinaryExpression struct {
	Left     Expression
	Operator string
	Right    Expression
	Position cerrors.Position
}

func (e *BinaryExpression) Pos() cerrors.Position { return e.Position }
func (e *BinaryExpression) TokenLiteral() string  { return e.Operator }
func (e *BinaryExpression) expressionNode()       {}

// RefExpression is REF(x): the address of an L-value.
type RefExpression struct {
	Target   Expression
	Position cerrors.Position
}

func (e *RefExpression) Pos() cerrors.Position { return e.Position }
func (e *RefExpression) TokenLiteral() string  { return "REF" }
func (e *RefExpression) expressionNode()       {}

// DerefExpression is `p^`: dereference a pointer.
type DerefExpression struct {
	Target   Expression
	Position cerrors.Position
}

func (e *DerefExpression) Pos() cerrors.Position { return e.Position }
func (e *DerefExpression) TokenLiteral() string  { return "^" }
func (e *DerefExpression) expressionNode()       {}

// CallExpression is a stateless function call `Name(args...)` used as an
// expression (stdlib function or user FUNCTION).
type CallExpression struct {
	Callee   *Identifier
	Args     []Expression
	Named    []*NamedArg
	Position cerrors.Position
}

func (e *CallExpression) Pos() cerrors.Position { return e.Position }
func (e *CallExpression) TokenLiteral() string  { return e.Callee.Value }
func (e *CallExpression) expressionNode()       {}

// MethodCallExpression is `object.Method(args...)`.
type MethodCallExpression struct {
	Object   Expression
	Method   *Identifier
	Args     []Expression
	Named    []*NamedArg
	Position cerrors.Position
}

func (e *MethodCallExpression) Pos() cerrors.Position { return e.Position }
func (e *MethodCallExpression) TokenLiteral() string  { return e.Method.Value }
func (e *MethodCallExpression) expressionNode()       {}

// ThisExpression is the `THIS` primary, referring to the enclosing function
// block instance inside a method body.
type ThisExpression struct{ Position cerrors.Position }

func (e *ThisExpression) Pos() cerrors.Position { return e.Position }
func (e *ThisExpression) TokenLiteral() string  { return "THIS" }
func (e *ThisExpression) expressionNode()       {}
