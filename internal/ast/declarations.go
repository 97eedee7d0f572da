package ast

import "github.com/eduardojvieira/stc/internal/cerrors"

// Section identifies which VAR_xxx block a variable declaration came from.
type Section int

const (
	SectionVar Section = iota
	SectionInput
	SectionOutput
	SectionInOut
	SectionTemp
	SectionGlobal
	SectionConstant
)

// Visibility is a method's declared access level.
type Visibility int

const (
	Public Visibility = iota
	Private
	Protected
)

// VarDecl is a single variable declared within a VarBlock: a name, its
// declared type, an optional initializer, and an optional I/O binding
// (`AT %I0.0`).
type VarDecl struct {
	Name        *Identifier
	Type        *TypeAnnotation
	Init        Expression
	IOAddress   string // raw "%I0.0" text, empty if not I/O-bound
	Position    cerrors.Position
	Retain      bool
}

func (v *VarDecl) Pos() cerrors.Position { return v.Position }
func (v *VarDecl) TokenLiteral() string  { return v.Name.Value }

// VarBlock groups declarations under one VAR.../END_VAR section.
type VarBlock struct {
	Section  Section
	Decls    []*VarDecl
	Position cerrors.Position
}

func (v *VarBlock) Pos() cerrors.Position { return v.Position }
func (v *VarBlock) TokenLiteral() string  { return "VAR" }

// Parameter is a parsed member of a method/function signature, materialized
// from its owning VarBlock's declarations; kept flat for signature
// comparisons (interface conformance, override matching).
type Parameter struct {
	Name *Identifier
	Type *TypeAnnotation
}

// FunctionDecl is a FUNCTION declaration: inputs and locals allocate into
// the work region; a pseudo-variable named identically to the function
// holds the return value.
type FunctionDecl struct {
	Name       *Identifier
	ReturnType *TypeAnnotation
	VarBlocks  []*VarBlock
	Body       []Statement
	Position   cerrors.Position
}

func (f *FunctionDecl) Pos() cerrors.Position { return f.Position }
func (f *FunctionDecl) TokenLiteral() string  { return f.Name.Value }
func (f *FunctionDecl) declarationNode()      {}

// MethodDecl is a METHOD declared inside a function block.
type MethodDecl struct {
	Name       *Identifier
	ReturnType *TypeAnnotation // nil for a void method
	VarBlocks  []*VarBlock
	Body       []Statement
	Visibility Visibility
	IsAbstract bool
	IsFinal    bool
	IsOverride bool
	Position   cerrors.Position
}

func (m *MethodDecl) Pos() cerrors.Position { return m.Position }
func (m *MethodDecl) TokenLiteral() string  { return m.Name.Value }

// Inputs returns the method's VAR_INPUT parameters in declaration order.
func (m *MethodDecl) Inputs() []*VarDecl { return m.declsOf(SectionInput) }

// Outputs returns the method's VAR_OUTPUT parameters in declaration order.
func (m *MethodDecl) Outputs() []*VarDecl { return m.declsOf(SectionOutput) }

// Locals returns the method's VAR and VAR_TEMP declarations in order.
func (m *MethodDecl) Locals() []*VarDecl {
	var out []*VarDecl
	out = append(out, m.declsOf(SectionVar)...)
	out = append(out, m.declsOf(SectionTemp)...)
	return out
}

func (m *MethodDecl) declsOf(section Section) []*VarDecl {
	var out []*VarDecl
	for _, b := range m.VarBlocks {
		if b.Section == section {
			out = append(out, b.Decls...)
		}
	}
	return out
}

// FunctionBlockDecl is a FUNCTION_BLOCK declaration: member variable
// groups, an optional single base (EXTENDS), implemented interfaces, and
// methods.
type FunctionBlockDecl struct {
	Name       *Identifier
	Extends    *Identifier // nil if no base
	Implements []*Identifier
	VarBlocks  []*VarBlock
	Methods    []*MethodDecl
	Body       []Statement // the FB's own default "call" body, if any
	Position   cerrors.Position
}

func (fb *FunctionBlockDecl) Pos() cerrors.Position { return fb.Position }
func (fb *FunctionBlockDecl) TokenLiteral() string  { return fb.Name.Value }
func (fb *FunctionBlockDecl) declarationNode()      {}

// ProgramDecl is a PROGRAM declaration: the unit compiled per-task.
type ProgramDecl struct {
	Name      *Identifier
	VarBlocks []*VarBlock
	Body      []Statement
	Position  cerrors.Position
}

func (p *ProgramDecl) Pos() cerrors.Position { return p.Position }
func (p *ProgramDecl) TokenLiteral() string  { return p.Name.Value }
func (p *ProgramDecl) declarationNode()      {}

// StructDecl is a TYPE ... : STRUCT ... END_STRUCT; END_TYPE declaration.
type StructDecl struct {
	Name     *Identifier
	Members  []*VarDecl
	Position cerrors.Position
}

func (s *StructDecl) Pos() cerrors.Position { return s.Position }
func (s *StructDecl) TokenLiteral() string  { return s.Name.Value }
func (s *StructDecl) declarationNode()      {}

// EnumValue is a single member of an enum type.
type EnumValue struct {
	Name  *Identifier
	Value int // 0-based unless explicitly assigned in source
}

// EnumDecl is a TYPE ... : (A, B, C); END_TYPE enum declaration.
type EnumDecl struct {
	Name     *Identifier
	Values   []*EnumValue
	Position cerrors.Position
}

func (e *EnumDecl) Pos() cerrors.Position { return e.Position }
func (e *EnumDecl) TokenLiteral() string  { return e.Name.Value }
func (e *EnumDecl) declarationNode()      {}

// InterfaceMethodSig is one method signature required by an interface.
type InterfaceMethodSig struct {
	Name       *Identifier
	ReturnType *TypeAnnotation
	Inputs     []*Parameter
	Outputs    []*Parameter
}

// InterfaceDecl is an INTERFACE declaration.
type InterfaceDecl struct {
	Name     *Identifier
	Bases    []*Identifier
	Methods  []*InterfaceMethodSig
	Position cerrors.Position
}

func (i *InterfaceDecl) Pos() cerrors.Position { return i.Position }
func (i *InterfaceDecl) TokenLiteral() string  { return i.Name.Value }
func (i *InterfaceDecl) declarationNode()      {}
