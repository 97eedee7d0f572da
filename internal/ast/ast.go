// Package ast defines the Abstract Syntax Tree node types produced by
// internal/parser for IEC 61131-3 Structured Text.
package ast

import "github.com/eduardojvieira/stc/internal/cerrors"

// Node is the base interface implemented by every AST node. Every node
// carries its source position so later stages can produce diagnostics and
// debug maps.
type Node interface {
	Pos() cerrors.Position
	TokenLiteral() string
}

// Expression is any node that produces a value.
type Expression interface {
	Node
	expressionNode()
}

// Statement is any node that performs an action but does not itself produce
// a value.
type Statement interface {
	Node
	statementNode()
}

// Declaration is any top-level or type-level declaration node.
type Declaration interface {
	Node
	declarationNode()
}

// Identifier is a bare name reference, used both as an expression (primary)
// and as a name slot in declarations.
type Identifier struct {
	Value    string
	Position cerrors.Position
}

func (i *Identifier) Pos() cerrors.Position { return i.Position }
func (i *Identifier) TokenLiteral() string  { return i.Value }
func (i *Identifier) expressionNode()       {}

// CompilationUnit is the root AST node: the full set of declarations
// parsed from one source text, in textual order (VAR_GLOBAL blocks,
// functions, function blocks, programs, type/interface declarations, in
// whatever order they appeared — ordering across kinds does not matter,
// the symbol table materializes type definitions first regardless).
type CompilationUnit struct {
	Globals        []*VarBlock
	Functions      []*FunctionDecl
	FunctionBlocks []*FunctionBlockDecl
	Programs       []*ProgramDecl
	Types          []Declaration // *StructDecl or *EnumDecl
	Interfaces     []*InterfaceDecl
}

func (c *CompilationUnit) Pos() cerrors.Position { return cerrors.Position{Line: 1, Column: 1} }
func (c *CompilationUnit) TokenLiteral() string  { return "" }
