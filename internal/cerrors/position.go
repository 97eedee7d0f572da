// Package cerrors provides the diagnostic types shared across every stage of
// the compiler: the lexer, parser, symbol table, and code generator all
// report failures through a single CompilerError shape so that a caller gets
// consistent line/column-annotated messages regardless of which stage failed.
package cerrors

import "fmt"

// Position identifies a location in source text.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}
