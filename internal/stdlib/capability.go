// Package stdlib is the standard function-block and stateless-function
// catalog: timers, edge-triggered blocks, process-control blocks, buffers,
// selection functions, and the numerical-approximation math library. Every
// entry implements an emission template against a small capability
// interface rather than against internal/codegen directly, so the catalog
// has no dependency on the code generator — internal/codegen implements
// these capabilities and drives the templates.
package stdlib

import "github.com/eduardojvieira/stc/internal/ast"

// Sink receives the textual-assembly instructions a template emits. Instr
// takes an opcode mnemonic and its operands pre-formatted as strings (an
// address, a label, a literal); Label opens a new instruction label; Comment
// emits a source comment, used to name the instance being expanded.
type Sink interface {
	Instr(op string, args ...string)
	Label(name string)
	Comment(format string, args ...interface{})
}

// LabelGen hands out process-wide unique label names for a template's
// internal branches.
type LabelGen interface {
	NewLabel(prefix string) string
}

// ExprEmitter evaluates an AST expression, leaving its value on top of
// stack. Templates use it to lower argument expressions (SQRT's operand,
// PID's setpoint, ...) without reaching into the statement/expression
// lowering machinery themselves.
type ExprEmitter interface {
	Expr(e ast.Expression) error
}

// Capability is the full set of collaborators and bindings passed to one
// template invocation: the call site's base address, a diagnostic instance
// name, the emission collaborators, and the resolved argument expressions
// keyed by parameter name.
type Capability struct {
	Base     int // instance's absolute address (stateful blocks) or 0 (stateless functions)
	Instance string
	Sink     Sink
	Labels   LabelGen
	Expr     ExprEmitter
	Args     map[string]ast.Expression
}

// Arg looks up a bound argument expression by parameter name. The caller
// (internal/codegen) resolves positional arguments against the descriptor's
// parameter order before building Args, so templates only ever deal with
// names.
func (c *Capability) Arg(name string) (ast.Expression, bool) {
	e, ok := c.Args[name]
	return e, ok
}

// MustArg is Arg for a required parameter; it is the template's
// responsibility to have already validated arity via the descriptor, so a
// missing required argument here indicates a caller bug, not user input.
func (c *Capability) MustArg(name string) ast.Expression {
	e, ok := c.Args[name]
	if !ok {
		panic("stdlib: missing required argument " + name)
	}
	return e
}

// EvalArg emits the named argument's expression, leaving its value on
// stack. Used for stateless functions, which consume their operands
// directly from the stack rather than storing them to member addresses.
func (c *Capability) EvalArg(name string) error {
	e := c.MustArg(name)
	return c.Expr.Expr(e)
}
