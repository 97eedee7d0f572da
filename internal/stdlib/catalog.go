package stdlib

import (
	"fmt"
	"strings"

	"github.com/eduardojvieira/stc/internal/symbols"
)

// BlockTemplate expands one stateful function-block invocation. Net stack
// effect is zero: the template first stores each bound input (or 0 for
// an unbound one) to the instance's member address via evalInputMember,
// per the invocation contract, and communicates only through that memory.
type BlockTemplate func(cap *Capability) error

// FunctionTemplate expands one stateless function call. Net stack effect
// matches the descriptor's arity and return type: the template evaluates
// its arguments itself (via Capability.EvalArg) and leaves exactly one
// result value on top of stack.
type FunctionTemplate func(cap *Capability) error

// blockEntry pairs a block's authoritative member layout with its
// expansion template.
type blockEntry struct {
	typ      *symbols.StdlibBlockType
	template BlockTemplate
}

// functionEntry pairs a function's signature with its expansion template.
type functionEntry struct {
	typ      *symbols.StdlibFunctionType
	template FunctionTemplate
}

// Catalog is the registry of every standard function block and stateless
// function, built once by NewCatalog and never mutated afterward. It
// implements symbols.Catalog for the symbol table's type resolution, and
// additionally exposes the expansion templates for internal/codegen.
type Catalog struct {
	blocks    map[string]blockEntry
	functions map[string]functionEntry
}

// NewCatalog builds the standard catalog. It is a plain constructor, not a
// package-level global populated by init(): callers that want a shared
// instance keep the one *Catalog they build; nothing here relies on
// import-order side effects.
func NewCatalog() *Catalog {
	c := &Catalog{
		blocks:    make(map[string]blockEntry),
		functions: make(map[string]functionEntry),
	}
	registerTimerBlocks(c)
	registerCounterBlocks(c)
	registerEdgeBlocks(c)
	registerBistableBlocks(c)
	registerHysteresisBlock(c)
	registerPIDBlock(c)
	registerFIFOBlock(c)
	registerLIFOBlock(c)
	registerSelectionFunctions(c)
	registerBitwiseFunctions(c)
	registerMathFunctions(c)
	registerStringFunctions(c)
	return c
}

func key(name string) string { return strings.ToUpper(name) }

func (c *Catalog) addBlock(name string, typ *symbols.StdlibBlockType, tmpl BlockTemplate) {
	c.blocks[key(name)] = blockEntry{typ: typ, template: tmpl}
}

func (c *Catalog) addFunction(name string, typ *symbols.StdlibFunctionType, tmpl FunctionTemplate) {
	c.functions[key(name)] = functionEntry{typ: typ, template: tmpl}
}

// LookupBlock implements symbols.Catalog.
func (c *Catalog) LookupBlock(name string) (*symbols.StdlibBlockType, bool) {
	e, ok := c.blocks[key(name)]
	if !ok {
		return nil, false
	}
	return e.typ, true
}

// LookupFunction implements symbols.Catalog.
func (c *Catalog) LookupFunction(name string) (*symbols.StdlibFunctionType, bool) {
	e, ok := c.functions[key(name)]
	if !ok {
		return nil, false
	}
	return e.typ, true
}

// ExpandBlock invokes the named stateful block's template. Returns an
// error if no block of that name is registered.
func (c *Catalog) ExpandBlock(name string, cap *Capability) error {
	e, ok := c.blocks[key(name)]
	if !ok {
		return fmt.Errorf("stdlib: no such function block %q", name)
	}
	return e.template(cap)
}

// ExpandFunction invokes the named stateless function's template. Returns
// an error if no function of that name is registered.
func (c *Catalog) ExpandFunction(name string, cap *Capability) error {
	e, ok := c.functions[key(name)]
	if !ok {
		return fmt.Errorf("stdlib: no such function %q", name)
	}
	return e.template(cap)
}

var _ symbols.Catalog = (*Catalog)(nil)
