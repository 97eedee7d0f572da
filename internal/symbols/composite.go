package symbols

import (
	"fmt"

	"github.com/eduardojvieira/stc/internal/ast"
	"github.com/eduardojvieira/stc/internal/types"
)

// StructType is a user-defined TYPE ... : STRUCT ... END_STRUCT.
type StructType struct {
	Name    string
	Members []*Member // declaration order
	ByName  map[string]*Member
	size    int
}

func (s *StructType) String() string { return s.Name }
func (s *StructType) Size() int      { return s.size }

// EnumType is a user-defined TYPE ... : (A, B, C); END_TYPE. Its values
// are registered as global constant symbols (see Builder.defineTypes), but
// the type itself is retained for diagnostics and for variables declared
// directly with the enum's name.
type EnumType struct {
	Name   string
	Values []*ast.EnumValue
	ByName map[string]int
}

func (e *EnumType) String() string { return e.Name }

// Size is fixed at DINT width: enum tags are plain 32-bit constants.
func (e *EnumType) Size() int { return types.Dint.Size() }

// MethodInfo is one method of a function block: its declared signature
// plus the mangled names under which its inputs/outputs/locals are
// allocated in the work region.
type MethodInfo struct {
	Name       string
	Decl       *ast.MethodDecl
	OwnerFB    string // the FB that declares this method body (for inherited methods, the base's name)
	ReturnType types.Type
	Inputs     []*Parameter
	Outputs    []*Parameter
	Locals     []*Parameter
	IsAbstract bool
	IsFinal    bool
	Visibility ast.Visibility

	// ReturnAddr is the absolute work-region address of the method's own
	// return slot, allocated under MangleMethodVar(fb, method, method).
	// Zero and unused when ReturnType is nil: a method invocation is
	// always inlined, never called, so assigning to the method's own
	// name is lowered to a plain store here, and the tail of the
	// inlined body loads it back out for the caller to consume.
	ReturnAddr int
}

// Parameter is a resolved method/function parameter: its source name,
// resolved type, and (for methods) the mangled work-region variable name
// `__M_<fb>_<method>_<var>` and absolute address it is allocated under.
// Address is unused (zero) for plain FUNCTION parameters, which are
// passed through CALL/RET locals rather than fixed work storage.
type Parameter struct {
	Name        string
	MangledName string
	Type        types.Type
	Address     int
}

// MangleMethodVar produces the `__M_<fb>_<method>_<var>` name under
// which a method's input/output/local is allocated in the work region,
// per the inlining contract: methods have no per-call stack frame, so
// their locals are process-wide storage.
func MangleMethodVar(fb, method, varName string) string {
	return fmt.Sprintf("__M_%s_%s_%s", fb, method, varName)
}

// FunctionBlockType is a user FUNCTION_BLOCK: an ordered, flattened
// member layout (base members first) and a flattened method map built by
// Builder.defineFunctionBlocks.
type FunctionBlockType struct {
	Name       string
	Base       *FunctionBlockType // nil if no EXTENDS
	Implements []*InterfaceType
	Members    []*Member // declaration order, base members first
	ByName     map[string]*Member
	Methods    map[string]*MethodInfo // lowercased method name -> info
	size       int
}

func (f *FunctionBlockType) String() string { return f.Name }
func (f *FunctionBlockType) Size() int      { return f.size }

// ResolveMethod looks up a method by name (case-insensitive), returning
// nil if the FB (including its base chain, already flattened into
// Methods) has no such method.
func (f *FunctionBlockType) ResolveMethod(name string) *MethodInfo {
	return f.Methods[lower(name)]
}

// InterfaceType is a user INTERFACE: a flattened set of required method
// signatures (its own plus every base interface's, transitively).
type InterfaceType struct {
	Name    string
	Methods map[string]*InterfaceMethodSig // lowercased name -> signature
}

// InterfaceMethodSig is one signature an implementing FB must match
// exactly (return type, input/output arity, names, and types).
type InterfaceMethodSig struct {
	Name       string
	ReturnType types.Type
	Inputs     []*Parameter
	Outputs    []*Parameter
}

func (i *InterfaceType) String() string { return i.Name }

// Size is not meaningful for an interface: no ST variable is ever
// declared directly with interface storage, only REF_TO <interface>
// pointers, which carry types.PointerSize regardless of base.
func (i *InterfaceType) Size() int { return types.PointerSize }
