package symbols

import (
	"fmt"

	"github.com/eduardojvieira/stc/internal/ast"
	"github.com/eduardojvieira/stc/internal/types"
)

// PathStep is one link of a resolved member/array access chain.
type PathStep interface{ pathStep() }

// MemberStep resolves `.name` against the current composite's member
// table.
type MemberStep struct {
	Member *Member
}

func (MemberStep) pathStep() {}

// IndexStep resolves `[i0,i1,i2]` against the current array type. When
// every index expression is a constant *ast.IntegerLiteral, ConstOffset
// carries the fully-resolved byte offset per the address formula;
// otherwise codegen must emit a runtime address computation using the
// array's Strides.
type IndexStep struct {
	Array       *types.ArrayType
	Indices     []ast.Expression
	ConstOffset int
	IsConst     bool
}

func (IndexStep) pathStep() {}

// DerefStep resolves `^`: the current type must be a pointer, and the
// chain continues against its base type.
type DerefStep struct {
	Pointer *types.PointerType
}

func (DerefStep) pathStep() {}

// ResolvePath walks a member/array/dereference access chain rooted at
// root, returning the ordered list of steps and the type the full chain
// addresses. Lookups consult, in order, user structs, user function
// blocks, and stdlib function blocks — the same composite kinds that can
// ever appear as a Member's Type.
func ResolvePath(root *Symbol, expr ast.Expression) ([]PathStep, types.Type, error) {
	chain, err := flatten(expr)
	if err != nil {
		return nil, nil, err
	}
	var steps []PathStep
	current := root.Type
	for _, link := range chain {
		switch l := link.(type) {
		case memberLink:
			member, err := lookupMember(current, l.name)
			if err != nil {
				return nil, nil, err
			}
			steps = append(steps, MemberStep{Member: member})
			current = member.Type
		case indexLink:
			arr, ok := current.(*types.ArrayType)
			if !ok {
				return nil, nil, fmt.Errorf("index applied to non-array type %s", current.String())
			}
			step := IndexStep{Array: arr, Indices: l.indices}
			if constIdx, ok := allConstant(l.indices); ok {
				off, err := arr.Offset(constIdx)
				if err != nil {
					return nil, nil, err
				}
				step.ConstOffset = off
				step.IsConst = true
			}
			steps = append(steps, step)
			current = arr.Element
		case derefLink:
			ptr, ok := current.(*types.PointerType)
			if !ok {
				return nil, nil, fmt.Errorf("dereference applied to non-pointer type %s", current.String())
			}
			steps = append(steps, DerefStep{Pointer: ptr})
			current = ptr.Base
		}
	}
	return steps, current, nil
}

type memberLink struct{ name string }
type indexLink struct{ indices []ast.Expression }
type derefLink struct{}

// flatten turns the right-recursive Object chain built by the parser
// (innermost Object is the root identifier) into a left-to-right list of
// access links, the order code generation and path resolution walk in.
func flatten(expr ast.Expression) ([]interface{}, error) {
	switch e := expr.(type) {
	case *ast.Identifier:
		return nil, nil
	case *ast.MemberAccessExpression:
		prefix, err := flatten(e.Object)
		if err != nil {
			return nil, err
		}
		return append(prefix, memberLink{name: e.Member.Value}), nil
	case *ast.ArrayAccessExpression:
		prefix, err := flatten(e.Object)
		if err != nil {
			return nil, err
		}
		return append(prefix, indexLink{indices: e.Indices}), nil
	case *ast.DerefExpression:
		prefix, err := flatten(e.Target)
		if err != nil {
			return nil, err
		}
		return append(prefix, derefLink{}), nil
	default:
		return nil, fmt.Errorf("unsupported path expression %T", expr)
	}
}

func lookupMember(t types.Type, name string) (*Member, error) {
	var byName map[string]*Member
	switch ct := t.(type) {
	case *StructType:
		byName = ct.ByName
	case *FunctionBlockType:
		byName = ct.ByName
	case *StdlibBlockType:
		byName = ct.ByName
	default:
		return nil, fmt.Errorf("type %s has no members", t.String())
	}
	m, ok := byName[lower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown member %q on %s", name, t.String())
	}
	return m, nil
}

func allConstant(exprs []ast.Expression) ([]int, bool) {
	out := make([]int, len(exprs))
	for i, e := range exprs {
		lit, ok := e.(*ast.IntegerLiteral)
		if !ok {
			return nil, false
		}
		out[i] = int(lit.Value)
	}
	return out, true
}
