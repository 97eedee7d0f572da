package codegen

import (
	"fmt"
	"math"

	"github.com/eduardojvieira/stc/internal/ast"
	"github.com/eduardojvieira/stc/internal/types"
)

// stringHeaderBytes mirrors internal/stdlib's private constant of the same
// name: a STRING value is a [len:2][cap:2][bytes...] block, and every
// STRING-typed expression evaluates to the address of that header.
const stringHeaderBytes = 4

// compileExpr lowers expr, leaving its value on top of stack. L-value
// expressions (identifiers, THIS, member/array/deref chains) go through
// emitAddress + emitLoadLValue; everything else is a direct literal push
// or an operator lowering.
func (g *Generator) compileExpr(expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		g.Instr("PUSH", fmt.Sprintf("%d", e.Value))
		return nil
	case *ast.RealLiteral:
		g.Instr("PUSHF", fmt.Sprintf("%d", math.Float32bits(float32(e.Value))))
		return nil
	case *ast.BoolLiteral:
		if e.Value {
			g.Instr("PUSH", "1")
		} else {
			g.Instr("PUSH", "0")
		}
		return nil
	case *ast.StringLiteral:
		addr := g.pool.intern(e.Value, e.Wide)
		g.Instr("PUSH", itoa(addr))
		return nil
	case *ast.TimeLiteral:
		g.Instr("PUSH", fmt.Sprintf("%d", e.Milliseconds))
		return nil
	case *ast.DateLiteral:
		g.Instr("PUSH", fmt.Sprintf("%d", e.Days))
		return nil
	case *ast.TODLiteral:
		g.Instr("PUSH", fmt.Sprintf("%d", e.MillisSinceMidnight))
		return nil
	case *ast.DTLiteral:
		g.Instr("PUSH", fmt.Sprintf("%d", e.MillisSinceEpoch))
		return nil
	case *ast.Identifier, *ast.ThisExpression, *ast.MemberAccessExpression, *ast.ArrayAccessExpression, *ast.DerefExpression:
		lv, err := g.emitAddress(expr)
		if err != nil {
			return err
		}
		g.emitLoadLValue(lv)
		return nil
	case *ast.UnaryExpression:
		return g.compileUnary(e)
	case *ast.BinaryExpression:
		return g.compileBinary(e)
	case *ast.RefExpression:
		return g.compileRef(e)
	case *ast.CallExpression:
		return g.compileCallExpr(e)
	case *ast.MethodCallExpression:
		return g.compileMethodCallExpr(e)
	default:
		return g.errf(expr.Pos(), "unsupported expression %T", expr)
	}
}

func (g *Generator) compileUnary(e *ast.UnaryExpression) error {
	if err := g.compileExpr(e.Operand); err != nil {
		return err
	}
	operandType, err := g.resolveExprType(e.Operand)
	if err != nil {
		return err
	}
	switch e.Operator {
	case "NOT":
		g.Instr("NOT")
		if isBoolType(operandType) {
			g.Instr("PUSH", "1")
			g.Instr("AND")
		}
		return nil
	case "-":
		if isFloatType(operandType) {
			g.Instr("PUSHF", fmt.Sprintf("%d", math.Float32bits(-1)))
			g.Instr("MULF")
		} else {
			g.Instr("PUSH", "-1")
			g.Instr("MUL")
		}
		return nil
	}
	return g.errf(e.Position, "unsupported unary operator %q", e.Operator)
}

func (g *Generator) compileBinary(e *ast.BinaryExpression) error {
	switch e.Operator {
	case "AND", "OR", "XOR":
		if err := g.compileExpr(e.Left); err != nil {
			return err
		}
		if err := g.compileExpr(e.Right); err != nil {
			return err
		}
		g.Instr(e.Operator)
		return nil
	}

	leftType, err := g.resolveExprType(e.Left)
	if err != nil {
		return err
	}
	if isStringType(leftType) {
		return g.compileStringBinary(e)
	}

	if err := g.compileExpr(e.Left); err != nil {
		return err
	}
	if err := g.compileExpr(e.Right); err != nil {
		return err
	}

	float := isFloatType(leftType)
	switch e.Operator {
	case "+":
		g.Instr(pick(float, "ADDF", "ADD"))
	case "-":
		g.Instr(pick(float, "SUBF", "SUB"))
	case "*":
		g.Instr(pick(float, "MULF", "MUL"))
	case "/":
		g.Instr(pick(float, "DIVF", "DIV"))
	case "MOD":
		g.Instr("MOD")
	case "=":
		g.Instr("EQ")
	case "<>":
		g.Instr("EQ")
		g.Instr("NOT")
		g.Instr("PUSH", "1")
		g.Instr("AND")
	case "<":
		g.Instr("LT")
	case "<=":
		g.Instr("LE")
	case ">":
		g.Instr("GT")
	case ">=":
		g.Instr("GE")
	default:
		return g.errf(e.Position, "unsupported binary operator %q", e.Operator)
	}
	return nil
}

// compileStringBinary lowers `=`/`<>` on STRING operands to a byte-level
// comparison; any other operator (notably `+`, which some dialects treat
// as concatenation) is rejected, matching CONCAT's existence as an
// explicit stdlib function rather than an operator overload.
func (g *Generator) compileStringBinary(e *ast.BinaryExpression) error {
	switch e.Operator {
	case "=":
		return g.compileStringEquality(e.Left, e.Right)
	case "<>":
		if err := g.compileStringEquality(e.Left, e.Right); err != nil {
			return err
		}
		g.Instr("NOT")
		g.Instr("PUSH", "1")
		g.Instr("AND")
		return nil
	default:
		return g.errf(e.Position, "operator %q is not defined for STRING operands", e.Operator)
	}
}

// compileStringEquality evaluates left and right exactly once (each may
// carry side effects, e.g. a CONCAT call allocating a fresh result
// buffer), stashes their header addresses in a pair of dedicated scratch
// work slots, compares lengths, then walks the shorter of the two byte by
// byte. The loop mirrors internal/stdlib/functions_string.go's FIND
// template, the only other place this codebase walks a string by hand.
func (g *Generator) compileStringEquality(left, right ast.Expression) error {
	addrL, addrR, idx := g.allocScratch(4), g.allocScratch(4), g.allocScratch(4)

	if err := g.compileExpr(left); err != nil {
		return err
	}
	g.Instr("DSTORE", itoa(addrL))
	if err := g.compileExpr(right); err != nil {
		return err
	}
	g.Instr("DSTORE", itoa(addrR))

	lTrue := g.NewLabel("streq_true")
	lFalse := g.NewLabel("streq_false")
	lLoop := g.NewLabel("streq_loop")
	lEnd := g.NewLabel("streq_end")

	g.Instr("DLOAD", itoa(addrL))
	g.Instr("WLOADIN")
	g.Instr("DLOAD", itoa(addrR))
	g.Instr("WLOADIN")
	g.Instr("EQ")
	g.Instr("JZ", lFalse)

	g.Instr("PUSH", "0")
	g.Instr("DSTORE", itoa(idx))
	g.Label(lLoop)
	g.Instr("DLOAD", itoa(idx))
	g.Instr("DLOAD", itoa(addrL))
	g.Instr("WLOADIN")
	g.Instr("GE")
	g.Instr("JNZ", lTrue)

	g.Instr("DLOAD", itoa(addrL))
	g.Instr("PUSH", itoa(stringHeaderBytes))
	g.Instr("ADD")
	g.Instr("DLOAD", itoa(idx))
	g.Instr("ADD")
	g.Instr("BLOADIN")
	g.Instr("DLOAD", itoa(addrR))
	g.Instr("PUSH", itoa(stringHeaderBytes))
	g.Instr("ADD")
	g.Instr("DLOAD", itoa(idx))
	g.Instr("ADD")
	g.Instr("BLOADIN")
	g.Instr("EQ")
	g.Instr("JZ", lFalse)

	g.Instr("DLOAD", itoa(idx))
	g.Instr("PUSH", "1")
	g.Instr("ADD")
	g.Instr("DSTORE", itoa(idx))
	g.Instr("JMP", lLoop)

	g.Label(lFalse)
	g.Instr("PUSH", "0")
	g.Instr("JMP", lEnd)
	g.Label(lTrue)
	g.Instr("PUSH", "1")
	g.Label(lEnd)
	return nil
}

func (g *Generator) compileRef(e *ast.RefExpression) error {
	lv, err := g.emitAddress(e.Target)
	if err != nil {
		return err
	}
	if lv.indirect {
		return nil
	}
	g.Instr("PUSH", itoa(lv.constAddr))
	return nil
}

func pick(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

func isBoolType(t types.Type) bool {
	et, ok := t.(*types.ElementaryType)
	return ok && et.Kind() == types.BOOL
}

func isStringType(t types.Type) bool {
	_, ok := t.(*types.StringType)
	return ok
}

// resolveExprType infers expr's static type without emitting any code,
// for the operator/width dispatch decisions compileExpr's callers need to
// make before choosing an opcode.
func (g *Generator) resolveExprType(expr ast.Expression) (types.Type, error) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		return types.Dint, nil
	case *ast.RealLiteral:
		return types.Real, nil
	case *ast.BoolLiteral:
		return types.Bool, nil
	case *ast.StringLiteral:
		return types.NewStringType(e.Wide), nil
	case *ast.TimeLiteral:
		return types.Time, nil
	case *ast.DateLiteral:
		return types.Date, nil
	case *ast.TODLiteral:
		return types.Tod, nil
	case *ast.DTLiteral:
		return types.Dt, nil
	case *ast.Identifier:
		sym, err := g.resolveRoot(e.Value, e.Position)
		if err != nil {
			return nil, err
		}
		return sym.Type, nil
	case *ast.ThisExpression:
		if g.fbInstance == nil {
			return nil, g.errf(e.Position, "THIS used outside a function block method")
		}
		return g.fbInstance.Type, nil
	case *ast.MemberAccessExpression:
		baseType, err := g.resolveExprType(e.Object)
		if err != nil {
			return nil, err
		}
		m, err := lookupMember(baseType, e.Member.Value)
		if err != nil {
			return nil, g.errf(e.Position, "%s", err)
		}
		return m.Type, nil
	case *ast.ArrayAccessExpression:
		baseType, err := g.resolveExprType(e.Object)
		if err != nil {
			return nil, err
		}
		arr, ok := baseType.(*types.ArrayType)
		if !ok {
			return nil, g.errf(e.Position, "index applied to non-array type %s", baseType.String())
		}
		return arr.Element, nil
	case *ast.DerefExpression:
		baseType, err := g.resolveExprType(e.Target)
		if err != nil {
			return nil, err
		}
		ptr, ok := baseType.(*types.PointerType)
		if !ok {
			return nil, g.errf(e.Position, "dereference applied to non-pointer type %s", baseType.String())
		}
		return ptr.Base, nil
	case *ast.UnaryExpression:
		if e.Operator == "NOT" {
			return types.Bool, nil
		}
		return g.resolveExprType(e.Operand)
	case *ast.BinaryExpression:
		switch e.Operator {
		case "=", "<>", "<", "<=", ">", ">=", "AND", "OR", "XOR":
			return types.Bool, nil
		default:
			return g.resolveExprType(e.Left)
		}
	case *ast.RefExpression:
		t, err := g.resolveExprType(e.Target)
		if err != nil {
			return nil, err
		}
		return &types.PointerType{Base: t}, nil
	case *ast.CallExpression:
		return g.callReturnType(e)
	case *ast.MethodCallExpression:
		return g.methodReturnType(e)
	default:
		return nil, g.errf(expr.Pos(), "cannot infer type of expression %T", expr)
	}
}
