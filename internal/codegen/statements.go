package codegen

import (
	"github.com/eduardojvieira/stc/internal/ast"
)

// compileStatement lowers one statement per spec.md §4.6's statement
// lowering rules, emitting a source annotation ahead of it.
func (g *Generator) compileStatement(stmt ast.Statement) error {
	g.annotateSource(stmt.Pos())
	switch s := stmt.(type) {
	case *ast.AssignStatement:
		return g.compileAssign(s)
	case *ast.IfStatement:
		return g.compileIf(s)
	case *ast.WhileStatement:
		return g.compileWhile(s)
	case *ast.ForStatement:
		return g.compileFor(s)
	case *ast.RepeatStatement:
		return g.compileRepeat(s)
	case *ast.CaseStatement:
		return g.compileCase(s)
	case *ast.ExitStatement:
		if len(g.loopStack) == 0 {
			return g.errf(s.Position, "EXIT used outside a loop")
		}
		g.Instr("JMP", g.loopStack[len(g.loopStack)-1].exitLabel)
		return nil
	case *ast.ContinueStatement:
		if len(g.loopStack) == 0 {
			return g.errf(s.Position, "CONTINUE used outside a loop")
		}
		g.Instr("JMP", g.loopStack[len(g.loopStack)-1].continueLabel)
		return nil
	case *ast.ReturnStatement:
		switch {
		case g.method != nil:
			g.Instr("JMP", g.methodExitLabel)
		case g.fn != nil:
			g.Instr("JMP", g.fnExitLabel)
		default:
			g.Instr("HALT")
		}
		return nil
	case *ast.CallStatement:
		return g.compileCallStatement(s)
	case *ast.ExpressionStatement:
		return g.compileExpressionStatement(s)
	default:
		return g.errf(stmt.Pos(), "unsupported statement %T", stmt)
	}
}

// compileAssign evaluates the value first, then resolves and stores to
// the target, per the *STOREIN calling convention (value pushed, then
// address): internal/stdlib's FIND/CONCAT templates already rely on this
// ordering for indirect stores, so assignment lowering must match it.
// The reserved target name `_` discards the value instead of storing it,
// used to drop a method-call statement's result.
func (g *Generator) compileAssign(s *ast.AssignStatement) error {
	if id, ok := s.Target.(*ast.Identifier); ok && id.Value == "_" {
		if err := g.compileExpr(s.Value); err != nil {
			return err
		}
		g.Instr("DROP")
		return nil
	}
	if err := g.compileExpr(s.Value); err != nil {
		return err
	}
	lv, err := g.emitAddress(s.Target)
	if err != nil {
		return err
	}
	g.emitStoreLValue(lv)
	return nil
}

// compileIf lowers an IF/ELSIF/ELSE chain: one `next` label per branch
// skipped on a false condition, falling through to ELSE (if any), with a
// single shared end label every branch jumps to after its body.
func (g *Generator) compileIf(s *ast.IfStatement) error {
	end := g.NewLabel("if_end")
	for _, br := range s.Branches {
		next := g.NewLabel("if_next")
		if err := g.compileExpr(br.Condition); err != nil {
			return err
		}
		g.Instr("JZ", next)
		for _, stmt := range br.Body {
			if err := g.compileStatement(stmt); err != nil {
				return err
			}
		}
		g.Instr("JMP", end)
		g.Label(next)
	}
	for _, stmt := range s.Else {
		if err := g.compileStatement(stmt); err != nil {
			return err
		}
	}
	g.Label(end)
	return nil
}

func (g *Generator) pushLoop(continueLabel, exitLabel string) {
	g.loopStack = append(g.loopStack, &loopContext{continueLabel: continueLabel, exitLabel: exitLabel})
}

func (g *Generator) popLoop() {
	g.loopStack = g.loopStack[:len(g.loopStack)-1]
}

func (g *Generator) compileWhile(s *ast.WhileStatement) error {
	top := g.NewLabel("while_top")
	end := g.NewLabel("while_end")
	g.pushLoop(top, end)
	defer g.popLoop()

	g.Label(top)
	if err := g.compileExpr(s.Condition); err != nil {
		return err
	}
	g.Instr("JZ", end)
	for _, stmt := range s.Body {
		if err := g.compileStatement(stmt); err != nil {
			return err
		}
	}
	g.Instr("JMP", top)
	g.Label(end)
	return nil
}

// compileRepeat's continue label sits at the UNTIL condition check, so
// CONTINUE re-evaluates the condition (and loops again if still false)
// rather than blindly restarting the body, matching a REPEAT loop's
// test-after-body semantics.
func (g *Generator) compileRepeat(s *ast.RepeatStatement) error {
	top := g.NewLabel("repeat_top")
	check := g.NewLabel("repeat_check")
	end := g.NewLabel("repeat_end")
	g.pushLoop(check, end)
	defer g.popLoop()

	g.Label(top)
	for _, stmt := range s.Body {
		if err := g.compileStatement(stmt); err != nil {
			return err
		}
	}
	g.Label(check)
	if err := g.compileExpr(s.Condition); err != nil {
		return err
	}
	g.Instr("JZ", top)
	g.Label(end)
	return nil
}

// compileFor evaluates start/end/step exactly once into the counter
// variable and two scratch slots, then loops while counter <= end,
// testing `counter > end` and jumping to exit on true, per spec.md
// §4.6. CONTINUE jumps to the increment step, not the body's top.
func (g *Generator) compileFor(s *ast.ForStatement) error {
	sym, err := g.resolveRoot(s.Counter.Value, s.Counter.Position)
	if err != nil {
		return err
	}
	width := sym.Size

	if err := g.compileExpr(s.Start); err != nil {
		return err
	}
	g.Instr(sizeOp(width, true), itoa(sym.Address))

	endAddr := g.allocScratch(width)
	if err := g.compileExpr(s.End); err != nil {
		return err
	}
	g.Instr(sizeOp(width, true), itoa(endAddr))

	stepAddr := g.allocScratch(width)
	if s.Step != nil {
		if err := g.compileExpr(s.Step); err != nil {
			return err
		}
	} else {
		g.Instr("PUSH", "1")
	}
	g.Instr(sizeOp(width, true), itoa(stepAddr))

	top := g.NewLabel("for_top")
	step := g.NewLabel("for_step")
	end := g.NewLabel("for_end")
	g.pushLoop(step, end)
	defer g.popLoop()

	g.Label(top)
	g.Instr(sizeOp(width, false), itoa(sym.Address))
	g.Instr(sizeOp(width, false), itoa(endAddr))
	g.Instr("GT")
	g.Instr("JNZ", end)

	for _, stmt := range s.Body {
		if err := g.compileStatement(stmt); err != nil {
			return err
		}
	}

	g.Label(step)
	g.Instr(sizeOp(width, false), itoa(sym.Address))
	g.Instr(sizeOp(width, false), itoa(stepAddr))
	g.Instr("ADD")
	g.Instr(sizeOp(width, true), itoa(sym.Address))
	g.Instr("JMP", top)
	g.Label(end)
	return nil
}

// compileCase mirrors internal/stdlib/functions_selection.go's MUX
// template, the catalog's own existing DUP/compare/JNZ dispatch idiom:
// the selector is evaluated once and kept on stack through every
// comparison (each comparison DUPs its own working copy), and a match
// DROPs the selector before running its branch body. A range value
// needs two comparisons chained by a JZ past the second when the low
// bound already fails.
func (g *Generator) compileCase(s *ast.CaseStatement) error {
	if err := g.compileExpr(s.Selector); err != nil {
		return err
	}

	end := g.NewLabel("case_end")
	bodyLabels := make([]string, len(s.Branches))
	for i := range s.Branches {
		bodyLabels[i] = g.NewLabel("case_body")
	}

	for i, br := range s.Branches {
		for _, v := range br.Values {
			if v.IsRange() {
				rangeFail := g.NewLabel("case_range_fail")
				g.Instr("DUP")
				if err := g.compileExpr(v.RangeLow); err != nil {
					return err
				}
				g.Instr("GE")
				g.Instr("JZ", rangeFail)
				g.Instr("DUP")
				if err := g.compileExpr(v.RangeHi); err != nil {
					return err
				}
				g.Instr("LE")
				g.Instr("JNZ", bodyLabels[i])
				g.Label(rangeFail)
			} else {
				g.Instr("DUP")
				if err := g.compileExpr(v.Single); err != nil {
					return err
				}
				g.Instr("EQ")
				g.Instr("JNZ", bodyLabels[i])
			}
		}
	}

	g.Instr("DROP")
	for _, stmt := range s.Else {
		if err := g.compileStatement(stmt); err != nil {
			return err
		}
	}
	g.Instr("JMP", end)

	for i, br := range s.Branches {
		g.Label(bodyLabels[i])
		g.Instr("DROP")
		for _, stmt := range br.Body {
			if err := g.compileStatement(stmt); err != nil {
				return err
			}
		}
		g.Instr("JMP", end)
	}
	g.Label(end)
	return nil
}

// compileExpressionStatement lowers a bare method-call statement (the
// only expression form legal in statement position). A void method
// leaves nothing to discard; one with a return type leaves its result
// on stack and must DROP it, since nothing consumes it here.
func (g *Generator) compileExpressionStatement(s *ast.ExpressionStatement) error {
	hasValue, err := g.exprProducesValue(s.Expr)
	if err != nil {
		return err
	}
	if err := g.compileExpr(s.Expr); err != nil {
		return err
	}
	if hasValue {
		g.Instr("DROP")
	}
	return nil
}
