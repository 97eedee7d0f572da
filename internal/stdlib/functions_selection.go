package stdlib

import (
	"github.com/eduardojvieira/stc/internal/symbols"
	"github.com/eduardojvieira/stc/internal/types"
)

// registerSelectionFunctions registers the stateless comparison/selection
// functions: MIN, MAX, LIMIT, SEL, MUX. All operate on DINT; the catalog
// holds one descriptor per name, so there are no REAL variants.
//
// Each template evaluates its argument expressions directly (rather than
// juggling already-pushed values with stack-shuffle ops) so the emitted
// code needs nothing beyond the comparison/branch vocabulary the rest of
// the catalog already uses.
func registerSelectionFunctions(c *Catalog) {
	registerMin(c)
	registerMax(c)
	registerLimit(c)
	registerSel(c)
	registerMux(c)
}

// registerMin registers MIN(IN1, IN2): IN1 if IN1 <= IN2, else IN2.
func registerMin(c *Catalog) {
	c.addFunction("MIN", &symbols.StdlibFunctionType{Name: "MIN", Arity: 2, ReturnType: types.Dint, ParamNames: []string{"IN1", "IN2"}}, func(cap *Capability) error {
		cap.Sink.Comment("MIN")
		lTakeIn2 := cap.Labels.NewLabel("min_take_in2")
		lEnd := cap.Labels.NewLabel("min_end")
		if err := cap.EvalArg("IN1"); err != nil {
			return err
		}
		if err := cap.EvalArg("IN2"); err != nil {
			return err
		}
		cap.Sink.Instr("GT")
		cap.Sink.Instr("JNZ", lTakeIn2)
		if err := cap.EvalArg("IN1"); err != nil {
			return err
		}
		cap.Sink.Instr("JMP", lEnd)
		cap.Sink.Label(lTakeIn2)
		if err := cap.EvalArg("IN2"); err != nil {
			return err
		}
		cap.Sink.Label(lEnd)
		return nil
	})
}

// registerMax registers MAX(IN1, IN2): IN1 if IN1 >= IN2, else IN2.
func registerMax(c *Catalog) {
	c.addFunction("MAX", &symbols.StdlibFunctionType{Name: "MAX", Arity: 2, ReturnType: types.Dint, ParamNames: []string{"IN1", "IN2"}}, func(cap *Capability) error {
		cap.Sink.Comment("MAX")
		lTakeIn2 := cap.Labels.NewLabel("max_take_in2")
		lEnd := cap.Labels.NewLabel("max_end")
		if err := cap.EvalArg("IN1"); err != nil {
			return err
		}
		if err := cap.EvalArg("IN2"); err != nil {
			return err
		}
		cap.Sink.Instr("LT")
		cap.Sink.Instr("JNZ", lTakeIn2)
		if err := cap.EvalArg("IN1"); err != nil {
			return err
		}
		cap.Sink.Instr("JMP", lEnd)
		cap.Sink.Label(lTakeIn2)
		if err := cap.EvalArg("IN2"); err != nil {
			return err
		}
		cap.Sink.Label(lEnd)
		return nil
	})
}

// registerLimit registers LIMIT(MN, IN, MX): clamps IN to [MN, MX].
func registerLimit(c *Catalog) {
	c.addFunction("LIMIT", &symbols.StdlibFunctionType{Name: "LIMIT", Arity: 3, ReturnType: types.Dint, ParamNames: []string{"MN", "IN", "MX"}}, func(cap *Capability) error {
		cap.Sink.Comment("LIMIT")
		lCheckHigh := cap.Labels.NewLabel("limit_check_high")
		lIdentity := cap.Labels.NewLabel("limit_identity")
		lEnd := cap.Labels.NewLabel("limit_end")

		if err := cap.EvalArg("IN"); err != nil {
			return err
		}
		if err := cap.EvalArg("MN"); err != nil {
			return err
		}
		cap.Sink.Instr("LT")
		cap.Sink.Instr("JZ", lCheckHigh)
		if err := cap.EvalArg("MN"); err != nil {
			return err
		}
		cap.Sink.Instr("JMP", lEnd)

		cap.Sink.Label(lCheckHigh)
		if err := cap.EvalArg("IN"); err != nil {
			return err
		}
		if err := cap.EvalArg("MX"); err != nil {
			return err
		}
		cap.Sink.Instr("GT")
		cap.Sink.Instr("JZ", lIdentity)
		if err := cap.EvalArg("MX"); err != nil {
			return err
		}
		cap.Sink.Instr("JMP", lEnd)

		cap.Sink.Label(lIdentity)
		if err := cap.EvalArg("IN"); err != nil {
			return err
		}
		cap.Sink.Label(lEnd)
		return nil
	})
}

// registerSel registers SEL(G, IN0, IN1): returns IN1 if G is true, IN0
// otherwise.
func registerSel(c *Catalog) {
	c.addFunction("SEL", &symbols.StdlibFunctionType{Name: "SEL", Arity: 3, ReturnType: types.Dint, ParamNames: []string{"G", "IN0", "IN1"}}, func(cap *Capability) error {
		cap.Sink.Comment("SEL")
		lIn1 := cap.Labels.NewLabel("sel_in1")
		lEnd := cap.Labels.NewLabel("sel_end")
		if err := cap.EvalArg("G"); err != nil {
			return err
		}
		cap.Sink.Instr("JNZ", lIn1)
		if err := cap.EvalArg("IN0"); err != nil {
			return err
		}
		cap.Sink.Instr("JMP", lEnd)
		cap.Sink.Label(lIn1)
		if err := cap.EvalArg("IN1"); err != nil {
			return err
		}
		cap.Sink.Label(lEnd)
		return nil
	})
}

// registerMux registers MUX(K, IN0, IN1, IN2, IN3): returns the K-th input
// (0-based), defaulting to IN0 for an out-of-range K. A project needing a
// wider MUX declares its own chain of nested MUX calls.
func registerMux(c *Catalog) {
	c.addFunction("MUX", &symbols.StdlibFunctionType{Name: "MUX", Arity: 5, ReturnType: types.Dint, ParamNames: []string{"K", "IN0", "IN1", "IN2", "IN3"}}, func(cap *Capability) error {
		cap.Sink.Comment("MUX")
		caseLabels := make([]string, 4)
		for i := range caseLabels {
			caseLabels[i] = cap.Labels.NewLabel("mux_case")
		}
		lDefault := cap.Labels.NewLabel("mux_default")
		lEnd := cap.Labels.NewLabel("mux_end")

		if err := cap.EvalArg("K"); err != nil {
			return err
		}
		for i := 0; i < 4; i++ {
			cap.Sink.Instr("DUP")
			cap.Sink.Instr("PUSH", itoa(i))
			cap.Sink.Instr("EQ")
			cap.Sink.Instr("JNZ", caseLabels[i])
		}
		cap.Sink.Instr("JMP", lDefault)
		for i, name := range []string{"IN0", "IN1", "IN2", "IN3"} {
			cap.Sink.Label(caseLabels[i])
			cap.Sink.Instr("DROP") // drop K
			if err := cap.EvalArg(name); err != nil {
				return err
			}
			cap.Sink.Instr("JMP", lEnd)
		}
		cap.Sink.Label(lDefault)
		cap.Sink.Instr("DROP") // drop K
		if err := cap.EvalArg("IN0"); err != nil {
			return err
		}
		cap.Sink.Label(lEnd)
		return nil
	})
}
