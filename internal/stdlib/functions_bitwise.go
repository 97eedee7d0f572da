package stdlib

import (
	"github.com/eduardojvieira/stc/internal/symbols"
	"github.com/eduardojvieira/stc/internal/types"
)

// registerBitwiseFunctions registers the stateless bitwise operators
// SHL/SHR (shift by a second DINT operand) and ROL/ROR (rotate), which
// IEC 61131-3 exposes as functions rather than binary-expression operators.
// AND/OR/XOR/NOT already exist as logical operators in expression lowering
// and need no catalog entry here.
func registerBitwiseFunctions(c *Catalog) {
	registerShift(c, "SHL")
	registerShift(c, "SHR")
	registerRotate(c, "ROL", true)
	registerRotate(c, "ROR", false)
}

// registerShift registers SHL/SHR(IN, N).
func registerShift(c *Catalog, name string) {
	c.addFunction(name, &symbols.StdlibFunctionType{Name: name, Arity: 2, ReturnType: types.Dint, ParamNames: []string{"IN", "N"}}, func(cap *Capability) error {
		cap.Sink.Comment("%s", name)
		if err := cap.EvalArg("IN"); err != nil {
			return err
		}
		if err := cap.EvalArg("N"); err != nil {
			return err
		}
		cap.Sink.Instr(name)
		return nil
	})
}

// registerRotate registers ROL/ROR(IN, N): rotate IN left/right by N bits
// within a 32-bit word, synthesized as `(IN shiftOut N) | (IN shiftBack
// (32-N))` since the VM has no native rotate opcode. IN and N are each
// re-evaluated per use rather than duplicated on stack.
func registerRotate(c *Catalog, name string, left bool) {
	shiftOut, shiftBack := "SHL", "SHR"
	if !left {
		shiftOut, shiftBack = "SHR", "SHL"
	}
	c.addFunction(name, &symbols.StdlibFunctionType{Name: name, Arity: 2, ReturnType: types.Dint, ParamNames: []string{"IN", "N"}}, func(cap *Capability) error {
		cap.Sink.Comment("%s", name)
		if err := cap.EvalArg("IN"); err != nil {
			return err
		}
		if err := cap.EvalArg("N"); err != nil {
			return err
		}
		cap.Sink.Instr(shiftOut)
		if err := cap.EvalArg("IN"); err != nil {
			return err
		}
		cap.Sink.Instr("PUSH", "32")
		if err := cap.EvalArg("N"); err != nil {
			return err
		}
		cap.Sink.Instr("SUB")
		cap.Sink.Instr(shiftBack)
		cap.Sink.Instr("OR")
		return nil
	})
}
