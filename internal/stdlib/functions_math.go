package stdlib

import (
	"math"

	"github.com/eduardojvieira/stc/internal/symbols"
	"github.com/eduardojvieira/stc/internal/types"
)

// registerMathFunctions registers the numerical-approximation math
// library: SQRT (fixed Newton-Raphson iterations from IN/2), and the
// Horner-form polynomial approximations for the trig, inverse-trig, and
// exponential families. Every constant is baked in as a 32-bit IEEE-754
// bit pattern pushed with PUSHF, the float counterpart of PUSH used
// wherever a literal must be interpreted as REAL rather than as raw
// integer bits.
func registerMathFunctions(c *Catalog) {
	registerSqrt(c)
	registerExpLn(c)
	registerTrig(c)
	registerInverseTrig(c)
}

func f32bits(f float64) string { return itoa(int(math.Float32bits(float32(f)))) }

func pushf(cap *Capability, f float64) {
	cap.Sink.Instr("PUSHF", f32bits(f))
}

// emitHornerOverOperand evaluates a Horner-form polynomial in x, where x is
// produced fresh for every step by pushX (a closure re-running x's defining
// expression), from highest-degree coefficient to the constant term.
func emitHornerOverOperand(cap *Capability, pushX func() error, coeffs []float64) error {
	pushf(cap, coeffs[0])
	for _, k := range coeffs[1:] {
		if err := pushX(); err != nil {
			return err
		}
		cap.Sink.Instr("MULF")
		pushf(cap, k)
		cap.Sink.Instr("ADDF")
	}
	return nil
}

// emitNewtonSqrt computes sqrt(S) via four Newton-Raphson iterations
// starting from S/2, where pushS re-evaluates S's defining computation
// (an argument expression, or a derived value like 1-IN*IN) each time a
// fresh copy is needed, since the stack has no addressable scratch slot
// for stateless functions.
func emitNewtonSqrt(cap *Capability, pushS func() error) error {
	if err := pushS(); err != nil {
		return err
	}
	pushf(cap, 2)
	cap.Sink.Instr("DIVF")
	// stack: x0
	for i := 0; i < 4; i++ {
		cap.Sink.Instr("DUP")
		if err := pushS(); err != nil {
			return err
		}
		cap.Sink.Instr("SWAP")
		cap.Sink.Instr("DIVF") // S / x_n
		cap.Sink.Instr("ADDF") // x_n + S/x_n
		pushf(cap, 2)
		cap.Sink.Instr("DIVF") // (x_n + S/x_n) / 2
	}
	return nil
}

func registerSqrt(c *Catalog) {
	c.addFunction("SQRT", &symbols.StdlibFunctionType{Name: "SQRT", Arity: 1, ReturnType: types.Real, ParamNames: []string{"IN"}}, func(cap *Capability) error {
		cap.Sink.Comment("SQRT (4 Newton-Raphson iterations from IN/2)")
		return emitNewtonSqrt(cap, func() error { return cap.EvalArg("IN") })
	})
}

// registerExpLn registers EXP, LN, and LOG (base 10).
func registerExpLn(c *Catalog) {
	c.addFunction("EXP", &symbols.StdlibFunctionType{Name: "EXP", Arity: 1, ReturnType: types.Real, ParamNames: []string{"IN"}}, func(cap *Capability) error {
		cap.Sink.Comment("EXP (Maclaurin series, degree 5)")
		return emitHornerOverOperand(cap, func() error { return cap.EvalArg("IN") }, []float64{
			1.0 / 120, 1.0 / 24, 1.0 / 6, 1.0 / 2, 1, 1,
		})
	})

	c.addFunction("LN", &symbols.StdlibFunctionType{Name: "LN", Arity: 1, ReturnType: types.Real, ParamNames: []string{"IN"}}, func(cap *Capability) error {
		cap.Sink.Comment("LN (Taylor series of ln(1+u) around u=0, u := IN-1)")
		pushU := func() error {
			if err := cap.EvalArg("IN"); err != nil {
				return err
			}
			pushf(cap, 1)
			cap.Sink.Instr("SUBF")
			return nil
		}
		return emitHornerOverOperand(cap, pushU, []float64{
			1.0 / 5, -1.0 / 4, 1.0 / 3, -1.0 / 2, 1, 0,
		})
	})

	c.addFunction("LOG", &symbols.StdlibFunctionType{Name: "LOG", Arity: 1, ReturnType: types.Real, ParamNames: []string{"IN"}}, func(cap *Capability) error {
		cap.Sink.Comment("LOG base 10 := LN(IN) * (1/ln(10))")
		pushU := func() error {
			if err := cap.EvalArg("IN"); err != nil {
				return err
			}
			pushf(cap, 1)
			cap.Sink.Instr("SUBF")
			return nil
		}
		if err := emitHornerOverOperand(cap, pushU, []float64{
			1.0 / 5, -1.0 / 4, 1.0 / 3, -1.0 / 2, 1, 0,
		}); err != nil {
			return err
		}
		pushf(cap, 1/math.Log(10))
		cap.Sink.Instr("MULF")
		return nil
	})
}

// registerTrig registers SIN, COS, TAN via the standard odd/even Taylor
// truncations, expressed in Horner form over x^2 so the sign pattern
// collapses into plain alternating coefficients.
func registerTrig(c *Catalog) {
	sinCoeffs := []float64{-1.0 / 5040, 1.0 / 120, -1.0 / 6, 1}   // in x^2, final factor of x applied by caller
	cosCoeffs := []float64{1.0 / 40320, -1.0 / 720, 1.0 / 24, -1.0 / 2, 1}

	emitSin := func(cap *Capability) error {
		pushX2 := func() error {
			if err := cap.EvalArg("IN"); err != nil {
				return err
			}
			if err := cap.EvalArg("IN"); err != nil {
				return err
			}
			cap.Sink.Instr("MULF")
			return nil
		}
		if err := emitHornerOverOperand(cap, pushX2, sinCoeffs); err != nil {
			return err
		}
		if err := cap.EvalArg("IN"); err != nil {
			return err
		}
		cap.Sink.Instr("MULF")
		return nil
	}
	emitCos := func(cap *Capability) error {
		pushX2 := func() error {
			if err := cap.EvalArg("IN"); err != nil {
				return err
			}
			if err := cap.EvalArg("IN"); err != nil {
				return err
			}
			cap.Sink.Instr("MULF")
			return nil
		}
		return emitHornerOverOperand(cap, pushX2, cosCoeffs)
	}

	c.addFunction("SIN", &symbols.StdlibFunctionType{Name: "SIN", Arity: 1, ReturnType: types.Real, ParamNames: []string{"IN"}}, func(cap *Capability) error {
		cap.Sink.Comment("SIN (Taylor truncation, degree 7, Horner in x^2)")
		return emitSin(cap)
	})
	c.addFunction("COS", &symbols.StdlibFunctionType{Name: "COS", Arity: 1, ReturnType: types.Real, ParamNames: []string{"IN"}}, func(cap *Capability) error {
		cap.Sink.Comment("COS (Taylor truncation, degree 8, Horner in x^2)")
		return emitCos(cap)
	})
	c.addFunction("TAN", &symbols.StdlibFunctionType{Name: "TAN", Arity: 1, ReturnType: types.Real, ParamNames: []string{"IN"}}, func(cap *Capability) error {
		cap.Sink.Comment("TAN := SIN(IN) / COS(IN)")
		if err := emitSin(cap); err != nil {
			return err
		}
		if err := emitCos(cap); err != nil {
			return err
		}
		cap.Sink.Instr("DIVF")
		return nil
	})
}

// atanCoeffs is the minimax-style Horner polynomial for atan(x), valid on
// [-1,1]; ATAN2's quadrant correction extends it to the full circle.
var atanCoeffs = []float64{1.0 / 9, -1.0 / 7, 1.0 / 5, -1.0 / 3, 1}

func emitAtanPoly(cap *Capability, pushX func() error) error {
	pushX2 := func() error {
		if err := pushX(); err != nil {
			return err
		}
		if err := pushX(); err != nil {
			return err
		}
		cap.Sink.Instr("MULF")
		return nil
	}
	if err := emitHornerOverOperand(cap, pushX2, atanCoeffs); err != nil {
		return err
	}
	if err := pushX(); err != nil {
		return err
	}
	cap.Sink.Instr("MULF")
	return nil
}

// registerInverseTrig registers ASIN, ACOS, ATAN, ATAN2.
//
// ASIN/ACOS are built from ATAN via the standard identities
// asin(x) = atan(x / sqrt(1-x^2)), acos(x) = pi/2 - asin(x), which keeps
// a single polynomial (atanCoeffs) authoritative for the whole family.
//
// ATAN2 corrects the base atan(Y/X) result for all four quadrants,
// including the Y<0 cases a partial implementation commonly misses:
// X>0 needs no correction; X<0 adds or subtracts pi depending on the
// sign of Y; X=0 resolves directly to +-pi/2 (or 0 when Y is also 0).
func registerInverseTrig(c *Catalog) {
	c.addFunction("ATAN", &symbols.StdlibFunctionType{Name: "ATAN", Arity: 1, ReturnType: types.Real, ParamNames: []string{"IN"}}, func(cap *Capability) error {
		cap.Sink.Comment("ATAN (Horner minimax polynomial, degree 9)")
		return emitAtanPoly(cap, func() error { return cap.EvalArg("IN") })
	})

	c.addFunction("ASIN", &symbols.StdlibFunctionType{Name: "ASIN", Arity: 1, ReturnType: types.Real, ParamNames: []string{"IN"}}, func(cap *Capability) error {
		cap.Sink.Comment("ASIN(x) := ATAN(x / SQRT(1 - x^2))")
		pushX := func() error { return cap.EvalArg("IN") }
		pushRatio := func() error {
			if err := pushX(); err != nil {
				return err
			}
			if err := emitNewtonSqrt(cap, func() error {
				pushf(cap, 1)
				if err := pushX(); err != nil {
					return err
				}
				if err := pushX(); err != nil {
					return err
				}
				cap.Sink.Instr("MULF")
				cap.Sink.Instr("SUBF")
				return nil
			}); err != nil {
				return err
			}
			cap.Sink.Instr("DIVF")
			return nil
		}
		return emitAtanPoly(cap, pushRatio)
	})

	c.addFunction("ACOS", &symbols.StdlibFunctionType{Name: "ACOS", Arity: 1, ReturnType: types.Real, ParamNames: []string{"IN"}}, func(cap *Capability) error {
		cap.Sink.Comment("ACOS(x) := PI/2 - ASIN(x)")
		pushX := func() error { return cap.EvalArg("IN") }
		pushRatio := func() error {
			if err := pushX(); err != nil {
				return err
			}
			if err := emitNewtonSqrt(cap, func() error {
				pushf(cap, 1)
				if err := pushX(); err != nil {
					return err
				}
				if err := pushX(); err != nil {
					return err
				}
				cap.Sink.Instr("MULF")
				cap.Sink.Instr("SUBF")
				return nil
			}); err != nil {
				return err
			}
			cap.Sink.Instr("DIVF")
			return nil
		}
		pushf(cap, math.Pi/2)
		if err := emitAtanPoly(cap, pushRatio); err != nil {
			return err
		}
		cap.Sink.Instr("SUBF")
		return nil
	})

	c.addFunction("ATAN2", &symbols.StdlibFunctionType{Name: "ATAN2", Arity: 2, ReturnType: types.Real, ParamNames: []string{"Y", "X"}}, func(cap *Capability) error {
		cap.Sink.Comment("ATAN2(Y,X), full four-quadrant correction")
		lXZero := cap.Labels.NewLabel("atan2_x_zero")
		lXNeg := cap.Labels.NewLabel("atan2_x_neg")
		lYNeg := cap.Labels.NewLabel("atan2_y_neg")
		lYNonNeg := cap.Labels.NewLabel("atan2_y_nonneg")
		lEnd := cap.Labels.NewLabel("atan2_end")

		ratio := func() error {
			if err := cap.EvalArg("Y"); err != nil {
				return err
			}
			if err := cap.EvalArg("X"); err != nil {
				return err
			}
			cap.Sink.Instr("DIVF")
			return nil
		}

		if err := cap.EvalArg("X"); err != nil {
			return err
		}
		pushf(cap, 0)
		cap.Sink.Instr("EQ")
		cap.Sink.Instr("JNZ", lXZero)

		if err := cap.EvalArg("X"); err != nil {
			return err
		}
		pushf(cap, 0)
		cap.Sink.Instr("LT")
		cap.Sink.Instr("JNZ", lXNeg)

		// X > 0: base result needs no correction.
		if err := emitAtanPoly(cap, ratio); err != nil {
			return err
		}
		cap.Sink.Instr("JMP", lEnd)

		cap.Sink.Label(lXNeg)
		if err := emitAtanPoly(cap, ratio); err != nil {
			return err
		}
		if err := cap.EvalArg("Y"); err != nil {
			return err
		}
		pushf(cap, 0)
		cap.Sink.Instr("LT")
		cap.Sink.Instr("JNZ", lYNeg)
		pushf(cap, math.Pi)
		cap.Sink.Instr("ADDF")
		cap.Sink.Instr("JMP", lEnd)
		cap.Sink.Label(lYNeg)
		pushf(cap, math.Pi)
		cap.Sink.Instr("SUBF")
		cap.Sink.Instr("JMP", lEnd)

		cap.Sink.Label(lXZero)
		if err := cap.EvalArg("Y"); err != nil {
			return err
		}
		pushf(cap, 0)
		cap.Sink.Instr("GT")
		cap.Sink.Instr("JNZ", lYNonNeg)
		if err := cap.EvalArg("Y"); err != nil {
			return err
		}
		pushf(cap, 0)
		cap.Sink.Instr("LT")
		lYZero := cap.Labels.NewLabel("atan2_y_zero")
		cap.Sink.Instr("JZ", lYZero)
		pushf(cap, -math.Pi/2)
		cap.Sink.Instr("JMP", lEnd)
		cap.Sink.Label(lYZero)
		pushf(cap, 0)
		cap.Sink.Instr("JMP", lEnd)
		cap.Sink.Label(lYNonNeg)
		pushf(cap, math.Pi/2)
		cap.Sink.Instr("JMP", lEnd)

		cap.Sink.Label(lEnd)
		return nil
	})
}
