package stdlib

import (
	"github.com/eduardojvieira/stc/internal/symbols"
	"github.com/eduardojvieira/stc/internal/types"
)

// registerPIDBlock registers the compact incremental PID controller. First
// invocation captures the initial error and clears the integral term rather
// than running the full formula against an undefined _prev_err.
func registerPIDBlock(c *Catalog) {
	typ := symbols.NewStdlibBlockType("PID", []*symbols.Member{
		member("SP", 4, types.Real),
		member("PV", 4, types.Real),
		member("KP", 4, types.Real),
		member("KI", 4, types.Real),
		member("KD", 4, types.Real),
		member("DT", 4, types.Real),
		member("OUT_MIN", 4, types.Real),
		member("OUT_MAX", 4, types.Real),
		member("OUT", 4, types.Real),
		member("_integral", 4, types.Real),
		member("_prev_err", 4, types.Real),
		member("_err", 4, types.Real),
		member("_initialized", 1, types.Bool),
	})
	sp, pv, kp, ki, kd, dt := typ.ByName["sp"], typ.ByName["pv"], typ.ByName["kp"], typ.ByName["ki"], typ.ByName["kd"], typ.ByName["dt"]
	outMin, outMax, out := typ.ByName["out_min"], typ.ByName["out_max"], typ.ByName["out"]
	integral, prevErr, initialized := typ.ByName["_integral"], typ.ByName["_prev_err"], typ.ByName["_initialized"]
	errScratch := typ.ByName["_err"]

	c.addBlock("PID", typ, func(cap *Capability) error {
		for _, b := range []struct {
			name string
			m    *symbols.Member
		}{
			{"SP", sp}, {"PV", pv}, {"KP", kp}, {"KI", ki}, {"KD", kd}, {"DT", dt},
			{"OUT_MIN", outMin}, {"OUT_MAX", outMax},
		} {
			if err := evalInputMember(cap, b.name, b.m); err != nil {
				return err
			}
		}
		cap.Sink.Comment("PID %s", cap.Instance)
		lRun := cap.Labels.NewLabel("pid_run")
		lClampLow := cap.Labels.NewLabel("pid_clamp_low")
		lClampHigh := cap.Labels.NewLabel("pid_clamp_high")
		lEnd := cap.Labels.NewLabel("pid_end")

		// _err := SP - PV, cached once so the rest of the template can
		// reload it by member instead of recomputing the subtraction.
		loadMember(cap, sp)
		loadMember(cap, pv)
		cap.Sink.Instr("SUBF")
		storeMember(cap, errScratch)

		loadMember(cap, initialized)
		cap.Sink.Instr("JNZ", lRun)

		loadMember(cap, errScratch)
		storeMember(cap, prevErr)
		storeImmediate(cap, integral, 0)
		storeImmediate(cap, initialized, 1)
		cap.Sink.Instr("JMP", lEnd)

		cap.Sink.Label(lRun)
		// _integral += _err * DT
		loadMember(cap, integral)
		loadMember(cap, errScratch)
		loadMember(cap, dt)
		cap.Sink.Instr("MULF")
		cap.Sink.Instr("ADDF")
		storeMember(cap, integral)
		// OUT := KP*_err + KI*_integral + KD*(_err-_prev_err)/DT
		loadMember(cap, kp)
		loadMember(cap, errScratch)
		cap.Sink.Instr("MULF")
		loadMember(cap, ki)
		loadMember(cap, integral)
		cap.Sink.Instr("MULF")
		cap.Sink.Instr("ADDF")
		loadMember(cap, kd)
		loadMember(cap, errScratch)
		loadMember(cap, prevErr)
		cap.Sink.Instr("SUBF")
		loadMember(cap, dt)
		cap.Sink.Instr("DIVF")
		cap.Sink.Instr("MULF")
		cap.Sink.Instr("ADDF")
		storeMember(cap, out)
		// clamp OUT to [OUT_MIN, OUT_MAX]
		loadMember(cap, out)
		loadMember(cap, outMin)
		cap.Sink.Instr("LT")
		cap.Sink.Instr("JZ", lClampHigh)
		loadMember(cap, outMin)
		storeMember(cap, out)
		cap.Sink.Instr("JMP", lClampLow)
		cap.Sink.Label(lClampHigh)
		loadMember(cap, out)
		loadMember(cap, outMax)
		cap.Sink.Instr("GT")
		cap.Sink.Instr("JZ", lClampLow)
		loadMember(cap, outMax)
		storeMember(cap, out)
		cap.Sink.Label(lClampLow)
		loadMember(cap, errScratch)
		storeMember(cap, prevErr)

		cap.Sink.Label(lEnd)
		return nil
	})
}
