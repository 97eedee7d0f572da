package stdlib

import (
	"github.com/eduardojvieira/stc/internal/symbols"
	"github.com/eduardojvieira/stc/internal/types"
)

// registerHysteresisBlock registers the threshold-with-deadband block: Q
// rises once IN climbs above HIGH and stays set until IN drops below LOW,
// holding steady in between.
func registerHysteresisBlock(c *Catalog) {
	typ := symbols.NewStdlibBlockType("HYSTERESIS", []*symbols.Member{
		member("IN", 4, types.Real),
		member("HIGH", 4, types.Real),
		member("LOW", 4, types.Real),
		member("Q", 1, types.Bool),
	})
	in, high, low, q := typ.ByName["in"], typ.ByName["high"], typ.ByName["low"], typ.ByName["q"]
	c.addBlock("HYSTERESIS", typ, func(cap *Capability) error {
		if err := evalInputMember(cap, "IN", in); err != nil {
			return err
		}
		if err := evalInputMember(cap, "HIGH", high); err != nil {
			return err
		}
		if err := evalInputMember(cap, "LOW", low); err != nil {
			return err
		}
		cap.Sink.Comment("HYSTERESIS %s", cap.Instance)
		lCheckLow := cap.Labels.NewLabel("hyst_check_low")
		lEnd := cap.Labels.NewLabel("hyst_end")

		loadMember(cap, q)
		cap.Sink.Instr("JNZ", lCheckLow)

		loadMember(cap, in)
		loadMember(cap, high)
		cap.Sink.Instr("GT")
		cap.Sink.Instr("JZ", lEnd)
		storeImmediate(cap, q, 1)
		cap.Sink.Instr("JMP", lEnd)

		cap.Sink.Label(lCheckLow)
		loadMember(cap, in)
		loadMember(cap, low)
		cap.Sink.Instr("LT")
		cap.Sink.Instr("JZ", lEnd)
		storeImmediate(cap, q, 0)

		cap.Sink.Label(lEnd)
		return nil
	})
}
