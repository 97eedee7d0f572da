package stdlib

import (
	"github.com/eduardojvieira/stc/internal/symbols"
	"github.com/eduardojvieira/stc/internal/types"
)

// timerLayout is the member layout shared by TON, TOF, and TP: an IN/Q
// input-output pair, a preset and elapsed time, and the internal fields
// that track the timer's running state across cycles.
func timerLayout() []*symbols.Member {
	return []*symbols.Member{
		member("IN", 1, types.Bool),
		member("Q", 1, types.Bool),
		member("PT", 4, types.Time),
		member("ET", 4, types.Time),
		member("_start", 4, types.Time),
		member("_running", 1, types.Bool),
	}
}

func registerTimerBlocks(c *Catalog) {
	registerTON(c)
	registerTOF(c)
	registerTP(c)
}

func timerMembers(typ *symbols.StdlibBlockType) (in, q, pt, et, start, running *symbols.Member) {
	return typ.ByName["in"], typ.ByName["q"], typ.ByName["pt"], typ.ByName["et"], typ.ByName["_start"], typ.ByName["_running"]
}

// registerTON registers the on-delay timer: Q rises PT after a continuous
// IN=1, and drops immediately when IN returns to 0.
func registerTON(c *Catalog) {
	typ := symbols.NewStdlibBlockType("TON", timerLayout())
	in, q, pt, et, start, running := timerMembers(typ)
	c.addBlock("TON", typ, func(cap *Capability) error {
		if err := evalInputMember(cap, "IN", in); err != nil {
			return err
		}
		if err := evalInputMember(cap, "PT", pt); err != nil {
			return err
		}
		cap.Sink.Comment("TON %s", cap.Instance)
		lOff := cap.Labels.NewLabel("ton_off")
		lRunning := cap.Labels.NewLabel("ton_running")
		lEnd := cap.Labels.NewLabel("ton_end")

		loadMember(cap, in)
		cap.Sink.Instr("JZ", lOff)

		loadMember(cap, running)
		cap.Sink.Instr("JNZ", lRunning)

		// rising edge: start timing
		storeImmediate(cap, running, 1)
		cap.Sink.Instr("TICK")
		storeMember(cap, start)
		storeImmediate(cap, et, 0)
		storeImmediate(cap, q, 0)
		cap.Sink.Instr("JMP", lEnd)

		cap.Sink.Label(lRunning)
		cap.Sink.Instr("TICK")
		loadMember(cap, start)
		cap.Sink.Instr("SUB")
		storeMember(cap, et)
		loadMember(cap, et)
		loadMember(cap, pt)
		cap.Sink.Instr("GE")
		cap.Sink.Instr("JZ", lEnd)
		storeImmediate(cap, q, 1)
		cap.Sink.Instr("JMP", lEnd)

		cap.Sink.Label(lOff)
		storeImmediate(cap, running, 0)
		storeImmediate(cap, et, 0)
		storeImmediate(cap, q, 0)

		cap.Sink.Label(lEnd)
		return nil
	})
}

// registerTOF registers the off-delay timer: Q follows IN up instantly,
// and drops PT after IN returns to 0.
func registerTOF(c *Catalog) {
	typ := symbols.NewStdlibBlockType("TOF", timerLayout())
	in, q, pt, et, start, running := timerMembers(typ)
	c.addBlock("TOF", typ, func(cap *Capability) error {
		if err := evalInputMember(cap, "IN", in); err != nil {
			return err
		}
		if err := evalInputMember(cap, "PT", pt); err != nil {
			return err
		}
		cap.Sink.Comment("TOF %s", cap.Instance)
		lFalling := cap.Labels.NewLabel("tof_falling")
		lRunning := cap.Labels.NewLabel("tof_running")
		lEnd := cap.Labels.NewLabel("tof_end")

		loadMember(cap, in)
		cap.Sink.Instr("JZ", lFalling)

		storeImmediate(cap, running, 0)
		storeImmediate(cap, et, 0)
		storeImmediate(cap, q, 1)
		cap.Sink.Instr("JMP", lEnd)

		cap.Sink.Label(lFalling)
		loadMember(cap, running)
		cap.Sink.Instr("JNZ", lRunning)
		storeImmediate(cap, running, 1)
		cap.Sink.Instr("TICK")
		storeMember(cap, start)
		cap.Sink.Instr("JMP", lEnd)

		cap.Sink.Label(lRunning)
		cap.Sink.Instr("TICK")
		loadMember(cap, start)
		cap.Sink.Instr("SUB")
		storeMember(cap, et)
		loadMember(cap, et)
		loadMember(cap, pt)
		cap.Sink.Instr("GE")
		cap.Sink.Instr("JZ", lEnd)
		storeImmediate(cap, running, 0)
		storeImmediate(cap, q, 0)

		cap.Sink.Label(lEnd)
		return nil
	})
}

// registerTP registers the pulse timer: a rising edge on IN produces a
// fixed-width PT pulse on Q, ignoring further IN transitions until the
// pulse completes.
func registerTP(c *Catalog) {
	typ := symbols.NewStdlibBlockType("TP", timerLayout())
	in, q, pt, et, start, running := timerMembers(typ)
	c.addBlock("TP", typ, func(cap *Capability) error {
		if err := evalInputMember(cap, "IN", in); err != nil {
			return err
		}
		if err := evalInputMember(cap, "PT", pt); err != nil {
			return err
		}
		cap.Sink.Comment("TP %s", cap.Instance)
		lRunning := cap.Labels.NewLabel("tp_running")
		lCheckEdge := cap.Labels.NewLabel("tp_check_edge")
		lEnd := cap.Labels.NewLabel("tp_end")

		loadMember(cap, running)
		cap.Sink.Instr("JNZ", lRunning)

		cap.Sink.Label(lCheckEdge)
		loadMember(cap, in)
		cap.Sink.Instr("JZ", lEnd)
		storeImmediate(cap, running, 1)
		cap.Sink.Instr("TICK")
		storeMember(cap, start)
		storeImmediate(cap, q, 1)
		storeImmediate(cap, et, 0)
		cap.Sink.Instr("JMP", lEnd)

		cap.Sink.Label(lRunning)
		cap.Sink.Instr("TICK")
		loadMember(cap, start)
		cap.Sink.Instr("SUB")
		storeMember(cap, et)
		loadMember(cap, et)
		loadMember(cap, pt)
		cap.Sink.Instr("GE")
		cap.Sink.Instr("JZ", lEnd)
		storeImmediate(cap, q, 0)
		loadMember(cap, in)
		cap.Sink.Instr("JNZ", lEnd)
		storeImmediate(cap, running, 0)

		cap.Sink.Label(lEnd)
		return nil
	})
}
