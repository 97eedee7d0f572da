package stdlib

import (
	"github.com/eduardojvieira/stc/internal/symbols"
	"github.com/eduardojvieira/stc/internal/types"
)

// counterLayout is the member layout shared by CTU and CTD: an edge input,
// a reset/load input, a preset value, the output flag, the running count,
// and the previous edge-input sample used to detect the triggering edge.
func counterLayout(edgeName, loadName string) []*symbols.Member {
	return []*symbols.Member{
		member(edgeName, 1, types.Bool),
		member(loadName, 1, types.Bool),
		member("PV", 4, types.Dint),
		member("Q", 1, types.Bool),
		member("CV", 4, types.Dint),
		member("_last", 1, types.Bool),
	}
}

func registerCounterBlocks(c *Catalog) {
	registerCTU(c)
	registerCTD(c)
}

// registerCTU registers the up counter: CV increments once per rising
// edge of CU, with no upper bound (Q := CV >= PV); R resets CV to 0.
func registerCTU(c *Catalog) {
	typ := symbols.NewStdlibBlockType("CTU", counterLayout("CU", "R"))
	cu, r, pv, q, cv, last := typ.ByName["cu"], typ.ByName["r"], typ.ByName["pv"], typ.ByName["q"], typ.ByName["cv"], typ.ByName["_last"]
	c.addBlock("CTU", typ, func(cap *Capability) error {
		if err := evalInputMember(cap, "CU", cu); err != nil {
			return err
		}
		if err := evalInputMember(cap, "R", r); err != nil {
			return err
		}
		if err := evalInputMember(cap, "PV", pv); err != nil {
			return err
		}
		cap.Sink.Comment("CTU %s", cap.Instance)
		lReset := cap.Labels.NewLabel("ctu_reset")
		lEdge := cap.Labels.NewLabel("ctu_edge")
		lSetQ := cap.Labels.NewLabel("ctu_set_q")

		loadMember(cap, r)
		cap.Sink.Instr("JNZ", lReset)

		loadMember(cap, cu)
		loadMember(cap, last)
		cap.Sink.Instr("AND")
		cap.Sink.Instr("NOT")
		loadMember(cap, cu)
		cap.Sink.Instr("AND")
		cap.Sink.Instr("JZ", lEdge)
		loadMember(cap, cv)
		cap.Sink.Instr("PUSH", "1")
		cap.Sink.Instr("ADD")
		storeMember(cap, cv)

		cap.Sink.Label(lEdge)
		loadMember(cap, cu)
		storeMember(cap, last)
		loadMember(cap, cv)
		loadMember(cap, pv)
		cap.Sink.Instr("GE")
		cap.Sink.Instr("JZ", lSetQ)
		storeImmediate(cap, q, 1)
		cap.Sink.Instr("JMP", "_ctu_done_"+cap.Instance)
		cap.Sink.Label(lSetQ)
		storeImmediate(cap, q, 0)
		cap.Sink.Label("_ctu_done_" + cap.Instance)
		cap.Sink.Instr("JMP", "_ctu_end_"+cap.Instance)

		cap.Sink.Label(lReset)
		storeImmediate(cap, cv, 0)
		storeImmediate(cap, q, 0)
		loadMember(cap, cu)
		storeMember(cap, last)
		cap.Sink.Label("_ctu_end_" + cap.Instance)
		return nil
	})
}

// registerCTD registers the down counter: CV decrements once per rising
// edge of CD, with no lower bound (Q := CV <= 0); LD loads CV with PV.
func registerCTD(c *Catalog) {
	typ := symbols.NewStdlibBlockType("CTD", counterLayout("CD", "LD"))
	cd, ld, pv, q, cv, last := typ.ByName["cd"], typ.ByName["ld"], typ.ByName["pv"], typ.ByName["q"], typ.ByName["cv"], typ.ByName["_last"]
	c.addBlock("CTD", typ, func(cap *Capability) error {
		if err := evalInputMember(cap, "CD", cd); err != nil {
			return err
		}
		if err := evalInputMember(cap, "LD", ld); err != nil {
			return err
		}
		if err := evalInputMember(cap, "PV", pv); err != nil {
			return err
		}
		cap.Sink.Comment("CTD %s", cap.Instance)
		lLoad := cap.Labels.NewLabel("ctd_load")
		lEdge := cap.Labels.NewLabel("ctd_edge")
		lSetQ := cap.Labels.NewLabel("ctd_set_q")
		lDone := cap.Labels.NewLabel("ctd_done")
		lEnd := cap.Labels.NewLabel("ctd_end")

		loadMember(cap, ld)
		cap.Sink.Instr("JNZ", lLoad)

		loadMember(cap, cd)
		loadMember(cap, last)
		cap.Sink.Instr("AND")
		cap.Sink.Instr("NOT")
		loadMember(cap, cd)
		cap.Sink.Instr("AND")
		cap.Sink.Instr("JZ", lEdge)
		loadMember(cap, cv)
		cap.Sink.Instr("PUSH", "1")
		cap.Sink.Instr("SUB")
		storeMember(cap, cv)

		cap.Sink.Label(lEdge)
		loadMember(cap, cd)
		storeMember(cap, last)
		loadMember(cap, cv)
		cap.Sink.Instr("PUSH", "0")
		cap.Sink.Instr("LE")
		cap.Sink.Instr("JZ", lSetQ)
		storeImmediate(cap, q, 1)
		cap.Sink.Instr("JMP", lDone)
		cap.Sink.Label(lSetQ)
		storeImmediate(cap, q, 0)
		cap.Sink.Label(lDone)
		cap.Sink.Instr("JMP", lEnd)

		cap.Sink.Label(lLoad)
		loadMember(cap, pv)
		storeMember(cap, cv)
		storeImmediate(cap, q, 0)
		loadMember(cap, cd)
		storeMember(cap, last)
		cap.Sink.Label(lEnd)
		return nil
	})
}
