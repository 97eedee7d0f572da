package stdlib

import (
	"github.com/eduardojvieira/stc/internal/symbols"
	"github.com/eduardojvieira/stc/internal/types"
)

// String header layout, shared with the string-literal pool: [len:2][cap:2]
// [bytes:cap+1]. stringMaxLen is the fixed capacity baked into every
// catalog string function's private result buffer.
const (
	stringMaxLen      = 63
	stringHeaderBytes = 4
	stringBufferSize  = stringHeaderBytes + stringMaxLen + 1
)

// Functions that produce a STRING result (CONCAT, INSERT, DELETE, REPLACE)
// need a backing buffer the same way a stateful block needs instance
// memory: internal/codegen allocates one result-buffer's worth of work
// memory per call site and passes its address as cap.Base, exactly as it
// does for stateful blocks, even though these remain registered as
// functions (their symbol kind is StdlibFunctionType, not
// StdlibBlockType — the buffer is an emission detail, not part of the
// type's declared member layout).
func stringResultAddr(cap *Capability) int   { return cap.Base }
func stringScratchIAddr(cap *Capability) int { return cap.Base + stringBufferSize }
func stringScratchJAddr(cap *Capability) int { return cap.Base + stringBufferSize + 4 }

func registerStringFunctions(c *Catalog) {
	registerLen(c)
	registerFind(c)
	registerConcat(c)
	registerDelete(c)
	registerInsert(c)
	registerReplace(c)
}

// registerLen registers LEN(S): the 16-bit length field at the head of
// S's string header, widened to DINT.
func registerLen(c *Catalog) {
	c.addFunction("LEN", &symbols.StdlibFunctionType{Name: "LEN", Arity: 1, ReturnType: types.Dint, ParamNames: []string{"S"}}, func(cap *Capability) error {
		cap.Sink.Comment("LEN")
		if err := cap.EvalArg("S"); err != nil {
			return err
		}
		cap.Sink.Instr("WLOADIN")
		return nil
	})
}

// registerFind registers FIND(S1, S2): the 1-based byte position of the
// first occurrence of S2 in S1, or 0 if S2 does not occur. Implemented as
// a nested byte-compare loop using the result buffer's scratch slots as
// the two running indices.
func registerFind(c *Catalog) {
	c.addFunction("FIND", &symbols.StdlibFunctionType{Name: "FIND", Arity: 2, ReturnType: types.Dint, ParamNames: []string{"S1", "S2"}}, func(cap *Capability) error {
		cap.Sink.Comment("FIND %s", cap.Instance)
		i, j := stringScratchIAddr(cap), stringScratchJAddr(cap)

		lOuter := cap.Labels.NewLabel("find_outer")
		lInner := cap.Labels.NewLabel("find_inner")
		lMismatch := cap.Labels.NewLabel("find_mismatch")
		lFound := cap.Labels.NewLabel("find_found")
		lNotFound := cap.Labels.NewLabel("find_not_found")
		lEnd := cap.Labels.NewLabel("find_end")

		cap.Sink.Instr("PUSH", "0")
		cap.Sink.Instr("DSTORE", itoa(i))

		cap.Sink.Label(lOuter)
		// if i >= LEN(S1) - LEN(S2) + 1 then not found (allow for S2 len 0)
		if err := cap.EvalArg("S1"); err != nil {
			return err
		}
		cap.Sink.Instr("WLOADIN")
		if err := cap.EvalArg("S2"); err != nil {
			return err
		}
		cap.Sink.Instr("WLOADIN")
		cap.Sink.Instr("SUB")
		cap.Sink.Instr("PUSH", "1")
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DLOAD", itoa(i))
		cap.Sink.Instr("LE")
		cap.Sink.Instr("JNZ", lNotFound)

		cap.Sink.Instr("PUSH", "0")
		cap.Sink.Instr("DSTORE", itoa(j))

		cap.Sink.Label(lInner)
		if err := cap.EvalArg("S2"); err != nil {
			return err
		}
		cap.Sink.Instr("WLOADIN")
		cap.Sink.Instr("DLOAD", itoa(j))
		cap.Sink.Instr("LE")
		cap.Sink.Instr("JNZ", lFound)

		// compare S1[i+j] with S2[j]
		if err := cap.EvalArg("S1"); err != nil {
			return err
		}
		cap.Sink.Instr("PUSH", itoa(stringHeaderBytes))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DLOAD", itoa(i))
		cap.Sink.Instr("DLOAD", itoa(j))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("BLOADIN")
		if err := cap.EvalArg("S2"); err != nil {
			return err
		}
		cap.Sink.Instr("PUSH", itoa(stringHeaderBytes))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DLOAD", itoa(j))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("BLOADIN")
		cap.Sink.Instr("EQ")
		cap.Sink.Instr("JZ", lMismatch)

		cap.Sink.Instr("DLOAD", itoa(j))
		cap.Sink.Instr("PUSH", "1")
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DSTORE", itoa(j))
		cap.Sink.Instr("JMP", lInner)

		cap.Sink.Label(lMismatch)
		cap.Sink.Instr("DLOAD", itoa(i))
		cap.Sink.Instr("PUSH", "1")
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DSTORE", itoa(i))
		cap.Sink.Instr("JMP", lOuter)

		cap.Sink.Label(lFound)
		cap.Sink.Instr("DLOAD", itoa(i))
		cap.Sink.Instr("PUSH", "1")
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("JMP", lEnd)

		cap.Sink.Label(lNotFound)
		cap.Sink.Instr("PUSH", "0")

		cap.Sink.Label(lEnd)
		return nil
	})
}

// registerConcat registers CONCAT(S1, S2): writes S1 followed by S2,
// truncated to the result buffer's fixed capacity, into a freshly
// addressed result buffer, and returns its header address.
func registerConcat(c *Catalog) {
	c.addFunction("CONCAT", &symbols.StdlibFunctionType{Name: "CONCAT", Arity: 2, ReturnType: types.NewStringType(false), ParamNames: []string{"S1", "S2"}}, func(cap *Capability) error {
		cap.Sink.Comment("CONCAT %s", cap.Instance)
		out := stringResultAddr(cap)
		i := stringScratchIAddr(cap)
		j := stringScratchJAddr(cap)

		// copy S1 in full, using j as the read cursor.
		lCopy1 := cap.Labels.NewLabel("concat_copy1_loop")
		lCopy1Done := cap.Labels.NewLabel("concat_copy1_done")
		cap.Sink.Instr("PUSH", "0")
		cap.Sink.Instr("DSTORE", itoa(j))
		cap.Sink.Label(lCopy1)
		cap.Sink.Instr("DLOAD", itoa(j))
		if err := cap.EvalArg("S1"); err != nil {
			return err
		}
		cap.Sink.Instr("WLOADIN")
		cap.Sink.Instr("GE")
		cap.Sink.Instr("JNZ", lCopy1Done)
		cap.Sink.Instr("DLOAD", itoa(j))
		cap.Sink.Instr("PUSH", itoa(stringMaxLen))
		cap.Sink.Instr("GE")
		cap.Sink.Instr("JNZ", lCopy1Done)
		if err := cap.EvalArg("S1"); err != nil {
			return err
		}
		cap.Sink.Instr("PUSH", itoa(stringHeaderBytes))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DLOAD", itoa(j))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("BLOADIN")
		cap.Sink.Instr("PUSH", itoa(out+stringHeaderBytes))
		cap.Sink.Instr("DLOAD", itoa(j))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("BSTOREIN")
		cap.Sink.Instr("DLOAD", itoa(j))
		cap.Sink.Instr("PUSH", "1")
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DSTORE", itoa(j))
		cap.Sink.Instr("JMP", lCopy1)
		cap.Sink.Label(lCopy1Done)

		// i := bytes of S1 copied (LEN(S1), capped at the buffer's
		// capacity), the write offset where S2's copy begins.
		cap.Sink.Instr("DLOAD", itoa(j))
		cap.Sink.Instr("DSTORE", itoa(i))
		lLoop := cap.Labels.NewLabel("concat_copy2_loop")
		lDone := cap.Labels.NewLabel("concat_copy2_done")
		cap.Sink.Instr("PUSH", "0")
		cap.Sink.Instr("DSTORE", itoa(j))
		cap.Sink.Label(lLoop)
		cap.Sink.Instr("DLOAD", itoa(j))
		if err := cap.EvalArg("S2"); err != nil {
			return err
		}
		cap.Sink.Instr("WLOADIN")
		cap.Sink.Instr("GE")
		cap.Sink.Instr("JNZ", lDone)
		cap.Sink.Instr("DLOAD", itoa(i))
		cap.Sink.Instr("DLOAD", itoa(j))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("PUSH", itoa(stringMaxLen))
		cap.Sink.Instr("GE")
		cap.Sink.Instr("JNZ", lDone)

		if err := cap.EvalArg("S2"); err != nil {
			return err
		}
		cap.Sink.Instr("PUSH", itoa(stringHeaderBytes))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DLOAD", itoa(j))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("BLOADIN")
		cap.Sink.Instr("PUSH", itoa(out+stringHeaderBytes))
		cap.Sink.Instr("DLOAD", itoa(i))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DLOAD", itoa(j))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("BSTOREIN")

		cap.Sink.Instr("DLOAD", itoa(j))
		cap.Sink.Instr("PUSH", "1")
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DSTORE", itoa(j))
		cap.Sink.Instr("JMP", lLoop)
		cap.Sink.Label(lDone)

		// finalize header: len := i + j (total bytes written), cap unchanged
		cap.Sink.Instr("DLOAD", itoa(i))
		cap.Sink.Instr("DLOAD", itoa(j))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("PUSH", itoa(out))
		cap.Sink.Instr("WSTOREIN")
		cap.Sink.Instr("PUSH", itoa(stringMaxLen))
		cap.Sink.Instr("PUSH", itoa(out+2))
		cap.Sink.Instr("WSTOREIN")

		cap.Sink.Instr("PUSH", itoa(out))
		return nil
	})
}

// registerDelete registers DELETE(S, LEN_, P): removes LEN_ characters
// from S starting at the 1-based position P, returning the result in a
// fresh buffer.
func registerDelete(c *Catalog) {
	c.addFunction("DELETE", &symbols.StdlibFunctionType{Name: "DELETE", Arity: 3, ReturnType: types.NewStringType(false), ParamNames: []string{"S", "LEN_", "P"}}, func(cap *Capability) error {
		cap.Sink.Comment("DELETE %s", cap.Instance)
		out := stringResultAddr(cap)
		i, j := stringScratchIAddr(cap), stringScratchJAddr(cap)

		lSkip := cap.Labels.NewLabel("delete_skip")
		lAdvance := cap.Labels.NewLabel("delete_advance")
		lLoop := cap.Labels.NewLabel("delete_loop")
		lDone := cap.Labels.NewLabel("delete_done")

		// i walks the source read cursor over the full length of S; j is
		// the write cursor, advanced only for bytes that survive, so the
		// tail shifts left to fill the gap left by the deleted range.
		cap.Sink.Instr("PUSH", "0")
		cap.Sink.Instr("DSTORE", itoa(i))
		cap.Sink.Instr("PUSH", "0")
		cap.Sink.Instr("DSTORE", itoa(j))
		cap.Sink.Label(lLoop)
		cap.Sink.Instr("DLOAD", itoa(i))
		if err := cap.EvalArg("S"); err != nil {
			return err
		}
		cap.Sink.Instr("WLOADIN")
		cap.Sink.Instr("GE")
		cap.Sink.Instr("JNZ", lDone)

		// skip the deleted range [P-1, P-1+LEN_)
		cap.Sink.Instr("DLOAD", itoa(i))
		if err := cap.EvalArg("P"); err != nil {
			return err
		}
		cap.Sink.Instr("PUSH", "1")
		cap.Sink.Instr("SUB")
		cap.Sink.Instr("LT")
		cap.Sink.Instr("JNZ", lSkip)
		cap.Sink.Instr("DLOAD", itoa(i))
		if err := cap.EvalArg("P"); err != nil {
			return err
		}
		cap.Sink.Instr("PUSH", "1")
		cap.Sink.Instr("SUB")
		if err := cap.EvalArg("LEN_"); err != nil {
			return err
		}
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("GE")
		cap.Sink.Instr("JNZ", lSkip)
		cap.Sink.Instr("JMP", lAdvance)

		cap.Sink.Label(lSkip)
		if err := cap.EvalArg("S"); err != nil {
			return err
		}
		cap.Sink.Instr("PUSH", itoa(stringHeaderBytes))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DLOAD", itoa(i))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("BLOADIN")
		cap.Sink.Instr("PUSH", itoa(out+stringHeaderBytes))
		cap.Sink.Instr("DLOAD", itoa(j))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("BSTOREIN")
		cap.Sink.Instr("DLOAD", itoa(j))
		cap.Sink.Instr("PUSH", "1")
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DSTORE", itoa(j))

		cap.Sink.Label(lAdvance)
		cap.Sink.Instr("DLOAD", itoa(i))
		cap.Sink.Instr("PUSH", "1")
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DSTORE", itoa(i))
		cap.Sink.Instr("JMP", lLoop)

		cap.Sink.Label(lDone)
		cap.Sink.Instr("DLOAD", itoa(j))
		cap.Sink.Instr("PUSH", itoa(out))
		cap.Sink.Instr("WSTOREIN")
		cap.Sink.Instr("PUSH", itoa(stringMaxLen))
		cap.Sink.Instr("PUSH", itoa(out+2))
		cap.Sink.Instr("WSTOREIN")
		cap.Sink.Instr("PUSH", itoa(out))
		return nil
	})
}

// registerInsert registers INSERT(S1, S2, P): inserts S2 into S1 before
// the 1-based position P, honoring the position faithfully rather than
// the simplified append-only form a partial implementation falls back to.
func registerInsert(c *Catalog) {
	c.addFunction("INSERT", &symbols.StdlibFunctionType{Name: "INSERT", Arity: 3, ReturnType: types.NewStringType(false), ParamNames: []string{"S1", "S2", "P"}}, func(cap *Capability) error {
		cap.Sink.Comment("INSERT %s", cap.Instance)
		out := stringResultAddr(cap)
		i, j := stringScratchIAddr(cap), stringScratchJAddr(cap)

		lCopyHead := cap.Labels.NewLabel("insert_copy_head")
		lCopyHeadDone := cap.Labels.NewLabel("insert_copy_head_done")
		lCopyMid := cap.Labels.NewLabel("insert_copy_mid")
		lCopyMidDone := cap.Labels.NewLabel("insert_copy_mid_done")
		lCopyTail := cap.Labels.NewLabel("insert_copy_tail")
		lCopyTailDone := cap.Labels.NewLabel("insert_copy_tail_done")

		// head: S1[0 .. P-2] -> out[0 ..]
		cap.Sink.Instr("PUSH", "0")
		cap.Sink.Instr("DSTORE", itoa(i))
		cap.Sink.Label(lCopyHead)
		cap.Sink.Instr("DLOAD", itoa(i))
		if err := cap.EvalArg("P"); err != nil {
			return err
		}
		cap.Sink.Instr("PUSH", "1")
		cap.Sink.Instr("SUB")
		cap.Sink.Instr("GE")
		cap.Sink.Instr("JNZ", lCopyHeadDone)
		cap.Sink.Instr("DLOAD", itoa(i))
		if err := cap.EvalArg("S1"); err != nil {
			return err
		}
		cap.Sink.Instr("WLOADIN")
		cap.Sink.Instr("GE")
		cap.Sink.Instr("JNZ", lCopyHeadDone)
		if err := cap.EvalArg("S1"); err != nil {
			return err
		}
		cap.Sink.Instr("PUSH", itoa(stringHeaderBytes))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DLOAD", itoa(i))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("BLOADIN")
		cap.Sink.Instr("PUSH", itoa(out+stringHeaderBytes))
		cap.Sink.Instr("DLOAD", itoa(i))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("BSTOREIN")
		cap.Sink.Instr("DLOAD", itoa(i))
		cap.Sink.Instr("PUSH", "1")
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DSTORE", itoa(i))
		cap.Sink.Instr("JMP", lCopyHead)
		cap.Sink.Label(lCopyHeadDone)
		// i now holds min(P-1, LEN(S1)) = the head length written.

		// mid: S2[0 .. LEN(S2)-1] -> out[i ..]
		cap.Sink.Instr("PUSH", "0")
		cap.Sink.Instr("DSTORE", itoa(j))
		cap.Sink.Label(lCopyMid)
		cap.Sink.Instr("DLOAD", itoa(j))
		if err := cap.EvalArg("S2"); err != nil {
			return err
		}
		cap.Sink.Instr("WLOADIN")
		cap.Sink.Instr("GE")
		cap.Sink.Instr("JNZ", lCopyMidDone)
		if err := cap.EvalArg("S2"); err != nil {
			return err
		}
		cap.Sink.Instr("PUSH", itoa(stringHeaderBytes))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DLOAD", itoa(j))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("BLOADIN")
		cap.Sink.Instr("PUSH", itoa(out+stringHeaderBytes))
		cap.Sink.Instr("DLOAD", itoa(i))
		cap.Sink.Instr("DLOAD", itoa(j))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("BSTOREIN")
		cap.Sink.Instr("DLOAD", itoa(j))
		cap.Sink.Instr("PUSH", "1")
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DSTORE", itoa(j))
		cap.Sink.Instr("JMP", lCopyMid)
		cap.Sink.Label(lCopyMidDone)

		// i := i + LEN(S2) (the write cursor after the inserted text)
		cap.Sink.Instr("DLOAD", itoa(i))
		if err := cap.EvalArg("S2"); err != nil {
			return err
		}
		cap.Sink.Instr("WLOADIN")
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DSTORE", itoa(i))

		// tail: remaining S1[head_len ..] -> out[i ..], using j as the S1
		// read cursor restarted from the head length.
		cap.Sink.Instr("DLOAD", itoa(i))
		if err := cap.EvalArg("S2"); err != nil {
			return err
		}
		cap.Sink.Instr("WLOADIN")
		cap.Sink.Instr("SUB")
		cap.Sink.Instr("DSTORE", itoa(j))
		cap.Sink.Label(lCopyTail)
		cap.Sink.Instr("DLOAD", itoa(j))
		if err := cap.EvalArg("S1"); err != nil {
			return err
		}
		cap.Sink.Instr("WLOADIN")
		cap.Sink.Instr("GE")
		cap.Sink.Instr("JNZ", lCopyTailDone)
		if err := cap.EvalArg("S1"); err != nil {
			return err
		}
		cap.Sink.Instr("PUSH", itoa(stringHeaderBytes))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DLOAD", itoa(j))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("BLOADIN")
		cap.Sink.Instr("PUSH", itoa(out+stringHeaderBytes))
		cap.Sink.Instr("DLOAD", itoa(i))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("BSTOREIN")
		cap.Sink.Instr("DLOAD", itoa(i))
		cap.Sink.Instr("PUSH", "1")
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DSTORE", itoa(i))
		cap.Sink.Instr("DLOAD", itoa(j))
		cap.Sink.Instr("PUSH", "1")
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DSTORE", itoa(j))
		cap.Sink.Instr("JMP", lCopyTail)
		cap.Sink.Label(lCopyTailDone)

		cap.Sink.Instr("DLOAD", itoa(i))
		cap.Sink.Instr("PUSH", itoa(out))
		cap.Sink.Instr("WSTOREIN")
		cap.Sink.Instr("PUSH", itoa(stringMaxLen))
		cap.Sink.Instr("PUSH", itoa(out+2))
		cap.Sink.Instr("WSTOREIN")
		cap.Sink.Instr("PUSH", itoa(out))
		return nil
	})
}

// registerReplace registers REPLACE(S1, S2, LEN_, P): replaces LEN_
// characters of S1 starting at the 1-based position P with S2,
// honoring position and length per the IEC contract rather than the
// simplified copy-and-append shortcut.
func registerReplace(c *Catalog) {
	c.addFunction("REPLACE", &symbols.StdlibFunctionType{Name: "REPLACE", Arity: 4, ReturnType: types.NewStringType(false), ParamNames: []string{"S1", "S2", "LEN_", "P"}}, func(cap *Capability) error {
		cap.Sink.Comment("REPLACE %s", cap.Instance)
		out := stringResultAddr(cap)
		i, j := stringScratchIAddr(cap), stringScratchJAddr(cap)

		lCopyHead := cap.Labels.NewLabel("replace_copy_head")
		lCopyHeadDone := cap.Labels.NewLabel("replace_copy_head_done")
		lCopyMid := cap.Labels.NewLabel("replace_copy_mid")
		lCopyMidDone := cap.Labels.NewLabel("replace_copy_mid_done")
		lCopyTail := cap.Labels.NewLabel("replace_copy_tail")
		lCopyTailDone := cap.Labels.NewLabel("replace_copy_tail_done")

		// head: S1[0 .. P-2] -> out
		cap.Sink.Instr("PUSH", "0")
		cap.Sink.Instr("DSTORE", itoa(i))
		cap.Sink.Label(lCopyHead)
		cap.Sink.Instr("DLOAD", itoa(i))
		if err := cap.EvalArg("P"); err != nil {
			return err
		}
		cap.Sink.Instr("PUSH", "1")
		cap.Sink.Instr("SUB")
		cap.Sink.Instr("GE")
		cap.Sink.Instr("JNZ", lCopyHeadDone)
		if err := cap.EvalArg("S1"); err != nil {
			return err
		}
		cap.Sink.Instr("PUSH", itoa(stringHeaderBytes))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DLOAD", itoa(i))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("BLOADIN")
		cap.Sink.Instr("PUSH", itoa(out+stringHeaderBytes))
		cap.Sink.Instr("DLOAD", itoa(i))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("BSTOREIN")
		cap.Sink.Instr("DLOAD", itoa(i))
		cap.Sink.Instr("PUSH", "1")
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DSTORE", itoa(i))
		cap.Sink.Instr("JMP", lCopyHead)
		cap.Sink.Label(lCopyHeadDone)

		// mid: S2 in full -> out[i ..]
		cap.Sink.Instr("PUSH", "0")
		cap.Sink.Instr("DSTORE", itoa(j))
		cap.Sink.Label(lCopyMid)
		cap.Sink.Instr("DLOAD", itoa(j))
		if err := cap.EvalArg("S2"); err != nil {
			return err
		}
		cap.Sink.Instr("WLOADIN")
		cap.Sink.Instr("GE")
		cap.Sink.Instr("JNZ", lCopyMidDone)
		if err := cap.EvalArg("S2"); err != nil {
			return err
		}
		cap.Sink.Instr("PUSH", itoa(stringHeaderBytes))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DLOAD", itoa(j))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("BLOADIN")
		cap.Sink.Instr("PUSH", itoa(out+stringHeaderBytes))
		cap.Sink.Instr("DLOAD", itoa(i))
		cap.Sink.Instr("DLOAD", itoa(j))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("BSTOREIN")
		cap.Sink.Instr("DLOAD", itoa(j))
		cap.Sink.Instr("PUSH", "1")
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DSTORE", itoa(j))
		cap.Sink.Instr("JMP", lCopyMid)
		cap.Sink.Label(lCopyMidDone)

		cap.Sink.Instr("DLOAD", itoa(i))
		if err := cap.EvalArg("S2"); err != nil {
			return err
		}
		cap.Sink.Instr("WLOADIN")
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DSTORE", itoa(i))

		// tail: S1[(P-1+LEN_) ..] -> out[i ..]
		if err := cap.EvalArg("P"); err != nil {
			return err
		}
		cap.Sink.Instr("PUSH", "1")
		cap.Sink.Instr("SUB")
		if err := cap.EvalArg("LEN_"); err != nil {
			return err
		}
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DSTORE", itoa(j))
		cap.Sink.Label(lCopyTail)
		cap.Sink.Instr("DLOAD", itoa(j))
		if err := cap.EvalArg("S1"); err != nil {
			return err
		}
		cap.Sink.Instr("WLOADIN")
		cap.Sink.Instr("GE")
		cap.Sink.Instr("JNZ", lCopyTailDone)
		if err := cap.EvalArg("S1"); err != nil {
			return err
		}
		cap.Sink.Instr("PUSH", itoa(stringHeaderBytes))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DLOAD", itoa(j))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("BLOADIN")
		cap.Sink.Instr("PUSH", itoa(out+stringHeaderBytes))
		cap.Sink.Instr("DLOAD", itoa(i))
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("BSTOREIN")
		cap.Sink.Instr("DLOAD", itoa(i))
		cap.Sink.Instr("PUSH", "1")
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DSTORE", itoa(i))
		cap.Sink.Instr("DLOAD", itoa(j))
		cap.Sink.Instr("PUSH", "1")
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("DSTORE", itoa(j))
		cap.Sink.Instr("JMP", lCopyTail)
		cap.Sink.Label(lCopyTailDone)

		cap.Sink.Instr("DLOAD", itoa(i))
		cap.Sink.Instr("PUSH", itoa(out))
		cap.Sink.Instr("WSTOREIN")
		cap.Sink.Instr("PUSH", itoa(stringMaxLen))
		cap.Sink.Instr("PUSH", itoa(out+2))
		cap.Sink.Instr("WSTOREIN")
		cap.Sink.Instr("PUSH", itoa(out))
		return nil
	})
}
