package asm

import (
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
)

func TestAssembleSimpleJump(t *testing.T) {
	src := `
	JMP _start
_loop:
	PUSH 1
	JMP _end
_start:
	PUSH 0
	JZ _loop
_end:
	HALT
`
	got, err := Assemble("t", src)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if got.Labels["_start"] == 0 && got.Labels["_loop"] == 0 {
		t.Fatalf("expected distinct label addresses, got %#v", got.Labels)
	}
	if len(got.Code) == 0 {
		t.Fatal("expected non-empty code")
	}
	if len(got.RelocSites) != 3 {
		t.Fatalf("expected 3 control-flow reloc sites (JMP, JMP, JZ), got %d", len(got.RelocSites))
	}
}

func TestAssembleUnknownMnemonic(t *testing.T) {
	if _, err := Assemble("t", "\tFROB 1\n"); err == nil {
		t.Fatal("expected an error for an unknown mnemonic")
	}
}

func TestAssembleUndefinedLabel(t *testing.T) {
	if _, err := Assemble("t", "\tJMP _missing\n\tHALT\n"); err == nil {
		t.Fatal("expected an error for an undefined label")
	}
}

func TestAssembleDuplicateLabel(t *testing.T) {
	src := "_l:\n\tHALT\n_l:\n\tHALT\n"
	if _, err := Assemble("t", src); err == nil {
		t.Fatal("expected an error for a duplicate label")
	}
}

func TestAssembleMissingOperand(t *testing.T) {
	if _, err := Assemble("t", "\tPUSH\n"); err == nil {
		t.Fatal("expected an error when an opAddr mnemonic has no operand")
	}
}

func TestAssembleUnexpectedOperand(t *testing.T) {
	if _, err := Assemble("t", "\tHALT 1\n"); err == nil {
		t.Fatal("expected an error when an opNone mnemonic is given an operand")
	}
}

func TestAssembleHexLiteral(t *testing.T) {
	got, err := Assemble("t", "\tPUSH 0x10\n\tHALT\n")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if decodeInt32(got.Code[1:5]) != 0x10 {
		t.Errorf("expected operand 16, got %d", decodeInt32(got.Code[1:5]))
	}
}

func TestAssembleIndirectOpcodesTakeNoOperand(t *testing.T) {
	got, err := Assemble("t", "\tBLOADIN\n\tHALT\n")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(got.Code) != 2 {
		t.Fatalf("expected BLOADIN (1 byte) + HALT (1 byte), got %d bytes", len(got.Code))
	}
}

func TestAssembleSourceAnnotations(t *testing.T) {
	src := "\t; @source 7\n\tPUSH 1\n\tHALT\n"
	got, err := Assemble("t", src)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(got.DebugMap) != 1 || got.DebugMap[0] != (DebugEntry{PC: 0, Line: 7}) {
		t.Errorf("expected one debug entry at pc 0 line 7, got %#v", got.DebugMap)
	}
}

func TestAssembleRoundTripDisassemble(t *testing.T) {
	src := "_start:\n\tPUSH 42\n\tDLOAD 0\n\tADD\n\tDSTORE 0\n\tJZ _start\n\tHALT\n"
	got, err := Assemble("t", src)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	var sb strings.Builder
	if err := Disassemble(got.Code, &sb); err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	snaps.MatchSnapshot(t, "roundtrip_disassembly", sb.String())
}

func TestArtifactRoundTrip(t *testing.T) {
	art := &Artifact{
		Code: []byte{0, 1, 2, 3},
		Tasks: []TaskRecord{
			{ID: "t1", Type: "cyclic", Priority: 1, IntervalMicros: 10_000, EntryPoint: 0, StackSize: 64},
		},
		DebugMap: []DebugEntry{{PC: 0, Line: 1}},
	}
	s := NewSerializer()
	data, err := s.Write(art)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read(data)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got.Code) != string(art.Code) {
		t.Errorf("code mismatch: got %v want %v", got.Code, art.Code)
	}
	if len(got.Tasks) != 1 || got.Tasks[0] != art.Tasks[0] {
		t.Errorf("task mismatch: got %#v want %#v", got.Tasks, art.Tasks)
	}
	if len(got.DebugMap) != 1 || got.DebugMap[0] != art.DebugMap[0] {
		t.Errorf("debug map mismatch: got %#v want %#v", got.DebugMap, art.DebugMap)
	}
}

func TestArtifactRejectsBadMagic(t *testing.T) {
	s := NewSerializer()
	if _, err := s.Read([]byte("XXXX\x01\x00\x00\x00")); err == nil {
		t.Fatal("expected an error for a bad magic number")
	}
}

func TestArtifactRejectsIncompatibleVersion(t *testing.T) {
	s := NewSerializer()
	data, err := s.Write(&Artifact{Code: []byte{0}})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	data[4] = VersionMajor + 1
	if _, err := s.Read(data); err == nil {
		t.Fatal("expected an error for an incompatible major version")
	}
}
