package project

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
)

const prog1Src = `
PROGRAM P1
VAR
	c1 : DINT;
END_VAR
	c1 := c1 + 1;
END_PROGRAM
`

const prog2Src = `
PROGRAM P2
VAR
	c2 : DINT;
END_VAR
	c2 := c2 + 2;
END_PROGRAM
`

// TestBuildTwoProgramProject exercises spec.md §8 acceptance scenario S6:
// two cyclic tasks at distinct intervals, each bound to its own program,
// compiled at distinct work-memory bases and concatenated into one
// relocated artifact.
func TestBuildTwoProgramProject(t *testing.T) {
	manifest := Manifest{
		Name: "demo",
		Tasks: []Task{
			{Name: "T1", Trigger: Cyclic, IntervalMS: 10, Priority: 1, Programs: []string{"P1"}},
			{Name: "T2", Trigger: Cyclic, IntervalMS: 100, Priority: 2, Programs: []string{"P2"}},
		},
	}
	programs := []ProgramSource{
		{Name: "P1", Source: prog1Src},
		{Name: "P2", Source: prog2Src},
	}

	res, err := Build(manifest, programs, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(res.Tasks) != 2 {
		t.Fatalf("expected 2 task records, got %d", len(res.Tasks))
	}
	intervals := map[int32]bool{}
	for _, tr := range res.Tasks {
		intervals[tr.IntervalMicros] = true
	}
	if !intervals[10_000] || !intervals[100_000] {
		t.Errorf("expected interval_microseconds {10000, 100000}, got %v", res.Tasks)
	}

	if len(res.PerProgram) != 2 {
		t.Fatalf("expected 2 compiled programs, got %d", len(res.PerProgram))
	}
	p1, p2 := res.PerProgram[0], res.PerProgram[1]
	if p1.WorkBase == p2.WorkBase {
		t.Errorf("expected disjoint work-memory bases, both got %#x", p1.WorkBase)
	}
	lo1, hi1 := p1.WorkBase, p1.WorkBase+regionSize
	lo2, hi2 := p2.WorkBase, p2.WorkBase+regionSize
	if lo1 < hi2 && lo2 < hi1 {
		t.Errorf("expected disjoint work-memory ranges, got [%#x,%#x) and [%#x,%#x)", lo1, hi1, lo2, hi2)
	}
	if p2.EntryPoint != p1.CodeOffset+p1.CodeSize {
		t.Errorf("expected P2.entry_point == P1.code_size + P1.code_offset, got entry=%d offset=%d size=%d",
			p2.EntryPoint, p1.CodeOffset, p1.CodeSize)
	}
}

func TestBuildSkipsUnreferencedProgram(t *testing.T) {
	manifest := Manifest{
		Tasks: []Task{{Name: "T1", Trigger: Cyclic, IntervalMS: 10, Programs: []string{"P1"}}},
	}
	programs := []ProgramSource{
		{Name: "P1", Source: prog1Src},
		{Name: "P2", Source: prog2Src},
	}
	res, err := Build(manifest, programs, Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(res.PerProgram) != 1 || res.PerProgram[0].Name != "P1" {
		t.Errorf("expected only P1 to be compiled, got %#v", res.PerProgram)
	}
}

func TestBuildMissingProgramSource(t *testing.T) {
	manifest := Manifest{
		Tasks: []Task{{Name: "T1", Trigger: Cyclic, IntervalMS: 10, Programs: []string{"Missing"}}},
	}
	if _, err := Build(manifest, nil, Options{}); err == nil {
		t.Fatal("expected an error when a referenced program has no source")
	}
}

func TestBuildNoTasksIsError(t *testing.T) {
	if _, err := Build(Manifest{}, nil, Options{}); err == nil {
		t.Fatal("expected an error when no task references any program")
	}
}

func TestBuildSingleProgram(t *testing.T) {
	res, err := BuildSingleProgram("P1", prog1Src, Options{})
	if err != nil {
		t.Fatalf("BuildSingleProgram: %v", err)
	}
	if len(res.Tasks) != 1 || res.Tasks[0].IntervalMicros != 10_000 {
		t.Errorf("expected one cyclic 10ms task, got %#v", res.Tasks)
	}
	if res.Tasks[0].StackSize != DefaultStackSize {
		t.Errorf("expected default stack size %d, got %d", DefaultStackSize, res.Tasks[0].StackSize)
	}
}

func TestBuildDebugMapOffsetsBySegment(t *testing.T) {
	manifest := Manifest{
		Tasks: []Task{
			{Name: "T1", Trigger: Cyclic, IntervalMS: 10, Programs: []string{"P1"}},
			{Name: "T2", Trigger: Cyclic, IntervalMS: 10, Programs: []string{"P2"}},
		},
	}
	programs := []ProgramSource{
		{Name: "P1", Source: prog1Src},
		{Name: "P2", Source: prog2Src},
	}
	res, err := Build(manifest, programs, Options{GenerateDebugMap: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(res.Artifact.DebugMap) == 0 {
		t.Fatal("expected a non-empty debug map when GenerateDebugMap is set")
	}
	for _, e := range res.Artifact.DebugMap {
		if e.PC < 0 || e.PC >= res.CodeSize {
			t.Errorf("debug entry pc %d out of [0, %d)", e.PC, res.CodeSize)
		}
	}
}

func TestBuildProjectSnapshot(t *testing.T) {
	res, err := BuildSingleProgram("P1", prog1Src, Options{})
	if err != nil {
		t.Fatalf("BuildSingleProgram: %v", err)
	}
	snaps.MatchSnapshot(t, "single_program_task_table", res.Tasks)
}
