package project

import (
	"fmt"
	"sort"

	"github.com/eduardojvieira/stc/internal/asm"
	"github.com/eduardojvieira/stc/internal/codegen"
	"github.com/eduardojvieira/stc/internal/parser"
	"github.com/eduardojvieira/stc/internal/stdlib"
	"github.com/eduardojvieira/stc/internal/symbols"
)

// ProgramDetail is one compiled program's placement within the final
// relocated artifact, returned for callers (per_program_details in
// spec.md §6) that need to know where a given program's code landed.
type ProgramDetail struct {
	Name       string
	WorkBase   int
	Assembly   string
	CodeOffset int
	CodeSize   int
	EntryPoint int // absolute offset within the final CODE segment
}

// Result is compile_project's return value.
type Result struct {
	Artifact   *asm.Artifact
	Bytecode   []byte
	Tasks      []asm.TaskRecord
	CodeSize   int
	PerProgram []ProgramDetail
}

// Options configures Build beyond the manifest/program inputs.
type Options struct {
	Catalog                *stdlib.Catalog
	InitFlagAddress         int // < 0 means "use the default per program"
	EmitSourceAnnotations   bool
	GenerateDebugMap        bool
}

// Build implements spec.md §4.7's four-step project build: collect
// referenced programs, compile each independently at a distinct
// work-memory base, concatenate and relocate their code, and build a
// task table against the relocated entry points.
func Build(manifest Manifest, programs []ProgramSource, opts Options) (*Result, error) {
	if opts.Catalog == nil {
		opts.Catalog = stdlib.NewCatalog()
	}
	if opts.InitFlagAddress == 0 {
		opts.InitFlagAddress = -1
	}

	referenced, order := referencedPrograms(manifest)
	if len(referenced) == 0 {
		return nil, fmt.Errorf("project: no task references any program")
	}

	bySource := make(map[string]ProgramSource, len(programs))
	for _, p := range programs {
		bySource[p.Name] = p
	}

	var (
		details  []ProgramDetail
		assembled []*asm.Assembled
		code     []byte
	)
	for i, name := range order {
		src, ok := bySource[name]
		if !ok {
			return nil, fmt.Errorf("project: program %q: no source supplied", name)
		}

		workBase := symbols.DefaultWorkBase + i*regionSize
		a, err := compileOne(src, workBase, opts)
		if err != nil {
			return nil, fmt.Errorf("project: program %q: %w", name, err)
		}

		offset := len(code)
		relocated := relocate(a, offset)
		code = append(code, relocated.Code...)

		details = append(details, ProgramDetail{
			Name:       name,
			WorkBase:   workBase,
			Assembly:   a.assembly,
			CodeOffset: offset,
			CodeSize:   len(relocated.Code),
			EntryPoint: offset,
		})
		assembled = append(assembled, relocated.Assembled)
	}

	entryByProgram := make(map[string]int, len(details))
	for _, d := range details {
		entryByProgram[d.Name] = d.EntryPoint
	}

	tasks := make([]asm.TaskRecord, 0, len(manifest.Tasks))
	for _, t := range manifest.Tasks {
		entry := t.EntryProgram()
		if _, ok := referenced[entry]; !ok {
			continue
		}
		tasks = append(tasks, asm.TaskRecord{
			ID:             t.Name,
			Type:           string(t.Trigger),
			Priority:       int32(t.Priority),
			IntervalMicros: int32(t.IntervalMS * 1000),
			EntryPoint:     int32(entryByProgram[entry]),
			StackSize:      DefaultStackSize,
		})
	}

	var debugMap []asm.DebugEntry
	if opts.GenerateDebugMap {
		for i, d := range details {
			for _, e := range assembled[i].DebugMap {
				debugMap = append(debugMap, asm.DebugEntry{PC: d.CodeOffset + e.PC, Line: e.Line})
			}
		}
	}

	art := &asm.Artifact{Code: code, Tasks: tasks, DebugMap: debugMap}
	data, err := asm.NewSerializer().Write(art)
	if err != nil {
		return nil, fmt.Errorf("project: failed to serialize artifact: %w", err)
	}

	return &Result{
		Artifact:   art,
		Bytecode:   data,
		Tasks:      tasks,
		CodeSize:   len(code),
		PerProgram: details,
	}, nil
}

// BuildSingleProgram is the single-file convenience variant of Build: a
// one-task, one-program project with default scheduling parameters, per
// spec.md §4.7's "single-file convenience variant" and SPEC_FULL.md §10.
func BuildSingleProgram(programName, source string, opts Options) (*Result, error) {
	manifest := Manifest{
		Name: programName,
		Tasks: []Task{
			{Name: "main", Trigger: Cyclic, IntervalMS: 10, Priority: 0, Programs: []string{programName}},
		},
	}
	return Build(manifest, []ProgramSource{{Name: programName, Source: source}}, opts)
}

// referencedPrograms returns the set of program names bound to at least
// one task, plus a stable compile order (sorted by program name), per
// spec.md §4.7 step 1: programs no task references are never compiled.
func referencedPrograms(m Manifest) (map[string]bool, []string) {
	seen := make(map[string]bool)
	var order []string
	for _, t := range m.Tasks {
		name := t.EntryProgram()
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		order = append(order, name)
	}
	sort.Strings(order)
	return seen, order
}

type compileUnit struct {
	assembly string
	*asm.Assembled
}

// compileOne runs one program through the full pipeline (parse -> layout
// -> codegen -> assemble), exactly as a single-program compile does, but
// at a caller-supplied work-memory base.
func compileOne(src ProgramSource, workBase int, opts Options) (*compileUnit, error) {
	p := parser.New(src.Source)
	cu, err := p.Parse()
	if err != nil {
		return nil, err
	}

	unit, err := symbols.NewBuilder(symbols.Options{WorkBase: workBase, Catalog: opts.Catalog}, src.Source).Build(cu)
	if err != nil {
		return nil, err
	}

	gen := codegen.New(unit, cu, opts.Catalog, src.Source)
	gen.SetAnnotateSource(opts.EmitSourceAnnotations || opts.GenerateDebugMap)
	if opts.InitFlagAddress >= 0 {
		gen.SetInitFlagAddr(opts.InitFlagAddress)
	}

	assembly, err := gen.Generate(src.Name)
	if err != nil {
		return nil, err
	}

	assembled, err := asm.Assemble(src.Name, assembly)
	if err != nil {
		return nil, err
	}

	return &compileUnit{assembly: assembly, Assembled: assembled}, nil
}

type relocatedUnit struct {
	*asm.Assembled
}

// relocate rewrites every control-flow operand in a's code by offset,
// per spec.md §4.7 step 3: opAddr-kind operands (work/IO/retain
// addresses) are left untouched since they never point into code;
// opCode-kind operands (the byte offsets asm.Assemble recorded in
// RelocSites) are shifted by the program's placement within the final
// concatenation.
func relocate(a *compileUnit, offset int) *relocatedUnit {
	code := make([]byte, len(a.Code))
	copy(code, a.Code)
	for _, site := range a.RelocSites {
		v := decodeRelocOperand(code[site : site+4])
		writeRelocOperand(code[site:site+4], v+offset)
	}
	return &relocatedUnit{Assembled: &asm.Assembled{
		Code:       code,
		RelocSites: a.RelocSites,
		Labels:     a.Labels,
		DebugMap:   a.DebugMap,
	}}
}

func decodeRelocOperand(b []byte) int {
	u := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return int(int32(u))
}

func writeRelocOperand(b []byte, v int) {
	u := uint32(int32(v))
	b[0] = byte(u)
	b[1] = byte(u >> 8)
	b[2] = byte(u >> 16)
	b[3] = byte(u >> 24)
}
