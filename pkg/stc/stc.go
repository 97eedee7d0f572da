// Package stc is the public entry point to the compiler: an Engine
// wrapping the internal lex/parse/layout/codegen/assemble pipeline
// behind the five operations spec.md §6 names as the primary API.
// Grounded on the shape implied by the teacher's pkg/dwscript test
// suite (compile_mode_test.go, parse_test.go, error_test.go): a small
// Engine type constructed once and reused across calls, with Eval/
// Compile/Parse as its three verbs generalized here to this compiler's
// own Validate/CompileToAssembly/CompileToBinary/CompileProject/Parse.
package stc

import (
	"fmt"

	"github.com/eduardojvieira/stc/internal/asm"
	"github.com/eduardojvieira/stc/internal/ast"
	"github.com/eduardojvieira/stc/internal/codegen"
	"github.com/eduardojvieira/stc/internal/parser"
	"github.com/eduardojvieira/stc/internal/project"
	"github.com/eduardojvieira/stc/internal/stdlib"
	"github.com/eduardojvieira/stc/internal/symbols"
)

// Engine holds the configuration shared by every compile call: the
// work-memory base, init-flag placement, and whether to emit debug
// annotations. Stateless otherwise — safe for concurrent use, since
// every call builds its own pipeline state and discards it on return,
// per spec.md §5's single-threaded-per-call concurrency model.
type Engine struct {
	workBase        int
	initFlagAddr    int // -1 means "use the default"
	emitAnnotations bool
	generateDebug   bool
	catalog         *stdlib.Catalog
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithWorkMemoryBase overrides the default work-region base (0x2000).
func WithWorkMemoryBase(addr int) Option { return func(e *Engine) { e.workBase = addr } }

// WithInitFlagAddress overrides the default init-guard flag placement
// (the first byte after the program's laid-out work variables, not the
// work region's last byte).
func WithInitFlagAddress(addr int) Option { return func(e *Engine) { e.initFlagAddr = addr } }

// WithEmitSourceAnnotations turns on `; @source <line>` comments in the
// emitted assembly text. Off by default.
func WithEmitSourceAnnotations(on bool) Option {
	return func(e *Engine) { e.emitAnnotations = on }
}

// WithGenerateDebugMap turns on building a PC-to-source-line debug map
// in CompileToBinary's and CompileProject's artifacts. Off by default.
func WithGenerateDebugMap(on bool) Option { return func(e *Engine) { e.generateDebug = on } }

// New constructs an Engine with its option defaults: work_memory_base
// 0x2000, init_flag_address at the first byte after the program's
// laid-out work variables, emit_source_annotations and
// generate_debug_map both false.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		workBase:     symbols.DefaultWorkBase,
		initFlagAddr: -1,
		catalog:      stdlib.NewCatalog(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Parse lexes and parses source into a compilation unit, performing no
// semantic analysis or code generation.
func (e *Engine) Parse(source string) (*ast.CompilationUnit, error) {
	return parser.New(source).Parse()
}

// compileProgram runs source through parse, layout, codegen, and
// assembly, returning the single PROGRAM's name, its textual assembly,
// and its assembled bytecode.
func (e *Engine) compileProgram(source string) (name, assembly string, assembled *asm.Assembled, err error) {
	cu, err := e.Parse(source)
	if err != nil {
		return "", "", nil, err
	}
	if len(cu.Programs) == 0 {
		return "", "", nil, fmt.Errorf("stc: source declares no PROGRAM")
	}
	name = cu.Programs[0].Name.Value

	unit, err := symbols.NewBuilder(symbols.Options{WorkBase: e.workBase, Catalog: e.catalog}, source).Build(cu)
	if err != nil {
		return "", "", nil, err
	}

	gen := codegen.New(unit, cu, e.catalog, source)
	gen.SetAnnotateSource(e.emitAnnotations || e.generateDebug)
	if e.initFlagAddr >= 0 {
		gen.SetInitFlagAddr(e.initFlagAddr)
	}

	assembly, err = gen.Generate(name)
	if err != nil {
		return "", "", nil, err
	}

	assembled, err = asm.Assemble(name, assembly)
	if err != nil {
		return "", "", nil, err
	}
	return name, assembly, assembled, nil
}

// CompileToAssembly lowers source to textual VM assembly.
func (e *Engine) CompileToAssembly(source string) (string, error) {
	_, assembly, _, err := e.compileProgram(source)
	return assembly, err
}

// BinaryResult is CompileToBinary's return value, per spec.md §6.
type BinaryResult struct {
	Assembly   string
	Bytecode   []byte
	Artifact   *asm.Artifact
	EntryPoint int
	CodeSize   int
	DebugMap   []asm.DebugEntry
}

// CompileToBinary lowers source all the way to a serialized binary
// artifact: entry point 0 (a single-program artifact has no relocation
// to perform), code size the length of the assembled code, and an
// optional debug map when generate_debug_map is set.
func (e *Engine) CompileToBinary(source string) (*BinaryResult, error) {
	_, assembly, assembled, err := e.compileProgram(source)
	if err != nil {
		return nil, err
	}

	art := &asm.Artifact{Code: assembled.Code}
	if e.generateDebug {
		art.DebugMap = assembled.DebugMap
	}
	data, err := asm.NewSerializer().Write(art)
	if err != nil {
		return nil, fmt.Errorf("stc: failed to serialize artifact: %w", err)
	}

	return &BinaryResult{
		Assembly:   assembly,
		Bytecode:   data,
		Artifact:   art,
		EntryPoint: 0,
		CodeSize:   len(assembled.Code),
		DebugMap:   art.DebugMap,
	}, nil
}

// Validate runs source through the full pipeline, discarding any
// output, and reports only whether compilation succeeds.
func (e *Engine) Validate(source string) error {
	_, _, _, err := e.compileProgram(source)
	return err
}

// TriggerKind is a task's scheduling policy, mirroring internal/project
// so callers outside this module never need to import an internal
// package to build a ProjectManifest.
type TriggerKind string

const (
	Cyclic       TriggerKind = "cyclic"
	Event        TriggerKind = "event"
	Freewheeling TriggerKind = "freewheeling"
)

// ProjectTask is one manifest task entry.
type ProjectTask struct {
	Name       string
	Trigger    TriggerKind
	IntervalMS int
	Priority   int
	Programs   []string
}

// ProjectManifest is a project's task table.
type ProjectManifest struct {
	Name    string
	Version string
	Tasks   []ProjectTask
}

// ProgramSource is one named program's source text.
type ProgramSource struct {
	Name   string
	Source string
}

// TaskRecord mirrors one TASK-segment entry of the binary artifact.
type TaskRecord struct {
	ID             string
	Type           string
	Priority       int32
	IntervalMicros int32
	EntryPoint     int32
	StackSize      int32
}

// ProgramDetail describes where one compiled program landed within the
// project's final relocated CODE segment.
type ProgramDetail struct {
	Name       string
	WorkBase   int
	CodeOffset int
	CodeSize   int
	EntryPoint int
}

// ProjectResult is CompileProject's return value, per spec.md §6.
type ProjectResult struct {
	Artifact          []byte
	Tasks             []TaskRecord
	CodeSize          int
	PerProgramDetails []ProgramDetail
}

// CompileProject builds a multi-program project per spec.md §4.7: only
// programs referenced by a task are compiled, each at its own
// work-memory base, concatenated and relocated into one artifact.
func (e *Engine) CompileProject(manifest ProjectManifest, programs []ProgramSource) (*ProjectResult, error) {
	internalManifest := project.Manifest{Name: manifest.Name, Version: manifest.Version}
	for _, t := range manifest.Tasks {
		internalManifest.Tasks = append(internalManifest.Tasks, project.Task{
			Name:       t.Name,
			Trigger:    project.TriggerKind(t.Trigger),
			IntervalMS: t.IntervalMS,
			Priority:   t.Priority,
			Programs:   t.Programs,
		})
	}
	internalPrograms := make([]project.ProgramSource, 0, len(programs))
	for _, p := range programs {
		internalPrograms = append(internalPrograms, project.ProgramSource{Name: p.Name, Source: p.Source})
	}

	res, err := project.Build(internalManifest, internalPrograms, project.Options{
		Catalog:               e.catalog,
		InitFlagAddress:       e.initFlagAddr,
		EmitSourceAnnotations: e.emitAnnotations,
		GenerateDebugMap:      e.generateDebug,
	})
	if err != nil {
		return nil, err
	}

	out := &ProjectResult{Artifact: res.Bytecode, CodeSize: res.CodeSize}
	for _, tr := range res.Tasks {
		out.Tasks = append(out.Tasks, TaskRecord{
			ID: tr.ID, Type: tr.Type, Priority: tr.Priority,
			IntervalMicros: tr.IntervalMicros, EntryPoint: tr.EntryPoint, StackSize: tr.StackSize,
		})
	}
	for _, d := range res.PerProgram {
		out.PerProgramDetails = append(out.PerProgramDetails, ProgramDetail{
			Name: d.Name, WorkBase: d.WorkBase, CodeOffset: d.CodeOffset,
			CodeSize: d.CodeSize, EntryPoint: d.EntryPoint,
		})
	}
	return out, nil
}

// defaultEngine backs the package-level free functions, constructed
// with every option at its spec-mandated default.
var defaultEngine, _ = New()

func CompileToAssembly(source string) (string, error) { return defaultEngine.CompileToAssembly(source) }

func CompileToBinary(source string) (*BinaryResult, error) { return defaultEngine.CompileToBinary(source) }

func Validate(source string) error { return defaultEngine.Validate(source) }

func CompileProject(manifest ProjectManifest, programs []ProgramSource) (*ProjectResult, error) {
	return defaultEngine.CompileProject(manifest, programs)
}

func Parse(source string) (*ast.CompilationUnit, error) { return defaultEngine.Parse(source) }
