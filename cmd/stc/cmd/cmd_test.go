package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

const testProgram = `
PROGRAM Main
VAR
	count : DINT;
END_VAR
	count := count + 1;
END_PROGRAM
`

func TestCompileCmdWritesAssembly(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "main.st")
	if err := os.WriteFile(srcPath, []byte(testProgram), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	compileEval = ""
	compileOutput = filepath.Join(dir, "main.asm")
	compileWorkMemoryBase = 0
	compileInitFlagAddress = -1
	compileEmitAnnotations = false

	if err := compileSource(compileCmd, []string{srcPath}); err != nil {
		t.Fatalf("compileSource: %v", err)
	}

	out, err := os.ReadFile(compileOutput)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(out) == 0 {
		t.Error("expected non-empty assembly output")
	}
}

func TestBuildCmdWritesArtifact(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "main.st")
	if err := os.WriteFile(srcPath, []byte(testProgram), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	buildEval = ""
	buildOutput = filepath.Join(dir, "main.pbin")
	buildGenerateDebug = false
	buildDisassemble = false
	compileWorkMemoryBase = 0
	compileInitFlagAddress = -1

	if err := buildSource(buildCmd, []string{srcPath}); err != nil {
		t.Fatalf("buildSource: %v", err)
	}

	data, err := os.ReadFile(buildOutput)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(data) < 8 {
		t.Error("expected a binary artifact of at least header size")
	}
}

func TestValidateCmdRejectsBadSource(t *testing.T) {
	validateEval = "this is not structured text"
	if err := validateSource(validateCmd, nil); err == nil {
		t.Fatal("expected validateSource to reject malformed source")
	}
}

func TestValidateCmdAcceptsGoodSource(t *testing.T) {
	validateEval = testProgram
	if err := validateSource(validateCmd, nil); err != nil {
		t.Errorf("validateSource: unexpected error: %v", err)
	}
}

func TestProjectCmdBuildsArtifact(t *testing.T) {
	dir := t.TempDir()
	p1 := "PROGRAM P1\nVAR\n\tc : DINT;\nEND_VAR\n\tc := c + 1;\nEND_PROGRAM\n"
	p2 := "PROGRAM P2\nVAR\n\td : DINT;\nEND_VAR\n\td := d + 2;\nEND_PROGRAM\n"
	if err := os.WriteFile(filepath.Join(dir, "P1.st"), []byte(p1), 0o644); err != nil {
		t.Fatalf("write P1: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "P2.st"), []byte(p2), 0o644); err != nil {
		t.Fatalf("write P2: %v", err)
	}

	manifestYAML := `
name: demo
version: "1.0"
tasks:
  - name: T1
    trigger: cyclic
    interval_ms: 10
    priority: 1
    programs: [P1]
  - name: T2
    trigger: cyclic
    interval_ms: 100
    priority: 2
    programs: [P2]
`
	manifestPath := filepath.Join(dir, "manifest.yaml")
	if err := os.WriteFile(manifestPath, []byte(manifestYAML), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	projectProgramsDir = dir
	projectOutput = filepath.Join(dir, "project.pbin")

	if err := buildProject(projectCmd, []string{manifestPath}); err != nil {
		t.Fatalf("buildProject: %v", err)
	}

	data, err := os.ReadFile(projectOutput)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(data) < 8 {
		t.Error("expected a binary artifact of at least header size")
	}
}
