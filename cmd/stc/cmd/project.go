package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/eduardojvieira/stc/pkg/stc"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

var (
	projectProgramsDir string
	projectOutput       string
)

// manifestFile is the YAML-on-disk shape of a project manifest, mirroring
// spec.md §6's `{name, version, tasks: [{name, trigger, interval_ms,
// priority, programs}]}` schema.
type manifestFile struct {
	Name    string        `yaml:"name"`
	Version string        `yaml:"version"`
	Tasks   []taskFile    `yaml:"tasks"`
}

type taskFile struct {
	Name       string   `yaml:"name"`
	Trigger    string   `yaml:"trigger"`
	IntervalMS int      `yaml:"interval_ms"`
	Priority   int      `yaml:"priority"`
	Programs   []string `yaml:"programs"`
}

var projectCmd = &cobra.Command{
	Use:   "project [manifest.yaml]",
	Short: "Build a multi-program project into one relocated binary artifact",
	Long: `Project reads a YAML task manifest and compiles every program it
references, each at its own work-memory base, concatenating and
relocating them into a single CODE+TASK(+DEBUG) binary artifact.

Program sources are read from --programs-dir as "<program_name>.st".

Example:
  stc project manifest.yaml --programs-dir ./programs`,
	Args: cobra.ExactArgs(1),
	RunE: buildProject,
}

func init() {
	rootCmd.AddCommand(projectCmd)

	projectCmd.Flags().StringVar(&projectProgramsDir, "programs-dir", ".", "directory containing <program_name>.st source files")
	projectCmd.Flags().StringVarP(&projectOutput, "output", "o", "project.pbin", "output artifact path")
}

func buildProject(cmd *cobra.Command, args []string) error {
	manifestPath := args[0]
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("failed to read manifest %s: %w", manifestPath, err)
	}

	var mf manifestFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return fmt.Errorf("failed to parse manifest %s: %w", manifestPath, err)
	}

	manifest := stc.ProjectManifest{Name: mf.Name, Version: mf.Version}
	referenced := map[string]bool{}
	for _, t := range mf.Tasks {
		manifest.Tasks = append(manifest.Tasks, stc.ProjectTask{
			Name:       t.Name,
			Trigger:    stc.TriggerKind(t.Trigger),
			IntervalMS: t.IntervalMS,
			Priority:   t.Priority,
			Programs:   t.Programs,
		})
		for _, p := range t.Programs {
			referenced[p] = true
		}
	}

	var programs []stc.ProgramSource
	for name := range referenced {
		path := filepath.Join(projectProgramsDir, name+".st")
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read program %s: %w", name, err)
		}
		programs = append(programs, stc.ProgramSource{Name: name, Source: string(src)})
	}

	result, err := stc.CompileProject(manifest, programs)
	if err != nil {
		return fmt.Errorf("project build failed: %w", err)
	}

	if err := os.WriteFile(projectOutput, result.Artifact, 0o644); err != nil {
		return fmt.Errorf("failed to write output file %s: %w", projectOutput, err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		for _, d := range result.PerProgramDetails {
			fmt.Fprintf(os.Stderr, "  %-16s work_base=0x%04x code=[%d,%d) entry=%d\n",
				d.Name, d.WorkBase, d.CodeOffset, d.CodeOffset+d.CodeSize, d.EntryPoint)
		}
	}
	fmt.Printf("Built project %s -> %s (%d bytes, %d tasks)\n",
		manifest.Name, projectOutput, len(result.Artifact), len(result.Tasks))
	return nil
}
