package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eduardojvieira/stc/pkg/stc"
	"github.com/spf13/cobra"
)

var (
	compileEval            string
	compileOutput          string
	compileWorkMemoryBase  int
	compileInitFlagAddress int
	compileEmitAnnotations bool
)

var compileCmd = &cobra.Command{
	Use:   "compile [file]",
	Short: "Compile a Structured Text program to textual VM assembly",
	Long: `Compile lowers a Structured Text program to the textual assembly
contract consumed by the build command and by a downstream assembler.

Examples:
  stc compile program.st
  stc compile program.st -o program.asm
  stc compile program.st --emit-source-annotations`,
	Args: cobra.MaximumNArgs(1),
	RunE: compileSource,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&compileEval, "eval", "e", "", "compile inline source instead of reading a file")
	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "", "output file (default: <input>.asm)")
	compileCmd.Flags().IntVar(&compileWorkMemoryBase, "work-memory-base", 0, "override the work-memory region base address")
	compileCmd.Flags().IntVar(&compileInitFlagAddress, "init-flag-address", -1, "override the init-guard flag address")
	compileCmd.Flags().BoolVar(&compileEmitAnnotations, "emit-source-annotations", false, "emit `; @source <line>` comments in the assembly")
}

func engineOptions() []stc.Option {
	var opts []stc.Option
	if compileWorkMemoryBase != 0 {
		opts = append(opts, stc.WithWorkMemoryBase(compileWorkMemoryBase))
	}
	if compileInitFlagAddress >= 0 {
		opts = append(opts, stc.WithInitFlagAddress(compileInitFlagAddress))
	}
	if compileEmitAnnotations {
		opts = append(opts, stc.WithEmitSourceAnnotations(true))
	}
	return opts
}

func compileSource(cmd *cobra.Command, args []string) error {
	input, name, err := readSource(compileEval, args)
	if err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		fmt.Fprintf(os.Stderr, "Compiling %s...\n", name)
	}

	engine, err := stc.New(engineOptions()...)
	if err != nil {
		return fmt.Errorf("failed to construct compiler engine: %w", err)
	}

	assembly, err := engine.CompileToAssembly(input)
	if err != nil {
		return fmt.Errorf("compilation failed: %w", err)
	}

	outFile := compileOutput
	if outFile == "" {
		outFile = outputName(name, ".asm")
	}
	if err := os.WriteFile(outFile, []byte(assembly), 0o644); err != nil {
		return fmt.Errorf("failed to write output file %s: %w", outFile, err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Assembly written to %s (%d bytes)\n", outFile, len(assembly))
	} else {
		fmt.Printf("Compiled %s -> %s\n", name, outFile)
	}
	return nil
}

func outputName(inputName, ext string) string {
	if inputName == "<eval>" {
		return "out" + ext
	}
	base := filepath.Ext(inputName)
	if base != "" {
		return strings.TrimSuffix(inputName, base) + ext
	}
	return inputName + ext
}
