package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/eduardojvieira/stc/internal/asm"
	"github.com/eduardojvieira/stc/pkg/stc"
	"github.com/spf13/cobra"
)

func disassembleTo(w io.Writer, code []byte) error {
	return asm.Disassemble(code, w)
}

var (
	buildEval          string
	buildOutput        string
	buildGenerateDebug bool
	buildDisassemble   bool
)

var buildCmd = &cobra.Command{
	Use:   "build [file]",
	Short: "Compile a Structured Text program to a binary artifact",
	Long: `Build lowers a Structured Text program all the way to the binary
artifact format (.pbin): a header, a relocated CODE segment, a TASK
segment, and an optional DEBUG segment.

Examples:
  stc build program.st
  stc build program.st --generate-debug-map -o program.pbin`,
	Args: cobra.MaximumNArgs(1),
	RunE: buildSource,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&buildEval, "eval", "e", "", "build inline source instead of reading a file")
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "output file (default: <input>.pbin)")
	buildCmd.Flags().BoolVar(&buildGenerateDebug, "generate-debug-map", false, "embed a PC-to-source-line debug map")
	buildCmd.Flags().BoolVar(&buildDisassemble, "disassemble", false, "print a disassembled listing after building")
}

func buildSource(cmd *cobra.Command, args []string) error {
	input, name, err := readSource(buildEval, args)
	if err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	opts := engineOptions()
	if buildGenerateDebug {
		opts = append(opts, stc.WithGenerateDebugMap(true))
	}
	engine, err := stc.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to construct compiler engine: %w", err)
	}

	result, err := engine.CompileToBinary(input)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	if buildDisassemble {
		fmt.Fprintf(os.Stderr, "\n== Disassembled Code (%s) ==\n", name)
		if err := disassembleTo(os.Stderr, result.Artifact.Code); err != nil {
			return fmt.Errorf("failed to disassemble: %w", err)
		}
		fmt.Fprintln(os.Stderr)
	}

	outFile := buildOutput
	if outFile == "" {
		outFile = outputName(name, ".pbin")
	}
	if err := os.WriteFile(outFile, result.Bytecode, 0o644); err != nil {
		return fmt.Errorf("failed to write output file %s: %w", outFile, err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Artifact written to %s (%d bytes, code %d bytes)\n",
			outFile, len(result.Bytecode), result.CodeSize)
	} else {
		fmt.Printf("Built %s -> %s\n", name, outFile)
	}
	return nil
}
