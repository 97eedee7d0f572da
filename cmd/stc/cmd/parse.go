package cmd

import (
	"fmt"

	"github.com/eduardojvieira/stc/pkg/stc"
	"github.com/spf13/cobra"
)

var parseEval string

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a Structured Text file and print its structure",
	Args:  cobra.MaximumNArgs(1),
	RunE:  parseSource,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVarP(&parseEval, "eval", "e", "", "parse inline source instead of reading a file")
}

func parseSource(cmd *cobra.Command, args []string) error {
	input, name, err := readSource(parseEval, args)
	if err != nil {
		return err
	}

	cu, err := stc.Parse(input)
	if err != nil {
		return fmt.Errorf("parsing %s failed: %w", name, err)
	}

	fmt.Printf("%s: %d program(s), %d function(s), %d function block(s), %d global var block(s)\n",
		name, len(cu.Programs), len(cu.Functions), len(cu.FunctionBlocks), len(cu.Globals))
	for _, p := range cu.Programs {
		fmt.Printf("  PROGRAM %s (%d statements)\n", p.Name.Value, len(p.Body))
	}
	for _, fn := range cu.Functions {
		fmt.Printf("  FUNCTION %s\n", fn.Name.Value)
	}
	for _, fb := range cu.FunctionBlocks {
		fmt.Printf("  FUNCTION_BLOCK %s\n", fb.Name.Value)
	}
	return nil
}
