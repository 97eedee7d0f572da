package cmd

import (
	"fmt"

	"github.com/eduardojvieira/stc/pkg/stc"
	"github.com/spf13/cobra"
)

var validateEval string

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a Structured Text program for compile errors without writing output",
	Args:  cobra.MaximumNArgs(1),
	RunE:  validateSource,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVarP(&validateEval, "eval", "e", "", "validate inline source instead of reading a file")
}

func validateSource(cmd *cobra.Command, args []string) error {
	input, name, err := readSource(validateEval, args)
	if err != nil {
		return err
	}

	if err := stc.Validate(input); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	fmt.Printf("%s: ok\n", name)
	return nil
}
