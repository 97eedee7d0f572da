package cmd

import (
	"fmt"

	"github.com/eduardojvieira/stc/internal/lexer"
	"github.com/eduardojvieira/stc/internal/token"
	"github.com/spf13/cobra"
)

var (
	lexEval     string
	lexShowPos  bool
	onlyErrors  bool
)

var lexCmd = &cobra.Command{
	Use:   "lex [file]",
	Short: "Tokenize a Structured Text file or expression",
	Long: `Tokenize a Structured Text program and print the resulting tokens.

Examples:
  stc lex program.st
  stc lex -e "x := x + 1;"
  stc lex --show-pos --only-errors program.st`,
	Args: cobra.MaximumNArgs(1),
	RunE: lexSource,
}

func init() {
	rootCmd.AddCommand(lexCmd)

	lexCmd.Flags().StringVarP(&lexEval, "eval", "e", "", "tokenize inline source instead of reading a file")
	lexCmd.Flags().BoolVar(&lexShowPos, "show-pos", false, "show token positions (line:column)")
	lexCmd.Flags().BoolVar(&onlyErrors, "only-errors", false, "show only illegal tokens")
}

func lexSource(cmd *cobra.Command, args []string) error {
	input, name, err := readSource(lexEval, args)
	if err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		fmt.Printf("Tokenizing: %s\n", name)
		fmt.Println("---")
	}

	l := lexer.New(input)
	tokenCount, errorCount := 0, 0
	for {
		tok, lexErr := l.NextToken()
		if lexErr != nil {
			errorCount++
			fmt.Printf("⚠️  %v\n", lexErr)
			if tok.Kind == token.EOF {
				break
			}
			continue
		}
		if onlyErrors {
			if tok.Kind == token.EOF {
				break
			}
			continue
		}
		tokenCount++
		printToken(tok)
		if tok.Kind == token.EOF {
			break
		}
	}

	if verbose {
		fmt.Println("---")
		fmt.Printf("Total tokens: %d\n", tokenCount)
		if errorCount > 0 {
			fmt.Printf("Errors: %d\n", errorCount)
		}
	}

	if errorCount > 0 {
		return fmt.Errorf("found %d illegal token(s)", errorCount)
	}
	return nil
}

func printToken(tok token.Token) {
	output := fmt.Sprintf("[%-10s] %q", tok.Kind, tok.Lit)
	if lexShowPos {
		output += fmt.Sprintf(" @%d:%d", tok.Pos.Line, tok.Pos.Column)
	}
	fmt.Println(output)
}
