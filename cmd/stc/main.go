// Command stc is the compiler's command-line front end: lex/parse/
// compile/build/validate/project subcommands over pkg/stc, grounded on
// the teacher's cmd/dwscript-wasm/main.go package-main-as-thin-shell
// idiom (all real logic lives in the cmd package, which main only
// invokes).
package main

import (
	"fmt"
	"os"

	"github.com/eduardojvieira/stc/cmd/stc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
