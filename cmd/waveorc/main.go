// Command waveorc drives one issue's decomposed tasks through parallel
// implement and spec-check waves.
package main

import (
	"fmt"
	"os"

	"github.com/ariel-frischer/waveorc/internal/cli"
	apperrors "github.com/ariel-frischer/waveorc/internal/errors"
)

func main() {
	if err := cli.Execute(); err != nil {
		if cliErr, ok := err.(*apperrors.CLIError); ok {
			apperrors.PrintError(cliErr)
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
