package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/litedoc/pkg/core"
)

// Exit codes.
const (
	exitError    = 1
	exitReadOnly = 3
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode maps command errors to process exit codes. Writes refused by a
// read-only store get their own code so scripts can tell them apart.
func exitCode(err error) int {
	if errors.Is(err, core.ErrReadOnly) {
		return exitReadOnly
	}
	return exitError
}

// fatal aborts a command that cannot continue, bypassing cobra's error path.
func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "litedoc: %s: %v\n", msg, err)
	os.Exit(exitError)
}
