package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/marang/brewkit/internal/cli"
	"github.com/marang/brewkit/pkg/brewkit"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(brewkit.ExitPanic)
		}
	}()

	if os.Getenv("BREWKIT_TEST_PANIC") == "1" {
		panic("intentional test panic")
	}

	if err := cli.Execute(); err != nil {
		os.Exit(brewkit.ExitCodeForError(err))
	}
}
