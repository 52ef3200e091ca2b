package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/marang/brewkit/pkg/brewkit"
)

// InteractiveApprover implements the Approver interface for console-based
// interactive confirmation. It prompts the user to type the formula name
// to confirm the removal.
type InteractiveApprover struct {
	input  io.Reader
	output io.Writer
}

// NewInteractiveApprover creates a new InteractiveApprover.
func NewInteractiveApprover(input io.Reader, output io.Writer) brewkit.Approver {
	return &InteractiveApprover{input: input, output: output}
}

// RequestApproval lists the files and prompts the user to type the formula name.
func (a *InteractiveApprover) RequestApproval(ctx context.Context, formula string, files []string) (bool, error) {
	fmt.Fprintf(a.output, "\nThe following files of %s will be removed:\n", formula)
	for _, f := range files {
		fmt.Fprintf(a.output, "  %s\n", f)
	}
	fmt.Fprintf(a.output, "\nTo confirm, type the formula name '%s' and press Enter: ", formula)

	// Read user input with context cancellation support
	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		reader := bufio.NewReader(a.input)
		input, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || input == "") {
			errChan <- err
			return
		}
		inputChan <- strings.TrimSpace(input)
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-errChan:
		return false, fmt.Errorf("failed to read input: %w", err)
	case input := <-inputChan:
		if input == formula {
			fmt.Fprintln(a.output, "✓ Confirmed.")
			return true, nil
		}
		fmt.Fprintf(a.output, "✗ Input '%s' does not match formula name '%s'. Operation cancelled.\n", input, formula)
		return false, nil
	}
}

// Verify InteractiveApprover implements the Approver interface at compile time
var _ brewkit.Approver = (*InteractiveApprover)(nil)
