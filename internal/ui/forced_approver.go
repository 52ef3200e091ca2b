package ui

import (
	"context"
	"fmt"
	"io"

	"github.com/marang/brewkit/pkg/brewkit"
)

// ForcedApprover implements the Approver interface for non-interactive use.
// It lists what will be removed and approves, used with --yes or when no
// terminal is attached.
type ForcedApprover struct {
	output io.Writer
}

// NewForcedApprover creates a new ForcedApprover writing to output.
func NewForcedApprover(output io.Writer) brewkit.Approver {
	return &ForcedApprover{output: output}
}

// RequestApproval reports the files about to be removed and approves.
func (a *ForcedApprover) RequestApproval(ctx context.Context, formula string, files []string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(a.output, "Uninstalling %s (%d %s)\n", formula, len(files), plural(len(files), "file", "files"))
	return true, nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// Verify ForcedApprover implements the Approver interface at compile time
var _ brewkit.Approver = (*ForcedApprover)(nil)
