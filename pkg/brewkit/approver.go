package brewkit

import "context"

// Approver handles user confirmation before removing installed files.
//
// Implementations:
//   - ForcedApprover: announces the removal and approves
//   - InteractiveApprover: prompts the user to type the formula name
type Approver interface {
	// RequestApproval asks whether the listed files of formula may be removed.
	// Returns (false, nil) when the user declines and an error only when
	// the prompt itself fails or ctx is cancelled.
	RequestApproval(ctx context.Context, formula string, files []string) (bool, error)
}
