package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marang/brewkit/pkg/brewkit"
)

// RequireFormulaName validates that exactly one formula name argument is provided.
// Returns a helpful error message with usage and examples if missing or too many,
// and rejects names that are not formula names.
func RequireFormulaName(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf(`missing required argument: <formula>

Usage: %s

Example:
  %s emqutiti

Use 'brewkit list' to see available formulas.`, cmd.UseLine(), cmd.CommandPath())
	}
	if len(args) > 1 {
		return fmt.Errorf("accepts 1 arg(s), received %d", len(args))
	}
	if !brewkit.ValidFormulaName(args[0]) {
		return fmt.Errorf("invalid argument %q: formula names are lowercase letters, digits, and + _ . @ -", args[0])
	}
	return nil
}

// RequireURL validates that exactly one source archive URL is provided.
func RequireURL(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf(`missing required argument: <url>

Usage: %s

Example:
  %s https://github.com/marang/emqutiti/archive/refs/tags/v0.4.1.tar.gz`, cmd.UseLine(), cmd.CommandPath())
	}
	if len(args) > 1 {
		return fmt.Errorf("accepts 1 arg(s), received %d", len(args))
	}
	return nil
}
