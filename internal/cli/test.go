package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var testCmd = &cobra.Command{
	Use:   "test <formula>",
	Short: "Re-run an installed formula's smoke test",
	Long: `Test runs the smoke test declared by a formula against the binary
recorded at install time and updates the install receipt.

Example:
  brewkit test emqutiti`,
	Args:              RequireFormulaName,
	ValidArgsFunction: completeFormulaNames,
	RunE:              runTest,
}

func init() {
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := a.installer.Test(ctx, a.cfg.Prefix, args[0]); err != nil {
		return fmt.Errorf("test %s failed: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: test passed\n", args[0])
	return nil
}
