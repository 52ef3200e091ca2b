package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <formula>",
	Short: "Download and verify a formula's source archive",
	Long: `Fetch downloads a formula's pinned source archive into the cache and
verifies its SHA-256 digest without building anything. The cached
archive is reused by a later install.

Example:
  brewkit fetch emqutiti`,
	Args:              RequireFormulaName,
	ValidArgsFunction: completeFormulaNames,
	RunE:              runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	tree, err := a.installer.Fetch(ctx, args[0])
	if err != nil {
		return fmt.Errorf("fetch %s failed: %w", args[0], err)
	}

	// Archive path to stdout for scripts.
	fmt.Fprintln(cmd.OutOrStdout(), tree.Archive)
	a.logger.Verbose("SHA256: %s", tree.SHA256)
	return nil
}
