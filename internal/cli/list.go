package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marang/brewkit/internal/receipt"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List available or installed formulas",
	Long: `List prints every known formula with its version, one per line.

With --installed it prints the formulas installed in the prefix with the
installed version and smoke test status instead.

Examples:
  brewkit list
  brewkit list --installed`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var listInstalled bool

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolVar(&listInstalled, "installed", false,
		"List formulas installed in the prefix")
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if listInstalled {
		receipts, err := receipt.NewStore(a.cfg.Prefix).List()
		if err != nil {
			return err
		}
		for _, r := range receipts {
			fmt.Fprintf(out, "%s %s (%s)\n", r.Formula, r.Version, r.Verification)
		}
		return nil
	}

	for _, name := range a.formulas.Names() {
		f, err := a.formulas.Lookup(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s %s\n", f.Name, f.Version)
	}
	return nil
}
