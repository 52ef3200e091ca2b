package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marang/brewkit/internal/receipt"
	"github.com/marang/brewkit/internal/tui"
	"github.com/marang/brewkit/internal/ui"
	"github.com/marang/brewkit/pkg/brewkit"
)

var uninstallCmd = &cobra.Command{
	Use:     "uninstall <formula>",
	Aliases: []string{"remove", "rm"},
	Short:   "Remove an installed formula",
	Long: `Uninstall removes the binaries recorded in a formula's install receipt
and the receipt itself. On a terminal it asks for the formula name as
confirmation first; --yes skips the prompt.

Examples:
  brewkit uninstall emqutiti
  brewkit uninstall emqutiti --yes`,
	Args:              RequireFormulaName,
	ValidArgsFunction: completeInstalledNames,
	RunE:              runUninstall,
}

var uninstallYes bool

func init() {
	rootCmd.AddCommand(uninstallCmd)

	uninstallCmd.Flags().BoolVarP(&uninstallYes, "yes", "y", false,
		"Remove without asking for confirmation")
}

func runUninstall(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	rec, err := receipt.NewStore(a.cfg.Prefix).Read(args[0])
	if err != nil {
		return err
	}

	var approver brewkit.Approver
	if uninstallYes || !tui.IsInteractive() {
		approver = ui.NewForcedApprover(cmd.ErrOrStderr())
	} else {
		approver = ui.NewInteractiveApprover(cmd.InOrStdin(), cmd.ErrOrStderr())
	}
	approved, err := approver.RequestApproval(ctx, rec.Formula, rec.Binaries)
	if err != nil {
		return err
	}
	if !approved {
		return fmt.Errorf("uninstall %s: %w", args[0], brewkit.ErrApprovalDenied)
	}

	removed, err := a.installer.Uninstall(ctx, a.cfg.Prefix, args[0])
	for _, path := range removed {
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", path)
	}
	if err != nil {
		return fmt.Errorf("uninstall %s failed: %w", args[0], err)
	}
	return nil
}
