package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/marang/brewkit/internal/receipt"
	"github.com/marang/brewkit/internal/tui"
	"github.com/marang/brewkit/pkg/brewkit"
)

var infoCmd = &cobra.Command{
	Use:   "info <formula>",
	Short: "Show a formula and its installation state",
	Long: `Info prints a formula's declaration and, when it is installed in the
prefix, the version, binaries and smoke test status from its receipt.

Example:
  brewkit info emqutiti`,
	Args:              RequireFormulaName,
	ValidArgsFunction: completeFormulaNames,
	RunE:              runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	f, err := a.formulas.Lookup(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, tui.Details(f.Name+" "+f.Version,
		tui.Field{Label: "About", Value: f.Description},
		tui.Field{Label: "Homepage", Value: f.Homepage},
		tui.Field{Label: "Source", Value: f.URL},
		tui.Field{Label: "SHA256", Value: f.SHA256},
		tui.Field{Label: "Head", Value: f.Head},
		tui.Field{Label: "License", Value: f.License},
		tui.Field{Label: "Depends", Value: describeDependencies(f.Dependencies)},
		tui.Field{Label: "Formula", Value: f.Path},
	))

	rec, err := receipt.NewStore(a.cfg.Prefix).Read(f.Name)
	switch {
	case errors.Is(err, brewkit.ErrNotInstalled):
		fmt.Fprintln(out, tui.MutedStyle.Render("Not installed"))
		return nil
	case err != nil:
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, tui.Details("Installed "+rec.Version,
		tui.Field{Label: "Date", Value: rec.InstalledAt.Local().Format(time.DateTime)},
		tui.Field{Label: "Binary", Value: strings.Join(rec.Binaries, ", ")},
		tui.Field{Label: "Revision", Value: rec.Revision},
		tui.Field{Label: "Test", Value: tui.Status(string(rec.Verification))},
		tui.Field{Label: "Error", Value: rec.VerificationError},
	))
	return nil
}

func describeDependencies(deps []brewkit.Dependency) string {
	parts := make([]string, len(deps))
	for i, d := range deps {
		parts[i] = d.String()
	}
	return strings.Join(parts, ", ")
}
