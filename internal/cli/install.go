package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/marang/brewkit/internal/tui"
	"github.com/marang/brewkit/pkg/brewkit"
)

var installCmd = &cobra.Command{
	Use:   "install <formula>",
	Short: "Build and install a formula from source",
	Long: `Install downloads a formula's source archive, verifies it against the
declared SHA-256 digest, builds it with the declared toolchain, installs
the binary into <prefix>/bin and runs the formula's smoke test.

A failed download, checksum, dependency or build leaves the prefix
untouched. A failed smoke test leaves the binary installed and reports
exit code 15.

Examples:
  # Install the pinned release
  brewkit install emqutiti

  # Build the latest commit of the head repository
  brewkit install emqutiti --head

  # Install into a different prefix and keep the build tree
  brewkit install emqutiti --prefix /opt/tools --keep-tmp`,
	Args:              RequireFormulaName,
	ValidArgsFunction: completeFormulaNames,
	RunE:              runInstall,
}

type installFlagValues struct {
	head      bool
	keepTmp   bool
	skipTest  bool
	buildArgs []string
}

var installFlags installFlagValues

func init() {
	rootCmd.AddCommand(installCmd)

	installCmd.Flags().BoolVar(&installFlags.head, "head", false,
		"Build the latest revision of the formula's head repository instead of the pinned release")
	installCmd.Flags().BoolVar(&installFlags.keepTmp, "keep-tmp", false,
		"Keep the build directory for inspection")
	installCmd.Flags().BoolVar(&installFlags.skipTest, "skip-test", false,
		"Install without running the smoke test")
	installCmd.Flags().StringArrayVar(&installFlags.buildArgs, "build-arg", nil,
		"Extra argument passed to the build tool (repeatable)")
}

func runInstall(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	source := brewkit.SourceStable
	if installFlags.head {
		source = brewkit.SourceHead
	}

	result, err := a.installer.Install(ctx, brewkit.InstallConfig{
		Formula:   args[0],
		Prefix:    a.cfg.Prefix,
		Source:    source,
		BuildArgs: installFlags.buildArgs,
		KeepTemp:  installFlags.keepTmp,
		SkipTest:  installFlags.skipTest,
		Timeout:   a.cfg.InstallTimeout(),
		Verbose:   getVerboseFlag(cmd),
	})
	if result != nil {
		printInstallResult(cmd.OutOrStdout(), result)
	}
	if err != nil {
		return fmt.Errorf("install %s failed: %w", args[0], err)
	}
	return nil
}

func printInstallResult(w io.Writer, result *brewkit.InstallResult) {
	fmt.Fprintln(w, tui.Details(result.Formula+" "+result.Version,
		tui.Field{Label: "Source", Value: string(result.Source)},
		tui.Field{Label: "Binary", Value: strings.Join(result.Binaries, ", ")},
		tui.Field{Label: "Test", Value: tui.Status(string(result.Verification))},
		tui.Field{Label: "Time", Value: result.Duration.Round(time.Millisecond).String()},
	))
}
