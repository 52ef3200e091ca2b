package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "brewkit",
	Short: "Build and install command-line tools from source formulas",
	Long: `brewkit installs command-line tools from declarative formulas.

A formula names a pinned source archive and its SHA-256 digest, the
toolchain needed to build it and a smoke test for the installed binary.
brewkit downloads and verifies the archive, builds it with the declared
toolchain, installs the binary into a prefix and runs the smoke test.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid formula or configuration
  11 - Source download or extraction failed
  12 - Source archive checksum mismatch
  13 - Build dependency could not be resolved
  14 - Build failed
  15 - Installed binary failed its smoke test
  16 - Installation prefix locked by another process
  17 - Formula not found or not installed`,
	SilenceUsage: true,
}

var rootFlags struct {
	configPath string
	prefix     string
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout)
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
	rootCmd.PersistentFlags().StringVar(&rootFlags.configPath, "config", "",
		"Configuration file (default: $XDG_CONFIG_HOME/brewkit/brewkit.yaml)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.prefix, "prefix", "",
		"Installation prefix (overrides $BREWKIT_PREFIX and the config file)")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
