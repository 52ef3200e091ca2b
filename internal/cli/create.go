package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marang/brewkit/internal/formula"
	"github.com/marang/brewkit/internal/scaffold"
	"github.com/marang/brewkit/pkg/brewkit"
)

var createCmd = &cobra.Command{
	Use:   "create <url>",
	Short: "Write a new formula for a source archive",
	Long: `Create downloads a source archive, records its SHA-256 digest and writes
a formula skeleton guessed from the URL. GitHub archive URLs also fill in
the homepage and head repository. Fields that could not be guessed are
listed so they can be filled in by hand.

The formula is written to the first configured formula directory, or to
the current directory when none is configured.

Examples:
  brewkit create https://github.com/marang/emqutiti/archive/refs/tags/v0.4.1.tar.gz
  brewkit create https://example.com/tool-1.0.tar.gz --name tool --format toml`,
	Args:              RequireURL,
	ValidArgsFunction: cobra.NoFileCompletions,
	RunE:              runCreate,
}

type createFlagValues struct {
	name    string
	desc    string
	license string
	format  string
	output  string
}

var createFlags = createFlagValues{format: string(formula.FormatYAML)}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVar(&createFlags.name, "name", "",
		"Formula name (default: derived from the URL)")
	createCmd.Flags().StringVar(&createFlags.desc, "desc", "",
		"One-line description")
	createCmd.Flags().StringVar(&createFlags.license, "license", "",
		"SPDX license identifier, e.g. MIT")
	createCmd.Flags().StringVar(&createFlags.format, "format", string(formula.FormatYAML),
		"Declaration format: yaml|toml")
	createCmd.Flags().StringVarP(&createFlags.output, "output", "o", "",
		"Directory to write the formula to")

	_ = createCmd.RegisterFlagCompletionFunc("format", completeFormats)
}

func runCreate(cmd *cobra.Command, args []string) error {
	rawURL := args[0]

	format := formula.Format(createFlags.format)
	if format != formula.FormatYAML && format != formula.FormatTOML {
		return fmt.Errorf("unknown format %q (want yaml or toml): %w", createFlags.format, brewkit.ErrInvalidConfig)
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	_, digest, err := a.fetcher.DownloadAndHash(ctx, rawURL)
	if err != nil {
		return fmt.Errorf("create failed: %w", err)
	}

	f := scaffold.SkeletonFromURL(rawURL)
	f.SHA256 = digest
	f.Description = createFlags.desc
	f.License = createFlags.license
	if createFlags.name != "" {
		f.Name = createFlags.name
		f.Install.Target = "./cmd/" + f.Name
		f.Install.Binary = f.Name
	}

	dir := createFlags.output
	if dir == "" {
		dir = "."
		if len(a.cfg.FormulaDirs) > 0 {
			dir = a.cfg.FormulaDirs[0]
		}
	}

	result, err := scaffold.NewScaffolder(a.logger).CreateFormula(f, format, dir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, result.Path)
	if len(result.Problems) > 0 {
		a.logger.Info("Edit %s before installing:", result.Path)
		for _, p := range result.Problems {
			a.logger.Info("  %s", p)
		}
	}
	return nil
}
