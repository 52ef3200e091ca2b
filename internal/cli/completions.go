package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/marang/brewkit/internal/config"
	"github.com/marang/brewkit/internal/formula"
	"github.com/marang/brewkit/internal/receipt"
	"github.com/marang/brewkit/internal/scaffold"
)

// completeFormulaNames provides shell completion for formula names.
func completeFormulaNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	cfg, err := config.Resolve(config.Options{Path: rootFlags.configPath, DotEnv: dotEnvFile})
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	idx, err := formula.Load(cfg.FormulaDirs...)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	return filterPrefix(idx.Names(), toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeInstalledNames provides shell completion for installed formulas.
func completeInstalledNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	cfg, err := config.Resolve(config.Options{Path: rootFlags.configPath, DotEnv: dotEnvFile})
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	prefix := cfg.Prefix
	if rootFlags.prefix != "" {
		prefix = rootFlags.prefix
	}
	receipts, err := receipt.NewStore(prefix).List()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	names := make([]string, len(receipts))
	for i, r := range receipts {
		names[i] = r.Formula
	}
	return filterPrefix(names, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeFormats provides shell completion for --format values.
func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	formats, err := scaffold.ListTemplates()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return filterPrefix(formats, toComplete), cobra.ShellCompDirectiveNoFileComp
}

func filterPrefix(candidates []string, prefix string) []string {
	var matches []string
	for _, c := range candidates {
		if strings.HasPrefix(c, prefix) {
			matches = append(matches, c)
		}
	}
	return matches
}
