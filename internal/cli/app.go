package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marang/brewkit/internal/config"
	"github.com/marang/brewkit/internal/deps"
	"github.com/marang/brewkit/internal/fetch"
	"github.com/marang/brewkit/internal/formula"
	"github.com/marang/brewkit/internal/logging"
	"github.com/marang/brewkit/internal/retry"
	"github.com/marang/brewkit/internal/services"
	"github.com/marang/brewkit/internal/tui"
	"github.com/marang/brewkit/pkg/brewkit"
)

// dotEnvFile is read from the working directory for BREWKIT_* settings.
const dotEnvFile = ".env"

// app holds the services shared by every command, built from the
// resolved configuration.
type app struct {
	cfg       *config.Config
	logger    brewkit.Logger
	formulas  *formula.Index
	fetcher   *fetch.Fetcher
	installer *services.InstallService
}

func newApp(cmd *cobra.Command) (*app, error) {
	verbose := getVerboseFlag(cmd)

	cfg, err := config.Resolve(config.Options{
		Path:   rootFlags.configPath,
		DotEnv: dotEnvFile,
		Prefix: rootFlags.prefix,
	})
	if err != nil {
		return nil, err
	}

	logger := logging.NewWriterLogger(cmd.ErrOrStderr(), verbose)
	logger.Verbose("Prefix: %s", cfg.Prefix)
	logger.Verbose("Cache: %s", cfg.Cache)

	formulas, err := formula.Load(cfg.FormulaDirs...)
	if err != nil {
		return nil, err
	}

	preferred := append([]string(nil), cfg.SearchDirs...)
	preferred = append(preferred, filepath.Join(cfg.Prefix, "bin"))
	resolver := deps.NewResolver(logger, deps.WithPreferredDirs(preferred...))

	executor := retry.NewExecutor(
		retry.NewFetchErrorClassifier(),
		retry.NewExponentialBackoff(cfg.RetryMaxAttempts(),
			retry.WithInitialDelay(cfg.RetryInitialDelay()),
			retry.WithMaxDelay(cfg.RetryMaxDelay()),
		),
	)
	v, _, _ := resolveVersionInfo()
	fetcher := fetch.New(cfg.Cache, logger,
		fetch.WithRetryExecutor(executor),
		fetch.WithUserAgent("brewkit/"+v),
	)

	interactive := tui.IsInteractive() && tui.IsTerminal(cmd.ErrOrStderr())
	installer := services.NewInstallService(formulas, fetcher, resolver, logger,
		services.WithPhaseRunner(tui.NewPhaseRunner(cmd.ErrOrStderr(), interactive, logger)),
		services.WithLockTimeout(cfg.PrefixLockTimeout()),
	)

	return &app{
		cfg:       cfg,
		logger:    logger,
		formulas:  formulas,
		fetcher:   fetcher,
		installer: installer,
	}, nil
}

// commandContext is cancelled on Ctrl+C or SIGTERM so an interrupted
// install stops its child processes and cleans up its staging directory.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
