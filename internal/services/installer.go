package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marang/brewkit/internal/fetch"
	"github.com/marang/brewkit/internal/lock"
	"github.com/marang/brewkit/internal/receipt"
	"github.com/marang/brewkit/internal/recipe"
	"github.com/marang/brewkit/pkg/brewkit"
)

// StagingDir is where builds run, relative to the prefix. Staging lives
// inside the prefix so finished binaries can be renamed into place.
var StagingDir = ".staging"

// FormulaLookup finds formulas by name. *formula.Index implements it.
type FormulaLookup interface {
	Lookup(name string) (brewkit.Formula, error)
}

// RecipeFactory creates the Build/Verify procedure for a formula.
type RecipeFactory func(f brewkit.Formula, logger brewkit.Logger) brewkit.Recipe

// HeadFetcherFactory creates a head fetcher once the head toolchain
// (git) has been resolved.
type HeadFetcherFactory func(toolchain brewkit.ToolchainPaths, logger brewkit.Logger) brewkit.HeadFetcher

// InstallService implements the Installer interface.
// Thread-Safety: NOT safe for concurrent Install() calls on the same instance.
// Separate processes are serialized per prefix by a file lock.
type InstallService struct {
	formulas    FormulaLookup
	fetcher     brewkit.SourceFetcher
	resolver    brewkit.DependencyResolver
	logger      brewkit.Logger
	newRecipe   RecipeFactory
	newHead     HeadFetcherFactory
	phases      brewkit.PhaseRunner
	lockTimeout time.Duration
}

// InstallOption configures an InstallService.
type InstallOption func(*InstallService)

// WithRecipeFactory replaces how recipes are created.
func WithRecipeFactory(f RecipeFactory) InstallOption {
	return func(s *InstallService) { s.newRecipe = f }
}

// WithHeadFetcherFactory replaces how head checkouts are made.
func WithHeadFetcherFactory(f HeadFetcherFactory) InstallOption {
	return func(s *InstallService) { s.newHead = f }
}

// WithPhaseRunner replaces the phase reporter.
func WithPhaseRunner(p brewkit.PhaseRunner) InstallOption {
	return func(s *InstallService) { s.phases = p }
}

// WithLockTimeout sets how long an install waits for the prefix lock.
func WithLockTimeout(d time.Duration) InstallOption {
	return func(s *InstallService) { s.lockTimeout = d }
}

// NewInstallService creates a new InstallService with all dependencies injected.
// Panics on nil dependencies: these are wiring errors, not runtime conditions.
func NewInstallService(
	formulas FormulaLookup,
	fetcher brewkit.SourceFetcher,
	resolver brewkit.DependencyResolver,
	logger brewkit.Logger,
	opts ...InstallOption,
) *InstallService {
	if formulas == nil {
		panic("formulas cannot be nil")
	}
	if fetcher == nil {
		panic("fetcher cannot be nil")
	}
	if resolver == nil {
		panic("resolver cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	s := &InstallService{
		formulas:    formulas,
		fetcher:     fetcher,
		resolver:    resolver,
		logger:      logger,
		newRecipe:   defaultRecipe,
		newHead:     defaultHeadFetcher,
		lockTimeout: brewkit.DefaultLockTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.phases == nil {
		s.phases = NewLogPhaseRunner(logger)
	}
	return s
}

func defaultRecipe(f brewkit.Formula, logger brewkit.Logger) brewkit.Recipe {
	return recipe.New(f, logger)
}

func defaultHeadFetcher(toolchain brewkit.ToolchainPaths, logger brewkit.Logger) brewkit.HeadFetcher {
	return fetch.NewGitHeadFetcher(toolchain["git"], logger)
}

// Install resolves, fetches, builds, installs and verifies a formula.
//
// A failure before the binaries are moved into the prefix leaves the prefix
// untouched. A verification failure leaves the installed binaries in place
// with a receipt marked failed; in that case both the result and the error
// are returned.
func (s *InstallService) Install(ctx context.Context, config brewkit.InstallConfig) (*brewkit.InstallResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}
	start := time.Now()

	f, err := s.formulas.Lookup(config.Formula)
	if err != nil {
		return nil, err
	}
	if config.Source == brewkit.SourceHead && !f.HasHead() {
		return nil, fmt.Errorf("%s: %w", f.Name, brewkit.ErrHeadUnavailable)
	}

	var toolchain brewkit.ToolchainPaths
	err = s.phases.RunPhase(ctx, "Resolving dependencies for "+f.Name, func(ctx context.Context) error {
		var err error
		toolchain, err = s.resolver.ResolveBuildDeps(ctx, requiredDeps(f, config))
		return err
	})
	if err != nil {
		return nil, err
	}

	prefixLock, err := lock.Acquire(ctx, config.Prefix, s.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer prefixLock.Release()

	staging := filepath.Join(config.Prefix, StagingDir, uuid.NewString())
	if err := os.MkdirAll(staging, 0755); err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	if config.KeepTemp {
		defer s.logger.Info("Kept build directory %s", staging)
	} else {
		defer os.RemoveAll(staging)
	}

	var tree brewkit.ExtractedTree
	err = s.phases.RunPhase(ctx, "Fetching "+describeSource(f, config.Source), func(ctx context.Context) error {
		var err error
		tree, err = s.fetchSource(ctx, f, config.Source, toolchain, filepath.Join(staging, "src"))
		return err
	})
	if err != nil {
		return nil, err
	}

	rcp := s.newRecipe(f, s.logger)
	stagedPrefix := filepath.Join(staging, "prefix")

	var staged brewkit.BinaryPaths
	err = s.phases.RunPhase(ctx, "Building "+f.Name, func(ctx context.Context) error {
		var err error
		staged, err = rcp.Build(ctx, brewkit.BuildContext{
			SourceTree: tree.Root,
			Prefix:     stagedPrefix,
			BuildArgs:  config.BuildArgs,
			Toolchain:  toolchain,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	var installed brewkit.BinaryPaths
	err = s.phases.RunPhase(ctx, "Installing into "+config.Prefix, func(ctx context.Context) error {
		var err error
		installed, err = moveIntoPrefix(staged, stagedPrefix, config.Prefix)
		return err
	})
	if err != nil {
		return nil, err
	}

	store := receipt.NewStore(config.Prefix)
	rec := receipt.New(f, config.Source, tree, installed)
	if config.SkipTest {
		rec.MarkSkipped()
	}
	if err := store.Write(rec); err != nil {
		return nil, err
	}

	result := &brewkit.InstallResult{
		InstallID:    rec.InstallID,
		Formula:      f.Name,
		Version:      rec.Version,
		Source:       config.Source,
		Binaries:     installed,
		Verification: rec.Verification,
	}

	if !config.SkipTest {
		verifyErr := s.verify(ctx, rcp, f, installed)
		rec.MarkVerified(verifyErr)
		result.Verification = rec.Verification
		if err := store.Write(rec); err != nil {
			return nil, err
		}
		if verifyErr != nil {
			result.Duration = time.Since(start)
			return result, verifyErr
		}
	}

	result.Duration = time.Since(start)
	s.logger.Info("%s %s installed in %s", f.Name, rec.Version, result.Duration.Round(time.Millisecond))
	return result, nil
}

// Test re-runs the smoke test against the binaries recorded in the
// formula's receipt and records the outcome.
func (s *InstallService) Test(ctx context.Context, prefix, name string) error {
	f, err := s.formulas.Lookup(name)
	if err != nil {
		return err
	}

	prefixLock, err := lock.Acquire(ctx, prefix, s.lockTimeout)
	if err != nil {
		return err
	}
	defer prefixLock.Release()

	store := receipt.NewStore(prefix)
	rec, err := store.Read(f.Name)
	if err != nil {
		return err
	}

	verifyErr := s.verify(ctx, s.newRecipe(f, s.logger), f, rec.Binaries)
	rec.MarkVerified(verifyErr)
	if err := store.Write(rec); err != nil {
		return err
	}
	return verifyErr
}

// Fetch downloads and verifies a formula's stable archive without
// building it. The returned tree's Root has already been removed; Archive
// points into the download cache.
func (s *InstallService) Fetch(ctx context.Context, name string) (brewkit.ExtractedTree, error) {
	f, err := s.formulas.Lookup(name)
	if err != nil {
		return brewkit.ExtractedTree{}, err
	}

	dest, err := os.MkdirTemp("", "brewkit-fetch-")
	if err != nil {
		return brewkit.ExtractedTree{}, fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(dest)

	var tree brewkit.ExtractedTree
	err = s.phases.RunPhase(ctx, "Fetching "+describeSource(f, brewkit.SourceStable), func(ctx context.Context) error {
		var err error
		tree, err = s.fetcher.FetchAndVerify(ctx, f.URL, f.SHA256, dest)
		return err
	})
	return tree, err
}

// Uninstall removes a formula's installed binaries and its receipt and
// returns the removed paths.
func (s *InstallService) Uninstall(ctx context.Context, prefix, name string) ([]string, error) {
	prefixLock, err := lock.Acquire(ctx, prefix, s.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer prefixLock.Release()

	store := receipt.NewStore(prefix)
	rec, err := store.Read(name)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, bin := range rec.Binaries {
		err := os.Remove(bin)
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Verbose("%s already removed", bin)
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("removing %s: %w", bin, err)
		}
		removed = append(removed, bin)
	}

	if err := store.Remove(name); err != nil {
		return removed, err
	}
	s.logger.Info("Uninstalled %s %s", rec.Formula, rec.Version)
	return removed, nil
}

func (s *InstallService) fetchSource(ctx context.Context, f brewkit.Formula, source brewkit.SourceKind, toolchain brewkit.ToolchainPaths, dest string) (brewkit.ExtractedTree, error) {
	if source == brewkit.SourceHead {
		return s.newHead(toolchain, s.logger).FetchHead(ctx, f.Head, dest)
	}
	return s.fetcher.FetchAndVerify(ctx, f.URL, f.SHA256, dest)
}

func (s *InstallService) verify(ctx context.Context, rcp brewkit.Recipe, f brewkit.Formula, binaries brewkit.BinaryPaths) error {
	bin := testedBinary(f, binaries)
	if bin == "" {
		return &brewkit.VerifyError{
			Binary:       f.Install.Binary,
			Args:         f.Test.Args,
			ExitCode:     -1,
			WantExitCode: f.Test.ExpectExit,
			Err:          fmt.Errorf("no installed binary named %s", f.Install.Binary),
		}
	}
	return s.phases.RunPhase(ctx, "Testing "+f.Name, func(ctx context.Context) error {
		return rcp.Verify(ctx, bin)
	})
}

// testedBinary picks the formula's own binary from the installed set.
func testedBinary(f brewkit.Formula, binaries brewkit.BinaryPaths) string {
	for _, bin := range binaries {
		if filepath.Base(bin) == f.Install.Binary {
			return bin
		}
	}
	if len(binaries) > 0 {
		return binaries[0]
	}
	return ""
}

// requiredDeps is every dependency the install needs resolved up front:
// build and runtime ones, test ones unless the smoke test is skipped, and
// git for head builds.
func requiredDeps(f brewkit.Formula, config brewkit.InstallConfig) []brewkit.Dependency {
	var deps []brewkit.Dependency
	for _, d := range f.Dependencies {
		if d.Scope == brewkit.ScopeTest && config.SkipTest {
			continue
		}
		deps = append(deps, d)
	}
	if config.Source != brewkit.SourceHead {
		return deps
	}
	for _, d := range deps {
		if d.Name == "git" {
			return deps
		}
	}
	return append(deps, brewkit.Dependency{Name: "git", Scope: brewkit.ScopeBuild})
}

func describeSource(f brewkit.Formula, source brewkit.SourceKind) string {
	if source == brewkit.SourceHead {
		return f.Name + " HEAD"
	}
	return f.Name + " " + f.Version
}

// moveIntoPrefix renames each staged binary to the same relative location
// under prefix, replacing an existing file.
func moveIntoPrefix(staged brewkit.BinaryPaths, stagedPrefix, prefix string) (brewkit.BinaryPaths, error) {
	installed := make(brewkit.BinaryPaths, 0, len(staged))
	for _, src := range staged {
		rel, err := filepath.Rel(stagedPrefix, src)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return installed, fmt.Errorf("build produced %s outside its prefix", src)
		}
		dst := filepath.Join(prefix, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return installed, err
		}
		if err := os.Rename(src, dst); err != nil {
			return installed, fmt.Errorf("installing %s: %w", rel, err)
		}
		installed = append(installed, dst)
	}
	return installed, nil
}

var _ brewkit.Installer = (*InstallService)(nil)
