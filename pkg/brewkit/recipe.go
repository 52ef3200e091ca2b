package brewkit

import "context"

// Recipe is the two-phase procedure that turns a verified source tree into
// an installed, verified binary. The runtime calls Build then Verify, in that
// order, and never calls Verify after a failed Build.
type Recipe interface {
	// Build places the built binaries under bc.Prefix. Any failure of the
	// delegated build step is returned as a *BuildError.
	Build(ctx context.Context, bc BuildContext) (BinaryPaths, error)

	// Verify exercises an installed binary. A deviation from the expected
	// behaviour is returned as a *VerifyError.
	Verify(ctx context.Context, binaryPath string) error
}

// SourceFetcher downloads a pinned source archive, checks its digest and
// extracts it into dest.
type SourceFetcher interface {
	FetchAndVerify(ctx context.Context, url, checksum, dest string) (ExtractedTree, error)
}

// HeadFetcher checks out the latest revision of a formula's head source.
type HeadFetcher interface {
	FetchHead(ctx context.Context, url, dest string) (ExtractedTree, error)
}

// DependencyResolver locates declared dependencies before anything is
// fetched and makes them available to the build.
type DependencyResolver interface {
	ResolveBuildDeps(ctx context.Context, deps []Dependency) (ToolchainPaths, error)
}

// Installer is the orchestrating runtime.
type Installer interface {
	Install(ctx context.Context, config InstallConfig) (*InstallResult, error)
	Test(ctx context.Context, prefix, formula string) error
}

// PhaseRunner runs one named step of an install and reports its progress,
// e.g. as a log line or a terminal spinner.
type PhaseRunner interface {
	RunPhase(ctx context.Context, title string, fn func(ctx context.Context) error) error
}
