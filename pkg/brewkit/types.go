package brewkit

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"time"
)

var formulaNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9+_.@-]*$`)

// ValidFormulaName reports whether name can name a formula. Valid names
// never contain path separators, so they are safe to use as file names.
func ValidFormulaName(name string) bool {
	return formulaNamePattern.MatchString(name)
}

// DependencyScope marks when a dependency is needed.
type DependencyScope string

const (
	// ScopeBuild dependencies are needed only to produce the binary.
	ScopeBuild DependencyScope = "build"
	// ScopeRuntime dependencies must remain available after installation.
	ScopeRuntime DependencyScope = "runtime"
	// ScopeTest dependencies are needed only by the smoke test.
	ScopeTest DependencyScope = "test"
)

// Valid reports whether the scope is one of the known scopes.
func (s DependencyScope) Valid() bool {
	switch s {
	case ScopeBuild, ScopeRuntime, ScopeTest:
		return true
	}
	return false
}

// Dependency is a (name, scope) pair declared by a formula.
type Dependency struct {
	Name  string
	Scope DependencyScope
}

func (d Dependency) String() string {
	return fmt.Sprintf("%s => :%s", d.Name, d.Scope)
}

// InstallSpec parameterizes the install procedure.
type InstallSpec struct {
	// Target is the build target within the source tree, e.g. "./cmd/emqutiti".
	Target string

	// Binary is the name of the produced executable.
	Binary string

	// LDFlags are passed to the build as a single -ldflags argument.
	LDFlags []string
}

// TestSpec parameterizes the smoke test.
type TestSpec struct {
	// Args are passed to the installed binary.
	Args []string

	// ExpectExit is the exit status the binary must return.
	ExpectExit int

	// ExpectOutput must appear in the combined stdout and stderr.
	ExpectOutput string
}

// Formula is the immutable record of one versioned package.
// A new version is a new Formula, never an update to an existing one.
type Formula struct {
	Name         string
	Description  string
	Homepage     string
	URL          string
	SHA256       string
	License      string
	Head         string
	Version      string
	Dependencies []Dependency
	Install      InstallSpec
	Test         TestSpec

	// Path is where the declaration was loaded from, for diagnostics.
	Path string
}

// Clone returns a deep copy so callers cannot mutate a record held by an index.
func (f Formula) Clone() Formula {
	c := f
	c.Dependencies = append([]Dependency(nil), f.Dependencies...)
	c.Install.LDFlags = append([]string(nil), f.Install.LDFlags...)
	c.Test.Args = append([]string(nil), f.Test.Args...)
	return c
}

// HasHead reports whether the formula can be built from its latest revision.
func (f Formula) HasHead() bool {
	return f.Head != ""
}

// DependenciesFor returns the declared dependencies with the given scope.
func (f Formula) DependenciesFor(scope DependencyScope) []Dependency {
	var out []Dependency
	for _, d := range f.Dependencies {
		if d.Scope == scope {
			out = append(out, d)
		}
	}
	return out
}

// SourceKind selects which source a build uses.
type SourceKind string

const (
	SourceStable SourceKind = "stable"
	SourceHead   SourceKind = "head"
)

// ToolchainPaths maps a resolved dependency name to its executable.
type ToolchainPaths map[string]string

// Dirs returns the unique directories of the resolved executables, in
// dependency declaration order when names are supplied, for PATH construction.
func (t ToolchainPaths) Dirs(order ...string) []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(p string) {
		d := filepath.Dir(p)
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	for _, name := range order {
		if p, ok := t[name]; ok {
			add(p)
		}
	}
	for _, p := range t {
		add(p)
	}
	return dirs
}

// ExtractedTree is a verified source tree ready for building.
type ExtractedTree struct {
	// Root is the directory holding the extracted sources.
	Root string

	// Archive is the cached archive the tree came from (empty for head checkouts).
	Archive string

	// SHA256 is the verified digest of Archive.
	SHA256 string

	// Revision is the checked-out commit for head builds.
	Revision string
}

// BuildContext is everything the install procedure receives from the runtime.
type BuildContext struct {
	SourceTree string
	Prefix     string
	BuildArgs  []string
	Toolchain  ToolchainPaths
	Env        []string
}

// BinaryPaths lists the executables a build placed under its prefix.
type BinaryPaths []string

// VerificationStatus records the smoke-test outcome of an installation.
type VerificationStatus string

const (
	VerificationPending VerificationStatus = "pending"
	VerificationPassed  VerificationStatus = "passed"
	VerificationFailed  VerificationStatus = "failed"
	VerificationSkipped VerificationStatus = "skipped"
)

// InstallConfig contains all parameters needed for an install operation.
type InstallConfig struct {
	// Formula is the name of the formula to install.
	Formula string

	// Prefix is the installation prefix.
	Prefix string

	// Source selects the pinned archive or the head revision.
	Source SourceKind

	// BuildArgs are extra arguments appended to the standard build argument set.
	BuildArgs []string

	// KeepTemp retains the build directory after the install for inspection.
	KeepTemp bool

	// SkipTest installs without running the smoke test.
	SkipTest bool

	// Timeout bounds the whole install, zero means no limit.
	Timeout time.Duration

	// Verbose enables detailed logging
	Verbose bool
}

// Validate checks if the InstallConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *InstallConfig) Validate() error {
	var errs []error

	if c.Formula == "" {
		errs = append(errs, fmt.Errorf("formula name is required: %w", ErrInvalidConfig))
	}

	if c.Prefix == "" {
		errs = append(errs, fmt.Errorf("prefix is required: %w", ErrInvalidConfig))
	} else if !filepath.IsAbs(c.Prefix) {
		errs = append(errs, fmt.Errorf("prefix must be an absolute path, got %q: %w", c.Prefix, ErrInvalidConfig))
	}

	switch c.Source {
	case "":
		c.Source = SourceStable
	case SourceStable, SourceHead:
	default:
		errs = append(errs, fmt.Errorf("unknown source %q: %w", c.Source, ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// InstallResult describes a completed installation.
type InstallResult struct {
	InstallID    string
	Formula      string
	Version      string
	Source       SourceKind
	Binaries     BinaryPaths
	Verification VerificationStatus
	Duration     time.Duration
}
