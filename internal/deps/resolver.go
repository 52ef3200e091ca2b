// Package deps resolves a formula's declared dependencies to executables.
//
// Dependencies are resolved against preferred directories first (the
// prefix's own bin and configured toolchain dirs), then PATH, then a list
// of fallback directories for toolchains installed outside PATH, such as
// /usr/local/go/bin. A dependency that maps to a different executable
// name, like "go" provided by a versioned "go1.24", is configured through
// aliases.
package deps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/marang/brewkit/pkg/brewkit"
)

// DefaultSearchDirs are consulted after PATH.
var DefaultSearchDirs = []string{
	"/usr/local/go/bin",
	"/opt/homebrew/bin",
	"/usr/local/bin",
}

// Resolver implements brewkit.DependencyResolver.
type Resolver struct {
	preferred  []string
	searchDirs []string
	aliases    map[string]string
	lookPath   func(string) (string, error)
	logger     brewkit.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSearchDirs replaces the fallback directories consulted after PATH.
func WithSearchDirs(dirs ...string) Option {
	return func(r *Resolver) {
		r.searchDirs = append([]string(nil), dirs...)
	}
}

// WithPreferredDirs adds directories consulted before PATH.
func WithPreferredDirs(dirs ...string) Option {
	return func(r *Resolver) {
		r.preferred = append(r.preferred, dirs...)
	}
}

// WithAlias resolves dependency name through executable instead.
func WithAlias(name, executable string) Option {
	return func(r *Resolver) {
		r.aliases[name] = executable
	}
}

// WithLookPath overrides the PATH lookup, mainly for tests.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(r *Resolver) {
		r.lookPath = fn
	}
}

// NewResolver creates a Resolver. Panics if logger is nil.
func NewResolver(logger brewkit.Logger, opts ...Option) *Resolver {
	if logger == nil {
		panic("logger cannot be nil")
	}
	r := &Resolver{
		searchDirs: append([]string(nil), DefaultSearchDirs...),
		aliases:    make(map[string]string),
		lookPath:   exec.LookPath,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveBuildDeps resolves every given dependency whatever its scope; the
// caller picks which ones the build needs. All missing dependencies are
// reported together.
func (r *Resolver) ResolveBuildDeps(ctx context.Context, deps []brewkit.Dependency) (brewkit.ToolchainPaths, error) {
	return r.Resolve(ctx, deps, brewkit.ScopeBuild, brewkit.ScopeRuntime, brewkit.ScopeTest)
}

// Resolve resolves the dependencies with any of the given scopes.
func (r *Resolver) Resolve(ctx context.Context, deps []brewkit.Dependency, scopes ...brewkit.DependencyScope) (brewkit.ToolchainPaths, error) {
	wanted := make(map[brewkit.DependencyScope]bool, len(scopes))
	for _, s := range scopes {
		wanted[s] = true
	}

	paths := make(brewkit.ToolchainPaths)
	var missing []string
	for _, dep := range deps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !wanted[dep.Scope] {
			continue
		}
		path, err := r.Find(dep.Name)
		if err != nil {
			missing = append(missing, dep.Name)
			r.logger.Verbose("dependency %s: %v", dep.Name, err)
			continue
		}
		r.logger.Verbose("dependency %s resolved to %s", dep.Name, path)
		paths[dep.Name] = path
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%s not found on PATH or in %s: %w",
			strings.Join(missing, ", "), strings.Join(r.searchDirs, string(os.PathListSeparator)), brewkit.ErrDependencyUnresolved)
	}
	return paths, nil
}

// Find resolves a single dependency name to an absolute executable path.
func (r *Resolver) Find(name string) (string, error) {
	executable := name
	if alias, ok := r.aliases[name]; ok {
		executable = alias
	}

	if path, ok := findIn(r.preferred, executable); ok {
		return path, nil
	}
	if path, err := r.lookPath(executable); err == nil {
		return filepath.Abs(path)
	}
	if path, ok := findIn(r.searchDirs, executable); ok {
		return path, nil
	}

	return "", fmt.Errorf("executable %q: %w", executable, exec.ErrNotFound)
}

func findIn(dirs []string, executable string) (string, bool) {
	for _, dir := range dirs {
		candidate := filepath.Join(dir, executable)
		if runtime.GOOS == "windows" && filepath.Ext(candidate) == "" {
			candidate += ".exe"
		}
		if isExecutable(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0111 != 0
}

// IsUnresolved reports whether err is a dependency resolution failure.
func IsUnresolved(err error) bool {
	return errors.Is(err, brewkit.ErrDependencyUnresolved)
}

var _ brewkit.DependencyResolver = (*Resolver)(nil)
