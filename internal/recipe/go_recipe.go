package recipe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/marang/brewkit/pkg/brewkit"
)

// GoRecipe builds and verifies a formula whose install target is a Go
// main package.
type GoRecipe struct {
	formula brewkit.Formula
	logger  brewkit.Logger
}

// New creates the recipe for f. Panics if logger is nil.
func New(f brewkit.Formula, logger brewkit.Logger) *GoRecipe {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &GoRecipe{formula: f.Clone(), logger: logger}
}

// Formula returns the record this recipe was created for.
func (r *GoRecipe) Formula() brewkit.Formula {
	return r.formula.Clone()
}

// Build compiles the install target into bc.Prefix/bin using the go
// executable from bc.Toolchain.
func (r *GoRecipe) Build(ctx context.Context, bc brewkit.BuildContext) (brewkit.BinaryPaths, error) {
	goBin, ok := bc.Toolchain["go"]
	if !ok || goBin == "" {
		return nil, fmt.Errorf("%s: go toolchain: %w", r.formula.Name, brewkit.ErrDependencyUnresolved)
	}

	install := r.formula.Install
	args := append([]string{"build"}, StdGoArgs(bc.Prefix, install.Binary, install.LDFlags)...)
	args = append(args, bc.BuildArgs...)
	args = append(args, install.Target)

	output := BinaryPath(bc.Prefix, install.Binary)
	if err := os.MkdirAll(BinaryPath(bc.Prefix, ""), 0755); err != nil {
		return nil, fmt.Errorf("creating bin directory: %w", err)
	}

	r.logger.Verbose("%s %s (in %s)", goBin, strings.Join(args, " "), bc.SourceTree)

	cmd := exec.CommandContext(ctx, goBin, args...)
	cmd.Dir = bc.SourceTree
	cmd.Env = buildEnv(bc)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, &brewkit.BuildError{
			Formula:  r.formula.Name,
			Command:  append([]string{goBin}, args...),
			ExitCode: exitCode(err),
			Output:   string(out),
			Err:      err,
		}
	}
	if len(out) > 0 {
		r.logger.Verbose("%s", strings.TrimRight(string(out), "\n"))
	}

	if _, err := os.Stat(output); err != nil {
		return nil, &brewkit.BuildError{
			Formula:  r.formula.Name,
			Command:  append([]string{goBin}, args...),
			ExitCode: 0,
			Output:   string(out),
			Err:      fmt.Errorf("build succeeded but produced no %s: %w", output, err),
		}
	}

	return brewkit.BinaryPaths{output}, nil
}

// Verify runs binaryPath with the formula's test arguments. It succeeds
// only when the exit status matches and the combined stdout and stderr
// contain the expected text. Every call starts a fresh process.
func (r *GoRecipe) Verify(ctx context.Context, binaryPath string) error {
	test := r.formula.Test

	r.logger.Verbose("%s %s", binaryPath, strings.Join(test.Args, " "))

	var combined bytes.Buffer
	cmd := exec.CommandContext(ctx, binaryPath, test.Args...)
	cmd.Stdout = &combined
	cmd.Stderr = &combined
	runErr := cmd.Run()

	status := 0
	var startErr error
	if runErr != nil {
		status = exitCode(runErr)
		if status < 0 {
			startErr = runErr
		}
	}

	output := combined.String()
	var missing string
	if test.ExpectOutput != "" && !strings.Contains(output, test.ExpectOutput) {
		missing = test.ExpectOutput
	}

	if startErr != nil || status != test.ExpectExit || missing != "" {
		return &brewkit.VerifyError{
			Binary:        binaryPath,
			Args:          append([]string(nil), test.Args...),
			ExitCode:      status,
			WantExitCode:  test.ExpectExit,
			Output:        output,
			MissingOutput: missing,
			Err:           startErr,
		}
	}
	return nil
}

// exitCode extracts the process exit status, or -1 when the process did
// not run to completion.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// buildEnv prepends the resolved toolchain directories to PATH.
func buildEnv(bc brewkit.BuildContext) []string {
	env := os.Environ()
	dirs := bc.Toolchain.Dirs("go")
	if len(dirs) > 0 {
		path := strings.Join(dirs, string(os.PathListSeparator))
		if current := os.Getenv("PATH"); current != "" {
			path += string(os.PathListSeparator) + current
		}
		env = setEnv(env, "PATH", path)
	}
	return append(env, bc.Env...)
}

func setEnv(env []string, key, value string) []string {
	prefix := key + "="
	out := make([]string, 0, len(env)+1)
	for _, kv := range env {
		if !strings.HasPrefix(kv, prefix) {
			out = append(out, kv)
		}
	}
	return append(out, prefix+value)
}

var _ brewkit.Recipe = (*GoRecipe)(nil)
