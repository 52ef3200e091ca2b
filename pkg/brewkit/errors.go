package brewkit

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	_, err := installer.Install(ctx, config)
//	if errors.Is(err, brewkit.ErrChecksumMismatch) {
//	    // The archive was tampered with or the formula is stale
//	}
var (
	// ErrInvalidFormula indicates a formula declaration failed validation.
	ErrInvalidFormula = errors.New("invalid formula")

	// ErrInvalidConfig indicates the provided runtime configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrFormulaNotFound indicates no formula with the requested name exists in the index.
	ErrFormulaNotFound = errors.New("formula not found")

	// ErrDependencyUnresolved indicates a build dependency could not be located.
	ErrDependencyUnresolved = errors.New("dependency unresolved")

	// ErrFetchFailed indicates the source could not be downloaded or extracted.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrChecksumMismatch indicates the downloaded archive does not match the declared digest.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrBuildFailed indicates the delegated build step exited non-zero.
	ErrBuildFailed = errors.New("build failed")

	// ErrVerificationFailed indicates the installed binary failed its smoke test.
	ErrVerificationFailed = errors.New("verification failed")

	// ErrPrefixLocked indicates another process holds the installation prefix.
	ErrPrefixLocked = errors.New("installation prefix locked")

	// ErrNotInstalled indicates an operation needs an installed formula that has no receipt.
	ErrNotInstalled = errors.New("formula not installed")

	// ErrHeadUnavailable indicates a head build was requested for a formula without a head URL.
	ErrHeadUnavailable = errors.New("formula has no head source")

	// ErrApprovalDenied indicates the user declined a destructive operation.
	ErrApprovalDenied = errors.New("approval denied")
)

// ChecksumError reports a digest mismatch between a declared and a computed checksum.
type ChecksumError struct {
	URL      string
	Expected string
	Actual   string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("SHA-256 mismatch for %s\nExpected: %s\n  Actual: %s", e.URL, e.Expected, e.Actual)
}

func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }

// BuildError carries the failing command and its captured output.
type BuildError struct {
	Formula  string
	Command  []string
	ExitCode int
	Output   string
	Err      error
}

func (e *BuildError) Error() string {
	msg := fmt.Sprintf("%s: %s exited with status %d", e.Formula, strings.Join(e.Command, " "), e.ExitCode)
	if e.ExitCode < 0 && e.Err != nil {
		msg = fmt.Sprintf("%s: %s: %v", e.Formula, strings.Join(e.Command, " "), e.Err)
	}
	if out := PreviewOutput(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *BuildError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrBuildFailed}
	}
	return []error{ErrBuildFailed, e.Err}
}

// VerifyError describes how an installed binary deviated from its smoke-test contract.
type VerifyError struct {
	Binary        string
	Args          []string
	ExitCode      int
	WantExitCode  int
	Output        string
	MissingOutput string
	Err           error
}

func (e *VerifyError) Error() string {
	invocation := strings.TrimSpace(e.Binary + " " + strings.Join(e.Args, " "))
	var problems []string
	if e.Err != nil {
		problems = append(problems, e.Err.Error())
	}
	if e.ExitCode != e.WantExitCode {
		problems = append(problems, fmt.Sprintf("exit status %d, expected %d", e.ExitCode, e.WantExitCode))
	}
	if e.MissingOutput != "" {
		problems = append(problems, fmt.Sprintf("output does not contain %q", e.MissingOutput))
	}
	msg := fmt.Sprintf("%s: %s", invocation, strings.Join(problems, "; "))
	if out := PreviewOutput(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *VerifyError) Unwrap() error { return ErrVerificationFailed }

// PreviewOutput trims captured process output to MaxOutputPreviewLength,
// keeping the tail where compilers and test runners report failures.
func PreviewOutput(output string) string {
	output = strings.TrimSpace(output)
	if len(output) <= MaxOutputPreviewLength {
		return output
	}
	return "..." + output[len(output)-MaxOutputPreviewLength:]
}

// usageErrorPatterns are the messages cobra and pflag produce for command line misuse.
var usageErrorPatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"requires at least",
	"requires at most",
	"required flag",
	"invalid argument",
	"flag needs an argument",
	"missing required argument",
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Check for sentinel errors
	switch {
	case errors.Is(err, ErrInvalidFormula), errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrHeadUnavailable):
		return ExitConfigError
	case errors.Is(err, ErrFormulaNotFound), errors.Is(err, ErrNotInstalled):
		return ExitFormulaNotFound
	case errors.Is(err, ErrChecksumMismatch):
		return ExitChecksumMismatch
	case errors.Is(err, ErrFetchFailed):
		return ExitFetchFailed
	case errors.Is(err, ErrDependencyUnresolved):
		return ExitDependencyUnresolved
	case errors.Is(err, ErrBuildFailed):
		return ExitBuildFailed
	case errors.Is(err, ErrVerificationFailed):
		return ExitVerificationFailed
	case errors.Is(err, ErrPrefixLocked):
		return ExitPrefixLocked
	}

	errStr := err.Error()
	for _, pattern := range usageErrorPatterns {
		if strings.Contains(errStr, pattern) {
			return ExitUsageError
		}
	}

	return ExitGeneralError
}
