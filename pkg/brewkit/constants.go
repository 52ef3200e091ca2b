package brewkit

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess              = 0  // Install/test completed successfully
	ExitGeneralError         = 1  // Unknown or unclassified error
	ExitUsageError           = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic                = 3  // Internal panic (unexpected crash)
	ExitConfigError          = 10 // Invalid formula, configuration or flags
	ExitFetchFailed          = 11 // Source archive could not be downloaded or extracted
	ExitChecksumMismatch     = 12 // Downloaded archive digest differs from the formula
	ExitDependencyUnresolved = 13 // A build dependency could not be resolved
	ExitBuildFailed          = 14 // The delegated build step exited non-zero
	ExitVerificationFailed   = 15 // The installed binary failed its smoke test
	ExitPrefixLocked         = 16 // Another process owns the installation prefix
	ExitFormulaNotFound      = 17 // No formula with the requested name
)

const (
	// DefaultRetryInitialDelay is the default initial delay before the first fetch retry.
	DefaultRetryInitialDelay = 500 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between fetch retries.
	DefaultRetryMaxDelay = 30 * time.Second

	// DefaultRetryMaxAttempts is the default maximum number of fetch retries.
	DefaultRetryMaxAttempts = 3

	// DefaultFetchTimeout bounds a single download attempt.
	DefaultFetchTimeout = 5 * time.Minute

	// DefaultLockTimeout is how long an install waits for another process to
	// release the installation prefix.
	DefaultLockTimeout = 30 * time.Second

	// MaxOutputPreviewLength is the maximum number of characters of captured
	// build or test output shown in error messages.
	MaxOutputPreviewLength = 2000

	// ChecksumLength is the length of a hex-encoded SHA-256 digest.
	ChecksumLength = 64
)

// Smoke-test defaults for formulas whose test section leaves a field unset.
const (
	DefaultTestArg        = "-h"
	DefaultTestExitStatus = 0
)
