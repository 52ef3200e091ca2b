package brewkit_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/marang/brewkit/pkg/brewkit"
)

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, brewkit.ExitSuccess},
		{"general error", errors.New("something went wrong"), brewkit.ExitGeneralError},
		{"unknown flag", errors.New("unknown flag --foo"), brewkit.ExitUsageError},
		{"accepts args", errors.New("accepts 1 arg(s), received 0"), brewkit.ExitUsageError},
		{"missing argument", errors.New("missing required argument: <formula>"), brewkit.ExitUsageError},
		{"invalid formula", fmt.Errorf("emqutiti: %w", brewkit.ErrInvalidFormula), brewkit.ExitConfigError},
		{"not found", brewkit.ErrFormulaNotFound, brewkit.ExitFormulaNotFound},
		{"fetch", fmt.Errorf("download: %w", brewkit.ErrFetchFailed), brewkit.ExitFetchFailed},
		{"checksum", &brewkit.ChecksumError{URL: "u", Expected: "a", Actual: "b"}, brewkit.ExitChecksumMismatch},
		{"dependency", brewkit.ErrDependencyUnresolved, brewkit.ExitDependencyUnresolved},
		{"build", &brewkit.BuildError{Formula: "x", Command: []string{"go", "build"}, ExitCode: 1}, brewkit.ExitBuildFailed},
		{"verify", &brewkit.VerifyError{Binary: "/bin/x", ExitCode: 0, WantExitCode: 2}, brewkit.ExitVerificationFailed},
		{"locked", brewkit.ErrPrefixLocked, brewkit.ExitPrefixLocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := brewkit.ExitCodeForError(tt.err); got != tt.want {
				t.Errorf("ExitCodeForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestChecksumMismatchTakesPrecedenceOverFetch(t *testing.T) {
	err := fmt.Errorf("%w: %w", brewkit.ErrFetchFailed, &brewkit.ChecksumError{URL: "u"})
	if got := brewkit.ExitCodeForError(err); got != brewkit.ExitChecksumMismatch {
		t.Errorf("expected checksum exit code, got %d", got)
	}
}

func TestBuildError_UnwrapsCause(t *testing.T) {
	cause := errors.New("signal: killed")
	err := &brewkit.BuildError{Formula: "emqutiti", Command: []string{"go", "build"}, ExitCode: -1, Err: cause}

	if !errors.Is(err, brewkit.ErrBuildFailed) {
		t.Error("BuildError should match ErrBuildFailed")
	}
	if !errors.Is(err, cause) {
		t.Error("BuildError should match its cause")
	}
	if !strings.Contains(err.Error(), "signal: killed") {
		t.Errorf("message should mention cause: %s", err.Error())
	}
}

func TestVerifyError_Message(t *testing.T) {
	err := &brewkit.VerifyError{
		Binary:        "/opt/brewkit/bin/emqutiti",
		Args:          []string{"-h"},
		ExitCode:      0,
		WantExitCode:  2,
		MissingOutput: "Usage",
		Output:        "hello",
	}

	msg := err.Error()
	for _, want := range []string{"exit status 0, expected 2", `does not contain "Usage"`, "hello", "emqutiti -h"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestPreviewOutput_KeepsTail(t *testing.T) {
	long := strings.Repeat("a", brewkit.MaxOutputPreviewLength) + "TAIL"
	got := brewkit.PreviewOutput(long)

	if !strings.HasPrefix(got, "...") {
		t.Errorf("truncated output should start with ellipsis")
	}
	if !strings.HasSuffix(got, "TAIL") {
		t.Errorf("truncated output should keep the tail")
	}
}
