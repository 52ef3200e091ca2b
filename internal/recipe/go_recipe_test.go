package recipe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marang/brewkit/internal/logging"
	testhelpers "github.com/marang/brewkit/internal/testing"
	"github.com/marang/brewkit/pkg/brewkit"
)

func emqutiti() brewkit.Formula {
	return brewkit.Formula{
		Name:    "emqutiti",
		Version: "0.4.1",
		Dependencies: []brewkit.Dependency{
			{Name: "go", Scope: brewkit.ScopeBuild},
		},
		Install: brewkit.InstallSpec{Target: "./cmd/emqutiti", Binary: "emqutiti"},
		Test:    brewkit.TestSpec{Args: []string{"-h"}, ExpectExit: 2, ExpectOutput: "Usage"},
	}
}

func sourceTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "cmd", "emqutiti"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "cmd", "emqutiti", "main.go"), []byte("package main\n"), 0644))
	return root
}

func TestBuild_InstallsBinaryUnderPrefix(t *testing.T) {
	goBin := testhelpers.FakeGo(t, testhelpers.FakeGoOptions{})
	prefix := t.TempDir()
	r := New(emqutiti(), logging.NewNullLogger())

	bins, err := r.Build(context.Background(), brewkit.BuildContext{
		SourceTree: sourceTree(t),
		Prefix:     prefix,
		Toolchain:  brewkit.ToolchainPaths{"go": goBin},
	})

	require.NoError(t, err)
	want := filepath.Join(prefix, "bin", "emqutiti")
	assert.Equal(t, brewkit.BinaryPaths{want}, bins)
	assert.FileExists(t, want)
	assert.Equal(t, []string{"build", "-trimpath", "-o=" + want, "./cmd/emqutiti"}, testhelpers.ReadGoArgs(t, goBin))
}

func TestBuild_PassesLDFlagsAndExtraArgs(t *testing.T) {
	goBin := testhelpers.FakeGo(t, testhelpers.FakeGoOptions{})
	prefix := t.TempDir()
	f := emqutiti()
	f.Install.LDFlags = []string{"-s", "-w"}
	r := New(f, logging.NewNullLogger())

	_, err := r.Build(context.Background(), brewkit.BuildContext{
		SourceTree: sourceTree(t),
		Prefix:     prefix,
		BuildArgs:  []string{"-tags=netgo"},
		Toolchain:  brewkit.ToolchainPaths{"go": goBin},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{
		"build", "-trimpath", "-o=" + filepath.Join(prefix, "bin", "emqutiti"),
		"-ldflags=-s -w", "-tags=netgo", "./cmd/emqutiti",
	}, testhelpers.ReadGoArgs(t, goBin))
}

func TestBuild_FailureReturnsBuildError(t *testing.T) {
	goBin := testhelpers.FakeGo(t, testhelpers.FakeGoOptions{FailWith: "cmd/emqutiti/main.go:3:1: syntax error"})
	prefix := t.TempDir()
	r := New(emqutiti(), logging.NewNullLogger())

	bins, err := r.Build(context.Background(), brewkit.BuildContext{
		SourceTree: sourceTree(t),
		Prefix:     prefix,
		Toolchain:  brewkit.ToolchainPaths{"go": goBin},
	})

	assert.Nil(t, bins)
	require.Error(t, err)
	assert.True(t, errors.Is(err, brewkit.ErrBuildFailed))
	var buildErr *brewkit.BuildError
	require.True(t, errors.As(err, &buildErr))
	assert.Equal(t, 1, buildErr.ExitCode)
	assert.Contains(t, buildErr.Output, "syntax error")
	assert.Equal(t, "emqutiti", buildErr.Formula)
	assert.NoFileExists(t, filepath.Join(prefix, "bin", "emqutiti"))
}

func TestBuild_MissingTarget(t *testing.T) {
	goBin := testhelpers.FakeGo(t, testhelpers.FakeGoOptions{})
	r := New(emqutiti(), logging.NewNullLogger())

	_, err := r.Build(context.Background(), brewkit.BuildContext{
		SourceTree: t.TempDir(),
		Prefix:     t.TempDir(),
		Toolchain:  brewkit.ToolchainPaths{"go": goBin},
	})

	assert.True(t, errors.Is(err, brewkit.ErrBuildFailed))
}

func TestBuild_WithoutGoToolchain(t *testing.T) {
	r := New(emqutiti(), logging.NewNullLogger())

	_, err := r.Build(context.Background(), brewkit.BuildContext{SourceTree: t.TempDir(), Prefix: t.TempDir()})

	assert.True(t, errors.Is(err, brewkit.ErrDependencyUnresolved))
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name        string
		script      string
		wantErr     bool
		wantExit    int
		wantMissing string
	}{
		{
			name:   "usage on stderr with exit 2",
			script: testhelpers.UsageBinary,
		},
		{
			name:   "usage on stdout with exit 2",
			script: `echo "Usage: emqutiti [flags]"; exit 2`,
		},
		{
			name:     "exit 0 with usage",
			script:   `echo "Usage: emqutiti"; exit 0`,
			wantErr:  true,
			wantExit: 0,
		},
		{
			name:        "exit 2 without usage",
			script:      `echo "flag provided but not defined" >&2; exit 2`,
			wantErr:     true,
			wantExit:    2,
			wantMissing: "Usage",
		},
		{
			name:        "silent success",
			script:      testhelpers.SilentBinary,
			wantErr:     true,
			wantExit:    0,
			wantMissing: "Usage",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bin := testhelpers.FakeBinary(t, t.TempDir(), "emqutiti", tt.script)
			r := New(emqutiti(), logging.NewNullLogger())

			err := r.Verify(context.Background(), bin)

			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, brewkit.ErrVerificationFailed))
			var verifyErr *brewkit.VerifyError
			require.True(t, errors.As(err, &verifyErr))
			assert.Equal(t, tt.wantExit, verifyErr.ExitCode)
			assert.Equal(t, 2, verifyErr.WantExitCode)
			assert.Equal(t, tt.wantMissing, verifyErr.MissingOutput)
		})
	}
}

func TestVerify_Deterministic(t *testing.T) {
	bin := testhelpers.FakeBinary(t, t.TempDir(), "emqutiti", testhelpers.UsageBinary)
	r := New(emqutiti(), logging.NewNullLogger())

	for i := 0; i < 3; i++ {
		assert.NoError(t, r.Verify(context.Background(), bin), "run %d", i)
	}
}

func TestVerify_MissingBinary(t *testing.T) {
	r := New(emqutiti(), logging.NewNullLogger())

	err := r.Verify(context.Background(), filepath.Join(t.TempDir(), "emqutiti"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, brewkit.ErrVerificationFailed))
	var verifyErr *brewkit.VerifyError
	require.True(t, errors.As(err, &verifyErr))
	assert.Equal(t, -1, verifyErr.ExitCode)
	assert.Error(t, verifyErr.Err)
}

func TestNew_PanicsOnNilLogger(t *testing.T) {
	assert.Panics(t, func() { New(emqutiti(), nil) })
}

func TestNew_ClonesFormula(t *testing.T) {
	f := emqutiti()
	r := New(f, logging.NewNullLogger())
	f.Test.Args[0] = "--version"

	assert.Equal(t, []string{"-h"}, r.Formula().Test.Args)
}
