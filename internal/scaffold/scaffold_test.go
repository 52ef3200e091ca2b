package scaffold

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marang/brewkit/internal/formula"
	"github.com/marang/brewkit/internal/logging"
	"github.com/marang/brewkit/pkg/brewkit"
)

const (
	emqutitiURL = "https://github.com/marang/emqutiti/archive/refs/tags/v0.4.1.tar.gz"
	digest      = "ce8ab0d28762d6ed6d7284bd6d3a774225339a2696bf277a2f2d74bc65ed62bd"
)

func completeSkeleton() brewkit.Formula {
	f := SkeletonFromURL(emqutitiURL)
	f.Description = "Terminal MQTT client"
	f.License = "MIT"
	f.SHA256 = digest
	return f
}

func TestSkeletonFromURL_GitHubArchive(t *testing.T) {
	f := SkeletonFromURL(emqutitiURL)

	assert.Equal(t, "emqutiti", f.Name)
	assert.Equal(t, "0.4.1", f.Version)
	assert.Equal(t, "https://github.com/marang/emqutiti", f.Homepage)
	assert.Equal(t, "https://github.com/marang/emqutiti.git", f.Head)
	assert.Equal(t, "./cmd/emqutiti", f.Install.Target)
	assert.Equal(t, []brewkit.Dependency{{Name: "go", Scope: brewkit.ScopeBuild}}, f.Dependencies)
}

func TestSkeletonFromURL_PlainArchive(t *testing.T) {
	f := SkeletonFromURL("https://downloads.example.com/releases/Tool-1.2.3.tar.gz")

	assert.Equal(t, "tool", f.Name)
	assert.Equal(t, "1.2.3", f.Version)
	assert.Equal(t, "https://downloads.example.com", f.Homepage)
	assert.Empty(t, f.Head)
}

func TestCreateFormula_RoundTripsThroughParser(t *testing.T) {
	for _, format := range []formula.Format{formula.FormatYAML, formula.FormatTOML} {
		t.Run(string(format), func(t *testing.T) {
			s := NewScaffolder(logging.NewNullLogger())
			want := completeSkeleton()
			want.Test = brewkit.TestSpec{Args: []string{"-h"}, ExpectExit: 2, ExpectOutput: "Usage"}

			result, err := s.CreateFormula(want, format, t.TempDir())
			require.NoError(t, err)
			assert.Empty(t, result.Problems)

			got, err := formula.ParseFile(result.Path)
			require.NoError(t, err)
			assert.Equal(t, "emqutiti", got.Name)
			assert.Equal(t, want.Description, got.Description)
			assert.Equal(t, want.URL, got.URL)
			assert.Equal(t, digest, got.SHA256)
			assert.Equal(t, "0.4.1", got.Version)
			assert.Equal(t, want.Head, got.Head)
			assert.Equal(t, want.Dependencies, got.Dependencies)
			assert.Equal(t, "./cmd/emqutiti", got.Install.Target)
			assert.Equal(t, want.Test, got.Test)
		})
	}
}

func TestRender_ExplicitVersionOnlyWhenNotDerivable(t *testing.T) {
	s := NewScaffolder(logging.NewNullLogger())

	derived, err := s.Render(completeSkeleton(), formula.FormatYAML)
	require.NoError(t, err)
	assert.NotContains(t, string(derived), "version:")

	f := completeSkeleton()
	f.URL = "https://example.com/download/latest.tar.gz"
	f.Version = "2.0.0"
	explicit, err := s.Render(f, formula.FormatYAML)
	require.NoError(t, err)
	assert.Contains(t, string(explicit), `version: "2.0.0"`)
}

func TestRender_UnknownFormat(t *testing.T) {
	s := NewScaffolder(logging.NewNullLogger())
	_, err := s.Render(completeSkeleton(), formula.Format("json"))
	require.Error(t, err)
}

func TestCreateFormula_ReportsMissingFields(t *testing.T) {
	s := NewScaffolder(logging.NewNullLogger())

	result, err := s.CreateFormula(SkeletonFromURL(emqutitiURL), formula.FormatYAML, t.TempDir())

	require.NoError(t, err)
	assert.FileExists(t, result.Path)
	assert.Contains(t, result.Problems, "desc is required and cannot be whitespace-only")
	assert.Contains(t, result.Problems, "sha256 is required")
	assert.Contains(t, result.Problems, "license is required")
}

func TestCreateFormula_RefusesOverwrite(t *testing.T) {
	s := NewScaffolder(logging.NewNullLogger())
	dir := t.TempDir()
	existing := filepath.Join(dir, "emqutiti.yaml")
	require.NoError(t, os.WriteFile(existing, []byte("keep me"), 0644))

	_, err := s.CreateFormula(completeSkeleton(), formula.FormatYAML, dir)

	require.Error(t, err)
	assert.True(t, errors.Is(err, brewkit.ErrInvalidConfig))
	data, _ := os.ReadFile(existing)
	assert.Equal(t, "keep me", string(data))
}

func TestCreateFormula_RequiresName(t *testing.T) {
	s := NewScaffolder(logging.NewNullLogger())
	_, err := s.CreateFormula(brewkit.Formula{URL: "https://example.com/"}, formula.FormatYAML, t.TempDir())
	require.Error(t, err)
}

func TestListTemplates(t *testing.T) {
	formats, err := ListTemplates()
	require.NoError(t, err)
	assert.Equal(t, []string{"toml", "yaml"}, formats)
}

func TestNewScaffolder_PanicsOnNilLogger(t *testing.T) {
	assert.Panics(t, func() { NewScaffolder(nil) })
}
