package formula

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marang/brewkit/pkg/brewkit"
)

const emqutitiYAML = `desc: Terminal MQTT client
homepage: https://github.com/marang/emqutiti
url: https://github.com/marang/emqutiti/archive/refs/tags/v0.4.1.tar.gz
sha256: ce8ab0d28762d6ed6d7284bd6d3a774225339a2696bf277a2f2d74bc65ed62bd
license: MIT
head: https://github.com/marang/emqutiti.git
depends_on:
  - name: go
    scope: build
install:
  target: ./cmd/emqutiti
test:
  args: ["-h"]
  expect_exit: 2
  expect_output: Usage
`

const emqutitiTOML = `desc = "Terminal MQTT client"
homepage = "https://github.com/marang/emqutiti"
url = "https://github.com/marang/emqutiti/archive/refs/tags/v0.4.1.tar.gz"
sha256 = "ce8ab0d28762d6ed6d7284bd6d3a774225339a2696bf277a2f2d74bc65ed62bd"
license = "MIT"
head = "https://github.com/marang/emqutiti.git"
depends_on = [{ name = "go", scope = "build" }]

[install]
target = "./cmd/emqutiti"

[test]
args = ["-h"]
expect_exit = 2
expect_output = "Usage"
`

func assertEmqutiti(t *testing.T, f brewkit.Formula) {
	t.Helper()
	assert.Equal(t, "emqutiti", f.Name)
	assert.Equal(t, "Terminal MQTT client", f.Description)
	assert.Equal(t, "https://github.com/marang/emqutiti", f.Homepage)
	assert.Equal(t, "https://github.com/marang/emqutiti/archive/refs/tags/v0.4.1.tar.gz", f.URL)
	assert.Equal(t, "ce8ab0d28762d6ed6d7284bd6d3a774225339a2696bf277a2f2d74bc65ed62bd", f.SHA256)
	assert.Equal(t, "MIT", f.License)
	assert.Equal(t, "https://github.com/marang/emqutiti.git", f.Head)
	assert.Equal(t, "0.4.1", f.Version)
	assert.Equal(t, []brewkit.Dependency{{Name: "go", Scope: brewkit.ScopeBuild}}, f.Dependencies)
	assert.Equal(t, "./cmd/emqutiti", f.Install.Target)
	assert.Equal(t, "emqutiti", f.Install.Binary)
	assert.Equal(t, []string{"-h"}, f.Test.Args)
	assert.Equal(t, 2, f.Test.ExpectExit)
	assert.Equal(t, "Usage", f.Test.ExpectOutput)
}

func TestParse_YAML(t *testing.T) {
	f, err := Parse([]byte(emqutitiYAML), FormatYAML, "emqutiti", "emqutiti.yaml")
	require.NoError(t, err)
	assertEmqutiti(t, f)
}

func TestParse_TOML(t *testing.T) {
	f, err := Parse([]byte(emqutitiTOML), FormatTOML, "emqutiti", "emqutiti.toml")
	require.NoError(t, err)
	assertEmqutiti(t, f)
}

func TestParse_BareDependencyIsRuntime(t *testing.T) {
	data := `desc: d
homepage: https://example.com
url: https://example.com/tool-1.0.tar.gz
sha256: ce8ab0d28762d6ed6d7284bd6d3a774225339a2696bf277a2f2d74bc65ed62bd
license: MIT
depends_on:
  - openssl
  - name: go
    scope: build
install:
  target: .
`
	f, err := Parse([]byte(data), FormatYAML, "tool", "tool.yaml")
	require.NoError(t, err)
	assert.Equal(t, []brewkit.Dependency{
		{Name: "openssl", Scope: brewkit.ScopeRuntime},
		{Name: "go", Scope: brewkit.ScopeBuild},
	}, f.Dependencies)
	assert.Equal(t, []string{brewkit.DefaultTestArg}, f.Test.Args)
	assert.Equal(t, brewkit.DefaultTestExitStatus, f.Test.ExpectExit)
}

func TestParse_TOMLBareDependency(t *testing.T) {
	data := `desc = "d"
homepage = "https://example.com"
url = "https://example.com/tool-1.0.tar.gz"
sha256 = "ce8ab0d28762d6ed6d7284bd6d3a774225339a2696bf277a2f2d74bc65ed62bd"
license = "MIT"
depends_on = ["pkg-config"]

[install]
target = "."
`
	f, err := Parse([]byte(data), FormatTOML, "tool", "tool.toml")
	require.NoError(t, err)
	assert.Equal(t, []brewkit.Dependency{{Name: "pkg-config", Scope: brewkit.ScopeRuntime}}, f.Dependencies)
}

func TestParse_ExplicitNameWins(t *testing.T) {
	f, err := Parse([]byte("name: emq\n"+emqutitiYAML), FormatYAML, "emqutiti", "emqutiti.yaml")
	require.NoError(t, err)
	assert.Equal(t, "emq", f.Name)
	assert.Equal(t, "emq", f.Install.Binary, "binary defaults to the formula name")
}

func TestParse_UnknownYAMLField(t *testing.T) {
	_, err := Parse([]byte(emqutitiYAML+"bottle: yes\n"), FormatYAML, "emqutiti", "emqutiti.yaml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, brewkit.ErrInvalidFormula))
}

func TestParse_UnknownTOMLKey(t *testing.T) {
	_, err := Parse([]byte("bottle = true\n"+emqutitiTOML), FormatTOML, "emqutiti", "emqutiti.toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bottle")
	assert.True(t, errors.Is(err, brewkit.ErrInvalidFormula))
}

func TestParse_MalformedTOMLReportsLine(t *testing.T) {
	_, err := Parse([]byte("desc = \"ok\"\nurl = \n"), FormatTOML, "x", "x.toml")
	require.Error(t, err)

	var ferr *Error
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, 2, ferr.Line)
}

func TestParse_EmptyYAMLFailsValidation(t *testing.T) {
	_, err := Parse(nil, FormatYAML, "empty", "empty.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "desc is required")
	assert.Contains(t, err.Error(), "sha256 is required")
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "emqutiti.yml")
	require.NoError(t, os.WriteFile(path, []byte(emqutitiYAML), 0644))

	f, err := ParseFile(path)
	require.NoError(t, err)
	assertEmqutiti(t, f)
	assert.Equal(t, path, f.Path)
}

func TestParseFile_UnsupportedExtension(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "emqutiti.rb"))
	assert.True(t, errors.Is(err, brewkit.ErrInvalidFormula))
}
