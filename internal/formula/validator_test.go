package formula

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marang/brewkit/pkg/brewkit"
)

func validFormula() brewkit.Formula {
	return brewkit.Formula{
		Name:         "emqutiti",
		Description:  "Terminal MQTT client",
		Homepage:     "https://github.com/marang/emqutiti",
		URL:          "https://github.com/marang/emqutiti/archive/refs/tags/v0.4.1.tar.gz",
		SHA256:       "ce8ab0d28762d6ed6d7284bd6d3a774225339a2696bf277a2f2d74bc65ed62bd",
		License:      "MIT",
		Head:         "https://github.com/marang/emqutiti.git",
		Version:      "0.4.1",
		Dependencies: []brewkit.Dependency{{Name: "go", Scope: brewkit.ScopeBuild}},
		Install:      brewkit.InstallSpec{Target: "./cmd/emqutiti", Binary: "emqutiti"},
		Test:         brewkit.TestSpec{Args: []string{"-h"}, ExpectExit: 2, ExpectOutput: "Usage"},
	}
}

func TestValidate_Valid(t *testing.T) {
	result := Validate(validFormula())
	assert.True(t, result.Valid, "unexpected errors: %v", result.Errors)
	assert.False(t, result.HasErrors())
	assert.NoError(t, Check(validFormula()))
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *brewkit.Formula)
		wantMsg string
	}{
		{"uppercase name", func(f *brewkit.Formula) { f.Name = "Emqutiti" }, "name"},
		{"whitespace desc", func(f *brewkit.Formula) { f.Description = "   " }, "desc"},
		{"homepage scheme", func(f *brewkit.Formula) { f.Homepage = "ftp://example.com" }, "homepage"},
		{"missing url", func(f *brewkit.Formula) { f.URL = "" }, "url is required"},
		{"url without host", func(f *brewkit.Formula) { f.URL = "https:///x.tar.gz" }, "no host"},
		{"short checksum", func(f *brewkit.Formula) { f.SHA256 = "abc123" }, "sha256"},
		{"missing license", func(f *brewkit.Formula) { f.License = "" }, "license"},
		{"bad head", func(f *brewkit.Formula) { f.Head = "mailto:x@example.com" }, "head"},
		{"no version", func(f *brewkit.Formula) { f.Version = "" }, "version"},
		{"bad scope", func(f *brewkit.Formula) { f.Dependencies[0].Scope = "optional" }, "unknown scope"},
		{"duplicate dependency", func(f *brewkit.Formula) {
			f.Dependencies = append(f.Dependencies, brewkit.Dependency{Name: "go", Scope: brewkit.ScopeBuild})
		}, "more than once"},
		{"missing target", func(f *brewkit.Formula) { f.Install.Target = "" }, "install.target"},
		{"binary path", func(f *brewkit.Formula) { f.Install.Binary = "bin/emqutiti" }, "install.binary"},
		{"exit out of range", func(f *brewkit.Formula) { f.Test.ExpectExit = 300 }, "expect_exit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFormula()
			tt.mutate(&f)

			result := Validate(f)
			assert.False(t, result.Valid)
			assert.True(t, strings.Contains(strings.Join(result.Errors, "\n"), tt.wantMsg),
				"errors %v should mention %q", result.Errors, tt.wantMsg)

			err := Check(f)
			assert.True(t, errors.Is(err, brewkit.ErrInvalidFormula))
		})
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	result := Validate(brewkit.Formula{Name: "x"})
	assert.GreaterOrEqual(t, len(result.Errors), 5)
}

func TestValidate_FileURLAllowed(t *testing.T) {
	f := validFormula()
	f.URL = "file:///srv/mirror/emqutiti-0.4.1.tar.gz"
	assert.True(t, Validate(f).Valid)
}
