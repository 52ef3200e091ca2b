package scaffold

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/marang/brewkit/internal/formula"
	"github.com/marang/brewkit/pkg/brewkit"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// GetTemplatesFS returns the embedded templates filesystem for testing purposes.
func GetTemplatesFS() embed.FS {
	return templatesFS
}

var funcs = template.FuncMap{
	"quote": strconv.Quote,
	"quoteList": func(items []string) string {
		quoted := make([]string, len(items))
		for i, item := range items {
			quoted[i] = strconv.Quote(item)
		}
		return strings.Join(quoted, ", ")
	},
	"explicitVersion": func(f brewkit.Formula) bool {
		return f.Version != "" && f.Version != formula.VersionFromURL(f.URL)
	},
}

// Result describes a written formula skeleton.
type Result struct {
	Path string

	// Problems lists what still has to be filled in before the formula
	// loads. Empty when the skeleton is already complete.
	Problems []string
}

// Scaffolder writes new formula declarations from embedded templates.
type Scaffolder struct {
	logger brewkit.Logger
}

// NewScaffolder creates a Scaffolder. Panics if logger is nil.
func NewScaffolder(logger brewkit.Logger) *Scaffolder {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Scaffolder{logger: logger}
}

// SkeletonFromURL guesses a formula from its source archive URL. GitHub
// archive URLs yield the repository name, homepage and head repository;
// other URLs yield a name from the archive file.
func SkeletonFromURL(rawURL string) brewkit.Formula {
	f := brewkit.Formula{
		URL:     rawURL,
		Version: formula.VersionFromURL(rawURL),
		Dependencies: []brewkit.Dependency{
			{Name: "go", Scope: brewkit.ScopeBuild},
		},
		Test: brewkit.TestSpec{
			Args:       []string{brewkit.DefaultTestArg},
			ExpectExit: brewkit.DefaultTestExitStatus,
		},
	}

	u, err := url.Parse(rawURL)
	if err == nil && u.Host == "github.com" {
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(segments) >= 2 {
			owner, repo := segments[0], strings.TrimSuffix(segments[1], ".git")
			f.Name = strings.ToLower(repo)
			f.Homepage = "https://github.com/" + owner + "/" + repo
			f.Head = f.Homepage + ".git"
		}
	}
	if f.Name == "" && err == nil {
		f.Name = nameFromArchive(path.Base(u.Path), f.Version)
		if u.Scheme != "" && u.Host != "" {
			f.Homepage = u.Scheme + "://" + u.Host
		}
	}

	f.Install.Target = "./cmd/" + f.Name
	f.Install.Binary = f.Name
	return f
}

// nameFromArchive turns "tool-1.2.3.tar.gz" into "tool".
func nameFromArchive(base, version string) string {
	name := base
	for _, ext := range []string{".tar.gz", ".tgz", ".tar.zst", ".tar.lz4", ".tar", ".zip"} {
		if strings.HasSuffix(strings.ToLower(name), ext) {
			name = name[:len(name)-len(ext)]
			break
		}
	}
	if version != "" {
		name = strings.TrimSuffix(name, version)
		name = strings.TrimSuffix(name, "v")
		name = strings.TrimRight(name, "-_.")
	}
	return strings.ToLower(name)
}

// Render produces the declaration text for f.
func (s *Scaffolder) Render(f brewkit.Formula, format formula.Format) ([]byte, error) {
	name := fmt.Sprintf("templates/formula.%s.tmpl", format)
	tmpl, err := template.New(path.Base(name)).Funcs(funcs).ParseFS(templatesFS, name)
	if err != nil {
		return nil, fmt.Errorf("template for format %q not found: %w", format, err)
	}

	if f.Install.Binary == "" {
		f.Install.Binary = f.Name
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, f); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// CreateFormula writes f to dir/<name>.<format>. An existing file is never
// overwritten. The skeleton is written even when fields are still missing;
// they are reported in the result.
func (s *Scaffolder) CreateFormula(f brewkit.Formula, format formula.Format, dir string) (*Result, error) {
	if f.Name == "" {
		return nil, fmt.Errorf("could not derive a formula name from %q; pass one explicitly: %w", f.URL, brewkit.ErrInvalidConfig)
	}

	data, err := s.Render(f, format)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create formula directory: %w", err)
	}
	target := filepath.Join(dir, f.Name+"."+string(format))

	out, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("formula file %s already exists: %w", target, brewkit.ErrInvalidConfig)
	}
	if err != nil {
		return nil, err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return nil, fmt.Errorf("failed to write %s: %w", target, err)
	}
	if err := out.Close(); err != nil {
		return nil, err
	}
	s.logger.Verbose("Wrote %s", target)

	result := &Result{Path: target}
	if v := formula.Validate(f); !v.Valid {
		result.Problems = v.Errors
	}
	return result, nil
}

// ListTemplates returns the declaration formats a skeleton can be written in.
func ListTemplates() ([]string, error) {
	entries, err := templatesFS.ReadDir("templates")
	if err != nil {
		return nil, err
	}

	var formats []string
	for _, entry := range entries {
		name := strings.TrimSuffix(strings.TrimPrefix(entry.Name(), "formula."), ".tmpl")
		formats = append(formats, name)
	}
	sort.Strings(formats)
	return formats, nil
}
