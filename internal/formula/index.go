package formula

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/marang/brewkit/pkg/brewkit"
)

//go:embed formulas/*.yaml
var builtinFS embed.FS

// Index holds formulas by name.
// Safe for concurrent use by multiple goroutines.
type Index struct {
	mu       sync.RWMutex
	formulas map[string]brewkit.Formula
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{formulas: make(map[string]brewkit.Formula)}
}

// Load returns an index with the built-in formulas followed by every
// formula found in dirs.
func Load(dirs ...string) (*Index, error) {
	idx := NewIndex()
	if err := idx.LoadFS(builtinFS, "formulas"); err != nil {
		return nil, fmt.Errorf("loading built-in formulas: %w", err)
	}
	for _, dir := range dirs {
		if err := idx.LoadDir(dir); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// Add registers a validated formula. Names are unique within an index.
func (i *Index) Add(f brewkit.Formula) error {
	if err := Check(f); err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if existing, ok := i.formulas[f.Name]; ok {
		return fmt.Errorf("formula %s from %s is already defined by %s: %w",
			f.Name, f.Path, existing.Path, brewkit.ErrInvalidFormula)
	}
	i.formulas[f.Name] = f.Clone()
	return nil
}

// LoadFS parses every formula file directly inside dir of fsys.
func (i *Index) LoadFS(fsys fs.FS, dir string) error {
	return i.loadFS(fsys, dir, dir)
}

// loadFS reads from dir within fsys and records formula paths under
// displayRoot, so diagnostics name the file the user actually wrote.
func (i *Index) loadFS(fsys fs.FS, dir, displayRoot string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("reading formula directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		format, ok := FormatForPath(entry.Name())
		if !ok {
			continue
		}
		p := path.Join(dir, entry.Name())
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		f, err := Parse(data, format, NameForPath(entry.Name()), filepath.Join(displayRoot, entry.Name()))
		if err != nil {
			return err
		}
		if err := i.Add(f); err != nil {
			return err
		}
	}
	return nil
}

// LoadDir parses every formula file in a directory on disk.
func (i *Index) LoadDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("formula directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("formula directory %s is not a directory: %w", dir, brewkit.ErrInvalidConfig)
	}
	return i.loadFS(os.DirFS(dir), ".", dir)
}

// Lookup returns a copy of the named formula.
func (i *Index) Lookup(name string) (brewkit.Formula, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	f, ok := i.formulas[name]
	if !ok {
		return brewkit.Formula{}, fmt.Errorf("no formula named %q: %w", name, brewkit.ErrFormulaNotFound)
	}
	return f.Clone(), nil
}

// Names returns all formula names in sorted order.
func (i *Index) Names() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	names := make([]string, 0, len(i.formulas))
	for name := range i.formulas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of formulas in the index.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.formulas)
}
