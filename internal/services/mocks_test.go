package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/marang/brewkit/pkg/brewkit"
)

type stubFormulas map[string]brewkit.Formula

func (s stubFormulas) Lookup(name string) (brewkit.Formula, error) {
	f, ok := s[name]
	if !ok {
		return brewkit.Formula{}, fmt.Errorf("%s: %w", name, brewkit.ErrFormulaNotFound)
	}
	return f.Clone(), nil
}

type recordingPhases struct {
	mu     sync.Mutex
	titles []string
}

func (r *recordingPhases) RunPhase(ctx context.Context, title string, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	r.titles = append(r.titles, title)
	r.mu.Unlock()
	return fn(ctx)
}

func (r *recordingPhases) Titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.titles...)
}

// countingRecipe wraps a recipe and counts calls to each phase.
type countingRecipe struct {
	brewkit.Recipe
	builds   int
	verifies int
}

func (c *countingRecipe) Build(ctx context.Context, bc brewkit.BuildContext) (brewkit.BinaryPaths, error) {
	c.builds++
	return c.Recipe.Build(ctx, bc)
}

func (c *countingRecipe) Verify(ctx context.Context, binaryPath string) error {
	c.verifies++
	return c.Recipe.Verify(ctx, binaryPath)
}

type stubHeadFetcher struct {
	revision string
	gitPath  string
}

func (h *stubHeadFetcher) FetchHead(_ context.Context, _ string, dest string) (brewkit.ExtractedTree, error) {
	root := filepath.Join(dest, "src")
	if err := os.MkdirAll(filepath.Join(root, "cmd", "emqutiti"), 0755); err != nil {
		return brewkit.ExtractedTree{}, err
	}
	return brewkit.ExtractedTree{Root: root, Revision: h.revision}, nil
}
