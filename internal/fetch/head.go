package fetch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/marang/brewkit/pkg/brewkit"
)

// GitHeadFetcher checks out the latest revision of a formula's head
// repository with a shallow git clone.
type GitHeadFetcher struct {
	git    string
	logger brewkit.Logger
}

// NewGitHeadFetcher creates a head fetcher that runs the git executable at
// gitPath. Panics if logger is nil.
func NewGitHeadFetcher(gitPath string, logger brewkit.Logger) *GitHeadFetcher {
	if logger == nil {
		panic("logger cannot be nil")
	}
	if gitPath == "" {
		gitPath = "git"
	}
	return &GitHeadFetcher{git: gitPath, logger: logger}
}

// FetchHead clones headURL into dest/src and records the checked-out commit.
func (h *GitHeadFetcher) FetchHead(ctx context.Context, headURL, dest string) (brewkit.ExtractedTree, error) {
	if headURL == "" {
		return brewkit.ExtractedTree{}, brewkit.ErrHeadUnavailable
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return brewkit.ExtractedTree{}, fmt.Errorf("creating %s: %w", dest, err)
	}

	root := filepath.Join(dest, "src")
	h.logger.Info("Cloning %s", headURL)
	if _, err := h.run(ctx, "", "clone", "--depth", "1", "--quiet", headURL, root); err != nil {
		return brewkit.ExtractedTree{}, fmt.Errorf("%w: cloning %s: %w", brewkit.ErrFetchFailed, headURL, err)
	}

	rev, err := h.run(ctx, root, "rev-parse", "HEAD")
	if err != nil {
		return brewkit.ExtractedTree{}, fmt.Errorf("%w: reading head revision: %w", brewkit.ErrFetchFailed, err)
	}
	h.logger.Verbose("Checked out %s at %s", headURL, rev)

	return brewkit.ExtractedTree{Root: root, Revision: rev}, nil
}

func (h *GitHeadFetcher) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, h.git, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("git %s: %w: %s", args[0], err, msg)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

var _ brewkit.HeadFetcher = (*GitHeadFetcher)(nil)
