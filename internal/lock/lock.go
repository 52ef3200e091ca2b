// Package lock gives one brewkit process exclusive ownership of an
// installation prefix.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/marang/brewkit/pkg/brewkit"
)

// RelPath is the lock file relative to the prefix.
var RelPath = filepath.Join("var", "brewkit", "prefix.lock")

const retryInterval = 100 * time.Millisecond

// PrefixLock is a held lock on an installation prefix.
type PrefixLock struct {
	flock *flock.Flock
}

// Acquire takes the exclusive lock for prefix, waiting up to timeout for
// another process to release it. A zero timeout waits only as long as ctx.
// It returns brewkit.ErrPrefixLocked when the wait times out.
func Acquire(ctx context.Context, prefix string, timeout time.Duration) (*PrefixLock, error) {
	path := filepath.Join(prefix, RelPath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	fl := flock.New(path)
	locked, err := fl.TryLockContext(waitCtx, retryInterval)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s held by another process after %s: %w", prefix, timeout, brewkit.ErrPrefixLocked)
		}
		return nil, fmt.Errorf("acquiring prefix lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", prefix, brewkit.ErrPrefixLocked)
	}
	return &PrefixLock{flock: fl}, nil
}

// Path returns the lock file path.
func (l *PrefixLock) Path() string {
	return l.flock.Path()
}

// Release unlocks the prefix. It is safe to call more than once.
func (l *PrefixLock) Release() error {
	return l.flock.Unlock()
}
