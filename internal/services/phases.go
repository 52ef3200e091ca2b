package services

import (
	"context"

	"github.com/marang/brewkit/pkg/brewkit"
)

// LogPhaseRunner reports each phase as an info line before running it.
type LogPhaseRunner struct {
	logger brewkit.Logger
}

// NewLogPhaseRunner creates a phase runner that logs through logger.
func NewLogPhaseRunner(logger brewkit.Logger) *LogPhaseRunner {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &LogPhaseRunner{logger: logger}
}

// RunPhase logs title and runs fn.
func (r *LogPhaseRunner) RunPhase(ctx context.Context, title string, fn func(ctx context.Context) error) error {
	r.logger.Info("%s", title)
	return fn(ctx)
}

var _ brewkit.PhaseRunner = (*LogPhaseRunner)(nil)
