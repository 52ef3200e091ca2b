package retry

import (
	"context"
	"errors"
	"time"

	"github.com/marang/brewkit/pkg/brewkit"
)

// MaxRetryAfter caps how long a server can make a download wait through a
// Retry-After header.
const MaxRetryAfter = 2 * time.Minute

// RetryAfterer is implemented by errors that carry a server's Retry-After
// hint, such as a 429 or 503 download response.
type RetryAfterer interface {
	RetryAfter() time.Duration
}

// Executor runs a download and repeats it while it fails transiently.
//
// A mirror answering 503 for a release archive is retried after the
// strategy's delay, or after the server's Retry-After hint when that is
// longer:
//
//	executor := retry.NewExecutor(retry.NewFetchErrorClassifier(), retry.NewExponentialBackoff(3))
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return fetchArchive(ctx, "https://github.com/marang/emqutiti/archive/refs/tags/v0.4.1.tar.gz")
//	})
//
// Execute may be called concurrently. WithOnRetry returns a copy.
type Executor struct {
	classifier brewkit.ErrorClassifier
	strategy   brewkit.BackoffStrategy
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewExecutor creates an executor. Panics if classifier or strategy is nil.
func NewExecutor(classifier brewkit.ErrorClassifier, strategy brewkit.BackoffStrategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{classifier: classifier, strategy: strategy}
}

// WithOnRetry returns a copy of e that calls callback before each wait,
// e.g. to tell the user a download is being retried.
func (e *Executor) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// Execute calls operation until it succeeds, fails with an error the
// classifier considers permanent, the strategy runs out of retries or ctx
// ends. It returns the last error. A strategy with negative MaxAttempts
// retries until ctx ends.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	maxRetries := e.strategy.MaxAttempts()

	for retries := 0; ; retries++ {
		err := operation(ctx)
		if err == nil || !e.classifier.IsTransient(err) {
			return err
		}
		if maxRetries >= 0 && retries >= maxRetries {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		delay := e.delayFor(retries, err)
		if e.onRetry != nil {
			e.onRetry(retries, err, delay)
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func (e *Executor) delayFor(retry int, err error) time.Duration {
	delay := e.strategy.NextDelay(retry)
	var ra RetryAfterer
	if errors.As(err, &ra) {
		if hint := min(ra.RetryAfter(), MaxRetryAfter); hint > delay {
			return hint
		}
	}
	return delay
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
