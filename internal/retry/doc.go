// Package retry provides automatic retry logic with exponential backoff
// for transient source download failures.
//
// The package supports pluggable error classification and backoff strategies.
// brewkit only ever retries fetching: build and test failures are fatal and
// surface to the operator unchanged.
//
// # Example Usage
//
//	classifier := retry.NewFetchErrorClassifier()
//	strategy := retry.NewExponentialBackoff(3)
//	executor := retry.NewExecutor(classifier, strategy)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return download(ctx, url)
//	})
//
// # Error Classification
//
// The FetchErrorClassifier treats network failures (refused or reset
// connections, timeouts, temporary DNS errors) and HTTP 408, 429 and 5xx
// responses as transient. Everything else, including 404 and checksum
// mismatches, is fatal.
//
// # Retry-After
//
// When a failed download carries a server hint (an error implementing
// RetryAfterer), the executor waits for the hint instead of the backoff
// delay if the hint is longer, up to MaxRetryAfter.
//
// # Thread Safety
//
// Executor instances are safe for concurrent use. Use WithOnRetry() to create
// independent configurations per goroutine.
package retry
