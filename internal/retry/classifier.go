package retry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/marang/brewkit/pkg/brewkit"
)

// StatusCoder is implemented by errors that carry an HTTP status code.
type StatusCoder interface {
	StatusCode() int
}

// FetchErrorClassifier implements ErrorClassifier for source downloads.
type FetchErrorClassifier struct{}

// NewFetchErrorClassifier creates a new download error classifier.
func NewFetchErrorClassifier() *FetchErrorClassifier {
	return &FetchErrorClassifier{}
}

// IsTransient determines if an error is temporary and retryable.
func (c *FetchErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	// A digest mismatch never heals by downloading again from the same URL.
	if errors.Is(err, brewkit.ErrChecksumMismatch) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var sc StatusCoder
	if errors.As(err, &sc) {
		return isTransientStatus(sc.StatusCode())
	}

	if c.isNetworkError(err) {
		return true
	}

	return c.isConnectionMessage(err)
}

func isTransientStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return code >= 500 && code <= 599
}

func (c *FetchErrorClassifier) isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	for _, errno := range []syscall.Errno{syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ENETUNREACH, syscall.EHOSTUNREACH, syscall.EPIPE} {
		if errors.Is(err, errno) {
			return true
		}
	}

	return false
}

// transientPatterns match errors that lost their type on the way up,
// e.g. when wrapped with %v by an HTTP transport.
var transientPatterns = []string{
	"connection refused",
	"connection reset",
	"i/o timeout",
	"broken pipe",
	"unexpected eof",
	"tls handshake timeout",
	"server closed idle connection",
}

func (c *FetchErrorClassifier) isConnectionMessage(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

var _ brewkit.ErrorClassifier = (*FetchErrorClassifier)(nil)
