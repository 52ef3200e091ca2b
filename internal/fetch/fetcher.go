package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/marang/brewkit/internal/checksum"
	"github.com/marang/brewkit/internal/retry"
	"github.com/marang/brewkit/pkg/brewkit"
)

// StatusError is returned when a download responds with a non-2xx status.
type StatusError struct {
	URL    string
	Code   int
	Status string

	// Wait is the server's Retry-After hint, zero when it sent none.
	Wait time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
}

// StatusCode lets the retry classifier decide on the status.
func (e *StatusError) StatusCode() int { return e.Code }

// RetryAfter lets the retry executor wait as long as the server asked.
func (e *StatusError) RetryAfter() time.Duration { return e.Wait }

// parseRetryAfter reads a Retry-After header given in seconds or as an
// HTTP date.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

// Fetcher downloads source archives into a checksum-keyed cache and
// extracts them. It implements brewkit.SourceFetcher.
type Fetcher struct {
	cacheDir   string
	client     *http.Client
	calculator checksum.Calculator
	executor   *retry.Executor
	userAgent  string
	logger     brewkit.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithRetryExecutor replaces the retry policy for downloads.
func WithRetryExecutor(e *retry.Executor) Option {
	return func(f *Fetcher) { f.executor = e }
}

// WithUserAgent sets the User-Agent header on download requests.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

// New creates a Fetcher that caches downloads below cacheDir.
// Panics if logger is nil.
func New(cacheDir string, logger brewkit.Logger, opts ...Option) *Fetcher {
	if logger == nil {
		panic("logger cannot be nil")
	}
	f := &Fetcher{
		cacheDir:   cacheDir,
		client:     &http.Client{Timeout: brewkit.DefaultFetchTimeout},
		calculator: checksum.New(),
		userAgent:  "brewkit",
		logger:     logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.executor == nil {
		f.executor = retry.NewExecutor(
			retry.NewFetchErrorClassifier(),
			retry.NewExponentialBackoff(brewkit.DefaultRetryMaxAttempts),
		)
	}
	f.executor = f.executor.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		f.logger.Info("Download failed (%v), retrying in %s", err, delay.Round(time.Millisecond))
	})
	return f
}

// FetchAndVerify downloads rawURL, checks the archive against the declared
// digest and extracts it into dest. Nothing is extracted from an archive
// whose digest does not match.
func (f *Fetcher) FetchAndVerify(ctx context.Context, rawURL, digest, dest string) (brewkit.ExtractedTree, error) {
	archive, sum, err := f.Download(ctx, rawURL, digest)
	if err != nil {
		return brewkit.ExtractedTree{}, err
	}

	f.logger.Verbose("Extracting %s to %s", archive, dest)
	root, err := Extract(archive, dest)
	if err != nil {
		return brewkit.ExtractedTree{}, fmt.Errorf("extracting %s: %w: %w", filepath.Base(archive), brewkit.ErrFetchFailed, err)
	}

	return brewkit.ExtractedTree{Root: root, Archive: archive, SHA256: sum}, nil
}

// Download places the archive for rawURL in the cache and returns its path
// and verified digest. A cached file is reused only while its digest still
// matches; a mismatching download is deleted.
func (f *Fetcher) Download(ctx context.Context, rawURL, digest string) (string, string, error) {
	want, err := checksum.ParseDigest(digest)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", brewkit.ErrInvalidFormula, err)
	}

	target := f.CachePath(rawURL, want)
	if f.cachedCopyValid(target, want) {
		f.logger.Verbose("Already downloaded: %s", target)
		return target, want, nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", "", fmt.Errorf("creating cache directory: %w", err)
	}

	f.logger.Info("Downloading %s", rawURL)
	err = f.executor.Execute(ctx, func(ctx context.Context) error {
		return f.downloadOnce(ctx, rawURL, target, want)
	})
	if err != nil {
		var csErr *brewkit.ChecksumError
		if errors.As(err, &csErr) {
			return "", "", err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", "", err
		}
		return "", "", fmt.Errorf("%w: %w", brewkit.ErrFetchFailed, err)
	}
	return target, want, nil
}

// CachePath is where the archive for rawURL with the given digest is kept.
func (f *Fetcher) CachePath(rawURL, digest string) string {
	return filepath.Join(f.cacheDir, "downloads", checksum.Normalize(digest)+"--"+archiveBaseName(rawURL))
}

func (f *Fetcher) cachedCopyValid(target, want string) bool {
	if _, err := os.Stat(target); err != nil {
		return false
	}
	got, err := f.calculator.CalculateFile(target)
	if err == nil && checksum.Equal(want, got) {
		return true
	}
	f.logger.Verbose("Removing stale cached download %s", target)
	_ = os.Remove(target)
	return false
}

func (f *Fetcher) downloadOnce(ctx context.Context, rawURL, target, want string) error {
	partial := target + ".incomplete"
	got, err := f.downloadTo(ctx, rawURL, partial)
	if err != nil {
		return err
	}

	if !checksum.Equal(want, got) {
		_ = os.Remove(partial)
		return &brewkit.ChecksumError{URL: rawURL, Expected: want, Actual: got}
	}

	if err := os.Rename(partial, target); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("moving download into cache: %w", err)
	}
	return nil
}

// DownloadAndHash downloads rawURL without a declared digest, stores it in
// the cache under the digest it actually has and returns the path and
// digest. It is how a new formula learns its checksum.
func (f *Fetcher) DownloadAndHash(ctx context.Context, rawURL string) (string, string, error) {
	dir := filepath.Join(f.cacheDir, "downloads")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("creating cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".unhashed-*.incomplete")
	if err != nil {
		return "", "", fmt.Errorf("creating download file: %w", err)
	}
	partial := tmp.Name()
	tmp.Close()

	f.logger.Info("Downloading %s", rawURL)
	var got string
	err = f.executor.Execute(ctx, func(ctx context.Context) error {
		var err error
		got, err = f.downloadTo(ctx, rawURL, partial)
		return err
	})
	if err != nil {
		_ = os.Remove(partial)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", "", err
		}
		return "", "", fmt.Errorf("%w: %w", brewkit.ErrFetchFailed, err)
	}

	target := f.CachePath(rawURL, got)
	if err := os.Rename(partial, target); err != nil {
		_ = os.Remove(partial)
		return "", "", fmt.Errorf("moving download into cache: %w", err)
	}
	return target, got, nil
}

// downloadTo streams rawURL into path and returns the digest of what was
// written. path is removed on failure.
func (f *Fetcher) downloadTo(ctx context.Context, rawURL, path string) (string, error) {
	body, err := f.open(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer body.Close()

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}

	got, n, err := f.calculator.CalculateReader(io.TeeReader(body, out))
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("reading %s: %w", rawURL, err)
	}
	f.logger.Verbose("Downloaded %d bytes from %s", n, rawURL)
	return got, nil
}

func (f *Fetcher) open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	switch u.Scheme {
	case "file":
		file, err := os.Open(filepath.FromSlash(u.Path))
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", u.Path, err)
		}
		return file, nil
	case "http", "https":
	default:
		return nil, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{
			URL:    rawURL,
			Code:   resp.StatusCode,
			Status: resp.Status,
			Wait:   parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	}
	return resp.Body, nil
}

// archiveBaseName keeps the archive's own name so its extension survives
// in the cache, e.g. "v0.4.1.tar.gz".
func archiveBaseName(rawURL string) string {
	name := "download"
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" && base != "" {
			name = base
		}
	}
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' {
			return '_'
		}
		return r
	}, name)
}

var (
	_ brewkit.SourceFetcher = (*Fetcher)(nil)
	_ retry.StatusCoder     = (*StatusError)(nil)
	_ retry.RetryAfterer    = (*StatusError)(nil)
)
