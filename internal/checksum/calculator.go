package checksum

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// Calculator is an interface for computing archive checksums.
// This abstraction allows for different checksum strategies and algorithms.
type Calculator interface {
	// CalculateRaw computes a checksum of in-memory content.
	CalculateRaw(content []byte) string

	// CalculateReader streams r through the hash and returns the digest and
	// the number of bytes read.
	CalculateReader(r io.Reader) (string, int64, error)

	// CalculateFile computes the checksum of the file at path.
	CalculateFile(path string) (string, error)
}

// SHA256 implements checksum calculation using SHA-256.
//
// SHA256 is a zero-size type and is safe for concurrent use by multiple goroutines.
// Using value semantics (pass by value) eliminates heap allocations.
type SHA256 struct{}

// New creates a new SHA-256 based calculator.
func New() SHA256 {
	return SHA256{}
}

// CalculateRaw computes SHA-256 of raw content.
func (c SHA256) CalculateRaw(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// CalculateReader streams r through SHA-256 so archives of any size hash in
// constant memory.
func (c SHA256) CalculateReader(r io.Reader) (string, int64, error) {
	hasher := sha256.New()
	n, err := io.Copy(hasher, r)
	if err != nil {
		return "", n, fmt.Errorf("hashing: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), n, nil
}

// CalculateFile computes SHA-256 of the file at path.
func (c SHA256) CalculateFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	sum, _, err := c.CalculateReader(file)
	if err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return sum, nil
}

// Normalize lowercases and trims a hex digest as declared in a formula.
func Normalize(digest string) string {
	return strings.ToLower(strings.TrimSpace(digest))
}

// ParseDigest validates a hex-encoded SHA-256 digest string. It returns
// the normalized form or an error if the string is not a 64-character hex
// encoding of 32 bytes.
func ParseDigest(digest string) (string, error) {
	normalized := Normalize(digest)
	decoded, err := hex.DecodeString(normalized)
	if err != nil {
		return "", fmt.Errorf("parsing sha256 digest: %w", err)
	}
	if len(decoded) != sha256.Size {
		return "", fmt.Errorf("sha256 digest is %d bytes, want %d", len(decoded), sha256.Size)
	}
	return normalized, nil
}

// Equal compares two digests exactly, ignoring case, in constant time.
func Equal(expected, actual string) bool {
	a := Normalize(expected)
	b := Normalize(actual)
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
