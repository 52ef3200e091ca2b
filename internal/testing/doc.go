// Package testing provides helpers shared by brewkit's package tests:
// in-memory source archives, an httptest archive server, and shell-script
// fakes for the go toolchain and built binaries.
//
// Import it under an alias to avoid clashing with the standard library:
//
//	testhelpers "github.com/marang/brewkit/internal/testing"
package testing
