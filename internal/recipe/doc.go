// Package recipe implements the two-phase Build/Verify procedure for
// formulas built with the Go toolchain.
//
// Build runs `go build` with the standard argument set (-trimpath, an
// explicit -o into <prefix>/bin and optional -ldflags) for the formula's
// declared target inside the extracted source tree. Verify runs the
// installed binary with the formula's test arguments and checks both the
// exit status and the combined output. Neither phase cleans up after a
// failure; that is the installer's job.
package recipe
