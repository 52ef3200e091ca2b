package recipe

import (
	"path/filepath"
	"strings"
)

// StdGoArgs is the standard argument set passed to `go build`: reproducible
// paths, an explicit output location under prefix/bin and, when given,
// linker flags joined into a single -ldflags argument.
func StdGoArgs(prefix, binary string, ldflags []string) []string {
	args := []string{
		"-trimpath",
		"-o=" + BinaryPath(prefix, binary),
	}
	if len(ldflags) > 0 {
		args = append(args, "-ldflags="+strings.Join(ldflags, " "))
	}
	return args
}

// BinaryPath is where a binary named binary is installed under prefix.
func BinaryPath(prefix, binary string) string {
	return filepath.Join(prefix, "bin", binary)
}
