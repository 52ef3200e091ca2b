package testing

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// UsageBinary behaves like a program using Go's flag package: -h prints a
// usage banner to stderr and exits 2.
const UsageBinary = `if [ "$1" = "-h" ]; then
  echo "Usage of emqutiti:" >&2
  echo "  -config string" >&2
  exit 2
fi
exit 0`

// SilentBinary exits 0 for every invocation and prints nothing.
const SilentBinary = `exit 0`

// FakeGoOptions configures FakeGo.
type FakeGoOptions struct {
	// FailWith makes every build exit 1 after printing this message.
	FailWith string

	// Binary is the shell body of the executable each build writes.
	// Defaults to UsageBinary.
	Binary string
}

// FakeGo writes a shell script named "go" into a fresh directory and
// returns its path. It understands "go build [flags] -o=<out> <target>":
// it checks that <target> exists relative to the working directory, then
// writes an executable script to <out>. Each invocation appends its
// arguments, one per line, to the file named by GoArgsLog.
//
// Tests using FakeGo are skipped on Windows.
func FakeGo(t testing.TB, opts FakeGoOptions) string {
	t.Helper()
	SkipOnWindows(t)

	if opts.Binary == "" {
		opts.Binary = UsageBinary
	}
	dir := t.TempDir()

	var body strings.Builder
	body.WriteString("#!/bin/sh\n")
	fmt.Fprintf(&body, "printf '%%s\\n' \"$@\" >> %q\n", GoArgsLog(dir))
	body.WriteString(`if [ "$1" != "build" ]; then
  echo "go: unknown command $1" >&2
  exit 2
fi
shift
out=""
target=""
for arg in "$@"; do
  case "$arg" in
    -o=*) out="${arg#-o=}" ;;
    -*) ;;
    *) target="$arg" ;;
  esac
done
`)
	if opts.FailWith != "" {
		fmt.Fprintf(&body, "echo %q >&2\nexit 1\n", opts.FailWith)
	}
	body.WriteString(`if [ ! -d "$target" ]; then
  echo "stat $target: directory not found" >&2
  exit 1
fi
if [ -z "$out" ]; then
  echo "missing -o" >&2
  exit 1
fi
mkdir -p "$(dirname "$out")"
cat > "$out" <<'BREWKIT_FAKE_BINARY'
#!/bin/sh
`)
	body.WriteString(opts.Binary)
	body.WriteString("\nBREWKIT_FAKE_BINARY\nchmod 755 \"$out\"\n")

	path := filepath.Join(dir, "go")
	if err := os.WriteFile(path, []byte(body.String()), 0755); err != nil {
		t.Fatalf("writing fake go: %v", err)
	}
	return path
}

// GoArgsLog is where the fake go in dir records its arguments.
func GoArgsLog(dir string) string {
	return filepath.Join(dir, "go.args")
}

// ReadGoArgs returns the arguments recorded by the fake go at goPath.
func ReadGoArgs(t testing.TB, goPath string) []string {
	t.Helper()
	data, err := os.ReadFile(GoArgsLog(filepath.Dir(goPath)))
	if err != nil {
		t.Fatalf("reading fake go arguments: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

// FakeBinary writes an executable shell script with the given body.
func FakeBinary(t testing.TB, dir, name, script string) string {
	t.Helper()
	SkipOnWindows(t)

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating %s: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0755); err != nil {
		t.Fatalf("writing fake binary: %v", err)
	}
	return path
}

// SkipOnWindows skips tests that rely on shell scripts.
func SkipOnWindows(t testing.TB) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes are not supported on Windows")
	}
}
