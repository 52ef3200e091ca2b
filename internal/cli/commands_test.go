package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marang/brewkit/internal/receipt"
	testhelpers "github.com/marang/brewkit/internal/testing"
	"github.com/marang/brewkit/internal/tui"
	"github.com/marang/brewkit/pkg/brewkit"
)

const demoFormula = `desc: Demo MQTT client
homepage: https://example.com/mqttdemo
url: %s
sha256: %s
license: MIT
depends_on:
  - name: go
    scope: build
install:
  target: ./cmd/emqutiti
test:
  args: ["-h"]
  expect_exit: 2
  expect_output: Usage
`

type cliEnv struct {
	prefix     string
	cache      string
	formulaDir string
	configPath string
	archive    []byte
	server     *testhelpers.ArchiveServer
	archiveURL string
}

func resetFlags(t *testing.T) {
	t.Helper()
	rootFlags.configPath = ""
	rootFlags.prefix = ""
	installFlags = installFlagValues{}
	listInstalled = false
	uninstallYes = false
	createFlags = createFlagValues{format: "yaml"}
	require.NoError(t, rootCmd.PersistentFlags().Set("verbose", "false"))
}

// newCLIEnv serves a demo source archive, writes a formula for it and
// points the configuration at a fake go toolchain.
func newCLIEnv(t *testing.T, goOpts testhelpers.FakeGoOptions) *cliEnv {
	t.Helper()
	resetFlags(t)
	t.Cleanup(func() { resetFlags(t) })

	archive := testhelpers.TarGz(t, testhelpers.EmqutitiSource("mqttdemo-1.0.0")...)
	env := &cliEnv{
		prefix:     t.TempDir(),
		cache:      t.TempDir(),
		formulaDir: t.TempDir(),
		archive:    archive,
		server:     testhelpers.ServeArchive(t, archive),
	}
	env.archiveURL = env.server.ArchiveURL("v1.0.0.tar.gz")
	env.writeFormula(t, "mqttdemo", testhelpers.SHA256(archive))

	goPath := testhelpers.FakeGo(t, goOpts)
	env.configPath = filepath.Join(t.TempDir(), "brewkit.yaml")
	cfg := fmt.Sprintf("search_dirs:\n  - %s\nlock_timeout: 1s\nretry:\n  max_attempts: 0\n", filepath.Dir(goPath))
	require.NoError(t, os.WriteFile(env.configPath, []byte(cfg), 0644))

	t.Setenv("BREWKIT_PREFIX", env.prefix)
	t.Setenv("BREWKIT_CACHE", env.cache)
	t.Setenv("BREWKIT_FORMULA_PATH", env.formulaDir)
	t.Setenv(tui.EnvNonInteractive, "1")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	return env
}

func (e *cliEnv) writeFormula(t *testing.T, name, digest string) {
	t.Helper()
	body := fmt.Sprintf(demoFormula, e.archiveURL, digest)
	require.NoError(t, os.WriteFile(filepath.Join(e.formulaDir, name+".yaml"), []byte(body), 0644))
}

// run executes the root command with args and returns stdout and stderr.
func (e *cliEnv) run(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	}()
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestFormulaCommands_ArgsValidation(t *testing.T) {
	for _, cmd := range []*cobra.Command{installCmd, testCmd, fetchCmd, infoCmd, uninstallCmd, createCmd} {
		t.Run(cmd.Name(), func(t *testing.T) {
			err := cmd.Args(cmd, []string{})
			require.Error(t, err)
			assert.Equal(t, brewkit.ExitUsageError, brewkit.ExitCodeForError(err))

			err = cmd.Args(cmd, []string{"a", "b"})
			require.Error(t, err)
			assert.Equal(t, brewkit.ExitUsageError, brewkit.ExitCodeForError(err))
		})
	}
}

func TestInstall_LifecycleThroughCLI(t *testing.T) {
	env := newCLIEnv(t, testhelpers.FakeGoOptions{})

	stdout, stderr, err := env.run("install", "mqttdemo")
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, "mqttdemo 1.0.0")
	assert.Contains(t, stdout, "passed")
	assert.Contains(t, stderr, "Building mqttdemo")

	binary := filepath.Join(env.prefix, "bin", "mqttdemo")
	assert.FileExists(t, binary)

	stdout, _, err = env.run("list", "--installed")
	require.NoError(t, err)
	assert.Equal(t, "mqttdemo 1.0.0 (passed)\n", stdout)

	stdout, _, err = env.run("test", "mqttdemo")
	require.NoError(t, err)
	assert.Contains(t, stdout, "mqttdemo: test passed")

	stdout, _, err = env.run("info", "mqttdemo")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Demo MQTT client")
	assert.Contains(t, stdout, "go => :build")
	assert.Contains(t, stdout, "Installed 1.0.0")
	assert.Contains(t, stdout, binary)

	stdout, stderr, err = env.run("uninstall", "mqttdemo")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Uninstalling mqttdemo (1 file)")
	assert.Contains(t, stdout, "Removed "+binary)
	assert.NoFileExists(t, binary)

	_, _, err = env.run("test", "mqttdemo")
	require.Error(t, err)
	assert.Equal(t, brewkit.ExitFormulaNotFound, brewkit.ExitCodeForError(err))
}

func TestUninstall_RejectsPathLikeName(t *testing.T) {
	env := newCLIEnv(t, testhelpers.FakeGoOptions{})
	victim := filepath.Join(t.TempDir(), "victim")
	require.NoError(t, os.WriteFile(victim, []byte("keep"), 0755))
	stray := filepath.Join(env.prefix, "var", "brewkit", "x.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(stray), 0755))
	require.NoError(t, os.WriteFile(stray, []byte(fmt.Sprintf(`{"formula":"x","binaries":[%q]}`, victim)), 0644))

	_, _, err := env.run("uninstall", "../x", "--yes")

	require.Error(t, err)
	assert.Equal(t, brewkit.ExitUsageError, brewkit.ExitCodeForError(err))
	assert.FileExists(t, victim)
	assert.FileExists(t, stray)
}

func TestInstall_ChecksumMismatchExitCode(t *testing.T) {
	env := newCLIEnv(t, testhelpers.FakeGoOptions{})
	env.writeFormula(t, "mqttdemo", strings.Repeat("0", 64))

	_, _, err := env.run("install", "mqttdemo")

	require.Error(t, err)
	assert.Equal(t, brewkit.ExitChecksumMismatch, brewkit.ExitCodeForError(err))
	assert.NoFileExists(t, filepath.Join(env.prefix, "bin", "mqttdemo"))
}

func TestInstall_BuildFailureExitCode(t *testing.T) {
	env := newCLIEnv(t, testhelpers.FakeGoOptions{FailWith: "undefined: mqtt.Client"})

	_, _, err := env.run("install", "mqttdemo")

	require.Error(t, err)
	assert.Equal(t, brewkit.ExitBuildFailed, brewkit.ExitCodeForError(err))
	assert.Contains(t, err.Error(), "undefined: mqtt.Client")
}

func TestInstall_VerificationFailureKeepsBinary(t *testing.T) {
	env := newCLIEnv(t, testhelpers.FakeGoOptions{Binary: testhelpers.SilentBinary})

	stdout, _, err := env.run("install", "mqttdemo")

	require.Error(t, err)
	assert.Equal(t, brewkit.ExitVerificationFailed, brewkit.ExitCodeForError(err))
	assert.Contains(t, stdout, "failed")
	assert.FileExists(t, filepath.Join(env.prefix, "bin", "mqttdemo"))

	rec, err := receipt.NewStore(env.prefix).Read("mqttdemo")
	require.NoError(t, err)
	assert.Equal(t, brewkit.VerificationFailed, rec.Verification)
}

func TestInstall_SkipTest(t *testing.T) {
	env := newCLIEnv(t, testhelpers.FakeGoOptions{Binary: testhelpers.SilentBinary})

	stdout, _, err := env.run("install", "mqttdemo", "--skip-test")

	require.NoError(t, err)
	assert.Contains(t, stdout, "skipped")
}

func TestInstall_UnknownFormula(t *testing.T) {
	env := newCLIEnv(t, testhelpers.FakeGoOptions{})

	_, _, err := env.run("install", "nope")

	require.Error(t, err)
	assert.Equal(t, brewkit.ExitFormulaNotFound, brewkit.ExitCodeForError(err))
}

func TestInstall_HeadWithoutRepository(t *testing.T) {
	env := newCLIEnv(t, testhelpers.FakeGoOptions{})

	_, _, err := env.run("install", "mqttdemo", "--head")

	require.Error(t, err)
	assert.Equal(t, brewkit.ExitConfigError, brewkit.ExitCodeForError(err))
}

func TestInstall_PrefixFlagOverridesEnvironment(t *testing.T) {
	env := newCLIEnv(t, testhelpers.FakeGoOptions{})
	other := t.TempDir()

	_, stderr, err := env.run("install", "mqttdemo", "--prefix", other)

	require.NoError(t, err, stderr)
	assert.FileExists(t, filepath.Join(other, "bin", "mqttdemo"))
	assert.NoFileExists(t, filepath.Join(env.prefix, "bin", "mqttdemo"))
}

func TestInstall_PrefixFlagOverridesRelativeEnvPrefix(t *testing.T) {
	env := newCLIEnv(t, testhelpers.FakeGoOptions{})
	t.Setenv("BREWKIT_PREFIX", "relative/prefix")
	other := t.TempDir()

	_, stderr, err := env.run("install", "mqttdemo", "--prefix", other)

	require.NoError(t, err, stderr)
	assert.FileExists(t, filepath.Join(other, "bin", "mqttdemo"))
}

func TestFetch_PrintsCachedArchive(t *testing.T) {
	env := newCLIEnv(t, testhelpers.FakeGoOptions{})

	stdout, _, err := env.run("fetch", "mqttdemo")

	require.NoError(t, err)
	path := strings.TrimSpace(stdout)
	assert.True(t, strings.HasPrefix(path, env.cache), "archive %s is outside the cache", path)
	assert.FileExists(t, path)
	assert.Equal(t, 1, env.server.Requests())

	_, _, err = env.run("install", "mqttdemo")
	require.NoError(t, err)
	assert.Equal(t, 1, env.server.Requests(), "install reuses the fetched archive")
}

func TestList_ShowsBuiltinAndLocalFormulas(t *testing.T) {
	env := newCLIEnv(t, testhelpers.FakeGoOptions{})

	stdout, _, err := env.run("list")

	require.NoError(t, err)
	assert.Contains(t, stdout, "emqutiti 0.4.1\n")
	assert.Contains(t, stdout, "mqttdemo 1.0.0\n")
}

func TestInfo_NotInstalled(t *testing.T) {
	env := newCLIEnv(t, testhelpers.FakeGoOptions{})

	stdout, _, err := env.run("info", "emqutiti")

	require.NoError(t, err)
	assert.Contains(t, stdout, "Terminal MQTT client")
	assert.Contains(t, stdout, "https://github.com/marang/emqutiti.git")
	assert.Contains(t, stdout, "Not installed")
}

func TestCreate_WritesSkeletonWithDigest(t *testing.T) {
	env := newCLIEnv(t, testhelpers.FakeGoOptions{})
	out := t.TempDir()

	stdout, stderr, err := env.run("create", env.archiveURL, "--name", "newtool", "--output", out)

	require.NoError(t, err, stderr)
	path := filepath.Join(out, "newtool.yaml")
	assert.Equal(t, path+"\n", stdout)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), testhelpers.SHA256(env.archive))
	assert.Contains(t, string(data), `target: "./cmd/newtool"`)
	assert.Contains(t, stderr, "desc is required")
}

func TestCreate_TOMLIntoFormulaDir(t *testing.T) {
	env := newCLIEnv(t, testhelpers.FakeGoOptions{})

	_, stderr, err := env.run("create", env.archiveURL, "--name", "newtool",
		"--desc", "New tool", "--license", "MIT", "--format", "toml")

	require.NoError(t, err, stderr)
	assert.FileExists(t, filepath.Join(env.formulaDir, "newtool.toml"))
	assert.NotContains(t, stderr, "Edit ")

	stdout, _, err := env.run("list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "newtool 1.0.0\n")
}

func TestCreate_UnknownFormat(t *testing.T) {
	env := newCLIEnv(t, testhelpers.FakeGoOptions{})

	_, _, err := env.run("create", env.archiveURL, "--format", "json")

	require.Error(t, err)
	assert.Equal(t, brewkit.ExitConfigError, brewkit.ExitCodeForError(err))
}

func TestInvalidConfigExitCode(t *testing.T) {
	env := newCLIEnv(t, testhelpers.FakeGoOptions{})
	require.NoError(t, os.WriteFile(env.configPath, []byte("lock_timeout: soon\n"), 0644))

	_, _, err := env.run("list")

	require.Error(t, err)
	assert.Equal(t, brewkit.ExitConfigError, brewkit.ExitCodeForError(err))
}
