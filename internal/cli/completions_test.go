package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testhelpers "github.com/marang/brewkit/internal/testing"
)

func TestCompleteFormulaNames(t *testing.T) {
	env := newCLIEnv(t, testhelpers.FakeGoOptions{})
	rootFlags.configPath = env.configPath

	names, directive := completeFormulaNames(installCmd, nil, "mq")

	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
	assert.Equal(t, []string{"mqttdemo"}, names)
}

func TestCompleteFormulaNames_OnlyFirstArg(t *testing.T) {
	names, directive := completeFormulaNames(installCmd, []string{"emqutiti"}, "")

	assert.Nil(t, names)
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
}

func TestCompleteInstalledNames(t *testing.T) {
	env := newCLIEnv(t, testhelpers.FakeGoOptions{})
	_, stderr, err := env.run("install", "mqttdemo")
	require.NoError(t, err, stderr)
	rootFlags.configPath = env.configPath

	names, _ := completeInstalledNames(uninstallCmd, nil, "")

	assert.Equal(t, []string{"mqttdemo"}, names)
}

func TestCompleteFormats(t *testing.T) {
	formats, directive := completeFormats(createCmd, nil, "t")

	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
	assert.Equal(t, []string{"toml"}, formats)
}
