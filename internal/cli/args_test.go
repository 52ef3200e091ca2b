package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireFormulaName(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no args", []string{}, "missing required argument: <formula>"},
		{"one arg", []string{"emqutiti"}, ""},
		{"too many", []string{"a", "b"}, "accepts 1 arg(s), received 2"},
		{"path", []string{"../x"}, `invalid argument "../x"`},
		{"uppercase", []string{"Emqutiti"}, `invalid argument "Emqutiti"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequireFormulaName(installCmd, tt.args)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRequireFormulaName_ShowsExample(t *testing.T) {
	err := RequireFormulaName(installCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "brewkit install emqutiti")
	assert.Contains(t, err.Error(), "brewkit list")
}

func TestRequireURL(t *testing.T) {
	assert.NoError(t, RequireURL(createCmd, []string{"https://example.com/x-1.0.tar.gz"}))

	err := RequireURL(createCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required argument: <url>")
}
