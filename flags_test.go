package labeltest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/strangelove-ventures/labeltest/selection"
	"github.com/stretchr/testify/require"
)

func TestResolveSelection(t *testing.T) {
	noEnv := func(string) (string, bool) { return "", false }

	s, err := ResolveSelection("", "", "", noEnv)
	require.NoError(t, err)
	require.True(t, s.IsZero())

	s, err = ResolveSelection("integration,!flaky", "slow", "", noEnv)
	require.NoError(t, err)
	require.Equal(t, "integration,!flaky,!slow", s.String())

	env := func(key string) (string, bool) {
		if key == selection.EnvSkipLabels {
			return "timeout", true
		}
		return "", false
	}
	path := filepath.Join(t.TempDir(), "sel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("include: [slow]\n"), 0o600))

	s, err = ResolveSelection("", "flaky", path, env)
	require.NoError(t, err)
	require.Equal(t, "slow,!flaky,!timeout", s.String())

	_, err = ResolveSelection("", "", path+".missing", noEnv)
	require.ErrorContains(t, err, "selection config")
}
