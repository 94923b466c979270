package labeltest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPackageOf(t *testing.T) {
	for fn, want := range map[string]string{
		"example.com/project/storage.TestFoo":             "example.com/project/storage",
		"example.com/project/storage_test.TestFoo.func1":  "example.com/project/storage",
		"example.com/project/storage.(*suite).TestMethod": "example.com/project/storage",
		"gopkg.in/yaml%2ev3.TestDecode":                   "gopkg.in/yaml.v3",
		"main.TestTool":                                   "main",
		"nodot":                                           "",
	} {
		require.Equal(t, want, packageOf(fn), fn)
	}
}

func TestCallerPackage(t *testing.T) {
	require.Equal(t, "github.com/strangelove-ventures/labeltest", callerPackage(0))
	func() {
		require.Equal(t, "github.com/strangelove-ventures/labeltest", callerPackage(0))
	}()
}
