package labeltest

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/strangelove-ventures/labeltest/internal/mocktesting"
	"github.com/strangelove-ventures/labeltest/label"
	"github.com/strangelove-ventures/labeltest/selection"
	"github.com/stretchr/testify/require"
)

func TestDefaultReportFilepath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := DefaultReportFilepath()
	require.Equal(t, filepath.Join(home, ".labeltest", "reports"), filepath.Dir(path))
	require.True(t, strings.HasSuffix(path, "-"+strconv.Itoa(os.Getpid())+".json"), path)

	f, err := CreateReportFile("default")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.FileExists(t, f.Name())
}

func TestCreateReportFile_Exclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "1700000000-42.json")

	f, err := createReportFile(path, true)
	require.NoError(t, err)
	_, err = f.WriteString("first\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = createReportFile(path, true)
	require.ErrorIs(t, err, os.ErrExist)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "first\n", string(b))

	// An explicit path is truncated, as with os.Create.
	f, err = CreateReportFile(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	b, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Empty(t, b)
}

type funcM func() int

func (f funcM) Run() int { return f() }

func TestRun_PackageFlag(t *testing.T) {
	prevPkg, prevReport := *packageFlag, *reportFlag
	t.Cleanup(func() { *packageFlag, *reportFlag = prevPkg, prevReport })
	*packageFlag = "example.com/project/tool"
	*reportFlag = ""

	marker := NewMarker(selection.ParseExpr("!slow"), nil, nil)
	code := run(funcM(func() int {
		mt := mocktesting.New("TestTool")
		mt.Run(func(mt *mocktesting.T) {
			marker.Mark(mt, label.Integration)
		})
		return 3
	}), marker)
	require.Equal(t, 3, code)

	u, ok := marker.Registry().Lookup(UnitID{Package: "example.com/project/tool", Name: "TestTool"})
	require.True(t, ok)
	require.True(t, u.Labels.Has(label.Integration))
}
