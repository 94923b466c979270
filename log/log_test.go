package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type nopSyncer struct {
	*bytes.Buffer
}

func (n nopSyncer) Sync() error { return nil }

func TestNew(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		out := nopSyncer{new(bytes.Buffer)}
		lg := New(out, "json", "debug")
		lg.Debug("test debug")
		lg.Sugar().Infof("test %s", "info")
		lg.Sugar().Errorf("test %s", "error")

		type logLine struct {
			Lvl, Msg string
		}

		var (
			dec   = json.NewDecoder(out)
			lines []logLine
		)

		for {
			var line logLine
			err := dec.Decode(&line)
			if err != nil {
				if !errors.Is(err, io.EOF) {
					require.Fail(t, err.Error())
				}
				break
			}
			lines = append(lines, line)
		}

		require.Equal(t, logLine{"debug", "test debug"}, lines[0])
		require.Equal(t, logLine{"info", "test info"}, lines[1])
		require.Equal(t, logLine{"error", "test error"}, lines[2])
	})

	t.Run("console", func(t *testing.T) {
		out := nopSyncer{new(bytes.Buffer)}
		lg := New(out, "console", "debug")
		lg.Sugar().Debugf("test %s", "debug")
		lg.Info("test info")
		lg.Error("test error")

		require.Contains(t, out.String(), "test debug")
		require.Contains(t, out.String(), "test info")
		require.Contains(t, out.String(), "error")
	})

	t.Run("log level", func(t *testing.T) {
		out := nopSyncer{new(bytes.Buffer)}
		lg := New(out, "console", "info")
		lg.Debug("should not see me")

		require.Empty(t, out.String())
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		out := nopSyncer{new(bytes.Buffer)}
		lg := New(out, "console", "loud")
		lg.Debug("should not see me")
		lg.Info("should see me")

		require.NotContains(t, out.String(), "should not see me")
		require.Contains(t, out.String(), "should see me")
	})
}

func TestOpen(t *testing.T) {
	for _, tt := range []struct {
		Target string
	}{
		{""},
		{"stdout"},
		{"stderr"},
	} {
		lc, err := Open(tt.Target, "console", "info")

		require.NoError(t, err)
		require.NoError(t, lc.Close())
		require.NotEmpty(t, lc.FilePath)
	}

	t.Run("file path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "labeltest.log")
		lc, err := Open(path, "json", "info")
		require.NoError(t, err)
		require.Equal(t, path, lc.FilePath)

		lc.Info("to file")
		require.NoError(t, lc.Close())

		b, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Contains(t, string(b), "to file")
	})
}
