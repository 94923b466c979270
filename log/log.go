package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger writing to w.
// Format must be one of: console or json.
// Level must be one of: debug, info, warn or error; anything else falls back to info.
func New(w zapcore.WriteSyncer, format string, level string) *zap.Logger {
	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = func(ts time.Time, encoder zapcore.PrimitiveArrayEncoder) {
		encoder.AppendString(ts.UTC().Format("2006-01-02T15:04:05.000000Z07:00"))
	}
	config.LevelKey = "lvl"

	enc := zapcore.NewConsoleEncoder(config)
	if format == "json" {
		enc = zapcore.NewJSONEncoder(config)
	}

	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return zap.New(zapcore.NewCore(enc, w, lvl))
}

// LoggerCloser is a logger together with the file it writes to, if any.
type LoggerCloser struct {
	*zap.Logger
	io.Closer
	FilePath string
}

// Open returns a logger writing to target.
// Target "stderr" (or empty) and "stdout" select the standard streams;
// a bare file name is created under $HOME/.labeltest/logs,
// and any other path is created as given.
func Open(target, format, level string) (lc LoggerCloser, _ error) {
	var w zapcore.WriteSyncer
	switch target {
	case "stderr", "":
		w = os.Stderr
		lc.FilePath = "stderr"
	case "stdout":
		w = os.Stdout
		lc.FilePath = "stdout"
	default:
		file, err := createLogFile(target)
		if err != nil {
			return lc, fmt.Errorf("create log file: %w", err)
		}
		w = file
		lc.Closer = file
		lc.FilePath = file.Name()
	}
	lc.Logger = New(w, format, level)
	return lc, nil
}

func (lc LoggerCloser) Close() error {
	// ignore error because of https://github.com/uber-go/zap/issues/880 with stderr/stdout
	_ = lc.Logger.Sync()
	if lc.Closer == nil {
		return nil
	}
	return lc.Closer.Close()
}

// createLogFile creates name in $HOME/.labeltest/logs/ unless name already contains a directory.
func createLogFile(name string) (*os.File, error) {
	if filepath.Base(name) != name {
		if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
			return nil, fmt.Errorf("mkdirall: %w", err)
		}
		return os.Create(name)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("user home dir: %w", err)
	}
	fpath := filepath.Join(home, ".labeltest", "logs")
	if err := os.MkdirAll(fpath, 0755); err != nil {
		return nil, fmt.Errorf("mkdirall: %w", err)
	}
	return os.Create(filepath.Join(fpath, name))
}
