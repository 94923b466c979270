// Package log builds the zap loggers used throughout this codebase.
//
// Library packages accept a *zap.Logger and fall back to zap.NewNop when none is given.
// Commands and test binaries construct one here from their log flags.
//
// Important: This package does not attempt to replace test log, i.e. t.Log and t.Logf. Test logs should still
// be used to inform the user of the test progress.
package log
