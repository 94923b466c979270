package selection

import (
	"fmt"
	"os"
	"strconv"

	"github.com/strangelove-ventures/labeltest/label"
)

// Environment variables read by FromEnv.
const (
	EnvLabels     = "LABELTEST_LABELS"
	EnvSkipLabels = "LABELTEST_SKIP_LABELS"
	EnvConfig     = "LABELTEST_CONFIG"
	EnvSlow       = "LABELTEST_SLOW"
)

// LookupEnvFunc has the signature of os.LookupEnv.
type LookupEnvFunc func(key string) (string, bool)

// FromEnv builds a Selection from the environment.
// If lookup is nil, os.LookupEnv is used.
//
// LABELTEST_LABELS holds an expression (see ParseExpr),
// LABELTEST_SKIP_LABELS a list of labels to exclude,
// and LABELTEST_CONFIG the path of a selection file.
// LABELTEST_SLOW, when set to a false boolean value, excludes slow tests.
func FromEnv(lookup LookupEnvFunc) (Selection, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var s Selection
	if path, ok := lookup(EnvConfig); ok && path != "" {
		fromFile, err := LoadFile(path)
		if err != nil {
			return s, fmt.Errorf("%s: %w", EnvConfig, err)
		}
		s = Merge(s, fromFile)
	}
	if expr, ok := lookup(EnvLabels); ok {
		s = Merge(s, ParseExpr(expr))
	}
	if list, ok := lookup(EnvSkipLabels); ok {
		s = Merge(s, Selection{Exclude: ParseList(list)})
	}
	if v, ok := lookup(EnvSlow); ok {
		// Unparseable values are ignored rather than treated as false.
		if run, err := strconv.ParseBool(v); err == nil && !run {
			s = Merge(s, Selection{Exclude: label.NewSet(label.Slow)})
		}
	}
	return s, nil
}
