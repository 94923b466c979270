package labeltest

import (
	"flag"
	"fmt"

	"github.com/strangelove-ventures/labeltest/selection"
)

// Flags accepted by test binaries that import this package.
// Environment variables apply as well; flags add to them.
var (
	labelsFlag = flag.String("labeltest.labels", "",
		"Selection expression, e.g. 'integration,!slow'. Tests with an excluded label never run; "+
			"if any label is included, only tests with an included label run.")
	skipLabelsFlag = flag.String("labeltest.skip-labels", "", "Comma separated labels to exclude.")
	configFlag     = flag.String("labeltest.config", "", "Path to a TOML, YAML or JSON selection file.")
	reportFlag     = flag.String("labeltest.report", "", "Path where the JSON test report will be written. Empty disables reporting.")
	packageFlag    = flag.String("labeltest.package", "", "Import path recorded for marked tests, in place of the package of the code calling Mark.")
)

// SelectionFromFlags combines the selection from the environment
// with the -labeltest.* flags of the test binary.
func SelectionFromFlags() (selection.Selection, error) {
	return ResolveSelection(*labelsFlag, *skipLabelsFlag, *configFlag, nil)
}

// ResolveSelection merges, in order, the environment (read with lookup, or os.LookupEnv if nil),
// the selection file at configPath, the expression expr and the comma separated skip labels.
func ResolveSelection(expr, skip, configPath string, lookup selection.LookupEnvFunc) (selection.Selection, error) {
	s, err := selection.FromEnv(lookup)
	if err != nil {
		return s, err
	}
	if configPath != "" {
		fromFile, err := selection.LoadFile(configPath)
		if err != nil {
			return s, fmt.Errorf("selection config: %w", err)
		}
		s = selection.Merge(s, fromFile)
	}
	s = selection.Merge(s, selection.ParseExpr(expr))
	s = selection.Merge(s, selection.Selection{Exclude: selection.ParseList(skip)})
	return s, nil
}
