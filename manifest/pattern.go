package manifest

import (
	"regexp"
	"sort"
	"strings"

	"github.com/strangelove-ventures/labeltest"
)

// RunPattern returns a regular expression for go test -run
// matching the top-level tests of names.
// Subtests contribute their top-level test; the marker inside the test
// binary still skips individual subtests.
// An empty names yields a pattern matching nothing.
func RunPattern(names []string) string {
	seen := make(map[string]struct{}, len(names))
	var tops []string
	for _, name := range names {
		top, _, _ := strings.Cut(name, "/")
		if top == "" {
			continue
		}
		if _, ok := seen[top]; ok {
			continue
		}
		seen[top] = struct{}{}
		tops = append(tops, regexp.QuoteMeta(top))
	}
	if len(tops) == 0 {
		return "^$"
	}
	sort.Strings(tops)
	return "^(" + strings.Join(tops, "|") + ")$"
}

// PackagePattern is the go test -run pattern for one package.
type PackagePattern struct {
	Package string `json:"package"`
	Pattern string `json:"pattern"`
}

// RunPatterns returns a pattern per package, ordered by package,
// matching the tests in run.
// Packages that only appear in skipped get a pattern matching nothing.
func RunPatterns(run, skipped []labeltest.UnitID) []PackagePattern {
	names := make(map[string][]string)
	for _, id := range skipped {
		if _, ok := names[id.Package]; !ok {
			names[id.Package] = nil
		}
	}
	for _, id := range run {
		names[id.Package] = append(names[id.Package], id.Name)
	}

	out := make([]PackagePattern, 0, len(names))
	for pkg, ns := range names {
		out = append(out, PackagePattern{Package: pkg, Pattern: RunPattern(ns)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Package < out[j].Package })
	return out
}
