package selection

import (
	"fmt"
	"strings"

	"github.com/strangelove-ventures/labeltest/label"
)

// Selection is the set of labels a run includes and excludes.
// The zero value selects every test.
type Selection struct {
	Include label.Set
	Exclude label.Set
}

// New returns a Selection from the given include and exclude labels.
func New(include, exclude []label.Label) Selection {
	return Selection{
		Include: label.NewSet(include...),
		Exclude: label.NewSet(exclude...),
	}
}

// All is the selection that runs every test.
func All() Selection {
	return Selection{}
}

// Allows reports whether a test carrying labels should run under s.
func (s Selection) Allows(labels label.Set) bool {
	return s.Decide(labels).Run
}

// ShouldRun reports whether the unit with the given labels should run under s.
// Only the labels take part in the decision.
func ShouldRun(unit string, labels label.Set, s Selection) bool {
	return s.Allows(labels)
}

// Decision is the outcome of evaluating a Selection against a label set.
type Decision struct {
	Run bool

	// Label is the label that caused the decision, if any.
	Label label.Label

	Reason string
}

// Decide evaluates s against labels and explains the result.
func (s Selection) Decide(labels label.Set) Decision {
	if l, ok := labels.FirstCommon(s.Exclude); ok {
		return Decision{Label: l, Reason: fmt.Sprintf("label %q is excluded", l)}
	}
	if s.Include.Empty() {
		return Decision{Run: true, Reason: "no labels are required"}
	}
	if l, ok := labels.FirstCommon(s.Include); ok {
		return Decision{Run: true, Label: l, Reason: fmt.Sprintf("label %q is included", l)}
	}
	return Decision{Reason: fmt.Sprintf("none of the labels %s are in %s", labels, s.Include)}
}

// Merge returns a Selection whose include and exclude sets
// are the unions of the corresponding sets of a and b.
func Merge(a, b Selection) Selection {
	return Selection{
		Include: a.Include.Union(b.Include),
		Exclude: a.Exclude.Union(b.Exclude),
	}
}

// IsZero reports whether s selects every test without restriction.
func (s Selection) IsZero() bool {
	return s.Include.Empty() && s.Exclude.Empty()
}

// String renders s in the expression syntax accepted by ParseExpr.
func (s Selection) String() string {
	parts := make([]string, 0, s.Include.Len()+s.Exclude.Len())
	for _, l := range s.Include.Labels() {
		parts = append(parts, string(l))
	}
	for _, l := range s.Exclude.Labels() {
		parts = append(parts, "!"+string(l))
	}
	return strings.Join(parts, ",")
}
