package label

import (
	"fmt"
	"strings"
	"sync"
)

// Label is a named marker attached to a test.
// Use New to obtain the canonical form of arbitrary input.
type Label string

const (
	// Slow marks tests that take long enough to be worth excluding from quick runs.
	Slow Label = "slow"

	Flaky       Label = "flaky"
	Integration Label = "integration"
	Timeout     Label = "timeout"
)

// New returns the canonical form of s: surrounding whitespace removed and lower-cased.
// The result may be empty, and an empty label never matches anything.
func New(s string) Label {
	return Label(strings.ToLower(strings.TrimSpace(s)))
}

func (l Label) String() string {
	return string(l)
}

// Valid reports whether l is non-empty and already in canonical form.
func (l Label) Valid() bool {
	return l != "" && New(string(l)) == l
}

var (
	knownMu     sync.RWMutex
	knownLabels = map[Label]struct{}{
		Slow:        {},
		Flaky:       {},
		Integration: {},
		Timeout:     {},
	}
)

// IsKnown reports whether l is built in or was added through Register.
// Unknown labels are still usable; they are only flagged in logs.
func (l Label) IsKnown() bool {
	knownMu.RLock()
	defer knownMu.RUnlock()
	_, exists := knownLabels[l]
	return exists
}

// Register is available for external packages that define their own labels.
// It is typically called inside init functions.
func Register(l Label) {
	if !l.Valid() {
		panic(fmt.Errorf("label %q is not in canonical form", l))
	}

	knownMu.Lock()
	defer knownMu.Unlock()
	if _, exists := knownLabels[l]; exists {
		panic(fmt.Errorf("label %q already exists and must not be double registered", l))
	}

	knownLabels[l] = struct{}{}
}
