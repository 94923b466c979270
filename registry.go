package labeltest

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/strangelove-ventures/labeltest/label"
	"github.com/strangelove-ventures/labeltest/selection"
)

var (
	ErrEmptyName     = errors.New("test unit name must not be empty")
	ErrLabelsChanged = errors.New("test unit already registered with different labels")
)

// UnitID is the fully qualified name of a test:
// the import path of its package and the name reported by t.Name,
// such as TestFoo or TestFoo/sub_case.
type UnitID struct {
	// Package is empty when the package is unknown,
	// in which case the ID only matches other IDs without a package.
	Package string
	Name    string
}

// String returns the ID as package.TestName, or the bare name without a package.
func (id UnitID) String() string {
	if id.Package == "" {
		return id.Name
	}
	return id.Package + "." + id.Name
}

// Parent returns the ID of the test containing id.
// It returns false for a top-level test.
func (id UnitID) Parent() (UnitID, bool) {
	i := strings.LastIndexByte(id.Name, '/')
	if i < 0 {
		return UnitID{}, false
	}
	return UnitID{Package: id.Package, Name: id.Name[:i]}, true
}

// TopLevel returns the ID of the top-level test containing id, or id itself.
func (id UnitID) TopLevel() UnitID {
	top, _, _ := strings.Cut(id.Name, "/")
	return UnitID{Package: id.Package, Name: top}
}

func (id UnitID) less(other UnitID) bool {
	if id.Package != other.Package {
		return id.Package < other.Package
	}
	return id.Name < other.Name
}

// Unit is a runnable test and the labels attached to it.
type Unit struct {
	UnitID
	Labels label.Set
}

// Registry associates labels with test units.
// It is safe for concurrent use, so parallel tests may register themselves.
type Registry struct {
	mu    sync.RWMutex
	units map[UnitID]Unit
}

func NewRegistry() *Registry {
	return &Registry{units: make(map[UnitID]Unit)}
}

// Register attaches labels to the unit.
// Labels are fixed on first registration: registering the same unit again
// with the same labels is a no-op, as happens with go test -count,
// but registering it with different labels returns ErrLabelsChanged.
func (r *Registry) Register(id UnitID, labels ...label.Label) (Unit, error) {
	if id.Name == "" {
		return Unit{}, ErrEmptyName
	}
	u := Unit{UnitID: id, Labels: label.NewSet(labels...)}

	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.units[id]; ok {
		if !prev.Labels.Equal(u.Labels) {
			return prev, fmt.Errorf("%w: %s has %s, got %s", ErrLabelsChanged, id, prev.Labels, u.Labels)
		}
		return prev, nil
	}
	r.units[id] = u
	return u, nil
}

// Attach adds labels to the unit, registering it if needed.
// Unlike Register, labels accumulate across calls.
func (r *Registry) Attach(id UnitID, labels ...label.Label) (Unit, error) {
	if id.Name == "" {
		return Unit{}, ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.units[id]
	if !ok {
		u.UnitID = id
	}
	u.Labels = u.Labels.Union(label.NewSet(labels...))
	r.units[id] = u
	return u, nil
}

// Lookup returns the unit registered under id.
func (r *Registry) Lookup(id UnitID) (Unit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.units[id]
	return u, ok
}

// Units returns every registered unit ordered by package and name.
func (r *Registry) Units() []Unit {
	r.mu.RLock()
	out := make([]Unit, 0, len(r.units))
	for _, u := range r.units {
		out = append(out, u)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].less(out[j].UnitID) })
	return out
}

// EffectiveLabels returns the labels of the unit
// together with the labels of every registered ancestor in the same package.
// A label on TestFoo therefore applies to TestFoo/sub_case.
// Units that were never registered have no labels of their own.
func (r *Registry) EffectiveLabels(id UnitID) label.Set {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var labels label.Set
	for cur, ok := id, true; ok; cur, ok = cur.Parent() {
		if u, found := r.units[cur]; found {
			labels = labels.Union(u.Labels)
		}
	}
	return labels
}

// Decide evaluates s against the effective labels of the unit.
func (r *Registry) Decide(id UnitID, s selection.Selection) selection.Decision {
	return s.Decide(r.EffectiveLabels(id))
}

// ShouldRun reports whether the unit should run under s.
func (r *Registry) ShouldRun(id UnitID, s selection.Selection) bool {
	return selection.ShouldRun(id.String(), r.EffectiveLabels(id), s)
}

// Filter splits ids into the units that should run under s and those that should not,
// preserving the input order.
func (r *Registry) Filter(ids []UnitID, s selection.Selection) (run, skipped []UnitID) {
	for _, id := range ids {
		if r.ShouldRun(id, s) {
			run = append(run, id)
		} else {
			skipped = append(skipped, id)
		}
	}
	return run, skipped
}
