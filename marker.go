package labeltest

import (
	"fmt"
	"sync"

	"github.com/strangelove-ventures/labeltest/label"
	"github.com/strangelove-ventures/labeltest/selection"
	"github.com/strangelove-ventures/labeltest/testreporter"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// T is the subset of testing.TB that a Marker requires.
type T interface {
	testreporter.T

	Helper()
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)
	FailNow()
}

// Marker attaches labels to tests and skips the tests the selection rejects.
type Marker struct {
	registry *Registry
	log      *zap.Logger

	mu       sync.RWMutex
	reporter *testreporter.Reporter
	nop      *testreporter.Reporter
	pkg      string

	marksMu sync.Mutex
	marks   map[UnitID]*instance

	resolve   func() (selection.Selection, error)
	once      sync.Once
	selection selection.Selection
	err       error
}

// instance is one run of a test, so that repeated Mark calls within a run
// accumulate labels while a rerun under go test -count is checked against the first run.
type instance struct {
	t      T
	labels label.Set
	rerun  bool
}

// NewMarker returns a Marker that filters tests with s.
// The reporter and logger are optional.
func NewMarker(s selection.Selection, reporter *testreporter.Reporter, log *zap.Logger) *Marker {
	return NewMarkerFunc(func() (selection.Selection, error) { return s, nil }, reporter, log)
}

// NewMarkerFunc is like NewMarker, but calls resolve to obtain the selection
// the first time a test is marked.
func NewMarkerFunc(resolve func() (selection.Selection, error), reporter *testreporter.Reporter, log *zap.Logger) *Marker {
	if log == nil {
		log = zap.NewNop()
	}
	nop := testreporter.NewNopReporter()
	if reporter == nil {
		reporter = nop
	}
	return &Marker{
		registry: NewRegistry(),
		log:      log,
		reporter: reporter,
		nop:      nop,
		marks:    make(map[UnitID]*instance),
		resolve:  resolve,
	}
}

// Registry returns the registry that holds every unit marked so far.
func (m *Marker) Registry() *Registry {
	return m.registry
}

// Selection returns the selection m filters with.
// It is resolved once, on first use.
func (m *Marker) Selection() (selection.Selection, error) {
	m.once.Do(func() {
		m.selection, m.err = m.resolve()
		if m.err == nil {
			m.log.Debug("Resolved test selection", zap.Stringer("selection", m.selection))
		}
	})
	return m.selection, m.err
}

// SetReporter makes m report every marked test to r.
// Pass nil to stop reporting.
func (m *Marker) SetReporter(r *testreporter.Reporter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r == nil {
		r = m.nop
	}
	m.reporter = r
}

// SetPackage sets the package of every test marked from now on,
// in place of the package of the function calling Mark.
// Use it when tests are marked from a helper in another package.
func (m *Marker) SetPackage(pkg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pkg = pkg
}

func (m *Marker) current() (*testreporter.Reporter, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reporter, m.pkg
}

// Mark attaches labels to t and skips t if the selection rejects it.
// Labels set on a parent test also apply to its subtests,
// and labels from repeated calls on the same test accumulate.
// Each call decides on the labels attached so far,
// so pass every label to a single call when the selection includes labels.
// Mark should be the first statement of the test, before t.Parallel.
func (m *Marker) Mark(t T, labels ...label.Label) {
	t.Helper()
	m.mark(t, callerPackage(1), labels)
}

func (m *Marker) mark(t T, pkg string, labels []label.Label) {
	t.Helper()

	sel, err := m.Selection()
	if err != nil {
		t.Fatalf("labeltest: resolve selection: %v", err)
		return
	}

	reporter, override := m.current()
	if override != "" {
		pkg = override
	}
	id := UnitID{Package: pkg, Name: t.Name()}

	first, err := m.attach(t, id, labels)
	if err != nil {
		t.Fatalf("labeltest: %v", err)
		return
	}
	for _, l := range label.NewSet(labels...).Labels() {
		if !l.IsKnown() {
			m.log.Debug("Unknown label", zap.Stringer("test", id), zap.Stringer("label", l))
		}
	}

	effective := m.registry.EffectiveLabels(id)
	if first {
		reporter.TrackTest(t, id.Package, effective.Labels()...)
	} else {
		reporter.TrackLabels(t, id.Package, effective)
	}

	d := sel.Decide(effective)
	if d.Run {
		return
	}
	m.log.Debug("Skipping test", zap.Stringer("test", id), zap.String("reason", d.Reason))
	reporter.TrackSkip(t, "labeltest: skipping: %s", d.Reason)
}

// attach records labels for the current run of t.
// It reports whether this is the first Mark call of that run.
func (m *Marker) attach(t T, id UnitID, labels []label.Label) (first bool, err error) {
	if id.Name == "" {
		return false, ErrEmptyName
	}

	m.marksMu.Lock()
	defer m.marksMu.Unlock()

	inst, ok := m.marks[id]
	if !ok || inst.t != t {
		inst = &instance{t: t, rerun: ok}
		m.marks[id] = inst
		first = true
	}
	inst.labels = inst.labels.Union(label.NewSet(labels...))

	if !inst.rerun {
		_, err := m.registry.Attach(id, labels...)
		return first, err
	}
	prev, _ := m.registry.Lookup(id)
	if !inst.labels.SubsetOf(prev.Labels) {
		return first, fmt.Errorf("%w: %s has %s, got %s", ErrLabelsChanged, id, prev.Labels, inst.labels)
	}
	return first, nil
}

// Parallel calls t.Parallel, recording the wait in the report if one is written.
func (m *Marker) Parallel(t T) {
	t.Helper()
	reporter, _ := m.current()
	reporter.TrackParallel(t)
}

// Require returns assertions on t whose failures are recorded in the report.
func (m *Marker) Require(t T) *require.Assertions {
	reporter, _ := m.current()
	return require.New(reporter.TestifyT(t))
}

// DefaultMarker resolves its selection from the -labeltest.* flags
// and LABELTEST_* environment variables the first time a test is marked.
var DefaultMarker = NewMarkerFunc(SelectionFromFlags, nil, nil)

// Mark attaches labels to t using DefaultMarker.
func Mark(t T, labels ...label.Label) {
	t.Helper()
	DefaultMarker.mark(t, callerPackage(1), labels)
}

// Slow marks t as a slow test.
// Parallel tests call Parallel after marking,
// so a report shows how long they waited:
//
//	func TestLongRunningSync(t *testing.T) {
//	  labeltest.Slow(t)
//	  labeltest.Parallel(t)
//	  // ...
//	}
func Slow(t T) {
	t.Helper()
	DefaultMarker.mark(t, callerPackage(1), []label.Label{label.Slow})
}

// Flaky marks t as a test known to fail intermittently.
func Flaky(t T) {
	t.Helper()
	DefaultMarker.mark(t, callerPackage(1), []label.Label{label.Flaky})
}

// Integration marks t as an integration test.
func Integration(t T) {
	t.Helper()
	DefaultMarker.mark(t, callerPackage(1), []label.Label{label.Integration})
}

// Parallel calls t.Parallel through DefaultMarker.
func Parallel(t T) {
	t.Helper()
	DefaultMarker.Parallel(t)
}

// Require returns assertions on t through DefaultMarker.
//
//	req := labeltest.Require(t)
//	req.NoError(err)
func Require(t T) *require.Assertions {
	return DefaultMarker.Require(t)
}
