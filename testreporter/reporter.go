package testreporter

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/strangelove-ventures/labeltest/label"
	"github.com/strangelove-ventures/labeltest/selection"
)

// T is the subset of testing.TB the reporter uses.
type T interface {
	Name() string
	Cleanup(func())
	Parallel()

	Skip(...any)

	Failed() bool
	Skipped() bool
}

// Reporter writes a JSON line per message to its writer.
// All of its methods are safe to call from parallel tests.
type Reporter struct {
	w io.WriteCloser

	msgs chan Message
	done chan error
}

// NewReporter starts a report on w, beginning with a BeginSuiteMessage.
// Close must be called to flush the report and close w.
func NewReporter(w io.WriteCloser) *Reporter {
	r := &Reporter{
		w:    w,
		msgs: make(chan Message, 256),
		done: make(chan error, 1),
	}
	go r.run()
	r.send(BeginSuiteMessage{StartedAt: time.Now()})
	return r
}

// NewNopReporter returns a Reporter that discards every message.
func NewNopReporter() *Reporter {
	return NewReporter(discard{})
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
func (discard) Close() error                { return nil }

// run is the only writer to r.w, so tests never contend on a lock to report.
func (r *Reporter) run() {
	enc := json.NewEncoder(r.w)
	enc.SetEscapeHTML(false)
	for m := range r.msgs {
		if err := enc.Encode(JSONMessage(m)); err != nil {
			panic(fmt.Errorf("encode %s message; tests cannot continue: %w", m.typ(), err))
		}
	}
	r.done <- r.w.Close()
}

func (r *Reporter) send(m Message) {
	r.msgs <- m
}

// Close ends the suite and blocks until every message is written and the writer is closed.
func (r *Reporter) Close() error {
	r.send(FinishSuiteMessage{FinishedAt: time.Now()})
	close(r.msgs)
	return <-r.done
}

// TrackSelection records the selection the run was started with.
func (r *Reporter) TrackSelection(s selection.Selection) {
	r.send(SelectionMessage{
		When:    time.Now(),
		Include: s.Include.Labels(),
		Exclude: s.Exclude.Labels(),
	})
}

// TrackTest records that t began with labels, and registers a cleanup
// recording when it finished and how.
func (r *Reporter) TrackTest(t T, pkg string, labels ...label.Label) {
	name := t.Name()
	r.send(BeginTestMessage{
		Package:   pkg,
		Name:      name,
		StartedAt: time.Now(),
		Labels:    label.NewSet(labels...).Labels(),
	})
	t.Cleanup(func() {
		r.send(FinishTestMessage{
			Name:       name,
			FinishedAt: time.Now(),
			Failed:     t.Failed(),
			Skipped:    t.Skipped(),
		})
	})
}

// TrackLabels records the full label set of a test already passed to TrackTest.
func (r *Reporter) TrackLabels(t T, pkg string, labels label.Set) {
	r.send(TestLabelsMessage{
		Package: pkg,
		Name:    t.Name(),
		When:    time.Now(),
		Labels:  labels.Labels(),
	})
}

// TrackParallel calls t.Parallel, recording how long t waited to resume.
func (r *Reporter) TrackParallel(t T) {
	name := t.Name()
	r.send(PauseTestMessage{Name: name, When: time.Now()})
	t.Parallel()
	r.send(ContinueTestMessage{Name: name, When: time.Now()})
}

// TrackSkip records why t is skipped and then skips it.
func (r *Reporter) TrackSkip(t T, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.send(TestSkipMessage{Name: t.Name(), When: time.Now(), Message: msg})
	t.Skip(msg)
}

// TestifyT is the subset of testing.TB used by testify's require and assert packages.
type TestifyT interface {
	Name() string
	Errorf(format string, args ...any)
	FailNow()
}

// TestifyT wraps t so that failed assertions are recorded as TestErrorMessages:
//
//	req := require.New(reporter.TestifyT(t))
func (r *Reporter) TestifyT(t TestifyT) *TestifyReporter {
	return &TestifyReporter{r: r, t: t}
}

// TestifyReporter satisfies require.TestingT.
type TestifyReporter struct {
	r *Reporter
	t TestifyT
}

func (tr *TestifyReporter) Errorf(format string, args ...any) {
	tr.r.send(TestErrorMessage{
		Name:    tr.t.Name(),
		When:    time.Now(),
		Message: fmt.Sprintf(format, args...),
	})
	tr.t.Errorf(format, args...)
}

// FailNow stops the test. The failure itself is reported when the test finishes.
func (tr *TestifyReporter) FailNow() {
	tr.t.FailNow()
}
