// Package mocktesting provides a fake test for exercising code that marks,
// skips and reports tests, without stopping the real test that drives it.
package mocktesting

import (
	"fmt"
	"runtime"
	"sync"
)

// T records the calls made on it by labeltest and testreporter.
// Skip, Fatalf and FailNow stop the test body, so they must be called from within Run.
type T struct {
	name string

	mu       sync.Mutex
	running  bool
	failed   bool
	cleanups []func()

	Helped bool
	Paused bool

	Errors []string
	Skips  []string
}

// New returns a T reporting name from its Name method.
func New(name string) *T {
	return &T{name: name}
}

func (t *T) Name() string { return t.name }

func (t *T) Helper() { t.Helped = true }

// Parallel records the call and returns immediately.
func (t *T) Parallel() { t.Paused = true }

func (t *T) Cleanup(f func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cleanups = append(t.cleanups, f)
}

func (t *T) Failed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failed
}

func (t *T) Skipped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Skips) > 0
}

// Errorf records a failure and lets the test body continue.
func (t *T) Errorf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Errors = append(t.Errors, fmt.Sprintf(format, args...))
	t.failed = true
}

func (t *T) Fatalf(format string, args ...any) {
	t.Errorf(format, args...)
	t.FailNow()
}

func (t *T) FailNow() {
	t.mu.Lock()
	t.failed = true
	t.mu.Unlock()
	t.stop()
}

func (t *T) Skip(args ...any) {
	t.skip(fmt.Sprint(args...))
}

func (t *T) Skipf(format string, args ...any) {
	t.skip(fmt.Sprintf(format, args...))
}

func (t *T) skip(msg string) {
	t.mu.Lock()
	t.Skips = append(t.Skips, msg)
	t.mu.Unlock()
	t.stop()
}

func (t *T) stop() {
	t.mu.Lock()
	running := t.running
	t.mu.Unlock()
	if !running {
		panic(fmt.Sprintf("mocktesting: %s stopped outside of Run", t.name))
	}
	runtime.Goexit()
}

// Run calls fn on its own goroutine, as the testing package runs a test body,
// then runs the registered cleanups in reverse order.
// It reports whether fn returned rather than stopping through Skip or FailNow.
func (t *T) Run(fn func(t *T)) (completed bool) {
	t.mu.Lock()
	t.running = true
	t.mu.Unlock()

	done := make(chan bool)
	go func() {
		returned := false
		defer func() {
			t.mu.Lock()
			t.running = false
			cleanups := t.cleanups
			t.cleanups = nil
			t.mu.Unlock()

			for i := len(cleanups) - 1; i >= 0; i-- {
				cleanups[i]()
			}
			done <- returned
		}()

		fn(t)
		returned = true
	}()
	return <-done
}
