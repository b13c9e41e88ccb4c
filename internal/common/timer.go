// Package common provides timing and measurement helpers shared by the CLI
// and the server.
package common

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Timer measures one named span of work: an estimate, a warp, a benchmark
// loop. The zero value is not usable; call Start.
type Timer struct {
	name    string
	start   time.Time
	elapsed time.Duration
	stopped bool
	now     func() time.Time
}

// Start begins timing the named operation.
func Start(name string) *Timer {
	return startWithClock(name, time.Now)
}

func startWithClock(name string, now func() time.Time) *Timer {
	return &Timer{name: name, start: now(), now: now}
}

// Stop freezes the timer and returns the elapsed time. Later calls return
// the same value.
func (t *Timer) Stop() time.Duration {
	if !t.stopped {
		t.elapsed = t.now().Sub(t.start)
		t.stopped = true
	}
	return t.elapsed
}

// Elapsed returns the time since Start, or the frozen value after Stop.
func (t *Timer) Elapsed() time.Duration {
	if t.stopped {
		return t.elapsed
	}
	return t.now().Sub(t.start)
}

// Name returns the operation name.
func (t *Timer) Name() string { return t.name }

// ObserveTo stops the timer and records the elapsed seconds in o.
func (t *Timer) ObserveTo(o prometheus.Observer) time.Duration {
	d := t.Stop()
	o.Observe(d.Seconds())
	return d
}

func (t *Timer) String() string {
	return fmt.Sprintf("%s: %v", t.name, t.Elapsed())
}

// LogValue renders the timer as a group of name and milliseconds.
func (t *Timer) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("op", t.name),
		slog.Float64("ms", float64(t.Elapsed().Microseconds())/1000),
	)
}
