// Package common provides small shared utilities used across the
// extraction pipeline.
package common

import "time"

// Timer measures the wall-clock duration of a processing run.
type Timer struct {
	start    time.Time
	duration time.Duration
}

// NewTimer starts a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop records the elapsed time and returns it.
func (t *Timer) Stop() time.Duration {
	t.duration = time.Since(t.start)
	return t.duration
}

// Duration returns the elapsed time recorded by Stop.
func (t *Timer) Duration() time.Duration {
	return t.duration
}
