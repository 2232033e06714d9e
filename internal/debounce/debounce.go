// Package debounce collapses bursts of calls into one trailing call.
package debounce

import (
	"sync"
	"time"
)

// Debouncer holds at most one pending call. Each Trigger with the same key
// replaces the pending call and restarts the delay; a Trigger with a
// different key first runs the pending call.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	key     string
	pending func()
	gen     uint64
}

func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn to run after the delay unless it is replaced first.
func (d *Debouncer) Trigger(key string, fn func()) {
	d.mu.Lock()
	var flushed func()
	if d.pending != nil && d.key != key {
		flushed = d.takeLocked()
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.key = key
	d.pending = fn
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
	d.mu.Unlock()

	if flushed != nil {
		flushed()
	}
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.takeLocked()
	d.mu.Unlock()

	fn()
}

// takeLocked clears the pending call and returns it.
func (d *Debouncer) takeLocked() func() {
	fn := d.pending
	d.pending = nil
	d.key = ""
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	return fn
}

// Flush runs the pending call now, if any.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.takeLocked()
	d.mu.Unlock()

	fn()
}

// Stop drops the pending call without running it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.takeLocked()
	}
}

// Pending reports whether a call is waiting.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}
