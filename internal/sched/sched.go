// Package sched provides cancellable delayed callbacks used for trail fading
// and toolbar auto-hide.
package sched

import (
	"sync"
	"time"
)

// Token identifies a scheduled callback.
type Token interface {
	// Cancel stops the callback if it has not fired yet.
	// Returns true if the call prevented the callback from running.
	Cancel() bool
}

// Scheduler runs callbacks after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Token
}

// Timer is a Scheduler backed by time.AfterFunc.
// Callbacks run on their own goroutine.
type Timer struct{}

// NewTimer creates a Timer scheduler.
func NewTimer() *Timer {
	return &Timer{}
}

// AfterFunc schedules fn to run after d.
func (Timer) AfterFunc(d time.Duration, fn func()) Token {
	return timerToken{t: time.AfterFunc(d, fn)}
}

type timerToken struct {
	t *time.Timer
}

func (tt timerToken) Cancel() bool {
	return tt.t.Stop()
}

// Manual is a Scheduler whose clock only moves when Advance is called.
// Callbacks run synchronously inside Advance, in deadline order.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	pending []*manualTask
}

type manualTask struct {
	owner    *Manual
	deadline time.Duration
	seq      int
	fn       func()
	done     bool
}

// NewManual creates a Manual scheduler at time zero.
func NewManual() *Manual {
	return &Manual{}
}

// AfterFunc registers fn to run once the clock has advanced by d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Token {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	task := &manualTask{owner: m, deadline: m.now + d, seq: m.seq, fn: fn}
	m.pending = append(m.pending, task)
	return task
}

// Cancel removes the task if it has not fired.
func (t *manualTask) Cancel() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	return true
}

// Advance moves the clock forward and fires every callback that became due.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDue(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		next.done = true
		m.now = next.deadline
		m.mu.Unlock()

		next.fn()
	}
}

// Pending returns the number of callbacks that have not fired or been cancelled.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, t := range m.pending {
		if !t.done {
			n++
		}
	}
	return n
}

// nextDue returns the earliest live task due at or before target. Caller holds mu.
func (m *Manual) nextDue(target time.Duration) *manualTask {
	var next *manualTask
	live := m.pending[:0]
	for _, t := range m.pending {
		if t.done {
			continue
		}
		live = append(live, t)
		if t.deadline > target {
			continue
		}
		if next == nil || t.deadline < next.deadline || (t.deadline == next.deadline && t.seq < next.seq) {
			next = t
		}
	}
	m.pending = live
	return next
}
