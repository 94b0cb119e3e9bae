package session

import (
	"strconv"
	"sync"
	"time"
)

// TimerMode selects between a fixed-duration countdown and a per-question
// stopwatch.
type TimerMode int

const (
	Countdown TimerMode = iota
	Stopwatch
)

// Timer is the session clock. Value and running flag are persisted to the
// attempt KV namespace so a reload mid-countdown does not reset the
// clock. A countdown also persists its wall-clock mark: ticks reconcile
// against time.Now instead of blindly decrementing, so time suspended in
// a backgrounded tab is not silently forgiven.
//
// When the running flag is false the value is frozen; Tick is a no-op.
type Timer struct {
	mu       sync.Mutex
	kv       KV
	mode     TimerMode
	now      func() time.Time
	value    int
	running  bool
	mark     time.Time // countdown: deadline; stopwatch: start instant
	onExpire func()
	fired    bool
}

// NewTimer creates a timer over the attempt's KV namespace, hydrating any
// persisted value and running flag. onExpire fires exactly once when a
// countdown reaches zero; it may be nil.
func NewTimer(kv KV, mode TimerMode, onExpire func()) *Timer {
	t := &Timer{kv: kv, mode: mode, now: time.Now, onExpire: onExpire}
	t.hydrate()
	return t
}

// hydrate restores persisted state. A running countdown recomputes its
// value from the persisted deadline so elapsed reload time is counted.
func (t *Timer) hydrate() {
	if raw, ok := t.kv.Get(keyTimerValue); ok {
		if v, err := strconv.Atoi(raw); err == nil {
			t.value = v
		}
	}
	if raw, ok := t.kv.Get(keyTimerRunning); ok {
		t.running = raw == "true"
	}
	if raw, ok := t.kv.Get(keyTimerMark); ok {
		if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
			t.mark = time.Unix(unix, 0)
		}
	}
	if t.running && t.mode == Countdown && !t.mark.IsZero() {
		t.value = remainingSeconds(t.mark, t.now())
	}
}

// Start sets the running flag and arms the wall-clock mark.
func (t *Timer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.running = true
	t.fired = false
	switch t.mode {
	case Countdown:
		t.mark = t.now().Add(time.Duration(t.value) * time.Second)
	case Stopwatch:
		t.mark = t.now().Add(-time.Duration(t.value) * time.Second)
	}
	t.persist()
}

// Stop clears the running flag; the frozen value survives reloads.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.running = false
	t.persist()
}

// Reset sets the value directly, independent of the running state. Used
// to re-arm a countdown or to zero the per-question stopwatch when the
// displayed question changes.
func (t *Timer) Reset(value int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.value = value
	t.fired = false
	switch t.mode {
	case Countdown:
		t.mark = t.now().Add(time.Duration(value) * time.Second)
	case Stopwatch:
		t.mark = t.now().Add(-time.Duration(value) * time.Second)
	}
	t.persist()
}

// Tick advances the clock. Scheduled once per second while running; a
// stopped timer ignores ticks. A countdown reaching zero fires onExpire
// exactly once and stops itself.
func (t *Timer) Tick() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}

	var expire func()
	switch t.mode {
	case Countdown:
		t.value = remainingSeconds(t.mark, t.now())
		if t.value <= 0 && !t.fired {
			t.value = 0
			t.fired = true
			t.running = false
			expire = t.onExpire
		}
	case Stopwatch:
		t.value = int(t.now().Sub(t.mark) / time.Second)
	}
	t.persist()
	t.mu.Unlock()

	// Callback runs outside the lock so it may touch the timer.
	if expire != nil {
		expire()
	}
}

// Value returns the current seconds remaining (countdown) or elapsed
// (stopwatch).
func (t *Timer) Value() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value
}

// Running reports whether the clock is live.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// ClearPersisted removes the timer's durable entries. Called alongside
// Progress.Clear at finalize time.
func (t *Timer) ClearPersisted() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.kv.Remove(keyTimerValue)
	t.kv.Remove(keyTimerRunning)
	t.kv.Remove(keyTimerMark)
}

// persist writes the full timer state. Callers must hold t.mu.
func (t *Timer) persist() {
	t.kv.Set(keyTimerValue, strconv.Itoa(t.value))
	t.kv.Set(keyTimerRunning, strconv.FormatBool(t.running))
	t.kv.Set(keyTimerMark, strconv.FormatInt(t.mark.Unix(), 10))
}

func remainingSeconds(deadline, now time.Time) int {
	rem := int(deadline.Sub(now) / time.Second)
	if rem < 0 {
		return 0
	}
	return rem
}
