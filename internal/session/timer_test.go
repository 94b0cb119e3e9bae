package session

import (
	"testing"
	"time"
)

// fakeClock drives a timer deterministically: each Advance moves the
// injected now() forward without sleeping.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newCountdown(kv KV, clock *fakeClock, seconds int, onExpire func()) *Timer {
	tm := NewTimer(kv, Countdown, onExpire)
	tm.now = clock.Now
	tm.Reset(seconds)
	return tm
}

func TestCountdownTicksToZero(t *testing.T) {
	clock := newFakeClock()
	fired := 0
	tm := newCountdown(NewMemKV(), clock, 5, func() { fired++ })
	tm.Start()

	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		tm.Tick()
	}

	if got := tm.Value(); got != 0 {
		t.Errorf("value after 5 ticks = %d, want 0", got)
	}
	if fired != 1 {
		t.Errorf("expiry fired %d times, want exactly 1", fired)
	}
	if tm.Running() {
		t.Error("timer still running after expiry")
	}

	// Extra ticks after expiry change nothing and never re-fire.
	clock.Advance(time.Second)
	tm.Tick()
	if fired != 1 || tm.Value() != 0 {
		t.Errorf("post-expiry tick: fired=%d value=%d", fired, tm.Value())
	}
}

func TestStopFreezesValue(t *testing.T) {
	clock := newFakeClock()
	tm := newCountdown(NewMemKV(), clock, 60, nil)
	tm.Start()

	clock.Advance(10 * time.Second)
	tm.Tick()
	tm.Stop()

	clock.Advance(30 * time.Second)
	tm.Tick()

	if got := tm.Value(); got != 50 {
		t.Errorf("value after stop = %d, want frozen 50", got)
	}
}

func TestResetWhileStopped(t *testing.T) {
	clock := newFakeClock()
	tm := newCountdown(NewMemKV(), clock, 60, nil)
	tm.Start()
	clock.Advance(20 * time.Second)
	tm.Tick()
	tm.Stop()

	tm.Reset(60)
	if got := tm.Value(); got != 60 {
		t.Errorf("value after reset = %d, want 60", got)
	}
	if tm.Running() {
		t.Error("reset must not start a stopped timer")
	}
}

func TestCountdownReconcilesLostWallClock(t *testing.T) {
	clock := newFakeClock()
	tm := newCountdown(NewMemKV(), clock, 100, nil)
	tm.Start()

	// One tick arrives 25s late, as if the process was suspended.
	clock.Advance(25 * time.Second)
	tm.Tick()

	if got := tm.Value(); got != 75 {
		t.Errorf("value after suspended tick = %d, want 75", got)
	}
}

func TestCountdownHydratesAcrossRestart(t *testing.T) {
	clock := newFakeClock()
	kv := NewMemKV()
	tm := newCountdown(kv, clock, 300, nil)
	tm.Start()
	clock.Advance(40 * time.Second)
	tm.Tick()

	// Rebuild over the same namespace 30s later: the deadline, not the
	// last persisted value, decides what remains.
	clock.Advance(30 * time.Second)
	rebuilt := NewTimer(kv, Countdown, nil)
	rebuilt.now = clock.Now
	rebuilt.hydrate()

	if got := rebuilt.Value(); got != 230 {
		t.Errorf("rehydrated value = %d, want 230", got)
	}
	if !rebuilt.Running() {
		t.Error("rehydrated timer not running")
	}
}

func TestStoppedTimerHydratesFrozen(t *testing.T) {
	clock := newFakeClock()
	kv := NewMemKV()
	tm := newCountdown(kv, clock, 120, nil)
	tm.Start()
	clock.Advance(20 * time.Second)
	tm.Tick()
	tm.Stop()

	clock.Advance(time.Hour)
	rebuilt := NewTimer(kv, Countdown, nil)
	rebuilt.now = clock.Now

	if got := rebuilt.Value(); got != 100 {
		t.Errorf("rehydrated frozen value = %d, want 100", got)
	}
	if rebuilt.Running() {
		t.Error("stopped timer came back running")
	}
}

func TestStopwatchMeasuresElapsed(t *testing.T) {
	clock := newFakeClock()
	tm := NewTimer(NewMemKV(), Stopwatch, nil)
	tm.now = clock.Now
	tm.Reset(0)
	tm.Start()

	clock.Advance(37 * time.Second)
	tm.Tick()

	if got := tm.Value(); got != 37 {
		t.Errorf("stopwatch value = %d, want 37", got)
	}
}

func TestClearPersistedRemovesState(t *testing.T) {
	clock := newFakeClock()
	kv := NewMemKV()
	tm := newCountdown(kv, clock, 60, nil)
	tm.Start()
	tm.ClearPersisted()

	rebuilt := NewTimer(kv, Countdown, nil)
	rebuilt.now = clock.Now
	if rebuilt.Value() != 0 || rebuilt.Running() {
		t.Errorf("state survived clear: value=%d running=%v", rebuilt.Value(), rebuilt.Running())
	}
}
