package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/prepnest/satdiag-backend/internal/session"
)

func newIdleAttempt(userID uuid.UUID) *Attempt {
	return &Attempt{
		ID:            uuid.New(),
		UserID:        userID,
		nav:           &routeRecorder{},
		stopTick:      make(chan struct{}),
		ModuleTimer:   session.NewTimer(session.NewMemKV(), session.Countdown, nil),
		QuestionTimer: session.NewTimer(session.NewMemKV(), session.Stopwatch, nil),
	}
}

func tickStopped(a *Attempt) bool {
	select {
	case <-a.stopTick:
		return true
	default:
		return false
	}
}

func TestAttemptKeptBetweenModules(t *testing.T) {
	userID := uuid.New()
	a := newIdleAttempt(userID)
	a.nav.Go(session.RouteModuleSelect)

	s := &AttemptService{attempts: map[uuid.UUID]*Attempt{userID: a}}
	a.mu.Lock()
	s.afterFinalizeLocked(context.Background(), a)
	a.mu.Unlock()

	if tickStopped(a) {
		t.Error("clock released after the first module; the second still needs it")
	}
	if _, ok := s.attempts[userID]; !ok {
		t.Error("attempt evicted with a module still to take")
	}
	if a.ModuleTimer.Running() {
		t.Error("module clock still running after finalize")
	}
}

func TestAttemptReleasedWhenDiagnosticDone(t *testing.T) {
	userID := uuid.New()
	a := newIdleAttempt(userID)
	a.nav.Go(session.RouteGenerateResults)

	s := &AttemptService{attempts: map[uuid.UUID]*Attempt{userID: a}}
	a.mu.Lock()
	s.afterFinalizeLocked(context.Background(), a)
	a.mu.Unlock()

	if !tickStopped(a) {
		t.Error("clock goroutine not released after the last module")
	}
	if _, ok := s.attempts[userID]; ok {
		t.Error("finished attempt still registered")
	}

	// A forced expiry can race a manual finalize; the second release
	// must be a no-op.
	a.mu.Lock()
	s.afterFinalizeLocked(context.Background(), a)
	a.mu.Unlock()
}
