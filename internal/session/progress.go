package session

import (
	"strconv"
	"sync"

	"github.com/prepnest/satdiag-backend/internal/model"
)

// Progress is the single source of truth for which exam is active in an
// attempt. The in-memory mirror is lazily hydrated from the KV store, so
// a store rebuilt after a reload picks up where the attempt left off.
// At most one exam is active at a time; setting a new one replaces the
// old unconditionally.
type Progress struct {
	mu       sync.Mutex
	kv       KV
	examID   string
	cursor   int
	hydrated bool
}

// NewProgress creates a progress store over the attempt's KV namespace.
func NewProgress(kv KV) *Progress {
	return &Progress{kv: kv, cursor: -1}
}

// SetActiveExam records the exam as in progress and resets the cursor to
// the start of its question sequence. The caller guarantees a loaded Exam.
func (p *Progress) SetActiveExam(exam *model.Exam) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.hydrated = true
	p.examID = exam.ID.String()
	p.cursor = -1
	p.kv.Set(keyExamID, p.examID)
	p.kv.Set(keyCursor, "-1")
}

// ActiveExamID returns the active exam id, or "" when none is active.
func (p *Progress) ActiveExamID() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.hydrate()
	return p.examID
}

// Cursor returns the persisted question index, -1 before the first
// question is shown.
func (p *Progress) Cursor() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.hydrate()
	return p.cursor
}

// SetCursor persists the current question index. Values outside the
// exam's sequence are the caller's bug; the store does not validate.
func (p *Progress) SetCursor(i int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.hydrate()
	p.cursor = i
	p.kv.Set(keyCursor, strconv.Itoa(i))
}

// Clear removes the durable entries and empties the mirror. Idempotent.
func (p *Progress) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.hydrated = true
	p.examID = ""
	p.cursor = -1
	p.kv.Remove(keyExamID)
	p.kv.Remove(keyCursor)
}

// hydrate loads the mirror from durable storage once per store lifetime.
// Callers must hold p.mu.
func (p *Progress) hydrate() {
	if p.hydrated {
		return
	}
	p.hydrated = true
	if id, ok := p.kv.Get(keyExamID); ok {
		p.examID = id
	}
	if raw, ok := p.kv.Get(keyCursor); ok {
		if i, err := strconv.Atoi(raw); err == nil {
			p.cursor = i
		}
	}
}
