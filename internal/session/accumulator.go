package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/prepnest/satdiag-backend/internal/model"
)

// Accumulator is the append-only ledger of per-question results for one
// attempt. Entries keep strict submission order and are never mutated
// after append. Duplicates are tolerated: answering the same question
// twice yields two entries.
type Accumulator struct {
	mu      sync.Mutex
	results []model.QuestionResult
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Append adds one result to the end of the ledger.
func (a *Accumulator) Append(r model.QuestionResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results = append(a.results, r)
}

// Drain returns the full ordered sequence and resets the ledger. The
// caller owns the returned slice and must Restore it if persistence
// fails, otherwise the results are lost.
func (a *Accumulator) Drain() []model.QuestionResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.results
	a.results = nil
	return out
}

// Restore puts a drained batch back at the front of the ledger, ahead of
// anything appended since the drain.
func (a *Accumulator) Restore(batch []model.QuestionResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results = append(batch, a.results...)
}

// Contains reports whether any held result answers the given question.
func (a *Accumulator) Contains(questionID uuid.UUID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, r := range a.results {
		if r.QuestionID == questionID {
			return true
		}
	}
	return false
}

// Len returns the number of results currently held.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.results)
}
