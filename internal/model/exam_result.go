package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionResult is one per-question outcome collected during a session.
// A nil UserAnswer with zero TimeTaken denotes a skipped question.
type QuestionResult struct {
	QuestionID uuid.UUID `json:"question_id"`
	UserAnswer *string   `json:"user_answer"`
	TimeTaken  int       `json:"time_taken"`
	IsCorrect  bool      `json:"is_correct"`
}

// Skipped builds the result recorded when a student explicitly skips.
func Skipped(questionID uuid.UUID) QuestionResult {
	return QuestionResult{QuestionID: questionID, UserAnswer: nil, TimeTaken: 0, IsCorrect: false}
}

// ExamResult is the persisted record of one completed exam attempt.
// SingleResult preserves submission order exactly. Immutable after create.
type ExamResult struct {
	ID           uuid.UUID        `json:"id"`
	UserID       uuid.UUID        `json:"user_id"`
	ExamID       uuid.UUID        `json:"exam_id"`
	SingleResult []QuestionResult `json:"single_result"`
	ResultLink   *string          `json:"result_link,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Score returns the number of correct answers in the result.
func (r *ExamResult) Score() int {
	n := 0
	for _, qr := range r.SingleResult {
		if qr.IsCorrect {
			n++
		}
	}
	return n
}
