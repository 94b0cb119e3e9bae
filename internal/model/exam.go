package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamType enumerates the assessment modules.
type ExamType string

const (
	ExamTypeVerbal           ExamType = "verbal"
	ExamTypeMath             ExamType = "math"
	ExamTypeVerbalDiagnostic ExamType = "verbal_diagnostic"
	ExamTypeMathDiagnostic   ExamType = "math_diagnostic"
)

// IsMath reports whether the exam belongs to the math track.
func (t ExamType) IsMath() bool {
	return t == ExamTypeMath || t == ExamTypeMathDiagnostic
}

// ExamMetadata is the descriptive JSON blob attached to an exam.
// None of it is behaviorally relevant to the session core.
type ExamMetadata struct {
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	DurationMinutes int      `json:"duration_minutes,omitempty"`
	TotalPoints     int      `json:"total_points,omitempty"`
	DifficultyLevel int      `json:"difficulty_level,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Instructions    string   `json:"instructions,omitempty"`
	IsPublished     bool     `json:"is_published,omitempty"`
}

// Exam is an immutable assessment definition. Questions is the ordered
// presentation sequence; order is significant.
type Exam struct {
	ID        uuid.UUID    `json:"id"`
	Type      ExamType     `json:"type"`
	Questions []uuid.UUID  `json:"questions"`
	Metadata  ExamMetadata `json:"metadata"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// QuestionIndex returns the zero-based position of the question id in the
// exam's sequence, or -1 when it is not part of the exam.
func (e *Exam) QuestionIndex(questionID uuid.UUID) int {
	for i, id := range e.Questions {
		if id == questionID {
			return i
		}
	}
	return -1
}

// ExamPayload is the Redis-cached payload sent to students (no correct answers).
type ExamPayload struct {
	ExamID          uuid.UUID            `json:"exam_id"`
	Type            ExamType             `json:"type"`
	Title           string               `json:"title"`
	DurationMinutes int                  `json:"duration_minutes"`
	Questions       []uuid.UUID          `json:"questions"`
	Content         []QuestionForStudent `json:"content"`
}
