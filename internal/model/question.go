package model

import (
	"time"

	"github.com/google/uuid"
)

// Section identifies which half of the SAT a question belongs to.
type Section string

const (
	SectionVerbal Section = "verbal"
	SectionMath   Section = "math"
)

// MathExpression is one entry of a question's math side-table. Display
// text references entries with {{token}} placeholders.
type MathExpression struct {
	Unicode string `json:"unicode"`
	LaTeX   string `json:"latex"`
}

// QuestionContent is the question JSON field.
type QuestionContent struct {
	Text        string `json:"text"`
	ImageURL    string `json:"image_url,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

// Choice is a single answer option. Value is the token compared against
// the correct answer ("A".."D"); Display may carry math placeholders.
type Choice struct {
	Value   string `json:"value"`
	Display string `json:"display"`
}

// SatQuestion is an immutable content unit.
type SatQuestion struct {
	ID              uuid.UUID                  `json:"id"`
	Section         Section                    `json:"section"`
	Subtopic        string                     `json:"subtopic"`
	Question        QuestionContent            `json:"question"`
	Choices         []Choice                   `json:"choices"`
	CorrectAnswer   string                     `json:"correct_answer"`
	DifficultyLevel int                        `json:"difficulty_level"`
	MathExpressions map[string]MathExpression  `json:"math_expressions,omitempty"`
	CreatedAt       time.Time                  `json:"created_at"`
	UpdatedAt       time.Time                  `json:"updated_at"`
}

// QuestionForStudent is a question with the correct answer withheld and
// math placeholders already resolved for display.
type QuestionForStudent struct {
	ID       uuid.UUID       `json:"id"`
	Section  Section         `json:"section"`
	Subtopic string          `json:"subtopic"`
	Question QuestionContent `json:"question"`
	Choices  []Choice        `json:"choices"`
}
