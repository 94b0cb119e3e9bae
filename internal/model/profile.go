package model

import (
	"time"

	"github.com/google/uuid"
)

// SatMetadata is the student-entered goal data captured before the test.
type SatMetadata struct {
	ExamDate     time.Time `json:"exam_date"`
	DesiredScore int       `json:"desired_score"`
	Motivation   string    `json:"motivation,omitempty"`
}

// UserProfile is a student's SAT profile record.
type UserProfile struct {
	ID          uuid.UUID   `json:"id"`
	UserID      uuid.UUID   `json:"user_id"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	Email       string      `json:"email"`
	SatMetadata SatMetadata `json:"sat_metadata"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// FullName returns the display name for the profile.
func (p *UserProfile) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// CreateProfileRequest is the payload for capturing a student profile.
type CreateProfileRequest struct {
	FirstName    string    `json:"first_name" binding:"required,min=1,max=100"`
	LastName     string    `json:"last_name" binding:"required,min=1,max=100"`
	Email        string    `json:"email" binding:"required,email"`
	ExamDate     time.Time `json:"exam_date" binding:"required,futuredate"`
	DesiredScore int       `json:"desired_score" binding:"required,min=400,max=1600"`
	Motivation   string    `json:"motivation" binding:"omitempty,max=2000"`
}
