package model

import (
	"time"

	"github.com/google/uuid"
)

// Appointment is a tutoring consultation booked after the diagnostic.
type Appointment struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// BookAppointmentRequest is the payload for booking a consultation.
type BookAppointmentRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
	Notes       string    `json:"notes" binding:"omitempty,max=1000"`
}
