package model

import (
	"time"

	"github.com/google/uuid"
)

// Tutor is a dashboard user with credentials.
type Tutor struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TutorLoginRequest is the payload for tutor authentication.
type TutorLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// TutorLoginResponse is returned after successful tutor login.
type TutorLoginResponse struct {
	Token string `json:"token"`
	Tutor Tutor  `json:"tutor"`
}
