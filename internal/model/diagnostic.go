package model

import (
	"time"

	"github.com/google/uuid"
)

// Diagnostic ties a user to their completed verbal and math exam results.
// Both pointers set means the full diagnostic is complete and results can
// be generated.
type Diagnostic struct {
	ID                 uuid.UUID  `json:"id"`
	UserID             uuid.UUID  `json:"user_id"`
	UserProfileID      *uuid.UUID `json:"user_profile_id,omitempty"`
	MathDiagnosticID   *uuid.UUID `json:"math_diagnostic_id,omitempty"`
	VerbalDiagnosticID *uuid.UUID `json:"verbal_diagnostic_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// IsComplete reports whether both modules have a persisted result.
func (d *Diagnostic) IsComplete() bool {
	return d.MathDiagnosticID != nil && d.VerbalDiagnosticID != nil
}
