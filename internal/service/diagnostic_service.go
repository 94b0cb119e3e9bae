package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/prepnest/satdiag-backend/internal/logger"
	"github.com/prepnest/satdiag-backend/internal/model"
	"github.com/prepnest/satdiag-backend/internal/repository"
	"github.com/prepnest/satdiag-backend/internal/session"
	"github.com/rs/zerolog"
)

// DiagnosticService manages the per-user diagnostic record that ties the
// two module results together.
type DiagnosticService struct {
	diagRepo *repository.DiagnosticRepository
	log      zerolog.Logger
}

// NewDiagnosticService creates a new DiagnosticService.
func NewDiagnosticService(diagRepo *repository.DiagnosticRepository, log zerolog.Logger) *DiagnosticService {
	return &DiagnosticService{
		diagRepo: diagRepo,
		log:      logger.Component(log, "diagnostic_service"),
	}
}

// CreateForUser inserts the empty diagnostic at anonymous sign-in.
func (s *DiagnosticService) CreateForUser(ctx context.Context, userID uuid.UUID) (*model.Diagnostic, error) {
	return s.diagRepo.Create(ctx, userID)
}

// GetByUser retrieves a user's diagnostic.
func (s *DiagnosticService) GetByUser(ctx context.Context, userID uuid.UUID) (*model.Diagnostic, error) {
	return s.diagRepo.GetByUser(ctx, userID)
}

// RecordResult points the diagnostic at a finished module result. The
// exam type picks the pointer; re-taking a module overwrites it.
func (s *DiagnosticService) RecordResult(ctx context.Context, userID uuid.UUID, examType model.ExamType, resultID uuid.UUID) error {
	if examType.IsMath() {
		return s.diagRepo.SetMathResult(ctx, userID, resultID)
	}
	return s.diagRepo.SetVerbalResult(ctx, userID, resultID)
}

// Complete reports whether both module results exist for the user.
func (s *DiagnosticService) Complete(ctx context.Context, userID uuid.UUID) (bool, error) {
	d, err := s.diagRepo.GetByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return d.IsComplete(), nil
}

// AttachProfile links a created profile to the user's diagnostic.
func (s *DiagnosticService) AttachProfile(ctx context.Context, userID, profileID uuid.UUID) error {
	return s.diagRepo.SetProfile(ctx, userID, profileID)
}

// ListComplete returns finished diagnostics for the tutor dashboard.
func (s *DiagnosticService) ListComplete(ctx context.Context, limit, offset int) ([]model.Diagnostic, int, error) {
	return s.diagRepo.ListComplete(ctx, limit, offset)
}

// ForUser scopes the service to one user for use as a session collaborator.
func (s *DiagnosticService) ForUser(userID uuid.UUID) session.DiagnosticLog {
	return &userDiagnosticLog{svc: s, userID: userID}
}

type userDiagnosticLog struct {
	svc    *DiagnosticService
	userID uuid.UUID
}

func (l *userDiagnosticLog) RecordResult(ctx context.Context, examType model.ExamType, resultID uuid.UUID) error {
	return l.svc.RecordResult(ctx, l.userID, examType, resultID)
}

func (l *userDiagnosticLog) Complete(ctx context.Context) (bool, error) {
	return l.svc.Complete(ctx, l.userID)
}
