package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/prepnest/satdiag-backend/internal/logger"
	"github.com/prepnest/satdiag-backend/internal/model"
	"github.com/prepnest/satdiag-backend/internal/repository"
	"github.com/rs/zerolog"
)

// ProfileService handles the student intake form.
type ProfileService struct {
	profileRepo *repository.ProfileRepository
	diagService *DiagnosticService
	log         zerolog.Logger
}

// NewProfileService creates a new ProfileService.
func NewProfileService(profileRepo *repository.ProfileRepository, diagService *DiagnosticService, log zerolog.Logger) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		diagService: diagService,
		log:         logger.Component(log, "profile_service"),
	}
}

// Save upserts the intake form and links the profile to the user's
// diagnostic so the tutor dashboard can resolve student goals.
func (s *ProfileService) Save(ctx context.Context, userID uuid.UUID, req *model.CreateProfileRequest) (*model.UserProfile, error) {
	p := &model.UserProfile{
		UserID:    userID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		SatMetadata: model.SatMetadata{
			ExamDate:     req.ExamDate,
			DesiredScore: req.DesiredScore,
			Motivation:   req.Motivation,
		},
	}
	if err := s.profileRepo.Upsert(ctx, p); err != nil {
		return nil, err
	}

	if err := s.diagService.AttachProfile(ctx, userID, p.ID); err != nil {
		// Profile exists either way; the diagnostic link is best-effort.
		s.log.Warn().Err(err).Str("user_id", userID.String()).Msg("Attach profile to diagnostic failed")
	}
	return p, nil
}

// GetByUser retrieves a user's profile.
func (s *ProfileService) GetByUser(ctx context.Context, userID uuid.UUID) (*model.UserProfile, error) {
	return s.profileRepo.GetByUser(ctx, userID)
}
