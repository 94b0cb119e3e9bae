package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/prepnest/satdiag-backend/internal/logger"
	"github.com/prepnest/satdiag-backend/internal/model"
	"github.com/prepnest/satdiag-backend/internal/repository"
	"github.com/rs/zerolog"
)

// TutorService handles tutor accounts and the dashboard views.
type TutorService struct {
	tutorRepo   *repository.TutorRepository
	profileRepo *repository.ProfileRepository
	resultRepo  *repository.ExamResultRepository
	authService *AuthService
	log         zerolog.Logger
}

// NewTutorService creates a new TutorService.
func NewTutorService(
	tutorRepo *repository.TutorRepository,
	profileRepo *repository.ProfileRepository,
	resultRepo *repository.ExamResultRepository,
	authService *AuthService,
	log zerolog.Logger,
) *TutorService {
	return &TutorService{
		tutorRepo:   tutorRepo,
		profileRepo: profileRepo,
		resultRepo:  resultRepo,
		authService: authService,
		log:         logger.Component(log, "tutor_service"),
	}
}

// Login authenticates a tutor and returns a signed token.
func (s *TutorService) Login(ctx context.Context, req *model.TutorLoginRequest) (*model.TutorLoginResponse, error) {
	tutor, err := s.tutorRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		// Same error as a wrong password so login probing learns nothing.
		return nil, ErrInvalidCredentials
	}

	if err := s.authService.CheckPassword(tutor.PasswordHash, req.Password); err != nil {
		return nil, err
	}

	token, err := s.authService.GenerateTutorToken(tutor.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.log.Info().Str("tutor_id", tutor.ID.String()).Msg("Tutor logged in")
	return &model.TutorLoginResponse{Token: token, Tutor: *tutor}, nil
}

// GetByID retrieves a tutor account.
func (s *TutorService) GetByID(ctx context.Context, id uuid.UUID) (*model.Tutor, error) {
	return s.tutorRepo.GetByID(ctx, id)
}

// StudentDetail is the dashboard view of one student.
type StudentDetail struct {
	Profile *model.UserProfile `json:"profile"`
	Results []model.ExamResult `json:"results"`
}

// StudentDetail assembles the student view for the dashboard: profile
// plus every finished exam result.
func (s *TutorService) StudentDetail(ctx context.Context, userID uuid.UUID) (*StudentDetail, error) {
	profile, err := s.profileRepo.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	results, err := s.resultRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}

	return &StudentDetail{Profile: profile, Results: results}, nil
}
