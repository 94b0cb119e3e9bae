package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/prepnest/satdiag-backend/internal/logger"
	"github.com/prepnest/satdiag-backend/internal/model"
	"github.com/prepnest/satdiag-backend/internal/repository"
	"github.com/rs/zerolog"
)

// AppointmentService handles consultation bookings.
type AppointmentService struct {
	apptRepo *repository.AppointmentRepository
	log      zerolog.Logger
}

// NewAppointmentService creates a new AppointmentService.
func NewAppointmentService(apptRepo *repository.AppointmentRepository, log zerolog.Logger) *AppointmentService {
	return &AppointmentService{
		apptRepo: apptRepo,
		log:      logger.Component(log, "appointment_service"),
	}
}

// Book creates an appointment for the user.
func (s *AppointmentService) Book(ctx context.Context, userID uuid.UUID, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	a := &model.Appointment{
		UserID:      userID,
		ScheduledAt: req.ScheduledAt,
		Notes:       req.Notes,
	}
	if err := s.apptRepo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Time("scheduled_at", a.ScheduledAt).
		Msg("Appointment booked")
	return a, nil
}

// ListByUser returns the user's bookings.
func (s *AppointmentService) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Appointment, error) {
	return s.apptRepo.ListByUser(ctx, userID)
}

// ListUpcoming returns upcoming bookings for the tutor dashboard.
func (s *AppointmentService) ListUpcoming(ctx context.Context, limit int) ([]model.Appointment, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return s.apptRepo.ListUpcoming(ctx, limit)
}
