package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepnest/satdiag-backend/internal/model"
)

// AppointmentRepository handles consultation booking records.
type AppointmentRepository struct {
	pool *pgxpool.Pool
}

// NewAppointmentRepository creates a new AppointmentRepository.
func NewAppointmentRepository(pool *pgxpool.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

// Create inserts a new appointment.
func (r *AppointmentRepository) Create(ctx context.Context, a *model.Appointment) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO appointments (user_id, scheduled_at, notes)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		a.UserID, a.ScheduledAt, a.Notes,
	).Scan(&a.ID, &a.CreatedAt)
}

// ListByUser returns a user's appointments, soonest first.
func (r *AppointmentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, scheduled_at, notes, created_at
		 FROM appointments WHERE user_id = $1
		 ORDER BY scheduled_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		var a model.Appointment
		if err := rows.Scan(&a.ID, &a.UserID, &a.ScheduledAt, &a.Notes, &a.CreatedAt); err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

// ListUpcoming returns appointments from now onward across all users.
// Feeds the tutor dashboard.
func (r *AppointmentRepository) ListUpcoming(ctx context.Context, limit int) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, scheduled_at, notes, created_at
		 FROM appointments WHERE scheduled_at >= NOW()
		 ORDER BY scheduled_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		var a model.Appointment
		if err := rows.Scan(&a.ID, &a.UserID, &a.ScheduledAt, &a.Notes, &a.CreatedAt); err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}
