package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepnest/satdiag-backend/internal/model"
)

// ProfileRepository handles student SAT profile records.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// Upsert creates or replaces the user's profile. A student re-submitting
// the intake form overwrites the previous answers.
func (r *ProfileRepository) Upsert(ctx context.Context, p *model.UserProfile) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO user_profiles (user_id, first_name, last_name, email, sat_metadata)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE SET
		   first_name = EXCLUDED.first_name,
		   last_name = EXCLUDED.last_name,
		   email = EXCLUDED.email,
		   sat_metadata = EXCLUDED.sat_metadata,
		   updated_at = NOW()
		 RETURNING id, created_at, updated_at`,
		p.UserID, p.FirstName, p.LastName, p.Email, p.SatMetadata,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// GetByUser retrieves a user's profile.
func (r *ProfileRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*model.UserProfile, error) {
	p := &model.UserProfile{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, first_name, last_name, email, sat_metadata, created_at, updated_at
		 FROM user_profiles WHERE user_id = $1`, userID,
	).Scan(&p.ID, &p.UserID, &p.FirstName, &p.LastName, &p.Email,
		&p.SatMetadata, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetByID retrieves a profile by its UUID.
func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.UserProfile, error) {
	p := &model.UserProfile{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, first_name, last_name, email, sat_metadata, created_at, updated_at
		 FROM user_profiles WHERE id = $1`, id,
	).Scan(&p.ID, &p.UserID, &p.FirstName, &p.LastName, &p.Email,
		&p.SatMetadata, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}
