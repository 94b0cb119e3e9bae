package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepnest/satdiag-backend/internal/model"
)

// DiagnosticRepository handles per-user diagnostic records.
type DiagnosticRepository struct {
	pool *pgxpool.Pool
}

// NewDiagnosticRepository creates a new DiagnosticRepository.
func NewDiagnosticRepository(pool *pgxpool.Pool) *DiagnosticRepository {
	return &DiagnosticRepository{pool: pool}
}

// Create inserts an empty diagnostic for a user. Called once at sign-in.
func (r *DiagnosticRepository) Create(ctx context.Context, userID uuid.UUID) (*model.Diagnostic, error) {
	d := &model.Diagnostic{UserID: userID}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO diagnostics (user_id) VALUES ($1)
		 RETURNING id, created_at, updated_at`, userID,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// GetByUser retrieves a user's diagnostic.
func (r *DiagnosticRepository) GetByUser(ctx context.Context, userID uuid.UUID) (*model.Diagnostic, error) {
	d := &model.Diagnostic{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, user_profile_id, math_diagnostic_id, verbal_diagnostic_id,
		        created_at, updated_at
		 FROM diagnostics WHERE user_id = $1`, userID,
	).Scan(&d.ID, &d.UserID, &d.UserProfileID, &d.MathDiagnosticID,
		&d.VerbalDiagnosticID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// SetMathResult points the diagnostic at a finished math module result.
func (r *DiagnosticRepository) SetMathResult(ctx context.Context, userID, resultID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE diagnostics SET math_diagnostic_id = $1, updated_at = NOW()
		 WHERE user_id = $2`, resultID, userID)
	return err
}

// SetVerbalResult points the diagnostic at a finished verbal module result.
func (r *DiagnosticRepository) SetVerbalResult(ctx context.Context, userID, resultID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE diagnostics SET verbal_diagnostic_id = $1, updated_at = NOW()
		 WHERE user_id = $2`, resultID, userID)
	return err
}

// SetProfile attaches a created profile to the diagnostic.
func (r *DiagnosticRepository) SetProfile(ctx context.Context, userID, profileID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE diagnostics SET user_profile_id = $1, updated_at = NOW()
		 WHERE user_id = $2`, profileID, userID)
	return err
}

// ListComplete returns diagnostics with both module results, newest first.
// Feeds the tutor dashboard.
func (r *DiagnosticRepository) ListComplete(ctx context.Context, limit, offset int) ([]model.Diagnostic, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM diagnostics
		 WHERE math_diagnostic_id IS NOT NULL AND verbal_diagnostic_id IS NOT NULL`,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, user_profile_id, math_diagnostic_id, verbal_diagnostic_id,
		        created_at, updated_at
		 FROM diagnostics
		 WHERE math_diagnostic_id IS NOT NULL AND verbal_diagnostic_id IS NOT NULL
		 ORDER BY updated_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var diags []model.Diagnostic
	for rows.Next() {
		var d model.Diagnostic
		if err := rows.Scan(&d.ID, &d.UserID, &d.UserProfileID, &d.MathDiagnosticID,
			&d.VerbalDiagnosticID, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, 0, err
		}
		diags = append(diags, d)
	}
	return diags, total, rows.Err()
}
