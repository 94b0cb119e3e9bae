package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepnest/satdiag-backend/internal/model"
)

// ExamResultRepository handles persisted exam attempt records.
type ExamResultRepository struct {
	pool *pgxpool.Pool
}

// NewExamResultRepository creates a new ExamResultRepository.
func NewExamResultRepository(pool *pgxpool.Pool) *ExamResultRepository {
	return &ExamResultRepository{pool: pool}
}

// Create inserts one exam result. SingleResult is stored as JSONB in
// submission order.
func (r *ExamResultRepository) Create(ctx context.Context, res *model.ExamResult) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_results (user_id, exam_id, single_result, result_link)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		res.UserID, res.ExamID, res.SingleResult, res.ResultLink,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
}

// GetByID retrieves a result by its UUID.
func (r *ExamResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamResult, error) {
	res := &model.ExamResult{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, exam_id, single_result, result_link, created_at, updated_at
		 FROM exam_results WHERE id = $1`, id,
	).Scan(&res.ID, &res.UserID, &res.ExamID, &res.SingleResult,
		&res.ResultLink, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ListByUser returns a user's results, newest first.
func (r *ExamResultRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.ExamResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, exam_id, single_result, result_link, created_at, updated_at
		 FROM exam_results WHERE user_id = $1
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.ExamResult
	for rows.Next() {
		var res model.ExamResult
		if err := rows.Scan(&res.ID, &res.UserID, &res.ExamID, &res.SingleResult,
			&res.ResultLink, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// AttemptedExamIDs returns the distinct exam ids a user has finished.
func (r *ExamResultRepository) AttemptedExamIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT exam_id FROM exam_results WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetResultLink attaches the generated report link to a result.
func (r *ExamResultRepository) SetResultLink(ctx context.Context, id uuid.UUID, link string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE exam_results SET result_link = $1, updated_at = NOW() WHERE id = $2`,
		link, id)
	return err
}
