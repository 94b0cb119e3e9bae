package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepnest/satdiag-backend/internal/model"
)

// QuestionRepository handles SAT question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// GetByID retrieves a question by its UUID.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SatQuestion, error) {
	q := &model.SatQuestion{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, section, subtopic, question, choices, correct_answer,
		        difficulty_level, math_expressions, created_at, updated_at
		 FROM sat_questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.Section, &q.Subtopic, &q.Question, &q.Choices,
		&q.CorrectAnswer, &q.DifficultyLevel, &q.MathExpressions,
		&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// GetByIDs retrieves a set of questions and returns them in the order of
// the ids slice. Missing ids are silently dropped.
func (r *QuestionRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.SatQuestion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, section, subtopic, question, choices, correct_answer,
		        difficulty_level, math_expressions, created_at, updated_at
		 FROM sat_questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]model.SatQuestion, len(ids))
	for rows.Next() {
		var q model.SatQuestion
		if err := rows.Scan(&q.ID, &q.Section, &q.Subtopic, &q.Question, &q.Choices,
			&q.CorrectAnswer, &q.DifficultyLevel, &q.MathExpressions,
			&q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		byID[q.ID] = q
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ordered := make([]model.SatQuestion, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered, nil
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.SatQuestion) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO sat_questions (section, subtopic, question, choices,
		                            correct_answer, difficulty_level, math_expressions)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		q.Section, q.Subtopic, q.Question, q.Choices,
		q.CorrectAnswer, q.DifficultyLevel, q.MathExpressions,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}
