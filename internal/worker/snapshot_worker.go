package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prepnest/satdiag-backend/internal/config"
	"github.com/prepnest/satdiag-backend/internal/logger"
	"github.com/prepnest/satdiag-backend/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	SnapshotBatchSize    = 100
	SnapshotBatchTimeout = 2 * time.Second
	SnapshotPollTimeout  = 1 * time.Second
)

// SnapshotWorker consumes persist_snapshots_queue and UPSERTs per-answer
// snapshots to PostgreSQL. Snapshots are the crash-recovery record of
// answers taken before the module finalizes; the durable exam result is
// written on the request path, not here.
type SnapshotWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewSnapshotWorker creates a new SnapshotWorker.
func NewSnapshotWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *SnapshotWorker {
	return &SnapshotWorker{
		pool: pool,
		rdb:  rdb,
		log:  logger.Component(log, "snapshot_worker"),
	}
}

// Start begins the worker loop with batching. Call in a goroutine.
func (w *SnapshotWorker) Start(ctx context.Context) {
	w.log.Info().Msg("SnapshotWorker started")

	batch := make([]*service.SnapshotJob, 0, SnapshotBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= SnapshotBatchSize || time.Since(lastFlush) >= SnapshotBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, SnapshotPollTimeout, config.WorkerKey.PersistSnapshotsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var job service.SnapshotJob
			if err := json.Unmarshal([]byte(item[1]), &job); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &job)
		}
	}
}

func (w *SnapshotWorker) flushSafe(ctx context.Context, batch []*service.SnapshotJob) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkUpsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("Bulk snapshot upsert failed, using fallback")

		for _, job := range batch {
			if err := w.persistSingle(ctx, job); err != nil {
				w.log.Error().Err(err).Msg("persistSingle failed — requeueing")
				raw, _ := json.Marshal(job)
				w.rdb.RPush(ctx, config.WorkerKey.PersistSnapshotsQueue, raw)
			}
		}
		return
	}

	w.log.Debug().Int("count", len(batch)).Msg("Snapshots flushed")
}

func (w *SnapshotWorker) bulkUpsert(ctx context.Context, batch []*service.SnapshotJob) error {
	n := len(batch)

	attemptIDs := make([]uuid.UUID, 0, n)
	userIDs := make([]uuid.UUID, 0, n)
	examIDs := make([]uuid.UUID, 0, n)
	questionIDs := make([]uuid.UUID, 0, n)
	answers := make([]*string, 0, n)
	timesTaken := make([]int, 0, n)

	for _, job := range batch {
		attemptIDs = append(attemptIDs, job.AttemptID)
		userIDs = append(userIDs, job.UserID)
		examIDs = append(examIDs, job.ExamID)
		questionIDs = append(questionIDs, job.QuestionID)
		answers = append(answers, job.UserAnswer)
		timesTaken = append(timesTaken, job.TimeTaken)
	}

	query := `
		INSERT INTO answer_snapshots
			(attempt_id, user_id, exam_id, question_id, user_answer, time_taken)
		SELECT
			u.attempt_id, u.user_id, u.exam_id, u.question_id, u.user_answer, u.time_taken
		FROM UNNEST(
			$1::uuid[],
			$2::uuid[],
			$3::uuid[],
			$4::uuid[],
			$5::text[],
			$6::int[]
		) AS u (attempt_id, user_id, exam_id, question_id, user_answer, time_taken)
		ON CONFLICT (attempt_id, exam_id, question_id) DO UPDATE SET
			user_answer = EXCLUDED.user_answer,
			time_taken = EXCLUDED.time_taken,
			updated_at = NOW()
	`

	_, err := w.pool.Exec(ctx, query, attemptIDs, userIDs, examIDs, questionIDs, answers, timesTaken)
	return err
}

func (w *SnapshotWorker) persistSingle(ctx context.Context, job *service.SnapshotJob) error {
	_, err := w.pool.Exec(ctx,
		`INSERT INTO answer_snapshots
			(attempt_id, user_id, exam_id, question_id, user_answer, time_taken)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (attempt_id, exam_id, question_id) DO UPDATE SET
			user_answer = EXCLUDED.user_answer,
			time_taken = EXCLUDED.time_taken,
			updated_at = NOW()`,
		job.AttemptID, job.UserID, job.ExamID, job.QuestionID, job.UserAnswer, job.TimeTaken)
	return err
}
