package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prepnest/satdiag-backend/internal/config"
	"github.com/prepnest/satdiag-backend/internal/logger"
	"github.com/prepnest/satdiag-backend/internal/repository"
	"github.com/prepnest/satdiag-backend/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const ResultPollTimeout = 1 * time.Second

// ResultWorker consumes persist_results_queue and attaches the public
// report link to freshly persisted exam results. Link generation is off
// the request path so finalize latency stays flat.
type ResultWorker struct {
	resultRepo *repository.ExamResultRepository
	rdb        *redis.Client
	log        zerolog.Logger
}

// NewResultWorker creates a new ResultWorker.
func NewResultWorker(resultRepo *repository.ExamResultRepository, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		resultRepo: resultRepo,
		rdb:        rdb,
		log:        logger.Component(log, "result_worker"),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("ResultWorker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *ResultWorker) processNext(ctx context.Context) {
	item, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(item) < 2 {
		return
	}

	var job service.ResultLinkJob
	if err := json.Unmarshal([]byte(item[1]), &job); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload")
		return
	}

	link := "/r/" + job.ResultID.String()
	if err := w.resultRepo.SetResultLink(ctx, job.ResultID, link); err != nil {
		w.log.Error().Err(err).
			Str("result_id", job.ResultID.String()).
			Msg("Set result link failed — requeueing")
		raw, _ := json.Marshal(job)
		w.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw)
		return
	}

	w.log.Debug().Str("result_id", job.ResultID.String()).Msg("Result link attached")
}
