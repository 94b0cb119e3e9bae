package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prepnest/satdiag-backend/internal/config"
	"github.com/prepnest/satdiag-backend/internal/database"
	"github.com/prepnest/satdiag-backend/internal/handler"
	"github.com/prepnest/satdiag-backend/internal/logger"
	"github.com/prepnest/satdiag-backend/internal/repository"
	"github.com/prepnest/satdiag-backend/internal/router"
	"github.com/prepnest/satdiag-backend/internal/service"
	"github.com/prepnest/satdiag-backend/internal/validator"
	"github.com/prepnest/satdiag-backend/internal/worker"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting SAT Diagnostic Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	resultRepo := repository.NewExamResultRepository(pool)
	diagRepo := repository.NewDiagnosticRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	tutorRepo := repository.NewTutorRepository(pool)
	apptRepo := repository.NewAppointmentRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	examService := service.NewExamService(examRepo, questionRepo, rdb, log)
	diagService := service.NewDiagnosticService(diagRepo, log)
	attemptService := service.NewAttemptService(examRepo, questionRepo, resultRepo, diagService, rdb, log)
	profileService := service.NewProfileService(profileRepo, diagService, log)
	tutorService := service.NewTutorService(tutorRepo, profileRepo, resultRepo, authService, log)
	apptService := service.NewAppointmentService(apptRepo, log)
	storageService := service.NewStorageService(cfg)
	studyPlanService := service.NewStudyPlanService(cfg, diagService, profileRepo, resultRepo, questionRepo, storageService, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:        handler.NewAuthHandler(authService, diagService, attemptService, tutorService),
		Diagnostic:  handler.NewDiagnosticHandler(attemptService, examService, diagService),
		Profile:     handler.NewProfileHandler(profileService),
		Appointment: handler.NewAppointmentHandler(apptService),
		Tutor:       handler.NewTutorHandler(tutorService, diagService, studyPlanService),
		WS:          handler.NewWSHandler(attemptService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	snapshotWorker := worker.NewSnapshotWorker(pool, rdb, log)
	resultWorker := worker.NewResultWorker(resultRepo, rdb, log)

	go snapshotWorker.Start(workerCtx)
	go resultWorker.Start(workerCtx)

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load every exam payload into Redis BEFORE accepting traffic so the
	// first student never lazy-loads under a thundering herd.
	if err := examService.PrewarmAllCaches(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
