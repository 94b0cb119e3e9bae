package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/prepnest/satdiag-backend/internal/config"
	"github.com/prepnest/satdiag-backend/internal/database"
	"github.com/prepnest/satdiag-backend/internal/logger"
	"github.com/prepnest/satdiag-backend/internal/model"
	"github.com/prepnest/satdiag-backend/internal/repository"
)

// seedFile is the on-disk shape of one diagnostic module: the exam
// metadata plus its questions in presentation order.
type seedFile struct {
	Type     model.ExamType      `json:"type"`
	Metadata model.ExamMetadata  `json:"metadata"`
	Items    []model.SatQuestion `json:"questions"`
}

func main() {
	path := flag.String("file", "", "path to a module seed JSON file")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if *path == "" {
		fmt.Println("Usage: seed-exams -file <module.json>")
		os.Exit(1)
	}

	data, err := os.ReadFile(*path)
	if err != nil {
		log.Fatal().Err(err).Str("file", *path).Msg("Failed to read seed file")
	}

	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		log.Fatal().Err(err).Msg("Invalid seed JSON")
	}
	if len(seed.Items) == 0 {
		log.Fatal().Msg("Seed file has no questions")
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	examRepo := repository.NewExamRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)

	fmt.Printf("=== Seeding %s module (%d questions) ===\n", seed.Type, len(seed.Items))

	exam := &model.Exam{Type: seed.Type, Metadata: seed.Metadata}
	for i := range seed.Items {
		q := &seed.Items[i]
		if err := questionRepo.Create(ctx, q); err != nil {
			log.Fatal().Err(err).Int("index", i).Msg("Failed to insert question")
		}
		exam.Questions = append(exam.Questions, q.ID)
	}

	if err := examRepo.Create(ctx, exam); err != nil {
		log.Fatal().Err(err).Msg("Failed to insert exam")
	}

	fmt.Printf("Created exam %s with %d questions\n", exam.ID, len(exam.Questions))
}
