package service

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/prepnest/satdiag-backend/internal/config"
)

// StorageService writes generated study plans to local storage, one
// folder per user. Regenerating a plan overwrites the previous one.
type StorageService struct {
	cfg *config.Config
}

// NewStorageService creates a new StorageService.
func NewStorageService(cfg *config.Config) *StorageService {
	return &StorageService{cfg: cfg}
}

// SaveStudyPlan stores a markdown study plan for the user and returns the
// relative URL path the router serves it under.
func (s *StorageService) SaveStudyPlan(userID uuid.UUID, markdown string) (string, error) {
	dir := filepath.Join(s.cfg.StudyPlanDir, userID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create plan dir: %w", err)
	}

	destPath := filepath.Join(dir, "studyplan.md")
	if err := os.WriteFile(destPath, []byte(markdown), 0o644); err != nil {
		return "", fmt.Errorf("write plan: %w", err)
	}

	return "/studyplans/" + userID.String() + "/studyplan.md", nil
}

// LoadStudyPlan reads the user's stored plan. Missing file means no plan
// has been generated yet.
func (s *StorageService) LoadStudyPlan(userID uuid.UUID) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.cfg.StudyPlanDir, userID.String(), "studyplan.md"))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
