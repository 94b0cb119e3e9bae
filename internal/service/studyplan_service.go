package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/prepnest/satdiag-backend/internal/config"
	"github.com/prepnest/satdiag-backend/internal/logger"
	"github.com/prepnest/satdiag-backend/internal/model"
	"github.com/prepnest/satdiag-backend/internal/repository"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

// Study plan errors.
var (
	ErrDiagnosticIncomplete = errors.New("both diagnostic modules must be finished first")
	ErrEmptyPlan            = errors.New("model returned an empty plan")
)

const planSystemPrompt = `You are an expert SAT tutor and study plan creator. Your role is to create personalized study plans for students based on:

1. Their diagnostic test results in the Math and Verbal sections
2. Their target exam date
3. Their target exam score

When creating a study plan:
- Analyze the student's strengths and weaknesses based on their results
- Create a structured timeline leading up to the exam date
- Provide clear goals and milestones
- Include both subject-specific and mixed practice sessions
- Consider the student's current level and target score

Your output must be a well-structured markdown document with the following sections:

Overview
- Student Name
- Exam Date
- Target Score

Lesson Plan
- Propose the overall number of sessions for the student to achieve the target score for both Math and Verbal

Session Breakdown and Focus Area
- Break down each lesson into a specific focus area
- Each lesson should have a clear objective, a description and a title
- Highlight for each focus area the areas the student needs to improve on

Final Thoughts
- Add final thoughts on what the student should do to achieve the target score, 2-3 sentences at most.

IMPORTANT: Your result is the markdown document. Do not include any other text or formatting.`

// StudyPlanService generates personalized study plans from finished
// diagnostics via an OpenAI-compatible model.
type StudyPlanService struct {
	cfg          *config.Config
	api          *openai.Client
	diagService  *DiagnosticService
	profileRepo  *repository.ProfileRepository
	resultRepo   *repository.ExamResultRepository
	questionRepo *repository.QuestionRepository
	storage      *StorageService
	log          zerolog.Logger
}

// NewStudyPlanService creates a new StudyPlanService.
func NewStudyPlanService(
	cfg *config.Config,
	diagService *DiagnosticService,
	profileRepo *repository.ProfileRepository,
	resultRepo *repository.ExamResultRepository,
	questionRepo *repository.QuestionRepository,
	storage *StorageService,
	log zerolog.Logger,
) *StudyPlanService {
	return &StudyPlanService{
		cfg:          cfg,
		api:          openai.NewClientWithConfig(openai.DefaultConfig(cfg.OpenAIKey)),
		diagService:  diagService,
		profileRepo:  profileRepo,
		resultRepo:   resultRepo,
		questionRepo: questionRepo,
		storage:      storage,
		log:          logger.Component(log, "studyplan_service"),
	}
}

// Generate builds the plan for one student, stores it, and returns the
// markdown plus the stored link.
func (s *StudyPlanService) Generate(ctx context.Context, userID uuid.UUID) (string, string, error) {
	diag, err := s.diagService.GetByUser(ctx, userID)
	if err != nil {
		return "", "", fmt.Errorf("load diagnostic: %w", err)
	}
	if !diag.IsComplete() {
		return "", "", ErrDiagnosticIncomplete
	}

	profile, err := s.profileRepo.GetByUser(ctx, userID)
	if err != nil {
		return "", "", fmt.Errorf("load profile: %w", err)
	}

	mathSummary, err := s.resultSummary(ctx, *diag.MathDiagnosticID)
	if err != nil {
		return "", "", fmt.Errorf("summarize math result: %w", err)
	}
	verbalSummary, err := s.resultSummary(ctx, *diag.VerbalDiagnosticID)
	if err != nil {
		return "", "", fmt.Errorf("summarize verbal result: %w", err)
	}

	prompt := fmt.Sprintf(`Generate a personalized study plan for %s to achieve a score of %d on the SAT by %s.

The following are the results of the diagnostic tests:

Math Diagnostic Results:
%s

Verbal Diagnostic Results:
%s

Analyse the performance of the student in each section and draft a study plan as your instructions say.`,
		profile.FullName(),
		profile.SatMetadata.DesiredScore,
		profile.SatMetadata.ExamDate.Format("January 2, 2006"),
		mathSummary,
		verbalSummary,
	)

	resp, err := s.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.cfg.OpenAIModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: planSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.4,
	})
	if err != nil {
		return "", "", fmt.Errorf("plan generation: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", "", ErrEmptyPlan
	}

	markdown := resp.Choices[0].Message.Content
	link, err := s.storage.SaveStudyPlan(userID, markdown)
	if err != nil {
		return "", "", err
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Str("link", link).
		Msg("Study plan generated")
	return markdown, link, nil
}

// resultSummary renders one exam result as prompt text, enriching each
// answer with the question's subtopic and difficulty.
func (s *StudyPlanService) resultSummary(ctx context.Context, resultID uuid.UUID) (string, error) {
	res, err := s.resultRepo.GetByID(ctx, resultID)
	if err != nil {
		return "", err
	}

	ids := make([]uuid.UUID, 0, len(res.SingleResult))
	for _, qr := range res.SingleResult {
		ids = append(ids, qr.QuestionID)
	}
	questions, err := s.questionRepo.GetByIDs(ctx, ids)
	if err != nil {
		return "", err
	}
	byID := make(map[uuid.UUID]*model.SatQuestion, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Score: %d/%d\n", res.Score(), len(res.SingleResult))
	for i, qr := range res.SingleResult {
		answer := "skipped"
		if qr.UserAnswer != nil {
			answer = *qr.UserAnswer
		}
		line := fmt.Sprintf("%d. answer=%s correct=%t time=%ds", i+1, answer, qr.IsCorrect, qr.TimeTaken)
		if q, ok := byID[qr.QuestionID]; ok {
			line += fmt.Sprintf(" subtopic=%s difficulty=%d", q.Subtopic, q.DifficultyLevel)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String(), nil
}
