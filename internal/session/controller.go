package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prepnest/satdiag-backend/internal/model"
)

// Routes the controller can navigate to after finalizing a module.
const (
	RouteModuleSelect    = "/f/diagnostic-test"
	RouteGenerateResults = "/f/generate-result"
)

// Domain errors.
var (
	ErrNoActiveExam        = errors.New("no exam is active in this session")
	ErrNoQuestionDisplayed = errors.New("no question is currently displayed")
	// ErrQuestionNotInExam flags a displayed question that is not part of
	// the active exam's sequence. Kept distinct from legitimate
	// end-of-exam so a broken sequence cannot masquerade as completion.
	ErrQuestionNotInExam = errors.New("current question is not in the exam sequence")
)

// Phase is the controller's position in the per-attempt state machine.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseInProgress
	PhaseFinalizing
	PhaseFinalized
	PhaseStuck
)

// RecordStore is the external persistence collaborator, identity-scoped
// to the attempt's user.
type RecordStore interface {
	ExamByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	QuestionByID(ctx context.Context, id uuid.UUID) (*model.SatQuestion, error)
	CreateExamResult(ctx context.Context, examID uuid.UUID, results []model.QuestionResult) (*model.ExamResult, error)
	AttemptedExamIDs(ctx context.Context) ([]uuid.UUID, error)
}

// DiagnosticLog records finished module results on the user's diagnostic
// and answers whether both modules are complete.
type DiagnosticLog interface {
	RecordResult(ctx context.Context, examType model.ExamType, resultID uuid.UUID) error
	Complete(ctx context.Context) (bool, error)
}

// Navigator is the render-target collaborator: "go to path P".
type Navigator interface {
	Go(route string)
}

// NextStep is the controller's answer to "what happens after this
// submission": either the next question to show, or the route the
// finalized attempt navigated to.
type NextStep struct {
	QuestionID uuid.UUID `json:"question_id,omitempty"`
	Route      string    `json:"route,omitempty"`
	Finalized  bool      `json:"finalized"`
}

// Controller drives traversal of the active exam's question sequence and
// terminates the session exactly once. Callers serialize access per
// attempt; the controller itself does not lock.
type Controller struct {
	store    RecordStore
	diag     DiagnosticLog
	nav      Navigator
	progress *Progress
	acc      *Accumulator
	log      zerolog.Logger

	exam    *model.Exam
	current *model.SatQuestion
	phase   Phase
}

// NewController wires a controller over its collaborators.
func NewController(store RecordStore, diag DiagnosticLog, nav Navigator, progress *Progress, acc *Accumulator, log zerolog.Logger) *Controller {
	return &Controller{
		store:    store,
		diag:     diag,
		nav:      nav,
		progress: progress,
		acc:      acc,
		log:      log.With().Str("component", "session_controller").Logger(),
	}
}

// LoadExam fetches the exam and marks it active. Always re-fetches, even
// when the same id is already active: freshness over caching. On failure
// state is unchanged and the caller surfaces the error. The state
// machine is per exam, so loading rewinds the phase; a finalized module
// must not bleed its terminal phase into the next one.
func (c *Controller) LoadExam(ctx context.Context, id uuid.UUID) error {
	exam, err := c.store.ExamByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load exam: %w", err)
	}

	c.exam = exam
	c.current = nil
	c.phase = PhaseNotStarted
	c.progress.SetActiveExam(exam)
	return nil
}

// LoadQuestion fetches a question and replaces the displayed one. The
// persisted cursor follows the question's position in the sequence.
func (c *Controller) LoadQuestion(ctx context.Context, id uuid.UUID) error {
	q, err := c.store.QuestionByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load question: %w", err)
	}

	c.current = q
	if c.phase == PhaseNotStarted {
		c.phase = PhaseInProgress
	}
	if c.exam != nil {
		if idx := c.exam.QuestionIndex(q.ID); idx >= 0 {
			c.progress.SetCursor(idx)
		}
	}
	return nil
}

// Exam returns the active exam, nil when none is loaded.
func (c *Controller) Exam() *model.Exam {
	return c.exam
}

// CurrentQuestion returns the displayed question, nil when none.
func (c *Controller) CurrentQuestion() *model.SatQuestion {
	return c.current
}

// CurrentIndex returns the zero-based position of the displayed question
// in the active exam's sequence, or -1 when either is absent. A pure
// lookup, not a stored cursor.
func (c *Controller) CurrentIndex() int {
	if c.exam == nil || c.current == nil {
		return -1
	}
	return c.exam.QuestionIndex(c.current.ID)
}

// NextQuestionID returns the first question id when nothing is displayed
// (session start), the id following the current one otherwise, and
// ok=false when the sequence is exhausted or the current question is not
// part of it.
func (c *Controller) NextQuestionID() (uuid.UUID, bool) {
	if c.exam == nil || len(c.exam.Questions) == 0 {
		return uuid.Nil, false
	}
	if c.current == nil {
		return c.exam.Questions[0], true
	}
	idx := c.exam.QuestionIndex(c.current.ID)
	if idx == -1 || idx >= len(c.exam.Questions)-1 {
		return uuid.Nil, false
	}
	return c.exam.Questions[idx+1], true
}

// IsLastQuestion reports whether the displayed question closes the exam.
func (c *Controller) IsLastQuestion() bool {
	if c.exam == nil {
		return false
	}
	return c.CurrentIndex() == len(c.exam.Questions)-1
}

// Phase returns the controller's state-machine position.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Submit records one answer for the displayed question and selects the
// advance-vs-finalize branch. A nil userAnswer is an explicit skip and
// records a null answer with zero time.
func (c *Controller) Submit(ctx context.Context, userAnswer *string, timeTaken int) (*NextStep, error) {
	if c.exam == nil {
		return nil, ErrNoActiveExam
	}
	if c.current == nil {
		return nil, ErrNoQuestionDisplayed
	}

	if userAnswer == nil {
		c.acc.Append(model.Skipped(c.current.ID))
	} else {
		c.acc.Append(model.QuestionResult{
			QuestionID: c.current.ID,
			UserAnswer: userAnswer,
			TimeTaken:  timeTaken,
			IsCorrect:  *userAnswer == c.current.CorrectAnswer,
		})
	}

	if c.IsLastQuestion() {
		return c.Finalize(ctx)
	}

	idx := c.CurrentIndex()
	if idx == -1 {
		return nil, ErrQuestionNotInExam
	}
	return &NextStep{QuestionID: c.exam.Questions[idx+1]}, nil
}

// Finalize persists the accumulated results as one exam result, records
// it on the diagnostic, and navigates: to the generate-results route when
// both modules are now complete, back to module selection otherwise. On
// persistence failure the drained results are restored to the
// accumulator and the session stays put — a manual re-submission is the
// recovery path.
func (c *Controller) Finalize(ctx context.Context) (*NextStep, error) {
	if c.exam == nil {
		return nil, ErrNoActiveExam
	}
	c.phase = PhaseFinalizing

	results := c.acc.Drain()
	created, err := c.store.CreateExamResult(ctx, c.exam.ID, results)
	if err != nil {
		c.acc.Restore(results)
		c.phase = PhaseStuck
		c.log.Error().Err(err).Str("exam_id", c.exam.ID.String()).Msg("Result persistence failed")
		return nil, fmt.Errorf("persist exam result: %w", err)
	}

	if err := c.diag.RecordResult(ctx, c.exam.Type, created.ID); err != nil {
		// The result row exists; a dangling diagnostic pointer is
		// recoverable by the tutor dashboard, so log and continue.
		c.log.Warn().Err(err).Str("result_id", created.ID.String()).Msg("Diagnostic pointer update failed")
	}

	route := RouteModuleSelect
	done, err := c.diag.Complete(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("Completeness check failed, returning to module selection")
	} else if done {
		route = RouteGenerateResults
	}

	c.Clear()
	c.progress.Clear()
	c.phase = PhaseFinalized
	c.nav.Go(route)

	c.log.Info().
		Str("exam_id", created.ExamID.String()).
		Str("result_id", created.ID.String()).
		Int("answers", len(results)).
		Str("route", route).
		Msg("Session finalized")

	return &NextStep{Route: route, Finalized: true}, nil
}

// FinalizeExpired appends a skip for every sequence question with no
// recorded result, then finalizes. This is the module-clock-ran-out
// path: the student's result covers the whole sequence, with silence
// recorded as skips rather than omitted.
func (c *Controller) FinalizeExpired(ctx context.Context) (*NextStep, error) {
	if c.exam == nil {
		return nil, ErrNoActiveExam
	}
	for _, id := range c.exam.Questions {
		if !c.acc.Contains(id) {
			c.acc.Append(model.Skipped(id))
		}
	}
	return c.Finalize(ctx)
}

// Clear resets the displayed question only; progress is cleared by
// Finalize together with this.
func (c *Controller) Clear() {
	c.current = nil
}
