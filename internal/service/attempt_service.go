package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prepnest/satdiag-backend/internal/config"
	"github.com/prepnest/satdiag-backend/internal/logger"
	"github.com/prepnest/satdiag-backend/internal/mathtext"
	"github.com/prepnest/satdiag-backend/internal/model"
	"github.com/prepnest/satdiag-backend/internal/repository"
	"github.com/prepnest/satdiag-backend/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Attempt flow errors.
var (
	ErrNoAttempt      = errors.New("no attempt in progress for this user")
	ErrModuleFinished = errors.New("this module has already been completed")
)

const defaultModuleSeconds = 35 * 60

// SnapshotJob is the autosave payload queued for the snapshot worker.
type SnapshotJob struct {
	AttemptID  uuid.UUID `json:"attempt_id"`
	UserID     uuid.UUID `json:"user_id"`
	ExamID     uuid.UUID `json:"exam_id"`
	QuestionID uuid.UUID `json:"question_id"`
	UserAnswer *string   `json:"user_answer"`
	TimeTaken  int       `json:"time_taken"`
}

// ResultLinkJob asks the result worker to attach a report link.
type ResultLinkJob struct {
	ResultID uuid.UUID `json:"result_id"`
}

// AttemptState is the resumable view of an attempt, served to a client
// that reloaded mid-session.
type AttemptState struct {
	AttemptID     uuid.UUID  `json:"attempt_id"`
	ExamID        *uuid.UUID `json:"exam_id,omitempty"`
	ExamType      string     `json:"exam_type,omitempty"`
	QuestionID    *uuid.UUID `json:"question_id,omitempty"`
	QuestionIndex int        `json:"question_index"`
	TotalQs       int        `json:"total_questions"`
	SecondsLeft   int        `json:"seconds_left"`
	TimerRunning  bool       `json:"timer_running"`
}

// ModuleStatus tells the module-selection screen what a student can start.
type ModuleStatus struct {
	ExamID    uuid.UUID      `json:"exam_id"`
	Type      model.ExamType `json:"type"`
	Title     string         `json:"title"`
	Attempted bool           `json:"attempted"`
}

// Attempt is one user's live session: controller, timers, and the Redis
// namespace everything durable lives in. All methods that touch it go
// through its mutex; the controller itself does not lock.
type Attempt struct {
	mu            sync.Mutex
	ID            uuid.UUID
	UserID        uuid.UUID
	Controller    *session.Controller
	Progress      *session.Progress
	ModuleTimer   *session.Timer
	QuestionTimer *session.Timer
	nav           *routeRecorder
	stopTick      chan struct{}
	tickOnce      sync.Once
	stopOnce      sync.Once
}

// routeRecorder is the server-side navigator: it remembers where the
// finalized attempt should send the client.
type routeRecorder struct {
	route string
}

func (r *routeRecorder) Go(route string) { r.route = route }

// AttemptService owns the registry of live attempts and drives the
// session state machine on behalf of HTTP and WebSocket callers.
type AttemptService struct {
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	resultRepo   *repository.ExamResultRepository
	diagService  *DiagnosticService
	rdb          *redis.Client
	log          zerolog.Logger

	mu       sync.Mutex
	attempts map[uuid.UUID]*Attempt // keyed by user id
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	resultRepo *repository.ExamResultRepository,
	diagService *DiagnosticService,
	rdb *redis.Client,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		resultRepo:   resultRepo,
		diagService:  diagService,
		rdb:          rdb,
		log:          logger.Component(log, "attempt_service"),
		attempts:     make(map[uuid.UUID]*Attempt),
	}
}

// attempt returns the user's live attempt, building one over the durable
// namespace if the server restarted since the attempt began. The Redis
// mapping user -> attempt id is the source of truth for "in progress".
func (s *AttemptService) attempt(ctx context.Context, userID uuid.UUID) (*Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.attempts[userID]; ok {
		return a, nil
	}

	attemptID, err := s.rdb.Get(ctx, config.CacheKey.UserAttemptKey(userID.String())).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoAttempt
		}
		return nil, fmt.Errorf("lookup attempt: %w", err)
	}

	id, err := uuid.Parse(attemptID)
	if err != nil {
		return nil, fmt.Errorf("corrupt attempt id %q: %w", attemptID, err)
	}

	a := s.buildAttempt(id, userID)
	if err := s.rehydrate(ctx, a); err != nil {
		return nil, err
	}
	s.attempts[userID] = a
	return a, nil
}

func (s *AttemptService) buildAttempt(id, userID uuid.UUID) *Attempt {
	kv := session.NewRedisKV(s.rdb, config.CacheKey.AttemptNamespace(id.String()), s.log)
	progress := session.NewProgress(kv)
	nav := &routeRecorder{}
	store := &userRecordStore{svc: s, userID: userID}

	a := &Attempt{
		ID:       id,
		UserID:   userID,
		Progress: progress,
		nav:      nav,
		stopTick: make(chan struct{}),
	}
	a.Controller = session.NewController(store, s.diagService.ForUser(userID), nav, progress, session.NewAccumulator(), s.log)
	a.ModuleTimer = session.NewTimer(kv, session.Countdown, func() { go s.expireModule(userID) })
	a.QuestionTimer = session.NewTimer(session.NewMemKV(), session.Stopwatch, nil)
	return a
}

// rehydrate reloads a rebuilt attempt to where the durable state says it
// was: same exam, same question, timer reconciled against the wall clock.
func (s *AttemptService) rehydrate(ctx context.Context, a *Attempt) error {
	examID := a.Progress.ActiveExamID()
	if examID == "" {
		return nil
	}

	id, err := uuid.Parse(examID)
	if err != nil {
		return fmt.Errorf("corrupt active exam id %q: %w", examID, err)
	}
	if err := a.Controller.LoadExam(ctx, id); err != nil {
		return err
	}

	cursor := a.Progress.Cursor()
	exam := a.Controller.Exam()
	if cursor >= 0 && cursor < len(exam.Questions) {
		if err := a.Controller.LoadQuestion(ctx, exam.Questions[cursor]); err != nil {
			return err
		}
	}

	s.log.Info().
		Str("attempt_id", a.ID.String()).
		Str("exam_id", examID).
		Int("cursor", cursor).
		Msg("Attempt rehydrated")
	return nil
}

// StartAttempt mints the user's attempt namespace. Called once at
// sign-in; calling again for a user with a live attempt is a no-op.
func (s *AttemptService) StartAttempt(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	if a, err := s.attempt(ctx, userID); err == nil {
		return a.ID, nil
	} else if !errors.Is(err, ErrNoAttempt) {
		return uuid.Nil, err
	}

	attemptID := uuid.New()
	if err := s.rdb.Set(ctx, config.CacheKey.UserAttemptKey(userID.String()), attemptID.String(), 0).Err(); err != nil {
		return uuid.Nil, fmt.Errorf("register attempt: %w", err)
	}

	s.mu.Lock()
	s.attempts[userID] = s.buildAttempt(attemptID, userID)
	s.mu.Unlock()

	s.log.Info().
		Str("user_id", userID.String()).
		Str("attempt_id", attemptID.String()).
		Msg("Attempt started")
	return attemptID, nil
}

// StartModule loads the exam of the given type into the user's session
// and arms the module countdown. A module the user already finished is
// rejected; re-entering the module currently in progress resumes it.
func (s *AttemptService) StartModule(ctx context.Context, userID uuid.UUID, examType model.ExamType) (*AttemptState, error) {
	a, err := s.attempt(ctx, userID)
	if err != nil {
		return nil, err
	}

	exam, err := s.examRepo.GetByType(ctx, examType)
	if err != nil {
		return nil, fmt.Errorf("find module: %w", err)
	}

	attempted, err := s.resultRepo.AttemptedExamIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, id := range attempted {
		if id == exam.ID {
			return nil, ErrModuleFinished
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	resuming := a.Progress.ActiveExamID() == exam.ID.String() && a.Controller.Exam() != nil
	if !resuming {
		if err := a.Controller.LoadExam(ctx, exam.ID); err != nil {
			return nil, err
		}
		seconds := exam.Metadata.DurationMinutes * 60
		if seconds <= 0 {
			seconds = defaultModuleSeconds
		}
		a.ModuleTimer.Reset(seconds)
		a.ModuleTimer.Start()
	} else if !a.ModuleTimer.Running() {
		a.ModuleTimer.Start()
	}
	s.startTicking(a)

	return s.stateLocked(a), nil
}

// startTicking runs the module clock at one tick per second until the
// attempt's last module finalizes and afterFinalizeLocked closes
// stopTick. Idempotent per attempt.
func (s *AttemptService) startTicking(a *Attempt) {
	a.tickOnce.Do(func() {
		go func() {
			t := time.NewTicker(time.Second)
			defer t.Stop()
			for {
				select {
				case <-a.stopTick:
					return
				case <-t.C:
					a.ModuleTimer.Tick()
					a.QuestionTimer.Tick()
				}
			}
		}()
	})
}

// expireModule force-finalizes when the module countdown reaches zero.
// Unanswered questions are recorded as skips.
func (s *AttemptService) expireModule(userID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := s.attempt(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID.String()).Msg("Expiry for unknown attempt")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.Controller.Exam() == nil || a.Controller.Phase() == session.PhaseFinalized {
		return
	}

	s.log.Info().Str("user_id", userID.String()).Msg("Module time expired, finalizing")
	if _, err := a.Controller.FinalizeExpired(ctx); err != nil {
		s.log.Error().Err(err).Str("user_id", userID.String()).Msg("Forced finalize failed")
		return
	}
	s.afterFinalizeLocked(ctx, a)
}

// LoadQuestion switches the displayed question and restarts the
// per-question stopwatch.
func (s *AttemptService) LoadQuestion(ctx context.Context, userID, questionID uuid.UUID) (*model.QuestionForStudent, error) {
	a, err := s.attempt(ctx, userID)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.Controller.Exam() == nil {
		return nil, session.ErrNoActiveExam
	}
	if err := a.Controller.LoadQuestion(ctx, questionID); err != nil {
		return nil, err
	}

	a.QuestionTimer.Reset(0)
	a.QuestionTimer.Start()

	q := mathtext.ResolveQuestion(a.Controller.CurrentQuestion(), mathtext.ModeUnicode)
	return &q, nil
}

// SubmitAnswer records the answer for the displayed question. A nil
// answer is an explicit skip. Returns the controller's next step, which
// is either the next question id or the post-finalize route.
func (s *AttemptService) SubmitAnswer(ctx context.Context, userID uuid.UUID, answer *string) (*session.NextStep, error) {
	a, err := s.attempt(ctx, userID)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.QuestionTimer.Tick()
	timeTaken := a.QuestionTimer.Value()
	a.QuestionTimer.Stop()

	exam := a.Controller.Exam()
	current := a.Controller.CurrentQuestion()

	step, err := a.Controller.Submit(ctx, answer, timeTaken)
	if err != nil {
		return nil, err
	}

	if exam != nil && current != nil {
		s.enqueueSnapshot(ctx, &SnapshotJob{
			AttemptID:  a.ID,
			UserID:     userID,
			ExamID:     exam.ID,
			QuestionID: current.ID,
			UserAnswer: answer,
			TimeTaken:  timeTaken,
		})
	}

	if step.Finalized {
		s.afterFinalizeLocked(ctx, a)
	}
	return step, nil
}

// Finalize retries a stuck finalize. The accumulator still holds the
// drained results, so a retry after the store recovers completes the
// module normally.
func (s *AttemptService) Finalize(ctx context.Context, userID uuid.UUID) (*session.NextStep, error) {
	a, err := s.attempt(ctx, userID)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	step, err := a.Controller.Finalize(ctx)
	if err != nil {
		return nil, err
	}
	s.afterFinalizeLocked(ctx, a)
	return step, nil
}

// afterFinalizeLocked stops the clocks and clears the timer's durable
// entries. Once the second module finalizes there is nothing left to
// tick, so the clock goroutine and the registry entry are released too.
// Caller holds a.mu; s.mu is never held while a.mu is taken, so the
// nested acquisition below cannot deadlock.
func (s *AttemptService) afterFinalizeLocked(_ context.Context, a *Attempt) {
	a.ModuleTimer.Stop()
	a.ModuleTimer.ClearPersisted()
	a.QuestionTimer.Stop()
	a.QuestionTimer.Reset(0)

	if a.nav.route == session.RouteGenerateResults {
		a.stopOnce.Do(func() { close(a.stopTick) })
		s.mu.Lock()
		delete(s.attempts, a.UserID)
		s.mu.Unlock()
	}
}

// State returns the resumable attempt view.
func (s *AttemptService) State(ctx context.Context, userID uuid.UUID) (*AttemptState, error) {
	a, err := s.attempt(ctx, userID)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return s.stateLocked(a), nil
}

func (s *AttemptService) stateLocked(a *Attempt) *AttemptState {
	st := &AttemptState{
		AttemptID:     a.ID,
		QuestionIndex: a.Controller.CurrentIndex(),
		SecondsLeft:   a.ModuleTimer.Value(),
		TimerRunning:  a.ModuleTimer.Running(),
	}
	if exam := a.Controller.Exam(); exam != nil {
		st.ExamID = &exam.ID
		st.ExamType = string(exam.Type)
		st.TotalQs = len(exam.Questions)
	}
	if q := a.Controller.CurrentQuestion(); q != nil {
		st.QuestionID = &q.ID
	}
	return st
}

// Modules lists the diagnostic modules with per-user attempted flags.
func (s *AttemptService) Modules(ctx context.Context, userID uuid.UUID) ([]ModuleStatus, error) {
	attempted, err := s.resultRepo.AttemptedExamIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	done := make(map[uuid.UUID]bool, len(attempted))
	for _, id := range attempted {
		done[id] = true
	}

	var out []ModuleStatus
	for _, t := range []model.ExamType{model.ExamTypeVerbalDiagnostic, model.ExamTypeMathDiagnostic} {
		exam, err := s.examRepo.GetByType(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("find %s module: %w", t, err)
		}
		out = append(out, ModuleStatus{
			ExamID:    exam.ID,
			Type:      exam.Type,
			Title:     exam.Metadata.Title,
			Attempted: done[exam.ID],
		})
	}
	return out, nil
}

// TimerValue reads the module clock for the WS tick stream.
func (s *AttemptService) TimerValue(ctx context.Context, userID uuid.UUID) (int, bool, error) {
	a, err := s.attempt(ctx, userID)
	if err != nil {
		return 0, false, err
	}
	return a.ModuleTimer.Value(), a.ModuleTimer.Running(), nil
}

func (s *AttemptService) enqueueSnapshot(ctx context.Context, job *SnapshotJob) {
	blob, err := json.Marshal(job)
	if err != nil {
		s.log.Error().Err(err).Msg("Marshal snapshot job")
		return
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistSnapshotsQueue, blob).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Enqueue snapshot failed")
	}
}

func (s *AttemptService) enqueueResultLink(ctx context.Context, resultID uuid.UUID) {
	blob, err := json.Marshal(ResultLinkJob{ResultID: resultID})
	if err != nil {
		s.log.Error().Err(err).Msg("Marshal result link job")
		return
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, blob).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Enqueue result link failed")
	}
}

// userRecordStore scopes the repositories to one user so the session
// controller never sees identity.
type userRecordStore struct {
	svc    *AttemptService
	userID uuid.UUID
}

func (r *userRecordStore) ExamByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return r.svc.examRepo.GetByID(ctx, id)
}

func (r *userRecordStore) QuestionByID(ctx context.Context, id uuid.UUID) (*model.SatQuestion, error) {
	return r.svc.questionRepo.GetByID(ctx, id)
}

func (r *userRecordStore) CreateExamResult(ctx context.Context, examID uuid.UUID, results []model.QuestionResult) (*model.ExamResult, error) {
	res := &model.ExamResult{
		UserID:       r.userID,
		ExamID:       examID,
		SingleResult: results,
	}
	if err := r.svc.resultRepo.Create(ctx, res); err != nil {
		return nil, err
	}
	r.svc.enqueueResultLink(ctx, res.ID)
	return res, nil
}

func (r *userRecordStore) AttemptedExamIDs(ctx context.Context) ([]uuid.UUID, error) {
	return r.svc.resultRepo.AttemptedExamIDs(ctx, r.userID)
}
