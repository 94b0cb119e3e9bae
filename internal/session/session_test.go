package session

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prepnest/satdiag-backend/internal/model"
)

// ─── Fakes ──────────────────────────────────────────────────────────

type fakeStore struct {
	exams     map[uuid.UUID]*model.Exam
	questions map[uuid.UUID]*model.SatQuestion
	attempted []uuid.UUID
	created   []*model.ExamResult
	createErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		exams:     make(map[uuid.UUID]*model.Exam),
		questions: make(map[uuid.UUID]*model.SatQuestion),
	}
}

func (s *fakeStore) ExamByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	e, ok := s.exams[id]
	if !ok {
		return nil, errors.New("exam not found")
	}
	return e, nil
}

func (s *fakeStore) QuestionByID(_ context.Context, id uuid.UUID) (*model.SatQuestion, error) {
	q, ok := s.questions[id]
	if !ok {
		return nil, errors.New("question not found")
	}
	return q, nil
}

func (s *fakeStore) CreateExamResult(_ context.Context, examID uuid.UUID, results []model.QuestionResult) (*model.ExamResult, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	res := &model.ExamResult{
		ID:           uuid.New(),
		ExamID:       examID,
		SingleResult: append([]model.QuestionResult(nil), results...),
	}
	s.created = append(s.created, res)
	s.attempted = append(s.attempted, examID)
	return res, nil
}

func (s *fakeStore) AttemptedExamIDs(_ context.Context) ([]uuid.UUID, error) {
	return s.attempted, nil
}

type fakeDiag struct {
	math     *uuid.UUID
	verbal   *uuid.UUID
	recorded []model.ExamType
}

func (d *fakeDiag) RecordResult(_ context.Context, examType model.ExamType, resultID uuid.UUID) error {
	d.recorded = append(d.recorded, examType)
	if examType.IsMath() {
		d.math = &resultID
	} else {
		d.verbal = &resultID
	}
	return nil
}

func (d *fakeDiag) Complete(_ context.Context) (bool, error) {
	return d.math != nil && d.verbal != nil, nil
}

type fakeNav struct {
	routes []string
}

func (n *fakeNav) Go(route string) { n.routes = append(n.routes, route) }

// seedExam registers an exam with n fresh questions, all answered "A".
func seedExam(s *fakeStore, examType model.ExamType, n int) *model.Exam {
	exam := &model.Exam{ID: uuid.New(), Type: examType}
	for i := 0; i < n; i++ {
		q := &model.SatQuestion{ID: uuid.New(), CorrectAnswer: "A"}
		s.questions[q.ID] = q
		exam.Questions = append(exam.Questions, q.ID)
	}
	s.exams[exam.ID] = exam
	return exam
}

func newTestController(s *fakeStore, d *fakeDiag, n *fakeNav, kv KV) *Controller {
	return NewController(s, d, n, NewProgress(kv), NewAccumulator(), zerolog.Nop())
}

func strptr(s string) *string { return &s }

// ─── Progress store ─────────────────────────────────────────────────

func TestProgressSingleActiveExam(t *testing.T) {
	kv := NewMemKV()
	p := NewProgress(kv)

	examA := &model.Exam{ID: uuid.New()}
	examB := &model.Exam{ID: uuid.New()}

	p.SetActiveExam(examA)
	p.SetActiveExam(examB)

	if got := p.ActiveExamID(); got != examB.ID.String() {
		t.Errorf("ActiveExamID = %q, want %q (no stacking)", got, examB.ID)
	}
}

func TestProgressLazyHydration(t *testing.T) {
	kv := NewMemKV()
	exam := &model.Exam{ID: uuid.New()}

	first := NewProgress(kv)
	first.SetActiveExam(exam)
	first.SetCursor(3)

	// A rebuilt store over the same namespace must see the durable state.
	second := NewProgress(kv)
	if got := second.ActiveExamID(); got != exam.ID.String() {
		t.Errorf("rehydrated ActiveExamID = %q, want %q", got, exam.ID)
	}
	if got := second.Cursor(); got != 3 {
		t.Errorf("rehydrated Cursor = %d, want 3", got)
	}
}

func TestProgressClearIdempotent(t *testing.T) {
	kv := NewMemKV()
	p := NewProgress(kv)
	p.SetActiveExam(&model.Exam{ID: uuid.New()})

	p.Clear()
	p.Clear()

	if got := p.ActiveExamID(); got != "" {
		t.Errorf("ActiveExamID after double clear = %q, want empty", got)
	}
	if _, ok := kv.Get(keyExamID); ok {
		t.Error("durable exam id survived clear")
	}
}

// ─── Result accumulator ─────────────────────────────────────────────

func TestAccumulatorAppendOrder(t *testing.T) {
	a := NewAccumulator()
	ids := make([]uuid.UUID, 5)
	for i := range ids {
		ids[i] = uuid.New()
		a.Append(model.QuestionResult{QuestionID: ids[i], TimeTaken: i})
	}

	drained := a.Drain()
	if len(drained) != len(ids) {
		t.Fatalf("drained %d results, want %d", len(drained), len(ids))
	}
	for i, r := range drained {
		if r.QuestionID != ids[i] {
			t.Errorf("position %d: got %s, want %s", i, r.QuestionID, ids[i])
		}
	}
	if a.Len() != 0 {
		t.Errorf("accumulator not empty after drain: %d", a.Len())
	}
}

func TestAccumulatorDuplicatesKept(t *testing.T) {
	a := NewAccumulator()
	id := uuid.New()
	a.Append(model.QuestionResult{QuestionID: id})
	a.Append(model.QuestionResult{QuestionID: id})

	if got := len(a.Drain()); got != 2 {
		t.Errorf("duplicate appends collapsed: got %d entries, want 2", got)
	}
}

func TestAccumulatorRestore(t *testing.T) {
	a := NewAccumulator()
	first := uuid.New()
	later := uuid.New()
	a.Append(model.QuestionResult{QuestionID: first})

	batch := a.Drain()
	a.Append(model.QuestionResult{QuestionID: later})
	a.Restore(batch)

	out := a.Drain()
	if len(out) != 2 || out[0].QuestionID != first || out[1].QuestionID != later {
		t.Errorf("restore did not keep order: %v", out)
	}
}

// ─── Controller traversal ───────────────────────────────────────────

func TestNextQuestionDeterminism(t *testing.T) {
	store := newFakeStore()
	exam := seedExam(store, model.ExamTypeMathDiagnostic, 3)
	c := newTestController(store, &fakeDiag{}, &fakeNav{}, NewMemKV())
	ctx := context.Background()

	if err := c.LoadExam(ctx, exam.ID); err != nil {
		t.Fatalf("LoadExam: %v", err)
	}

	// No current question → first in sequence.
	next, ok := c.NextQuestionID()
	if !ok || next != exam.Questions[0] {
		t.Fatalf("fresh session next = %s ok=%v, want %s", next, ok, exam.Questions[0])
	}

	if err := c.LoadQuestion(ctx, exam.Questions[0]); err != nil {
		t.Fatalf("LoadQuestion: %v", err)
	}
	next, ok = c.NextQuestionID()
	if !ok || next != exam.Questions[1] {
		t.Fatalf("after q1 next = %s ok=%v, want %s", next, ok, exam.Questions[1])
	}

	if err := c.LoadQuestion(ctx, exam.Questions[2]); err != nil {
		t.Fatalf("LoadQuestion: %v", err)
	}
	if _, ok = c.NextQuestionID(); ok {
		t.Error("last question still reported a next question")
	}
}

func TestForeignQuestionDistinctFromEndOfExam(t *testing.T) {
	store := newFakeStore()
	exam := seedExam(store, model.ExamTypeVerbalDiagnostic, 2)
	stray := &model.SatQuestion{ID: uuid.New(), CorrectAnswer: "C"}
	store.questions[stray.ID] = stray

	c := newTestController(store, &fakeDiag{}, &fakeNav{}, NewMemKV())
	ctx := context.Background()

	if err := c.LoadExam(ctx, exam.ID); err != nil {
		t.Fatalf("LoadExam: %v", err)
	}
	if err := c.LoadQuestion(ctx, stray.ID); err != nil {
		t.Fatalf("LoadQuestion: %v", err)
	}

	if c.IsLastQuestion() {
		t.Error("foreign question treated as last question")
	}
	if _, err := c.Submit(ctx, strptr("C"), 5); !errors.Is(err, ErrQuestionNotInExam) {
		t.Errorf("Submit error = %v, want ErrQuestionNotInExam", err)
	}
}

func TestFullModuleTraversal(t *testing.T) {
	store := newFakeStore()
	exam := seedExam(store, model.ExamTypeMathDiagnostic, 2)
	diag := &fakeDiag{}
	nav := &fakeNav{}
	kv := NewMemKV()
	c := newTestController(store, diag, nav, kv)
	ctx := context.Background()

	if err := c.LoadExam(ctx, exam.ID); err != nil {
		t.Fatalf("LoadExam: %v", err)
	}

	// Answer q1 correctly in 42s.
	first, _ := c.NextQuestionID()
	if err := c.LoadQuestion(ctx, first); err != nil {
		t.Fatalf("LoadQuestion: %v", err)
	}
	step, err := c.Submit(ctx, strptr("A"), 42)
	if err != nil {
		t.Fatalf("Submit q1: %v", err)
	}
	if c.acc.Len() != 1 {
		t.Fatalf("accumulator holds %d entries after q1, want 1", c.acc.Len())
	}
	if step.Finalized || step.QuestionID != exam.Questions[1] {
		t.Fatalf("step after q1 = %+v, want advance to q2", step)
	}

	// Answer q2 (last, wrong answer) → finalize.
	if err := c.LoadQuestion(ctx, step.QuestionID); err != nil {
		t.Fatalf("LoadQuestion: %v", err)
	}
	if !c.IsLastQuestion() {
		t.Fatal("q2 not recognized as last question")
	}
	step, err = c.Submit(ctx, strptr("B"), 10)
	if err != nil {
		t.Fatalf("Submit q2: %v", err)
	}
	if !step.Finalized || step.Route != RouteModuleSelect {
		t.Fatalf("step after last = %+v, want finalize to module select", step)
	}

	if len(store.created) != 1 {
		t.Fatalf("%d exam results persisted, want 1", len(store.created))
	}
	res := store.created[0]
	if len(res.SingleResult) != 2 {
		t.Fatalf("persisted %d entries, want 2", len(res.SingleResult))
	}
	if res.SingleResult[0].QuestionID != exam.Questions[0] || !res.SingleResult[0].IsCorrect {
		t.Errorf("entry 0 wrong: %+v", res.SingleResult[0])
	}
	if res.SingleResult[0].TimeTaken != 42 {
		t.Errorf("entry 0 time = %d, want 42", res.SingleResult[0].TimeTaken)
	}
	if res.SingleResult[1].QuestionID != exam.Questions[1] || res.SingleResult[1].IsCorrect {
		t.Errorf("entry 1 wrong: %+v", res.SingleResult[1])
	}

	// Session progress cleared exactly once, controller finalized.
	if got := c.progress.ActiveExamID(); got != "" {
		t.Errorf("ActiveExamID after finalize = %q, want empty", got)
	}
	if c.Phase() != PhaseFinalized {
		t.Errorf("phase = %v, want PhaseFinalized", c.Phase())
	}
	if diag.math == nil || *diag.math != res.ID {
		t.Error("diagnostic math pointer not set to new result")
	}
}

func TestSkipRecordsNullAnswer(t *testing.T) {
	store := newFakeStore()
	exam := seedExam(store, model.ExamTypeVerbalDiagnostic, 2)
	c := newTestController(store, &fakeDiag{}, &fakeNav{}, NewMemKV())
	ctx := context.Background()

	if err := c.LoadExam(ctx, exam.ID); err != nil {
		t.Fatalf("LoadExam: %v", err)
	}
	if err := c.LoadQuestion(ctx, exam.Questions[0]); err != nil {
		t.Fatalf("LoadQuestion: %v", err)
	}
	if _, err := c.Submit(ctx, nil, 17); err != nil {
		t.Fatalf("Submit skip: %v", err)
	}

	got := c.acc.Drain()[0]
	if got.UserAnswer != nil || got.TimeTaken != 0 || got.IsCorrect {
		t.Errorf("skip recorded as %+v, want null answer, zero time, incorrect", got)
	}
}

func TestFinalizeFailureRestoresResults(t *testing.T) {
	store := newFakeStore()
	exam := seedExam(store, model.ExamTypeMathDiagnostic, 1)
	nav := &fakeNav{}
	c := newTestController(store, &fakeDiag{}, nav, NewMemKV())
	ctx := context.Background()

	if err := c.LoadExam(ctx, exam.ID); err != nil {
		t.Fatalf("LoadExam: %v", err)
	}
	if err := c.LoadQuestion(ctx, exam.Questions[0]); err != nil {
		t.Fatalf("LoadQuestion: %v", err)
	}

	store.createErr = errors.New("record store down")
	if _, err := c.Submit(ctx, strptr("A"), 9); err == nil {
		t.Fatal("Submit succeeded despite persistence failure")
	}

	if c.Phase() != PhaseStuck {
		t.Errorf("phase = %v, want PhaseStuck", c.Phase())
	}
	if c.acc.Len() != 1 {
		t.Errorf("drained results lost on failure: accumulator holds %d", c.acc.Len())
	}
	if len(nav.routes) != 0 {
		t.Errorf("navigation proceeded on failure: %v", nav.routes)
	}
	if got := c.progress.ActiveExamID(); got != exam.ID.String() {
		t.Errorf("progress cleared on failure: %q", got)
	}

	// Manual retry after the store recovers is the recovery path.
	store.createErr = nil
	step, err := c.Finalize(ctx)
	if err != nil {
		t.Fatalf("retry Finalize: %v", err)
	}
	if !step.Finalized || len(store.created[0].SingleResult) != 1 {
		t.Errorf("retry did not persist the retained results: %+v", step)
	}
}

func TestSecondModuleRoutesToGenerateResults(t *testing.T) {
	store := newFakeStore()
	verbal := seedExam(store, model.ExamTypeVerbalDiagnostic, 1)
	math := seedExam(store, model.ExamTypeMathDiagnostic, 1)
	diag := &fakeDiag{}
	nav := &fakeNav{}
	ctx := context.Background()

	run := func(exam *model.Exam) *NextStep {
		t.Helper()
		c := newTestController(store, diag, nav, NewMemKV())
		if err := c.LoadExam(ctx, exam.ID); err != nil {
			t.Fatalf("LoadExam: %v", err)
		}
		if err := c.LoadQuestion(ctx, exam.Questions[0]); err != nil {
			t.Fatalf("LoadQuestion: %v", err)
		}
		step, err := c.Submit(ctx, strptr("A"), 3)
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		return step
	}

	if step := run(verbal); step.Route != RouteModuleSelect {
		t.Errorf("after first module route = %q, want module select", step.Route)
	}
	if step := run(math); step.Route != RouteGenerateResults {
		t.Errorf("after second module route = %q, want generate results", step.Route)
	}
	if nav.routes[len(nav.routes)-1] != RouteGenerateResults {
		t.Errorf("navigator saw %v, want generate-results last", nav.routes)
	}
}

func TestPhaseRewindsBetweenModules(t *testing.T) {
	store := newFakeStore()
	first := seedExam(store, model.ExamTypeVerbalDiagnostic, 1)
	second := seedExam(store, model.ExamTypeMathDiagnostic, 2)
	ctx := context.Background()

	c := newTestController(store, &fakeDiag{}, &fakeNav{}, NewMemKV())
	if err := c.LoadExam(ctx, first.ID); err != nil {
		t.Fatalf("LoadExam: %v", err)
	}
	if err := c.LoadQuestion(ctx, first.Questions[0]); err != nil {
		t.Fatalf("LoadQuestion: %v", err)
	}
	if _, err := c.Submit(ctx, strptr("A"), 3); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if c.Phase() != PhaseFinalized {
		t.Fatalf("after first module phase = %v, want finalized", c.Phase())
	}

	// Loading the next module on the same controller rewinds the state
	// machine; a stale terminal phase would disable forced expiry.
	if err := c.LoadExam(ctx, second.ID); err != nil {
		t.Fatalf("LoadExam second: %v", err)
	}
	if c.Phase() != PhaseNotStarted {
		t.Errorf("after LoadExam phase = %v, want not started", c.Phase())
	}
	if c.CurrentQuestion() != nil {
		t.Error("previous module's question survived LoadExam")
	}
	if err := c.LoadQuestion(ctx, second.Questions[0]); err != nil {
		t.Fatalf("LoadQuestion second: %v", err)
	}
	if c.Phase() != PhaseInProgress {
		t.Errorf("mid-module phase = %v, want in progress", c.Phase())
	}
}

func TestExpiredFinalizeRecordsRemainingAsSkips(t *testing.T) {
	store := newFakeStore()
	exam := seedExam(store, model.ExamTypeMathDiagnostic, 4)
	ctx := context.Background()

	c := newTestController(store, &fakeDiag{}, &fakeNav{}, NewMemKV())
	if err := c.LoadExam(ctx, exam.ID); err != nil {
		t.Fatalf("LoadExam: %v", err)
	}

	// Answer the first two questions, then run out the clock.
	for i := 0; i < 2; i++ {
		if err := c.LoadQuestion(ctx, exam.Questions[i]); err != nil {
			t.Fatalf("LoadQuestion %d: %v", i, err)
		}
		if _, err := c.Submit(ctx, strptr("A"), 5); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}

	step, err := c.FinalizeExpired(ctx)
	if err != nil {
		t.Fatalf("FinalizeExpired: %v", err)
	}
	if !step.Finalized {
		t.Fatal("expiry did not finalize")
	}

	got := store.created[0].SingleResult
	if len(got) != 4 {
		t.Fatalf("result has %d entries, want the full sequence of 4", len(got))
	}
	for i := 0; i < 2; i++ {
		if got[i].UserAnswer == nil || !got[i].IsCorrect {
			t.Errorf("entry %d lost the submitted answer: %+v", i, got[i])
		}
	}
	for i := 2; i < 4; i++ {
		if got[i].QuestionID != exam.Questions[i] {
			t.Errorf("entry %d = question %s, want sequence order kept", i, got[i].QuestionID)
		}
		if got[i].UserAnswer != nil || got[i].IsCorrect || got[i].TimeTaken != 0 {
			t.Errorf("entry %d is not a skip: %+v", i, got[i])
		}
	}
}

func TestExpiredFinalizeWithoutExam(t *testing.T) {
	c := newTestController(newFakeStore(), &fakeDiag{}, &fakeNav{}, NewMemKV())
	if _, err := c.FinalizeExpired(context.Background()); !errors.Is(err, ErrNoActiveExam) {
		t.Fatalf("err = %v, want ErrNoActiveExam", err)
	}
}
