package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prepnest/satdiag-backend/internal/middleware"
	"github.com/prepnest/satdiag-backend/internal/model"
	"github.com/prepnest/satdiag-backend/internal/response"
	"github.com/prepnest/satdiag-backend/internal/service"
	"github.com/prepnest/satdiag-backend/internal/session"
	"github.com/prepnest/satdiag-backend/internal/validator"
)

// SubmitAnswerRequest is the HTTP body for an answer submission. A null
// answer is an explicit skip.
type SubmitAnswerRequest struct {
	Answer *string `json:"answer" binding:"omitempty,oneof=A B C D"`
}

// DiagnosticHandler drives the student exam-taking flow.
type DiagnosticHandler struct {
	attemptService *service.AttemptService
	examService    *service.ExamService
	diagService    *service.DiagnosticService
}

// NewDiagnosticHandler creates a new DiagnosticHandler.
func NewDiagnosticHandler(
	attemptService *service.AttemptService,
	examService *service.ExamService,
	diagService *service.DiagnosticService,
) *DiagnosticHandler {
	return &DiagnosticHandler{
		attemptService: attemptService,
		examService:    examService,
		diagService:    diagService,
	}
}

// ListModules godoc
// GET /api/v1/student/modules
// Returns the diagnostic modules with per-user attempted flags.
func (h *DiagnosticHandler) ListModules(c *gin.Context) {
	claims := middleware.GetClaims(c)
	modules, err := h.attemptService.Modules(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"modules": modules})
}

// StartModule godoc
// POST /api/v1/student/modules/:type/start
// Loads the module of the given type into the session and arms the clock.
func (h *DiagnosticHandler) StartModule(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var examType model.ExamType
	switch c.Param("type") {
	case "verbal":
		examType = model.ExamTypeVerbalDiagnostic
	case "math":
		examType = model.ExamTypeMathDiagnostic
	default:
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	state, err := h.attemptService.StartModule(c.Request.Context(), claims.UserID, examType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrModuleFinished):
			response.Fail(c, http.StatusConflict, response.ErrModuleFinished)
		case errors.Is(err, service.ErrNoAttempt):
			response.Fail(c, http.StatusNotFound, response.ErrNoActiveExam)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, state)
}

// GetPayload godoc
// GET /api/v1/student/exams/:exam_id/payload
// Returns the cached student-facing exam payload.
func (h *DiagnosticHandler) GetPayload(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	payload, err := h.examService.GetExamPayload(c.Request.Context(), examID)
	if err != nil {
		if errors.Is(err, service.ErrExamNotCached) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, payload)
}

// LoadQuestion godoc
// GET /api/v1/student/questions/:question_id
// Displays a question and starts its stopwatch.
func (h *DiagnosticHandler) LoadQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)

	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	q, err := h.attemptService.LoadQuestion(c.Request.Context(), claims.UserID, questionID)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNoActiveExam):
			response.Fail(c, http.StatusConflict, response.ErrNoActiveExam)
		case errors.Is(err, service.ErrNoAttempt):
			response.Fail(c, http.StatusNotFound, response.ErrNoActiveExam)
		default:
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": q})
}

// SubmitAnswer godoc
// POST /api/v1/student/answers
// Records the answer for the displayed question and returns what comes
// next: a question id, or the route after finalization.
func (h *DiagnosticHandler) SubmitAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrValidation, fields)
		return
	}

	step, err := h.attemptService.SubmitAnswer(c.Request.Context(), claims.UserID, req.Answer)
	if err != nil {
		h.failStep(c, err)
		return
	}

	response.Success(c, http.StatusOK, step)
}

// Finalize godoc
// POST /api/v1/student/finalize
// Retries a finalize that previously failed to persist. The session
// still holds the results, so this completes the module.
func (h *DiagnosticHandler) Finalize(c *gin.Context) {
	claims := middleware.GetClaims(c)

	step, err := h.attemptService.Finalize(c.Request.Context(), claims.UserID)
	if err != nil {
		h.failStep(c, err)
		return
	}

	response.Success(c, http.StatusOK, step)
}

// GetState godoc
// GET /api/v1/student/state
// Returns the resumable attempt state after a reload.
func (h *DiagnosticHandler) GetState(c *gin.Context) {
	claims := middleware.GetClaims(c)

	state, err := h.attemptService.State(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrNoAttempt) {
			response.Fail(c, http.StatusNotFound, response.ErrNoActiveExam)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	diag, err := h.diagService.GetByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"attempt":    state,
		"diagnostic": diag,
	})
}

func (h *DiagnosticHandler) failStep(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrNoActiveExam):
		response.Fail(c, http.StatusConflict, response.ErrNoActiveExam)
	case errors.Is(err, session.ErrNoQuestionDisplayed):
		response.Fail(c, http.StatusConflict, response.ErrNoQuestionShown)
	case errors.Is(err, session.ErrQuestionNotInExam):
		response.Fail(c, http.StatusConflict, response.ErrQuestionNotInExam)
	case errors.Is(err, service.ErrNoAttempt):
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveExam)
	default:
		response.Fail(c, http.StatusBadGateway, response.ErrPersistenceFailed)
	}
}
