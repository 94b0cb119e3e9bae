package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prepnest/satdiag-backend/internal/model"
	"github.com/prepnest/satdiag-backend/internal/response"
	"github.com/prepnest/satdiag-backend/internal/service"
)

// TutorHandler serves the tutor dashboard.
type TutorHandler struct {
	tutorService     *service.TutorService
	diagService      *service.DiagnosticService
	studyPlanService *service.StudyPlanService
}

// NewTutorHandler creates a new TutorHandler.
func NewTutorHandler(
	tutorService *service.TutorService,
	diagService *service.DiagnosticService,
	studyPlanService *service.StudyPlanService,
) *TutorHandler {
	return &TutorHandler{
		tutorService:     tutorService,
		diagService:      diagService,
		studyPlanService: studyPlanService,
	}
}

// ListDiagnostics godoc
// GET /api/v1/tutor/diagnostics?page=1&per_page=20
// Lists completed diagnostics, newest first.
func (h *TutorHandler) ListDiagnostics(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	diags, total, err := h.diagService.ListComplete(c.Request.Context(), perPage, (page-1)*perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if diags == nil {
		diags = []model.Diagnostic{}
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"diagnostics": diags},
		response.NewPagination(page, perPage, total))
}

// GetStudent godoc
// GET /api/v1/tutor/students/:user_id
// Returns one student's profile and results.
func (h *TutorHandler) GetStudent(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	detail, err := h.tutorService.StudentDetail(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, detail)
}

// GenerateStudyPlan godoc
// POST /api/v1/tutor/students/:user_id/study-plan
// Generates and stores a personalized study plan for the student.
func (h *TutorHandler) GenerateStudyPlan(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	markdown, link, err := h.studyPlanService.Generate(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrDiagnosticIncomplete) {
			response.Fail(c, http.StatusConflict, response.ErrDiagnosticIncomplete)
			return
		}
		response.Fail(c, http.StatusBadGateway, response.ErrPlanGeneration)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"plan": markdown,
		"link": link,
	})
}
