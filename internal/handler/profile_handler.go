package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prepnest/satdiag-backend/internal/middleware"
	"github.com/prepnest/satdiag-backend/internal/model"
	"github.com/prepnest/satdiag-backend/internal/response"
	"github.com/prepnest/satdiag-backend/internal/service"
	"github.com/prepnest/satdiag-backend/internal/validator"
)

// ProfileHandler handles the student intake form.
type ProfileHandler struct {
	profileService *service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// SaveProfile godoc
// POST /api/v1/student/profile
// Captures the intake form: name, email, exam date and target score.
func (h *ProfileHandler) SaveProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.CreateProfileRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrValidation, fields)
		return
	}

	profile, err := h.profileService.Save(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"profile": profile})
}

// GetProfile godoc
// GET /api/v1/student/profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)

	profile, err := h.profileService.GetByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"profile": profile})
}
