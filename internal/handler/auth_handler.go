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
	"github.com/prepnest/satdiag-backend/internal/validator"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService    *service.AuthService
	diagService    *service.DiagnosticService
	attemptService *service.AttemptService
	tutorService   *service.TutorService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	authService *service.AuthService,
	diagService *service.DiagnosticService,
	attemptService *service.AttemptService,
	tutorService *service.TutorService,
) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		diagService:    diagService,
		attemptService: attemptService,
		tutorService:   tutorService,
	}
}

// StartSession godoc
// POST /api/v1/auth/start
// Anonymous student sign-in: mints a user id, creates the diagnostic
// record and the attempt namespace, and returns a student token.
func (h *AuthHandler) StartSession(c *gin.Context) {
	userID := uuid.New()

	token, err := h.authService.GenerateStudentToken(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrSessionAlreadyActive) {
			response.Fail(c, http.StatusConflict, response.ErrSessionActive)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	diag, err := h.diagService.CreateForUser(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	attemptID, err := h.attemptService.StartAttempt(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"token":         token,
		"user_id":       userID,
		"diagnostic_id": diag.ID,
		"attempt_id":    attemptID,
	})
}

// TutorLogin godoc
// POST /api/v1/auth/tutor/login
// Authenticates a tutor with email and password.
func (h *AuthHandler) TutorLogin(c *gin.Context) {
	var req model.TutorLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrValidation, fields)
		return
	}

	resp, err := h.tutorService.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// Logout godoc
// POST /api/v1/auth/logout
// Ends the current student session.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.ResetStudentSession(c.Request.Context(), claims.UserID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
