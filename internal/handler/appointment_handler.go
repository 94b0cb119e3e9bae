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

// AppointmentHandler handles consultation bookings.
type AppointmentHandler struct {
	apptService *service.AppointmentService
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(apptService *service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{apptService: apptService}
}

// Book godoc
// POST /api/v1/student/appointments
func (h *AppointmentHandler) Book(c *gin.Context) {
	claims := middleware.GetClaims(c)

	var req model.BookAppointmentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrValidation, fields)
		return
	}

	appt, err := h.apptService.Book(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"appointment": appt})
}

// ListMine godoc
// GET /api/v1/student/appointments
func (h *AppointmentHandler) ListMine(c *gin.Context) {
	claims := middleware.GetClaims(c)

	appts, err := h.apptService.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if appts == nil {
		appts = []model.Appointment{}
	}

	response.Success(c, http.StatusOK, gin.H{"appointments": appts})
}

// ListUpcoming godoc
// GET /api/v1/tutor/appointments
func (h *AppointmentHandler) ListUpcoming(c *gin.Context) {
	limit := 50
	appts, err := h.apptService.ListUpcoming(c.Request.Context(), limit)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if appts == nil {
		appts = []model.Appointment{}
	}

	response.Success(c, http.StatusOK, gin.H{"appointments": appts})
}
