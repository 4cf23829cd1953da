package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/internal/service"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
	"github.com/noah-isme/course-registration-api/pkg/response"
)

type registrationService interface {
	Admit(ctx context.Context, req service.AdmitRequest) (*models.Registration, error)
	BatchAdmit(ctx context.Context, reqs []service.AdmitRequest) ([]service.BatchResult, error)
	UpdateStatus(ctx context.Context, id string, req service.UpdateStatusRequest, updatedBy string) (*models.Registration, error)
	Cancel(ctx context.Context, id, cancelledBy string) (*models.Registration, error)
	Timetable(ctx context.Context, studentID string) ([]models.RegistrationDetail, error)
	History(ctx context.Context, studentID string) ([]models.RegistrationDetail, error)
	CurrentPeriod(ctx context.Context) (*models.RegistrationPeriod, error)
}

type exportService interface {
	TimetableCSV(ctx context.Context, studentID string) ([]byte, error)
	TimetablePDF(ctx context.Context, studentID string) ([]byte, error)
}

// RegistrationHandler exposes admission and lifecycle endpoints.
type RegistrationHandler struct {
	registrations registrationService
	exports       exportService
}

// NewRegistrationHandler constructs RegistrationHandler. The export service is
// optional; without it the export endpoint reports not found.
func NewRegistrationHandler(registrations registrationService, exports exportService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations, exports: exports}
}

// Register godoc
// @Summary Register a student for a course
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body service.AdmitRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Router /registrations/register [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req service.AdmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	registration, err := h.registrations.Admit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, registration)
}

// Batch godoc
// @Summary Register a student for multiple courses
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body []service.AdmitRequest true "Registration payloads"
// @Success 200 {object} response.Envelope
// @Router /registrations/batch [post]
func (h *RegistrationHandler) Batch(c *gin.Context) {
	var reqs []service.AdmitRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	results, err := h.registrations.BatchAdmit(c.Request.Context(), reqs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// UpdateStatus godoc
// @Summary Approve, reject or cancel a pending registration
// @Tags Registrations
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Param payload body service.UpdateStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /registrations/{id}/status [put]
func (h *RegistrationHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	registration, err := h.registrations.UpdateStatus(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, registration, nil)
}

// Cancel godoc
// @Summary Cancel a registration
// @Tags Registrations
// @Produce json
// @Param id path string true "Registration ID"
// @Success 200 {object} response.Envelope
// @Router /registrations/{id} [delete]
func (h *RegistrationHandler) Cancel(c *gin.Context) {
	registration, err := h.registrations.Cancel(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, registration, nil)
}

// History godoc
// @Summary Registration history for a student
// @Tags Registrations
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /registrations/history/{studentId} [get]
func (h *RegistrationHandler) History(c *gin.Context) {
	registrations, err := h.registrations.History(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, registrations, nil)
}

// Timetable godoc
// @Summary Approved timetable for a student
// @Tags Registrations
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /registrations/timetable/{studentId} [get]
func (h *RegistrationHandler) Timetable(c *gin.Context) {
	timetable, err := h.registrations.Timetable(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}

// ExportTimetable godoc
// @Summary Export the approved timetable as CSV or PDF
// @Tags Registrations
// @Produce octet-stream
// @Param studentId path string true "Student ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /registrations/timetable/{studentId}/export [get]
func (h *RegistrationHandler) ExportTimetable(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "exports are disabled"))
		return
	}
	studentID := c.Param("studentId")
	format := c.DefaultQuery("format", "csv")
	var (
		payload     []byte
		contentType string
		filename    string
		err         error
	)
	switch format {
	case "csv":
		payload, err = h.exports.TimetableCSV(c.Request.Context(), studentID)
		contentType = "text/csv"
		filename = fmt.Sprintf("timetable-%s.csv", studentID)
	case "pdf":
		payload, err = h.exports.TimetablePDF(c.Request.Context(), studentID)
		contentType = "application/pdf"
		filename = fmt.Sprintf("timetable-%s.pdf", studentID)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

// CurrentPeriod godoc
// @Summary Currently active registration period
// @Tags Registrations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /registrations/periods/current [get]
func (h *RegistrationHandler) CurrentPeriod(c *gin.Context) {
	period, err := h.registrations.CurrentPeriod(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}
