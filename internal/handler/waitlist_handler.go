package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/internal/service"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
	"github.com/noah-isme/course-registration-api/pkg/response"
)

type waitlistService interface {
	Enqueue(ctx context.Context, req service.EnqueueRequest) (*models.WaitlistEntry, error)
	Dequeue(ctx context.Context, entryID string) (*models.WaitlistEntry, error)
	NextEligible(ctx context.Context, courseID string) (*models.WaitlistEntry, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.WaitlistEntry, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.WaitlistEntry, error)
}

// WaitlistHandler exposes waitlist queue endpoints.
type WaitlistHandler struct {
	waitlist waitlistService
}

// NewWaitlistHandler constructs WaitlistHandler.
func NewWaitlistHandler(waitlist waitlistService) *WaitlistHandler {
	return &WaitlistHandler{waitlist: waitlist}
}

// Add godoc
// @Summary Add a student to a course waitlist
// @Tags Waitlist
// @Accept json
// @Produce json
// @Param payload body service.EnqueueRequest true "Waitlist payload"
// @Success 201 {object} response.Envelope
// @Router /waitlist [post]
func (h *WaitlistHandler) Add(c *gin.Context) {
	var req service.EnqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.waitlist.Enqueue(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// ByCourse godoc
// @Summary Waitlist for a course, ordered by enqueue time
// @Tags Waitlist
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /waitlist/course/{courseId} [get]
func (h *WaitlistHandler) ByCourse(c *gin.Context) {
	entries, err := h.waitlist.ListByCourse(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// ByStudent godoc
// @Summary Waitlist entries held by a student
// @Tags Waitlist
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /waitlist/student/{studentId} [get]
func (h *WaitlistHandler) ByStudent(c *gin.Context) {
	entries, err := h.waitlist.ListByStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Next godoc
// @Summary Next student eligible for promotion on a course
// @Tags Waitlist
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /waitlist/next/{courseId} [get]
func (h *WaitlistHandler) Next(c *gin.Context) {
	entry, err := h.waitlist.NextEligible(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if entry == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "waitlist is empty"))
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Remove godoc
// @Summary Remove a waitlist entry
// @Tags Waitlist
// @Produce json
// @Param entryId path string true "Waitlist entry ID"
// @Success 200 {object} response.Envelope
// @Router /waitlist/{entryId} [delete]
func (h *WaitlistHandler) Remove(c *gin.Context) {
	entry, err := h.waitlist.Dequeue(c.Request.Context(), c.Param("entryId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}
