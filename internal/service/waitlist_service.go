package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type waitlistRepository interface {
	FindByID(ctx context.Context, id string) (*models.WaitlistEntry, error)
	Exists(ctx context.Context, studentID, courseID string) (bool, error)
	CountByCourse(ctx context.Context, courseID string) (int, error)
	Create(ctx context.Context, entry *models.WaitlistEntry) error
	Delete(ctx context.Context, id string) error
	ListByCourse(ctx context.Context, courseID string) ([]models.WaitlistEntry, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.WaitlistEntry, error)
	FindHeadByCourse(ctx context.Context, courseID string) (*models.WaitlistEntry, error)
	RecomputePositions(ctx context.Context, courseID string) error
	MarkNotified(ctx context.Context, id string, at time.Time) error
}

type waitlistRecorder interface {
	SetWaitlistDepth(courseID string, depth int)
}

// EnqueueRequest describes a waitlist enqueue attempt.
type EnqueueRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
}

// WaitlistService maintains the ordered queue of students waiting for a seat.
// Positions for a course are always contiguous 1..N ordered by enqueue time;
// every mutation ends with a recompute.
type WaitlistService struct {
	repo            waitlistRepository
	students        studentReader
	courses         courseReader
	metrics         waitlistRecorder
	defaultCapacity int
	validator       *validator.Validate
	logger          *zap.Logger

	now func() time.Time
}

// NewWaitlistService constructs WaitlistService.
func NewWaitlistService(repo waitlistRepository, students studentReader, courses courseReader, metrics waitlistRecorder, defaultCapacity int, validate *validator.Validate, logger *zap.Logger) *WaitlistService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultCapacity <= 0 {
		defaultCapacity = 20
	}
	return &WaitlistService{
		repo:            repo,
		students:        students,
		courses:         courses,
		metrics:         metrics,
		defaultCapacity: defaultCapacity,
		validator:       validate,
		logger:          logger,
		now:             time.Now,
	}
}

// Enqueue appends a student to a course's waitlist. A student holds at most
// one live entry per course, and the queue is bounded by the course's
// waitlist capacity.
func (s *WaitlistService) Enqueue(ctx context.Context, req EnqueueRequest) (*models.WaitlistEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid waitlist payload")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	exists, err := s.repo.Exists(ctx, req.StudentID, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check waitlist")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrAlreadyWaitlisted, "")
	}

	depth, err := s.repo.CountByCourse(ctx, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to measure waitlist")
	}
	capacity := course.WaitlistCapacity
	if capacity <= 0 {
		capacity = s.defaultCapacity
	}
	if depth >= capacity {
		return nil, appErrors.Clone(appErrors.ErrWaitlistFull,
			fmt.Sprintf("waitlist for %s is full (%d entries)", course.Title, capacity))
	}

	entry := &models.WaitlistEntry{
		StudentID:  req.StudentID,
		CourseID:   req.CourseID,
		EnqueuedAt: s.now().UTC(),
		Position:   depth + 1,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create waitlist entry")
	}
	if err := s.repo.RecomputePositions(ctx, req.CourseID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to recompute waitlist positions")
	}
	s.observeDepth(req.CourseID, depth+1)
	return entry, nil
}

// Dequeue removes an entry and closes the gap it leaves: remaining entries
// for the course are re-ranked 1..N by enqueue time.
func (s *WaitlistService) Dequeue(ctx context.Context, entryID string) (*models.WaitlistEntry, error) {
	entry, err := s.repo.FindByID(ctx, entryID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "waitlist entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load waitlist entry")
	}
	if err := s.repo.Delete(ctx, entryID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete waitlist entry")
	}
	if err := s.repo.RecomputePositions(ctx, entry.CourseID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to recompute waitlist positions")
	}
	if depth, err := s.repo.CountByCourse(ctx, entry.CourseID); err == nil {
		s.observeDepth(entry.CourseID, depth)
	}
	return entry, nil
}

// NextEligible returns the FIFO head of a course queue without mutating it,
// or nil when the queue is empty.
func (s *WaitlistService) NextEligible(ctx context.Context, courseID string) (*models.WaitlistEntry, error) {
	entry, err := s.repo.FindHeadByCourse(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read waitlist head")
	}
	return entry, nil
}

// NotifyPromotion stamps the promotion acknowledgment on an entry. It does
// not perform the registration; the coordinator has already done that.
func (s *WaitlistService) NotifyPromotion(ctx context.Context, entry *models.WaitlistEntry) error {
	at := s.now().UTC()
	if err := s.repo.MarkNotified(ctx, entry.ID, at); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark waitlist entry notified")
	}
	entry.Notified = true
	entry.NotificationSentAt = &at
	return nil
}

// ListByCourse returns a course queue ordered by enqueue time.
func (s *WaitlistService) ListByCourse(ctx context.Context, courseID string) ([]models.WaitlistEntry, error) {
	entries, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course waitlist")
	}
	return entries, nil
}

// ListByStudent returns every queue the student waits in.
func (s *WaitlistService) ListByStudent(ctx context.Context, studentID string) ([]models.WaitlistEntry, error) {
	entries, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student waitlist")
	}
	return entries, nil
}

func (s *WaitlistService) observeDepth(courseID string, depth int) {
	if s.metrics != nil {
		s.metrics.SetWaitlistDepth(courseID, depth)
	}
}
