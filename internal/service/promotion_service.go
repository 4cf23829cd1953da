package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/events"
	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type seatClaimer interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ClaimSeat(ctx context.Context, id string) (bool, error)
}

type waitlistManager interface {
	NextEligible(ctx context.Context, courseID string) (*models.WaitlistEntry, error)
	Dequeue(ctx context.Context, entryID string) (*models.WaitlistEntry, error)
	NotifyPromotion(ctx context.Context, entry *models.WaitlistEntry) error
}

type admitter interface {
	Admit(ctx context.Context, req AdmitRequest) (*models.Registration, error)
}

type promotionRecorder interface {
	RecordPromotion(result string)
}

// PromotionService reacts to a seat becoming available by offering it to the
// waitlist head. All promotion work for a course runs under that course's
// lock so two concurrent triggers cannot both consume the same freed seat.
type PromotionService struct {
	courses  seatClaimer
	waitlist waitlistManager
	admitter admitter
	sink     eventSink
	metrics  promotionRecorder
	logger   *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPromotionService constructs PromotionService.
func NewPromotionService(courses seatClaimer, waitlist waitlistManager, admitter admitter, sink eventSink, metrics promotionRecorder, logger *zap.Logger) *PromotionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PromotionService{
		courses:  courses,
		waitlist: waitlist,
		admitter: admitter,
		sink:     sink,
		metrics:  metrics,
		logger:   logger,
		locks:    map[string]*sync.Mutex{},
	}
}

// TryPromote offers a freed seat to the next eligible waitlisted student.
// Best-effort with at most one admission attempt per trigger: if the head
// entry fails admission (their circumstances may have changed since they
// queued) it stays queued, the seat stays available for the next trigger, and
// no further entries are tried. The semester is the one the freed
// registration belonged to.
func (s *PromotionService) TryPromote(ctx context.Context, courseID, semester string) error {
	lock := s.courseLock(courseID)
	lock.Lock()
	defer lock.Unlock()

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.AvailableSeats <= 0 {
		return nil
	}

	entry, err := s.waitlist.NextEligible(ctx, courseID)
	if err != nil {
		return err
	}
	if entry == nil {
		return nil
	}

	registration, err := s.admitter.Admit(ctx, AdmitRequest{
		StudentID: entry.StudentID,
		CourseID:  entry.CourseID,
		Semester:  semester,
	})
	if err != nil {
		s.record("failed")
		s.logger.Warn("waitlisted student failed re-admission, entry stays queued",
			zap.String("course_id", courseID),
			zap.String("student_id", entry.StudentID),
			zap.Error(err))
		return nil
	}

	if _, err := s.waitlist.Dequeue(ctx, entry.ID); err != nil {
		return err
	}
	if err := s.waitlist.NotifyPromotion(ctx, entry); err != nil {
		return err
	}

	claimed, err := s.courses.ClaimSeat(ctx, courseID)
	if err != nil {
		return err
	}
	if !claimed {
		// The guard refused the decrement; only possible if seats were
		// mutated outside the course lock.
		s.logger.Error("promotion admitted a student but no seat could be claimed",
			zap.String("course_id", courseID),
			zap.String("registration_id", registration.ID))
	}

	s.record("promoted")
	if s.sink != nil {
		if err := s.sink.Publish(ctx, events.Event{
			Type:          events.TypeWaitlistPromoted,
			Registration:  registration,
			WaitlistEntry: entry,
			OccurredAt:    time.Now().UTC(),
		}); err != nil {
			s.logger.Warn("failed to publish promotion event", zap.Error(err))
		}
	}

	s.logger.Info("waitlisted student promoted",
		zap.String("course_id", courseID),
		zap.String("student_id", entry.StudentID),
		zap.String("registration_id", registration.ID))
	return nil
}

func (s *PromotionService) courseLock(courseID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[courseID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[courseID] = lock
	}
	return lock
}

func (s *PromotionService) record(result string) {
	if s.metrics != nil {
		s.metrics.RecordPromotion(result)
	}
}
