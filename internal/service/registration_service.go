package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/events"
	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type registrationRepository interface {
	FindByID(ctx context.Context, id string) (*models.Registration, error)
	Create(ctx context.Context, registration *models.Registration) error
	UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus, updatedBy string, at time.Time) error
	ListByStudent(ctx context.Context, studentID string) ([]models.RegistrationDetail, error)
	ListNonTerminalByStudentAndSemester(ctx context.Context, studentID, semester string) ([]models.RegistrationDetail, error)
	ListByStudentAndStatus(ctx context.Context, studentID string, status models.RegistrationStatus) ([]models.RegistrationDetail, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type periodGate interface {
	CheckOpen(ctx context.Context, now time.Time, student *models.Student) error
	ResolveCurrent(ctx context.Context) (*models.RegistrationPeriod, error)
}

type eventSink interface {
	Publish(ctx context.Context, event events.Event) error
}

type promoter interface {
	TryPromote(ctx context.Context, courseID, semester string) error
}

type admissionRecorder interface {
	RecordAdmission(result string)
}

// AdmitRequest describes a registration attempt.
type AdmitRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
	Semester  string `json:"semester" validate:"required"`
}

// UpdateStatusRequest carries an admin decision on a pending registration.
type UpdateStatusRequest struct {
	Status models.RegistrationStatus `json:"status" validate:"required,oneof=APPROVED REJECTED CANCELLED"`
}

// BatchResult reports the outcome of one entry in a batch admission.
type BatchResult struct {
	Index        int                  `json:"index"`
	Registration *models.Registration `json:"registration,omitempty"`
	Error        *appErrors.Error     `json:"error,omitempty"`
}

// RegistrationService is the admission checker: it runs the fail-fast rule
// pipeline (existence, period gate, credit load, schedule conflicts), owns
// the registration status machine, and hands seat-freeing transitions to the
// promotion coordinator.
type RegistrationService struct {
	repo      registrationRepository
	students  studentReader
	courses   courseReader
	periods   periodGate
	sink      eventSink
	metrics   admissionRecorder
	validator *validator.Validate
	logger    *zap.Logger

	promoter        promoter
	promoteOnCancel bool
	maxBatchSize    int

	now func() time.Time
}

// RegistrationServiceConfig carries policy toggles.
type RegistrationServiceConfig struct {
	PromoteOnCancel bool
	MaxBatchSize    int
}

// NewRegistrationService constructs RegistrationService.
func NewRegistrationService(repo registrationRepository, students studentReader, courses courseReader, periods periodGate, sink eventSink, metrics admissionRecorder, cfg RegistrationServiceConfig, validate *validator.Validate, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 50
	}
	return &RegistrationService{
		repo:            repo,
		students:        students,
		courses:         courses,
		periods:         periods,
		sink:            sink,
		metrics:         metrics,
		validator:       validate,
		logger:          logger,
		promoteOnCancel: cfg.PromoteOnCancel,
		maxBatchSize:    cfg.MaxBatchSize,
		now:             time.Now,
	}
}

// AttachPromoter wires the promotion coordinator. Set after construction
// because the coordinator admits through this service.
func (s *RegistrationService) AttachPromoter(p promoter) {
	s.promoter = p
}

// Admit runs the admission pipeline and creates a PENDING registration.
// Checks run in a fixed order and the first failure wins: student and course
// resolution, period gate, credit load, schedule conflicts. Seat capacity is
// deliberately not checked here; a full course still accepts a PENDING
// registration and seats are only consumed by waitlist promotion.
func (s *RegistrationService) Admit(ctx context.Context, req AdmitRequest) (*models.Registration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	now := s.now().UTC()

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, s.failAdmission(appErrors.Clone(appErrors.ErrNotFound, "student not found"))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, s.failAdmission(appErrors.Clone(appErrors.ErrNotFound, "course not found"))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	if err := s.periods.CheckOpen(ctx, now, student); err != nil {
		return nil, s.failAdmission(err)
	}

	existing, err := s.repo.ListNonTerminalByStudentAndSemester(ctx, req.StudentID, req.Semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing registrations")
	}

	load := 0
	for _, r := range existing {
		load += r.CourseCredits
	}
	if !CreditLoadFits(load, course.Credits, student.GPA) {
		ceiling := MaxCreditsFor(student.GPA)
		return nil, s.failAdmission(appErrors.Clone(appErrors.ErrCreditLimitExceeded,
			fmt.Sprintf("credit limit exceeded: your GPA allows a max of %d credits", ceiling)))
	}

	if !course.IsOpenCourse {
		for _, r := range existing {
			if SchedulesConflict(course.Schedule, r.CourseSchedule) {
				return nil, s.failAdmission(appErrors.Clone(appErrors.ErrScheduleConflict,
					fmt.Sprintf("schedule conflict with %s (%s)", r.CourseTitle, r.CourseSchedule)))
			}
		}
	}

	registration := &models.Registration{
		StudentID:        req.StudentID,
		CourseID:         req.CourseID,
		Semester:         req.Semester,
		Status:           models.RegistrationStatusPending,
		RegistrationDate: now,
	}
	if err := s.repo.Create(ctx, registration); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create registration")
	}

	s.publish(ctx, events.Event{Type: events.TypeRegistered, Registration: registration, OccurredAt: now})
	if s.metrics != nil {
		s.metrics.RecordAdmission("admitted")
	}
	return registration, nil
}

// BatchAdmit runs Admit for each request, reporting per-item outcomes. One
// failed item does not stop the rest.
func (s *RegistrationService) BatchAdmit(ctx context.Context, reqs []AdmitRequest) ([]BatchResult, error) {
	if len(reqs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "batch is empty")
	}
	if len(reqs) > s.maxBatchSize {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("batch exceeds the maximum of %d registrations", s.maxBatchSize))
	}
	results := make([]BatchResult, 0, len(reqs))
	for i, req := range reqs {
		registration, err := s.Admit(ctx, req)
		if err != nil {
			results = append(results, BatchResult{Index: i, Error: appErrors.FromError(err)})
			continue
		}
		results = append(results, BatchResult{Index: i, Registration: registration})
	}
	return results, nil
}

// UpdateStatus applies an admin decision. A transition to REJECTED frees a
// seat, so the promotion coordinator is invoked fire-and-continue: its
// failure never rolls back the committed status change.
func (s *RegistrationService) UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest, updatedBy string) (*models.Registration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	registration, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	if !registration.Status.CanTransitionTo(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot transition registration from %s to %s", registration.Status, req.Status))
	}

	now := s.now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, req.Status, updatedBy, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update registration status")
	}
	registration.Status = req.Status
	registration.StatusUpdateDate = &now
	registration.UpdatedBy = updatedBy

	s.publish(ctx, events.Event{Type: events.TypeStatusUpdated, Registration: registration, OccurredAt: now})

	if req.Status == models.RegistrationStatusRejected {
		s.triggerPromotion(ctx, registration.CourseID, registration.Semester)
	}
	return registration, nil
}

// Cancel sets the registration CANCELLED, stamping the acting user. When the
// promote-on-cancel policy is enabled the freed seat is offered to the
// waitlist, same as a rejection.
func (s *RegistrationService) Cancel(ctx context.Context, id, cancelledBy string) (*models.Registration, error) {
	registration, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	if !registration.Status.CanTransitionTo(models.RegistrationStatusCancelled) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot cancel a %s registration", registration.Status))
	}

	now := s.now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, models.RegistrationStatusCancelled, cancelledBy, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel registration")
	}
	registration.Status = models.RegistrationStatusCancelled
	registration.StatusUpdateDate = &now
	registration.UpdatedBy = cancelledBy

	s.publish(ctx, events.Event{Type: events.TypeCancelled, Registration: registration, OccurredAt: now})

	if s.promoteOnCancel {
		s.triggerPromotion(ctx, registration.CourseID, registration.Semester)
	}
	return registration, nil
}

// Timetable returns the student's APPROVED registrations.
func (s *RegistrationService) Timetable(ctx context.Context, studentID string) ([]models.RegistrationDetail, error) {
	registrations, err := s.repo.ListByStudentAndStatus(ctx, studentID, models.RegistrationStatusApproved)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return registrations, nil
}

// History returns every registration the student has made, newest first.
func (s *RegistrationService) History(ctx context.Context, studentID string) ([]models.RegistrationDetail, error) {
	registrations, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration history")
	}
	return registrations, nil
}

// CurrentPeriod exposes the resolved registration window.
func (s *RegistrationService) CurrentPeriod(ctx context.Context) (*models.RegistrationPeriod, error) {
	return s.periods.ResolveCurrent(ctx)
}

func (s *RegistrationService) triggerPromotion(ctx context.Context, courseID, semester string) {
	if s.promoter == nil {
		return
	}
	if err := s.promoter.TryPromote(ctx, courseID, semester); err != nil {
		s.logger.Warn("waitlist promotion failed",
			zap.String("course_id", courseID),
			zap.String("semester", semester),
			zap.Error(err))
	}
}

func (s *RegistrationService) failAdmission(err error) error {
	if s.metrics != nil {
		s.metrics.RecordAdmission(appErrors.FromError(err).Code)
	}
	return err
}

func (s *RegistrationService) publish(ctx context.Context, event events.Event) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish domain event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
