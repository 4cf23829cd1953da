package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type periodReader interface {
	FindLatestActive(ctx context.Context) (*models.RegistrationPeriod, error)
}

type periodCache interface {
	GetPeriod(ctx context.Context) (*models.RegistrationPeriod, bool)
	SetPeriod(ctx context.Context, period *models.RegistrationPeriod)
}

// PeriodPolicy decides whether a student may register during a period of a
// given type. A nil student means no student context is available and the
// policy should fall back to allowing the attempt.
type PeriodPolicy func(period models.RegistrationPeriod, student *models.Student) error

// EarlyPeriodMinGPAPolicy reserves EARLY periods for students at or above
// minGPA.
func EarlyPeriodMinGPAPolicy(minGPA float64) PeriodPolicy {
	return func(period models.RegistrationPeriod, student *models.Student) error {
		if student == nil || student.GPA >= minGPA {
			return nil
		}
		return appErrors.Clone(appErrors.ErrPeriodClosed,
			fmt.Sprintf("early registration requires a GPA of at least %.1f", minGPA))
	}
}

// PeriodService resolves the current registration window and gates admission
// attempts against it. Per-type policies are a plug point; a period type
// without a policy allows everyone.
type PeriodService struct {
	repo     periodReader
	cache    periodCache
	policies map[models.PeriodType]PeriodPolicy
	logger   *zap.Logger
}

// NewPeriodService constructs PeriodService.
func NewPeriodService(repo periodReader, cache periodCache, policies map[models.PeriodType]PeriodPolicy, logger *zap.Logger) *PeriodService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policies == nil {
		policies = map[models.PeriodType]PeriodPolicy{}
	}
	return &PeriodService{repo: repo, cache: cache, policies: policies, logger: logger}
}

// IsOpen reports whether now falls inside an active period's window.
func (s *PeriodService) IsOpen(period models.RegistrationPeriod, now time.Time) bool {
	return period.IsActive && period.Contains(now)
}

// ResolveCurrent returns the active period with the latest start date.
// Absence of any active period means registration is closed system-wide.
func (s *PeriodService) ResolveCurrent(ctx context.Context) (*models.RegistrationPeriod, error) {
	if s.cache != nil {
		if period, ok := s.cache.GetPeriod(ctx); ok {
			return period, nil
		}
	}
	period, err := s.repo.FindLatestActive(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active registration period")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve registration period")
	}
	if s.cache != nil {
		s.cache.SetPeriod(ctx, period)
	}
	return period, nil
}

// CheckOpen fails with PeriodClosed unless now falls inside the current
// period's window and the period-type policy admits the student.
func (s *PeriodService) CheckOpen(ctx context.Context, now time.Time, student *models.Student) error {
	period, err := s.ResolveCurrent(ctx)
	if err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrNotFound.Code {
			return appErrors.Clone(appErrors.ErrPeriodClosed, "")
		}
		return err
	}
	if !s.IsOpen(*period, now) {
		return appErrors.Clone(appErrors.ErrPeriodClosed,
			fmt.Sprintf("registration period %s is not open", period.ID))
	}
	if policy, ok := s.policies[period.PeriodType]; ok && policy != nil {
		if err := policy(*period, student); err != nil {
			return err
		}
	}
	return nil
}
