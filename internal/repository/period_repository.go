package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-registration-api/internal/models"
)

// PeriodRepository handles persistence of registration periods.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository constructs the repository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

const periodColumns = `id, semester, period_type, start_date, end_date, priority_level, is_active`

// FindLatestActive returns the active period with the most recent start date,
// or sql.ErrNoRows when no period is active.
func (r *PeriodRepository) FindLatestActive(ctx context.Context) (*models.RegistrationPeriod, error) {
	query := fmt.Sprintf(`SELECT %s FROM registration_periods WHERE is_active = TRUE ORDER BY start_date DESC LIMIT 1`, periodColumns)
	var period models.RegistrationPeriod
	if err := r.db.GetContext(ctx, &period, query); err != nil {
		return nil, err
	}
	return &period, nil
}

// ListActive returns every active period ordered by start date descending.
func (r *PeriodRepository) ListActive(ctx context.Context) ([]models.RegistrationPeriod, error) {
	query := fmt.Sprintf(`SELECT %s FROM registration_periods WHERE is_active = TRUE ORDER BY start_date DESC`, periodColumns)
	var periods []models.RegistrationPeriod
	if err := r.db.SelectContext(ctx, &periods, query); err != nil {
		return nil, fmt.Errorf("list active periods: %w", err)
	}
	return periods, nil
}

// Create persists a registration period.
func (r *PeriodRepository) Create(ctx context.Context, period *models.RegistrationPeriod) error {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	const query = `INSERT INTO registration_periods (id, semester, period_type, start_date, end_date, priority_level, is_active)
        VALUES (:id, :semester, :period_type, :start_date, :end_date, :priority_level, :is_active)`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("create registration period: %w", err)
	}
	return nil
}
