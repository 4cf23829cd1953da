package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-registration-api/internal/models"
)

// RegistrationRepository handles persistence of registrations.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

const registrationColumns = `id, student_id, course_id, semester, status, registration_date, status_update_date, updated_by`

// FindByID returns a registration by its ID.
func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	query := fmt.Sprintf(`SELECT %s FROM registrations WHERE id = $1`, registrationColumns)
	var registration models.Registration
	if err := r.db.GetContext(ctx, &registration, query, id); err != nil {
		return nil, err
	}
	return &registration, nil
}

// Create persists a new registration record.
func (r *RegistrationRepository) Create(ctx context.Context, registration *models.Registration) error {
	if registration.ID == "" {
		registration.ID = uuid.NewString()
	}
	if registration.RegistrationDate.IsZero() {
		registration.RegistrationDate = time.Now().UTC()
	}
	if registration.Status == "" {
		registration.Status = models.RegistrationStatusPending
	}
	const query = `INSERT INTO registrations (id, student_id, course_id, semester, status, registration_date, status_update_date, updated_by)
        VALUES (:id, :student_id, :course_id, :semester, :status, :registration_date, :status_update_date, :updated_by)`
	if _, err := r.db.NamedExecContext(ctx, query, registration); err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

// UpdateStatus updates status, stamp and actor for a registration.
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus, updatedBy string, at time.Time) error {
	const query = `UPDATE registrations SET status = $2, status_update_date = $3, updated_by = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, at, updatedBy); err != nil {
		return fmt.Errorf("update registration status: %w", err)
	}
	return nil
}

// ListByStudent returns every registration a student has ever made, newest
// first. This backs the history view.
func (r *RegistrationRepository) ListByStudent(ctx context.Context, studentID string) ([]models.RegistrationDetail, error) {
	const query = `SELECT r.id, r.student_id, r.course_id, r.semester, r.status, r.registration_date, r.status_update_date, r.updated_by,
        c.title AS course_title, c.credits AS course_credits, c.schedule AS course_schedule, c.instructor
        FROM registrations r
        LEFT JOIN courses c ON c.id = r.course_id
        WHERE r.student_id = $1
        ORDER BY r.registration_date DESC`
	var registrations []models.RegistrationDetail
	if err := r.db.SelectContext(ctx, &registrations, query, studentID); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return registrations, nil
}

// ListNonTerminalByStudentAndSemester returns PENDING and APPROVED
// registrations for a student within a semester, joined with course credits
// and schedules. Credit-load and conflict checks read from this.
func (r *RegistrationRepository) ListNonTerminalByStudentAndSemester(ctx context.Context, studentID, semester string) ([]models.RegistrationDetail, error) {
	const query = `SELECT r.id, r.student_id, r.course_id, r.semester, r.status, r.registration_date, r.status_update_date, r.updated_by,
        c.title AS course_title, c.credits AS course_credits, c.schedule AS course_schedule, c.instructor
        FROM registrations r
        LEFT JOIN courses c ON c.id = r.course_id
        WHERE r.student_id = $1 AND r.semester = $2 AND r.status IN ($3, $4)
        ORDER BY r.registration_date ASC`
	var registrations []models.RegistrationDetail
	if err := r.db.SelectContext(ctx, &registrations, query, studentID, semester,
		models.RegistrationStatusPending, models.RegistrationStatusApproved); err != nil {
		return nil, fmt.Errorf("list non-terminal registrations: %w", err)
	}
	return registrations, nil
}

// ListByStudentAndStatus returns a student's registrations in a given status.
// The timetable view reads APPROVED rows through this.
func (r *RegistrationRepository) ListByStudentAndStatus(ctx context.Context, studentID string, status models.RegistrationStatus) ([]models.RegistrationDetail, error) {
	const query = `SELECT r.id, r.student_id, r.course_id, r.semester, r.status, r.registration_date, r.status_update_date, r.updated_by,
        c.title AS course_title, c.credits AS course_credits, c.schedule AS course_schedule, c.instructor
        FROM registrations r
        LEFT JOIN courses c ON c.id = r.course_id
        WHERE r.student_id = $1 AND r.status = $2
        ORDER BY r.registration_date ASC`
	var registrations []models.RegistrationDetail
	if err := r.db.SelectContext(ctx, &registrations, query, studentID, status); err != nil {
		return nil, fmt.Errorf("list registrations by status: %w", err)
	}
	return registrations, nil
}
