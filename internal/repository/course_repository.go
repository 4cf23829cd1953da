package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-registration-api/internal/models"
)

// CourseRepository handles persistence of course offerings.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindByID returns a course by its ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, catalog_id, title, instructor, credits, department, schedule,
        is_open_course, total_seats, available_seats, waitlist_capacity, created_at, updated_at
        FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// Create persists a new course offering.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, catalog_id, title, instructor, credits, department, schedule,
        is_open_course, total_seats, available_seats, waitlist_capacity, created_at, updated_at)
        VALUES (:id, :catalog_id, :title, :instructor, :credits, :department, :schedule,
        :is_open_course, :total_seats, :available_seats, :waitlist_capacity, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// ClaimSeat decrements the available seat count by one. The row-level guard
// keeps the count from ever going negative under concurrent promotions; the
// boolean result reports whether a seat was actually claimed.
func (r *CourseRepository) ClaimSeat(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE courses SET available_seats = available_seats - 1, updated_at = $2
        WHERE id = $1 AND available_seats > 0`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("claim seat: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim seat result: %w", err)
	}
	return affected == 1, nil
}
