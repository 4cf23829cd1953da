package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-registration-api/internal/models"
)

// WaitlistRepository handles persistence of waitlist entries.
type WaitlistRepository struct {
	db *sqlx.DB
}

// NewWaitlistRepository constructs the repository.
func NewWaitlistRepository(db *sqlx.DB) *WaitlistRepository {
	return &WaitlistRepository{db: db}
}

const waitlistColumns = `id, student_id, course_id, enqueued_at, position, notified, notification_sent_at`

// FindByID returns a waitlist entry by its ID.
func (r *WaitlistRepository) FindByID(ctx context.Context, id string) (*models.WaitlistEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM waitlist_entries WHERE id = $1`, waitlistColumns)
	var entry models.WaitlistEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Exists checks whether the student already holds an entry for the course.
func (r *WaitlistRepository) Exists(ctx context.Context, studentID, courseID string) (bool, error) {
	const query = `SELECT 1 FROM waitlist_entries WHERE student_id = $1 AND course_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check waitlist entry: %w", err)
	}
	return true, nil
}

// CountByCourse returns the queue length for a course.
func (r *WaitlistRepository) CountByCourse(ctx context.Context, courseID string) (int, error) {
	const query = `SELECT COUNT(*) FROM waitlist_entries WHERE course_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, courseID); err != nil {
		return 0, fmt.Errorf("count waitlist entries: %w", err)
	}
	return count, nil
}

// Create persists a new waitlist entry.
func (r *WaitlistRepository) Create(ctx context.Context, entry *models.WaitlistEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.EnqueuedAt.IsZero() {
		entry.EnqueuedAt = time.Now().UTC()
	}
	const query = `INSERT INTO waitlist_entries (id, student_id, course_id, enqueued_at, position, notified, notification_sent_at)
        VALUES (:id, :student_id, :course_id, :enqueued_at, :position, :notified, :notification_sent_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create waitlist entry: %w", err)
	}
	return nil
}

// Delete removes a waitlist entry.
func (r *WaitlistRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM waitlist_entries WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete waitlist entry: %w", err)
	}
	return nil
}

// ListByCourse returns the course queue ordered by enqueue time ascending.
func (r *WaitlistRepository) ListByCourse(ctx context.Context, courseID string) ([]models.WaitlistEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM waitlist_entries WHERE course_id = $1 ORDER BY enqueued_at ASC`, waitlistColumns)
	var entries []models.WaitlistEntry
	if err := r.db.SelectContext(ctx, &entries, query, courseID); err != nil {
		return nil, fmt.Errorf("list course waitlist: %w", err)
	}
	return entries, nil
}

// ListByStudent returns every queue the student currently waits in.
func (r *WaitlistRepository) ListByStudent(ctx context.Context, studentID string) ([]models.WaitlistEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM waitlist_entries WHERE student_id = $1 ORDER BY enqueued_at ASC`, waitlistColumns)
	var entries []models.WaitlistEntry
	if err := r.db.SelectContext(ctx, &entries, query, studentID); err != nil {
		return nil, fmt.Errorf("list student waitlist: %w", err)
	}
	return entries, nil
}

// FindHeadByCourse returns the entry with the smallest enqueue timestamp for
// the course, or sql.ErrNoRows when the queue is empty.
func (r *WaitlistRepository) FindHeadByCourse(ctx context.Context, courseID string) (*models.WaitlistEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM waitlist_entries WHERE course_id = $1 ORDER BY enqueued_at ASC LIMIT 1`, waitlistColumns)
	var entry models.WaitlistEntry
	if err := r.db.GetContext(ctx, &entry, query, courseID); err != nil {
		return nil, err
	}
	return &entry, nil
}

// RecomputePositions reassigns contiguous 1..N positions for a course queue
// ordered by enqueue time. Runs as a single statement so readers never
// observe gaps or duplicates.
func (r *WaitlistRepository) RecomputePositions(ctx context.Context, courseID string) error {
	const query = `UPDATE waitlist_entries SET position = ranked.rn
        FROM (
            SELECT id, ROW_NUMBER() OVER (ORDER BY enqueued_at ASC) AS rn
            FROM waitlist_entries WHERE course_id = $1
        ) ranked
        WHERE waitlist_entries.id = ranked.id`
	if _, err := r.db.ExecContext(ctx, query, courseID); err != nil {
		return fmt.Errorf("recompute waitlist positions: %w", err)
	}
	return nil
}

// MarkNotified stamps the promotion notification on an entry.
func (r *WaitlistRepository) MarkNotified(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE waitlist_entries SET notified = TRUE, notification_sent_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("mark waitlist entry notified: %w", err)
	}
	return nil
}
