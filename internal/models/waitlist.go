package models

import "time"

// WaitlistEntry is a student's place in line for a full course. EnqueuedAt
// defines FIFO order; Position is 1-based and recomputed after every mutation
// so entries for a course are always contiguous 1..N.
type WaitlistEntry struct {
	ID                 string     `db:"id" json:"id"`
	StudentID          string     `db:"student_id" json:"student_id"`
	CourseID           string     `db:"course_id" json:"course_id"`
	EnqueuedAt         time.Time  `db:"enqueued_at" json:"enqueued_at"`
	Position           int        `db:"position" json:"position"`
	Notified           bool       `db:"notified" json:"notified"`
	NotificationSentAt *time.Time `db:"notification_sent_at" json:"notification_sent_at,omitempty"`
}
