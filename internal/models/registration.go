package models

import "time"

// RegistrationStatus represents the lifecycle of a registration.
type RegistrationStatus string

// Registration statuses. REJECTED and CANCELLED are terminal.
const (
	RegistrationStatusPending   RegistrationStatus = "PENDING"
	RegistrationStatusApproved  RegistrationStatus = "APPROVED"
	RegistrationStatusRejected  RegistrationStatus = "REJECTED"
	RegistrationStatusCancelled RegistrationStatus = "CANCELLED"
)

// IsTerminal reports whether the status admits no further transitions.
func (s RegistrationStatus) IsTerminal() bool {
	return s == RegistrationStatusRejected || s == RegistrationStatusCancelled
}

// IsNonTerminal reports whether the registration still counts toward a
// student's credit load and conflict checks.
func (s RegistrationStatus) IsNonTerminal() bool {
	return s == RegistrationStatusPending || s == RegistrationStatusApproved
}

// CanTransitionTo enforces the registration state machine:
// PENDING -> APPROVED | REJECTED | CANCELLED; APPROVED -> CANCELLED.
func (s RegistrationStatus) CanTransitionTo(next RegistrationStatus) bool {
	switch s {
	case RegistrationStatusPending:
		return next == RegistrationStatusApproved || next == RegistrationStatusRejected || next == RegistrationStatusCancelled
	case RegistrationStatusApproved:
		return next == RegistrationStatusCancelled
	default:
		return false
	}
}

// Registration captures a student's admission into a course for a semester.
type Registration struct {
	ID               string             `db:"id" json:"id"`
	StudentID        string             `db:"student_id" json:"student_id"`
	CourseID         string             `db:"course_id" json:"course_id"`
	Semester         string             `db:"semester" json:"semester"`
	Status           RegistrationStatus `db:"status" json:"status"`
	RegistrationDate time.Time          `db:"registration_date" json:"registration_date"`
	StatusUpdateDate *time.Time         `db:"status_update_date" json:"status_update_date,omitempty"`
	UpdatedBy        string             `db:"updated_by" json:"updated_by,omitempty"`
}

// RegistrationDetail enriches Registration with the course fields the
// admission checks and timetable views need.
type RegistrationDetail struct {
	Registration
	CourseTitle    string `db:"course_title" json:"course_title"`
	CourseCredits  int    `db:"course_credits" json:"course_credits"`
	CourseSchedule string `db:"course_schedule" json:"course_schedule"`
	Instructor     string `db:"instructor" json:"instructor"`
}
