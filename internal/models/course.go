package models

import "time"

// Course describes an offering as resolved from the course catalog, plus the
// seat counters this service owns. Schedule is the section descriptor in
// "Day HH:MM-HH:MM" form (e.g. "Mon 09:00-11:00").
type Course struct {
	ID               string    `db:"id" json:"id"`
	CatalogID        string    `db:"catalog_id" json:"catalog_id"`
	Title            string    `db:"title" json:"title"`
	Instructor       string    `db:"instructor" json:"instructor"`
	Credits          int       `db:"credits" json:"credits"`
	Department       string    `db:"department" json:"department"`
	Schedule         string    `db:"schedule" json:"schedule"`
	IsOpenCourse     bool      `db:"is_open_course" json:"is_open_course"`
	TotalSeats       int       `db:"total_seats" json:"total_seats"`
	AvailableSeats   int       `db:"available_seats" json:"available_seats"`
	WaitlistCapacity int       `db:"waitlist_capacity" json:"waitlist_capacity"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
