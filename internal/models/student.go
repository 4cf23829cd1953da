package models

import "time"

// Student mirrors the registrar's student record. The registration core only
// reads identity and GPA; everything else is owned by the student service.
type Student struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     string    `db:"email" json:"email"`
	GPA       float64   `db:"gpa" json:"gpa"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
