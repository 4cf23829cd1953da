package models

import "time"

// PeriodType classifies registration windows.
type PeriodType string

const (
	PeriodTypeEarly   PeriodType = "EARLY"
	PeriodTypeRegular PeriodType = "REGULAR"
	PeriodTypeLate    PeriodType = "LATE"
)

// RegistrationPeriod models an admission window for a semester. At most one
// period should be current at any instant; ties between active periods are
// resolved by the latest start date.
type RegistrationPeriod struct {
	ID            string     `db:"id" json:"id"`
	Semester      string     `db:"semester" json:"semester"`
	PeriodType    PeriodType `db:"period_type" json:"period_type"`
	StartDate     time.Time  `db:"start_date" json:"start_date"`
	EndDate       time.Time  `db:"end_date" json:"end_date"`
	PriorityLevel int        `db:"priority_level" json:"priority_level"`
	IsActive      bool       `db:"is_active" json:"is_active"`
}

// Contains reports whether now falls inside the period window (inclusive).
func (p RegistrationPeriod) Contains(now time.Time) bool {
	return !now.Before(p.StartDate) && !now.After(p.EndDate)
}
