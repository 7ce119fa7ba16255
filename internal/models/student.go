package models

import (
	"time"

	"github.com/lib/pq"
)

// Student represents a learner enrolled with the academy.
//
// WeeklyAvailability holds raw recurring slot strings in the form
// "Monday-04:00pm". Malformed entries are tolerated on write and skipped at
// parse time, matching the permissive behaviour of the admin front-end.
type Student struct {
	ID                 string         `db:"id" json:"id"`
	FullName           string         `db:"full_name" json:"full_name"`
	Subject            string         `db:"subject" json:"subject"`
	Phone              string         `db:"phone" json:"phone"`
	MonthlyFee         *float64       `db:"monthly_fee" json:"monthly_fee,omitempty"`
	WeeklyAvailability pq.StringArray `db:"weekly_availability" json:"weekly_availability"`
	Active             bool           `db:"active" json:"active"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Subject   string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
