package models

import "time"

// TimetableEntry is one concrete, dated class occurrence derived from a
// student's weekly availability. EndAt is always StartAt plus the configured
// class duration, and StartAt always falls on ClassDate.
type TimetableEntry struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	StudentName   string    `db:"student_name" json:"student_name"`
	ClassDate     time.Time `db:"class_date" json:"class_date"`
	StartAt       time.Time `db:"start_at" json:"start_at"`
	EndAt         time.Time `db:"end_at" json:"end_at"`
	FeePerClass   *float64  `db:"fee_per_class" json:"fee_per_class,omitempty"`
	Topic         string    `db:"topic" json:"topic"`
	AutoGenerated bool      `db:"auto_generated" json:"auto_generated"`
	GeneratedBy   string    `db:"generated_by" json:"generated_by"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// TimetableSummary aggregates a set of entries for reporting. Entries without
// a known fee contribute their hours but are excluded from the fee total.
type TimetableSummary struct {
	TotalHours float64 `json:"total_hours"`
	TotalFee   float64 `json:"total_fee"`
}
