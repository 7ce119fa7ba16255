package dto

import "time"

// FeeUnknownLabel is rendered when a student has no usable monthly fee.
const FeeUnknownLabel = "N/A"

// GenerateTimetableRequest instructs the generator to expand weekly
// availability into dated entries for one calendar date.
type GenerateTimetableRequest struct {
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	GeneratedBy string `json:"generatedBy" validate:"required"`
}

// TimetableEntryResponse is the display shape of one generated class.
type TimetableEntryResponse struct {
	ID            string    `json:"id"`
	StudentID     string    `json:"studentId"`
	StudentName   string    `json:"studentName"`
	Date          string    `json:"date"`
	StartAt       time.Time `json:"startAt"`
	EndAt         time.Time `json:"endAt"`
	StartLabel    string    `json:"startLabel"`
	FeePerClass   string    `json:"feePerClass"`
	Topic         string    `json:"topic"`
	AutoGenerated bool      `json:"autoGenerated"`
}

// GenerateTimetableResponse returns the expanded day schedule.
type GenerateTimetableResponse struct {
	Date         string                   `json:"date"`
	Entries      []TimetableEntryResponse `json:"entries"`
	SkippedSlots int                      `json:"skippedSlots"`
}

// WeekGridDay is one weekday cell column in the weekly grid.
type WeekGridDay struct {
	Weekday string                   `json:"weekday"`
	Date    string                   `json:"date"`
	Entries []TimetableEntryResponse `json:"entries"`
}

// WeekGridResponse is the ordered weekly grid view.
type WeekGridResponse struct {
	WeekOf string        `json:"weekOf"`
	Days   []WeekGridDay `json:"days"`
}

// TimetableSummaryResponse aggregates one day's schedule for reporting.
type TimetableSummaryResponse struct {
	Date       string  `json:"date"`
	TotalHours float64 `json:"totalHours"`
	TotalFee   float64 `json:"totalFee"`
}

// UpdateTopicRequest fills in the lesson topic on a generated entry.
type UpdateTopicRequest struct {
	Topic string `json:"topic" validate:"required,max=200"`
}
