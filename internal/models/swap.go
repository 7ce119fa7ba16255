package models

import "time"

// SwapRecord is the audit entry for a completed availability exchange.
// Records are immutable once created and retained in a bounded in-memory
// history for display convenience, not as a durability guarantee.
type SwapRecord struct {
	SourceStudentID string    `json:"source_student_id"`
	TargetStudentID string    `json:"target_student_id"`
	SwappedAt       time.Time `json:"swapped_at"`
}
