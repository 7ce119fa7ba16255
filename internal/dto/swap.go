package dto

import "github.com/KotaSaiGoutham/academy-api/internal/models"

// SwapRequest exchanges the full weekly availability of two students.
type SwapRequest struct {
	SourceID string `json:"sourceId" validate:"required"`
	TargetID string `json:"targetId" validate:"required"`
}

// SwapResponse returns both updated students plus the audit record.
type SwapResponse struct {
	Source models.Student    `json:"source"`
	Target models.Student    `json:"target"`
	Record models.SwapRecord `json:"record"`
}
