package dto

import (
	"github.com/dimitrije/capacity-planner/internal/capacity"
	"github.com/dimitrije/capacity-planner/internal/models"
	"github.com/google/uuid"
)

type CreateAllocationRequest struct {
	ProjectID            uuid.UUID `json:"projectId"`
	ProductManagerID     uuid.UUID `json:"productManagerId"`
	Year                 int       `json:"year"`
	Month                int       `json:"month"`
	SprintIndex          int       `json:"sprintIndex"`
	AllocationPercentage float64   `json:"allocationPercentage"`
	Comment              string    `json:"comment,omitempty"`
	IsPlanned            bool      `json:"isPlanned,omitempty"`
	ConfirmOverCapacity  bool      `json:"confirmOverCapacity,omitempty"`
}

type UpdateAllocationRequest struct {
	ProjectID            *uuid.UUID `json:"projectId,omitempty"`
	ProductManagerID     *uuid.UUID `json:"productManagerId,omitempty"`
	Year                 *int       `json:"year,omitempty"`
	Month                *int       `json:"month,omitempty"`
	SprintIndex          *int       `json:"sprintIndex,omitempty"`
	AllocationPercentage *float64   `json:"allocationPercentage,omitempty"`
	AllocationDays       *float64   `json:"allocationDays,omitempty"`
	Comment              *string    `json:"comment,omitempty"`
	IsPlanned            *bool      `json:"isPlanned,omitempty"`
	ConfirmOverCapacity  bool       `json:"confirmOverCapacity,omitempty"`
}

// ErrorResponse is the body of every 4xx/5xx the planner writes itself.
// Allocation is set when a change was applied in memory but not saved.
type ErrorResponse struct {
	Code       string             `json:"code"`
	Message    string             `json:"message"`
	Warnings   []capacity.Warning `json:"warnings,omitempty"`
	Conflict   *models.Allocation `json:"conflict,omitempty"`
	Allocation *models.Allocation `json:"allocation,omitempty"`
	Collection string             `json:"collection,omitempty"`
}
