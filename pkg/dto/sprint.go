package dto

import (
	"github.com/dimitrije/capacity-planner/internal/capacity"
	"github.com/dimitrije/capacity-planner/internal/models"
	"github.com/google/uuid"
)

type SprintResponse struct {
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Sprint    int    `json:"sprint"`
	Key       string `json:"key"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	IsPast    bool   `json:"isPast"`
	IsCurrent bool   `json:"isCurrent"`
}

type SprintProjectsRequest struct {
	ProjectIDs []uuid.UUID `json:"projectIds"`
}

type SprintProjectsResponse struct {
	SprintKey  string      `json:"sprintKey"`
	ProjectIDs []uuid.UUID `json:"projectIds"`
}

type RoleRequirementsRequest struct {
	Requirements map[string]float64 `json:"requirements"`
}

type RoleRequirementsResponse struct {
	ProjectID    uuid.UUID               `json:"projectId"`
	SprintKey    string                  `json:"sprintKey"`
	Requirements map[models.Role]float64 `json:"requirements"`
	Gaps         []capacity.RoleGap      `json:"gaps"`
}
