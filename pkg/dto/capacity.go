package dto

import (
	"time"

	"github.com/dimitrije/capacity-planner/internal/capacity"
)

type CapacityResponse struct {
	SprintKey  string              `json:"sprintKey"`
	Thresholds capacity.Thresholds `json:"thresholds"`
	Loads      []capacity.Load     `json:"loads"`
}

type StatusResponse struct {
	IsSaving    bool       `json:"isSaving"`
	Pending     bool       `json:"pending"`
	LastSavedAt *time.Time `json:"lastSavedAt,omitempty"`
	LastError   string     `json:"lastError,omitempty"`
	Warnings    []string   `json:"warnings"`
	Clients     int        `json:"clients"`
}
