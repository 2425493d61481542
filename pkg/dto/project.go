package dto

import "github.com/google/uuid"

type CreateProjectRequest struct {
	CustomerName          string     `json:"customerName"`
	ProjectName           string     `json:"projectName"`
	ProjectType           string     `json:"projectType,omitempty"`
	Status                string     `json:"status,omitempty"`
	MaxCapacityPercentage *float64   `json:"maxCapacityPercentage,omitempty"`
	PMOContact            *uuid.UUID `json:"pmoContact,omitempty"`
	Comment               string     `json:"comment,omitempty"`
}

type UpdateProjectRequest struct {
	CustomerName          *string    `json:"customerName,omitempty"`
	ProjectName           *string    `json:"projectName,omitempty"`
	ProjectType           *string    `json:"projectType,omitempty"`
	Status                *string    `json:"status,omitempty"`
	MaxCapacityPercentage *float64   `json:"maxCapacityPercentage,omitempty"`
	PMOContact            *uuid.UUID `json:"pmoContact,omitempty"`
	Comment               *string    `json:"comment,omitempty"`
}
