package models

import (
	"time"

	"github.com/google/uuid"
)

type ProjectType string

const (
	ProjectTypeCustomer    ProjectType = "Customer"
	ProjectTypeInternal    ProjectType = "Internal"
	ProjectTypeMaintenance ProjectType = "Maintenance"
	ProjectTypeResearch    ProjectType = "Research"
)

func (t ProjectType) Valid() bool {
	switch t {
	case ProjectTypeCustomer, ProjectTypeInternal, ProjectTypeMaintenance, ProjectTypeResearch:
		return true
	}
	return false
}

type ProjectStatus string

const (
	ProjectStatusPending   ProjectStatus = "Pending"
	ProjectStatusActive    ProjectStatus = "Active"
	ProjectStatusInactive  ProjectStatus = "Inactive"
	ProjectStatusCompleted ProjectStatus = "Completed"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPending, ProjectStatusActive, ProjectStatusInactive, ProjectStatusCompleted:
		return true
	}
	return false
}

type Project struct {
	ID                    uuid.UUID     `json:"id"`
	CustomerName          string        `json:"customerName"`
	ProjectName           string        `json:"projectName"`
	ProjectType           ProjectType   `json:"projectType"`
	Status                ProjectStatus `json:"status"`
	MaxCapacityPercentage *float64      `json:"maxCapacityPercentage,omitempty"`
	PMOContact            *uuid.UUID    `json:"pmoContact,omitempty"`
	IsArchived            bool          `json:"isArchived"`
	Comment               string        `json:"comment,omitempty"`
	CreatedAt             time.Time     `json:"createdAt"`
}

// CapacityCeiling is the project's maximum summed allocation per sprint.
func (p *Project) CapacityCeiling() float64 {
	if p.MaxCapacityPercentage == nil {
		return DefaultCapacity
	}
	return *p.MaxCapacityPercentage
}

func (p Project) Clone() Project {
	out := p
	if p.MaxCapacityPercentage != nil {
		v := *p.MaxCapacityPercentage
		out.MaxCapacityPercentage = &v
	}
	if p.PMOContact != nil {
		id := *p.PMOContact
		out.PMOContact = &id
	}
	return out
}
