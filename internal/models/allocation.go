package models

import (
	"math"
	"time"

	"github.com/dimitrije/capacity-planner/internal/sprint"
	"github.com/google/uuid"
)

// WorkDaysPerSprint converts a percentage into days: 100% of a sprint is ten days.
const WorkDaysPerSprint = 10

type Allocation struct {
	ID                   uuid.UUID `json:"id"`
	ProjectID            uuid.UUID `json:"projectId"`
	ProductManagerID     uuid.UUID `json:"productManagerId"`
	Year                 int       `json:"year"`
	Month                int       `json:"month"`
	SprintIndex          int       `json:"sprintIndex"`
	AllocationPercentage float64   `json:"allocationPercentage"`
	AllocationDays       float64   `json:"allocationDays"`
	Comment              string    `json:"comment,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	CreatedBy            string    `json:"createdBy"`
	IsPlanned            bool      `json:"isPlanned,omitempty"`
}

// AllocationKey is the tuple that identifies at most one allocation.
type AllocationKey struct {
	ProjectID        uuid.UUID
	ProductManagerID uuid.UUID
	Sprint           sprint.Sprint
}

func (a *Allocation) Sprint() sprint.Sprint {
	return sprint.New(a.Year, a.Month, a.SprintIndex)
}

func (a *Allocation) Key() AllocationKey {
	return AllocationKey{
		ProjectID:        a.ProjectID,
		ProductManagerID: a.ProductManagerID,
		Sprint:           a.Sprint(),
	}
}

func (a *Allocation) InSprint(s sprint.Sprint) bool {
	return a.Year == s.Year && a.Month == s.Month && a.SprintIndex == s.Index
}

// AllocationDays rounds percentage/100*10 to one decimal place.
func AllocationDays(percentage float64) float64 {
	return math.Round(percentage/100*WorkDaysPerSprint*10) / 10
}
