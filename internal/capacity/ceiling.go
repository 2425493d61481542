package capacity

import (
	"fmt"

	"github.com/dimitrije/capacity-planner/internal/models"
	"github.com/dimitrije/capacity-planner/internal/sprint"
	"github.com/google/uuid"
)

type WarningKind string

const (
	ProjectCeilingExceeded WarningKind = "project_capacity"
	MemberCeilingExceeded  WarningKind = "member_capacity"
)

// Warning is advisory. The caller may still go ahead after confirmation.
type Warning struct {
	Kind      WarningKind `json:"kind"`
	EntityID  uuid.UUID   `json:"entityId"`
	Existing  float64     `json:"existing"`
	Requested float64     `json:"requested"`
	Ceiling   float64     `json:"ceiling"`
}

func (w *Warning) Message() string {
	subject := "project"
	if w.Kind == MemberCeilingExceeded {
		subject = "member"
	}
	return fmt.Sprintf("%s capacity exceeded: %.1f%% allocated + %.1f%% requested > %.1f%%",
		subject, w.Existing, w.Requested, w.Ceiling)
}

// ProjectCeiling sums the project's other allocations in sprint s (skipping
// excludeID) and returns a warning when adding newPct would pass its ceiling.
func ProjectCeiling(allocs []models.Allocation, project *models.Project, s sprint.Sprint, newPct float64, excludeID uuid.UUID) *Warning {
	var existing float64
	for i := range allocs {
		a := &allocs[i]
		if a.ID == excludeID || a.ProjectID != project.ID || !a.InSprint(s) {
			continue
		}
		existing += a.AllocationPercentage
	}
	ceiling := project.CapacityCeiling()
	if existing+newPct <= ceiling {
		return nil
	}
	return &Warning{
		Kind:      ProjectCeilingExceeded,
		EntityID:  project.ID,
		Existing:  existing,
		Requested: newPct,
		Ceiling:   ceiling,
	}
}

func MemberCeiling(allocs []models.Allocation, member *models.TeamMember, s sprint.Sprint, newPct float64, excludeID uuid.UUID) *Warning {
	var existing float64
	for i := range allocs {
		a := &allocs[i]
		if a.ID == excludeID || a.ProductManagerID != member.ID || !a.InSprint(s) {
			continue
		}
		existing += a.AllocationPercentage
	}
	ceiling := member.EffectiveCapacity()
	if existing+newPct <= ceiling {
		return nil
	}
	return &Warning{
		Kind:      MemberCeilingExceeded,
		EntityID:  member.ID,
		Existing:  existing,
		Requested: newPct,
		Ceiling:   ceiling,
	}
}
