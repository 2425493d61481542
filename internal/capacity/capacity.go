// Package capacity derives per-sprint totals from allocations and classifies
// them against under/over thresholds. Everything here is read-only over the
// slices it is given.
package capacity

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dimitrije/capacity-planner/internal/models"
	"github.com/dimitrije/capacity-planner/internal/sprint"
	"github.com/google/uuid"
)

type Status string

const (
	StatusUnder Status = "under"
	StatusGood  Status = "good"
	StatusOver  Status = "over"
)

// ThresholdMode selects how Under and Over are read. Absolute compares the
// total against the raw percentages; RelativeToCapacity scales them by the
// entity's own capacity first.
type ThresholdMode string

const (
	Absolute           ThresholdMode = "absolute"
	RelativeToCapacity ThresholdMode = "relative"
)

func ParseMode(s string) (ThresholdMode, error) {
	switch ThresholdMode(strings.ToLower(strings.TrimSpace(s))) {
	case Absolute:
		return Absolute, nil
	case RelativeToCapacity, "":
		return RelativeToCapacity, nil
	}
	return "", fmt.Errorf("unknown threshold mode %q", s)
}

type Thresholds struct {
	Under float64       `json:"under"`
	Over  float64       `json:"over"`
	Mode  ThresholdMode `json:"mode"`
}

var DefaultThresholds = Thresholds{Under: 70, Over: 100, Mode: RelativeToCapacity}

func (t Thresholds) WithMode(mode ThresholdMode) Thresholds {
	t.Mode = mode
	return t
}

// Classify places total into under, good or over. Both bounds are inclusive
// of good.
func Classify(total, capacity float64, th Thresholds) Status {
	under, over := th.Under, th.Over
	if th.Mode != Absolute {
		under = capacity * th.Under / 100
		over = capacity * th.Over / 100
	}
	switch {
	case total < under:
		return StatusUnder
	case total > over:
		return StatusOver
	}
	return StatusGood
}

func TotalForMember(allocs []models.Allocation, memberID uuid.UUID, s sprint.Sprint) float64 {
	var total float64
	for i := range allocs {
		if allocs[i].ProductManagerID == memberID && allocs[i].InSprint(s) {
			total += allocs[i].AllocationPercentage
		}
	}
	return total
}

func TotalForProject(allocs []models.Allocation, projectID uuid.UUID, s sprint.Sprint) float64 {
	var total float64
	for i := range allocs {
		if allocs[i].ProjectID == projectID && allocs[i].InSprint(s) {
			total += allocs[i].AllocationPercentage
		}
	}
	return total
}

type RoleGap struct {
	Role      models.Role `json:"role"`
	Required  float64     `json:"required"`
	Allocated float64     `json:"allocated"`
}

// RoleRequirementGap lists the roles whose allocated percentage on the project
// in sprint s falls short of the configured requirement.
func RoleRequirementGap(projectID uuid.UUID, s sprint.Sprint, requirements map[models.Role]float64, allocs []models.Allocation, members []models.TeamMember) []RoleGap {
	roleOf := make(map[uuid.UUID]models.Role, len(members))
	for _, m := range members {
		roleOf[m.ID] = m.Role
	}

	allocated := make(map[models.Role]float64)
	for i := range allocs {
		a := &allocs[i]
		if a.ProjectID != projectID || !a.InSprint(s) {
			continue
		}
		if role, ok := roleOf[a.ProductManagerID]; ok {
			allocated[role] += a.AllocationPercentage
		}
	}

	var gaps []RoleGap
	for role, required := range requirements {
		if required <= 0 {
			continue
		}
		if got := allocated[role]; got < required {
			gaps = append(gaps, RoleGap{Role: role, Required: required, Allocated: got})
		}
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i].Role < gaps[j].Role })
	return gaps
}

type Load struct {
	EntityID uuid.UUID `json:"entityId"`
	Name     string    `json:"name"`
	Total    float64   `json:"total"`
	Capacity float64   `json:"capacity"`
	Status   Status    `json:"status"`
}

// MemberLoads summarises every given member for sprint s, in input order.
func MemberLoads(members []models.TeamMember, allocs []models.Allocation, s sprint.Sprint, th Thresholds) []Load {
	loads := make([]Load, 0, len(members))
	for i := range members {
		m := &members[i]
		total := TotalForMember(allocs, m.ID, s)
		capacity := m.EffectiveCapacity()
		loads = append(loads, Load{
			EntityID: m.ID,
			Name:     m.FullName,
			Total:    total,
			Capacity: capacity,
			Status:   Classify(total, capacity, th),
		})
	}
	return loads
}

func ProjectLoads(projects []models.Project, allocs []models.Allocation, s sprint.Sprint, th Thresholds) []Load {
	loads := make([]Load, 0, len(projects))
	for i := range projects {
		p := &projects[i]
		total := TotalForProject(allocs, p.ID, s)
		capacity := p.CapacityCeiling()
		loads = append(loads, Load{
			EntityID: p.ID,
			Name:     p.CustomerName + " / " + p.ProjectName,
			Total:    total,
			Capacity: capacity,
			Status:   Classify(total, capacity, th),
		})
	}
	return loads
}
