package capacity

import (
	"testing"

	"github.com/dimitrije/capacity-planner/internal/models"
	"github.com/dimitrije/capacity-planner/internal/sprint"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alloc(projectID, memberID uuid.UUID, s sprint.Sprint, pct float64) models.Allocation {
	return models.Allocation{
		ID:                   uuid.New(),
		ProjectID:            projectID,
		ProductManagerID:     memberID,
		Year:                 s.Year,
		Month:                s.Month,
		SprintIndex:          s.Index,
		AllocationPercentage: pct,
		AllocationDays:       models.AllocationDays(pct),
	}
}

func TestClassify_Boundaries(t *testing.T) {
	th := Thresholds{Under: 70, Over: 100, Mode: RelativeToCapacity}

	assert.Equal(t, StatusUnder, Classify(69, 100, th))
	assert.Equal(t, StatusGood, Classify(70, 100, th))
	assert.Equal(t, StatusGood, Classify(100, 100, th))
	assert.Equal(t, StatusOver, Classify(101, 100, th))
}

func TestClassify_RelativeScalesByCapacity(t *testing.T) {
	th := Thresholds{Under: 70, Over: 100, Mode: RelativeToCapacity}

	assert.Equal(t, StatusUnder, Classify(34, 50, th))
	assert.Equal(t, StatusGood, Classify(35, 50, th))
	assert.Equal(t, StatusOver, Classify(51, 50, th))
}

func TestClassify_AbsoluteIgnoresCapacity(t *testing.T) {
	th := Thresholds{Under: 70, Over: 100, Mode: Absolute}

	assert.Equal(t, StatusGood, Classify(80, 50, th))
	assert.Equal(t, StatusUnder, Classify(60, 200, th))
	assert.Equal(t, StatusOver, Classify(101, 200, th))
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("Absolute")
	require.NoError(t, err)
	assert.Equal(t, Absolute, mode)

	mode, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, RelativeToCapacity, mode)

	_, err = ParseMode("sideways")
	assert.Error(t, err)
}

func TestTotals(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()
	m1, m2 := uuid.New(), uuid.New()
	s := sprint.New(2025, 3, 1)

	allocs := []models.Allocation{
		alloc(p1, m1, s, 40),
		alloc(p2, m1, s, 30),
		alloc(p1, m2, s, 50),
		alloc(p1, m1, s.Next(), 100),
	}

	assert.Equal(t, 70.0, TotalForMember(allocs, m1, s))
	assert.Equal(t, 50.0, TotalForMember(allocs, m2, s))
	assert.Equal(t, 100.0, TotalForMember(allocs, m1, s.Next()))
	assert.Equal(t, 90.0, TotalForProject(allocs, p1, s))
	assert.Equal(t, 30.0, TotalForProject(allocs, p2, s))
	assert.Equal(t, 0.0, TotalForProject(allocs, uuid.New(), s))
}

func TestRoleRequirementGap(t *testing.T) {
	project := uuid.New()
	s := sprint.New(2025, 5, 2)
	pm := models.TeamMember{ID: uuid.New(), Role: models.RoleProductManager}
	designer := models.TeamMember{ID: uuid.New(), Role: models.RoleDesigner}
	engineer := models.TeamMember{ID: uuid.New(), Role: models.RoleEngineer}

	allocs := []models.Allocation{
		alloc(project, pm.ID, s, 50),
		alloc(project, designer.ID, s, 20),
		alloc(project, engineer.ID, s.Next(), 100),
		alloc(uuid.New(), engineer.ID, s, 100),
	}
	requirements := map[models.Role]float64{
		models.RoleProductManager: 50,
		models.RoleDesigner:       40,
		models.RoleEngineer:       100,
		models.RoleDataAnalyst:    0,
	}

	gaps := RoleRequirementGap(project, s, requirements, allocs, []models.TeamMember{pm, designer, engineer})

	require.Len(t, gaps, 2)
	assert.Equal(t, RoleGap{Role: models.RoleDesigner, Required: 40, Allocated: 20}, gaps[0])
	assert.Equal(t, RoleGap{Role: models.RoleEngineer, Required: 100, Allocated: 0}, gaps[1])
}

func TestMemberLoads(t *testing.T) {
	s := sprint.New(2025, 3, 1)
	half := 50.0
	busy := models.TeamMember{ID: uuid.New(), FullName: "Ada"}
	part := models.TeamMember{ID: uuid.New(), FullName: "Grace", Capacity: &half}
	allocs := []models.Allocation{
		alloc(uuid.New(), busy.ID, s, 110),
		alloc(uuid.New(), part.ID, s, 40),
	}

	loads := MemberLoads([]models.TeamMember{busy, part}, allocs, s, DefaultThresholds)

	require.Len(t, loads, 2)
	assert.Equal(t, StatusOver, loads[0].Status)
	assert.Equal(t, 110.0, loads[0].Total)
	assert.Equal(t, StatusGood, loads[1].Status)
	assert.Equal(t, 50.0, loads[1].Capacity)
}

func TestProjectLoads(t *testing.T) {
	s := sprint.New(2025, 3, 1)
	p := models.Project{ID: uuid.New(), CustomerName: "Acme", ProjectName: "Portal"}
	loads := ProjectLoads([]models.Project{p}, []models.Allocation{alloc(p.ID, uuid.New(), s, 20)}, s, DefaultThresholds)

	require.Len(t, loads, 1)
	assert.Equal(t, "Acme / Portal", loads[0].Name)
	assert.Equal(t, StatusUnder, loads[0].Status)
}

func TestProjectCeiling(t *testing.T) {
	max := 100.0
	project := &models.Project{ID: uuid.New(), MaxCapacityPercentage: &max}
	s := sprint.New(2025, 3, 1)
	existing := alloc(project.ID, uuid.New(), s, 60)
	allocs := []models.Allocation{existing, alloc(project.ID, uuid.New(), s.Next(), 90)}

	assert.Nil(t, ProjectCeiling(allocs, project, s, 40, uuid.Nil))

	w := ProjectCeiling(allocs, project, s, 41, uuid.Nil)
	require.NotNil(t, w)
	assert.Equal(t, ProjectCeilingExceeded, w.Kind)
	assert.Equal(t, 60.0, w.Existing)
	assert.Equal(t, 41.0, w.Requested)
	assert.Contains(t, w.Message(), "project capacity exceeded")

	// editing the existing record does not count it twice
	assert.Nil(t, ProjectCeiling(allocs, project, s, 100, existing.ID))
}

func TestMemberCeiling(t *testing.T) {
	capacity := 80.0
	member := &models.TeamMember{ID: uuid.New(), Capacity: &capacity}
	s := sprint.New(2025, 3, 1)
	allocs := []models.Allocation{alloc(uuid.New(), member.ID, s, 50)}

	assert.Nil(t, MemberCeiling(allocs, member, s, 30, uuid.Nil))

	w := MemberCeiling(allocs, member, s, 31, uuid.Nil)
	require.NotNil(t, w)
	assert.Equal(t, MemberCeilingExceeded, w.Kind)
	assert.Equal(t, 80.0, w.Ceiling)
	assert.Contains(t, w.Message(), "member capacity exceeded")
}
