package testutil

import (
	"fmt"
	"time"

	"github.com/dimitrije/capacity-planner/internal/models"
	"github.com/dimitrije/capacity-planner/internal/persist"
	"github.com/dimitrije/capacity-planner/internal/sprint"
	"github.com/google/uuid"
)

// Fixtures builds planner records with unique names and emails.
type Fixtures struct {
	counter int
	now     time.Time
}

func NewFixtures() *Fixtures {
	// Postgres keeps microseconds, so round-tripped times compare equal.
	return &Fixtures{now: time.Now().UTC().Truncate(time.Microsecond)}
}

type MemberOption func(*models.TeamMember)

func WithRole(role models.Role) MemberOption {
	return func(m *models.TeamMember) { m.Role = role }
}

func WithCapacity(capacity float64) MemberOption {
	return func(m *models.TeamMember) { m.Capacity = &capacity }
}

func WithManager(id uuid.UUID) MemberOption {
	return func(m *models.TeamMember) { m.ManagerID = &id }
}

func (f *Fixtures) Member(opts ...MemberOption) models.TeamMember {
	f.counter++
	m := models.TeamMember{
		ID:        uuid.New(),
		FullName:  fmt.Sprintf("Test Member %d", f.counter),
		Email:     fmt.Sprintf("member%d@example.com", f.counter),
		Role:      models.RoleProductManager,
		Teams:     []string{"Core"},
		IsActive:  true,
		CreatedAt: f.now,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

type ProjectOption func(*models.Project)

func WithCeiling(pct float64) ProjectOption {
	return func(p *models.Project) { p.MaxCapacityPercentage = &pct }
}

func Archived() ProjectOption {
	return func(p *models.Project) { p.IsArchived = true }
}

func (f *Fixtures) Project(opts ...ProjectOption) models.Project {
	f.counter++
	p := models.Project{
		ID:           uuid.New(),
		CustomerName: fmt.Sprintf("Customer %d", f.counter),
		ProjectName:  fmt.Sprintf("Project %d", f.counter),
		ProjectType:  models.ProjectTypeCustomer,
		Status:       models.ProjectStatusActive,
		CreatedAt:    f.now,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

func (f *Fixtures) Allocation(project models.Project, member models.TeamMember, s sprint.Sprint, pct float64) models.Allocation {
	return models.Allocation{
		ID:                   uuid.New(),
		ProjectID:            project.ID,
		ProductManagerID:     member.ID,
		Year:                 s.Year,
		Month:                s.Month,
		SprintIndex:          s.Index,
		AllocationPercentage: pct,
		AllocationDays:       models.AllocationDays(pct),
		CreatedAt:            f.now,
		CreatedBy:            "fixture",
	}
}

func (f *Fixtures) Created(a models.Allocation) models.HistoryEntry {
	snapshot := a
	return models.HistoryEntry{
		ID:           uuid.New(),
		AllocationID: a.ID,
		ChangedBy:    a.CreatedBy,
		ChangedAt:    f.now,
		ChangeType:   models.ChangeCreated,
		NewValue:     &snapshot,
	}
}

// Snapshot returns a small but complete data set touching every collection.
func (f *Fixtures) Snapshot() *persist.Snapshot {
	manager := f.Member(WithRole(models.RoleTeamLead))
	member := f.Member(WithManager(manager.ID), WithCapacity(80))
	project := f.Project(WithCeiling(150))
	s := sprint.New(2025, 3, 1)
	alloc := f.Allocation(project, member, s, 40)

	snap := persist.EmptySnapshot()
	snap.TeamMembers = []models.TeamMember{manager, member}
	snap.Projects = []models.Project{project}
	snap.Allocations = []models.Allocation{alloc}
	snap.History = []models.HistoryEntry{f.Created(alloc)}
	snap.SprintProjects[s.Key()] = []string{project.ID.String()}
	snap.SprintRoleRequirements[sprint.NewEntityKey(project.ID, s).String()] = map[string]float64{
		string(models.RoleEngineer): 50,
	}
	return snap
}
