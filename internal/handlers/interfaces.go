package handlers

import (
	"context"

	"github.com/dimitrije/capacity-planner/internal/capacity"
	"github.com/dimitrije/capacity-planner/internal/models"
	"github.com/dimitrije/capacity-planner/internal/persist"
	"github.com/dimitrije/capacity-planner/internal/services"
	"github.com/dimitrije/capacity-planner/internal/sprint"
	"github.com/dimitrije/capacity-planner/internal/sse"
	"github.com/google/uuid"
)

// MemberStoreInterface defines the member methods used by handlers from Store
type MemberStoreInterface interface {
	AddMember(ctx context.Context, in services.MemberInput) (*models.TeamMember, error)
	UpdateMember(ctx context.Context, id uuid.UUID, patch services.MemberPatch) (*models.TeamMember, error)
	SetManager(ctx context.Context, memberID uuid.UUID, managerID *uuid.UUID) (*models.TeamMember, error)
	SetMemberActive(ctx context.Context, id uuid.UUID, active bool) (*models.TeamMember, error)
	Member(id uuid.UUID) (*models.TeamMember, error)
	Members(includeInactive bool) []models.TeamMember
	Reports(managerID uuid.UUID) []models.TeamMember
}

// ProjectStoreInterface defines the project methods used by handlers from Store
type ProjectStoreInterface interface {
	AddProject(ctx context.Context, in services.ProjectInput) (*models.Project, error)
	UpdateProject(ctx context.Context, id uuid.UUID, patch services.ProjectPatch) (*models.Project, error)
	SetProjectArchived(ctx context.Context, id uuid.UUID, archived bool) (*models.Project, error)
	Project(id uuid.UUID) (*models.Project, error)
	Projects(includeArchived bool) []models.Project
}

// AllocationStoreInterface defines the allocation methods used by handlers from Store
type AllocationStoreInterface interface {
	AddAllocation(ctx context.Context, in services.AllocationInput, actor string) (*models.Allocation, error)
	UpdateAllocation(ctx context.Context, id uuid.UUID, patch services.AllocationPatch, actor string) (*models.Allocation, error)
	MoveAllocation(ctx context.Context, id uuid.UUID, patch services.AllocationPatch, actor string) (*models.Allocation, error)
	DeleteAllocation(ctx context.Context, id uuid.UUID, actor string) error
	Allocation(id uuid.UUID) (*models.Allocation, error)
	Allocations(f services.AllocationFilter) []models.Allocation
	FindConflict(key models.AllocationKey, excludeID uuid.UUID) (*models.Allocation, bool)
	CheckProjectCapacity(projectID uuid.UUID, sp sprint.Sprint, newPct float64, excludeID uuid.UUID) (*capacity.Warning, error)
	CheckMemberCapacity(memberID uuid.UUID, sp sprint.Sprint, newPct float64, excludeID uuid.UUID) (*capacity.Warning, error)
	History() []models.HistoryEntry
	AllocationHistory(id uuid.UUID) []models.HistoryEntry
}

// SprintStoreInterface defines the sprint metadata and capacity methods used by handlers from Store
type SprintStoreInterface interface {
	SetSprintProjects(ctx context.Context, sp sprint.Sprint, projectIDs []uuid.UUID) ([]uuid.UUID, error)
	SprintProjects(sp sprint.Sprint) []uuid.UUID
	SetRoleRequirements(ctx context.Context, projectID uuid.UUID, sp sprint.Sprint, reqs map[models.Role]float64) (map[models.Role]float64, error)
	RoleRequirements(projectID uuid.UUID, sp sprint.Sprint) map[models.Role]float64
	MemberLoads(sp sprint.Sprint, th capacity.Thresholds) []capacity.Load
	ProjectLoads(sp sprint.Sprint, th capacity.Thresholds) []capacity.Load
	RoleGaps(projectID uuid.UUID, sp sprint.Sprint) ([]capacity.RoleGap, error)
}

// StatusSourceInterface defines the save status methods used by handlers from Store
type StatusSourceInterface interface {
	SaveStatus() persist.Status
	Warnings() []string
}

// HubInterface defines the methods used by handlers from the SSE hub
type HubInterface interface {
	Register(client *sse.Client)
	Unregister(client *sse.Client)
	ClientCount() int
	Broadcast(eventType string, data any)
}
