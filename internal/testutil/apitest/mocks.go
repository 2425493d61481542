// Package apitest holds mocks and HTTP helpers for handler tests.
package apitest

import (
	"context"

	"github.com/dimitrije/capacity-planner/internal/capacity"
	"github.com/dimitrije/capacity-planner/internal/models"
	"github.com/dimitrije/capacity-planner/internal/persist"
	"github.com/dimitrije/capacity-planner/internal/services"
	"github.com/dimitrije/capacity-planner/internal/sprint"
	"github.com/dimitrije/capacity-planner/internal/sse"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockStore mocks the planner Store
type MockStore struct {
	mock.Mock
}

func allocationResult(args mock.Arguments) (*models.Allocation, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Allocation), args.Error(1)
}

func memberResult(args mock.Arguments) (*models.TeamMember, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeamMember), args.Error(1)
}

func projectResult(args mock.Arguments) (*models.Project, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Project), args.Error(1)
}

func warningResult(args mock.Arguments) (*capacity.Warning, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*capacity.Warning), args.Error(1)
}

func (m *MockStore) AddAllocation(ctx context.Context, in services.AllocationInput, actor string) (*models.Allocation, error) {
	return allocationResult(m.Called(ctx, in, actor))
}

func (m *MockStore) UpdateAllocation(ctx context.Context, id uuid.UUID, patch services.AllocationPatch, actor string) (*models.Allocation, error) {
	return allocationResult(m.Called(ctx, id, patch, actor))
}

func (m *MockStore) MoveAllocation(ctx context.Context, id uuid.UUID, patch services.AllocationPatch, actor string) (*models.Allocation, error) {
	return allocationResult(m.Called(ctx, id, patch, actor))
}

func (m *MockStore) DeleteAllocation(ctx context.Context, id uuid.UUID, actor string) error {
	args := m.Called(ctx, id, actor)
	return args.Error(0)
}

func (m *MockStore) Allocation(id uuid.UUID) (*models.Allocation, error) {
	return allocationResult(m.Called(id))
}

func (m *MockStore) Allocations(f services.AllocationFilter) []models.Allocation {
	args := m.Called(f)
	return args.Get(0).([]models.Allocation)
}

func (m *MockStore) FindConflict(key models.AllocationKey, excludeID uuid.UUID) (*models.Allocation, bool) {
	args := m.Called(key, excludeID)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*models.Allocation), args.Bool(1)
}

func (m *MockStore) CheckProjectCapacity(projectID uuid.UUID, sp sprint.Sprint, newPct float64, excludeID uuid.UUID) (*capacity.Warning, error) {
	return warningResult(m.Called(projectID, sp, newPct, excludeID))
}

func (m *MockStore) CheckMemberCapacity(memberID uuid.UUID, sp sprint.Sprint, newPct float64, excludeID uuid.UUID) (*capacity.Warning, error) {
	return warningResult(m.Called(memberID, sp, newPct, excludeID))
}

func (m *MockStore) History() []models.HistoryEntry {
	args := m.Called()
	return args.Get(0).([]models.HistoryEntry)
}

func (m *MockStore) AllocationHistory(id uuid.UUID) []models.HistoryEntry {
	args := m.Called(id)
	return args.Get(0).([]models.HistoryEntry)
}

func (m *MockStore) AddMember(ctx context.Context, in services.MemberInput) (*models.TeamMember, error) {
	return memberResult(m.Called(ctx, in))
}

func (m *MockStore) UpdateMember(ctx context.Context, id uuid.UUID, patch services.MemberPatch) (*models.TeamMember, error) {
	return memberResult(m.Called(ctx, id, patch))
}

func (m *MockStore) SetManager(ctx context.Context, memberID uuid.UUID, managerID *uuid.UUID) (*models.TeamMember, error) {
	return memberResult(m.Called(ctx, memberID, managerID))
}

func (m *MockStore) SetMemberActive(ctx context.Context, id uuid.UUID, active bool) (*models.TeamMember, error) {
	return memberResult(m.Called(ctx, id, active))
}

func (m *MockStore) Member(id uuid.UUID) (*models.TeamMember, error) {
	return memberResult(m.Called(id))
}

func (m *MockStore) Members(includeInactive bool) []models.TeamMember {
	args := m.Called(includeInactive)
	return args.Get(0).([]models.TeamMember)
}

func (m *MockStore) Reports(managerID uuid.UUID) []models.TeamMember {
	args := m.Called(managerID)
	return args.Get(0).([]models.TeamMember)
}

func (m *MockStore) AddProject(ctx context.Context, in services.ProjectInput) (*models.Project, error) {
	return projectResult(m.Called(ctx, in))
}

func (m *MockStore) UpdateProject(ctx context.Context, id uuid.UUID, patch services.ProjectPatch) (*models.Project, error) {
	return projectResult(m.Called(ctx, id, patch))
}

func (m *MockStore) SetProjectArchived(ctx context.Context, id uuid.UUID, archived bool) (*models.Project, error) {
	return projectResult(m.Called(ctx, id, archived))
}

func (m *MockStore) Project(id uuid.UUID) (*models.Project, error) {
	return projectResult(m.Called(id))
}

func (m *MockStore) Projects(includeArchived bool) []models.Project {
	args := m.Called(includeArchived)
	return args.Get(0).([]models.Project)
}

func (m *MockStore) SetSprintProjects(ctx context.Context, sp sprint.Sprint, projectIDs []uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, sp, projectIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockStore) SprintProjects(sp sprint.Sprint) []uuid.UUID {
	args := m.Called(sp)
	return args.Get(0).([]uuid.UUID)
}

func (m *MockStore) SetRoleRequirements(ctx context.Context, projectID uuid.UUID, sp sprint.Sprint, reqs map[models.Role]float64) (map[models.Role]float64, error) {
	args := m.Called(ctx, projectID, sp, reqs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[models.Role]float64), args.Error(1)
}

func (m *MockStore) RoleRequirements(projectID uuid.UUID, sp sprint.Sprint) map[models.Role]float64 {
	args := m.Called(projectID, sp)
	return args.Get(0).(map[models.Role]float64)
}

func (m *MockStore) MemberLoads(sp sprint.Sprint, th capacity.Thresholds) []capacity.Load {
	args := m.Called(sp, th)
	return args.Get(0).([]capacity.Load)
}

func (m *MockStore) ProjectLoads(sp sprint.Sprint, th capacity.Thresholds) []capacity.Load {
	args := m.Called(sp, th)
	return args.Get(0).([]capacity.Load)
}

func (m *MockStore) RoleGaps(projectID uuid.UUID, sp sprint.Sprint) ([]capacity.RoleGap, error) {
	args := m.Called(projectID, sp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]capacity.RoleGap), args.Error(1)
}

func (m *MockStore) SaveStatus() persist.Status {
	args := m.Called()
	return args.Get(0).(persist.Status)
}

func (m *MockStore) Warnings() []string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

// MockHub mocks the SSE hub
type MockHub struct {
	mock.Mock
}

func (m *MockHub) Register(client *sse.Client) {
	m.Called(client)
}

func (m *MockHub) Unregister(client *sse.Client) {
	m.Called(client)
}

func (m *MockHub) ClientCount() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockHub) Broadcast(eventType string, data any) {
	m.Called(eventType, data)
}
