package database

import (
	"context"
	"testing"
	"time"

	"github.com/dimitrije/capacity-planner/internal/models"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBackend(t *testing.T) (*Backend, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &DB{Pool: mock}
	return NewBackend(db), mock
}

func TestBackend_SaveAllocations(t *testing.T) {
	backend, mock := setupBackend(t)
	ctx := context.Background()
	now := time.Now()
	alloc := models.Allocation{
		ID:                   uuid.New(),
		ProjectID:            uuid.New(),
		ProductManagerID:     uuid.New(),
		Year:                 2025,
		Month:                3,
		SprintIndex:          2,
		AllocationPercentage: 40,
		AllocationDays:       4,
		CreatedAt:            now,
		CreatedBy:            "user-1",
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO allocations`).
		WithArgs(alloc.ID, alloc.ProjectID, alloc.ProductManagerID, 2025, 3, 2,
			40.0, 4.0, "", now, "user-1", false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`DELETE FROM allocations WHERE id <> ALL`).
		WithArgs([]uuid.UUID{alloc.ID}).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectCommit()

	err := backend.SaveAllocations(ctx, []models.Allocation{alloc})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBackend_SaveAllocations_EmptyPrunesEverything(t *testing.T) {
	backend, mock := setupBackend(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM allocations WHERE id <> ALL`).
		WithArgs([]uuid.UUID{}).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))
	mock.ExpectCommit()

	err := backend.SaveAllocations(context.Background(), nil)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBackend_SaveAllocations_RollsBackOnError(t *testing.T) {
	backend, mock := setupBackend(t)
	alloc := models.Allocation{ID: uuid.New()}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO allocations`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := backend.SaveAllocations(context.Background(), []models.Allocation{alloc})

	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "failed to upsert allocation")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBackend_SaveAllocations_BeginFails(t *testing.T) {
	backend, mock := setupBackend(t)

	mock.ExpectBegin().WillReturnError(assert.AnError)

	err := backend.SaveAllocations(context.Background(), nil)

	assert.ErrorContains(t, err, "failed to begin transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBackend_SaveTeamMembers(t *testing.T) {
	backend, mock := setupBackend(t)
	managerID := uuid.New()
	capacity := 80.0
	member := models.TeamMember{
		ID:        uuid.New(),
		FullName:  "Ana",
		Email:     "ana@example.com",
		Role:      models.RoleEngineer,
		ManagerID: &managerID,
		Capacity:  &capacity,
		IsActive:  true,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO team_members`).
		WithArgs(member.ID, "Ana", "ana@example.com", "Engineer", []string{}, &managerID, &capacity, true, member.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`DELETE FROM team_members`).
		WithArgs([]uuid.UUID{member.ID}).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCommit()

	err := backend.SaveTeamMembers(context.Background(), []models.TeamMember{member})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBackend_SaveHistoryOnlyInserts(t *testing.T) {
	backend, mock := setupBackend(t)
	entry := models.HistoryEntry{
		ID:           uuid.New(),
		AllocationID: uuid.New(),
		ChangedBy:    "user-1",
		ChangedAt:    time.Now(),
		ChangeType:   models.ChangeCreated,
		NewValue:     &models.Allocation{AllocationPercentage: 40},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO allocation_history`).
		WithArgs(entry.ID, entry.AllocationID, "user-1", entry.ChangedAt, "created", []byte(nil), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := backend.SaveHistory(context.Background(), []models.HistoryEntry{entry})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBackend_SaveSprintProjects(t *testing.T) {
	backend, mock := setupBackend(t)
	id := uuid.NewString()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM sprint_projects`).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`INSERT INTO sprint_projects`).
		WithArgs("2025-1-1", []string{id}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO sprint_projects`).
		WithArgs("2025-1-2", []string{}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := backend.SaveSprintProjects(context.Background(), map[string][]string{
		"2025-1-2": {},
		"2025-1-1": {id},
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBackend_SaveSprintRoleRequirements(t *testing.T) {
	backend, mock := setupBackend(t)
	key := uuid.NewString() + "-2025-1-1"

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM sprint_role_requirements`).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`INSERT INTO sprint_role_requirements`).
		WithArgs(key, []byte(`{"Engineer":50}`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := backend.SaveSprintRoleRequirements(context.Background(), map[string]map[string]float64{
		key: {"Engineer": 50},
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBackend_FetchAll(t *testing.T) {
	backend, mock := setupBackend(t)
	now := time.Now()
	memberID := uuid.New()
	projectID := uuid.New()
	allocID := uuid.New()
	historyID := uuid.New()
	capacity := 90.0

	mock.ExpectQuery(`FROM team_members`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "full_name", "email", "role", "teams", "manager_id", "capacity", "is_active", "created_at"}).
			AddRow(memberID, "Ana", "ana@example.com", "Product Manager", []string{"Core"}, (*uuid.UUID)(nil), &capacity, true, now))
	mock.ExpectQuery(`FROM projects`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "customer_name", "project_name", "project_type", "status", "max_capacity_percentage", "pmo_contact", "is_archived", "comment", "created_at"}).
			AddRow(projectID, "Acme", "Portal", "Customer", "Active", (*float64)(nil), &memberID, false, "", now))
	mock.ExpectQuery(`FROM allocations`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "project_id", "product_manager_id", "year", "month", "sprint_index", "allocation_percentage", "allocation_days", "comment", "created_at", "created_by", "is_planned"}).
			AddRow(allocID, projectID, memberID, 2025, 3, 1, 40.0, 4.0, "", now, "user-1", false))
	mock.ExpectQuery(`FROM allocation_history`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "allocation_id", "changed_by", "changed_at", "change_type", "old_value", "new_value"}).
			AddRow(historyID, allocID, "user-1", now, "created", []byte(nil), []byte(`{"allocationPercentage":40}`)))
	mock.ExpectQuery(`SELECT sprint_key, project_ids FROM sprint_projects`).
		WillReturnRows(pgxmock.NewRows([]string{"sprint_key", "project_ids"}).
			AddRow("2025-3-1", []string{projectID.String()}))
	mock.ExpectQuery(`SELECT entity_key, requirements FROM sprint_role_requirements`).
		WillReturnRows(pgxmock.NewRows([]string{"entity_key", "requirements"}).
			AddRow(projectID.String()+"-2025-3-1", []byte(`{"Engineer":60}`)))

	snap, err := backend.FetchAll(context.Background())

	require.NoError(t, err)
	require.Len(t, snap.TeamMembers, 1)
	assert.Equal(t, models.RoleProductManager, snap.TeamMembers[0].Role)
	assert.Nil(t, snap.TeamMembers[0].ManagerID)
	assert.Equal(t, 90.0, snap.TeamMembers[0].EffectiveCapacity())
	require.Len(t, snap.Projects, 1)
	assert.Equal(t, models.DefaultCapacity, snap.Projects[0].CapacityCeiling())
	require.Len(t, snap.Allocations, 1)
	assert.Equal(t, 40.0, snap.Allocations[0].AllocationPercentage)
	require.Len(t, snap.History, 1)
	assert.Nil(t, snap.History[0].OldValue)
	require.NotNil(t, snap.History[0].NewValue)
	assert.Equal(t, 40.0, snap.History[0].NewValue.AllocationPercentage)
	assert.Equal(t, []string{projectID.String()}, snap.SprintProjects["2025-3-1"])
	assert.Equal(t, 60.0, snap.SprintRoleRequirements[projectID.String()+"-2025-3-1"]["Engineer"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBackend_FetchAll_QueryError(t *testing.T) {
	backend, mock := setupBackend(t)

	mock.ExpectQuery(`FROM team_members`).
		WillReturnError(assert.AnError)

	_, err := backend.FetchAll(context.Background())

	assert.ErrorContains(t, err, "failed to query team members")
	assert.NoError(t, mock.ExpectationsWereMet())
}
