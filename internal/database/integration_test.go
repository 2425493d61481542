//go:build integration

package database_test

import (
	"context"
	"slices"
	"testing"

	"github.com/dimitrije/capacity-planner/internal/database"
	"github.com/dimitrije/capacity-planner/internal/persist"
	"github.com/dimitrije/capacity-planner/internal/services"
	"github.com/dimitrije/capacity-planner/internal/sprint"
	"github.com/dimitrije/capacity-planner/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saveAll(t *testing.T, b persist.Backend, snap *persist.Snapshot) {
	t.Helper()
	ctx := context.Background()
	for _, c := range append(slices.Clone(persist.BulkCollections), persist.SprintProjects, persist.RoleRequirements) {
		require.NoError(t, persist.Save(ctx, b, snap, c), "save %s", c)
	}
}

// normalizeTimes moves timestamps read back from Postgres into UTC.
func normalizeTimes(snap *persist.Snapshot) {
	for i := range snap.TeamMembers {
		snap.TeamMembers[i].CreatedAt = snap.TeamMembers[i].CreatedAt.UTC()
	}
	for i := range snap.Projects {
		snap.Projects[i].CreatedAt = snap.Projects[i].CreatedAt.UTC()
	}
	for i := range snap.Allocations {
		snap.Allocations[i].CreatedAt = snap.Allocations[i].CreatedAt.UTC()
	}
}

func TestBackend_RoundTrip(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	backend := database.NewBackend(tdb.DB)
	want := testutil.NewFixtures().Snapshot()

	saveAll(t, backend, want)
	got, err := backend.FetchAll(context.Background())

	require.NoError(t, err)
	normalizeTimes(got)
	assert.ElementsMatch(t, want.TeamMembers, got.TeamMembers)
	assert.Equal(t, want.Projects, got.Projects)
	assert.Equal(t, want.Allocations, got.Allocations)
	require.Len(t, got.History, 1)
	assert.Equal(t, want.History[0].NewValue.ID, got.History[0].NewValue.ID)
	assert.Equal(t, want.SprintProjects, got.SprintProjects)
	assert.Equal(t, want.SprintRoleRequirements, got.SprintRoleRequirements)
}

func TestBackend_SavePrunesRemovedRows(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	backend := database.NewBackend(tdb.DB)
	snap := testutil.NewFixtures().Snapshot()
	saveAll(t, backend, snap)

	require.NoError(t, backend.SaveAllocations(context.Background(), nil))
	require.NoError(t, backend.SaveSprintProjects(context.Background(), map[string][]string{}))

	got, err := backend.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.Allocations)
	assert.Empty(t, got.SprintProjects)
	assert.Len(t, got.History, 1, "history is never pruned")
}

func TestStore_PostgresEndToEnd(t *testing.T) {
	tdb := testutil.SetupTestDB(t)
	backend := database.NewBackend(tdb.DB)
	ctx := context.Background()
	fx := testutil.NewFixtures()
	snap := persist.EmptySnapshot()
	snap.TeamMembers = append(snap.TeamMembers, fx.Member())
	snap.Projects = append(snap.Projects, fx.Project())
	saveAll(t, backend, snap)

	store := services.NewStore(backend, services.StoreOptions{})
	require.NoError(t, store.Load(ctx))
	alloc, err := store.AddAllocation(ctx, services.AllocationInput{
		ProjectID:            snap.Projects[0].ID,
		ProductManagerID:     snap.TeamMembers[0].ID,
		Sprint:               sprint.New(2025, 5, 2),
		AllocationPercentage: 40,
	}, "user-1")
	require.NoError(t, err)
	require.NoError(t, store.Close(ctx))

	reloaded := services.NewStore(backend, services.StoreOptions{})
	require.NoError(t, reloaded.Load(ctx))
	got, err := reloaded.Allocation(alloc.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.AllocationDays)
	assert.Len(t, reloaded.History(), 1)
	require.NoError(t, reloaded.Close(ctx))
}
