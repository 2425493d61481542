package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dimitrije/capacity-planner/internal/models"
	"github.com/dimitrije/capacity-planner/internal/persist"
	"github.com/dimitrije/capacity-planner/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_MissingFileIsEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "db.json"))

	snap, err := s.FetchAll(context.Background())

	require.NoError(t, err)
	assert.Empty(t, snap.Allocations)
	assert.NotNil(t, snap.SprintProjects)
}

func TestStore_SaveWritesCamelCaseDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "db.json")
	s := New(path)
	ctx := context.Background()
	want := testutil.NewFixtures().Snapshot()

	require.NoError(t, s.SaveAllocations(ctx, want.Allocations))
	require.NoError(t, s.SaveSprintProjects(ctx, want.SprintProjects))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, doc, "allocations")
	assert.Contains(t, doc, "sprintProjects")
	assert.Contains(t, string(doc["allocations"]), `"productManagerId"`)

	// nothing else in the directory
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	ctx := context.Background()
	want := testutil.NewFixtures().Snapshot()

	writer := New(path)
	for _, c := range []persist.Collection{
		persist.Members, persist.Projects, persist.Allocations,
		persist.History, persist.SprintProjects, persist.RoleRequirements,
	} {
		require.NoError(t, persist.Save(ctx, writer, want, c))
	}

	got, err := New(path).FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, got.TeamMembers, 2)
	assert.Equal(t, want.TeamMembers[1].ID, got.TeamMembers[1].ID)
	assert.Equal(t, 80.0, got.TeamMembers[1].EffectiveCapacity())
	require.Len(t, got.History, 1)
	assert.Equal(t, models.ChangeCreated, got.History[0].ChangeType)
	assert.Equal(t, want.SprintRoleRequirements, got.SprintRoleRequirements)
}

func TestStore_SaveKeepsOtherCollections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	ctx := context.Background()
	want := testutil.NewFixtures().Snapshot()
	require.NoError(t, New(path).SaveTeamMembers(ctx, want.TeamMembers))

	// a fresh store reads the file before its first write
	s := New(path)
	require.NoError(t, s.SaveProjects(ctx, want.Projects))

	got, err := s.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, got.TeamMembers, 2)
	assert.Len(t, got.Projects, 1)
}

func TestStore_ConcurrentSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	s := New(path)
	ctx := context.Background()
	want := testutil.NewFixtures().Snapshot()

	var wg sync.WaitGroup
	for _, c := range persist.BulkCollections {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, persist.Save(ctx, s, want, c))
		}()
	}
	wg.Wait()

	got, err := New(path).FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, got.TeamMembers, 2)
	assert.Len(t, got.Projects, 1)
	assert.Len(t, got.Allocations, 1)
	assert.Len(t, got.History, 1)
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := New(path).FetchAll(context.Background())

	assert.ErrorContains(t, err, "decoding")
}
