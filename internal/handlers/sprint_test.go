package handlers

import (
	"net/http"
	"testing"

	"github.com/dimitrije/capacity-planner/internal/capacity"
	"github.com/dimitrije/capacity-planner/internal/models"
	"github.com/dimitrije/capacity-planner/internal/services"
	"github.com/dimitrije/capacity-planner/internal/sprint"
	"github.com/dimitrije/capacity-planner/internal/sse"
	"github.com/dimitrije/capacity-planner/internal/testutil/apitest"
	"github.com/dimitrije/capacity-planner/pkg/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSprintHandler_Current(t *testing.T) {
	f := newAPI(t)

	rec := f.client.GET("/api/v1/sprint/current", f.auth)

	apitest.AssertStatus(t, rec, http.StatusOK)
	var body dto.SprintResponse
	apitest.ParseJSON(t, rec, &body)
	assert.Equal(t, dto.SprintResponse{
		Year:      2025,
		Month:     3,
		Sprint:    2,
		Key:       "2025-3-2",
		StartDate: "2025-03-16",
		EndDate:   "2025-03-31",
		IsCurrent: true,
	}, body)
}

func TestSprintHandler_Get(t *testing.T) {
	tests := []struct {
		path   string
		start  string
		end    string
		isPast bool
	}{
		{"/api/v1/sprints/2024/2/2", "2024-02-16", "2024-02-29", true},
		{"/api/v1/sprints/2025/3/1", "2025-03-01", "2025-03-15", true},
		{"/api/v1/sprints/2025/2/2", "2025-02-16", "2025-02-28", true},
		{"/api/v1/sprints/2025/12/2", "2025-12-16", "2025-12-31", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			f := newAPI(t)

			rec := f.client.GET(tt.path, f.auth)

			apitest.AssertStatus(t, rec, http.StatusOK)
			var body dto.SprintResponse
			apitest.ParseJSON(t, rec, &body)
			assert.Equal(t, tt.start, body.StartDate)
			assert.Equal(t, tt.end, body.EndDate)
			assert.Equal(t, tt.isPast, body.IsPast)
			assert.False(t, body.IsCurrent)
		})
	}
}

func TestSprintHandler_Get_Invalid(t *testing.T) {
	f := newAPI(t)

	for _, path := range []string{"/api/v1/sprints/2025/13/1", "/api/v1/sprints/2025/3/3", "/api/v1/sprints/x/3/1"} {
		t.Run(path, func(t *testing.T) {
			rec := f.client.GET(path, f.auth)
			apitest.AssertStatus(t, rec, http.StatusBadRequest)
		})
	}
}

func TestSprintHandler_Projects(t *testing.T) {
	f := newAPI(t)
	sp := sprint.New(2025, 4, 2)
	a, b := uuid.New(), uuid.New()

	f.store.On("SprintProjects", sp).Return([]uuid.UUID{a})
	f.store.On("SetSprintProjects", mock.Anything, sp, []uuid.UUID{a, b, a}).Return([]uuid.UUID{a, b}, nil)
	f.hub.On("Broadcast", sse.EventSprintPlanChanged, sse.SprintPlanEvent{SprintKey: "2025-4-2", ChangedBy: f.actorID}).Return()

	rec := f.client.GET("/api/v1/sprints/2025/4/2/projects", f.auth)
	apitest.AssertStatus(t, rec, http.StatusOK)
	var got dto.SprintProjectsResponse
	apitest.ParseJSON(t, rec, &got)
	assert.Equal(t, "2025-4-2", got.SprintKey)
	assert.Equal(t, []uuid.UUID{a}, got.ProjectIDs)

	rec = f.client.PUT("/api/v1/sprints/2025/4/2/projects", dto.SprintProjectsRequest{ProjectIDs: []uuid.UUID{a, b, a}}, f.auth)
	apitest.AssertStatus(t, rec, http.StatusOK)
	apitest.ParseJSON(t, rec, &got)
	assert.Equal(t, []uuid.UUID{a, b}, got.ProjectIDs)
}

func TestSprintHandler_SetProjects_UnknownProject(t *testing.T) {
	f := newAPI(t)
	sp := sprint.New(2025, 4, 2)
	f.store.On("SetSprintProjects", mock.Anything, sp, mock.Anything).Return(nil, services.ErrProjectNotFound)

	rec := f.client.PUT("/api/v1/sprints/2025/4/2/projects", dto.SprintProjectsRequest{ProjectIDs: []uuid.UUID{uuid.New()}}, f.auth)

	apitest.AssertStatus(t, rec, http.StatusNotFound)
	f.hub.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything)
}

func TestSprintHandler_Requirements(t *testing.T) {
	f := newAPI(t)
	projectID := uuid.New()
	sp := sprint.New(2025, 3, 1)
	reqs := map[models.Role]float64{models.RoleEngineer: 50, models.RoleDesigner: 20}
	gaps := []capacity.RoleGap{{Role: models.RoleEngineer, Required: 50, Allocated: 30}}

	f.store.On("SetRoleRequirements", mock.Anything, projectID, sp, reqs).Return(reqs, nil)
	f.store.On("RoleGaps", projectID, sp).Return(gaps, nil)
	f.store.On("RoleRequirements", projectID, sp).Return(reqs)
	f.hub.On("Broadcast", sse.EventSprintPlanChanged, mock.MatchedBy(func(e sse.SprintPlanEvent) bool {
		return e.ProjectID != nil && *e.ProjectID == projectID && e.SprintKey == "2025-3-1"
	})).Return()

	path := "/api/v1/projects/" + projectID.String() + "/sprints/2025/3/1/requirements"
	rec := f.client.PUT(path, dto.RoleRequirementsRequest{
		Requirements: map[string]float64{"Engineer": 50, "Designer": 20},
	}, f.auth)
	apitest.AssertStatus(t, rec, http.StatusOK)
	var body dto.RoleRequirementsResponse
	apitest.ParseJSON(t, rec, &body)
	assert.Equal(t, 50.0, body.Requirements[models.RoleEngineer])
	require.Len(t, body.Gaps, 1)
	assert.Equal(t, 30.0, body.Gaps[0].Allocated)

	rec = f.client.GET(path, f.auth)
	apitest.AssertStatus(t, rec, http.StatusOK)
	apitest.ParseJSON(t, rec, &body)
	assert.Len(t, body.Requirements, 2)
}

func TestSprintHandler_SetRequirements_InvalidRole(t *testing.T) {
	f := newAPI(t)
	projectID := uuid.New()
	f.store.On("SetRoleRequirements", mock.Anything, projectID, sprint.New(2025, 3, 1), mock.Anything).Return(nil, services.ErrInvalidRole)

	rec := f.client.PUT("/api/v1/projects/"+projectID.String()+"/sprints/2025/3/1/requirements", dto.RoleRequirementsRequest{
		Requirements: map[string]float64{"Astronaut": 10},
	}, f.auth)

	apitest.AssertStatus(t, rec, http.StatusBadRequest)
}
