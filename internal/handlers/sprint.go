package handlers

import (
	"context"
	"time"

	"github.com/dimitrije/capacity-planner/internal/capacity"
	"github.com/dimitrije/capacity-planner/internal/models"
	"github.com/dimitrije/capacity-planner/internal/sprint"
	"github.com/dimitrije/capacity-planner/internal/sse"
	"github.com/dimitrije/capacity-planner/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

const dateLayout = "2006-01-02"

type SprintHandler struct {
	store SprintStoreInterface
	hub   HubInterface
	now   func() time.Time
}

func NewSprintHandler(store SprintStoreInterface, hub HubInterface) *SprintHandler {
	return &SprintHandler{
		store: store,
		hub:   hub,
		now:   time.Now,
	}
}

func (h *SprintHandler) Current(c *drift.Context) {
	if _, ok := requireActor(c); !ok {
		return
	}
	_ = c.JSON(200, h.describe(sprint.Current(h.now())))
}

func (h *SprintHandler) Get(c *drift.Context) {
	if _, ok := requireActor(c); !ok {
		return
	}
	sp, ok := sprintFromParams(c)
	if !ok {
		return
	}
	_ = c.JSON(200, h.describe(sp))
}

func (h *SprintHandler) describe(sp sprint.Sprint) dto.SprintResponse {
	now := h.now()
	start, end := sp.Dates(now.Location())
	return dto.SprintResponse{
		Year:      sp.Year,
		Month:     sp.Month,
		Sprint:    sp.Index,
		Key:       sp.Key(),
		StartDate: start.Format(dateLayout),
		EndDate:   end.Format(dateLayout),
		IsPast:    sp.IsPast(now),
		IsCurrent: sp == sprint.Current(now),
	}
}

func (h *SprintHandler) Projects(c *drift.Context) {
	if _, ok := requireActor(c); !ok {
		return
	}
	sp, ok := sprintFromParams(c)
	if !ok {
		return
	}

	_ = c.JSON(200, dto.SprintProjectsResponse{
		SprintKey:  sp.Key(),
		ProjectIDs: h.store.SprintProjects(sp),
	})
}

func (h *SprintHandler) SetProjects(c *drift.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	sp, ok := sprintFromParams(c)
	if !ok {
		return
	}

	var req dto.SprintProjectsRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	ids, err := h.store.SetSprintProjects(context.Background(), sp, req.ProjectIDs)
	if ids != nil {
		h.hub.Broadcast(sse.EventSprintPlanChanged, sse.SprintPlanEvent{SprintKey: sp.Key(), ChangedBy: actorID})
	}
	if err != nil {
		respondError(c, err, nil)
		return
	}

	_ = c.JSON(200, dto.SprintProjectsResponse{SprintKey: sp.Key(), ProjectIDs: ids})
}

func (h *SprintHandler) Requirements(c *drift.Context) {
	if _, ok := requireActor(c); !ok {
		return
	}
	projectID, ok := parseIDParam(c, "id", "project")
	if !ok {
		return
	}
	sp, ok := sprintFromParams(c)
	if !ok {
		return
	}

	gaps, err := h.store.RoleGaps(projectID, sp)
	if err != nil {
		respondError(c, err, nil)
		return
	}

	_ = c.JSON(200, dto.RoleRequirementsResponse{
		ProjectID:    projectID,
		SprintKey:    sp.Key(),
		Requirements: h.store.RoleRequirements(projectID, sp),
		Gaps:         gaps,
	})
}

func (h *SprintHandler) SetRequirements(c *drift.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	projectID, ok := parseIDParam(c, "id", "project")
	if !ok {
		return
	}
	sp, ok := sprintFromParams(c)
	if !ok {
		return
	}

	var req dto.RoleRequirementsRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	reqs := make(map[models.Role]float64, len(req.Requirements))
	for role, pct := range req.Requirements {
		reqs[models.Role(role)] = pct
	}

	saved, err := h.store.SetRoleRequirements(context.Background(), projectID, sp, reqs)
	if saved != nil {
		h.hub.Broadcast(sse.EventSprintPlanChanged, sse.SprintPlanEvent{
			SprintKey: sp.Key(),
			ProjectID: &projectID,
			ChangedBy: actorID,
		})
	}
	if err != nil {
		respondError(c, err, nil)
		return
	}

	gaps, err := h.store.RoleGaps(projectID, sp)
	if err != nil {
		gaps = []capacity.RoleGap{}
	}

	_ = c.JSON(200, dto.RoleRequirementsResponse{
		ProjectID:    projectID,
		SprintKey:    sp.Key(),
		Requirements: saved,
		Gaps:         gaps,
	})
}
