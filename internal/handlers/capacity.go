package handlers

import (
	"time"

	"github.com/dimitrije/capacity-planner/internal/capacity"
	"github.com/dimitrije/capacity-planner/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

type CapacityHandler struct {
	store      SprintStoreInterface
	thresholds capacity.Thresholds
	now        func() time.Time
}

func NewCapacityHandler(store SprintStoreInterface, thresholds capacity.Thresholds) *CapacityHandler {
	return &CapacityHandler{
		store:      store,
		thresholds: thresholds,
		now:        time.Now,
	}
}

func (h *CapacityHandler) Members(c *drift.Context) {
	if _, ok := requireActor(c); !ok {
		return
	}
	sp, ok := sprintFromQuery(c, h.now())
	if !ok {
		return
	}
	th, ok := h.thresholdsFor(c)
	if !ok {
		return
	}

	_ = c.JSON(200, dto.CapacityResponse{
		SprintKey:  sp.Key(),
		Thresholds: th,
		Loads:      h.store.MemberLoads(sp, th),
	})
}

func (h *CapacityHandler) Projects(c *drift.Context) {
	if _, ok := requireActor(c); !ok {
		return
	}
	sp, ok := sprintFromQuery(c, h.now())
	if !ok {
		return
	}
	th, ok := h.thresholdsFor(c)
	if !ok {
		return
	}

	_ = c.JSON(200, dto.CapacityResponse{
		SprintKey:  sp.Key(),
		Thresholds: th,
		Loads:      h.store.ProjectLoads(sp, th),
	})
}

func (h *CapacityHandler) Gaps(c *drift.Context) {
	if _, ok := requireActor(c); !ok {
		return
	}
	projectID, ok := parseIDParam(c, "id", "project")
	if !ok {
		return
	}
	sp, ok := sprintFromQuery(c, h.now())
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

// thresholdsFor applies ?mode on top of the configured thresholds.
func (h *CapacityHandler) thresholdsFor(c *drift.Context) (capacity.Thresholds, bool) {
	raw := c.QueryParam("mode")
	if raw == "" {
		return h.thresholds, true
	}
	mode, err := capacity.ParseMode(raw)
	if err != nil {
		c.BadRequest(err.Error())
		return capacity.Thresholds{}, false
	}
	return h.thresholds.WithMode(mode), true
}
