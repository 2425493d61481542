package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/dimitrije/capacity-planner/internal/capacity"
	"github.com/dimitrije/capacity-planner/internal/middleware"
	"github.com/dimitrije/capacity-planner/internal/models"
	"github.com/dimitrije/capacity-planner/internal/persist"
	"github.com/dimitrije/capacity-planner/internal/services"
	"github.com/dimitrije/capacity-planner/internal/sprint"
	"github.com/dimitrije/capacity-planner/internal/sse"
	"github.com/dimitrije/capacity-planner/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type AllocationHandler struct {
	store AllocationStoreInterface
	hub   HubInterface
}

func NewAllocationHandler(store AllocationStoreInterface, hub HubInterface) *AllocationHandler {
	return &AllocationHandler{
		store: store,
		hub:   hub,
	}
}

func (h *AllocationHandler) List(c *drift.Context) {
	if _, ok := requireActor(c); !ok {
		return
	}

	var filter services.AllocationFilter
	var ok bool
	if filter.MemberID, ok = parseOptionalID(c, "memberId"); !ok {
		return
	}
	if filter.ProjectID, ok = parseOptionalID(c, "projectId"); !ok {
		return
	}
	if filter.Planned, ok = parseOptionalBool(c, "planned"); !ok {
		return
	}

	year, month, index := c.QueryParam("year"), c.QueryParam("month"), c.QueryParam("sprint")
	var wantYear, wantMonth int
	switch {
	case index != "":
		sp, err := sprintFrom(year, month, index)
		if err != nil {
			c.BadRequest(err.Error())
			return
		}
		filter.Sprint = &sp
	case year != "" || month != "":
		var err error
		if wantYear, err = atoiField(year, "year"); err != nil {
			c.BadRequest(err.Error())
			return
		}
		if month != "" {
			if wantMonth, err = atoiField(month, "month"); err != nil {
				c.BadRequest(err.Error())
				return
			}
		}
	}

	allocations := h.store.Allocations(filter)
	if wantYear != 0 {
		kept := allocations[:0]
		for _, a := range allocations {
			if a.Year == wantYear && (wantMonth == 0 || a.Month == wantMonth) {
				kept = append(kept, a)
			}
		}
		allocations = kept
	}

	_ = c.JSON(200, allocations)
}

func (h *AllocationHandler) Get(c *drift.Context) {
	if _, ok := requireActor(c); !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "allocation")
	if !ok {
		return
	}

	alloc, err := h.store.Allocation(id)
	if err != nil {
		c.NotFound("allocation not found")
		return
	}

	_ = c.JSON(200, alloc)
}

func (h *AllocationHandler) Create(c *drift.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.CreateAllocationRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.ProjectID == uuid.Nil || req.ProductManagerID == uuid.Nil {
		c.BadRequest("projectId and productManagerId are required")
		return
	}

	if !services.ValidPercentage(req.AllocationPercentage) {
		respondError(c, services.ErrInvalidPercentage, nil)
		return
	}
	sp := sprint.New(req.Year, req.Month, req.SprintIndex)
	if !sp.Valid() {
		respondError(c, services.ErrInvalidSprint, nil)
		return
	}

	if !req.ConfirmOverCapacity {
		warnings, err := h.capacityWarnings(req.ProjectID, req.ProductManagerID, sp, req.AllocationPercentage, uuid.Nil)
		if err != nil {
			respondError(c, err, nil)
			return
		}
		if len(warnings) > 0 {
			respondCapacityExceeded(c, warnings)
			return
		}
	}

	alloc, err := h.store.AddAllocation(context.Background(), services.AllocationInput{
		ProjectID:            req.ProjectID,
		ProductManagerID:     req.ProductManagerID,
		Sprint:               sp,
		AllocationPercentage: req.AllocationPercentage,
		Comment:              req.Comment,
		IsPlanned:            req.IsPlanned,
	}, middleware.Actor(c))
	if alloc != nil {
		h.broadcast(sse.EventAllocationCreated, alloc, actorID)
	}
	if err != nil {
		if errors.Is(err, services.ErrDuplicateAllocation) {
			existing, _ := h.store.FindConflict(models.AllocationKey{
				ProjectID:        req.ProjectID,
				ProductManagerID: req.ProductManagerID,
				Sprint:           sp,
			}, uuid.Nil)
			respondDuplicate(c, existing)
			return
		}
		respondError(c, err, alloc)
		return
	}

	_ = c.JSON(http.StatusCreated, alloc)
}

// Update merges the request into the allocation. Moving it onto a tuple that
// is already taken is rejected, and a new percentage re-derives the days
// unless the request sets them.
func (h *AllocationHandler) Update(c *drift.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "allocation")
	if !ok {
		return
	}

	var req dto.UpdateAllocationRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.AllocationPercentage != nil && !services.ValidPercentage(*req.AllocationPercentage) {
		respondError(c, services.ErrInvalidPercentage, nil)
		return
	}

	existing, err := h.store.Allocation(id)
	if err != nil {
		respondError(c, err, nil)
		return
	}

	patch := services.AllocationPatch{
		ProjectID:            req.ProjectID,
		ProductManagerID:     req.ProductManagerID,
		Year:                 req.Year,
		Month:                req.Month,
		SprintIndex:          req.SprintIndex,
		AllocationPercentage: req.AllocationPercentage,
		AllocationDays:       req.AllocationDays,
		Comment:              req.Comment,
		IsPlanned:            req.IsPlanned,
	}
	if patch.AllocationPercentage != nil && patch.AllocationDays == nil {
		days := models.AllocationDays(*patch.AllocationPercentage)
		patch.AllocationDays = &days
	}

	target := *existing
	if patch.ProjectID != nil {
		target.ProjectID = *patch.ProjectID
	}
	if patch.ProductManagerID != nil {
		target.ProductManagerID = *patch.ProductManagerID
	}
	if patch.Year != nil {
		target.Year = *patch.Year
	}
	if patch.Month != nil {
		target.Month = *patch.Month
	}
	if patch.SprintIndex != nil {
		target.SprintIndex = *patch.SprintIndex
	}
	if patch.AllocationPercentage != nil {
		target.AllocationPercentage = *patch.AllocationPercentage
	}

	moved := target.Key() != existing.Key()
	if moved {
		if !target.Sprint().Valid() {
			respondError(c, services.ErrInvalidSprint, nil)
			return
		}
		if conflict, found := h.store.FindConflict(target.Key(), id); found {
			respondDuplicate(c, conflict)
			return
		}
	}

	if !req.ConfirmOverCapacity && (moved || target.AllocationPercentage != existing.AllocationPercentage) {
		warnings, err := h.capacityWarnings(target.ProjectID, target.ProductManagerID, target.Sprint(), target.AllocationPercentage, id)
		if err != nil {
			respondError(c, err, nil)
			return
		}
		if len(warnings) > 0 {
			respondCapacityExceeded(c, warnings)
			return
		}
	}

	update := h.store.UpdateAllocation
	if moved {
		update = h.store.MoveAllocation
	}
	alloc, err := update(context.Background(), id, patch, middleware.Actor(c))
	if alloc != nil {
		h.broadcast(sse.EventAllocationUpdated, alloc, actorID)
	}
	if err != nil {
		if errors.Is(err, services.ErrDuplicateAllocation) {
			if conflict, found := h.store.FindConflict(target.Key(), id); found {
				respondDuplicate(c, conflict)
				return
			}
		}
		respondError(c, err, alloc)
		return
	}

	_ = c.JSON(200, alloc)
}

func (h *AllocationHandler) Delete(c *drift.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "allocation")
	if !ok {
		return
	}

	existing, _ := h.store.Allocation(id)

	err := h.store.DeleteAllocation(context.Background(), id, middleware.Actor(c))
	var perr *persist.PersistenceError
	if err != nil && !errors.As(err, &perr) {
		respondError(c, err, nil)
		return
	}
	if existing != nil {
		h.broadcast(sse.EventAllocationDeleted, existing, actorID)
	}
	if err != nil {
		respondError(c, err, nil)
		return
	}

	_ = c.JSON(200, map[string]string{"message": "allocation deleted"})
}

func (h *AllocationHandler) AllocationHistory(c *drift.Context) {
	if _, ok := requireActor(c); !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "allocation")
	if !ok {
		return
	}

	_ = c.JSON(200, h.store.AllocationHistory(id))
}

func (h *AllocationHandler) History(c *drift.Context) {
	if _, ok := requireActor(c); !ok {
		return
	}

	allocationID, ok := parseOptionalID(c, "allocationId")
	if !ok {
		return
	}
	if allocationID != nil {
		_ = c.JSON(200, h.store.AllocationHistory(*allocationID))
		return
	}

	_ = c.JSON(200, h.store.History())
}

func (h *AllocationHandler) capacityWarnings(projectID, memberID uuid.UUID, sp sprint.Sprint, pct float64, excludeID uuid.UUID) ([]capacity.Warning, error) {
	var warnings []capacity.Warning

	pw, err := h.store.CheckProjectCapacity(projectID, sp, pct, excludeID)
	if err != nil {
		return nil, err
	}
	if pw != nil {
		warnings = append(warnings, *pw)
	}

	mw, err := h.store.CheckMemberCapacity(memberID, sp, pct, excludeID)
	if err != nil {
		return nil, err
	}
	if mw != nil {
		warnings = append(warnings, *mw)
	}

	return warnings, nil
}

func (h *AllocationHandler) broadcast(eventType string, alloc *models.Allocation, actorID uuid.UUID) {
	h.hub.Broadcast(eventType, sse.AllocationEvent{
		AllocationID: alloc.ID,
		ProjectID:    alloc.ProjectID,
		MemberID:     alloc.ProductManagerID,
		SprintKey:    alloc.Sprint().Key(),
		ChangedBy:    actorID,
	})
}
