package handlers

import (
	"context"
	"net/http"

	"github.com/dimitrije/capacity-planner/internal/models"
	"github.com/dimitrije/capacity-planner/internal/services"
	"github.com/dimitrije/capacity-planner/internal/sse"
	"github.com/dimitrije/capacity-planner/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type MemberHandler struct {
	store MemberStoreInterface
	hub   HubInterface
}

func NewMemberHandler(store MemberStoreInterface, hub HubInterface) *MemberHandler {
	return &MemberHandler{
		store: store,
		hub:   hub,
	}
}

// List returns members by name. ?managerId narrows to direct reports and
// ?includeInactive=true adds deactivated members.
func (h *MemberHandler) List(c *drift.Context) {
	if _, ok := requireActor(c); !ok {
		return
	}

	managerID, ok := parseOptionalID(c, "managerId")
	if !ok {
		return
	}
	includeInactive, ok := parseOptionalBool(c, "includeInactive")
	if !ok {
		return
	}

	if managerID != nil {
		_ = c.JSON(200, h.store.Reports(*managerID))
		return
	}
	_ = c.JSON(200, h.store.Members(includeInactive != nil && *includeInactive))
}

func (h *MemberHandler) Get(c *drift.Context) {
	if _, ok := requireActor(c); !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "member")
	if !ok {
		return
	}

	member, err := h.store.Member(id)
	if err != nil {
		c.NotFound("team member not found")
		return
	}

	_ = c.JSON(200, member)
}

func (h *MemberHandler) Create(c *drift.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.CreateMemberRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	member, err := h.store.AddMember(context.Background(), services.MemberInput{
		FullName:  req.FullName,
		Email:     req.Email,
		Role:      models.Role(req.Role),
		Teams:     req.Teams,
		ManagerID: req.ManagerID,
		Capacity:  req.Capacity,
	})
	if member != nil {
		h.changed(member.ID, actorID)
	}
	if err != nil {
		respondError(c, err, nil)
		return
	}

	_ = c.JSON(http.StatusCreated, member)
}

func (h *MemberHandler) Update(c *drift.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "member")
	if !ok {
		return
	}

	var req dto.UpdateMemberRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	patch := services.MemberPatch{
		FullName: req.FullName,
		Email:    req.Email,
		Teams:    req.Teams,
		Capacity: req.Capacity,
	}
	if req.Role != nil {
		role := models.Role(*req.Role)
		patch.Role = &role
	}

	member, err := h.store.UpdateMember(context.Background(), id, patch)
	h.respondMember(c, member, err, actorID)
}

func (h *MemberHandler) SetManager(c *drift.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "member")
	if !ok {
		return
	}

	var req dto.SetManagerRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	member, err := h.store.SetManager(context.Background(), id, req.ManagerID)
	h.respondMember(c, member, err, actorID)
}

func (h *MemberHandler) Deactivate(c *drift.Context) {
	h.setActive(c, false)
}

func (h *MemberHandler) Activate(c *drift.Context) {
	h.setActive(c, true)
}

func (h *MemberHandler) setActive(c *drift.Context, active bool) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "member")
	if !ok {
		return
	}

	member, err := h.store.SetMemberActive(context.Background(), id, active)
	h.respondMember(c, member, err, actorID)
}

func (h *MemberHandler) respondMember(c *drift.Context, member *models.TeamMember, err error, actorID uuid.UUID) {
	if member != nil {
		h.changed(member.ID, actorID)
	}
	if err != nil {
		respondError(c, err, nil)
		return
	}
	_ = c.JSON(200, member)
}

func (h *MemberHandler) changed(id, actorID uuid.UUID) {
	h.hub.Broadcast(sse.EventMemberChanged, sse.EntityEvent{ID: id, ChangedBy: actorID})
}
