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

type ProjectHandler struct {
	store ProjectStoreInterface
	hub   HubInterface
}

func NewProjectHandler(store ProjectStoreInterface, hub HubInterface) *ProjectHandler {
	return &ProjectHandler{
		store: store,
		hub:   hub,
	}
}

func (h *ProjectHandler) List(c *drift.Context) {
	if _, ok := requireActor(c); !ok {
		return
	}
	includeArchived, ok := parseOptionalBool(c, "includeArchived")
	if !ok {
		return
	}

	_ = c.JSON(200, h.store.Projects(includeArchived != nil && *includeArchived))
}

func (h *ProjectHandler) Get(c *drift.Context) {
	if _, ok := requireActor(c); !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "project")
	if !ok {
		return
	}

	project, err := h.store.Project(id)
	if err != nil {
		c.NotFound("project not found")
		return
	}

	_ = c.JSON(200, project)
}

func (h *ProjectHandler) Create(c *drift.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.CreateProjectRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	project, err := h.store.AddProject(context.Background(), services.ProjectInput{
		CustomerName:          req.CustomerName,
		ProjectName:           req.ProjectName,
		ProjectType:           models.ProjectType(req.ProjectType),
		Status:                models.ProjectStatus(req.Status),
		MaxCapacityPercentage: req.MaxCapacityPercentage,
		PMOContact:            req.PMOContact,
		Comment:               req.Comment,
	})
	if project != nil {
		h.changed(project.ID, actorID)
	}
	if err != nil {
		respondError(c, err, nil)
		return
	}

	_ = c.JSON(http.StatusCreated, project)
}

func (h *ProjectHandler) Update(c *drift.Context) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "project")
	if !ok {
		return
	}

	var req dto.UpdateProjectRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	patch := services.ProjectPatch{
		CustomerName:          req.CustomerName,
		ProjectName:           req.ProjectName,
		MaxCapacityPercentage: req.MaxCapacityPercentage,
		PMOContact:            req.PMOContact,
		Comment:               req.Comment,
	}
	if req.ProjectType != nil {
		t := models.ProjectType(*req.ProjectType)
		patch.ProjectType = &t
	}
	if req.Status != nil {
		s := models.ProjectStatus(*req.Status)
		patch.Status = &s
	}

	project, err := h.store.UpdateProject(context.Background(), id, patch)
	h.respondProject(c, project, err, actorID)
}

func (h *ProjectHandler) Archive(c *drift.Context) {
	h.setArchived(c, true)
}

func (h *ProjectHandler) Unarchive(c *drift.Context) {
	h.setArchived(c, false)
}

func (h *ProjectHandler) setArchived(c *drift.Context, archived bool) {
	actorID, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "project")
	if !ok {
		return
	}

	project, err := h.store.SetProjectArchived(context.Background(), id, archived)
	h.respondProject(c, project, err, actorID)
}

func (h *ProjectHandler) respondProject(c *drift.Context, project *models.Project, err error, actorID uuid.UUID) {
	if project != nil {
		h.changed(project.ID, actorID)
	}
	if err != nil {
		respondError(c, err, nil)
		return
	}
	_ = c.JSON(200, project)
}

func (h *ProjectHandler) changed(id, actorID uuid.UUID) {
	h.hub.Broadcast(sse.EventProjectChanged, sse.EntityEvent{ID: id, ChangedBy: actorID})
}
