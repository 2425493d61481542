package handlers

import (
	"github.com/dimitrije/capacity-planner/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

type StatusHandler struct {
	store StatusSourceInterface
	hub   HubInterface
}

func NewStatusHandler(store StatusSourceInterface, hub HubInterface) *StatusHandler {
	return &StatusHandler{
		store: store,
		hub:   hub,
	}
}

func (h *StatusHandler) Status(c *drift.Context) {
	if _, ok := requireActor(c); !ok {
		return
	}

	status := h.store.SaveStatus()
	resp := dto.StatusResponse{
		IsSaving:  status.Saving,
		Pending:   status.Pending,
		LastError: status.LastError,
		Warnings:  h.store.Warnings(),
		Clients:   h.hub.ClientCount(),
	}
	if !status.LastSavedAt.IsZero() {
		saved := status.LastSavedAt
		resp.LastSavedAt = &saved
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}

	_ = c.JSON(200, resp)
}
