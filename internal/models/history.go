package models

import (
	"time"

	"github.com/google/uuid"
)

type ChangeType string

const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// HistoryEntry records one allocation mutation. Created entries only carry
// NewValue, deleted entries only OldValue.
type HistoryEntry struct {
	ID           uuid.UUID   `json:"id"`
	AllocationID uuid.UUID   `json:"allocationId"`
	ChangedBy    string      `json:"changedBy"`
	ChangedAt    time.Time   `json:"changedAt"`
	ChangeType   ChangeType  `json:"changeType"`
	OldValue     *Allocation `json:"oldValue,omitempty"`
	NewValue     *Allocation `json:"newValue,omitempty"`
}

func (h HistoryEntry) Clone() HistoryEntry {
	out := h
	if h.OldValue != nil {
		v := *h.OldValue
		out.OldValue = &v
	}
	if h.NewValue != nil {
		v := *h.NewValue
		out.NewValue = &v
	}
	return out
}
