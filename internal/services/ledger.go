package services

import (
	"sort"
	"sync"

	"github.com/dimitrije/capacity-planner/internal/models"
	"github.com/google/uuid"
)

// Ledger is the append-only allocation audit trail. Entries are copied on the
// way in and on the way out, so a recorded snapshot can never change.
type Ledger struct {
	mu      sync.RWMutex
	entries []models.HistoryEntry
}

func NewLedger(entries []models.HistoryEntry) *Ledger {
	l := &Ledger{entries: make([]models.HistoryEntry, 0, len(entries))}
	for _, e := range entries {
		l.entries = append(l.entries, e.Clone())
	}
	return l
}

func (l *Ledger) Append(e models.HistoryEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e.Clone())
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Entries returns every entry, newest first.
func (l *Ledger) Entries() []models.HistoryEntry {
	return l.filter(func(models.HistoryEntry) bool { return true })
}

// ForAllocation returns the entries for one allocation, newest first.
func (l *Ledger) ForAllocation(id uuid.UUID) []models.HistoryEntry {
	return l.filter(func(e models.HistoryEntry) bool { return e.AllocationID == id })
}

// appendOrder returns the entries as they were recorded, for persistence.
func (l *Ledger) appendOrder() []models.HistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.HistoryEntry, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Clone()
	}
	return out
}

func (l *Ledger) filter(keep func(models.HistoryEntry) bool) []models.HistoryEntry {
	l.mu.RLock()
	out := make([]models.HistoryEntry, 0, len(l.entries))
	for _, e := range l.entries {
		if keep(e) {
			out = append(out, e.Clone())
		}
	}
	l.mu.RUnlock()

	// stable keeps append order for entries sharing a timestamp, reversed below
	sort.SliceStable(out, func(i, j int) bool { return out[i].ChangedAt.Before(out[j].ChangedAt) })
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
