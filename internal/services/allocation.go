package services

import (
	"context"

	"github.com/dimitrije/capacity-planner/internal/capacity"
	"github.com/dimitrije/capacity-planner/internal/models"
	"github.com/dimitrije/capacity-planner/internal/persist"
	"github.com/dimitrije/capacity-planner/internal/sprint"
	"github.com/google/uuid"
)

type AllocationInput struct {
	ProjectID            uuid.UUID
	ProductManagerID     uuid.UUID
	Sprint               sprint.Sprint
	AllocationPercentage float64
	Comment              string
	IsPlanned            bool
}

// AllocationPatch is merged field by field into an existing allocation. The
// store never derives AllocationDays on update: callers changing the
// percentage set the days too.
type AllocationPatch struct {
	ProjectID            *uuid.UUID
	ProductManagerID     *uuid.UUID
	Year                 *int
	Month                *int
	SprintIndex          *int
	AllocationPercentage *float64
	AllocationDays       *float64
	Comment              *string
	IsPlanned            *bool
}

func (p AllocationPatch) empty() bool {
	return p == AllocationPatch{}
}

type AllocationFilter struct {
	Sprint    *sprint.Sprint
	MemberID  *uuid.UUID
	ProjectID *uuid.UUID
	Planned   *bool
}

func (f AllocationFilter) match(a *models.Allocation) bool {
	if f.Sprint != nil && !a.InSprint(*f.Sprint) {
		return false
	}
	if f.MemberID != nil && a.ProductManagerID != *f.MemberID {
		return false
	}
	if f.ProjectID != nil && a.ProjectID != *f.ProjectID {
		return false
	}
	if f.Planned != nil && a.IsPlanned != *f.Planned {
		return false
	}
	return true
}

// AddAllocation inserts a new allocation and records a created history entry.
// A second allocation for the same project, member and sprint is rejected
// before anything changes. When the save that follows fails the allocation
// stays in memory and is returned together with a *persist.PersistenceError.
func (s *Store) AddAllocation(ctx context.Context, in AllocationInput, actor string) (*models.Allocation, error) {
	if !ValidPercentage(in.AllocationPercentage) {
		return nil, ErrInvalidPercentage
	}
	if !in.Sprint.Valid() {
		return nil, ErrInvalidSprint
	}

	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return nil, ErrNotLoaded
	}
	if s.memberIndexLocked(in.ProductManagerID) < 0 {
		s.mu.Unlock()
		return nil, ErrMemberNotFound
	}
	if s.projectIndexLocked(in.ProjectID) < 0 {
		s.mu.Unlock()
		return nil, ErrProjectNotFound
	}
	key := models.AllocationKey{ProjectID: in.ProjectID, ProductManagerID: in.ProductManagerID, Sprint: in.Sprint}
	if _, exists := s.findConflictLocked(key, uuid.Nil); exists {
		s.mu.Unlock()
		return nil, ErrDuplicateAllocation
	}

	now := s.now()
	alloc := models.Allocation{
		ID:                   uuid.New(),
		ProjectID:            in.ProjectID,
		ProductManagerID:     in.ProductManagerID,
		Year:                 in.Sprint.Year,
		Month:                in.Sprint.Month,
		SprintIndex:          in.Sprint.Index,
		AllocationPercentage: in.AllocationPercentage,
		AllocationDays:       models.AllocationDays(in.AllocationPercentage),
		Comment:              in.Comment,
		CreatedAt:            now,
		CreatedBy:            actor,
		IsPlanned:            in.IsPlanned,
	}
	s.allocations = append(s.allocations, alloc)
	created := alloc
	s.ledger.Append(models.HistoryEntry{
		ID:           uuid.New(),
		AllocationID: alloc.ID,
		ChangedBy:    actor,
		ChangedAt:    now,
		ChangeType:   models.ChangeCreated,
		NewValue:     &created,
	})
	s.mu.Unlock()

	if err := s.persist(ctx, persist.Create, persist.Allocations, persist.History); err != nil {
		return &alloc, err
	}
	return &alloc, nil
}

// UpdateAllocation merges patch into the allocation and records both
// snapshots. It does not re-check the project/member/sprint tuple; callers
// moving an allocation use MoveAllocation.
func (s *Store) UpdateAllocation(ctx context.Context, id uuid.UUID, patch AllocationPatch, actor string) (*models.Allocation, error) {
	return s.updateAllocation(ctx, id, patch, actor, false)
}

// MoveAllocation is UpdateAllocation for patches that may change the
// (project, member, sprint) tuple. The duplicate check and the write happen
// under one lock, so a concurrent add cannot take the target in between.
func (s *Store) MoveAllocation(ctx context.Context, id uuid.UUID, patch AllocationPatch, actor string) (*models.Allocation, error) {
	return s.updateAllocation(ctx, id, patch, actor, true)
}

func (s *Store) updateAllocation(ctx context.Context, id uuid.UUID, patch AllocationPatch, actor string, rejectConflict bool) (*models.Allocation, error) {
	if patch.empty() {
		return nil, ErrNoFieldsToUpdate
	}
	if patch.AllocationPercentage != nil && !ValidPercentage(*patch.AllocationPercentage) {
		return nil, ErrInvalidPercentage
	}

	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return nil, ErrNotLoaded
	}
	idx := s.allocationIndexLocked(id)
	if idx < 0 {
		s.warnLocked("update of unknown allocation ignored", "allocation_id", id)
		s.mu.Unlock()
		return nil, ErrAllocationNotFound
	}

	old := s.allocations[idx]
	updated := old
	applyAllocationPatch(&updated, patch)
	if !updated.Sprint().Valid() {
		s.mu.Unlock()
		return nil, ErrInvalidSprint
	}
	if rejectConflict {
		if _, found := s.findConflictLocked(updated.Key(), id); found {
			s.mu.Unlock()
			return nil, ErrDuplicateAllocation
		}
	}
	s.allocations[idx] = updated

	oldCopy, newCopy := old, updated
	s.ledger.Append(models.HistoryEntry{
		ID:           uuid.New(),
		AllocationID: id,
		ChangedBy:    actor,
		ChangedAt:    s.now(),
		ChangeType:   models.ChangeUpdated,
		OldValue:     &oldCopy,
		NewValue:     &newCopy,
	})
	s.mu.Unlock()

	if err := s.persist(ctx, persist.Update, persist.Allocations, persist.History); err != nil {
		return &updated, err
	}
	return &updated, nil
}

func applyAllocationPatch(a *models.Allocation, p AllocationPatch) {
	if p.ProjectID != nil {
		a.ProjectID = *p.ProjectID
	}
	if p.ProductManagerID != nil {
		a.ProductManagerID = *p.ProductManagerID
	}
	if p.Year != nil {
		a.Year = *p.Year
	}
	if p.Month != nil {
		a.Month = *p.Month
	}
	if p.SprintIndex != nil {
		a.SprintIndex = *p.SprintIndex
	}
	if p.AllocationPercentage != nil {
		a.AllocationPercentage = *p.AllocationPercentage
	}
	if p.AllocationDays != nil {
		a.AllocationDays = *p.AllocationDays
	}
	if p.Comment != nil {
		a.Comment = *p.Comment
	}
	if p.IsPlanned != nil {
		a.IsPlanned = *p.IsPlanned
	}
}

// DeleteAllocation removes the allocation and records a deleted entry. An
// unknown id is logged as a warning and otherwise ignored.
func (s *Store) DeleteAllocation(ctx context.Context, id uuid.UUID, actor string) error {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	idx := s.allocationIndexLocked(id)
	if idx < 0 {
		s.warnLocked("delete of unknown allocation ignored", "allocation_id", id)
		s.mu.Unlock()
		return nil
	}

	removed := s.allocations[idx]
	s.ledger.Append(models.HistoryEntry{
		ID:           uuid.New(),
		AllocationID: id,
		ChangedBy:    actor,
		ChangedAt:    s.now(),
		ChangeType:   models.ChangeDeleted,
		OldValue:     &removed,
	})
	s.allocations = append(s.allocations[:idx], s.allocations[idx+1:]...)
	s.mu.Unlock()

	return s.persist(ctx, persist.Delete, persist.Allocations, persist.History)
}

func (s *Store) Allocation(id uuid.UUID) (*models.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.allocationIndexLocked(id)
	if idx < 0 {
		return nil, ErrAllocationNotFound
	}
	a := s.allocations[idx]
	return &a, nil
}

func (s *Store) Allocations(f AllocationFilter) []models.Allocation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Allocation, 0)
	for i := range s.allocations {
		if f.match(&s.allocations[i]) {
			out = append(out, s.allocations[i])
		}
	}
	return out
}

// FindConflict returns the allocation occupying key, ignoring excludeID.
func (s *Store) FindConflict(key models.AllocationKey, excludeID uuid.UUID) (*models.Allocation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findConflictLocked(key, excludeID)
}

func (s *Store) findConflictLocked(key models.AllocationKey, excludeID uuid.UUID) (*models.Allocation, bool) {
	for i := range s.allocations {
		a := &s.allocations[i]
		if a.ID != excludeID && a.Key() == key {
			found := *a
			return &found, true
		}
	}
	return nil, false
}

// CheckProjectCapacity is the advisory ceiling check run before an add or
// update. A nil warning means the new percentage fits.
func (s *Store) CheckProjectCapacity(projectID uuid.UUID, sp sprint.Sprint, newPct float64, excludeID uuid.UUID) (*capacity.Warning, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.projectIndexLocked(projectID)
	if idx < 0 {
		return nil, ErrProjectNotFound
	}
	return capacity.ProjectCeiling(s.allocations, &s.projects[idx], sp, newPct, excludeID), nil
}

func (s *Store) CheckMemberCapacity(memberID uuid.UUID, sp sprint.Sprint, newPct float64, excludeID uuid.UUID) (*capacity.Warning, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.memberIndexLocked(memberID)
	if idx < 0 {
		return nil, ErrMemberNotFound
	}
	return capacity.MemberCeiling(s.allocations, &s.members[idx], sp, newPct, excludeID), nil
}

func (s *Store) History() []models.HistoryEntry {
	return s.Ledger().Entries()
}

func (s *Store) AllocationHistory(id uuid.UUID) []models.HistoryEntry {
	return s.Ledger().ForAllocation(id)
}

func (s *Store) allocationIndexLocked(id uuid.UUID) int {
	for i := range s.allocations {
		if s.allocations[i].ID == id {
			return i
		}
	}
	return -1
}
