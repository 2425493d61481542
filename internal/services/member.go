package services

import (
	"context"
	"strings"

	"github.com/dimitrije/capacity-planner/internal/models"
	"github.com/dimitrije/capacity-planner/internal/persist"
	"github.com/google/uuid"
)

type MemberInput struct {
	FullName  string
	Email     string
	Role      models.Role
	Teams     []string
	ManagerID *uuid.UUID
	Capacity  *float64
}

type MemberPatch struct {
	FullName *string
	Email    *string
	Role     *models.Role
	Teams    []string
	Capacity *float64
}

func (p MemberPatch) empty() bool {
	return p.FullName == nil && p.Email == nil && p.Role == nil && p.Teams == nil && p.Capacity == nil
}

func (s *Store) AddMember(ctx context.Context, in MemberInput) (*models.TeamMember, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	if in.FullName == "" || in.Email == "" {
		return nil, ErrInvalidMember
	}
	if !in.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if in.Capacity != nil && !ValidPercentage(*in.Capacity) {
		return nil, ErrInvalidPercentage
	}

	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return nil, ErrNotLoaded
	}
	if s.emailTakenLocked(in.Email, uuid.Nil) {
		s.mu.Unlock()
		return nil, ErrDuplicateEmail
	}
	if in.ManagerID != nil && s.memberIndexLocked(*in.ManagerID) < 0 {
		s.mu.Unlock()
		return nil, ErrMemberNotFound
	}

	m := models.TeamMember{
		ID:        uuid.New(),
		FullName:  in.FullName,
		Email:     in.Email,
		Role:      in.Role,
		Teams:     in.Teams,
		ManagerID: in.ManagerID,
		Capacity:  in.Capacity,
		IsActive:  true,
		CreatedAt: s.now(),
	}
	if m.Teams == nil {
		m.Teams = []string{}
	}
	m = m.Clone()
	s.members = append(s.members, m)
	s.mu.Unlock()

	out := m.Clone()
	return &out, s.persist(ctx, persist.Create, persist.Members)
}

func (s *Store) UpdateMember(ctx context.Context, id uuid.UUID, patch MemberPatch) (*models.TeamMember, error) {
	if patch.empty() {
		return nil, ErrNoFieldsToUpdate
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if patch.Capacity != nil && !ValidPercentage(*patch.Capacity) {
		return nil, ErrInvalidPercentage
	}

	s.mu.Lock()
	idx := s.memberIndexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil, ErrMemberNotFound
	}
	m := s.members[idx].Clone()
	if patch.FullName != nil {
		name := strings.TrimSpace(*patch.FullName)
		if name == "" {
			s.mu.Unlock()
			return nil, ErrInvalidMember
		}
		m.FullName = name
	}
	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		if email == "" {
			s.mu.Unlock()
			return nil, ErrInvalidMember
		}
		if s.emailTakenLocked(email, id) {
			s.mu.Unlock()
			return nil, ErrDuplicateEmail
		}
		m.Email = email
	}
	if patch.Role != nil {
		m.Role = *patch.Role
	}
	if patch.Teams != nil {
		m.Teams = append([]string{}, patch.Teams...)
	}
	if patch.Capacity != nil {
		c := *patch.Capacity
		m.Capacity = &c
	}
	s.members[idx] = m
	s.mu.Unlock()

	out := m.Clone()
	return &out, s.persist(ctx, persist.Update, persist.Members)
}

// SetManager points memberID at managerID, or clears the manager when
// managerID is nil. Assignments that would close a loop in the reporting
// chain are rejected with ErrManagerCycle.
func (s *Store) SetManager(ctx context.Context, memberID uuid.UUID, managerID *uuid.UUID) (*models.TeamMember, error) {
	s.mu.Lock()
	idx := s.memberIndexLocked(memberID)
	if idx < 0 {
		s.mu.Unlock()
		return nil, ErrMemberNotFound
	}
	if managerID != nil {
		if s.memberIndexLocked(*managerID) < 0 {
			s.mu.Unlock()
			return nil, ErrMemberNotFound
		}
		if s.reportsToLocked(*managerID, memberID) {
			s.mu.Unlock()
			return nil, ErrManagerCycle
		}
	}

	m := s.members[idx].Clone()
	if managerID == nil {
		m.ManagerID = nil
	} else {
		id := *managerID
		m.ManagerID = &id
	}
	s.members[idx] = m
	s.mu.Unlock()

	out := m.Clone()
	return &out, s.persist(ctx, persist.Update, persist.Members)
}

// reportsToLocked reports whether walking up from start reaches target,
// start itself included. The walk is bounded by the member count so a loop
// already present in loaded data cannot hang it.
func (s *Store) reportsToLocked(start, target uuid.UUID) bool {
	cur := start
	for range len(s.members) + 1 {
		if cur == target {
			return true
		}
		idx := s.memberIndexLocked(cur)
		if idx < 0 || s.members[idx].ManagerID == nil {
			return false
		}
		cur = *s.members[idx].ManagerID
	}
	return true
}

// SetMemberActive flips the active flag. Members are never removed.
func (s *Store) SetMemberActive(ctx context.Context, id uuid.UUID, active bool) (*models.TeamMember, error) {
	s.mu.Lock()
	idx := s.memberIndexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil, ErrMemberNotFound
	}
	s.members[idx].IsActive = active
	out := s.members[idx].Clone()
	s.mu.Unlock()

	return &out, s.persist(ctx, persist.Update, persist.Members)
}

func (s *Store) Member(id uuid.UUID) (*models.TeamMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.memberIndexLocked(id)
	if idx < 0 {
		return nil, ErrMemberNotFound
	}
	out := s.members[idx].Clone()
	return &out, nil
}

func (s *Store) Members(includeInactive bool) []models.TeamMember {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.TeamMember, 0, len(s.members))
	for _, m := range s.members {
		if m.IsActive || includeInactive {
			out = append(out, m.Clone())
		}
	}
	return out
}

// Reports returns the direct reports of managerID.
func (s *Store) Reports(managerID uuid.UUID) []models.TeamMember {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.TeamMember, 0)
	for _, m := range s.members {
		if m.ManagerID != nil && *m.ManagerID == managerID {
			out = append(out, m.Clone())
		}
	}
	return out
}

func (s *Store) memberIndexLocked(id uuid.UUID) int {
	for i := range s.members {
		if s.members[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) emailTakenLocked(email string, exclude uuid.UUID) bool {
	for i := range s.members {
		if s.members[i].ID != exclude && strings.EqualFold(s.members[i].Email, email) {
			return true
		}
	}
	return false
}
