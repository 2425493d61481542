package services

import (
	"context"
	"maps"
	"slices"

	"github.com/dimitrije/capacity-planner/internal/capacity"
	"github.com/dimitrije/capacity-planner/internal/models"
	"github.com/dimitrije/capacity-planner/internal/persist"
	"github.com/dimitrije/capacity-planner/internal/sprint"
	"github.com/google/uuid"
)

// SetSprintProjects replaces the list of projects planned for sp. Unknown
// project ids are rejected. The list is written out immediately.
func (s *Store) SetSprintProjects(ctx context.Context, sp sprint.Sprint, projectIDs []uuid.UUID) ([]uuid.UUID, error) {
	if !sp.Valid() {
		return nil, ErrInvalidSprint
	}

	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return nil, ErrNotLoaded
	}
	ids := make([]uuid.UUID, 0, len(projectIDs))
	for _, id := range projectIDs {
		if s.projectIndexLocked(id) < 0 {
			s.mu.Unlock()
			return nil, ErrProjectNotFound
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		delete(s.sprintProjects, sp)
	} else {
		s.sprintProjects[sp] = ids
	}
	s.mu.Unlock()

	return slices.Clone(ids), s.coord.SaveNow(ctx, persist.SprintProjects)
}

func (s *Store) SprintProjects(sp sprint.Sprint) []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.sprintProjects[sp])
	if out == nil {
		out = []uuid.UUID{}
	}
	return out
}

// SetRoleRequirements replaces the per-role percentage requirements of a
// project for sp. Roles with a zero requirement are dropped.
func (s *Store) SetRoleRequirements(ctx context.Context, projectID uuid.UUID, sp sprint.Sprint, reqs map[models.Role]float64) (map[models.Role]float64, error) {
	if !sp.Valid() {
		return nil, ErrInvalidSprint
	}
	clean := make(map[models.Role]float64, len(reqs))
	for role, pct := range reqs {
		if !role.Valid() {
			return nil, ErrInvalidRole
		}
		if !ValidPercentage(pct) {
			return nil, ErrInvalidPercentage
		}
		if pct > 0 {
			clean[role] = pct
		}
	}

	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return nil, ErrNotLoaded
	}
	if s.projectIndexLocked(projectID) < 0 {
		s.mu.Unlock()
		return nil, ErrProjectNotFound
	}
	key := sprint.NewEntityKey(projectID, sp)
	if len(clean) == 0 {
		delete(s.roleReqs, key)
	} else {
		s.roleReqs[key] = clean
	}
	s.mu.Unlock()

	return maps.Clone(clean), s.coord.SaveNow(ctx, persist.RoleRequirements)
}

func (s *Store) RoleRequirements(projectID uuid.UUID, sp sprint.Sprint) map[models.Role]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := maps.Clone(s.roleReqs[sprint.NewEntityKey(projectID, sp)])
	if out == nil {
		out = map[models.Role]float64{}
	}
	return out
}

func (s *Store) TotalForMember(memberID uuid.UUID, sp sprint.Sprint) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return capacity.TotalForMember(s.allocations, memberID, sp)
}

func (s *Store) TotalForProject(projectID uuid.UUID, sp sprint.Sprint) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return capacity.TotalForProject(s.allocations, projectID, sp)
}

// MemberLoads classifies every active member for sp.
func (s *Store) MemberLoads(sp sprint.Sprint, th capacity.Thresholds) []capacity.Load {
	members := s.Members(false)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return capacity.MemberLoads(members, s.allocations, sp, th)
}

// ProjectLoads classifies every project that is not archived for sp.
func (s *Store) ProjectLoads(sp sprint.Sprint, th capacity.Thresholds) []capacity.Load {
	projects := s.Projects(false)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return capacity.ProjectLoads(projects, s.allocations, sp, th)
}

// RoleGaps lists the roles still short of their requirement on a project in sp.
func (s *Store) RoleGaps(projectID uuid.UUID, sp sprint.Sprint) ([]capacity.RoleGap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.projectIndexLocked(projectID) < 0 {
		return nil, ErrProjectNotFound
	}
	reqs := s.roleReqs[sprint.NewEntityKey(projectID, sp)]
	gaps := capacity.RoleRequirementGap(projectID, sp, reqs, s.allocations, s.members)
	if gaps == nil {
		gaps = []capacity.RoleGap{}
	}
	return gaps, nil
}
