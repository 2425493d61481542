package services

import (
	"context"
	"strings"

	"github.com/dimitrije/capacity-planner/internal/models"
	"github.com/dimitrije/capacity-planner/internal/persist"
	"github.com/google/uuid"
)

type ProjectInput struct {
	CustomerName          string
	ProjectName           string
	ProjectType           models.ProjectType
	Status                models.ProjectStatus
	MaxCapacityPercentage *float64
	PMOContact            *uuid.UUID
	Comment               string
}

type ProjectPatch struct {
	CustomerName          *string
	ProjectName           *string
	ProjectType           *models.ProjectType
	Status                *models.ProjectStatus
	MaxCapacityPercentage *float64
	PMOContact            *uuid.UUID
	Comment               *string
}

func (p ProjectPatch) empty() bool {
	return p == ProjectPatch{}
}

func (s *Store) AddProject(ctx context.Context, in ProjectInput) (*models.Project, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.ProjectName = strings.TrimSpace(in.ProjectName)
	if in.CustomerName == "" || in.ProjectName == "" {
		return nil, ErrInvalidProject
	}
	if in.ProjectType == "" {
		in.ProjectType = models.ProjectTypeCustomer
	}
	if !in.ProjectType.Valid() {
		return nil, ErrInvalidProjectType
	}
	if in.Status == "" {
		in.Status = models.ProjectStatusActive
	}
	if !in.Status.Valid() {
		return nil, ErrInvalidProjectStatus
	}
	if in.MaxCapacityPercentage != nil && *in.MaxCapacityPercentage < 0 {
		return nil, ErrInvalidPercentage
	}

	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return nil, ErrNotLoaded
	}
	if s.projectTakenLocked(in.CustomerName, in.ProjectName, uuid.Nil) {
		s.mu.Unlock()
		return nil, ErrDuplicateProject
	}
	if in.PMOContact != nil && s.memberIndexLocked(*in.PMOContact) < 0 {
		s.mu.Unlock()
		return nil, ErrMemberNotFound
	}

	p := models.Project{
		ID:                    uuid.New(),
		CustomerName:          in.CustomerName,
		ProjectName:           in.ProjectName,
		ProjectType:           in.ProjectType,
		Status:                in.Status,
		MaxCapacityPercentage: in.MaxCapacityPercentage,
		PMOContact:            in.PMOContact,
		Comment:               in.Comment,
		CreatedAt:             s.now(),
	}.Clone()
	s.projects = append(s.projects, p)
	s.mu.Unlock()

	out := p.Clone()
	return &out, s.persist(ctx, persist.Create, persist.Projects)
}

func (s *Store) UpdateProject(ctx context.Context, id uuid.UUID, patch ProjectPatch) (*models.Project, error) {
	if patch.empty() {
		return nil, ErrNoFieldsToUpdate
	}
	if patch.ProjectType != nil && !patch.ProjectType.Valid() {
		return nil, ErrInvalidProjectType
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, ErrInvalidProjectStatus
	}
	if patch.MaxCapacityPercentage != nil && *patch.MaxCapacityPercentage < 0 {
		return nil, ErrInvalidPercentage
	}

	s.mu.Lock()
	idx := s.projectIndexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil, ErrProjectNotFound
	}
	p := s.projects[idx].Clone()
	if patch.CustomerName != nil {
		p.CustomerName = strings.TrimSpace(*patch.CustomerName)
	}
	if patch.ProjectName != nil {
		p.ProjectName = strings.TrimSpace(*patch.ProjectName)
	}
	if p.CustomerName == "" || p.ProjectName == "" {
		s.mu.Unlock()
		return nil, ErrInvalidProject
	}
	if s.projectTakenLocked(p.CustomerName, p.ProjectName, id) {
		s.mu.Unlock()
		return nil, ErrDuplicateProject
	}
	if patch.PMOContact != nil {
		if s.memberIndexLocked(*patch.PMOContact) < 0 {
			s.mu.Unlock()
			return nil, ErrMemberNotFound
		}
		contact := *patch.PMOContact
		p.PMOContact = &contact
	}
	if patch.ProjectType != nil {
		p.ProjectType = *patch.ProjectType
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.MaxCapacityPercentage != nil {
		v := *patch.MaxCapacityPercentage
		p.MaxCapacityPercentage = &v
	}
	if patch.Comment != nil {
		p.Comment = *patch.Comment
	}
	s.projects[idx] = p
	s.mu.Unlock()

	out := p.Clone()
	return &out, s.persist(ctx, persist.Update, persist.Projects)
}

// SetProjectArchived soft-deletes or restores a project. Allocations that
// reference an archived project are left untouched.
func (s *Store) SetProjectArchived(ctx context.Context, id uuid.UUID, archived bool) (*models.Project, error) {
	s.mu.Lock()
	idx := s.projectIndexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil, ErrProjectNotFound
	}
	s.projects[idx].IsArchived = archived
	out := s.projects[idx].Clone()
	s.mu.Unlock()

	return &out, s.persist(ctx, persist.Update, persist.Projects)
}

func (s *Store) Project(id uuid.UUID) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.projectIndexLocked(id)
	if idx < 0 {
		return nil, ErrProjectNotFound
	}
	out := s.projects[idx].Clone()
	return &out, nil
}

func (s *Store) Projects(includeArchived bool) []models.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Project, 0, len(s.projects))
	for _, p := range s.projects {
		if !p.IsArchived || includeArchived {
			out = append(out, p.Clone())
		}
	}
	return out
}

func (s *Store) projectIndexLocked(id uuid.UUID) int {
	for i := range s.projects {
		if s.projects[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) projectTakenLocked(customer, name string, exclude uuid.UUID) bool {
	for i := range s.projects {
		p := &s.projects[i]
		if p.ID != exclude && strings.EqualFold(p.CustomerName, customer) && strings.EqualFold(p.ProjectName, name) {
			return true
		}
	}
	return false
}
