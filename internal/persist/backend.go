// Package persist defines the storage contract the planner saves through and
// the coordinator that decides when those saves happen.
package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimitrije/capacity-planner/internal/models"
)

// Snapshot is everything a backend stores. The auxiliary maps keep their
// persisted string keys: "{year}-{month}-{sprint}" for sprint projects and
// "{projectId}-{year}-{month}-{sprint}" for role requirements.
type Snapshot struct {
	TeamMembers            []models.TeamMember           `json:"teamMembers"`
	Projects               []models.Project              `json:"projects"`
	Allocations            []models.Allocation           `json:"allocations"`
	History                []models.HistoryEntry         `json:"history"`
	SprintProjects         map[string][]string           `json:"sprintProjects"`
	SprintRoleRequirements map[string]map[string]float64 `json:"sprintRoleRequirements"`
}

// Backend persists whole collections. Each save replaces the named
// collection and must be atomic from the reader's point of view.
type Backend interface {
	FetchAll(ctx context.Context) (*Snapshot, error)
	SaveTeamMembers(ctx context.Context, members []models.TeamMember) error
	SaveProjects(ctx context.Context, projects []models.Project) error
	SaveAllocations(ctx context.Context, allocations []models.Allocation) error
	SaveHistory(ctx context.Context, history []models.HistoryEntry) error
	SaveSprintProjects(ctx context.Context, sprintProjects map[string][]string) error
	SaveSprintRoleRequirements(ctx context.Context, requirements map[string]map[string]float64) error
}

type Collection string

const (
	Members          Collection = "teamMembers"
	Projects         Collection = "projects"
	Allocations      Collection = "allocations"
	History          Collection = "history"
	SprintProjects   Collection = "sprintProjects"
	RoleRequirements Collection = "sprintRoleRequirements"
)

// BulkCollections are the collections a debounced save writes.
var BulkCollections = []Collection{Members, Projects, Allocations, History}

var ErrUnknownCollection = errors.New("unknown collection")

// ErrClosed is wrapped in the PersistenceError returned by SaveNow once Close
// has been called.
var ErrClosed = errors.New("coordinator closed")

type PersistenceError struct {
	Collection Collection
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("save %s: %v", e.Collection, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Save writes one collection of snap through b.
func Save(ctx context.Context, b Backend, snap *Snapshot, c Collection) error {
	var err error
	switch c {
	case Members:
		err = b.SaveTeamMembers(ctx, snap.TeamMembers)
	case Projects:
		err = b.SaveProjects(ctx, snap.Projects)
	case Allocations:
		err = b.SaveAllocations(ctx, snap.Allocations)
	case History:
		err = b.SaveHistory(ctx, snap.History)
	case SprintProjects:
		err = b.SaveSprintProjects(ctx, snap.SprintProjects)
	case RoleRequirements:
		err = b.SaveSprintRoleRequirements(ctx, snap.SprintRoleRequirements)
	default:
		err = ErrUnknownCollection
	}
	if err != nil {
		return &PersistenceError{Collection: c, Err: err}
	}
	return nil
}

// EmptySnapshot is what a backend returns before anything was saved.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		TeamMembers:            []models.TeamMember{},
		Projects:               []models.Project{},
		Allocations:            []models.Allocation{},
		History:                []models.HistoryEntry{},
		SprintProjects:         map[string][]string{},
		SprintRoleRequirements: map[string]map[string]float64{},
	}
}

// Normalize replaces nil collections with empty ones.
func (s *Snapshot) Normalize() *Snapshot {
	if s.TeamMembers == nil {
		s.TeamMembers = []models.TeamMember{}
	}
	if s.Projects == nil {
		s.Projects = []models.Project{}
	}
	if s.Allocations == nil {
		s.Allocations = []models.Allocation{}
	}
	if s.History == nil {
		s.History = []models.HistoryEntry{}
	}
	if s.SprintProjects == nil {
		s.SprintProjects = map[string][]string{}
	}
	if s.SprintRoleRequirements == nil {
		s.SprintRoleRequirements = map[string]map[string]float64{}
	}
	return s
}
