package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dimitrije/capacity-planner/internal/models"
	"github.com/dimitrije/capacity-planner/internal/persist"
	"github.com/dimitrije/capacity-planner/internal/sprint"
	"github.com/google/uuid"
)

const maxWarnings = 200

type StoreOptions struct {
	Policy       persist.Policy
	SaveDelay    time.Duration
	Logger       *slog.Logger
	Now          func() time.Time
	OnSaveStatus func(saving bool)
	OnSaveError  func(err error)
}

// Store holds the planner's collections in memory and is the only writer of
// them. It is built at startup, filled by Load and torn down by Close.
type Store struct {
	mu             sync.RWMutex
	loaded         bool
	members        []models.TeamMember
	projects       []models.Project
	allocations    []models.Allocation
	sprintProjects map[sprint.Sprint][]uuid.UUID
	roleReqs       map[sprint.EntityKey]map[models.Role]float64
	warnings       []string

	ledger  *Ledger
	backend persist.Backend
	coord   *persist.Coordinator
	policy  persist.Policy
	logger  *slog.Logger
	now     func() time.Time
}

func NewStore(backend persist.Backend, opts StoreOptions) *Store {
	if opts.Policy == nil {
		opts.Policy = persist.DefaultPolicy()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Store{
		sprintProjects: make(map[sprint.Sprint][]uuid.UUID),
		roleReqs:       make(map[sprint.EntityKey]map[models.Role]float64),
		ledger:         NewLedger(nil),
		backend:        backend,
		policy:         opts.Policy,
		logger:         opts.Logger,
		now:            opts.Now,
	}
	s.coord = persist.NewCoordinator(backend, s.Snapshot, persist.Options{
		Delay:    opts.SaveDelay,
		Logger:   opts.Logger,
		OnStatus: opts.OnSaveStatus,
		OnError:  opts.OnSaveError,
	})
	return s
}

// Load replaces the in-memory state with the backend's and enables saving.
func (s *Store) Load(ctx context.Context) error {
	snap, err := s.backend.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch data: %w", err)
	}
	snap.Normalize()

	sprintProjects := make(map[sprint.Sprint][]uuid.UUID, len(snap.SprintProjects))
	for key, ids := range snap.SprintProjects {
		sp, err := sprint.ParseKey(key)
		if err != nil {
			s.logger.Warn("skipping sprint projects entry", "key", key, "error", err)
			continue
		}
		parsed := make([]uuid.UUID, 0, len(ids))
		for _, raw := range ids {
			id, err := uuid.Parse(raw)
			if err != nil {
				s.logger.Warn("skipping sprint project id", "key", key, "id", raw)
				continue
			}
			parsed = append(parsed, id)
		}
		sprintProjects[sp] = parsed
	}

	roleReqs := make(map[sprint.EntityKey]map[models.Role]float64, len(snap.SprintRoleRequirements))
	for key, reqs := range snap.SprintRoleRequirements {
		ek, err := sprint.ParseEntityKey(key)
		if err != nil {
			s.logger.Warn("skipping role requirement entry", "key", key, "error", err)
			continue
		}
		byRole := make(map[models.Role]float64, len(reqs))
		for role, pct := range reqs {
			byRole[models.Role(role)] = pct
		}
		roleReqs[ek] = byRole
	}

	s.mu.Lock()
	s.members = cloneMembers(snap.TeamMembers)
	s.projects = cloneProjects(snap.Projects)
	s.allocations = append([]models.Allocation(nil), snap.Allocations...)
	s.ledger = NewLedger(snap.History)
	s.sprintProjects = sprintProjects
	s.roleReqs = roleReqs
	s.loaded = true
	s.mu.Unlock()

	s.coord.Start()
	s.logger.Info("store loaded",
		"members", len(snap.TeamMembers),
		"projects", len(snap.Projects),
		"allocations", len(snap.Allocations),
		"history", len(snap.History))
	return nil
}

// Close flushes pending saves and waits for in-flight ones.
func (s *Store) Close(ctx context.Context) error {
	return s.coord.Close(ctx)
}

// Snapshot copies the current state into the persisted form.
func (s *Store) Snapshot() *persist.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &persist.Snapshot{
		TeamMembers:            cloneMembers(s.members),
		Projects:               cloneProjects(s.projects),
		Allocations:            append([]models.Allocation{}, s.allocations...),
		History:                s.ledger.appendOrder(),
		SprintProjects:         make(map[string][]string, len(s.sprintProjects)),
		SprintRoleRequirements: make(map[string]map[string]float64, len(s.roleReqs)),
	}
	for sp, ids := range s.sprintProjects {
		raw := make([]string, len(ids))
		for i, id := range ids {
			raw[i] = id.String()
		}
		snap.SprintProjects[sp.Key()] = raw
	}
	for key, reqs := range s.roleReqs {
		raw := make(map[string]float64, len(reqs))
		for role, pct := range reqs {
			raw[string(role)] = pct
		}
		snap.SprintRoleRequirements[key.String()] = raw
	}
	return snap
}

func (s *Store) SaveStatus() persist.Status {
	return s.coord.Status()
}

func (s *Store) Saving() bool {
	return s.coord.Saving()
}

// Warnings returns the recorded non-fatal problems, oldest first.
func (s *Store) Warnings() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.warnings...)
}

func (s *Store) Ledger() *Ledger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger
}

// warnLocked logs msg and keeps it for Warnings. Callers hold s.mu.
func (s *Store) warnLocked(msg string, args ...any) {
	s.logger.Warn(msg, args...)
	entry := msg
	for i := 0; i+1 < len(args); i += 2 {
		entry += fmt.Sprintf(" %v=%v", args[i], args[i+1])
	}
	s.warnings = append(s.warnings, entry)
	if len(s.warnings) > maxWarnings {
		s.warnings = s.warnings[len(s.warnings)-maxWarnings:]
	}
}

// persist applies the save policy for m after an in-memory change.
func (s *Store) persist(ctx context.Context, m persist.Mutation, primary persist.Collection, secondary ...persist.Collection) error {
	if s.policy.For(m) == persist.Immediate {
		return s.coord.SaveNow(ctx, primary, secondary...)
	}
	s.coord.MarkDirty()
	return nil
}

func cloneMembers(in []models.TeamMember) []models.TeamMember {
	out := make([]models.TeamMember, len(in))
	for i, m := range in {
		out[i] = m.Clone()
	}
	return out
}

func cloneProjects(in []models.Project) []models.Project {
	out := make([]models.Project, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}

// ValidPercentage reports whether p is a usable allocation or capacity percentage.
func ValidPercentage(p float64) bool {
	return p >= 0 && p <= 100
}
