// Package filestore keeps the planner collections in a single JSON document
// on disk, the layout the planner used before it had a database.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/dimitrije/capacity-planner/internal/models"
	"github.com/dimitrije/capacity-planner/internal/persist"
)

type Store struct {
	path string

	mu   sync.Mutex
	data *persist.Snapshot
}

var _ persist.Backend = (*Store)(nil)

func New(path string) *Store {
	return &Store{path: path}
}

// FetchAll reads the file. A missing file is an empty data set.
func (s *Store) FetchAll(ctx context.Context) (*persist.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.readLocked()
	if err != nil {
		return nil, err
	}
	s.data = snap
	return clone(snap)
}

func (s *Store) readLocked() (*persist.Snapshot, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return persist.EmptySnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}

	snap := &persist.Snapshot{}
	if err := json.Unmarshal(raw, snap); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", s.path, err)
	}
	return snap.Normalize(), nil
}

// update applies fn to the cached document and rewrites the file through a
// temp file and rename, so readers never see a half written document.
func (s *Store) update(fn func(*persist.Snapshot)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		snap, err := s.readLocked()
		if err != nil {
			return err
		}
		s.data = snap
	}
	fn(s.data)

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding data: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) SaveTeamMembers(ctx context.Context, members []models.TeamMember) error {
	return s.update(func(d *persist.Snapshot) { d.TeamMembers = members })
}

func (s *Store) SaveProjects(ctx context.Context, projects []models.Project) error {
	return s.update(func(d *persist.Snapshot) { d.Projects = projects })
}

func (s *Store) SaveAllocations(ctx context.Context, allocations []models.Allocation) error {
	return s.update(func(d *persist.Snapshot) { d.Allocations = allocations })
}

func (s *Store) SaveHistory(ctx context.Context, history []models.HistoryEntry) error {
	return s.update(func(d *persist.Snapshot) { d.History = history })
}

func (s *Store) SaveSprintProjects(ctx context.Context, sprintProjects map[string][]string) error {
	return s.update(func(d *persist.Snapshot) { d.SprintProjects = sprintProjects })
}

func (s *Store) SaveSprintRoleRequirements(ctx context.Context, requirements map[string]map[string]float64) error {
	return s.update(func(d *persist.Snapshot) { d.SprintRoleRequirements = requirements })
}

// clone hands out a copy so callers cannot alias the cached document.
func clone(snap *persist.Snapshot) (*persist.Snapshot, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encoding data: %w", err)
	}
	out := &persist.Snapshot{}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("decoding data: %w", err)
	}
	return out.Normalize(), nil
}
