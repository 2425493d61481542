// Package sqlitestore keeps the planner collections in an embedded SQLite
// file, one JSON document per collection.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dimitrije/capacity-planner/internal/models"
	"github.com/dimitrije/capacity-planner/internal/persist"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

var _ persist.Backend = (*Store)(nil)

func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}
	return nil
}

func (s *Store) FetchAll(ctx context.Context) (*persist.Snapshot, error) {
	snap := persist.EmptySnapshot()
	targets := map[persist.Collection]any{
		persist.Members:          &snap.TeamMembers,
		persist.Projects:         &snap.Projects,
		persist.Allocations:      &snap.Allocations,
		persist.History:          &snap.History,
		persist.SprintProjects:   &snap.SprintProjects,
		persist.RoleRequirements: &snap.SprintRoleRequirements,
	}
	for name, target := range targets {
		if err := s.get(ctx, name, target); err != nil {
			return nil, err
		}
	}
	return snap.Normalize(), nil
}

func (s *Store) get(ctx context.Context, name persist.Collection, target any) error {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM collections WHERE name = ?", string(name)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal([]byte(value), target); err != nil {
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, name persist.Collection, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO collections (name, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, string(name), string(raw))
	if err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func (s *Store) SaveTeamMembers(ctx context.Context, members []models.TeamMember) error {
	return s.put(ctx, persist.Members, members)
}

func (s *Store) SaveProjects(ctx context.Context, projects []models.Project) error {
	return s.put(ctx, persist.Projects, projects)
}

func (s *Store) SaveAllocations(ctx context.Context, allocations []models.Allocation) error {
	return s.put(ctx, persist.Allocations, allocations)
}

func (s *Store) SaveHistory(ctx context.Context, history []models.HistoryEntry) error {
	return s.put(ctx, persist.History, history)
}

func (s *Store) SaveSprintProjects(ctx context.Context, sprintProjects map[string][]string) error {
	return s.put(ctx, persist.SprintProjects, sprintProjects)
}

func (s *Store) SaveSprintRoleRequirements(ctx context.Context, requirements map[string]map[string]float64) error {
	return s.put(ctx, persist.RoleRequirements, requirements)
}
