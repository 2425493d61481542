package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dimitrije/capacity-planner/internal/models"
	"github.com/dimitrije/capacity-planner/internal/persist"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Backend stores the planner collections in Postgres. Every save replaces a
// whole collection inside one transaction: rows are upserted by id and rows
// missing from the collection are deleted. History is append-only, so its
// save only inserts entries the table has not seen.
type Backend struct {
	db *DB
}

var _ persist.Backend = (*Backend)(nil)

func NewBackend(db *DB) *Backend {
	return &Backend{db: db}
}

func (b *Backend) FetchAll(ctx context.Context) (*persist.Snapshot, error) {
	snap := persist.EmptySnapshot()
	var err error

	if snap.TeamMembers, err = b.fetchMembers(ctx); err != nil {
		return nil, err
	}
	if snap.Projects, err = b.fetchProjects(ctx); err != nil {
		return nil, err
	}
	if snap.Allocations, err = b.fetchAllocations(ctx); err != nil {
		return nil, err
	}
	if snap.History, err = b.fetchHistory(ctx); err != nil {
		return nil, err
	}
	if snap.SprintProjects, err = b.fetchSprintProjects(ctx); err != nil {
		return nil, err
	}
	if snap.SprintRoleRequirements, err = b.fetchRoleRequirements(ctx); err != nil {
		return nil, err
	}
	return snap, nil
}

func (b *Backend) fetchMembers(ctx context.Context) ([]models.TeamMember, error) {
	rows, err := b.db.Pool.Query(ctx, `
		SELECT id, full_name, email, role, teams, manager_id, capacity, is_active, created_at
		FROM team_members
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query team members: %w", err)
	}
	defer rows.Close()

	members := []models.TeamMember{}
	for rows.Next() {
		var m models.TeamMember
		var role string
		if err := rows.Scan(&m.ID, &m.FullName, &m.Email, &role, &m.Teams, &m.ManagerID, &m.Capacity, &m.IsActive, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		m.Role = models.Role(role)
		if m.Teams == nil {
			m.Teams = []string{}
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (b *Backend) fetchProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := b.db.Pool.Query(ctx, `
		SELECT id, customer_name, project_name, project_type, status, max_capacity_percentage,
		       pmo_contact, is_archived, comment, created_at
		FROM projects
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var p models.Project
		var projectType, status string
		if err := rows.Scan(&p.ID, &p.CustomerName, &p.ProjectName, &projectType, &status,
			&p.MaxCapacityPercentage, &p.PMOContact, &p.IsArchived, &p.Comment, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		p.ProjectType = models.ProjectType(projectType)
		p.Status = models.ProjectStatus(status)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (b *Backend) fetchAllocations(ctx context.Context) ([]models.Allocation, error) {
	rows, err := b.db.Pool.Query(ctx, `
		SELECT id, project_id, product_manager_id, year, month, sprint_index,
		       allocation_percentage, allocation_days, comment, created_at, created_by, is_planned
		FROM allocations
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations: %w", err)
	}
	defer rows.Close()

	allocations := []models.Allocation{}
	for rows.Next() {
		var a models.Allocation
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.ProductManagerID, &a.Year, &a.Month, &a.SprintIndex,
			&a.AllocationPercentage, &a.AllocationDays, &a.Comment, &a.CreatedAt, &a.CreatedBy, &a.IsPlanned); err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}

func (b *Backend) fetchHistory(ctx context.Context) ([]models.HistoryEntry, error) {
	rows, err := b.db.Pool.Query(ctx, `
		SELECT id, allocation_id, changed_by, changed_at, change_type, old_value, new_value
		FROM allocation_history
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	history := []models.HistoryEntry{}
	for rows.Next() {
		var h models.HistoryEntry
		var changeType string
		var oldValue, newValue []byte
		if err := rows.Scan(&h.ID, &h.AllocationID, &h.ChangedBy, &h.ChangedAt, &changeType, &oldValue, &newValue); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		h.ChangeType = models.ChangeType(changeType)
		if h.OldValue, err = decodeSnapshot(oldValue); err != nil {
			return nil, fmt.Errorf("failed to decode history entry %s: %w", h.ID, err)
		}
		if h.NewValue, err = decodeSnapshot(newValue); err != nil {
			return nil, fmt.Errorf("failed to decode history entry %s: %w", h.ID, err)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

func (b *Backend) fetchSprintProjects(ctx context.Context) (map[string][]string, error) {
	rows, err := b.db.Pool.Query(ctx, `SELECT sprint_key, project_ids FROM sprint_projects`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sprint projects: %w", err)
	}
	defer rows.Close()

	out := map[string][]string{}
	for rows.Next() {
		var key string
		var ids []string
		if err := rows.Scan(&key, &ids); err != nil {
			return nil, fmt.Errorf("failed to scan sprint projects: %w", err)
		}
		out[key] = ids
	}
	return out, rows.Err()
}

func (b *Backend) fetchRoleRequirements(ctx context.Context) (map[string]map[string]float64, error) {
	rows, err := b.db.Pool.Query(ctx, `SELECT entity_key, requirements FROM sprint_role_requirements`)
	if err != nil {
		return nil, fmt.Errorf("failed to query role requirements: %w", err)
	}
	defer rows.Close()

	out := map[string]map[string]float64{}
	for rows.Next() {
		var key string
		var raw []byte
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan role requirements: %w", err)
		}
		reqs := map[string]float64{}
		if err := json.Unmarshal(raw, &reqs); err != nil {
			return nil, fmt.Errorf("failed to decode role requirements %s: %w", key, err)
		}
		out[key] = reqs
	}
	return out, rows.Err()
}

func (b *Backend) SaveTeamMembers(ctx context.Context, members []models.TeamMember) error {
	return b.withTx(ctx, func(tx pgx.Tx) error {
		ids := make([]uuid.UUID, len(members))
		for i, m := range members {
			ids[i] = m.ID
			teams := m.Teams
			if teams == nil {
				teams = []string{}
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO team_members (id, full_name, email, role, teams, manager_id, capacity, is_active, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				ON CONFLICT (id) DO UPDATE SET
					full_name = EXCLUDED.full_name, email = EXCLUDED.email, role = EXCLUDED.role,
					teams = EXCLUDED.teams, manager_id = EXCLUDED.manager_id, capacity = EXCLUDED.capacity,
					is_active = EXCLUDED.is_active
			`, m.ID, m.FullName, m.Email, string(m.Role), teams, m.ManagerID, m.Capacity, m.IsActive, m.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to upsert team member %s: %w", m.ID, err)
			}
		}
		if _, err := tx.Exec(ctx, `DELETE FROM team_members WHERE id <> ALL($1)`, ids); err != nil {
			return fmt.Errorf("failed to prune team members: %w", err)
		}
		return nil
	})
}

func (b *Backend) SaveProjects(ctx context.Context, projects []models.Project) error {
	return b.withTx(ctx, func(tx pgx.Tx) error {
		ids := make([]uuid.UUID, len(projects))
		for i, p := range projects {
			ids[i] = p.ID
			_, err := tx.Exec(ctx, `
				INSERT INTO projects (id, customer_name, project_name, project_type, status,
					max_capacity_percentage, pmo_contact, is_archived, comment, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				ON CONFLICT (id) DO UPDATE SET
					customer_name = EXCLUDED.customer_name, project_name = EXCLUDED.project_name,
					project_type = EXCLUDED.project_type, status = EXCLUDED.status,
					max_capacity_percentage = EXCLUDED.max_capacity_percentage,
					pmo_contact = EXCLUDED.pmo_contact, is_archived = EXCLUDED.is_archived,
					comment = EXCLUDED.comment
			`, p.ID, p.CustomerName, p.ProjectName, string(p.ProjectType), string(p.Status),
				p.MaxCapacityPercentage, p.PMOContact, p.IsArchived, p.Comment, p.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to upsert project %s: %w", p.ID, err)
			}
		}
		if _, err := tx.Exec(ctx, `DELETE FROM projects WHERE id <> ALL($1)`, ids); err != nil {
			return fmt.Errorf("failed to prune projects: %w", err)
		}
		return nil
	})
}

func (b *Backend) SaveAllocations(ctx context.Context, allocations []models.Allocation) error {
	return b.withTx(ctx, func(tx pgx.Tx) error {
		ids := make([]uuid.UUID, len(allocations))
		for i, a := range allocations {
			ids[i] = a.ID
			_, err := tx.Exec(ctx, `
				INSERT INTO allocations (id, project_id, product_manager_id, year, month, sprint_index,
					allocation_percentage, allocation_days, comment, created_at, created_by, is_planned)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
				ON CONFLICT (id) DO UPDATE SET
					project_id = EXCLUDED.project_id, product_manager_id = EXCLUDED.product_manager_id,
					year = EXCLUDED.year, month = EXCLUDED.month, sprint_index = EXCLUDED.sprint_index,
					allocation_percentage = EXCLUDED.allocation_percentage,
					allocation_days = EXCLUDED.allocation_days, comment = EXCLUDED.comment,
					is_planned = EXCLUDED.is_planned
			`, a.ID, a.ProjectID, a.ProductManagerID, a.Year, a.Month, a.SprintIndex,
				a.AllocationPercentage, a.AllocationDays, a.Comment, a.CreatedAt, a.CreatedBy, a.IsPlanned)
			if err != nil {
				return fmt.Errorf("failed to upsert allocation %s: %w", a.ID, err)
			}
		}
		if _, err := tx.Exec(ctx, `DELETE FROM allocations WHERE id <> ALL($1)`, ids); err != nil {
			return fmt.Errorf("failed to prune allocations: %w", err)
		}
		return nil
	})
}

func (b *Backend) SaveHistory(ctx context.Context, history []models.HistoryEntry) error {
	return b.withTx(ctx, func(tx pgx.Tx) error {
		for _, h := range history {
			oldValue, err := encodeSnapshot(h.OldValue)
			if err != nil {
				return err
			}
			newValue, err := encodeSnapshot(h.NewValue)
			if err != nil {
				return err
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO allocation_history (id, allocation_id, changed_by, changed_at, change_type, old_value, new_value)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (id) DO NOTHING
			`, h.ID, h.AllocationID, h.ChangedBy, h.ChangedAt, string(h.ChangeType), oldValue, newValue)
			if err != nil {
				return fmt.Errorf("failed to insert history entry %s: %w", h.ID, err)
			}
		}
		return nil
	})
}

func (b *Backend) SaveSprintProjects(ctx context.Context, sprintProjects map[string][]string) error {
	return b.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM sprint_projects`); err != nil {
			return fmt.Errorf("failed to clear sprint projects: %w", err)
		}
		for _, key := range sortedKeys(sprintProjects) {
			if _, err := tx.Exec(ctx, `
				INSERT INTO sprint_projects (sprint_key, project_ids) VALUES ($1, $2)
			`, key, sprintProjects[key]); err != nil {
				return fmt.Errorf("failed to insert sprint projects %s: %w", key, err)
			}
		}
		return nil
	})
}

func (b *Backend) SaveSprintRoleRequirements(ctx context.Context, requirements map[string]map[string]float64) error {
	return b.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM sprint_role_requirements`); err != nil {
			return fmt.Errorf("failed to clear role requirements: %w", err)
		}
		for _, key := range sortedKeys(requirements) {
			raw, err := json.Marshal(requirements[key])
			if err != nil {
				return fmt.Errorf("failed to encode role requirements %s: %w", key, err)
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO sprint_role_requirements (entity_key, requirements) VALUES ($1, $2)
			`, key, raw); err != nil {
				return fmt.Errorf("failed to insert role requirements %s: %w", key, err)
			}
		}
		return nil
	})
}

func (b *Backend) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := b.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func encodeSnapshot(a *models.Allocation) ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to encode allocation snapshot: %w", err)
	}
	return raw, nil
}

func decodeSnapshot(raw []byte) (*models.Allocation, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var a models.Allocation
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
