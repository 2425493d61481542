package database

import (
	"context"
	"fmt"
)

// Referential checks live in the store; the tables only key rows by id so a
// save is a plain upsert-and-prune.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS team_members (
		id UUID PRIMARY KEY,
		full_name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		role VARCHAR(50) NOT NULL,
		teams TEXT[] NOT NULL DEFAULT '{}',
		manager_id UUID,
		capacity DOUBLE PRECISION,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS projects (
		id UUID PRIMARY KEY,
		customer_name VARCHAR(255) NOT NULL,
		project_name VARCHAR(255) NOT NULL,
		project_type VARCHAR(50) NOT NULL,
		status VARCHAR(50) NOT NULL,
		max_capacity_percentage DOUBLE PRECISION,
		pmo_contact UUID,
		is_archived BOOLEAN NOT NULL DEFAULT FALSE,
		comment TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS allocations (
		id UUID PRIMARY KEY,
		project_id UUID NOT NULL,
		product_manager_id UUID NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		sprint_index INTEGER NOT NULL,
		allocation_percentage DOUBLE PRECISION NOT NULL,
		allocation_days DOUBLE PRECISION NOT NULL,
		comment TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		created_by VARCHAR(255) NOT NULL DEFAULT '',
		is_planned BOOLEAN NOT NULL DEFAULT FALSE
	)`,

	`CREATE INDEX IF NOT EXISTS idx_allocations_sprint ON allocations(year, month, sprint_index)`,

	`CREATE TABLE IF NOT EXISTS allocation_history (
		id UUID PRIMARY KEY,
		allocation_id UUID NOT NULL,
		changed_by VARCHAR(255) NOT NULL DEFAULT '',
		changed_at TIMESTAMP WITH TIME ZONE NOT NULL,
		change_type VARCHAR(20) NOT NULL,
		old_value JSONB,
		new_value JSONB,
		seq BIGSERIAL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_allocation_history_allocation_id ON allocation_history(allocation_id)`,

	`CREATE TABLE IF NOT EXISTS sprint_projects (
		sprint_key VARCHAR(32) PRIMARY KEY,
		project_ids TEXT[] NOT NULL DEFAULT '{}'
	)`,

	`CREATE TABLE IF NOT EXISTS sprint_role_requirements (
		entity_key VARCHAR(80) PRIMARY KEY,
		requirements JSONB NOT NULL DEFAULT '{}'
	)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
