package authzkit

import (
	"github.com/fernandezvara/dbkit"
)

// Migrations returns all database migrations required for authzkit.
// Use db.Migrate(ctx, service.Migrations()) to run them.
//
// The schema follows the platform's conventions: surrogate UUID primary
// keys, a version integer for optimistic concurrency, created/updated
// timestamps, and foreign keys with cascading delete.
func (s *Service) Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "authzkit-001",
			Description: "Create roles table",
			SQL: `
                CREATE TABLE IF NOT EXISTS roles (
                    id UUID PRIMARY KEY,
                    name TEXT NOT NULL UNIQUE,
                    description TEXT NOT NULL DEFAULT '',
                    color TEXT,
                    icon TEXT,
                    position INTEGER NOT NULL,
                    is_default BOOLEAN NOT NULL DEFAULT FALSE,
                    is_mentionable BOOLEAN NOT NULL DEFAULT TRUE,
                    is_built_in BOOLEAN NOT NULL DEFAULT FALSE,
                    permissions TEXT[] NOT NULL DEFAULT '{}',
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    version BIGINT NOT NULL DEFAULT 1,
                    created_by TEXT
                )`,
		},
		{
			ID:          "authzkit-002",
			Description: "Create role_assignments table",
			SQL: `
                CREATE TABLE IF NOT EXISTS role_assignments (
                    id UUID PRIMARY KEY,
                    user_id TEXT NOT NULL,
                    role_id UUID NOT NULL REFERENCES roles (id) ON DELETE CASCADE,
                    assigned_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    assigned_by TEXT,
                    UNIQUE (user_id, role_id)
                )`,
		},
		{
			ID:          "authzkit-003",
			Description: "Index role_assignments by user",
			SQL:         `CREATE INDEX IF NOT EXISTS idx_role_assignments_user ON role_assignments (user_id)`,
		},
		{
			ID:          "authzkit-004",
			Description: "Create role_audit_log table",
			SQL: `
                CREATE TABLE IF NOT EXISTS role_audit_log (
                    id UUID PRIMARY KEY,
                    timestamp TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    actor_id TEXT NOT NULL,
                    action TEXT NOT NULL,
                    role_id TEXT,
                    role_name TEXT,
                    target_user_id TEXT,
                    previous_permissions TEXT[],
                    new_permissions TEXT[],
                    ip_address TEXT,
                    user_agent TEXT,
                    request_id TEXT,
                    metadata JSONB
                )`,
		},
	}
}
