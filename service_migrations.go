package accesskit

import (
	"github.com/fernandezvara/dbkit"
)

// Migrations returns the database migrations for the tables accesskit owns.
// The users table belongs to the host application and is only read.
//
// Use dbkit.Migrate(ctx, accesskit.Migrations()) to run migrations.
// Use dbkit.MigrationStatus(ctx, accesskit.Migrations()) to check status.
func Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "accesskit-001",
			Description: "Create permissions table",
			SQL: `
                CREATE TABLE IF NOT EXISTS permissions (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    module TEXT NOT NULL,
                    action TEXT NOT NULL,
                    description TEXT,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    CONSTRAINT permissions_module_action_key UNIQUE (module, action)
                )`,
		},
		{
			ID:          "accesskit-002",
			Description: "Create roles table",
			SQL: `
                CREATE TABLE IF NOT EXISTS roles (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    name TEXT NOT NULL UNIQUE,
                    description TEXT,
                    is_system_role BOOLEAN NOT NULL DEFAULT false,
                    module_levels JSONB NOT NULL DEFAULT '{}'::jsonb,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "accesskit-003",
			Description: "Create role_permissions table",
			SQL: `
                CREATE TABLE IF NOT EXISTS role_permissions (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    role_id UUID NOT NULL,
                    permission_id UUID NOT NULL,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    CONSTRAINT role_permissions_role_permission_key UNIQUE (role_id, permission_id)
                );
                CREATE INDEX IF NOT EXISTS role_permissions_permission_idx ON role_permissions (permission_id)`,
		},
		{
			ID:          "accesskit-004",
			Description: "Create user_roles table",
			SQL: `
                CREATE TABLE IF NOT EXISTS user_roles (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    user_id TEXT NOT NULL,
                    role_id UUID NOT NULL,
                    assigned_by TEXT,
                    assigned_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    CONSTRAINT user_roles_user_role_key UNIQUE (user_id, role_id)
                );
                CREATE INDEX IF NOT EXISTS user_roles_role_idx ON user_roles (role_id)`,
		},
	}
}
