package accesskit

import (
	"context"

	"github.com/fernandezvara/dbkit"
)

// PermissionRepository persists the permission catalog.
// Implementations return ErrAlreadyExists on a duplicate (module, action)
// pair and ErrNotFound for missing rows.
type PermissionRepository interface {
	InsertPermission(ctx context.Context, p *Permission) error
	GetPermission(ctx context.Context, id string) (*Permission, error)
	FindPermission(ctx context.Context, module, action string) (*Permission, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	GetPermissionsByIDs(ctx context.Context, ids []string) ([]Permission, error)
	DeletePermission(ctx context.Context, id string) error
}

// RoleRepository persists role definitions, including their module levels.
type RoleRepository interface {
	InsertRole(ctx context.Context, r *Role) error
	GetRole(ctx context.Context, id string) (*Role, error)
	GetRoleByName(ctx context.Context, name string) (*Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	UpdateRole(ctx context.Context, r *Role) error
	DeleteRole(ctx context.Context, id string) error
}

// AssignmentRepository persists role_permissions and user_roles links.
// Upserts are idempotent: created is false when the link already existed.
type AssignmentRepository interface {
	UpsertRolePermission(ctx context.Context, link *RolePermission) (created bool, err error)
	DeleteRolePermission(ctx context.Context, roleID, permissionID string) (deleted bool, err error)
	ListRolePermissions(ctx context.Context, roleID string) ([]RolePermission, error)
	ListPermissionRoles(ctx context.Context, permissionID string) ([]RolePermission, error)

	UpsertUserRole(ctx context.Context, link *UserRole) (created bool, err error)
	DeleteUserRole(ctx context.Context, userID, roleID string) (deleted bool, err error)
	ListUserRoles(ctx context.Context, userID string) ([]UserRole, error)
	ListRoleUsers(ctx context.Context, roleID string) ([]UserRole, error)
}

// UserDirectory reads the externally owned users collection.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (*User, error)
	// ListDirectReports returns every user whose manager is one of managerIDs.
	ListDirectReports(ctx context.Context, managerIDs []string) ([]User, error)
}

// Store is a backend providing every collection the engine needs.
type Store interface {
	PermissionRepository
	RoleRepository
	AssignmentRepository
	UserDirectory
}

// Transactor is implemented by stores that can run a function atomically.
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// OptionsTransactor is a Transactor that also honors isolation and
// read-only settings.
type OptionsTransactor interface {
	Transactor
	TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn func(ctx context.Context) error) error
}

// EventSink receives signals for administrative changes.
type EventSink func(ctx context.Context, e Event)
