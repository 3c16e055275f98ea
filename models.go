package accesskit

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the slice of the externally owned users table the engine reads.
// ManagerID forms the reporting tree; it is a weak reference and may be nil.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        string  `bun:"id,pk"`
	ManagerID *string `bun:"manager_id"`
	IsActive  bool    `bun:"is_active"`
}

// Manager returns the manager ID or empty string for a root user.
func (u *User) Manager() string {
	if u == nil || u.ManagerID == nil {
		return ""
	}
	return *u.ManagerID
}

// Permission is a catalog entry identified by its (module, action) pair.
type Permission struct {
	bun.BaseModel `bun:"table:permissions,alias:p"`

	ID          string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Module      string    `bun:"module,notnull"`
	Action      string    `bun:"action,notnull"`
	Description string    `bun:"description"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Key returns the permission's (module, action) identity.
func (p *Permission) Key() PermissionKey {
	return PermissionKey{Module: p.Module, Action: p.Action}
}

// Role carries both grant mechanisms: ModuleLevels here and discrete grants
// through role_permissions.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID           string       `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Name         string       `bun:"name,notnull,unique"`
	Description  string       `bun:"description"`
	IsSystemRole bool         `bun:"is_system_role,notnull,default:false"`
	ModuleLevels ModuleLevels `bun:"module_levels,type:jsonb"`
	CreatedAt    time.Time    `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time    `bun:"updated_at,notnull,default:current_timestamp"`
}

// RolePermission links a role to a discrete permission grant.
type RolePermission struct {
	bun.BaseModel `bun:"table:role_permissions,alias:rp"`

	ID           string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	RoleID       string    `bun:"role_id,notnull"`
	PermissionID string    `bun:"permission_id,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// UserRole links a user to a role. AssignedBy and AssignedAt are kept for audit.
type UserRole struct {
	bun.BaseModel `bun:"table:user_roles,alias:ur"`

	ID         string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	UserID     string    `bun:"user_id,notnull"`
	RoleID     string    `bun:"role_id,notnull"`
	AssignedBy string    `bun:"assigned_by"`
	AssignedAt time.Time `bun:"assigned_at,notnull,default:current_timestamp"`
}

// Grants is the resolved grant structure of a single role.
type Grants struct {
	Levels  ModuleLevels
	Actions map[PermissionKey]struct{}
}

// Allows reports whether the discrete grant set contains (module, action).
func (g Grants) Allows(module, action string) bool {
	_, ok := g.Actions[PermissionKey{Module: module, Action: action}]
	return ok
}

// RoleUpdate describes a partial role update. Nil fields are left unchanged;
// a non-nil ModuleLevels replaces the whole map.
type RoleUpdate struct {
	Name         *string      `validate:"omitempty,min=1,max=128"`
	Description  *string      `validate:"omitempty,max=1024"`
	ModuleLevels ModuleLevels `validate:"omitempty,dive,keys,required,endkeys,min=0,max=5"`
}

// UserIDSet is a set of user IDs.
type UserIDSet map[string]struct{}

// NewUserIDSet creates a set holding ids.
func NewUserIDSet(ids ...string) UserIDSet {
	s := make(UserIDSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id. Empty IDs are ignored.
func (s UserIDSet) Add(id string) {
	if id == "" {
		return
	}
	s[id] = struct{}{}
}

// Has reports whether id is in the set. Empty IDs are never members.
func (s UserIDSet) Has(id string) bool {
	if id == "" {
		return false
	}
	_, ok := s[id]
	return ok
}

// Slice returns the members in unspecified order.
func (s UserIDSet) Slice() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}

// EventType names an action signaled by the engine.
type EventType string

const (
	EventPermissionDefined EventType = "permission_defined"
	EventPermissionDeleted EventType = "permission_deleted"
	EventRoleCreated       EventType = "role_created"
	EventRoleUpdated       EventType = "role_updated"
	EventRoleDeleted       EventType = "role_deleted"
	EventPermissionGranted EventType = "permission_granted"
	EventPermissionRevoked EventType = "permission_revoked"
	EventRoleAssigned      EventType = "role_assigned"
	EventRoleUnassigned    EventType = "role_unassigned"
)

// Event signals an administrative change. The engine does not persist
// events; hosts that keep an audit trail subscribe with WithEventSink.
type Event struct {
	Type         EventType
	ActorID      string
	UserID       string
	RoleID       string
	PermissionID string
	RequestID    string
	Timestamp    time.Time
}
