package accesskit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store. It backs tests and the sample app,
// and lets hosts without PostgreSQL embed the engine.
//
// Rows are copied on the way in and out, so callers never share memory
// with the store.
type MemoryStore struct {
	mu sync.RWMutex

	users           map[string]User
	permissions     map[string]Permission
	roles           map[string]Role
	rolePermissions map[string]RolePermission // keyed by roleID + "\x00" + permissionID
	userRoles       map[string]UserRole       // keyed by userID + "\x00" + roleID

	now func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:           make(map[string]User),
		permissions:     make(map[string]Permission),
		roles:           make(map[string]Role),
		rolePermissions: make(map[string]RolePermission),
		userRoles:       make(map[string]UserRole),
		now:             time.Now,
	}
}

func linkKey(a, b string) string {
	return a + "\x00" + b
}

// PutUser inserts or replaces a user. Users are owned by the host, so this
// is the only write path for them.
func (m *MemoryStore) PutUser(u User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = copyUser(u)
}

// SetManager changes a user's manager. An empty managerID makes the user a root.
func (m *MemoryStore) SetManager(userID, managerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return NewError(ErrNotFound, "user").WithUser(userID)
	}
	if managerID == "" {
		u.ManagerID = nil
	} else {
		u.ManagerID = &managerID
	}
	m.users[userID] = u
	return nil
}

func copyUser(u User) User {
	if u.ManagerID != nil {
		id := *u.ManagerID
		u.ManagerID = &id
	}
	return u
}

func copyRole(r Role) Role {
	r.ModuleLevels = r.ModuleLevels.Clone()
	return r
}

// ============================================================================
// PERMISSIONS
// ============================================================================

func (m *MemoryStore) InsertPermission(ctx context.Context, p *Permission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.permissions {
		if existing.Module == p.Module && existing.Action == p.Action {
			return NewError(ErrAlreadyExists, "permission "+p.Key().String()).WithModule(p.Module, p.Action)
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = m.now()
	}
	m.permissions[p.ID] = *p
	return nil
}

func (m *MemoryStore) GetPermission(ctx context.Context, id string) (*Permission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.permissions[id]
	if !ok {
		return nil, NewError(ErrNotFound, "permission "+id)
	}
	return &p, nil
}

func (m *MemoryStore) FindPermission(ctx context.Context, module, action string) (*Permission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.permissions {
		if p.Module == module && p.Action == action {
			return &p, nil
		}
	}
	return nil, NewError(ErrNotFound, "permission "+NewPermissionKey(module, action).String()).WithModule(module, action)
}

func (m *MemoryStore) ListPermissions(ctx context.Context) ([]Permission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Permission, 0, len(m.permissions))
	for _, p := range m.permissions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Module != out[j].Module {
			return out[i].Module < out[j].Module
		}
		return out[i].Action < out[j].Action
	})
	return out, nil
}

func (m *MemoryStore) GetPermissionsByIDs(ctx context.Context, ids []string) ([]Permission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Permission, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := m.permissions[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryStore) DeletePermission(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.permissions[id]; !ok {
		return NewError(ErrNotFound, "permission "+id)
	}
	delete(m.permissions, id)
	return nil
}

// ============================================================================
// ROLES
// ============================================================================

func (m *MemoryStore) InsertRole(ctx context.Context, r *Role) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.roles {
		if existing.Name == r.Name {
			return NewError(ErrAlreadyExists, "role "+r.Name).WithRole(r.Name)
		}
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.ModuleLevels == nil {
		r.ModuleLevels = ModuleLevels{}
	}
	now := m.now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = now
	}
	m.roles[r.ID] = copyRole(*r)
	return nil
}

func (m *MemoryStore) GetRole(ctx context.Context, id string) (*Role, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.roles[id]
	if !ok {
		return nil, NewError(ErrNotFound, "role "+id)
	}
	r = copyRole(r)
	return &r, nil
}

func (m *MemoryStore) GetRoleByName(ctx context.Context, name string) (*Role, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.roles {
		if r.Name == name {
			r = copyRole(r)
			return &r, nil
		}
	}
	return nil, NewError(ErrNotFound, "role "+name).WithRole(name)
}

func (m *MemoryStore) ListRoles(ctx context.Context) ([]Role, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Role, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, copyRole(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) UpdateRole(ctx context.Context, r *Role) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.roles[r.ID]
	if !ok {
		return NewError(ErrNotFound, "role "+r.ID)
	}
	for id, other := range m.roles {
		if id != r.ID && other.Name == r.Name {
			return NewError(ErrAlreadyExists, "role "+r.Name).WithRole(r.Name)
		}
	}
	existing.Name = r.Name
	existing.Description = r.Description
	existing.ModuleLevels = r.ModuleLevels.Clone()
	existing.UpdatedAt = r.UpdatedAt
	m.roles[r.ID] = existing
	return nil
}

func (m *MemoryStore) DeleteRole(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.roles[id]; !ok {
		return NewError(ErrNotFound, "role "+id)
	}
	delete(m.roles, id)
	return nil
}

// ============================================================================
// LINKS
// ============================================================================

func (m *MemoryStore) UpsertRolePermission(ctx context.Context, link *RolePermission) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := linkKey(link.RoleID, link.PermissionID)
	if existing, ok := m.rolePermissions[key]; ok {
		*link = existing
		return false, nil
	}
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = m.now()
	}
	m.rolePermissions[key] = *link
	return true, nil
}

func (m *MemoryStore) DeleteRolePermission(ctx context.Context, roleID, permissionID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := linkKey(roleID, permissionID)
	if _, ok := m.rolePermissions[key]; !ok {
		return false, nil
	}
	delete(m.rolePermissions, key)
	return true, nil
}

func (m *MemoryStore) ListRolePermissions(ctx context.Context, roleID string) ([]RolePermission, error) {
	return m.filterRolePermissions(ctx, func(l RolePermission) bool { return l.RoleID == roleID })
}

func (m *MemoryStore) ListPermissionRoles(ctx context.Context, permissionID string) ([]RolePermission, error) {
	return m.filterRolePermissions(ctx, func(l RolePermission) bool { return l.PermissionID == permissionID })
}

func (m *MemoryStore) filterRolePermissions(ctx context.Context, keep func(RolePermission) bool) ([]RolePermission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []RolePermission
	for _, l := range m.rolePermissions {
		if keep(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) UpsertUserRole(ctx context.Context, link *UserRole) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := linkKey(link.UserID, link.RoleID)
	if existing, ok := m.userRoles[key]; ok {
		*link = existing
		return false, nil
	}
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	if link.AssignedAt.IsZero() {
		link.AssignedAt = m.now()
	}
	m.userRoles[key] = *link
	return true, nil
}

func (m *MemoryStore) DeleteUserRole(ctx context.Context, userID, roleID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := linkKey(userID, roleID)
	if _, ok := m.userRoles[key]; !ok {
		return false, nil
	}
	delete(m.userRoles, key)
	return true, nil
}

func (m *MemoryStore) ListUserRoles(ctx context.Context, userID string) ([]UserRole, error) {
	return m.filterUserRoles(ctx, func(l UserRole) bool { return l.UserID == userID })
}

func (m *MemoryStore) ListRoleUsers(ctx context.Context, roleID string) ([]UserRole, error) {
	return m.filterUserRoles(ctx, func(l UserRole) bool { return l.RoleID == roleID })
}

func (m *MemoryStore) filterUserRoles(ctx context.Context, keep func(UserRole) bool) ([]UserRole, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []UserRole
	for _, l := range m.userRoles {
		if keep(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssignedAt.Before(out[j].AssignedAt) })
	return out, nil
}

// ============================================================================
// USERS
// ============================================================================

func (m *MemoryStore) GetUser(ctx context.Context, id string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, NewError(ErrNotFound, "user").WithUser(id)
	}
	u = copyUser(u)
	return &u, nil
}

func (m *MemoryStore) ListDirectReports(ctx context.Context, managerIDs []string) ([]User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	managers := NewUserIDSet(managerIDs...)
	var out []User
	for _, u := range m.users {
		if managers.Has(u.Manager()) {
			out = append(out, copyUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
