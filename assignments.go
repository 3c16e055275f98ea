package accesskit

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// AssignmentStore manages role↔permission and user↔role links.
type AssignmentStore struct {
	links AssignmentRepository
	roles RoleRepository
	perms PermissionRepository
	users UserDirectory
	opts  *options
}

// NewAssignmentStore creates an AssignmentStore. roles, perms and users are
// used to reject links to missing rows and to resolve permission unions.
func NewAssignmentStore(links AssignmentRepository, roles RoleRepository, perms PermissionRepository, users UserDirectory, opts ...Option) *AssignmentStore {
	return newAssignmentStore(links, roles, perms, users, buildOptions(opts))
}

func newAssignmentStore(links AssignmentRepository, roles RoleRepository, perms PermissionRepository, users UserDirectory, o *options) *AssignmentStore {
	return &AssignmentStore{links: links, roles: roles, perms: perms, users: users, opts: o}
}

// AssignPermissionToRole adds a discrete grant to a role.
// Assigning an existing pair again is a no-op and returns nil.
func (s *AssignmentStore) AssignPermissionToRole(ctx context.Context, roleID, permissionID string) error {
	if _, err := s.roles.GetRole(ctx, roleID); err != nil {
		return err
	}
	if _, err := s.perms.GetPermission(ctx, permissionID); err != nil {
		return err
	}

	created, err := s.links.UpsertRolePermission(ctx, &RolePermission{RoleID: roleID, PermissionID: permissionID})
	if err != nil {
		return err
	}
	if created {
		s.opts.emit(ctx, Event{Type: EventPermissionGranted, RoleID: roleID, PermissionID: permissionID})
	}
	return nil
}

// AssignPermissionsToRole grants several permissions at once. When the
// backend supports transactions the batch is all-or-nothing.
func (s *AssignmentStore) AssignPermissionsToRole(ctx context.Context, roleID string, permissionIDs []string) error {
	fn := func(ctx context.Context) error {
		for _, permissionID := range permissionIDs {
			if err := s.AssignPermissionToRole(ctx, roleID, permissionID); err != nil {
				return err
			}
		}
		return nil
	}
	if tx, ok := s.links.(Transactor); ok {
		return tx.Transaction(ctx, fn)
	}
	return fn(ctx)
}

// RevokePermissionFromRole removes a discrete grant. Revoking a grant the
// role does not hold is a no-op.
func (s *AssignmentStore) RevokePermissionFromRole(ctx context.Context, roleID, permissionID string) error {
	deleted, err := s.links.DeleteRolePermission(ctx, roleID, permissionID)
	if err != nil {
		return err
	}
	if deleted {
		s.opts.emit(ctx, Event{Type: EventPermissionRevoked, RoleID: roleID, PermissionID: permissionID})
	}
	return nil
}

// AssignRoleToUser assigns a role to a user, recording who assigned it.
// Assigning an existing pair again is a no-op and returns nil. An unknown
// user or role is reported as ErrNotFound and nothing is stored.
//
// Example:
//
//	ctx = accesskit.WithActorID(ctx, adminID)
//	err := assignments.AssignRoleToUser(ctx, userID, roleID, adminID)
func (s *AssignmentStore) AssignRoleToUser(ctx context.Context, userID, roleID, assignedBy string) error {
	if userID == "" {
		return NewError(ErrInvalidInput, "user ID required")
	}
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return err
	}
	if _, err := s.roles.GetRole(ctx, roleID); err != nil {
		return err
	}
	if assignedBy == "" {
		assignedBy = GetActorID(ctx)
	}

	link := &UserRole{
		UserID:     userID,
		RoleID:     roleID,
		AssignedBy: assignedBy,
		AssignedAt: s.opts.now(),
	}
	created, err := s.links.UpsertUserRole(ctx, link)
	if err != nil {
		return err
	}
	if created {
		s.opts.emit(ctx, Event{Type: EventRoleAssigned, ActorID: assignedBy, UserID: userID, RoleID: roleID})
	}
	return nil
}

// RevokeRoleFromUser removes a user's role. Revoking a role the user does
// not hold is a no-op.
func (s *AssignmentStore) RevokeRoleFromUser(ctx context.Context, userID, roleID string) error {
	deleted, err := s.links.DeleteUserRole(ctx, userID, roleID)
	if err != nil {
		return err
	}
	if deleted {
		s.opts.emit(ctx, Event{Type: EventRoleUnassigned, UserID: userID, RoleID: roleID})
	}
	return nil
}

// GetPermissionsByRole returns the discrete grants of a role. Links whose
// permission no longer exists are skipped.
func (s *AssignmentStore) GetPermissionsByRole(ctx context.Context, roleID string) ([]Permission, error) {
	links, err := s.links.ListRolePermissions(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.PermissionID)
	}
	return s.perms.GetPermissionsByIDs(ctx, ids)
}

// GetRolesByUser returns the user's role links.
func (s *AssignmentStore) GetRolesByUser(ctx context.Context, userID string) ([]UserRole, error) {
	return s.links.ListUserRoles(ctx, userID)
}

// GetRolesWithPermission returns the roles holding a discrete grant.
// Links whose role no longer exists are skipped.
func (s *AssignmentStore) GetRolesWithPermission(ctx context.Context, permissionID string) ([]Role, error) {
	links, err := s.links.ListPermissionRoles(ctx, permissionID)
	if err != nil {
		return nil, err
	}
	roles := make([]Role, 0, len(links))
	for _, l := range links {
		role, err := s.roles.GetRole(ctx, l.RoleID)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		roles = append(roles, *role)
	}
	return roles, nil
}

// GetUsersWithRole returns the user links of a role.
func (s *AssignmentStore) GetUsersWithRole(ctx context.Context, roleID string) ([]UserRole, error) {
	return s.links.ListRoleUsers(ctx, roleID)
}

// GetUserPermissions returns the union of discrete grants over every role
// assigned to the user. It is meant for inspection; authorization goes
// through PermissionResolver.
func (s *AssignmentStore) GetUserPermissions(ctx context.Context, userID string) ([]Permission, error) {
	userRoles, err := s.links.ListUserRoles(ctx, userID)
	if err != nil {
		return nil, err
	}

	var (
		mu    sync.Mutex
		union = make(map[string]Permission)
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, ur := range userRoles {
		roleID := ur.RoleID
		g.Go(func() error {
			if _, err := s.roles.GetRole(gctx, roleID); err != nil {
				if IsNotFound(err) {
					return nil
				}
				return err
			}
			perms, err := s.GetPermissionsByRole(gctx, roleID)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, p := range perms {
				union[p.ID] = p
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Permission, 0, len(union))
	for _, p := range union {
		out = append(out, p)
	}
	return out, nil
}
