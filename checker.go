package accesskit

import (
	"context"
)

// Checker answers permission questions for one user from a snapshot of
// their roles and grants taken when it was created.
// It is typically created by the Service and stored in context for the
// lifetime of one request; do not keep it longer, or role edits will be missed.
//
// A nil Checker denies everything.
type Checker struct {
	userID  string
	roles   []Role
	grants  []Grants
	actions *ActionTable
}

// GetChecker loads a Checker for userID. Unknown and inactive users get an
// empty Checker.
//
// Example:
//
//	checker, err := resolver.GetChecker(ctx, userID)
//	if err != nil {
//	    return err
//	}
//	canEdit := checker.Can("tasks", "update")
func (r *PermissionResolver) GetChecker(ctx context.Context, userID string) (*Checker, error) {
	roles, err := r.resolveRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	c := &Checker{userID: userID, roles: roles, actions: r.opts.actions}
	for _, role := range roles {
		g, err := r.grantsOf(ctx, role)
		if err != nil {
			return nil, err
		}
		c.grants = append(c.grants, g)
	}
	return c, nil
}

// UserID returns the user ID this checker is for.
func (c *Checker) UserID() string {
	if c == nil {
		return ""
	}
	return c.userID
}

// Can reports whether the user may perform action on module, using the same
// rules as PermissionResolver.CheckPermission.
//
// Example:
//
//	if checker.Can("tasks", "delete") {
//	    // render the delete button
//	}
func (c *Checker) Can(module, action string) bool {
	if c == nil || len(c.roles) == 0 {
		return false
	}
	if required, ok := c.actions.Required(module, action); ok && c.Level(module) >= required {
		return true
	}
	for _, g := range c.grants {
		if g.Allows(module, action) {
			return true
		}
	}
	return false
}

// CanAny reports whether any of the keys is allowed.
func (c *Checker) CanAny(keys ...PermissionKey) bool {
	for _, k := range keys {
		if c.Can(k.Module, k.Action) {
			return true
		}
	}
	return false
}

// CanAll reports whether every key is allowed. An empty list is false.
func (c *Checker) CanAll(keys ...PermissionKey) bool {
	if len(keys) == 0 {
		return false
	}
	for _, k := range keys {
		if !c.Can(k.Module, k.Action) {
			return false
		}
	}
	return true
}

// HasMinimumLevel reports whether the user's highest level on module is at
// least required.
func (c *Checker) HasMinimumLevel(module string, required Level) bool {
	if c == nil || len(c.roles) == 0 || !required.Valid() {
		return false
	}
	return c.Level(module) >= required
}

// Level returns the user's highest level on module.
func (c *Checker) Level(module string) Level {
	if c == nil {
		return LevelNone
	}
	return maxLevel(c.roles, module)
}

// Roles returns the names of the user's roles.
func (c *Checker) Roles() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.roles))
	for _, role := range c.roles {
		names = append(names, role.Name)
	}
	return names
}

// IsEmpty returns true if the user has no usable roles.
func (c *Checker) IsEmpty() bool {
	return c == nil || len(c.roles) == 0
}
