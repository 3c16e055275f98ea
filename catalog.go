package accesskit

import (
	"context"
	"strings"
)

// PermissionCatalog manages the (module, action, description) reference data.
type PermissionCatalog struct {
	repo PermissionRepository
	opts *options
}

// NewPermissionCatalog creates a catalog over repo.
func NewPermissionCatalog(repo PermissionRepository, opts ...Option) *PermissionCatalog {
	return newPermissionCatalog(repo, buildOptions(opts))
}

func newPermissionCatalog(repo PermissionRepository, o *options) *PermissionCatalog {
	return &PermissionCatalog{repo: repo, opts: o}
}

// Define creates a new permission.
// If the pair is already defined, the existing permission is returned together
// with an error matching ErrAlreadyExists.
//
// Example:
//
//	perm, err := catalog.Define(ctx, "tasks", "delete", "Delete tasks")
//	if accesskit.IsAlreadyExists(err) {
//	    err = nil // use perm
//	}
func (c *PermissionCatalog) Define(ctx context.Context, module, action, description string) (*Permission, error) {
	module = strings.TrimSpace(module)
	action = strings.TrimSpace(action)
	key := NewPermissionKey(module, action)
	if err := key.Validate(); err != nil {
		return nil, err
	}

	perm := &Permission{
		Module:      module,
		Action:      action,
		Description: strings.TrimSpace(description),
	}
	if err := c.repo.InsertPermission(ctx, perm); err != nil {
		if IsAlreadyExists(err) {
			existing, lookupErr := c.repo.FindPermission(ctx, module, action)
			if lookupErr != nil {
				return nil, lookupErr
			}
			return existing, NewError(ErrAlreadyExists, "permission "+key.String()+" already defined").
				WithModule(module, action)
		}
		return nil, err
	}

	c.opts.emit(ctx, Event{Type: EventPermissionDefined, PermissionID: perm.ID})
	return perm, nil
}

// Ensure defines the permission or returns the existing one.
func (c *PermissionCatalog) Ensure(ctx context.Context, module, action, description string) (*Permission, error) {
	perm, err := c.Define(ctx, module, action, description)
	if err != nil && !IsAlreadyExists(err) {
		return nil, err
	}
	return perm, nil
}

// List returns every permission. Order is not significant.
func (c *PermissionCatalog) List(ctx context.Context) ([]Permission, error) {
	return c.repo.ListPermissions(ctx)
}

// Lookup finds a permission by its (module, action) pair.
func (c *PermissionCatalog) Lookup(ctx context.Context, module, action string) (*Permission, error) {
	return c.repo.FindPermission(ctx, module, action)
}

// Get finds a permission by ID.
func (c *PermissionCatalog) Get(ctx context.Context, id string) (*Permission, error) {
	return c.repo.GetPermission(ctx, id)
}

// Delete removes a permission. Role links that reference it become
// orphaned and grant nothing.
func (c *PermissionCatalog) Delete(ctx context.Context, id string) error {
	if err := c.repo.DeletePermission(ctx, id); err != nil {
		return err
	}
	c.opts.emit(ctx, Event{Type: EventPermissionDeleted, PermissionID: id})
	return nil
}
