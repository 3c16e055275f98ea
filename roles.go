package accesskit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// RoleStore manages role definitions and their per-module levels.
type RoleStore struct {
	repo RoleRepository
	opts *options
}

// NewRoleStore creates a RoleStore over repo.
func NewRoleStore(repo RoleRepository, opts ...Option) *RoleStore {
	return newRoleStore(repo, buildOptions(opts))
}

func newRoleStore(repo RoleRepository, o *options) *RoleStore {
	return &RoleStore{repo: repo, opts: o}
}

// Create creates a role with empty grants.
// A duplicate name fails with ErrAlreadyExists.
//
// Example:
//
//	role, err := roles.Create(ctx, "Manager", "Team managers", false)
func (s *RoleStore) Create(ctx context.Context, name, description string, isSystemRole bool) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewError(ErrInvalidInput, "role name required")
	}

	role := &Role{
		Name:         name,
		Description:  strings.TrimSpace(description),
		IsSystemRole: isSystemRole,
		ModuleLevels: ModuleLevels{},
	}
	if err := s.repo.InsertRole(ctx, role); err != nil {
		return nil, err
	}

	s.opts.emit(ctx, Event{Type: EventRoleCreated, RoleID: role.ID})
	return role, nil
}

// GetByID returns a role by ID.
func (s *RoleStore) GetByID(ctx context.Context, id string) (*Role, error) {
	return s.repo.GetRole(ctx, id)
}

// GetByName returns a role by name.
func (s *RoleStore) GetByName(ctx context.Context, name string) (*Role, error) {
	return s.repo.GetRoleByName(ctx, strings.TrimSpace(name))
}

// List returns every role.
func (s *RoleStore) List(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// Update applies a partial update. The whole update is validated before
// anything is written; an out-of-range level fails with ErrInvalidLevel and
// leaves the role untouched.
//
// Example:
//
//	levels := accesskit.ModuleLevels{"tasks": accesskit.LevelWrite}
//	role, err := roles.Update(ctx, roleID, accesskit.RoleUpdate{ModuleLevels: levels})
func (s *RoleStore) Update(ctx context.Context, id string, upd RoleUpdate) (*Role, error) {
	if err := validateRoleUpdate(upd); err != nil {
		return nil, err
	}

	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		role.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Description != nil {
		role.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.ModuleLevels != nil {
		role.ModuleLevels = upd.ModuleLevels.Clone()
	}
	role.UpdatedAt = s.opts.now()

	if err := s.repo.UpdateRole(ctx, role); err != nil {
		return nil, err
	}

	s.opts.emit(ctx, Event{Type: EventRoleUpdated, RoleID: role.ID})
	return role, nil
}

// SetModuleLevel changes the level of a single module, keeping the others.
func (s *RoleStore) SetModuleLevel(ctx context.Context, id, module string, level Level) (*Role, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}
	levels := role.ModuleLevels.Clone()
	if levels == nil {
		levels = ModuleLevels{}
	}
	levels[module] = level
	return s.Update(ctx, id, RoleUpdate{ModuleLevels: levels})
}

// Delete removes a role. Links to it are not removed; the resolver treats
// them as granting nothing.
func (s *RoleStore) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return err
	}
	s.opts.emit(ctx, Event{Type: EventRoleDeleted, RoleID: id})
	return nil
}

func validateRoleUpdate(upd RoleUpdate) error {
	if err := upd.ModuleLevels.Validate(); err != nil {
		return err
	}

	if err := validate.Struct(upd); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return NewError(ErrInvalidInput, err.Error())
		}
		for _, fe := range verrs {
			if strings.HasPrefix(fe.StructField(), "ModuleLevels") {
				return NewError(ErrInvalidLevel, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
		}
		fe := verrs[0]
		return NewError(ErrInvalidInput, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}

	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return NewError(ErrInvalidInput, "role name cannot be blank")
	}
	return nil
}
