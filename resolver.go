package accesskit

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DecisionPath names the grant mechanism that produced a decision.
type DecisionPath string

const (
	PathLevel DecisionPath = "level"
	PathGrant DecisionPath = "grant"
	PathNone  DecisionPath = "none"
)

// Decision is the outcome of a permission check with its explanation.
// HasRequired is false when the action has no level mapping; Err holds the
// store failure that forced a denial, if any.
type Decision struct {
	Allowed      bool
	Path         DecisionPath
	Required     Level
	HasRequired  bool
	Effective    Level
	MatchedRoles []string
	Reason       string
	Err          error
}

// PermissionResolver decides whether a user may act on a module.
// Every entry point is fail-closed: missing users, missing roles and store
// failures all deny.
type PermissionResolver struct {
	roles RoleRepository
	links AssignmentRepository
	perms PermissionRepository
	users UserDirectory // optional
	opts  *options
}

// NewPermissionResolver creates a resolver. users may be nil; when set,
// unknown and inactive users are denied before roles are consulted.
func NewPermissionResolver(roles RoleRepository, links AssignmentRepository, perms PermissionRepository, users UserDirectory, opts ...Option) *PermissionResolver {
	return newPermissionResolver(roles, links, perms, users, buildOptions(opts))
}

func newPermissionResolver(roles RoleRepository, links AssignmentRepository, perms PermissionRepository, users UserDirectory, o *options) *PermissionResolver {
	return &PermissionResolver{roles: roles, links: links, perms: perms, users: users, opts: o}
}

// Actions returns the action table used to map actions to levels.
func (r *PermissionResolver) Actions() *ActionTable {
	return r.opts.actions
}

// CheckPermission reports whether userID may perform action on module.
// Levels are consulted first; discrete grants are the fallback.
//
// Example:
//
//	if !resolver.CheckPermission(ctx, userID, "tasks", "delete") {
//	    return accesskit.ErrUnauthorized
//	}
func (r *PermissionResolver) CheckPermission(ctx context.Context, userID, module, action string) bool {
	return r.Explain(ctx, userID, module, action).Allowed
}

// Explain evaluates CheckPermission and reports how the decision was reached.
func (r *PermissionResolver) Explain(ctx context.Context, userID, module, action string) Decision {
	ctx, span := tracer.Start(ctx, "accesskit.CheckPermission", trace.WithAttributes(
		attribute.String("accesskit.user_id", userID),
		attribute.String("accesskit.module", module),
		attribute.String("accesskit.action", action),
	))
	defer span.End()

	d := r.explain(ctx, userID, module, action)
	if d.Err != nil {
		span.RecordError(d.Err)
		span.SetStatus(codes.Error, d.Err.Error())
		r.denyOnError("check_permission", userID, d.Err, logrus.Fields{"module": module, "action": action})
	}
	span.SetAttributes(attribute.Bool("accesskit.allowed", d.Allowed), attribute.String("accesskit.path", string(d.Path)))
	r.opts.metrics.observeDecision("check_permission", d.Allowed)
	r.opts.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"module":  module,
		"action":  action,
		"allowed": d.Allowed,
		"path":    d.Path,
	}).Debug("permission check")
	return d
}

func (r *PermissionResolver) explain(ctx context.Context, userID, module, action string) Decision {
	d := Decision{Path: PathNone}
	d.Required, d.HasRequired = r.opts.actions.Required(module, action)

	roles, err := r.resolveRoles(ctx, userID)
	if err != nil {
		d.Err = err
		d.Reason = "role resolution failed"
		return d
	}
	if len(roles) == 0 {
		d.Reason = "no roles assigned"
		return d
	}

	for _, role := range roles {
		l := role.ModuleLevels.Get(module)
		if l > d.Effective {
			d.Effective = l
		}
		if d.HasRequired && l >= d.Required {
			d.MatchedRoles = append(d.MatchedRoles, role.Name)
		}
	}
	if len(d.MatchedRoles) > 0 {
		d.Allowed = true
		d.Path = PathLevel
		d.Reason = fmt.Sprintf("level %s meets required %s", d.Effective, d.Required)
		return d
	}

	for _, role := range roles {
		grants, err := r.grantsOf(ctx, role)
		if err != nil {
			d.Err = err
			d.Reason = "grant resolution failed"
			return d
		}
		if grants.Allows(module, action) {
			d.MatchedRoles = append(d.MatchedRoles, role.Name)
		}
	}
	if len(d.MatchedRoles) > 0 {
		d.Allowed = true
		d.Path = PathGrant
		d.Reason = "granted " + NewPermissionKey(module, action).String()
		return d
	}

	if d.HasRequired {
		d.Reason = fmt.Sprintf("level %s below required %s and no discrete grant", d.Effective, d.Required)
	} else {
		d.Reason = "action has no level mapping and no discrete grant"
	}
	return d
}

// HasMinimumLevel reports whether the most permissive of the user's roles
// holds at least required on module. A role without an entry counts as NONE.
func (r *PermissionResolver) HasMinimumLevel(ctx context.Context, userID, module string, required Level) bool {
	ctx, span := tracer.Start(ctx, "accesskit.HasMinimumLevel", trace.WithAttributes(
		attribute.String("accesskit.user_id", userID),
		attribute.String("accesskit.module", module),
		attribute.Int("accesskit.required", int(required)),
	))
	defer span.End()

	allowed := false
	if required.Valid() {
		roles, err := r.resolveRoles(ctx, userID)
		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			r.denyOnError("has_minimum_level", userID, err, logrus.Fields{"module": module, "required": required})
		case len(roles) > 0:
			allowed = maxLevel(roles, module) >= required
		}
	}

	span.SetAttributes(attribute.Bool("accesskit.allowed", allowed))
	r.opts.metrics.observeDecision("has_minimum_level", allowed)
	return allowed
}

// EffectiveLevel returns the maximum level the user holds on module.
// Unlike the boolean checks it reports store failures to the caller.
func (r *PermissionResolver) EffectiveLevel(ctx context.Context, userID, module string) (Level, error) {
	roles, err := r.resolveRoles(ctx, userID)
	if err != nil {
		return LevelNone, err
	}
	return maxLevel(roles, module), nil
}

func maxLevel(roles []Role, module string) Level {
	best := LevelNone
	for _, role := range roles {
		if l := role.ModuleLevels.Get(module); l > best {
			best = l
		}
	}
	return best
}

// resolveRoles loads the roles assigned to userID. Orphaned links are
// skipped. A nil error with no roles means "deny".
func (r *PermissionResolver) resolveRoles(ctx context.Context, userID string) ([]Role, error) {
	if userID == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if r.users != nil {
		u, err := r.users.GetUser(ctx, userID)
		if err != nil {
			if IsNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		if !u.IsActive {
			return nil, nil
		}
	}

	links, err := r.links.ListUserRoles(ctx, userID)
	if err != nil {
		return nil, err
	}

	roles := make([]Role, 0, len(links))
	seen := make(map[string]bool, len(links))
	for _, link := range links {
		if seen[link.RoleID] {
			continue
		}
		seen[link.RoleID] = true

		role, err := r.roles.GetRole(ctx, link.RoleID)
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

// grantsOf resolves the discrete grant set of a role. Links to deleted
// permissions grant nothing.
func (r *PermissionResolver) grantsOf(ctx context.Context, role Role) (Grants, error) {
	g := Grants{Levels: role.ModuleLevels}
	links, err := r.links.ListRolePermissions(ctx, role.ID)
	if err != nil {
		return g, err
	}
	if len(links) == 0 {
		return g, nil
	}
	ids := make([]string, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.PermissionID)
	}
	perms, err := r.perms.GetPermissionsByIDs(ctx, ids)
	if err != nil {
		return g, err
	}
	g.Actions = KeySet(perms)
	return g, nil
}

func (r *PermissionResolver) denyOnError(check, userID string, err error, fields logrus.Fields) {
	r.opts.metrics.observeError(check)
	r.opts.logger.WithFields(fields).WithFields(logrus.Fields{
		"check":   check,
		"user_id": userID,
	}).WithError(err).Warn("authorization denied after store failure")
}
