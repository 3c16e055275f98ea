package accesskit

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// HierarchyIndex answers ancestor and descendant queries over User.ManagerID.
// It keeps no state between calls; wrap the request context with
// WithRequestScope to memoize lookups within a single request.
//
// ManagerID is ordinary writable data, so every walk carries a visited set
// and a depth bound (Config.MaxHierarchyDepth).
type HierarchyIndex struct {
	users UserDirectory
	opts  *options
}

// NewHierarchyIndex creates a HierarchyIndex over users.
func NewHierarchyIndex(users UserDirectory, opts ...Option) *HierarchyIndex {
	return newHierarchyIndex(users, buildOptions(opts))
}

func newHierarchyIndex(users UserDirectory, o *options) *HierarchyIndex {
	return &HierarchyIndex{users: users, opts: o}
}

// IsSubordinate reports whether managerID appears in userID's manager chain.
// A user is never their own subordinate. Cycles, an exceeded depth bound and
// lookup failures all answer false.
func (h *HierarchyIndex) IsSubordinate(ctx context.Context, managerID, userID string) bool {
	if managerID == "" || userID == "" || managerID == userID {
		return false
	}
	ctx, span := tracer.Start(ctx, "accesskit.IsSubordinate", trace.WithAttributes(
		attribute.String("accesskit.manager_id", managerID),
		attribute.String("accesskit.user_id", userID),
	))
	defer span.End()

	_, found, err := h.walkUp(ctx, userID, func(id string) bool { return id == managerID })
	if err != nil && !found {
		h.warn(userID, err)
	}
	return found
}

// ManagerChain returns userID's managers, nearest first. On a cycle the
// chain walked so far is returned with ErrCycleDetected.
func (h *HierarchyIndex) ManagerChain(ctx context.Context, userID string) ([]string, error) {
	chain, _, err := h.walkUp(ctx, userID, nil)
	return chain, err
}

// walkUp follows ManagerID links upward from userID until stop matches, the
// chain ends, a node repeats, or the depth bound is exceeded.
func (h *HierarchyIndex) walkUp(ctx context.Context, userID string, stop func(string) bool) ([]string, bool, error) {
	u, err := h.getUser(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	var chain []string
	visited := map[string]bool{userID: true}
	maxDepth := h.opts.config.MaxHierarchyDepth
	steps := 0
	defer func() { h.opts.metrics.observeDepth(steps) }()

	for current := u.Manager(); current != ""; {
		steps++
		if steps > maxDepth {
			return chain, false, NewError(ErrCycleDetected, fmt.Sprintf("manager chain exceeds %d steps", maxDepth)).WithUser(userID)
		}
		if visited[current] {
			return chain, false, NewError(ErrCycleDetected, fmt.Sprintf("user %s revisited", current)).WithUser(userID)
		}
		visited[current] = true
		chain = append(chain, current)
		if stop != nil && stop(current) {
			return chain, true, nil
		}

		manager, err := h.getUser(ctx, current)
		if err != nil {
			if IsNotFound(err) {
				// dangling reference ends the chain
				break
			}
			return chain, false, err
		}
		current = manager.Manager()
	}
	return chain, false, nil
}

// GetAllSubordinates returns every user whose manager chain reaches
// managerID, expanding one reporting level at a time.
func (h *HierarchyIndex) GetAllSubordinates(ctx context.Context, managerID string) ([]User, error) {
	if managerID == "" {
		return nil, nil
	}
	rs := getRequestScope(ctx)
	if rs != nil {
		if subs, ok := rs.subordinatesOf(managerID); ok {
			return subs, nil
		}
	}

	ctx, span := tracer.Start(ctx, "accesskit.GetAllSubordinates", trace.WithAttributes(
		attribute.String("accesskit.manager_id", managerID),
	))
	defer span.End()

	var out []User
	visited := map[string]bool{managerID: true}
	frontier := []string{managerID}
	maxDepth := h.opts.config.MaxHierarchyDepth
	depth := 0

	for len(frontier) > 0 {
		if depth >= maxDepth {
			h.warn(managerID, NewError(ErrCycleDetected, fmt.Sprintf("subordinate expansion exceeds %d levels", maxDepth)))
			break
		}
		depth++

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		reports, err := h.users.ListDirectReports(ctx, frontier)
		if err != nil {
			return nil, err
		}

		var next []string
		for _, u := range reports {
			if visited[u.ID] {
				h.warn(managerID, NewError(ErrCycleDetected, fmt.Sprintf("user %s revisited", u.ID)))
				continue
			}
			visited[u.ID] = true
			out = append(out, u)
			next = append(next, u.ID)
		}
		frontier = next
	}
	h.opts.metrics.observeDepth(depth)

	if rs != nil {
		rs.storeSubordinates(managerID, out)
	}
	span.SetAttributes(attribute.Int("accesskit.subordinates", len(out)))
	return out, nil
}

// GetAccessibleUserIDs returns userID plus all of their transitive
// subordinates. If the expansion fails the set holds only userID and the
// error is returned alongside it.
//
// Example:
//
//	ids, _ := hierarchy.GetAccessibleUserIDs(ctx, actorID)
//	visible := accesskit.FilterByHierarchicalAccess(actorID, tasks, ids)
func (h *HierarchyIndex) GetAccessibleUserIDs(ctx context.Context, userID string) (UserIDSet, error) {
	ids := NewUserIDSet(userID)
	subs, err := h.GetAllSubordinates(ctx, userID)
	if err != nil {
		h.opts.metrics.observeError("accessible_user_ids")
		h.opts.logger.WithFields(logrus.Fields{"user_id": userID}).WithError(err).
			Warn("subordinate expansion failed, restricting to self")
		return ids, err
	}
	for _, u := range subs {
		ids.Add(u.ID)
	}
	return ids, nil
}

func (h *HierarchyIndex) getUser(ctx context.Context, id string) (*User, error) {
	rs := getRequestScope(ctx)
	if rs != nil {
		if u, ok := rs.user(id); ok {
			return u, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u, err := h.users.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if rs != nil {
		rs.storeUser(u)
	}
	return u, nil
}

func (h *HierarchyIndex) warn(userID string, err error) {
	if IsCycleDetected(err) {
		h.opts.metrics.observeCycle()
		h.opts.logger.WithFields(logrus.Fields{"user_id": userID}).WithError(err).
			Warn("manager hierarchy integrity problem")
		return
	}
	h.opts.metrics.observeError("is_subordinate")
	h.opts.logger.WithFields(logrus.Fields{"user_id": userID}).WithError(err).
		Warn("hierarchy lookup failed")
}
