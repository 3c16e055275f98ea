package accesskit

import (
	"context"
	"slices"
	"sync"
)

// Context keys for accesskit values.
type contextKey string

const (
	contextKeyUserID       contextKey = "accesskit:user_id"
	contextKeyActorID      contextKey = "accesskit:actor_id"
	contextKeyRequestID    contextKey = "accesskit:request_id"
	contextKeyAccessible   contextKey = "accesskit:accessible_users"
	contextKeyRequestScope contextKey = "accesskit:request_scope"
	contextKeyChecker      contextKey = "accesskit:checker"
)

// WithUserID adds a user ID to the context.
// This is the user being checked for permissions.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKeyUserID, userID)
}

// GetUserID retrieves the user ID from context.
// Returns empty string if not set.
func GetUserID(ctx context.Context) string {
	if v := ctx.Value(contextKeyUserID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// WithActorID adds an actor ID to the context.
// This is the user performing an administrative action, reported in events.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, contextKeyActorID, actorID)
}

// GetActorID retrieves the actor ID from context.
// Falls back to user ID if actor ID is not explicitly set.
func GetActorID(ctx context.Context) string {
	if v := ctx.Value(contextKeyActorID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return GetUserID(ctx)
}

// WithRequestID adds a request ID to the context (for event correlation).
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// GetRequestID retrieves the request ID from context.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(contextKeyRequestID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// WithAccessibleUsers stores the actor's accessible set in context.
// Set by Middleware.LoadAccessibleUsers for list handlers.
func WithAccessibleUsers(ctx context.Context, ids UserIDSet) context.Context {
	return context.WithValue(ctx, contextKeyAccessible, ids)
}

// GetAccessibleUsers retrieves the accessible set from context, or nil.
func GetAccessibleUsers(ctx context.Context) UserIDSet {
	if v := ctx.Value(contextKeyAccessible); v != nil {
		if s, ok := v.(UserIDSet); ok {
			return s
		}
	}
	return nil
}

// WithChecker adds a Checker to the context.
func WithChecker(ctx context.Context, checker *Checker) context.Context {
	return context.WithValue(ctx, contextKeyChecker, checker)
}

// FromContext retrieves the Checker from context.
// Returns nil if not set; a nil Checker denies everything.
//
// Example:
//
//	checker := accesskit.FromContext(r.Context())
//	if checker.Can("tasks", "update") {
//	    // ...
//	}
func FromContext(ctx context.Context) *Checker {
	if v := ctx.Value(contextKeyChecker); v != nil {
		if c, ok := v.(*Checker); ok {
			return c
		}
	}
	return nil
}

// requestScope memoizes hierarchy lookups for the lifetime of one request.
type requestScope struct {
	mu           sync.Mutex
	users        map[string]*User
	subordinates map[string][]User
}

// WithRequestScope enables memoization of hierarchy walks for everything
// that runs under the returned context. Nothing memoized outlives it, so
// role and hierarchy edits are visible to the next request.
func WithRequestScope(ctx context.Context) context.Context {
	if getRequestScope(ctx) != nil {
		return ctx
	}
	return context.WithValue(ctx, contextKeyRequestScope, &requestScope{
		users:        make(map[string]*User),
		subordinates: make(map[string][]User),
	})
}

func getRequestScope(ctx context.Context) *requestScope {
	if v := ctx.Value(contextKeyRequestScope); v != nil {
		if rs, ok := v.(*requestScope); ok {
			return rs
		}
	}
	return nil
}

// The scope hands out copies so callers cannot change what later lookups
// in the same request see.
func (rs *requestScope) user(id string) (*User, bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	u, ok := rs.users[id]
	if !ok {
		return nil, false
	}
	c := copyUser(*u)
	return &c, true
}

func (rs *requestScope) storeUser(u *User) {
	c := copyUser(*u)
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.users[c.ID] = &c
}

func (rs *requestScope) subordinatesOf(managerID string) ([]User, bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	subs, ok := rs.subordinates[managerID]
	if !ok {
		return nil, false
	}
	return copyUsers(subs), true
}

func (rs *requestScope) storeSubordinates(managerID string, subs []User) {
	c := copyUsers(subs)
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.subordinates[managerID] = c
}

func copyUsers(users []User) []User {
	out := slices.Clone(users)
	for i := range out {
		out[i] = copyUser(out[i])
	}
	return out
}
