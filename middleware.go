package accesskit

import (
	"net/http"

	"github.com/google/uuid"
)

// Middleware provides HTTP middleware for permission and level checking.
type Middleware struct {
	service      *Service
	getUserID    func(*http.Request) string
	errorHandler func(http.ResponseWriter, *http.Request, error)
}

// MiddlewareOption configures the Middleware.
type MiddlewareOption func(*Middleware)

// NewMiddleware creates a new Middleware instance.
//
// Example:
//
//	mw := accesskit.NewMiddleware(service,
//	    accesskit.WithUserIDExtractor(func(r *http.Request) string {
//	        return r.Header.Get("X-User-ID")
//	    }),
//	)
func NewMiddleware(service *Service, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		service:      service,
		getUserID:    defaultGetUserID,
		errorHandler: defaultErrorHandler,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// WithUserIDExtractor sets a custom function to extract user ID from request.
func WithUserIDExtractor(fn func(*http.Request) string) MiddlewareOption {
	return func(m *Middleware) {
		m.getUserID = fn
	}
}

// WithErrorHandler sets a custom error handler for middleware.
func WithErrorHandler(fn func(http.ResponseWriter, *http.Request, error)) MiddlewareOption {
	return func(m *Middleware) {
		m.errorHandler = fn
	}
}

func defaultGetUserID(r *http.Request) string {
	return GetUserID(r.Context())
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case IsUnauthorized(err):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case IsNoUserID(err):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	case IsInvalidLevel(err):
		http.Error(w, "Bad Request", http.StatusBadRequest)
	default:
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// RequirePermission creates middleware that requires action on module.
//
// Example:
//
//	mux.Handle("DELETE /tasks/{id}", mw.RequirePermission("tasks", "delete")(deleteTaskHandler))
func (m *Middleware) RequirePermission(module, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := m.getUserID(r)
			if userID == "" {
				m.errorHandler(w, r, ErrNoUserID)
				return
			}

			if !m.service.CheckPermission(r.Context(), userID, module, action) {
				m.errorHandler(w, r, NewError(ErrUnauthorized, "missing required permission").
					WithModule(module, action).
					WithUser(userID))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireLevel creates middleware that requires at least level on module.
//
// Example:
//
//	mux.Handle("GET /reports", mw.RequireLevel("reports", accesskit.LevelRead)(reportsHandler))
func (m *Middleware) RequireLevel(module string, level Level) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !level.Valid() {
				m.errorHandler(w, r, NewError(ErrInvalidLevel, level.String()).WithModule(module, ""))
				return
			}

			userID := m.getUserID(r)
			if userID == "" {
				m.errorHandler(w, r, ErrNoUserID)
				return
			}

			if !m.service.HasMinimumLevel(r.Context(), userID, module, level) {
				m.errorHandler(w, r, NewError(ErrUnauthorized, "level "+level.String()+" required").
					WithModule(module, "").
					WithUser(userID))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LoadChecker creates middleware that loads the user's Checker into context.
// Use this when you want to do permission checks in the handler rather than middleware.
//
// Example:
//
//	mux.Handle("GET /dashboard", mw.LoadChecker()(dashboardHandler))
//
//	func dashboardHandler(w http.ResponseWriter, r *http.Request) {
//	    checker := accesskit.FromContext(r.Context())
//	    if checker.HasMinimumLevel("reports", accesskit.LevelAdmin) {
//	        // Show admin features
//	    }
//	}
func (m *Middleware) LoadChecker() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := m.getUserID(r)
			if userID == "" {
				// No user, continue without checker
				next.ServeHTTP(w, r)
				return
			}

			checker, err := m.service.GetChecker(ctx, userID)
			if err != nil {
				m.service.opts.logger.WithField("user_id", userID).WithError(err).
					Warn("checker load failed, continuing without one")
				next.ServeHTTP(w, r)
				return
			}

			ctx = WithChecker(ctx, checker)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoadAccessibleUsers creates middleware that stores the caller's accessible
// user set in context for list handlers. If the hierarchy cannot be expanded
// the set holds only the caller.
//
// Example:
//
//	mux.Handle("GET /tasks", mw.LoadAccessibleUsers()(listTasksHandler))
//
//	func listTasksHandler(w http.ResponseWriter, r *http.Request) {
//	    ids := accesskit.GetAccessibleUsers(r.Context())
//	    tasks = accesskit.FilterByHierarchicalAccess(userID, tasks, ids)
//	}
func (m *Middleware) LoadAccessibleUsers() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := m.getUserID(r)
			if userID == "" {
				// No user, continue without a set
				next.ServeHTTP(w, r)
				return
			}

			ids, _ := m.service.GetAccessibleUserIDs(ctx, userID)
			ctx = WithAccessibleUsers(ctx, ids)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// InjectRequestContext creates middleware that prepares the request context:
// a request scope for hierarchy memoization, the request ID for event
// correlation, and the actor/user IDs when a user is known.
//
// Example:
//
//	handler := mw.InjectRequestContext()(mux)
func (m *Middleware) InjectRequestContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithRequestScope(r.Context())

			// Extract Request ID (commonly set by other middleware)
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			ctx = WithRequestID(ctx, requestID)

			// Set actor ID from user ID if available
			userID := m.getUserID(r)
			if userID != "" {
				ctx = WithActorID(ctx, userID)
				ctx = WithUserID(ctx, userID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
