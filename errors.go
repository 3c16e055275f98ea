package accesskit

import (
	"errors"
	"fmt"
)

// Sentinel errors for accesskit operations.
var (
	// ErrAlreadyExists is returned when a catalog entry, role name or link already exists.
	// Callers should treat it as "use the existing one".
	ErrAlreadyExists = errors.New("accesskit: already exists")

	// ErrNotFound is returned when a referenced role, permission or user does not exist.
	ErrNotFound = errors.New("accesskit: not found")

	// ErrInvalidLevel is returned when a role update carries a level outside 0..5.
	ErrInvalidLevel = errors.New("accesskit: invalid permission level")

	// ErrCycleDetected is returned when a manager chain loops or exceeds the depth bound.
	ErrCycleDetected = errors.New("accesskit: manager cycle detected")

	// ErrInvalidPermission is returned when a module or action identifier is malformed.
	ErrInvalidPermission = errors.New("accesskit: invalid permission")

	// ErrInvalidInput is returned when an administrative request is malformed.
	ErrInvalidInput = errors.New("accesskit: invalid input")

	// ErrUnauthorized is returned by middleware when a check denies the request.
	ErrUnauthorized = errors.New("accesskit: unauthorized")

	// ErrNoUserID is returned when user ID is not found in context.
	ErrNoUserID = errors.New("accesskit: no user ID in context")

	// ErrDatabaseError is returned when a database operation fails.
	ErrDatabaseError = errors.New("accesskit: database error")
)

// Error wraps a sentinel error with additional context.
type Error struct {
	Err     error  // Underlying sentinel error
	Message string // Additional context
	Module  string // Module involved (if applicable)
	Action  string // Action involved (if applicable)
	Role    string // Role involved (if applicable)
	UserID  string // User involved (if applicable)
	ActorID string // Actor who triggered the error (if applicable)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a target error.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new Error with context.
func NewError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}

// WithModule adds module and action information to the error.
func (e *Error) WithModule(module, action string) *Error {
	e.Module = module
	e.Action = action
	return e
}

// WithRole adds role information to the error.
func (e *Error) WithRole(role string) *Error {
	e.Role = role
	return e
}

// WithUser adds user information to the error.
func (e *Error) WithUser(userID string) *Error {
	e.UserID = userID
	return e
}

// WithActor adds actor information to the error.
func (e *Error) WithActor(actorID string) *Error {
	e.ActorID = actorID
	return e
}

// IsAlreadyExists checks if an error reports a duplicate definition or link.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsNotFound checks if an error reports a missing role, permission or user.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidLevel checks if an error reports an out-of-range permission level.
func IsInvalidLevel(err error) bool {
	return errors.Is(err, ErrInvalidLevel)
}

// IsCycleDetected checks if an error reports a manager cycle or exceeded depth.
func IsCycleDetected(err error) bool {
	return errors.Is(err, ErrCycleDetected)
}

// IsNoUserID checks if an error reports a missing user ID.
func IsNoUserID(err error) bool {
	return errors.Is(err, ErrNoUserID)
}

// IsUnauthorized checks if an error is an authorization error.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
