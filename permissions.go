package accesskit

import (
	"strings"
)

// PermissionKey is the immutable identity of a discrete permission.
type PermissionKey struct {
	Module string
	Action string
}

// NewPermissionKey creates a PermissionKey.
func NewPermissionKey(module, action string) PermissionKey {
	return PermissionKey{Module: module, Action: action}
}

// String returns the dotted form, e.g. "tasks.delete".
func (k PermissionKey) String() string {
	return k.Module + "." + k.Action
}

// ParsePermissionKey splits a dotted "module.action" string.
//
// Examples:
//
//	ParsePermissionKey("tasks.read")        // {tasks read}
//	ParsePermissionKey("crm_deals.export")  // {crm_deals export}
//	ParsePermissionKey("tasks")             // error - missing action
func ParsePermissionKey(s string) (PermissionKey, error) {
	module, action, ok := strings.Cut(s, ".")
	if !ok {
		return PermissionKey{}, NewError(ErrInvalidPermission, "permission must have the form module.action")
	}
	key := PermissionKey{Module: module, Action: action}
	if err := key.Validate(); err != nil {
		return PermissionKey{}, err
	}
	return key, nil
}

// Validate checks that module and action are non-empty identifiers.
func (k PermissionKey) Validate() error {
	if err := validateIdentifier("module", k.Module); err != nil {
		return err
	}
	return validateIdentifier("action", k.Action)
}

func validateIdentifier(kind, s string) error {
	if s == "" {
		return NewError(ErrInvalidPermission, kind+" cannot be empty")
	}
	for _, c := range s {
		if !isValidPermissionChar(c) {
			return NewError(ErrInvalidPermission, kind+" contains invalid character")
		}
	}
	return nil
}

func isValidPermissionChar(c rune) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '_' || c == '-'
}

// KeySet collects permission keys from a list of permissions.
func KeySet(perms []Permission) map[PermissionKey]struct{} {
	out := make(map[PermissionKey]struct{}, len(perms))
	for i := range perms {
		out[perms[i].Key()] = struct{}{}
	}
	return out
}
