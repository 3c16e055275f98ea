package accesskit

import "context"

// ============================================================================
// PERMISSION CHECKING
// ============================================================================

// CheckPermission reports whether userID may perform action on module.
//
// Example:
//
//	if service.CheckPermission(ctx, userID, "tasks", "delete") {
//	    // User can delete tasks
//	}
func (s *Service) CheckPermission(ctx context.Context, userID, module, action string) bool {
	return s.Resolver.CheckPermission(ctx, userID, module, action)
}

// HasMinimumLevel reports whether userID holds at least required on module.
//
// Example:
//
//	if service.HasMinimumLevel(ctx, userID, "tasks", accesskit.LevelWrite) {
//	    // show the edit button
//	}
func (s *Service) HasMinimumLevel(ctx context.Context, userID, module string, required Level) bool {
	return s.Resolver.HasMinimumLevel(ctx, userID, module, required)
}

// Explain returns the decision CheckPermission would make, with its reason.
func (s *Service) Explain(ctx context.Context, userID, module, action string) Decision {
	return s.Resolver.Explain(ctx, userID, module, action)
}

// EffectiveLevel returns the highest level userID holds on module.
func (s *Service) EffectiveLevel(ctx context.Context, userID, module string) (Level, error) {
	return s.Resolver.EffectiveLevel(ctx, userID, module)
}

// GetChecker loads a request-lifetime Checker for userID.
func (s *Service) GetChecker(ctx context.Context, userID string) (*Checker, error) {
	return s.Resolver.GetChecker(ctx, userID)
}

// GetCheckerFromContext creates a Checker using the user ID from context.
func (s *Service) GetCheckerFromContext(ctx context.Context) (*Checker, error) {
	userID := GetUserID(ctx)
	if userID == "" {
		return nil, ErrNoUserID
	}
	return s.GetChecker(ctx, userID)
}

// ============================================================================
// HIERARCHICAL QUERIES
// ============================================================================

// GetAccessibleUserIDs returns userID plus every transitive subordinate.
//
// Example:
//
//	ids, _ := service.GetAccessibleUserIDs(ctx, actorID)
//	visible := accesskit.FilterByHierarchicalAccess(actorID, tasks, ids)
func (s *Service) GetAccessibleUserIDs(ctx context.Context, userID string) (UserIDSet, error) {
	return s.Hierarchy.GetAccessibleUserIDs(ctx, userID)
}

// IsSubordinate reports whether managerID is above userID in the reporting tree.
func (s *Service) IsSubordinate(ctx context.Context, managerID, userID string) bool {
	return s.Hierarchy.IsSubordinate(ctx, managerID, userID)
}

// GetAllSubordinates returns every user below managerID.
func (s *Service) GetAllSubordinates(ctx context.Context, managerID string) ([]User, error) {
	return s.Hierarchy.GetAllSubordinates(ctx, managerID)
}
