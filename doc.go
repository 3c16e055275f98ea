// Package accesskit provides a hierarchical permission and access control engine.
//
// Access is granted two ways, and a request is allowed if either grants it:
//
//   - Module levels: each role carries a map of module name to an ordinal
//     level (NONE < READ < WRITE < FULL < ADMIN < SYSTEM). An action maps to
//     the level it requires through an ActionTable.
//   - Discrete grants: roles link to (module, action) entries in the
//     permission catalog. Grants cover actions no level can express.
//
// A user's effective level on a module is the highest level across their
// roles, so adding a role never removes access.
//
// Record visibility follows the reporting tree built from User.ManagerID.
// A manager sees records created by, assigned to or owned by anyone below
// them, except records marked private.
//
// # Core Concepts
//
// Permission: A catalog entry identified by (module, action), e.g. "tasks.delete".
// Identifiers use ASCII letters, digits, '_' and '-'.
//
// Role: A named bundle of module levels plus discrete grants.
//
// User: Owned by the host application. The engine only reads id, manager_id
// and is_active through the UserDirectory interface.
//
// # Fail-closed
//
// Every check denies on a store failure, an unknown or inactive user, or an
// invalid level. Failures are logged through logrus and counted in the
// decision_errors_total metric; callers only see false.
//
// # Basic Usage
//
//	db, _ := dbkit.New(dbkit.Config{URL: os.Getenv("DATABASE_URL")})
//	if _, err := db.Migrate(ctx, accesskit.Migrations()); err != nil {
//	    log.Fatal(err)
//	}
//	service := accesskit.NewService(db)
//
//	// catalog and roles are seeded by the host
//	manager, _ := service.Roles.Create(ctx, "Manager", "Team managers", false)
//	service.Roles.SetModuleLevel(ctx, manager.ID, "tasks", accesskit.LevelWrite)
//	service.Assignments.AssignRoleToUser(ctx, userID, manager.ID, "")
//
//	service.CheckPermission(ctx, userID, "tasks", "update") // true
//	service.CheckPermission(ctx, userID, "tasks", "delete") // false, needs FULL
//
//	ids, _ := service.GetAccessibleUserIDs(ctx, userID)
//	tasks = accesskit.FilterByHierarchicalAccess(userID, tasks, ids)
//
// Hosts without PostgreSQL can use New(NewMemoryStore()).
//
// # Middleware Usage
//
//	mw := accesskit.NewMiddleware(service)
//
//	handler := mw.InjectRequestContext()(mux)
//	mux.Handle("DELETE /tasks/{id}", mw.RequirePermission("tasks", "delete")(deleteTask))
//	mux.Handle("GET /tasks", mw.LoadAccessibleUsers()(listTasks))
//
// InjectRequestContext installs a request scope, so hierarchy lookups are
// memoized for the rest of the request.
//
// # Events
//
// Administrative changes (catalog entries, roles, assignments) are signaled
// to an optional EventSink registered with WithEventSink. Permission checks
// are not signaled.
package accesskit
