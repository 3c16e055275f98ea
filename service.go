package accesskit

import (
	"github.com/fernandezvara/dbkit"
)

// Service wires every accesskit component over a single Store.
//
// The administrative components are exposed as fields; the hot-path checks
// (CheckPermission, HasMinimumLevel, GetAccessibleUserIDs) are methods.
// Components share one set of options, so a logger, metrics registerer or
// event sink given here applies everywhere.
//
// Error Handling:
// Administrative operations return sentinel errors wrapped in *Error.
// On the bun backend, database failures keep dbkit's operation context.
//
//	_, err := service.Roles.Create(ctx, "Manager", "", false)
//	if accesskit.IsAlreadyExists(err) {
//	    // pick the existing role
//	}
//
//	var dbErr *dbkit.Error
//	if errors.As(err, &dbErr) {
//	    fmt.Printf("Operation: %s, Table: %s\n", dbErr.Operation, dbErr.Table)
//	}
type Service struct {
	Catalog     *PermissionCatalog
	Roles       *RoleStore
	Assignments *AssignmentStore
	Resolver    *PermissionResolver
	Hierarchy   *HierarchyIndex

	store Store
	opts  *options
}

// NewService creates a Service backed by PostgreSQL through dbkit.
//
// Example:
//
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	if _, err := db.Migrate(ctx, accesskit.Migrations()); err != nil {
//	    log.Fatal(err)
//	}
//	service := accesskit.NewService(db,
//	    accesskit.WithLogger(logger),
//	    accesskit.WithMetricsRegisterer(prometheus.DefaultRegisterer),
//	)
func NewService(db dbkit.IDB, opts ...Option) *Service {
	return New(NewBunStore(db), opts...)
}

// New creates a Service over any Store.
//
// Example:
//
//	store := accesskit.NewMemoryStore()
//	service := accesskit.New(store)
func New(store Store, opts ...Option) *Service {
	o := buildOptions(opts)
	return &Service{
		Catalog:     newPermissionCatalog(store, o),
		Roles:       newRoleStore(store, o),
		Assignments: newAssignmentStore(store, store, store, store, o),
		Resolver:    newPermissionResolver(store, store, store, store, o),
		Hierarchy:   newHierarchyIndex(store, o),
		store:       store,
		opts:        o,
	}
}

// Store returns the backend the service was built on.
func (s *Service) Store() Store {
	return s.store
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.opts.config
}

// Metrics returns the collectors shared by the service's components.
func (s *Service) Metrics() *Metrics {
	return s.opts.metrics
}
