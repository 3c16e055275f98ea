package accesskit

import (
	"context"
	"time"

	"github.com/fernandezvara/dbkit"
)

// Transaction executes fn within a backend transaction with automatic
// commit/rollback. If fn returns an error the transaction is rolled back.
// Backends without transaction support run fn directly.
//
// Example:
//
//	err := service.Transaction(ctx, func(ctx context.Context) error {
//	    role, err := service.Roles.Create(ctx, "Auditor", "", false)
//	    if err != nil {
//	        return err // This will cause a rollback
//	    }
//	    return service.Assignments.AssignRoleToUser(ctx, userID, role.ID, "")
//	})
func (s *Service) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, ok := s.store.(Transactor)
	if !ok {
		return fn(ctx)
	}
	return s.observeTransaction(func() error { return tx.Transaction(ctx, fn) })
}

// TransactionWithOptions executes fn within a transaction with custom options
// such as a read-only flag or a stricter isolation level. Nested calls run in
// a savepoint and keep the outer options. Backends that cannot honor options
// fall back to Transaction.
//
// Example:
//
//	err := service.TransactionWithOptions(ctx, dbkit.SerializableTxOptions(), func(ctx context.Context) error {
//	    return service.Assignments.AssignPermissionsToRole(ctx, roleID, permissionIDs)
//	})
func (s *Service) TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn func(ctx context.Context) error) error {
	tx, ok := s.store.(OptionsTransactor)
	if !ok {
		return s.Transaction(ctx, fn)
	}
	return s.observeTransaction(func() error { return tx.TransactionWithOptions(ctx, opts, fn) })
}

// ReadOnlyTransaction executes fn within a read-only transaction, so every
// read sees one consistent snapshot.
//
// Example:
//
//	err := service.ReadOnlyTransaction(ctx, func(ctx context.Context) error {
//	    var err error
//	    links, err = service.Assignments.GetRolesByUser(ctx, userID)
//	    if err != nil {
//	        return err
//	    }
//	    perms, err = service.Assignments.GetUserPermissions(ctx, userID)
//	    return err
//	})
func (s *Service) ReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.TransactionWithOptions(ctx, dbkit.ReadOnlyTxOptions(), fn)
}

func (s *Service) observeTransaction(run func() error) error {
	start := time.Now()
	err := run()
	s.opts.metrics.observeTransaction(time.Since(start), err)
	if err != nil {
		s.opts.logger.WithError(err).Debug("transaction rolled back")
	}
	return err
}
