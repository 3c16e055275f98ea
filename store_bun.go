package accesskit

import (
	"context"
	"fmt"

	"github.com/fernandezvara/dbkit"
	"github.com/uptrace/bun"
)

// BunStore implements Store on PostgreSQL through dbkit.
//
// Errors are wrapped with dbkit's chainable error helpers so they keep the
// operation name. Unique violations map to ErrAlreadyExists and missing rows
// to ErrNotFound; everything else is returned as dbkit reported it.
//
// Example:
//
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	store := accesskit.NewBunStore(db)
//	if _, err := db.Migrate(ctx, accesskit.Migrations()); err != nil {
//	    log.Fatal(err)
//	}
type BunStore struct {
	db dbkit.IDB
}

// NewBunStore creates a store over db, which may be a *dbkit.DBKit or a *dbkit.Tx.
func NewBunStore(db dbkit.IDB) *BunStore {
	return &BunStore{db: db}
}

type txKey struct{}

// conn returns the transaction bound to ctx, or the store's database.
func (s *BunStore) conn(ctx context.Context) dbkit.IDB {
	if tx, ok := ctx.Value(txKey{}).(*dbkit.Tx); ok {
		return tx
	}
	return s.db
}

// mapErr turns dbkit classifications into accesskit sentinels.
func mapErr(err error, op string) error {
	if err == nil {
		return nil
	}
	switch {
	case dbkit.IsDuplicate(err):
		return NewError(ErrAlreadyExists, fmt.Sprintf("%s: %v", op, err))
	case dbkit.IsNotFound(err):
		return NewError(ErrNotFound, op)
	}
	return err
}

// ============================================================================
// PERMISSIONS
// ============================================================================

func (s *BunStore) InsertPermission(ctx context.Context, p *Permission) error {
	result, err := s.conn(ctx).NewInsert().Model(p).Returning("*").Exec(ctx)
	err = dbkit.WithErr(result, err, "InsertPermission").Err()
	return mapErr(err, "InsertPermission")
}

func (s *BunStore) GetPermission(ctx context.Context, id string) (*Permission, error) {
	var p Permission
	err := dbkit.WithErr1(s.conn(ctx).NewSelect().Model(&p).Where("id = ?", id).Limit(1).Scan(ctx), "GetPermission").Err()
	if err != nil {
		return nil, mapErr(err, "GetPermission")
	}
	return &p, nil
}

func (s *BunStore) FindPermission(ctx context.Context, module, action string) (*Permission, error) {
	var p Permission
	err := dbkit.WithErr1(s.conn(ctx).NewSelect().Model(&p).Where("module = ? AND action = ?", module, action).Limit(1).Scan(ctx), "FindPermission").Err()
	if err != nil {
		return nil, mapErr(err, "FindPermission")
	}
	return &p, nil
}

func (s *BunStore) ListPermissions(ctx context.Context) ([]Permission, error) {
	var perms []Permission
	err := dbkit.WithErr1(s.conn(ctx).NewSelect().Model(&perms).Order("module ASC", "action ASC").Scan(ctx), "ListPermissions").Err()
	if err != nil {
		return nil, err
	}
	return perms, nil
}

func (s *BunStore) GetPermissionsByIDs(ctx context.Context, ids []string) ([]Permission, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var perms []Permission
	err := dbkit.WithErr1(s.conn(ctx).NewSelect().Model(&perms).Where("id IN (?)", bun.In(ids)).Scan(ctx), "GetPermissionsByIDs").Err()
	if err != nil {
		return nil, err
	}
	return perms, nil
}

func (s *BunStore) DeletePermission(ctx context.Context, id string) error {
	result, err := s.conn(ctx).NewDelete().Model((*Permission)(nil)).Where("id = ?", id).Exec(ctx)
	if err = dbkit.WithErr(result, err, "DeletePermission").Err(); err != nil {
		return err
	}
	return requireAffected(result.RowsAffected())
}

// ============================================================================
// ROLES
// ============================================================================

func (s *BunStore) InsertRole(ctx context.Context, r *Role) error {
	if r.ModuleLevels == nil {
		r.ModuleLevels = ModuleLevels{}
	}
	result, err := s.conn(ctx).NewInsert().Model(r).Returning("*").Exec(ctx)
	err = dbkit.WithErr(result, err, "InsertRole").Err()
	return mapErr(err, "InsertRole")
}

func (s *BunStore) GetRole(ctx context.Context, id string) (*Role, error) {
	var r Role
	err := dbkit.WithErr1(s.conn(ctx).NewSelect().Model(&r).Where("id = ?", id).Limit(1).Scan(ctx), "GetRole").Err()
	if err != nil {
		return nil, mapErr(err, "GetRole")
	}
	return &r, nil
}

func (s *BunStore) GetRoleByName(ctx context.Context, name string) (*Role, error) {
	var r Role
	err := dbkit.WithErr1(s.conn(ctx).NewSelect().Model(&r).Where("name = ?", name).Limit(1).Scan(ctx), "GetRoleByName").Err()
	if err != nil {
		return nil, mapErr(err, "GetRoleByName")
	}
	return &r, nil
}

func (s *BunStore) ListRoles(ctx context.Context) ([]Role, error) {
	var roles []Role
	err := dbkit.WithErr1(s.conn(ctx).NewSelect().Model(&roles).Order("name ASC").Scan(ctx), "ListRoles").Err()
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (s *BunStore) UpdateRole(ctx context.Context, r *Role) error {
	result, err := s.conn(ctx).NewUpdate().
		Model(r).
		Column("name", "description", "module_levels", "updated_at").
		WherePK().
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "UpdateRole").Err(); err != nil {
		return mapErr(err, "UpdateRole")
	}
	return requireAffected(result.RowsAffected())
}

func (s *BunStore) DeleteRole(ctx context.Context, id string) error {
	result, err := s.conn(ctx).NewDelete().Model((*Role)(nil)).Where("id = ?", id).Exec(ctx)
	if err = dbkit.WithErr(result, err, "DeleteRole").Err(); err != nil {
		return err
	}
	return requireAffected(result.RowsAffected())
}

// ============================================================================
// LINKS
// ============================================================================

func (s *BunStore) UpsertRolePermission(ctx context.Context, link *RolePermission) (bool, error) {
	result, err := s.conn(ctx).NewInsert().
		Model(link).
		On("CONFLICT (role_id, permission_id) DO NOTHING").
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "UpsertRolePermission").Err(); err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *BunStore) DeleteRolePermission(ctx context.Context, roleID, permissionID string) (bool, error) {
	result, err := s.conn(ctx).NewDelete().
		Model((*RolePermission)(nil)).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "DeleteRolePermission").Err(); err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *BunStore) ListRolePermissions(ctx context.Context, roleID string) ([]RolePermission, error) {
	var links []RolePermission
	err := dbkit.WithErr1(s.conn(ctx).NewSelect().Model(&links).Where("role_id = ?", roleID).Scan(ctx), "ListRolePermissions").Err()
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (s *BunStore) ListPermissionRoles(ctx context.Context, permissionID string) ([]RolePermission, error) {
	var links []RolePermission
	err := dbkit.WithErr1(s.conn(ctx).NewSelect().Model(&links).Where("permission_id = ?", permissionID).Scan(ctx), "ListPermissionRoles").Err()
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (s *BunStore) UpsertUserRole(ctx context.Context, link *UserRole) (bool, error) {
	result, err := s.conn(ctx).NewInsert().
		Model(link).
		On("CONFLICT (user_id, role_id) DO NOTHING").
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "UpsertUserRole").Err(); err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *BunStore) DeleteUserRole(ctx context.Context, userID, roleID string) (bool, error) {
	result, err := s.conn(ctx).NewDelete().
		Model((*UserRole)(nil)).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Exec(ctx)
	if err = dbkit.WithErr(result, err, "DeleteUserRole").Err(); err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *BunStore) ListUserRoles(ctx context.Context, userID string) ([]UserRole, error) {
	var links []UserRole
	err := dbkit.WithErr1(s.conn(ctx).NewSelect().Model(&links).Where("user_id = ?", userID).Order("assigned_at ASC").Scan(ctx), "ListUserRoles").Err()
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (s *BunStore) ListRoleUsers(ctx context.Context, roleID string) ([]UserRole, error) {
	var links []UserRole
	err := dbkit.WithErr1(s.conn(ctx).NewSelect().Model(&links).Where("role_id = ?", roleID).Order("assigned_at ASC").Scan(ctx), "ListRoleUsers").Err()
	if err != nil {
		return nil, err
	}
	return links, nil
}

// ============================================================================
// USERS (read only)
// ============================================================================

func (s *BunStore) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	err := dbkit.WithErr1(s.conn(ctx).NewSelect().Model(&u).Where("id = ?", id).Limit(1).Scan(ctx), "GetUser").Err()
	if err != nil {
		return nil, mapErr(err, "GetUser")
	}
	return &u, nil
}

func (s *BunStore) ListDirectReports(ctx context.Context, managerIDs []string) ([]User, error) {
	if len(managerIDs) == 0 {
		return nil, nil
	}
	var users []User
	err := dbkit.WithErr1(s.conn(ctx).NewSelect().Model(&users).Where("manager_id IN (?)", bun.In(managerIDs)).Order("id ASC").Scan(ctx), "ListDirectReports").Err()
	if err != nil {
		return nil, err
	}
	return users, nil
}

// ============================================================================
// TRANSACTIONS
// ============================================================================

// Transaction runs fn atomically. Store calls made with the context passed
// to fn use the transaction; nested calls become savepoints.
//
// Example:
//
//	err := store.Transaction(ctx, func(ctx context.Context) error {
//	    if _, err := store.UpsertUserRole(ctx, link1); err != nil {
//	        return err // rolls back
//	    }
//	    _, err := store.UpsertUserRole(ctx, link2)
//	    return err
//	})
func (s *BunStore) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.TransactionWithOptions(ctx, dbkit.DefaultTxOptions(), fn)
}

// TransactionWithOptions is Transaction with an explicit isolation level and
// read-only flag. Nested calls run in a savepoint of the outer transaction
// and keep its options.
func (s *BunStore) TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn func(ctx context.Context) error) error {
	run := func(tx *dbkit.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	}

	if tx, ok := ctx.Value(txKey{}).(*dbkit.Tx); ok {
		return tx.Transaction(ctx, run)
	}
	switch db := s.db.(type) {
	case *dbkit.Tx:
		return db.Transaction(ctx, run)
	case *dbkit.DBKit:
		return db.TransactionWithOptions(ctx, opts, run)
	}
	return NewError(ErrDatabaseError, "transaction support requires a dbkit.DBKit or dbkit.Tx instance")
}

// ============================================================================
// HEALTH
// ============================================================================

// Health reports the status of the database connection.
func (s *BunStore) Health(ctx context.Context) dbkit.HealthStatus {
	if db, ok := s.db.(*dbkit.DBKit); ok {
		return db.Health(ctx)
	}

	// inside a transaction: ping only
	status := dbkit.HealthStatus{Healthy: true}
	if err := s.Ping(ctx); err != nil {
		status.Healthy = false
		status.Error = err.Error()
	}
	return status
}

// Ping runs a trivial query against the database.
func (s *BunStore) Ping(ctx context.Context) error {
	var result int
	return s.conn(ctx).NewSelect().Model((*struct{})(nil)).ColumnExpr("1").Limit(1).Scan(ctx, &result)
}

// PoolStats returns connection pool statistics, or zero values inside a transaction.
func (s *BunStore) PoolStats() dbkit.PoolStats {
	if db, ok := s.db.(*dbkit.DBKit); ok {
		return dbkit.PoolStatsFromSQL(db.Stats())
	}
	return dbkit.PoolStats{}
}

func requireAffected(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
