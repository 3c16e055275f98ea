package accesskit

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStoreContract exercises the behavior every Store backend must share.
// Names and IDs are unique per run so it can share a database with other tests.
func testStoreContract(t *testing.T, store Store, putUser func(ctx context.Context, u *User) error) {
	ctx := context.Background()
	suffix := uuid.NewString()[:8]
	module := "contract_" + suffix
	missing := uuid.NewString()

	t.Run("Permissions", func(t *testing.T) {
		p := &Permission{Module: module, Action: "read", Description: "Read"}
		require.NoError(t, store.InsertPermission(ctx, p))
		assert.NotEmpty(t, p.ID)

		err := store.InsertPermission(ctx, &Permission{Module: module, Action: "read"})
		assert.True(t, IsAlreadyExists(err))

		got, err := store.GetPermission(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.Key(), got.Key())

		found, err := store.FindPermission(ctx, module, "read")
		require.NoError(t, err)
		assert.Equal(t, p.ID, found.ID)

		_, err = store.FindPermission(ctx, module, "write")
		assert.True(t, IsNotFound(err))

		byIDs, err := store.GetPermissionsByIDs(ctx, []string{p.ID, p.ID, missing})
		require.NoError(t, err)
		assert.Len(t, byIDs, 1)

		all, err := store.ListPermissions(ctx)
		require.NoError(t, err)
		assert.Contains(t, permissionIDs(all), p.ID)

		require.NoError(t, store.DeletePermission(ctx, p.ID))
		assert.True(t, IsNotFound(store.DeletePermission(ctx, p.ID)))
		_, err = store.GetPermission(ctx, missing)
		assert.True(t, IsNotFound(err))
	})

	t.Run("Roles", func(t *testing.T) {
		r := &Role{Name: "Contract-" + suffix, ModuleLevels: ModuleLevels{"tasks": LevelWrite}}
		require.NoError(t, store.InsertRole(ctx, r))
		assert.NotEmpty(t, r.ID)

		assert.True(t, IsAlreadyExists(store.InsertRole(ctx, &Role{Name: r.Name})))

		got, err := store.GetRole(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, ModuleLevels{"tasks": LevelWrite}, got.ModuleLevels)

		byName, err := store.GetRoleByName(ctx, r.Name)
		require.NoError(t, err)
		assert.Equal(t, r.ID, byName.ID)

		got.ModuleLevels = ModuleLevels{"tasks": LevelFull, "crm": LevelRead}
		got.Description = "updated"
		require.NoError(t, store.UpdateRole(ctx, got))

		got, err = store.GetRole(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, LevelFull, got.ModuleLevels.Get("tasks"))
		assert.Equal(t, "updated", got.Description)

		assert.True(t, IsNotFound(store.UpdateRole(ctx, &Role{ID: missing, Name: "Ghost-" + suffix})))

		roles, err := store.ListRoles(ctx)
		require.NoError(t, err)
		var names []string
		for _, role := range roles {
			names = append(names, role.Name)
		}
		assert.Contains(t, names, r.Name)

		require.NoError(t, store.DeleteRole(ctx, r.ID))
		assert.True(t, IsNotFound(store.DeleteRole(ctx, r.ID)))
		_, err = store.GetRoleByName(ctx, r.Name)
		assert.True(t, IsNotFound(err))
	})

	t.Run("Role permission links", func(t *testing.T) {
		r := &Role{Name: "Linked-" + suffix}
		require.NoError(t, store.InsertRole(ctx, r))
		p := &Permission{Module: module, Action: "approve"}
		require.NoError(t, store.InsertPermission(ctx, p))

		created, err := store.UpsertRolePermission(ctx, &RolePermission{RoleID: r.ID, PermissionID: p.ID})
		require.NoError(t, err)
		assert.True(t, created)

		created, err = store.UpsertRolePermission(ctx, &RolePermission{RoleID: r.ID, PermissionID: p.ID})
		require.NoError(t, err)
		assert.False(t, created)

		links, err := store.ListRolePermissions(ctx, r.ID)
		require.NoError(t, err)
		require.Len(t, links, 1)
		assert.Equal(t, p.ID, links[0].PermissionID)

		links, err = store.ListPermissionRoles(ctx, p.ID)
		require.NoError(t, err)
		require.Len(t, links, 1)
		assert.Equal(t, r.ID, links[0].RoleID)

		deleted, err := store.DeleteRolePermission(ctx, r.ID, p.ID)
		require.NoError(t, err)
		assert.True(t, deleted)
		deleted, err = store.DeleteRolePermission(ctx, r.ID, p.ID)
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("User role links", func(t *testing.T) {
		r := &Role{Name: "Assigned-" + suffix}
		require.NoError(t, store.InsertRole(ctx, r))
		userID := "contract-user-" + suffix

		created, err := store.UpsertUserRole(ctx, &UserRole{UserID: userID, RoleID: r.ID, AssignedBy: "admin"})
		require.NoError(t, err)
		assert.True(t, created)

		created, err = store.UpsertUserRole(ctx, &UserRole{UserID: userID, RoleID: r.ID, AssignedBy: "other"})
		require.NoError(t, err)
		assert.False(t, created)

		links, err := store.ListUserRoles(ctx, userID)
		require.NoError(t, err)
		require.Len(t, links, 1)
		assert.Equal(t, "admin", links[0].AssignedBy)
		assert.False(t, links[0].AssignedAt.IsZero())

		links, err = store.ListRoleUsers(ctx, r.ID)
		require.NoError(t, err)
		assert.Len(t, links, 1)

		deleted, err := store.DeleteUserRole(ctx, userID, r.ID)
		require.NoError(t, err)
		assert.True(t, deleted)
		deleted, err = store.DeleteUserRole(ctx, userID, r.ID)
		require.NoError(t, err)
		assert.False(t, deleted)

		links, err = store.ListUserRoles(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, links)
	})

	t.Run("Users", func(t *testing.T) {
		boss := "boss-" + suffix
		require.NoError(t, putUser(ctx, &User{ID: boss, IsActive: true}))
		require.NoError(t, putUser(ctx, &User{ID: "report1-" + suffix, ManagerID: &boss, IsActive: true}))
		require.NoError(t, putUser(ctx, &User{ID: "report2-" + suffix, ManagerID: &boss}))

		u, err := store.GetUser(ctx, boss)
		require.NoError(t, err)
		assert.True(t, u.IsActive)
		assert.Equal(t, "", u.Manager())

		_, err = store.GetUser(ctx, "nobody-"+suffix)
		assert.True(t, IsNotFound(err))

		reports, err := store.ListDirectReports(ctx, []string{boss})
		require.NoError(t, err)
		require.Len(t, reports, 2)
		assert.Equal(t, boss, reports[0].Manager())

		reports, err = store.ListDirectReports(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, reports)
	})
}

func permissionIDs(perms []Permission) []string {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, p.ID)
	}
	return out
}

func TestMemoryStore_Contract(t *testing.T) {
	store := NewMemoryStore()
	testStoreContract(t, store, func(_ context.Context, u *User) error {
		store.PutUser(*u)
		return nil
	})
}

// TestMemoryStore_Isolation tests that callers never share memory with the store
func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	r := &Role{Name: "Isolated", ModuleLevels: ModuleLevels{"tasks": LevelRead}}
	require.NoError(t, store.InsertRole(ctx, r))
	r.ModuleLevels["tasks"] = LevelSystem

	got, err := store.GetRole(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, LevelRead, got.ModuleLevels.Get("tasks"))

	got.ModuleLevels["tasks"] = LevelSystem
	again, err := store.GetRole(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, LevelRead, again.ModuleLevels.Get("tasks"))

	manager := "m"
	store.PutUser(User{ID: "u", ManagerID: &manager})
	manager = "changed"
	u, err := store.GetUser(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, "m", u.Manager())
}

func TestMemoryStore_SetManager(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.PutUser(User{ID: "a", IsActive: true})
	store.PutUser(User{ID: "b", IsActive: true})

	require.NoError(t, store.SetManager("b", "a"))
	u, err := store.GetUser(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "a", u.Manager())

	require.NoError(t, store.SetManager("b", ""))
	u, err = store.GetUser(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "", u.Manager())

	assert.True(t, IsNotFound(store.SetManager("ghost", "a")))
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.ListRoles(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.GetUser(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	r := &Role{Name: "Busy"}
	require.NoError(t, store.InsertRole(ctx, r))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.UpsertUserRole(ctx, &UserRole{UserID: "u", RoleID: r.ID})
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)
}
