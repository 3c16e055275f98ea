package accesskit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestChecker tests that a Checker agrees with the resolver
func TestChecker(t *testing.T) {
	h := NewMemoryTestDataHelper(t)
	service := h.GetService()
	ctx := h.GetContext()

	manager := h.CreateTestRole("Manager", ModuleLevels{"tasks": LevelWrite})
	approver := h.CreateTestRole("Approver", ModuleLevels{"reports": LevelRead})
	h.GrantPermission(approver.ID, h.DefineTestPermission("reports", "approve").ID)

	u := h.CreateTestUser("u", "")
	h.AssignRole(u, manager.ID)
	h.AssignRole(u, approver.ID)

	checker, err := service.GetChecker(ctx, u)
	require.NoError(t, err)
	assert.Equal(t, u, checker.UserID())
	assert.False(t, checker.IsEmpty())
	assert.ElementsMatch(t, []string{manager.Name, approver.Name}, checker.Roles())

	t.Run("Matches resolver", func(t *testing.T) {
		for _, module := range []string{"tasks", "reports", "crm"} {
			for _, action := range []string{"read", "update", "delete", "approve", "export"} {
				assert.Equal(t,
					service.CheckPermission(ctx, u, module, action),
					checker.Can(module, action),
					"%s.%s", module, action)
			}
		}
	})

	t.Run("Levels", func(t *testing.T) {
		assert.Equal(t, LevelWrite, checker.Level("tasks"))
		assert.Equal(t, LevelNone, checker.Level("crm"))
		assert.True(t, checker.HasMinimumLevel("tasks", LevelRead))
		assert.False(t, checker.HasMinimumLevel("tasks", LevelFull))
		assert.False(t, checker.HasMinimumLevel("tasks", Level(8)))
	})

	t.Run("Any and all", func(t *testing.T) {
		read := NewPermissionKey("tasks", "read")
		approve := NewPermissionKey("reports", "approve")
		del := NewPermissionKey("tasks", "delete")

		assert.True(t, checker.CanAll(read, approve))
		assert.False(t, checker.CanAll(read, del))
		assert.False(t, checker.CanAll())
		assert.True(t, checker.CanAny(del, approve))
		assert.False(t, checker.CanAny(del))
		assert.False(t, checker.CanAny())
	})

	t.Run("Snapshot", func(t *testing.T) {
		require.NoError(t, service.Assignments.RevokeRoleFromUser(ctx, u, approver.ID))
		assert.True(t, checker.Can("reports", "approve"))

		fresh, err := service.GetChecker(ctx, u)
		require.NoError(t, err)
		assert.False(t, fresh.Can("reports", "approve"))
	})
}

// TestChecker_EmptyAndNil tests checkers that must deny everything
func TestChecker_EmptyAndNil(t *testing.T) {
	h := NewMemoryTestDataHelper(t)
	service := h.GetService()
	ctx := h.GetContext()

	role := h.CreateTestRole("Admin", ModuleLevels{"tasks": LevelAdmin})
	inactive := h.CreateInactiveUser("gone")
	h.AssignRole(inactive, role.ID)

	tests := []struct {
		name   string
		userID string
	}{
		{"Inactive user", inactive},
		{"Unknown user", "ghost"},
		{"User without roles", h.CreateTestUser("bare", "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker, err := service.GetChecker(ctx, tt.userID)
			require.NoError(t, err)
			assert.True(t, checker.IsEmpty())
			assert.False(t, checker.Can("tasks", "read"))
			assert.False(t, checker.HasMinimumLevel("tasks", LevelNone))
		})
	}

	t.Run("Nil checker", func(t *testing.T) {
		var c *Checker
		assert.Equal(t, "", c.UserID())
		assert.True(t, c.IsEmpty())
		assert.False(t, c.Can("tasks", "read"))
		assert.False(t, c.CanAny(NewPermissionKey("tasks", "read")))
		assert.Nil(t, c.Roles())
		assert.Equal(t, LevelNone, c.Level("tasks"))
	})
}

// TestGetCheckerFromContext tests loading a checker for the context user
func TestGetCheckerFromContext(t *testing.T) {
	h := NewMemoryTestDataHelper(t)
	service := h.GetService()

	_, err := service.GetCheckerFromContext(h.GetContext())
	assert.True(t, IsNoUserID(err))

	u := h.CreateTestUser("u", "")
	checker, err := service.GetCheckerFromContext(WithUserID(h.GetContext(), u))
	require.NoError(t, err)
	assert.Equal(t, u, checker.UserID())
}
