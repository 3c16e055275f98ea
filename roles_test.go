package accesskit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleStore_Create(t *testing.T) {
	ctx := context.Background()
	roles := NewRoleStore(NewMemoryStore())

	role, err := roles.Create(ctx, " Manager ", "Team managers", false)
	require.NoError(t, err)
	assert.Equal(t, "Manager", role.Name)
	assert.Empty(t, role.ModuleLevels)
	assert.False(t, role.IsSystemRole)

	_, err = roles.Create(ctx, "Manager", "", false)
	assert.True(t, IsAlreadyExists(err))

	_, err = roles.Create(ctx, "  ", "", false)
	assert.ErrorIs(t, err, ErrInvalidInput)

	byName, err := roles.GetByName(ctx, "Manager")
	require.NoError(t, err)
	assert.Equal(t, role.ID, byName.ID)

	_, err = roles.GetByName(ctx, "Ghost")
	assert.True(t, IsNotFound(err))
}

func TestRoleStore_Update(t *testing.T) {
	ctx := context.Background()
	roles := NewRoleStore(NewMemoryStore())
	role, err := roles.Create(ctx, "Manager", "", false)
	require.NoError(t, err)

	t.Run("Sets levels", func(t *testing.T) {
		updated, err := roles.Update(ctx, role.ID, RoleUpdate{ModuleLevels: ModuleLevels{"tasks": LevelWrite}})
		require.NoError(t, err)
		assert.Equal(t, LevelWrite, updated.ModuleLevels.Get("tasks"))

		stored, err := roles.GetByID(ctx, role.ID)
		require.NoError(t, err)
		assert.Equal(t, ModuleLevels{"tasks": LevelWrite}, stored.ModuleLevels)
	})

	t.Run("Invalid level writes nothing", func(t *testing.T) {
		name := "Renamed"
		_, err := roles.Update(ctx, role.ID, RoleUpdate{
			Name:         &name,
			ModuleLevels: ModuleLevels{"tasks": LevelAdmin, "crm": 7},
		})
		assert.True(t, IsInvalidLevel(err))

		stored, err := roles.GetByID(ctx, role.ID)
		require.NoError(t, err)
		assert.Equal(t, "Manager", stored.Name)
		assert.Equal(t, ModuleLevels{"tasks": LevelWrite}, stored.ModuleLevels)
	})

	t.Run("Blank name rejected", func(t *testing.T) {
		blank := "   "
		_, err := roles.Update(ctx, role.ID, RoleUpdate{Name: &blank})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("Nil fields untouched", func(t *testing.T) {
		desc := "Leads a team"
		updated, err := roles.Update(ctx, role.ID, RoleUpdate{Description: &desc})
		require.NoError(t, err)
		assert.Equal(t, "Leads a team", updated.Description)
		assert.Equal(t, LevelWrite, updated.ModuleLevels.Get("tasks"))
	})

	t.Run("Missing role", func(t *testing.T) {
		_, err := roles.Update(ctx, "nope", RoleUpdate{ModuleLevels: ModuleLevels{"tasks": LevelRead}})
		assert.True(t, IsNotFound(err))
	})
}

func TestRoleStore_SetModuleLevel(t *testing.T) {
	ctx := context.Background()
	roles := NewRoleStore(NewMemoryStore())
	role, err := roles.Create(ctx, "Analyst", "", false)
	require.NoError(t, err)

	_, err = roles.SetModuleLevel(ctx, role.ID, "reports", LevelRead)
	require.NoError(t, err)
	updated, err := roles.SetModuleLevel(ctx, role.ID, "crm", LevelFull)
	require.NoError(t, err)
	assert.Equal(t, ModuleLevels{"reports": LevelRead, "crm": LevelFull}, updated.ModuleLevels)

	_, err = roles.SetModuleLevel(ctx, role.ID, "crm", Level(6))
	assert.True(t, IsInvalidLevel(err))
}

func TestRoleStore_DeleteAndEvents(t *testing.T) {
	ctx := WithActorID(context.Background(), "admin")
	var events []Event
	roles := NewRoleStore(NewMemoryStore(), WithEventSink(func(_ context.Context, e Event) {
		events = append(events, e)
	}))

	role, err := roles.Create(ctx, "Temp", "", false)
	require.NoError(t, err)
	require.NoError(t, roles.Delete(ctx, role.ID))
	assert.True(t, IsNotFound(roles.Delete(ctx, role.ID)))

	require.Len(t, events, 2)
	assert.Equal(t, EventRoleCreated, events[0].Type)
	assert.Equal(t, EventRoleDeleted, events[1].Type)
	assert.Equal(t, "admin", events[1].ActorID)
	assert.False(t, events[1].Timestamp.IsZero())
}
