package accesskit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParsePermissionKey tests parsing of dotted permission strings
func TestParsePermissionKey(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    PermissionKey
		wantErr bool
	}{
		{"Simple", "tasks.read", PermissionKey{"tasks", "read"}, false},
		{"Underscores", "crm_deals.manage_roles", PermissionKey{"crm_deals", "manage_roles"}, false},
		{"Missing action", "tasks", PermissionKey{}, true},
		{"Empty action", "tasks.", PermissionKey{}, true},
		{"Empty module", ".read", PermissionKey{}, true},
		{"Extra dot", "tasks.read.all", PermissionKey{}, true},
		{"Wildcard", "tasks.*", PermissionKey{}, true},
		{"Space", "tasks.re ad", PermissionKey{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePermissionKey(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPermission)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestKeySet(t *testing.T) {
	set := KeySet([]Permission{
		{ID: "1", Module: "tasks", Action: "read"},
		{ID: "2", Module: "tasks", Action: "delete"},
		{ID: "3", Module: "tasks", Action: "read"},
	})
	assert.Len(t, set, 2)
	assert.Contains(t, set, NewPermissionKey("tasks", "delete"))
}

func TestGrantsAllows(t *testing.T) {
	g := Grants{
		Levels:  ModuleLevels{"tasks": LevelRead},
		Actions: map[PermissionKey]struct{}{{"crm", "export"}: {}},
	}
	assert.True(t, g.Allows("crm", "export"))
	assert.False(t, g.Allows("crm", "delete"))
	assert.False(t, Grants{}.Allows("crm", "export"))
}

func TestUserIDSet(t *testing.T) {
	s := NewUserIDSet("a", "", "b", "a")
	assert.Len(t, s, 2)
	assert.True(t, s.Has("a"))
	assert.False(t, s.Has(""))
	assert.ElementsMatch(t, []string{"a", "b"}, s.Slice())

	s.Add("")
	assert.Len(t, s, 2)

	var empty UserIDSet
	assert.False(t, empty.Has("a"))
}
