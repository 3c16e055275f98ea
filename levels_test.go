package accesskit

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelOrdering(t *testing.T) {
	scale := []Level{LevelNone, LevelRead, LevelWrite, LevelFull, LevelAdmin, LevelSystem}
	for i := 1; i < len(scale); i++ {
		assert.Less(t, scale[i-1], scale[i])
	}
	assert.Equal(t, LevelNone, MinLevel)
	assert.Equal(t, LevelSystem, MaxLevel)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "NONE", LevelNone.String())
	assert.Equal(t, "WRITE", LevelWrite.String())
	assert.Equal(t, "SYSTEM", LevelSystem.String())
	assert.Equal(t, "7", Level(7).String())
	assert.Equal(t, "-1", Level(-1).String())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"read", LevelRead, false},
		{" ADMIN ", LevelAdmin, false},
		{"3", LevelFull, false},
		{"0", LevelNone, false},
		{"6", LevelNone, true},
		{"-1", LevelNone, true},
		{"owner", LevelNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.True(t, IsInvalidLevel(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModuleLevels(t *testing.T) {
	t.Run("Missing entry is NONE", func(t *testing.T) {
		var nilLevels ModuleLevels
		assert.Equal(t, LevelNone, nilLevels.Get("tasks"))
		assert.Equal(t, LevelNone, ModuleLevels{"crm": LevelFull}.Get("tasks"))
	})

	t.Run("Validate", func(t *testing.T) {
		assert.NoError(t, ModuleLevels{"tasks": LevelWrite, "crm": LevelNone}.Validate())
		assert.True(t, IsInvalidLevel(ModuleLevels{"tasks": 7}.Validate()))
		assert.True(t, IsInvalidLevel(ModuleLevels{"tasks": -1}.Validate()))
		assert.True(t, IsInvalidLevel(ModuleLevels{" ": LevelRead}.Validate()))
	})

	t.Run("Clone is independent", func(t *testing.T) {
		orig := ModuleLevels{"tasks": LevelWrite}
		clone := orig.Clone()
		clone["tasks"] = LevelAdmin
		assert.Equal(t, LevelWrite, orig["tasks"])
	})
}

func TestParseModuleLevels(t *testing.T) {
	t.Run("Decoded JSON", func(t *testing.T) {
		var raw map[string]any
		require.NoError(t, json.Unmarshal([]byte(`{"tasks": 2, "crm_deals": 0}`), &raw))

		levels, err := ParseModuleLevels(raw)
		require.NoError(t, err)
		assert.Equal(t, ModuleLevels{"tasks": LevelWrite, "crm_deals": LevelNone}, levels)
	})

	t.Run("json.Number", func(t *testing.T) {
		levels, err := ParseModuleLevels(map[string]any{"tasks": json.Number("4")})
		require.NoError(t, err)
		assert.Equal(t, LevelAdmin, levels["tasks"])
	})

	t.Run("Other numeric kinds", func(t *testing.T) {
		tests := []struct {
			name  string
			value any
			want  Level
		}{
			{"int8", int8(1), LevelRead},
			{"int16", int16(2), LevelWrite},
			{"uint", uint(3), LevelFull},
			{"uint8", uint8(4), LevelAdmin},
			{"uint64", uint64(5), LevelSystem},
			{"float32", float32(3), LevelFull},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				levels, err := ParseModuleLevels(map[string]any{"tasks": tt.value})
				require.NoError(t, err)
				assert.Equal(t, tt.want, levels["tasks"])
			})
		}
	})

	t.Run("Form values", func(t *testing.T) {
		levels, err := ParseModuleLevels(map[string]any{"tasks": "2", "crm_deals": " admin "})
		require.NoError(t, err)
		assert.Equal(t, ModuleLevels{"tasks": LevelWrite, "crm_deals": LevelAdmin}, levels)
	})

	t.Run("Rejects bad values", func(t *testing.T) {
		bad := []any{
			7, -1, 2.5, "2.5", "9", "owner", "", true, nil,
			json.Number("1.5"), int64(math.MaxInt64), uint64(math.MaxUint64),
			float32(1.5), int8(-3), math.Inf(1),
		}
		for _, v := range bad {
			_, err := ParseModuleLevels(map[string]any{"tasks": v})
			assert.Truef(t, IsInvalidLevel(err), "value %#v", v)
		}
	})
}

func TestActionTable(t *testing.T) {
	table := NewActionTable()

	t.Run("Defaults", func(t *testing.T) {
		tests := map[string]Level{
			"read":         LevelRead,
			"list":         LevelRead,
			"update":       LevelWrite,
			"comment":      LevelWrite,
			"delete":       LevelFull,
			"export":       LevelFull,
			"manage_roles": LevelAdmin,
		}
		for action, want := range tests {
			got, ok := table.Required("tasks", action)
			assert.True(t, ok, action)
			assert.Equal(t, want, got, action)
		}
	})

	t.Run("Unknown action has no mapping", func(t *testing.T) {
		_, ok := table.Required("tasks", "approve")
		assert.False(t, ok)
	})

	t.Run("Module override", func(t *testing.T) {
		require.NoError(t, table.Set("crm_deals", "export", LevelAdmin))

		got, _ := table.Required("crm_deals", "export")
		assert.Equal(t, LevelAdmin, got)
		got, _ = table.Required("tasks", "export")
		assert.Equal(t, LevelFull, got)
	})

	t.Run("SetDefault", func(t *testing.T) {
		require.NoError(t, table.SetDefault("approve", LevelFull))
		got, ok := table.Required("tasks", "approve")
		assert.True(t, ok)
		assert.Equal(t, LevelFull, got)
	})

	t.Run("Rejects invalid levels", func(t *testing.T) {
		assert.True(t, IsInvalidLevel(table.Set("tasks", "read", 9)))
		assert.True(t, IsInvalidLevel(table.SetDefault("read", -1)))
	})
}
