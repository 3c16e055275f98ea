package accesskit

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
)

// Level is an ordinal permission level granted per module on a Role.
type Level int

// The level scale is totally ordered from LevelNone to LevelSystem.
const (
	LevelNone  Level = 0
	LevelRead  Level = 1
	LevelWrite Level = 2
	LevelFull  Level = 3
	LevelAdmin Level = 4
	// LevelSystem is reserved for system-wide administration above ADMIN.
	LevelSystem Level = 5

	MinLevel = LevelNone
	MaxLevel = LevelSystem
)

var levelNames = [...]string{"NONE", "READ", "WRITE", "FULL", "ADMIN", "SYSTEM"}

// String returns the tier name, or the number for values outside the scale.
func (l Level) String() string {
	if l.Valid() {
		return levelNames[l]
	}
	return strconv.Itoa(int(l))
}

// Valid reports whether l is within the 0..5 scale.
func (l Level) Valid() bool {
	return l >= MinLevel && l <= MaxLevel
}

// ParseLevel accepts a tier name (case-insensitive) or its number.
func ParseLevel(s string) (Level, error) {
	s = strings.TrimSpace(s)
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return LevelNone, NewError(ErrInvalidLevel, fmt.Sprintf("%q is not a level", s))
	}
	l := Level(n)
	if !l.Valid() {
		return LevelNone, NewError(ErrInvalidLevel, fmt.Sprintf("level %d outside %d..%d", n, MinLevel, MaxLevel))
	}
	return l, nil
}

// ModuleLevels maps a module name to the level a role holds in it.
type ModuleLevels map[string]Level

// Get returns the level for module; a missing entry is LevelNone.
func (m ModuleLevels) Get(module string) Level {
	if m == nil {
		return LevelNone
	}
	return m[module]
}

// Validate checks every entry against the level scale.
func (m ModuleLevels) Validate() error {
	for module, l := range m {
		if strings.TrimSpace(module) == "" {
			return NewError(ErrInvalidLevel, "module name cannot be empty")
		}
		if !l.Valid() {
			return NewError(ErrInvalidLevel, fmt.Sprintf("level %d for module %q outside %d..%d", l, module, MinLevel, MaxLevel)).
				WithModule(module, "")
		}
	}
	return nil
}

// Clone returns a copy safe to mutate.
func (m ModuleLevels) Clone() ModuleLevels {
	if m == nil {
		return nil
	}
	out := make(ModuleLevels, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ParseModuleLevels converts a loosely typed payload (decoded JSON, form
// values) into ModuleLevels. Numbers of any Go integer or float kind are
// accepted when they hold a whole value; strings go through ParseLevel, so
// "2" and "write" are equivalent. Any other type, fractional or out-of-range
// value fails the whole map with ErrInvalidLevel.
func ParseModuleLevels(raw map[string]any) (ModuleLevels, error) {
	out := make(ModuleLevels, len(raw))
	for module, v := range raw {
		l, err := levelFromAny(v)
		if err != nil {
			return nil, NewError(ErrInvalidLevel, fmt.Sprintf("module %q: %v", module, err)).WithModule(module, "")
		}
		out[module] = l
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func levelFromAny(v any) (Level, error) {
	switch n := v.(type) {
	case Level:
		return n, nil
	case int:
		return levelFromInt(int64(n))
	case int8:
		return levelFromInt(int64(n))
	case int16:
		return levelFromInt(int64(n))
	case int32:
		return levelFromInt(int64(n))
	case int64:
		return levelFromInt(n)
	case uint:
		return levelFromUint(uint64(n))
	case uint8:
		return levelFromUint(uint64(n))
	case uint16:
		return levelFromUint(uint64(n))
	case uint32:
		return levelFromUint(uint64(n))
	case uint64:
		return levelFromUint(n)
	case float32:
		return levelFromFloat(float64(n))
	case float64:
		return levelFromFloat(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return LevelNone, fmt.Errorf("%q is not an integer", n.String())
		}
		return levelFromInt(i)
	case string:
		return ParseLevel(n)
	default:
		return LevelNone, fmt.Errorf("%T is not numeric", v)
	}
}

func levelFromInt(n int64) (Level, error) {
	if n < int64(MinLevel) || n > int64(MaxLevel) {
		return LevelNone, fmt.Errorf("level %d outside %d..%d", n, MinLevel, MaxLevel)
	}
	return Level(n), nil
}

func levelFromUint(n uint64) (Level, error) {
	if n > uint64(MaxLevel) {
		return LevelNone, fmt.Errorf("level %d outside %d..%d", n, MinLevel, MaxLevel)
	}
	return Level(n), nil
}

func levelFromFloat(n float64) (Level, error) {
	if math.IsInf(n, 0) || math.IsNaN(n) || n != math.Trunc(n) {
		return LevelNone, fmt.Errorf("%v is not an integer", n)
	}
	if n < float64(MinLevel) || n > float64(MaxLevel) {
		return LevelNone, fmt.Errorf("level %v outside %d..%d", n, MinLevel, MaxLevel)
	}
	return Level(n), nil
}

// ActionTable maps actions to the minimum level that satisfies them.
// Module-specific entries take precedence over the defaults.
type ActionTable struct {
	mu        sync.RWMutex
	defaults  map[string]Level
	overrides map[string]map[string]Level
}

// DefaultActionLevels is the action table applied to every module unless overridden.
func DefaultActionLevels() map[string]Level {
	return map[string]Level{
		"read":               LevelRead,
		"view":               LevelRead,
		"list":               LevelRead,
		"create":             LevelWrite,
		"update":             LevelWrite,
		"edit":               LevelWrite,
		"write":              LevelWrite,
		"comment":            LevelWrite,
		"delete":             LevelFull,
		"manage":             LevelFull,
		"export":             LevelFull,
		"import":             LevelFull,
		"assign":             LevelFull,
		"admin":              LevelAdmin,
		"configure":          LevelAdmin,
		"manage_roles":       LevelAdmin,
		"manage_permissions": LevelAdmin,
	}
}

// NewActionTable creates a table seeded with DefaultActionLevels.
func NewActionTable() *ActionTable {
	return &ActionTable{
		defaults:  DefaultActionLevels(),
		overrides: make(map[string]map[string]Level),
	}
}

// SetDefault sets the level an action requires in every module without an override.
func (t *ActionTable) SetDefault(action string, level Level) error {
	if !level.Valid() {
		return NewError(ErrInvalidLevel, fmt.Sprintf("level %d outside %d..%d", level, MinLevel, MaxLevel))
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.defaults[action] = level
	return nil
}

// Set sets the level an action requires within one module.
//
// Example:
//
//	table.Set("crm_deals", "export", accesskit.LevelAdmin)
func (t *ActionTable) Set(module, action string, level Level) error {
	if !level.Valid() {
		return NewError(ErrInvalidLevel, fmt.Sprintf("level %d outside %d..%d", level, MinLevel, MaxLevel)).
			WithModule(module, action)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.overrides[module]
	if !ok {
		m = make(map[string]Level)
		t.overrides[module] = m
	}
	m[action] = level
	return nil
}

// Required returns the level an action needs in a module. ok is false when
// the action has no level mapping, in which case only discrete grants apply.
func (t *ActionTable) Required(module, action string) (Level, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if m, exists := t.overrides[module]; exists {
		if l, found := m[action]; found {
			return l, true
		}
	}
	l, found := t.defaults[action]
	return l, found
}
