package scripting

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// ErrNoHook is returned when a hook function is not defined by any loaded script.
var ErrNoHook = errors.New("scripting: hook not defined")

// CombatantInfo is the read-only view of a combatant exposed to scripts.
type CombatantInfo struct {
	Index      int
	Name       string
	Tag        string
	Player     bool
	Alive      bool
	HP         int
	MaxHP      int
	Mana       int
	MaxMana    int
	Stamina    int
	MaxStamina int
}

// Host is the battle a hook call runs against. Index 0 is the player and
// indices 1..n are the enemies in encounter order.
type Host interface {
	Combatant(idx int) (CombatantInfo, bool)
	// Damage subtracts amount from the combatant's HP and returns the HP lost.
	Damage(idx, amount int) (int, error)
	ApplyDOT(idx int, subtype string, damage, turns int) (bool, error)
	ApplyCC(idx int, subtype string, turns int, chance float64) (bool, error)
	ApplyMark(idx int, bonus float64, turns int) (bool, error)
	ApplyReflect(idx int, percent float64, turns int) (bool, error)
	DamageBonus(idx int) float64
	ReflectPercent(idx int) float64
	Log(msg string)
}

// Manager owns a single sandboxed Lua VM holding every loaded script.
// Calls are serialized; the Host bound during a call is only visible to
// that call.
type Manager struct {
	mu     sync.Mutex
	L      *lua.LState
	limit  int
	roller *dice.Roller
	logger *zap.Logger
	host   Host
}

// NewManager creates a Manager with an empty sandboxed VM.
//
// Precondition: roller and logger must not be nil; limit <= 0 selects
// DefaultInstructionLimit.
// Postcondition: the engine module is registered; no scripts are loaded.
func NewManager(roller *dice.Roller, logger *zap.Logger, limit int) *Manager {
	if roller == nil {
		panic("scripting.NewManager: roller must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}
	m := &Manager{
		L:      NewSandboxedState(),
		limit:  limit,
		roller: roller,
		logger: logger,
	}
	m.RegisterModules(m.L)
	return m
}

// LoadDir runs every *.lua file in dir in lexical order.
//
// Precondition: dir must be a readable directory.
// Postcondition: returns the number of files loaded, or the first load error.
func (m *Manager) LoadDir(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading script dir %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	for _, f := range files {
		src, err := os.ReadFile(f)
		if err != nil {
			return 0, fmt.Errorf("reading %s: %w", f, err)
		}
		if err := m.LoadString(ctx, filepath.Base(f), string(src)); err != nil {
			return 0, err
		}
	}
	return len(files), nil
}

// LoadString runs src in the shared VM under the instruction limit.
//
// Postcondition: globals defined by src are visible to later hook calls.
func (m *Manager) LoadString(ctx context.Context, name, src string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	done := limitRun(ctx, m.L, m.limit)
	defer done()
	if err := m.L.DoString(src); err != nil {
		return fmt.Errorf("loading script %s: %w", name, err)
	}
	m.logger.Debug("script loaded", zap.String("script", name))
	return nil
}

// HasHook reports whether a global function named hook exists.
func (m *Manager) HasHook(hook string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.L.GetGlobal(hook).(*lua.LFunction)
	return ok
}

// CallHook calls the global function hook with args while host is bound.
//
// Precondition: host must not be nil.
// Postcondition: returns the hook's first return value; ErrNoHook when hook
// is undefined; a wrapped error when the script fails or exceeds its
// instruction budget. The VM remains usable after a failed call.
func (m *Manager) CallHook(ctx context.Context, host Host, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fn, ok := m.L.GetGlobal(hook).(*lua.LFunction)
	if !ok {
		return lua.LNil, fmt.Errorf("%w: %s", ErrNoHook, hook)
	}

	m.host = host
	defer func() { m.host = nil }()
	done := limitRun(ctx, m.L, m.limit)
	defer done()

	top := m.L.GetTop()
	if err := m.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		m.L.SetTop(top)
		m.logger.Warn("lua hook error", zap.String("hook", hook), zap.Error(err))
		return lua.LNil, fmt.Errorf("calling hook %s: %w", hook, err)
	}
	ret := m.L.Get(-1)
	m.L.Pop(1)
	return ret, nil
}

// Close releases the Lua VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.L.Close()
}
