package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers all engine.* Lua tables into L.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L with log, dice and combat
// sub-tables.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "log", m.logModule(L))
	L.SetField(engine, "dice", m.diceModule(L))
	L.SetField(engine, "combat", m.combatModule(L))
	L.SetGlobal("engine", engine)
}

func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	levels := map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	}
	for name, fn := range levels {
		fn := fn
		L.SetField(mod, name, L.NewFunction(func(L *lua.LState) int {
			fn(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	return mod
}

func (m *Manager) diceModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "roll", L.NewFunction(func(L *lua.LState) int {
		res, err := m.roller.RollExpr(L.CheckString(1))
		if err != nil {
			L.Push(lua.LNil)
			L.Push(lua.LString(err.Error()))
			return 2
		}
		t := L.NewTable()
		dice := L.NewTable()
		for _, d := range res.Dice {
			dice.Append(lua.LNumber(d))
		}
		L.SetField(t, "dice", dice)
		L.SetField(t, "modifier", lua.LNumber(res.Modifier))
		L.SetField(t, "total", lua.LNumber(res.Total()))
		L.Push(t)
		return 1
	}))
	return mod
}

// combatModule exposes the bound Host. Every function raises a Lua error
// when called outside CallHook.
func (m *Manager) combatModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	fns := map[string]lua.LGFunction{
		"combatant":       m.luaCombatant,
		"damage":          m.luaDamage,
		"apply_dot":       m.luaApplyDOT,
		"apply_cc":        m.luaApplyCC,
		"mark":            m.luaMark,
		"reflect":         m.luaReflect,
		"damage_bonus":    m.luaDamageBonus,
		"reflect_percent": m.luaReflectPercent,
		"message":         m.luaMessage,
	}
	for name, fn := range fns {
		L.SetField(mod, name, L.NewFunction(fn))
	}
	return mod
}

func (m *Manager) boundHost(L *lua.LState) Host {
	if m.host == nil {
		L.RaiseError("engine.combat is only available inside a hook call")
	}
	return m.host
}

// pushResult pushes ok, or nil plus the error message.
func pushResult(L *lua.LState, ok bool, err error) int {
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LBool(ok))
	return 1
}

func (m *Manager) luaCombatant(L *lua.LState) int {
	h := m.boundHost(L)
	info, ok := h.Combatant(L.CheckInt(1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	t := L.NewTable()
	L.SetField(t, "index", lua.LNumber(info.Index))
	L.SetField(t, "name", lua.LString(info.Name))
	L.SetField(t, "tag", lua.LString(info.Tag))
	L.SetField(t, "player", lua.LBool(info.Player))
	L.SetField(t, "alive", lua.LBool(info.Alive))
	L.SetField(t, "hp", lua.LNumber(info.HP))
	L.SetField(t, "max_hp", lua.LNumber(info.MaxHP))
	L.SetField(t, "mana", lua.LNumber(info.Mana))
	L.SetField(t, "max_mana", lua.LNumber(info.MaxMana))
	L.SetField(t, "stamina", lua.LNumber(info.Stamina))
	L.SetField(t, "max_stamina", lua.LNumber(info.MaxStamina))
	L.Push(t)
	return 1
}

func (m *Manager) luaDamage(L *lua.LState) int {
	h := m.boundHost(L)
	lost, err := h.Damage(L.CheckInt(1), L.CheckInt(2))
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LNumber(lost))
	return 1
}

func (m *Manager) luaApplyDOT(L *lua.LState) int {
	h := m.boundHost(L)
	ok, err := h.ApplyDOT(L.CheckInt(1), L.CheckString(2), L.CheckInt(3), L.CheckInt(4))
	return pushResult(L, ok, err)
}

func (m *Manager) luaApplyCC(L *lua.LState) int {
	h := m.boundHost(L)
	chance := float64(L.OptNumber(4, 1))
	ok, err := h.ApplyCC(L.CheckInt(1), L.CheckString(2), L.CheckInt(3), chance)
	return pushResult(L, ok, err)
}

func (m *Manager) luaMark(L *lua.LState) int {
	h := m.boundHost(L)
	ok, err := h.ApplyMark(L.CheckInt(1), float64(L.CheckNumber(2)), L.CheckInt(3))
	return pushResult(L, ok, err)
}

func (m *Manager) luaReflect(L *lua.LState) int {
	h := m.boundHost(L)
	ok, err := h.ApplyReflect(L.CheckInt(1), float64(L.CheckNumber(2)), L.CheckInt(3))
	return pushResult(L, ok, err)
}

func (m *Manager) luaDamageBonus(L *lua.LState) int {
	L.Push(lua.LNumber(m.boundHost(L).DamageBonus(L.CheckInt(1))))
	return 1
}

func (m *Manager) luaReflectPercent(L *lua.LState) int {
	L.Push(lua.LNumber(m.boundHost(L).ReflectPercent(L.CheckInt(1))))
	return 1
}

func (m *Manager) luaMessage(L *lua.LState) int {
	m.boundHost(L).Log(L.CheckString(1))
	return 0
}
