package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/isofacet/server/internal/data"
	"github.com/isofacet/server/internal/pathfind"
)

// Engine wraps a single gopher-lua VM holding movement rules.
// Single-goroutine access only (tick loop).
type Engine struct {
	vm       *lua.LState
	log      *zap.Logger
	fallback pathfind.DoorPolicy
}

// NewEngine creates a Lua engine and loads every script under
// scriptsDir/movement. A missing directory leaves only the built-in rules.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	vm.SetGlobal("FLAG_DOOR", lua.LNumber(data.FlagDoor))
	vm.SetGlobal("FLAG_BLOCKING", lua.LNumber(data.FlagBlocking))
	vm.SetGlobal("FLAG_SURFACE", lua.LNumber(data.FlagSurface))
	vm.SetGlobal("GHOST_GRAPHIC", lua.LNumber(pathfind.GhostGraphic))
	vm.SetGlobal("has_flag", vm.NewFunction(luaHasFlag))

	e := &Engine{vm: vm, log: log, fallback: pathfind.DefaultDoors{}}

	if err := e.loadDir(filepath.Join(scriptsDir, "movement")); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load movement scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// LoadString runs a chunk of Lua source, mainly for tests and tooling.
func (e *Engine) LoadString(src string) error {
	if err := e.vm.DoString(src); err != nil {
		return fmt.Errorf("load lua string: %w", err)
	}
	return nil
}

// luaHasFlag implements has_flag(flags, mask) for scripts.
func luaHasFlag(L *lua.LState) int {
	flags := uint64(L.CheckNumber(1))
	mask := uint64(L.CheckNumber(2))
	L.Push(lua.LBool(flags&mask != 0))
	return 1
}

// IgnoresDoors calls ignores_doors(graphic, dead) when a script defines it.
func (e *Engine) IgnoresDoors(graphic uint16, dead bool) bool {
	if v, ok := e.callBool("ignores_doors", lua.LNumber(graphic), lua.LBool(dead)); ok {
		return v
	}
	return e.fallback.IgnoresDoors(graphic, dead)
}

// IsDoor calls is_door(graphic, flags) when a script defines it.
func (e *Engine) IsDoor(graphic uint16, flags data.TileFlags) bool {
	if v, ok := e.callBool("is_door", lua.LNumber(graphic), lua.LNumber(flags)); ok {
		return v
	}
	return e.fallback.IsDoor(graphic, flags)
}

// callBool calls a global Lua function returning a boolean. ok is false when
// the function is missing or fails, so the caller can fall back.
func (e *Engine) callBool(name string, args ...lua.LValue) (result bool, ok bool) {
	fn := e.vm.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return false, false
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		e.log.Error("lua call error", zap.String("func", name), zap.Error(err))
		return false, false
	}

	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	return lua.LVAsBool(ret), true
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
