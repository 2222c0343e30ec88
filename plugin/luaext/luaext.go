// Package luaext loads plugins authored as Lua scripts. A script declares
// its identity, settings, and hooks as globals:
//
//	plugin = { name = "sessiontoast", author = "alice", enabled = true }
//	settings = {
//	    { key = "volume", kind = "range", display = "Volume", default = 5, min = 0, max = 10 },
//	    { key = "mode", kind = "choice", display = "Mode", choices = {"quiet", "loud"}, default = "quiet" },
//	}
//	hooks = {
//	    login = function(args) ... end,
//	    tick  = function(args) ... end,
//	}
//	function init() end
//	function start() end
//	function stop() end
//
// Scripts run in a sandboxed state: only the base, table, string, and math
// libraries are opened; io, os, and debug are unavailable. Each call into
// Lua is bounded by a wall-clock timeout so a runaway script cannot stall
// event dispatch for the other plugins.
package luaext

import (
	"context"
	"fmt"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/veldt-labs/gamehost/plugin"
)

// CallTimeout bounds one synchronous call into a script.
const CallTimeout = 5 * time.Second

// Plugin wraps a Lua script as a host plugin. All calls into the script are
// serialized; gopher-lua states are not goroutine-safe.
type Plugin struct {
	plugin.Base

	mu sync.Mutex
	ls *lua.LState
}

// Load reads and executes a plugin script, returning the wrapped plugin.
// Script errors (bad declarations, unsupported setting kinds) are
// configuration errors and fail the load.
func Load(path string) (*Plugin, error) {
	ls := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(ls)

	if err := ls.DoFile(path); err != nil {
		ls.Close()
		return nil, fmt.Errorf("lua plugin %s: %w", path, err)
	}

	p := &Plugin{ls: ls}
	if err := p.build(path); err != nil {
		ls.Close()
		return nil, err
	}
	return p, nil
}

// openSafeLibraries opens only the Lua standard libraries that cannot touch
// the filesystem or process.
func openSafeLibraries(ls *lua.LState) {
	lua.OpenBase(ls)
	lua.OpenTable(ls)
	lua.OpenString(ls)
	lua.OpenMath(ls)
}

func (p *Plugin) build(path string) error {
	meta, ok := p.ls.GetGlobal("plugin").(*lua.LTable)
	if !ok {
		return fmt.Errorf("lua plugin %s: missing global plugin table", path)
	}
	name := lua.LVAsString(meta.RawGetString("name"))
	author := lua.LVAsString(meta.RawGetString("author"))
	if name == "" {
		return fmt.Errorf("lua plugin %s: plugin.name is required", path)
	}
	enabled := lua.LVAsBool(meta.RawGetString("enabled"))

	set := plugin.NewSettings(enabled)
	if decls, ok := p.ls.GetGlobal("settings").(*lua.LTable); ok {
		var buildErr error
		decls.ForEach(func(_, v lua.LValue) {
			if buildErr != nil {
				return
			}
			tbl, ok := v.(*lua.LTable)
			if !ok {
				buildErr = fmt.Errorf("lua plugin %s: settings entries must be tables", name)
				return
			}
			st, err := p.buildSetting(tbl)
			if err != nil {
				buildErr = fmt.Errorf("lua plugin %s: %w", name, err)
				return
			}
			set.Add(st)
		})
		if buildErr != nil {
			return buildErr
		}
	}

	p.Base = plugin.NewBase(name, author, set)

	if hooks, ok := p.ls.GetGlobal("hooks").(*lua.LTable); ok {
		hooks.ForEach(func(k, v lua.LValue) {
			event := lua.LVAsString(k)
			fn, ok := v.(*lua.LFunction)
			if event == "" || !ok {
				return
			}
			p.On(event, func(ctx context.Context, ev plugin.Event) error {
				return p.callFunction(ctx, fn, argsToLua(p.ls, ev.Args))
			})
		})
	}
	return nil
}

// buildSetting converts one Lua declaration table into a typed setting. An
// optional on_change function in the table is wired to the setting's change
// callback.
func (p *Plugin) buildSetting(tbl *lua.LTable) (plugin.Setting, error) {
	key := lua.LVAsString(tbl.RawGetString("key"))
	display := lua.LVAsString(tbl.RawGetString("display"))
	kind := lua.LVAsString(tbl.RawGetString("kind"))
	if key == "" {
		return nil, fmt.Errorf("setting declaration missing key")
	}
	onChange, _ := tbl.RawGetString("on_change").(*lua.LFunction)

	fire := func(v lua.LValue) {
		if onChange == nil {
			return
		}
		_ = p.callFunction(context.Background(), onChange, v)
	}

	var st plugin.Setting
	switch plugin.Kind(kind) {
	case plugin.KindToggle:
		s := plugin.NewToggle(key, display, lua.LVAsBool(tbl.RawGetString("default")))
		s.OnChange = func(v bool) { fire(lua.LBool(v)) }
		st = s
	case plugin.KindRange:
		s := plugin.NewRange(key, display,
			float64(lua.LVAsNumber(tbl.RawGetString("default"))),
			float64(lua.LVAsNumber(tbl.RawGetString("min"))),
			float64(lua.LVAsNumber(tbl.RawGetString("max"))))
		s.OnChange = func(v float64) { fire(lua.LNumber(v)) }
		st = s
	case plugin.KindColor:
		s := plugin.NewColor(key, display, lua.LVAsString(tbl.RawGetString("default")))
		s.OnChange = func(v string) { fire(lua.LString(v)) }
		st = s
	case plugin.KindText:
		s := plugin.NewText(key, display, lua.LVAsString(tbl.RawGetString("default")))
		s.OnChange = func(v string) { fire(lua.LString(v)) }
		st = s
	case plugin.KindButton:
		st = plugin.NewButton(key, display, func() { fire(lua.LNil) })
	case plugin.KindChoice:
		var choices []string
		if list, ok := tbl.RawGetString("choices").(*lua.LTable); ok {
			list.ForEach(func(_, v lua.LValue) {
				choices = append(choices, lua.LVAsString(v))
			})
		}
		if len(choices) == 0 {
			return nil, fmt.Errorf("setting %s: choice kind requires choices", key)
		}
		s := plugin.NewChoice(key, display, choices, lua.LVAsString(tbl.RawGetString("default")))
		s.OnChange = func(v string) { fire(lua.LString(v)) }
		st = s
	default:
		return nil, fmt.Errorf("setting %s: unsupported kind %q", key, kind)
	}

	if desc := lua.LVAsString(tbl.RawGetString("description")); desc != "" {
		type describable interface{ SetDescription(string) }
		st.(describable).SetDescription(desc)
	}
	return st, nil
}

// Init calls the script's init function if declared.
func (p *Plugin) Init(ctx context.Context) error { return p.callGlobal(ctx, "init") }

// PostInit calls the script's post_init function if declared.
func (p *Plugin) PostInit(ctx context.Context) error { return p.callGlobal(ctx, "post_init") }

// Start calls the script's start function if declared.
func (p *Plugin) Start(ctx context.Context) error { return p.callGlobal(ctx, "start") }

// Stop calls the script's stop function if declared.
func (p *Plugin) Stop(ctx context.Context) error { return p.callGlobal(ctx, "stop") }

// Close releases the Lua state. The plugin must not be used afterwards.
func (p *Plugin) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ls.Close()
}

func (p *Plugin) callGlobal(ctx context.Context, name string) error {
	fn, ok := p.ls.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return nil
	}
	return p.callFunction(ctx, fn)
}

func (p *Plugin) callFunction(ctx context.Context, fn *lua.LFunction, args ...lua.LValue) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, CallTimeout)
	defer cancel()
	p.ls.SetContext(ctx)
	defer p.ls.SetContext(context.Background())

	if err := p.ls.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args...); err != nil {
		return fmt.Errorf("lua plugin %s: %w", p.Name(), err)
	}
	return nil
}

// argsToLua converts decoded event arguments to a single Lua table argument
// holding the positional values.
func argsToLua(ls *lua.LState, args []any) lua.LValue {
	tbl := ls.NewTable()
	for _, a := range args {
		tbl.Append(toLua(ls, a))
	}
	return tbl
}

func toLua(ls *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case float64:
		return lua.LNumber(val)
	case int:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []any:
		tbl := ls.NewTable()
		for _, item := range val {
			tbl.Append(toLua(ls, item))
		}
		return tbl
	case map[string]any:
		tbl := ls.NewTable()
		for k, item := range val {
			tbl.RawSetString(k, toLua(ls, item))
		}
		return tbl
	}
	return lua.LString(fmt.Sprintf("%v", v))
}
