// Package gamehost is an extension host for a live browser game. It runs
// registered plugins in lockstep with game session events and owns each
// plugin's typed, validated, persisted settings.
//
// The Host type is the main entry point: create one with New, register
// plugins with RegisterPlugin (or let the config instantiate registered
// factories), call Start to reconcile settings and run the plugin
// lifecycle, and feed game events through Dispatch. The settings surface
// and store are wired explicitly; there are no process-wide singletons
// beyond the plugin factory registry.
package gamehost

import (
	"context"
	"fmt"
	"sync"

	"github.com/veldt-labs/gamehost/internal/logging"
	"github.com/veldt-labs/gamehost/internal/metrics"
	"github.com/veldt-labs/gamehost/plugin"
	"github.com/veldt-labs/gamehost/settings"
	"github.com/veldt-labs/gamehost/store"
)

// Host orchestrates the plugin lifecycle: it owns the registry, reconciles
// settings before any plugin initializes, fans game events out to plugin
// hooks, and tears plugins down at session end.
//
// Everything runs on one cooperative queue: lifecycle transitions, event
// dispatch, and settings callbacks are serialized by a single mutex shared
// with the settings manager, so plugin hooks never observe concurrent
// mutation. Hooks must not call back into the settings manager.
type Host struct {
	mu       *sync.Mutex
	cfg      Config
	registry *plugin.Registry
	store    store.Store
	settings *settings.Manager
	started  bool
}

// New creates a Host over the given store and instantiates the plugins named
// in cfg.Plugins from the factory registry (all registered factories when
// the list is empty). Additional plugins may be added with RegisterPlugin
// before Start.
func New(cfg Config, st store.Store) (*Host, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	h := &Host{
		cfg:      cfg,
		registry: plugin.NewRegistry(),
		store:    st,
	}
	h.settings = settings.NewManager(h.registry, st, cfg.User)
	h.mu = h.settings.Queue()

	names := cfg.Plugins
	if len(names) == 0 {
		names = plugin.FactoryNames()
	}
	for _, name := range names {
		f, ok := plugin.LookupFactory(name)
		if !ok {
			return nil, fmt.Errorf("unknown plugin %q (registered: %v)", name, plugin.FactoryNames())
		}
		if err := h.registry.Register(f()); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// OpenStore opens the settings store selected by cfg.
func OpenStore(cfg StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "", DriverSQLite:
		return store.NewSQLiteStore(cfg.DSN)
	case DriverPostgres:
		return store.NewPostgresStore(cfg.DSN)
	case DriverMemory:
		return store.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown store driver: %q", cfg.Driver)
}

// RegisterPlugin adds a plugin instance to the registry. Registration after
// Start is a configuration error.
func (h *Host) RegisterPlugin(p plugin.Plugin) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return fmt.Errorf("register plugin %q: host already started", p.Name())
	}
	return h.registry.Register(p)
}

// Registry returns the host's plugin registry.
func (h *Host) Registry() *plugin.Registry { return h.registry }

// Settings returns the host's settings manager.
func (h *Host) Settings() *settings.Manager { return h.settings }

// Start runs the startup sequence: settings reconciliation for every plugin,
// then Init for each plugin in registration order, then PostInit for every
// plugin implementing it, then Start for each plugin. PostInit for all
// plugins completes before Start runs for any plugin.
//
// A reconciliation failure is logged and does not prevent plugins from
// starting with their in-memory values; per-plugin lifecycle errors are
// isolated and logged against the offending plugin.
func (h *Host) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return fmt.Errorf("host already started")
	}
	h.started = true
	h.mu.Unlock()

	// RegisterPlugins takes the queue mutex itself; holding it here would
	// deadlock.
	if err := h.settings.RegisterPlugins(ctx); err != nil {
		logging.FromContext(ctx).Error("settings reconciliation incomplete", "error", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, p := range h.registry.Plugins() {
		h.safeCall(ctx, p.Name(), "init", p.Init)
	}
	for _, p := range h.registry.Plugins() {
		if pi, ok := p.(plugin.PostIniter); ok {
			h.safeCall(ctx, p.Name(), "post_init", pi.PostInit)
		}
	}
	for _, p := range h.registry.Plugins() {
		h.safeCall(ctx, p.Name(), "start", p.Start)
	}
	return nil
}

// Stop tears every plugin down in reverse registration order and stops the
// settings refresh queue. Plugin instances survive Stop; a later Start
// reuses them within the same process lifetime.
func (h *Host) Stop(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.started {
		return
	}
	plugins := h.registry.Plugins()
	for i := len(plugins) - 1; i >= 0; i-- {
		h.safeCall(ctx, plugins[i].Name(), "stop", plugins[i].Stop)
	}
	h.started = false
}

// Close releases the settings manager's background resources. Call after
// the final Stop.
func (h *Host) Close() { h.settings.Close() }

// Dispatch fans one game event out to every plugin exposing a matching
// hook, in registration order. Dispatch does not filter by the enable
// toggle; each plugin checks its own enablement inside feature hooks. A
// panic or error in one plugin's hook is logged and never reaches the next
// plugin.
func (h *Host) Dispatch(ctx context.Context, ev plugin.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	metrics.EventsDispatched.WithLabelValues(ev.Name).Inc()
	for _, p := range h.registry.Plugins() {
		for _, fn := range p.Hooks().Handlers(ev.Name) {
			fn := fn
			h.safeCall(ctx, p.Name(), ev.Name, func(ctx context.Context) error {
				return fn(ctx, ev)
			})
		}
	}
}

// Login dispatches the session login event.
func (h *Host) Login(ctx context.Context, args ...any) {
	h.Dispatch(ctx, plugin.Event{Name: plugin.EventLogin, Args: args})
}

// Logout dispatches the session logout event.
func (h *Host) Logout(ctx context.Context, args ...any) {
	h.Dispatch(ctx, plugin.Event{Name: plugin.EventLogout, Args: args})
}

// safeCall invokes one plugin hook behind the isolation boundary: an error
// or panic is logged with the plugin's identity and counted, and never
// propagates to sibling plugins or the caller.
func (h *Host) safeCall(ctx context.Context, pluginName, hook string, fn func(context.Context) error) {
	ctx = logging.WithPlugin(ctx, pluginName)
	defer func() {
		if r := recover(); r != nil {
			metrics.HookErrors.WithLabelValues(pluginName, hook).Inc()
			logging.FromContext(ctx).Error("plugin hook panicked", "hook", hook, "panic", r)
		}
	}()
	if err := fn(ctx); err != nil {
		metrics.HookErrors.WithLabelValues(pluginName, hook).Inc()
		logging.FromContext(ctx).Error("plugin hook failed", "hook", hook, "error", err)
	}
}
