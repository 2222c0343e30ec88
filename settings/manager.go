// Package settings bridges persisted settings records, the live plugin
// setting objects, and the settings surface. It owns reconciliation at
// startup, the validated write protocol for user edits, and the deferred
// reactive refresh that keeps the surface in sync with hidden/disabled
// state changed by plugin callbacks.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/veldt-labs/gamehost/internal/logging"
	"github.com/veldt-labs/gamehost/internal/metrics"
	"github.com/veldt-labs/gamehost/plugin"
	"github.com/veldt-labs/gamehost/store"
)

// Errors returned by the write protocol for unknown targets.
var (
	ErrUnknownPlugin  = errors.New("unknown plugin")
	ErrUnknownSetting = errors.New("unknown setting")
)

// Surface receives reactive refresh notifications. RefreshSetting is called
// from the manager's refresh goroutine after a setting's presentation state
// changes; implementations must not call back into the manager.
type Surface interface {
	RefreshSetting(pluginName, key string, hidden, disabled bool)
}

// Manager reconciles the registry's in-memory settings with the store and
// drives the write and refresh protocols. One instance serves one user
// identity for the lifetime of the host.
//
// All setting callbacks run under the queue mutex. The host locks the same
// mutex around plugin hooks and lifecycle calls, so a hook never runs
// concurrently with an OnChange or OnPress callback touching the same
// plugin state.
type Manager struct {
	mu      *sync.Mutex
	reg     *plugin.Registry
	store   store.Store
	user    string
	surface Surface
	refresh *refresher
}

// NewManager creates a settings manager for the given user identity. The
// identity is normalized to lowercase; settings records are partitioned per
// this identity.
func NewManager(reg *plugin.Registry, st store.Store, userID string) *Manager {
	m := &Manager{
		mu:    &sync.Mutex{},
		reg:   reg,
		store: st,
		user:  store.NormalizeUser(userID),
	}
	m.refresh = newRefresher(m.deliver)
	return m
}

// Queue returns the mutex serializing the cooperative queue: settings
// writes, reconciliation, and (via the host) plugin hooks all run under it.
// Code holding it must not call back into the manager.
func (m *Manager) Queue() *sync.Mutex { return m.mu }

// SetSurface attaches the presentation surface receiving refresh pushes.
// A nil surface silently drops refreshes (headless mode, tests).
func (m *Manager) SetSurface(s Surface) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.surface = s
}

// User returns the normalized user identity this manager serves.
func (m *Manager) User() string { return m.user }

// Close stops the refresh goroutine.
func (m *Manager) Close() { m.refresh.close() }

// RegisterPlugins reconciles every registered plugin's settings with the
// store, in registration order:
//
//  1. Load the user's full persisted record (a new user gets an empty one).
//  2. Overlay stored primitives onto matching live settings, firing each
//     setting's loaded callback. Stored keys without a live counterpart are
//     ignored, so removed or renamed settings never crash a load.
//  3. Normalize single-choice settings whose value is no longer a member of
//     the choice list, through the regular write path so change callbacks
//     fire.
//  4. Write the plugin's full snapshot back, creating first-run records and
//     healing missing keys with constructor defaults.
//  5. Install the state observer that feeds the reactive refresh queue.
//
// A store failure for one plugin is logged, counted, and folded into the
// returned error without blocking reconciliation of the remaining plugins.
func (m *Manager) RegisterPlugins(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	rec, err := m.store.Get(ctx, m.user)
	if err != nil {
		errs = append(errs, fmt.Errorf("load settings record: %w", err))
		rec = make(store.Record)
	}

	for _, p := range m.reg.Plugins() {
		log := logging.FromContext(logging.WithPlugin(ctx, p.Name()))
		stored := rec[p.Name()]

		for _, st := range p.Settings().All() {
			v, ok := stored[st.Key()]
			if !ok {
				continue
			}
			if err := st.ApplyStored(v); err != nil {
				// Stale type from an older plugin version; keep the default.
				log.Warn("discarding stored setting value", "key", st.Key(), "error", err)
			}
		}

		for _, st := range p.Settings().All() {
			cs, ok := st.(*plugin.ChoiceSetting)
			if !ok || cs.Member(cs.Value()) {
				continue
			}
			first := cs.Choices()[0]
			log.Info("normalizing choice setting", "key", cs.Key(), "value", first)
			if err := cs.ApplyUser(first); err != nil {
				errs = append(errs, fmt.Errorf("normalize %s/%s: %w", p.Name(), cs.Key(), err))
			}
		}

		if err := m.store.PutPlugin(ctx, m.user, p.Name(), p.Settings().Snapshot()); err != nil {
			log.Error("persisting settings snapshot failed", "error", err)
			errs = append(errs, fmt.Errorf("persist settings for %s: %w", p.Name(), err))
		}

		for _, st := range p.Settings().Listed() {
			m.observe(p.Name(), st)
		}
	}

	return errors.Join(errs...)
}

// observe wires a setting's hidden/disabled changes into the refresh queue.
// The presentation state is captured at notification time so the refresh
// goroutine never reads live setting objects.
func (m *Manager) observe(pluginName string, st plugin.Setting) {
	st.Observe(func() {
		m.refresh.enqueue(refreshReq{
			plugin:   pluginName,
			key:      st.Key(),
			hidden:   st.Hidden(),
			disabled: st.Disabled(),
		})
	})
}

// SetValue runs the write protocol for a user-driven change:
//
//   - enable toggles bypass validation and the refresh pass; they persist
//     and fire their own change callback only
//   - buttons skip validation and invoke their callback
//   - everything else is bounds-checked and validated; a rejected candidate
//     changes nothing and nothing is persisted
//   - an accepted write fires the setting's change callback, persists the
//     plugin's full snapshot, and schedules a refresh of every setting's
//     presentation state, since change callbacks may have revealed, hidden,
//     or disabled any other setting
func (m *Manager) SetValue(ctx context.Context, pluginName, key string, candidate any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.reg.Get(pluginName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlugin, pluginName)
	}
	st, ok := p.Settings().Get(key)
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrUnknownSetting, pluginName, key)
	}

	if key == plugin.EnableKey {
		return m.setEnable(ctx, p, candidate)
	}

	if err := st.ApplyUser(candidate); err != nil {
		metrics.SettingsWrites.WithLabelValues(pluginName, "rejected").Inc()
		return err
	}

	if err := m.persist(ctx, p); err != nil {
		metrics.SettingsWrites.WithLabelValues(pluginName, "store_error").Inc()
		return err
	}
	metrics.SettingsWrites.WithLabelValues(pluginName, "accepted").Inc()

	m.refreshAll()
	return nil
}

// setEnable writes the reserved enable toggle: no validator, no refresh
// pass; plugins observe their own enable state inside feature hooks.
func (m *Manager) setEnable(ctx context.Context, p plugin.Plugin, candidate any) error {
	b, ok := candidate.(bool)
	if !ok {
		metrics.SettingsWrites.WithLabelValues(p.Name(), "rejected").Inc()
		return fmt.Errorf("setting %s: candidate %T: %w", plugin.EnableKey, candidate, plugin.ErrBadKind)
	}
	en := p.Settings().Enable()
	en.Set(b)
	if en.OnChange != nil {
		en.OnChange(b)
	}
	if err := m.persist(ctx, p); err != nil {
		metrics.SettingsWrites.WithLabelValues(p.Name(), "store_error").Inc()
		return err
	}
	metrics.SettingsWrites.WithLabelValues(p.Name(), "accepted").Inc()
	return nil
}

func (m *Manager) persist(ctx context.Context, p plugin.Plugin) error {
	if err := m.store.PutPlugin(ctx, m.user, p.Name(), p.Settings().Snapshot()); err != nil {
		return fmt.Errorf("persist settings for %s: %w", p.Name(), err)
	}
	return nil
}

// refreshAll schedules a presentation refresh for every listed setting of
// every plugin. Settings have no declared dependency graph; plugins express
// dependencies by mutating each other's hidden/disabled state inside change
// callbacks, so any accepted write may affect any setting.
func (m *Manager) refreshAll() {
	for _, p := range m.reg.Plugins() {
		for _, st := range p.Settings().Listed() {
			m.refresh.enqueue(refreshReq{
				plugin:   p.Name(),
				key:      st.Key(),
				hidden:   st.Hidden(),
				disabled: st.Disabled(),
			})
		}
	}
}

// deliver pushes one coalesced refresh to the surface.
func (m *Manager) deliver(req refreshReq) {
	m.mu.Lock()
	surface := m.surface
	m.mu.Unlock()
	if surface == nil {
		return
	}
	metrics.SurfaceRefreshes.Inc()
	surface.RefreshSetting(req.plugin, req.key, req.hidden, req.disabled)
}

// Filter returns the plugins whose name or author contains q,
// case-insensitively. An empty q returns every plugin. Filtering only
// selects rows; it never mutates settings state.
func (m *Manager) Filter(q string) []plugin.Plugin {
	all := m.reg.Plugins()
	if q == "" {
		return all
	}
	q = strings.ToLower(q)
	out := make([]plugin.Plugin, 0, len(all))
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.Name()), q) ||
			strings.Contains(strings.ToLower(p.Author()), q) {
			out = append(out, p)
		}
	}
	return out
}
