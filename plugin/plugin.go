// Package plugin defines the contract an extension must satisfy to run
// inside the host: a stable name, a typed settings set, explicitly
// registered event hooks, and the init/start/stop lifecycle.
//
// Plugins declare their settings and hooks in their constructor, embed Base
// for the boilerplate, and self-register a factory in an init function so a
// blank import is enough to make them available:
//
//	_ "github.com/veldt-labs/gamehost/internal/plugins/sessionclock"
//
// A plugin must not be started before its settings have been reconciled with
// the store; the host enforces that ordering.
package plugin

import "context"

// Plugin is a named unit of behavior hosted alongside the game session.
//
// Name is the stable identity used for persistence lookup and must be unique
// across the registry. Lifecycle calls arrive in a fixed order: Init once per
// session start (no game session may be assumed active), then Start after
// every plugin has initialized, then Stop at session end. Stop must release
// everything the plugin acquired; the host does not track per-plugin
// resources.
//
// A disabled plugin still receives lifecycle calls and events. Each plugin
// checks its own enable toggle inside feature hooks before acting; the host
// never filters dispatch by enablement.
type Plugin interface {
	Name() string
	Author() string
	Settings() *SettingSet
	Hooks() *HookSet

	Init(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// PostIniter is an optional capability. PostInit runs after every plugin's
// Init has completed and before any plugin's Start, so implementations may
// safely reference sibling plugins.
type PostIniter interface {
	PostInit(ctx context.Context) error
}

// Base carries the common plugin plumbing. Embed it and override the
// lifecycle methods you need; the defaults are no-ops.
type Base struct {
	name     string
	author   string
	settings *SettingSet
	hooks    HookSet
}

// NewBase creates the embedded plugin core. A nil settings set gets a
// default one with enable off.
func NewBase(name, author string, settings *SettingSet) Base {
	if settings == nil {
		settings = NewSettings(false)
	}
	return Base{name: name, author: author, settings: settings}
}

// Name returns the plugin's stable identity.
func (b *Base) Name() string { return b.name }

// Author returns the plugin author shown in the settings surface.
func (b *Base) Author() string { return b.author }

// Settings returns the plugin's settings set.
func (b *Base) Settings() *SettingSet { return b.settings }

// Hooks returns the plugin's event hook set.
func (b *Base) Hooks() *HookSet { return &b.hooks }

// On registers an event handler; shorthand for Hooks().On.
func (b *Base) On(name string, fn HandlerFunc) { b.hooks.On(name, fn) }

// Enabled reports the plugin's enable toggle.
func (b *Base) Enabled() bool { return b.settings.Enabled() }

// Init implements Plugin with a no-op.
func (b *Base) Init(context.Context) error { return nil }

// Start implements Plugin with a no-op.
func (b *Base) Start(context.Context) error { return nil }

// Stop implements Plugin with a no-op.
func (b *Base) Stop(context.Context) error { return nil }
