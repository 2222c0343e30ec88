package plugin

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDuplicatePlugin is returned when a plugin name is registered twice.
// Duplicate names are a configuration error, not a runtime condition.
var ErrDuplicatePlugin = errors.New("duplicate plugin name")

// Factory creates a new instance of a plugin.
type Factory func() Plugin

// factories is the global registry of plugin factories. Built-in plugins add
// themselves here from an init function.
var factories = map[string]Factory{}

// RegisterFactory registers a plugin factory by name.
func RegisterFactory(name string, factory Factory) {
	factories[name] = factory
}

// LookupFactory returns a plugin factory by name.
func LookupFactory(name string) (Factory, bool) {
	f, ok := factories[name]
	return f, ok
}

// FactoryNames returns the sorted names of all registered plugin factories.
func FactoryNames() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Registry holds the ordered set of live plugin instances. Registration
// order governs both settings-surface row order and event dispatch order.
type Registry struct {
	order  []Plugin
	byName map[string]Plugin
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Plugin)}
}

// Register appends a plugin instance. A duplicate name fails with
// ErrDuplicatePlugin.
func (r *Registry) Register(p Plugin) error {
	if p == nil {
		return fmt.Errorf("register plugin: nil plugin")
	}
	name := p.Name()
	if name == "" {
		return fmt.Errorf("register plugin: empty name")
	}
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("register plugin %q: %w", name, ErrDuplicatePlugin)
	}
	r.byName[name] = p
	r.order = append(r.order, p)
	return nil
}

// Plugins returns the live ordered plugin list.
func (r *Registry) Plugins() []Plugin { return r.order }

// Get returns a registered plugin by name.
func (r *Registry) Get(name string) (Plugin, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// Len returns the number of registered plugins.
func (r *Registry) Len() int { return len(r.order) }
