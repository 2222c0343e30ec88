package plugin

import (
	"context"
	"sort"
)

// Canonical event names forwarded from the game session feed. Plugins may
// also register hooks for arbitrary game-domain event names.
const (
	EventLogin  = "login"
	EventLogout = "logout"
	EventTick   = "tick"
)

// Event is a named game or session event with its decoded arguments,
// forwarded verbatim from the game feed.
type Event struct {
	Name string
	Args []any
}

// HandlerFunc handles one dispatched event. An error (or panic) is logged
// against the owning plugin and never reaches sibling plugins.
type HandlerFunc func(ctx context.Context, ev Event) error

// HookSet maps event names to handlers. Plugins register handlers once in
// their constructor with On; the host resolves the mapping statically at
// dispatch time instead of reflecting over method names.
type HookSet struct {
	handlers map[string][]HandlerFunc
}

// On registers a handler for the named event. Multiple handlers for the same
// name run in registration order.
func (h *HookSet) On(name string, fn HandlerFunc) {
	if fn == nil {
		return
	}
	if h.handlers == nil {
		h.handlers = make(map[string][]HandlerFunc)
	}
	h.handlers[name] = append(h.handlers[name], fn)
}

// Handlers returns the handlers registered for the named event.
func (h *HookSet) Handlers(name string) []HandlerFunc {
	return h.handlers[name]
}

// Names returns the sorted event names this set handles.
func (h *HookSet) Names() []string {
	names := make([]string, 0, len(h.handlers))
	for n := range h.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
