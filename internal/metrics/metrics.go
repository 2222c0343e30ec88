// Package metrics registers the Prometheus metrics used by the extension
// host. Import this package (via blank import) from the server entry point
// to register all metrics before the /metrics handler is mounted.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsDispatched counts game events fanned out to plugins, labelled by
	// event name.
	EventsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamehost_events_dispatched_total",
			Help: "Total game events dispatched to plugins.",
		},
		[]string{"event"},
	)

	// HookErrors counts errors and recovered panics inside plugin hooks,
	// labelled by plugin and hook name.
	HookErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamehost_plugin_hook_errors_total",
			Help: "Total errors raised inside plugin lifecycle and event hooks.",
		},
		[]string{"plugin", "hook"},
	)

	// SettingsWrites counts settings write attempts, labelled by plugin and
	// outcome ("accepted", "rejected", "store_error").
	SettingsWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamehost_settings_writes_total",
			Help: "Total settings write attempts through the write protocol.",
		},
		[]string{"plugin", "status"},
	)

	// StoreOps counts settings store operations, labelled by operation
	// ("get", "put", "put_plugin") and outcome.
	StoreOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gamehost_store_operations_total",
			Help: "Total settings store operations.",
		},
		[]string{"op", "status"},
	)

	// SurfaceRefreshes counts reactive refresh notifications delivered to the
	// settings surface.
	SurfaceRefreshes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gamehost_surface_refreshes_total",
			Help: "Total reactive setting refreshes pushed to the surface.",
		},
	)
)
