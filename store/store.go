// Package store persists plugin settings. The durable unit is a two-level
// record: user identity -> plugin name -> setting key -> primitive value
// (bool, number, or string). Values are stored as plain primitives, never as
// live setting objects, keeping storage decoupled from the runtime types.
//
// Implementations partition the record by plugin name so that writing one
// plugin's settings can never clobber another plugin's persisted data.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Record maps plugin name -> setting key -> primitive value for one user.
type Record map[string]map[string]any

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for name, vals := range r {
		cp := make(map[string]any, len(vals))
		for k, v := range vals {
			cp[k] = v
		}
		out[name] = cp
	}
	return out
}

// Store is the persistence boundary for plugin settings.
//
// Get returns the full record for a user; an unknown user yields an empty
// record, not an error. Put replaces every plugin sub-record present in rec,
// leaving plugins absent from rec untouched. PutPlugin is the partitioned
// fast path used by single-setting writes.
type Store interface {
	Get(ctx context.Context, userID string) (Record, error)
	Put(ctx context.Context, userID string, rec Record) error
	PutPlugin(ctx context.Context, userID, pluginName string, values map[string]any) error
	Close() error
}

// NormalizeUser lowercases and trims a user identity. Settings are
// partitioned per this normalized form.
func NormalizeUser(userID string) string {
	return strings.ToLower(strings.TrimSpace(userID))
}

// recordSchema validates a persisted per-plugin payload: a flat JSON object
// of primitive values. Anything else is treated as corruption and dropped.
var recordSchema = jsonschema.MustCompileString("plugin_settings.json", `{
	"type": "object",
	"additionalProperties": {
		"type": ["boolean", "number", "string"]
	}
}`)

func validatePayload(pluginName string, payload any) error {
	if err := recordSchema.Validate(payload); err != nil {
		return fmt.Errorf("settings payload for plugin %q: %w", pluginName, err)
	}
	return nil
}
