// Package surface serves the settings presentation contract over HTTP: a
// filterable list of plugin rows, per-plugin setting detail rows typed by
// kind, and a write endpoint routed through the settings manager's
// validation protocol. Reactive hidden/disabled refreshes are pushed to the
// page over a websocket.
package surface

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/veldt-labs/gamehost/plugin"
	"github.com/veldt-labs/gamehost/settings"
)

// Handlers holds dependencies for the settings surface endpoints.
type Handlers struct {
	Settings *settings.Manager
	Hub      *Hub
}

// Routes returns a chi.Router with the settings surface mounted.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/plugins", h.listPlugins)
	r.Get("/plugins/{name}/settings", h.listSettings)
	r.Put("/plugins/{name}/settings/{key}", h.setValue)
	if h.Hub != nil {
		r.Get("/push", h.Hub.Handler())
	}
	return r
}

// pluginRow is the summary row shown in the plugin list: identity plus the
// enable toggle, which is rendered here and never in the detail list.
type pluginRow struct {
	Name     string `json:"name"`
	Author   string `json:"author"`
	Enabled  bool   `json:"enabled"`
	Settings int    `json:"settings"`
}

// settingRow is one detail row. Kind-specific fields are populated only for
// the kinds that carry them.
type settingRow struct {
	Key         string   `json:"key"`
	Kind        string   `json:"kind"`
	DisplayText string   `json:"display_text"`
	Description string   `json:"description,omitempty"`
	Value       any      `json:"value,omitempty"`
	Hidden      bool     `json:"hidden"`
	Disabled    bool     `json:"disabled"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	Choices     []string `json:"choices,omitempty"`
}

func (h *Handlers) listPlugins(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("filter")
	rows := make([]pluginRow, 0)
	for _, p := range h.Settings.Filter(filter) {
		rows = append(rows, pluginRow{
			Name:     p.Name(),
			Author:   p.Author(),
			Enabled:  p.Settings().Enabled(),
			Settings: len(p.Settings().Listed()),
		})
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handlers) listSettings(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	plugins := h.Settings.Filter("")
	var target plugin.Plugin
	for _, p := range plugins {
		if p.Name() == name {
			target = p
			break
		}
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "unknown plugin: "+name)
		return
	}

	rows := make([]settingRow, 0, len(target.Settings().Listed()))
	for _, st := range target.Settings().Listed() {
		rows = append(rows, describe(st))
	}
	writeJSON(w, http.StatusOK, rows)
}

// describe builds the kind-typed view of one setting.
func describe(st plugin.Setting) settingRow {
	row := settingRow{
		Key:         st.Key(),
		Kind:        string(st.Kind()),
		DisplayText: st.DisplayText(),
		Description: st.Description(),
		Hidden:      st.Hidden(),
		Disabled:    st.Disabled(),
	}
	if v, ok := st.Snapshot(); ok {
		row.Value = v
	}
	switch s := st.(type) {
	case *plugin.RangeSetting:
		min, max := s.Min(), s.Max()
		row.Min, row.Max = &min, &max
	case *plugin.ChoiceSetting:
		row.Choices = s.Choices()
	}
	return row
}

type valueChange struct {
	Value any `json:"value"`
}

func (h *Handlers) setValue(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	key := chi.URLParam(r, "key")

	var body valueChange
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	err := h.Settings.SetValue(r.Context(), name, key, body.Value)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case errors.Is(err, settings.ErrUnknownPlugin), errors.Is(err, settings.ErrUnknownSetting):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, plugin.ErrBadKind):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, plugin.ErrOutOfRange), errors.Is(err, plugin.ErrValidation):
		// Validation failure: nothing was persisted; the page restores the
		// prior value and shows the inline error affordance.
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
