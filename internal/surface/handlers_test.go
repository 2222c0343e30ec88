package surface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/veldt-labs/gamehost/plugin"
	"github.com/veldt-labs/gamehost/settings"
	"github.com/veldt-labs/gamehost/store"
)

type surfacePlugin struct {
	plugin.Base
}

func newSurfacePlugin(name, author string) *surfacePlugin {
	p := &surfacePlugin{}
	s := plugin.NewSettings(true)
	s.Add(plugin.NewRange("size", "Size", 4, 0, 10))
	s.Add(plugin.NewChoice("style", "Style", []string{"flat", "round"}, "flat"))
	p.Base = plugin.NewBase(name, author, s)
	return p
}

func newTestHandlers(t *testing.T) (*Handlers, *settings.Manager) {
	t.Helper()
	reg := plugin.NewRegistry()
	for _, p := range []*surfacePlugin{
		newSurfacePlugin("Nameplates", "alice"),
		newSurfacePlugin("WikiLookup", "bob"),
	} {
		if err := reg.Register(p); err != nil {
			t.Fatal(err)
		}
	}
	m := settings.NewManager(reg, store.NewMemory(), "alice")
	t.Cleanup(m.Close)
	if err := m.RegisterPlugins(context.Background()); err != nil {
		t.Fatal(err)
	}
	return &Handlers{Settings: m}, m
}

func TestListPluginsAndFilter(t *testing.T) {
	h, _ := newTestHandlers(t)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	var rows []pluginRow
	getJSON(t, srv.URL+"/plugins", &rows)
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[0].Name != "Nameplates" || !rows[0].Enabled || rows[0].Settings != 2 {
		t.Errorf("row[0] = %+v", rows[0])
	}

	getJSON(t, srv.URL+"/plugins?filter=ali", &rows)
	if len(rows) != 1 || rows[0].Name != "Nameplates" {
		t.Errorf("filter=ali rows = %+v", rows)
	}
}

func TestListSettingsExcludesEnable(t *testing.T) {
	h, _ := newTestHandlers(t)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	var rows []settingRow
	getJSON(t, srv.URL+"/plugins/Nameplates/settings", &rows)
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	for _, row := range rows {
		if row.Key == "enable" {
			t.Error("enable rendered in detail list")
		}
	}
	if rows[0].Kind != "range" || rows[0].Min == nil || *rows[0].Max != 10 {
		t.Errorf("range row = %+v", rows[0])
	}
	if rows[1].Kind != "choice" || len(rows[1].Choices) != 2 {
		t.Errorf("choice row = %+v", rows[1])
	}
}

func TestSetValueWriteProtocol(t *testing.T) {
	h, m := newTestHandlers(t)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	if status := putValue(t, srv.URL+"/plugins/Nameplates/settings/size", `{"value": 7}`); status != http.StatusOK {
		t.Errorf("accepted write status = %d", status)
	}
	// Out of range: rejected, 422, no state change.
	if status := putValue(t, srv.URL+"/plugins/Nameplates/settings/size", `{"value": 99}`); status != http.StatusUnprocessableEntity {
		t.Errorf("out-of-range status = %d", status)
	}
	// Wrong type.
	if status := putValue(t, srv.URL+"/plugins/Nameplates/settings/size", `{"value": "big"}`); status != http.StatusBadRequest {
		t.Errorf("bad-kind status = %d", status)
	}
	// Unknown setting.
	if status := putValue(t, srv.URL+"/plugins/Nameplates/settings/nope", `{"value": 1}`); status != http.StatusNotFound {
		t.Errorf("unknown-setting status = %d", status)
	}

	p := m.Filter("Nameplates")[0]
	st, _ := p.Settings().Get("size")
	if v, _ := st.Snapshot(); v != float64(7) {
		t.Errorf("size = %v after rejected writes, want 7", v)
	}
}

func TestEnableToggleOverHTTP(t *testing.T) {
	h, m := newTestHandlers(t)
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	if status := putValue(t, srv.URL+"/plugins/WikiLookup/settings/enable", `{"value": false}`); status != http.StatusOK {
		t.Errorf("enable write status = %d", status)
	}
	if m.Filter("WikiLookup")[0].Settings().Enabled() {
		t.Error("enable toggle not applied")
	}
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s = %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatal(err)
	}
}

func putValue(t *testing.T, url, body string) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodPut, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode
}
