package store

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLStoreRoundTrip(t *testing.T) {
	s := newTestSQLStore(t)
	ctx := context.Background()

	want := map[string]any{"enable": true, "opacity": float64(0.5), "label": "hp"}
	if err := s.PutPlugin(ctx, "Alice", "nameplates", want); err != nil {
		t.Fatal(err)
	}

	rec, err := s.Get(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	got := rec["nameplates"]
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v (%T), want %v (%T)", k, got[k], got[k], v, v)
		}
	}
}

func TestSQLStorePartitioning(t *testing.T) {
	s := newTestSQLStore(t)
	ctx := context.Background()

	_ = s.PutPlugin(ctx, "bob", "a", map[string]any{"x": "before"})
	_ = s.PutPlugin(ctx, "bob", "b", map[string]any{"y": "other"})
	if err := s.PutPlugin(ctx, "bob", "a", map[string]any{"x": "after"}); err != nil {
		t.Fatal(err)
	}

	rec, err := s.Get(ctx, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if rec["a"]["x"] != "after" {
		t.Errorf("a.x = %v", rec["a"]["x"])
	}
	if rec["b"]["y"] != "other" {
		t.Errorf("b.y = %v; plugin b was clobbered by plugin a's write", rec["b"]["y"])
	}
}

func TestSQLStorePutTransaction(t *testing.T) {
	s := newTestSQLStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "carol", Record{
		"one": {"enable": true},
		"two": {"enable": false, "n": float64(3)},
	}); err != nil {
		t.Fatal(err)
	}

	rec, err := s.Get(ctx, "carol")
	if err != nil {
		t.Fatal(err)
	}
	if len(rec) != 2 {
		t.Fatalf("got %d plugins", len(rec))
	}
	if rec["two"]["n"] != float64(3) {
		t.Errorf("two.n = %v", rec["two"]["n"])
	}
}

func TestSQLStoreSkipsCorruptPayload(t *testing.T) {
	s := newTestSQLStore(t)
	ctx := context.Background()

	_ = s.PutPlugin(ctx, "dave", "good", map[string]any{"enable": true})
	// Nested objects violate the flat-primitive schema and must be dropped
	// on read, not crash reconciliation.
	if _, err := s.db.Exec(
		s.bind(`INSERT INTO plugin_settings(user_id, plugin, data, updated_at) VALUES(?, ?, ?, CURRENT_TIMESTAMP)`),
		"dave", "bad", `{"nested":{"a":1}}`); err != nil {
		t.Fatal(err)
	}

	rec, err := s.Get(ctx, "dave")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := rec["bad"]; ok {
		t.Error("schema-invalid payload survived the read")
	}
	if _, ok := rec["good"]; !ok {
		t.Error("valid payload was lost")
	}
}
