package store

import (
	"context"
	"testing"
)

func TestMemoryUnknownUser(t *testing.T) {
	m := NewMemory()
	rec, err := m.Get(context.Background(), "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if len(rec) != 0 {
		t.Errorf("got %d plugins for unknown user", len(rec))
	}
}

func TestMemoryPartitioning(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.PutPlugin(ctx, "Alice", "nameplates", map[string]any{"enable": true, "size": float64(4)}); err != nil {
		t.Fatal(err)
	}
	if err := m.PutPlugin(ctx, "alice", "alerts", map[string]any{"enable": false}); err != nil {
		t.Fatal(err)
	}

	// Writing alerts must not touch nameplates; identity is case-insensitive.
	rec, err := m.Get(ctx, "ALICE")
	if err != nil {
		t.Fatal(err)
	}
	if rec["nameplates"]["size"] != float64(4) {
		t.Errorf("nameplates.size = %v", rec["nameplates"]["size"])
	}
	if rec["alerts"]["enable"] != false {
		t.Errorf("alerts.enable = %v", rec["alerts"]["enable"])
	}
}

func TestMemoryPutMerges(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_ = m.PutPlugin(ctx, "bob", "a", map[string]any{"x": "1"})
	if err := m.Put(ctx, "bob", Record{"b": {"y": "2"}}); err != nil {
		t.Fatal(err)
	}

	rec, _ := m.Get(ctx, "bob")
	if rec["a"]["x"] != "1" {
		t.Error("Put clobbered an absent plugin's sub-record")
	}
	if rec["b"]["y"] != "2" {
		t.Error("Put did not write the new sub-record")
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	_ = m.PutPlugin(ctx, "bob", "a", map[string]any{"x": "1"})

	rec, _ := m.Get(ctx, "bob")
	rec["a"]["x"] = "mutated"

	again, _ := m.Get(ctx, "bob")
	if again["a"]["x"] != "1" {
		t.Error("caller mutation leaked into the store")
	}
}

func TestRecordClone(t *testing.T) {
	r := Record{"p": {"k": true}}
	c := r.Clone()
	c["p"]["k"] = false
	if r["p"]["k"] != true {
		t.Error("Clone shares inner maps")
	}
}
