package store

import (
	"context"
	"sync"
)

// Memory is a thread-safe in-memory settings store. It backs tests and the
// "memory" config driver; records are deep-copied on the way in and out so
// callers never share state with the store.
type Memory struct {
	mu    sync.Mutex
	users map[string]Record
}

// NewMemory creates an empty in-memory settings store.
func NewMemory() *Memory {
	return &Memory{users: make(map[string]Record)}
}

// Get returns a copy of the user's record; unknown users get an empty one.
func (m *Memory) Get(_ context.Context, userID string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.users[NormalizeUser(userID)]
	if !ok {
		return make(Record), nil
	}
	return rec.Clone(), nil
}

// Put merges every plugin sub-record in rec into the stored record.
func (m *Memory) Put(_ context.Context, userID string, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.ensure(NormalizeUser(userID))
	for name, vals := range rec.Clone() {
		stored[name] = vals
	}
	return nil
}

// PutPlugin replaces one plugin's sub-record.
func (m *Memory) PutPlugin(_ context.Context, userID, pluginName string, values map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.ensure(NormalizeUser(userID))
	cp := make(map[string]any, len(values))
	for k, v := range values {
		cp[k] = v
	}
	stored[pluginName] = cp
	return nil
}

// Close implements Store; the memory store has nothing to release.
func (m *Memory) Close() error { return nil }

func (m *Memory) ensure(userID string) Record {
	rec, ok := m.users[userID]
	if !ok {
		rec = make(Record)
		m.users[userID] = rec
	}
	return rec
}
