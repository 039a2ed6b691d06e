package store

import (
	"context"
	"sync"
	"time"

	"github.com/mbolis/survey-flow/model"
)

// Memory keeps snapshots for the lifetime of the process only.
type Memory struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[Key]memoryItem
}

type memoryItem struct {
	snap    model.Snapshot
	expires time.Time
}

// NewMemory returns an in-process backend. A zero ttl keeps entries forever.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:   ttl,
		now:   time.Now,
		items: map[Key]memoryItem{},
	}
}

func (m *Memory) Load(_ context.Context, key Key) (model.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[key]
	if !ok {
		return model.Snapshot{}, ErrNotFound
	}
	if !item.expires.IsZero() && m.now().After(item.expires) {
		delete(m.items, key)
		return model.Snapshot{}, ErrNotFound
	}
	return item.snap, nil
}

func (m *Memory) Save(_ context.Context, key Key, snap model.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := memoryItem{snap: snap}
	if m.ttl > 0 {
		item.expires = m.now().Add(m.ttl)
	}
	m.items[key] = item
	return nil
}

func (m *Memory) Delete(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// Purge drops expired entries.
func (m *Memory) Purge(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	now := m.now()
	for k, item := range m.items {
		if !item.expires.IsZero() && now.After(item.expires) {
			delete(m.items, k)
			n++
		}
	}
	return n, nil
}

func (m *Memory) Close() error {
	return nil
}
