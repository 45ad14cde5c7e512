package store

import (
	"context"
	"sort"
	"sync"

	"github.com/vango-dev/routestate/pkg/route"
)

// MemoryStore keeps snapshots in process memory. Snapshots are stored
// encoded, so callers never share data with the store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Save(_ context.Context, name string, state *route.State) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	data, err := encode(state)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.data[name] = data
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Load(_ context.Context, name string) (*route.State, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	m.mu.RLock()
	data, ok := m.data[name]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decode(data)
}

func (m *MemoryStore) Delete(_ context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.data, name)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	names := make([]string, 0, len(m.data))
	for name := range m.data {
		names = append(names, name)
	}
	m.mu.RUnlock()

	sort.Strings(names)
	return names, nil
}
