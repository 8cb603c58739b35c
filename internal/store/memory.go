// internal/store/memory.go
//
// In-memory table store keyed by checksummed wallet address.
//
// Characteristics:
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts; tables are never persisted.
//   - Get returns ErrNotFound for unknown addresses.

package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/cosmosStaker/secret-hand-showdown/internal/table"
)

// ErrNotFound is returned when no table exists for an address.
var ErrNotFound = errors.New("store: table not found")

// Store holds the running tables.
type Store interface {
	// Save adds or replaces the table for key.
	Save(ctx context.Context, key string, t *table.Table) error

	// Get returns the table for key or ErrNotFound.
	Get(ctx context.Context, key string) (*table.Table, error)

	// GetOrCreate returns the table for key, creating it with create when
	// missing. created reports which happened.
	GetOrCreate(ctx context.Context, key string, create func() *table.Table) (t *table.Table, created bool, err error)

	// Delete removes the table for key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// DeleteIf removes the table for key when cond reports true. cond runs
	// under the store's write lock, so no lookup can hand the table out
	// between the check and the removal. It returns the removed table.
	DeleteIf(ctx context.Context, key string, cond func(*table.Table) bool) (*table.Table, bool, error)

	// List returns the stored keys in sorted order.
	List(ctx context.Context) ([]string, error)
}

type memory struct {
	mu     sync.RWMutex
	tables map[string]*table.Table
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{tables: make(map[string]*table.Table)}
}

func (m *memory) Save(ctx context.Context, key string, t *table.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[key] = t
	return nil
}

func (m *memory) Get(ctx context.Context, key string) (*table.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.tables[key]; ok {
		return t, nil
	}
	return nil, ErrNotFound
}

func (m *memory) GetOrCreate(ctx context.Context, key string, create func() *table.Table) (*table.Table, bool, error) {
	m.mu.RLock()
	t, ok := m.tables[key]
	m.mu.RUnlock()
	if ok {
		return t, false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tables[key]; ok {
		return t, false, nil
	}
	t = create()
	m.tables[key] = t
	return t, true, nil
}

func (m *memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tables, key)
	return nil
}

func (m *memory) DeleteIf(ctx context.Context, key string, cond func(*table.Table) bool) (*table.Table, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[key]
	if !ok || !cond(t) {
		return nil, false, nil
	}
	delete(m.tables, key)
	return t, true, nil
}

func (m *memory) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	keys := make([]string, 0, len(m.tables))
	for k := range m.tables {
		keys = append(keys, k)
	}
	m.mu.RUnlock()
	sort.Strings(keys)
	return keys, nil
}
