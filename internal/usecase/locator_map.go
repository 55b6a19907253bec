package usecase

import (
	"context"
	"sync"
)

// MemoryLocatorMap is the default in-process domain.LocatorMap: a
// mutex-guarded map with process-scoped lifetime.
type MemoryLocatorMap struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryLocatorMap creates an empty MemoryLocatorMap.
func NewMemoryLocatorMap() *MemoryLocatorMap {
	return &MemoryLocatorMap{entries: make(map[string]string)}
}

func (m *MemoryLocatorMap) Put(ctx context.Context, userID, locator string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, replaced := m.entries[userID]
	m.entries[userID] = locator
	return replaced, nil
}

func (m *MemoryLocatorMap) Get(ctx context.Context, userID string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	locator, ok := m.entries[userID]
	return locator, ok, nil
}

func (m *MemoryLocatorMap) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, userID)
	return nil
}
