package prefs

import (
	"strconv"
	"sync"
)

// MemoryStore is a thread-safe, in-memory Store.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// String implements Reader.
func (m *MemoryStore) String(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key]
}

// Bool implements Reader. Values that do not parse as a bool read as false.
func (m *MemoryStore) Bool(key string) bool {
	b, _ := strconv.ParseBool(m.String(key))
	return b
}

// SetString implements Store.
func (m *MemoryStore) SetString(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// SetBool implements Store.
func (m *MemoryStore) SetBool(key string, value bool) error {
	return m.SetString(key, strconv.FormatBool(value))
}
