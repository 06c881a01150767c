package storage

import (
	"fmt"
	"slices"
	"sync"

	"github.com/starford/roadmap/internal/apperr"
)

// Memory is an in-process Provider. It keeps nothing across restarts.
type Memory struct {
	mu       sync.Mutex
	data     map[string][]byte
	failPuts error
}

// NewMemory returns an empty Memory provider.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// FailPuts makes every subsequent Put return err. A nil err restores
// normal behaviour.
func (m *Memory) FailPuts(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPuts = err
}

// Get returns a copy of the bytes stored under key.
func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("storage: %s: %w", key, apperr.ErrNotFound)
	}
	return slices.Clone(data), nil
}

// Put stores a copy of data under key, unless FailPuts is in effect.
func (m *Memory) Put(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPuts != nil {
		return fmt.Errorf("storage: put %s: %w", key, m.failPuts)
	}
	m.data[key] = slices.Clone(data)
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
