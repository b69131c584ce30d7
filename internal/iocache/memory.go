// Package iocache provides storage backends for query result caching.
package iocache

import (
	"context"
	"slices"
	"sync"

	"github.com/gnames/gnotu/pkg/cache"
)

// Memory keeps cached results in process memory. It suits a single
// long-running process and tests.
type Memory struct {
	mu   sync.RWMutex
	data map[cache.Fingerprint][]byte
}

// NewMemory creates an empty memory cache.
func NewMemory() *Memory {
	return &Memory{data: make(map[cache.Fingerprint][]byte)}
}

func (m *Memory) Get(
	_ context.Context,
	fp cache.Fingerprint,
) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[fp]
	return v, ok, nil
}

// Set stores a copy of val, so callers may reuse their buffer.
func (m *Memory) Set(
	_ context.Context,
	fp cache.Fingerprint,
	val []byte,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[fp] = slices.Clone(val)
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.data)
	return nil
}

// Len returns the number of cached entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
