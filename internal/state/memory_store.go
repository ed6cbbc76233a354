package state

import (
	"sync"

	"github.com/rniirs/news-harvester/internal/domain"
)

// MemoryStore keeps state in process memory. Used for dry runs and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	links  map[string]domain.LinkSet
	loaded map[string]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		links:  make(map[string]domain.LinkSet),
		loaded: make(map[string]bool),
	}
}

func (m *MemoryStore) ProcessedLinks(source string) (domain.LinkSet, error) {
	if err := checkSource(source); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return domain.NewLinkSet(m.links[source].Sorted()...), nil
}

func (m *MemoryStore) SaveProcessedLinks(source string, links domain.LinkSet) error {
	if err := checkSource(source); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[source] = domain.NewLinkSet(links.Sorted()...)
	return nil
}

func (m *MemoryStore) InitialLoadCompleted(source string) (bool, error) {
	if err := checkSource(source); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded[source], nil
}

func (m *MemoryStore) SetInitialLoadCompleted(source string, done bool) error {
	if err := checkSource(source); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded[source] = done
	return nil
}

func (m *MemoryStore) Close() error { return nil }
