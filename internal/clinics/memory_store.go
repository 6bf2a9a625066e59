package clinics

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a Store backed by process memory, used in tests.
type InMemoryStore struct {
	mu       sync.RWMutex
	byName   map[string]*Clinic
	byID     map[uuid.UUID]*Clinic
	mappings map[string]uuid.UUID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byName:   make(map[string]*Clinic),
		byID:     make(map[uuid.UUID]*Clinic),
		mappings: make(map[string]uuid.UUID),
	}
}

func (s *InMemoryStore) ResolveExternalName(ctx context.Context, externalName string) (*Clinic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.mappings[externalName]
	if !ok {
		return nil, ErrUnmapped
	}
	c, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *InMemoryStore) GetOrCreateByName(ctx context.Context, name string) (*Clinic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.byName[name]; ok {
		copied := *c
		return &copied, nil
	}
	c := &Clinic{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
	s.byName[name] = c
	s.byID[c.ID] = c
	copied := *c
	return &copied, nil
}

func (s *InMemoryStore) AddMapping(ctx context.Context, externalName string, clinicID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[clinicID]; !ok {
		return ErrNotFound
	}
	s.mappings[externalName] = clinicID
	return nil
}
