package patients

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a Store backed by process memory, used by resolver and
// orchestrator tests. MSISDN records are global and shared between patients,
// matching the relational schema.
type InMemoryStore struct {
	mu      sync.RWMutex
	byTeID  map[string]*Patient
	byID    map[uuid.UUID]*Patient
	msisdns map[string]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byTeID:  make(map[string]*Patient),
		byID:    make(map[uuid.UUID]*Patient),
		msisdns: make(map[string]struct{}),
	}
}

func (s *InMemoryStore) GetByTeID(ctx context.Context, teID string) (*Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byTeID[teID]
	if !ok || p.Deleted {
		return nil, ErrNotFound
	}
	return clonePatient(p), nil
}

func (s *InMemoryStore) GetByTeIDAny(ctx context.Context, teID string) (*Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byTeID[teID]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePatient(p), nil
}

func (s *InMemoryStore) Create(ctx context.Context, p *Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byTeID[p.TeID]; ok {
		return ErrDuplicate
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	stored := clonePatient(p)
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.byTeID[stored.TeID] = stored
	s.byID[stored.ID] = stored
	return nil
}

func (s *InMemoryStore) AttachMSISDN(ctx context.Context, patientID uuid.UUID, msisdn string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[patientID]
	if !ok {
		return ErrNotFound
	}
	s.msisdns[msisdn] = struct{}{}
	if !p.HasMSISDN(msisdn) {
		p.MSISDNs = append(p.MSISDNs, msisdn)
		p.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (s *InMemoryStore) SetActiveMSISDN(ctx context.Context, patientID uuid.UUID, msisdn string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[patientID]
	if !ok {
		return ErrNotFound
	}
	p.ActiveMSISDN = msisdn
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemoryStore) SetLastClinic(ctx context.Context, patientID uuid.UUID, clinicID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[patientID]
	if !ok {
		return ErrNotFound
	}
	p.LastClinicID = clinicID
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemoryStore) SoftDelete(ctx context.Context, patientID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[patientID]
	if !ok {
		return ErrNotFound
	}
	p.Deleted = true
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// KnownMSISDNs returns every distinct normalized phone number seen, for tests.
func (s *InMemoryStore) KnownMSISDNs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.msisdns))
	for m := range s.msisdns {
		out = append(out, m)
	}
	return out
}

func clonePatient(p *Patient) *Patient {
	copied := *p
	copied.MSISDNs = append([]string(nil), p.MSISDNs...)
	return &copied
}
