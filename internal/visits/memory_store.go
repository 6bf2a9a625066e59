package visits

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a Store backed by process memory. It enforces the same
// uniqueness rules as the Postgres schema and backs the reconciler and
// orchestrator tests.
type InMemoryStore struct {
	mu     sync.RWMutex
	byKey  map[string]*Visit
	byID   map[uuid.UUID]*Visit
	byDate map[string]struct{} // patientID|yyyy-mm-dd
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byKey:  make(map[string]*Visit),
		byID:   make(map[uuid.UUID]*Visit),
		byDate: make(map[string]struct{}),
	}
}

func dateIndex(patientID uuid.UUID, date time.Time) string {
	return patientID.String() + "|" + DateOnly(date).Format(time.DateOnly)
}

func (s *InMemoryStore) GetByKey(ctx context.Context, key string) (*Visit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.byKey[key]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *v
	return &copied, nil
}

func (s *InMemoryStore) Create(ctx context.Context, v *Visit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byKey[v.Key]; ok {
		return ErrDuplicate
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	now := time.Now().UTC()
	stored := *v
	stored.Date = DateOnly(v.Date)
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.byKey[stored.Key] = &stored
	s.byID[stored.ID] = &stored
	s.byDate[dateIndex(stored.PatientID, stored.Date)] = struct{}{}
	return nil
}

func (s *InMemoryStore) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byDate, dateIndex(v.PatientID, v.Date))
	v.Status = status
	v.Date = DateOnly(date)
	v.UpdatedAt = time.Now().UTC()
	s.byDate[dateIndex(v.PatientID, v.Date)] = struct{}{}
	return nil
}

func (s *InMemoryStore) ExistsForDate(ctx context.Context, patientID uuid.UUID, date time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byDate[dateIndex(patientID, date)]
	return ok, nil
}

// All returns a snapshot of every stored visit, for tests.
func (s *InMemoryStore) All() []Visit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Visit, 0, len(s.byKey))
	for _, v := range s.byKey {
		out = append(out, *v)
	}
	return out
}

// ByPatientDate returns the visit for a patient on a given day, for tests.
func (s *InMemoryStore) ByPatientDate(patientID uuid.UUID, date time.Time) (*Visit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.byKey {
		if v.PatientID == patientID && v.Date.Equal(DateOnly(date)) {
			copied := *v
			return &copied, true
		}
	}
	return nil, false
}
