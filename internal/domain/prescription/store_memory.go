package prescription

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/pharmasense/pharmasense/internal/apperr"
)

// MemoryStore is the in-memory Store used in tests and when no database
// is configured. Values are copied on the way in and out so callers
// never share mutable state with the store.
type MemoryStore struct {
	mu            sync.RWMutex
	prescriptions map[uuid.UUID]Prescription
	receipts      map[uuid.UUID]Receipt
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		prescriptions: make(map[uuid.UUID]Prescription),
		receipts:      make(map[uuid.UUID]Receipt),
	}
}

func (s *MemoryStore) SavePrescription(_ context.Context, rx *Prescription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rx.ID == uuid.Nil {
		rx.ID = uuid.New()
	}
	s.prescriptions[rx.ID] = *rx
	return nil
}

func (s *MemoryStore) GetPrescription(_ context.Context, id uuid.UUID) (*Prescription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rx, ok := s.prescriptions[id]
	if !ok {
		return nil, apperr.NewNotFound("Prescription", id.String())
	}
	out := rx
	return &out, nil
}

func (s *MemoryStore) ListByVisit(_ context.Context, visitID uuid.UUID) ([]*Prescription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Prescription
	for _, rx := range s.prescriptions {
		if rx.VisitID == visitID {
			copied := rx
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *MemoryStore) SaveReceipt(_ context.Context, prescriptionID uuid.UUID, receipt *Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts[prescriptionID] = *receipt
	return nil
}

func (s *MemoryStore) GetReceipt(_ context.Context, prescriptionID uuid.UUID) (*Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	receipt, ok := s.receipts[prescriptionID]
	if !ok {
		return nil, apperr.NewNotFound("Receipt", prescriptionID.String())
	}
	out := receipt
	return &out, nil
}
