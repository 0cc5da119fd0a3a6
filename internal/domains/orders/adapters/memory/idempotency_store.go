package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore remembers checkout keys in memory.
type IdempotencyStore struct {
	mu      sync.RWMutex
	records map[string]ports.IdempotencyRecord
	now     func() time.Time
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{
		records: map[string]ports.IdempotencyRecord{},
		now:     time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (s *IdempotencyStore) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *IdempotencyStore) Get(_ context.Context, key string) (*ports.IdempotencyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	found := record
	return &found, nil
}

// Claim keeps the first record for a key.
func (s *IdempotencyStore) Claim(_ context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[record.Key]; ok {
		found := existing
		return &found, false, nil
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now()
	}
	s.records[record.Key] = record
	saved := record
	return &saved, true, nil
}

func (s *IdempotencyStore) Complete(_ context.Context, key string, orderID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[key]
	if !ok {
		return fmt.Errorf("%w: idempotency key %q", ports.ErrNotFound, key)
	}
	record.OrderID = orderID
	s.records[key] = record
	return nil
}

// Release forgets the key unless an order was already completed under it.
func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.records[key]; ok && record.Pending() {
		delete(s.records, key)
	}
	return nil
}
