package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/ports"
	"github.com/Apurer/ghadwa-checkout/internal/shared/projection"
)

var (
	_ ports.DataStore   = (*DataStore)(nil)
	_ ports.OrderFinder = (*DataStore)(nil)
)

// FirstOrderNumber is the sequence value handed to the first stored order.
const FirstOrderNumber = 1001

// DataStore keeps orders and promo codes in memory for development and tests.
type DataStore struct {
	mu       sync.RWMutex
	orders   map[uuid.UUID]storedOrder
	numbers  map[string]uuid.UUID
	promos   []domain.PromoCode
	sequence int
	now      func() time.Time
}

type storedOrder struct {
	order     *domain.Order
	createdAt time.Time
	updatedAt time.Time
}

// NewDataStore returns an empty store seeded with the given promo codes.
func NewDataStore(promos ...domain.PromoCode) *DataStore {
	return &DataStore{
		orders:   map[uuid.UUID]storedOrder{},
		numbers:  map[string]uuid.UUID{},
		promos:   append([]domain.PromoCode(nil), promos...),
		sequence: FirstOrderNumber,
		now:      time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (s *DataStore) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// SeedPromoCodes replaces the promo code catalogue.
func (s *DataStore) SeedPromoCodes(promos ...domain.PromoCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promos = append([]domain.PromoCode(nil), promos...)
}

func (s *DataStore) PromoCodes(_ context.Context) ([]domain.PromoCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.PromoCode(nil), s.promos...), nil
}

// InsertOrder stores the header without line items and assigns the next GHD number.
func (s *DataStore) InsertOrder(_ context.Context, order *domain.Order) (string, error) {
	if order == nil {
		return "", errors.New("order is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[order.ID]; exists {
		return "", fmt.Errorf("order %s already exists", order.ID)
	}
	number := fmt.Sprintf("GHD-%d", s.sequence)
	s.sequence++

	header := order.WithNumber(number)
	header.Items = nil
	now := s.now()
	s.orders[order.ID] = storedOrder{order: header, createdAt: now, updatedAt: now}
	s.numbers[strings.ToUpper(number)] = order.ID
	return number, nil
}

func (s *DataStore) InsertOrderItems(_ context.Context, orderID uuid.UUID, items []domain.LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[orderID]
	if !ok {
		return ports.ErrNotFound
	}
	stored.order.Items = append(stored.order.Items, items...)
	stored.updatedAt = s.now()
	s.orders[orderID] = stored
	return nil
}

// FindOrder resolves a UUID or a GHD number.
func (s *DataStore) FindOrder(_ context.Context, ref string) (*projection.Projection[domain.Order], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref = strings.TrimSpace(ref)
	id, err := uuid.Parse(ref)
	if err != nil {
		var ok bool
		if id, ok = s.numbers[strings.ToUpper(ref)]; !ok {
			return nil, ports.ErrNotFound
		}
	}
	stored, ok := s.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &projection.Projection[domain.Order]{
		Entity:   *stored.order.Clone(),
		Metadata: projection.Metadata{CreatedAt: stored.createdAt, UpdatedAt: stored.updatedAt},
	}, nil
}

// DemoPromoCodes is the catalogue used when no database is configured.
func DemoPromoCodes() []domain.PromoCode {
	return []domain.PromoCode{
		{Code: "WELCOME20", Kind: domain.DiscountPercentage, Value: decimal.NewFromInt(20), Active: true},
		{Code: "GHADWA50", Kind: domain.DiscountFixed, Value: decimal.NewFromInt(50), MinOrderAmount: decimal.NewFromInt(200), Active: true},
	}
}
