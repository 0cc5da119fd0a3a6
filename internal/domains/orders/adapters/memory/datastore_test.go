package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/ports"
)

func newOrder() *domain.Order {
	return &domain.Order{
		ID:       uuid.New(),
		VendorID: "chef-1",
		Customer: domain.Customer{Name: "Mona", Phone: "01012345678", Address: "12 Tahrir St"},
		Items:    []domain.LineItem{{Name: "Molokhia", Quantity: 2, UnitPrice: decimal.NewFromInt(85)}},
		Status:   domain.StatusPlaced,
	}
}

func TestInsertOrder_AssignsSequentialNumbers(t *testing.T) {
	store := NewDataStore()
	ctx := context.Background()

	first, err := store.InsertOrder(ctx, newOrder())
	require.NoError(t, err)
	second, err := store.InsertOrder(ctx, newOrder())
	require.NoError(t, err)

	require.Equal(t, "GHD-1001", first)
	require.Equal(t, "GHD-1002", second)
}

func TestFindOrder_ByNumberAndID(t *testing.T) {
	store := NewDataStore()
	created := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	store.WithClock(func() time.Time { return created })
	ctx := context.Background()
	order := newOrder()

	number, err := store.InsertOrder(ctx, order)
	require.NoError(t, err)

	header, err := store.FindOrder(ctx, number)
	require.NoError(t, err)
	require.Empty(t, header.Entity.Items)

	require.NoError(t, store.InsertOrderItems(ctx, order.ID, order.Items))

	byID, err := store.FindOrder(ctx, order.ID.String())
	require.NoError(t, err)
	require.Equal(t, number, byID.Entity.Number)
	require.Len(t, byID.Entity.Items, 1)
	require.Equal(t, created, byID.Metadata.CreatedAt)

	byLower, err := store.FindOrder(ctx, "ghd-1001")
	require.NoError(t, err)
	require.Equal(t, order.ID, byLower.Entity.ID)
}

func TestFindOrder_Unknown(t *testing.T) {
	store := NewDataStore()
	_, err := store.FindOrder(context.Background(), "GHD-9999")
	require.ErrorIs(t, err, ports.ErrNotFound)
	require.ErrorIs(t, store.InsertOrderItems(context.Background(), uuid.New(), nil), ports.ErrNotFound)
}

func TestIdempotencyStore_ClaimCompleteRelease(t *testing.T) {
	store := NewIdempotencyStore()
	ctx := context.Background()
	orderID := uuid.New()

	claimed, won, err := store.Claim(ctx, ports.IdempotencyRecord{Key: "k1", RequestHash: "h1"})
	require.NoError(t, err)
	require.True(t, won)
	require.True(t, claimed.Pending())
	require.False(t, claimed.CreatedAt.IsZero())

	existing, won, err := store.Claim(ctx, ports.IdempotencyRecord{Key: "k1", RequestHash: "h2"})
	require.NoError(t, err)
	require.False(t, won)
	require.Equal(t, "h1", existing.RequestHash)

	require.NoError(t, store.Complete(ctx, "k1", orderID))
	require.NoError(t, store.Release(ctx, "k1"))
	found, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, orderID, found.OrderID)

	_, _, err = store.Claim(ctx, ports.IdempotencyRecord{Key: "k2", RequestHash: "h1"})
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "k2"))
	missing, err := store.Get(ctx, "k2")
	require.NoError(t, err)
	require.Nil(t, missing)

	require.ErrorIs(t, store.Complete(ctx, "unknown", orderID), ports.ErrNotFound)
}
