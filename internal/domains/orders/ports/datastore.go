package ports

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
	"github.com/Apurer/ghadwa-checkout/internal/shared/projection"
)

var ErrNotFound = errors.New("order not found")

// DataStore is the remote store the checkout pipeline writes orders to.
type DataStore interface {
	// PromoCodes returns every promo code the store knows about.
	PromoCodes(ctx context.Context) ([]domain.PromoCode, error)
	// InsertOrder persists the order header and returns the assigned order number.
	InsertOrder(ctx context.Context, order *domain.Order) (string, error)
	// InsertOrderItems persists the line items of a previously inserted order.
	InsertOrderItems(ctx context.Context, orderID uuid.UUID, items []domain.LineItem) error
}

// OrderFinder loads placed orders by UUID or human readable number.
type OrderFinder interface {
	FindOrder(ctx context.Context, ref string) (*projection.Projection[domain.Order], error)
}
