package ports

import (
	"context"
	"time"

	orderstypes "github.com/Apurer/ghadwa-checkout/internal/domains/orders/application/types"
)

// Service exposes the checkout use cases to adapters.
type Service interface {
	PlaceOrder(ctx context.Context, input orderstypes.CheckoutInput) (*orderstypes.Placement, error)
	EvaluatePromo(ctx context.Context, input orderstypes.PromoPreviewInput) (*orderstypes.PromoPreview, error)
	TrackOrder(ctx context.Context, ref string) (*orderstypes.OrderProjection, error)
	DeliverySlots(ctx context.Context, date time.Time) (*orderstypes.DeliverySlots, error)
}
