package types

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
	"github.com/Apurer/ghadwa-checkout/internal/shared/projection"
)

// CheckoutInput is everything the storefront submits to place an order.
type CheckoutInput struct {
	Items          []domain.CartItem
	Form           domain.DeliveryForm
	PromoCode      string
	IdempotencyKey string
}

// Placement describes the outcome of a successful checkout.
type Placement struct {
	Order *domain.Order
	// Degraded is set when the order header was stored but its line items were not.
	Degraded bool
	// Replayed is set when the order came from an earlier request with the same idempotency key.
	Replayed bool
}

// PromoPreviewInput asks what a code is worth for a subtotal.
type PromoPreviewInput struct {
	Code     string
	Subtotal decimal.Decimal
}

// PromoPreview is the priced discount for a preview request.
type PromoPreview struct {
	Code     string
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// DeliverySlots lists the bookable slots for one date.
type DeliverySlots struct {
	Date  time.Time
	Slots []string
}

// OrderProjection is an order plus persistence metadata.
type OrderProjection = projection.Projection[domain.Order]
