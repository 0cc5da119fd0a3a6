package observability

import (
	"errors"

	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/application"
	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/ports"
)

// rejectionKind buckets checkout failures into low-cardinality metric labels.
func rejectionKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrVendorConflict):
		return "vendor_conflict"
	case errors.Is(err, domain.ErrPromoRejected):
		return "promo"
	case errors.Is(err, domain.ErrScheduling):
		return "scheduling"
	case errors.Is(err, ports.ErrIdempotencyConflict):
		return "idempotency_conflict"
	case errors.Is(err, application.ErrInvalidInput):
		return "validation"
	case errors.Is(err, application.ErrPersistence):
		return "persistence"
	default:
		return "other"
	}
}
