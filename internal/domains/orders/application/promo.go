package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/ports"
)

// PromoEvaluator prices promo codes held by the data store.
type PromoEvaluator struct {
	store ports.DataStore
	now   func() time.Time
}

func NewPromoEvaluator(store ports.DataStore, now func() time.Time) *PromoEvaluator {
	if now == nil {
		now = time.Now
	}
	return &PromoEvaluator{store: store, now: now}
}

// Evaluate returns the applicable discount or a *domain.PromoError.
// Malformed codes are rejected as not found without reading the store.
func (e *PromoEvaluator) Evaluate(ctx context.Context, code string, subtotal decimal.Decimal) (domain.AppliedPromo, error) {
	normalized := domain.NormalizePromoCode(code)
	if !domain.IsWellFormedPromoCode(normalized) {
		return domain.AppliedPromo{}, &domain.PromoError{Kind: domain.PromoNotFound, Code: normalized}
	}
	codes, err := e.store.PromoCodes(ctx)
	if err != nil {
		return domain.AppliedPromo{}, fmt.Errorf("%w: load promo codes: %w", ErrPersistence, err)
	}
	return domain.EvaluatePromo(normalized, subtotal, codes, e.now())
}
