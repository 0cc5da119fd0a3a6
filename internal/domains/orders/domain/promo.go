package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DiscountKind selects how a promo value is interpreted.
type DiscountKind string

const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

// Valid reports whether k is a discount kind the evaluator knows how to price.
func (k DiscountKind) Valid() bool {
	return k == DiscountPercentage || k == DiscountFixed
}

var promoCodePattern = regexp.MustCompile(`^[A-Z0-9]{3,20}$`)

var hundred = decimal.NewFromInt(100)

// PromoCode is a discount rule owned by the data store. The core only reads it.
type PromoCode struct {
	Code           string
	Kind           DiscountKind
	Value          decimal.Decimal
	MinOrderAmount decimal.Decimal
	MaxUses        *int
	CurrentUses    int
	ValidFrom      *time.Time
	ValidUntil     *time.Time
	Active         bool
}

// AppliedPromo is a priced discount ready to be frozen into an order.
type AppliedPromo struct {
	Code   string
	Amount decimal.Decimal
}

// NormalizePromoCode upper-cases and trims user input.
func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsWellFormedPromoCode reports whether the code could exist at all.
func IsWellFormedPromoCode(code string) bool {
	return promoCodePattern.MatchString(NormalizePromoCode(code))
}

// EvaluatePromo prices code against subtotal using the available codes.
// It has no side effects and never increments usage.
func EvaluatePromo(code string, subtotal decimal.Decimal, codes []PromoCode, now time.Time) (AppliedPromo, error) {
	normalized := NormalizePromoCode(code)
	promo, ok := findPromo(normalized, codes)
	if !ok {
		return AppliedPromo{}, &PromoError{Kind: PromoNotFound, Code: normalized}
	}
	if !promo.Active {
		return AppliedPromo{}, &PromoError{Kind: PromoInactive, Code: normalized}
	}
	if promo.ValidFrom != nil && now.Before(*promo.ValidFrom) {
		return AppliedPromo{}, &PromoError{Kind: PromoNotYetValid, Code: normalized}
	}
	if promo.ValidUntil != nil && now.After(*promo.ValidUntil) {
		return AppliedPromo{}, &PromoError{Kind: PromoExpired, Code: normalized}
	}
	if promo.MaxUses != nil && *promo.MaxUses > 0 && promo.CurrentUses >= *promo.MaxUses {
		return AppliedPromo{}, &PromoError{Kind: PromoUsageExceeded, Code: normalized}
	}
	if promo.MinOrderAmount.IsPositive() && subtotal.LessThan(promo.MinOrderAmount) {
		return AppliedPromo{}, &PromoError{Kind: PromoBelowMinimum, Code: normalized}
	}
	return AppliedPromo{Code: normalized, Amount: promo.discountFor(subtotal)}, nil
}

func (p PromoCode) discountFor(subtotal decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch p.Kind {
	case DiscountPercentage:
		amount = subtotal.Mul(p.Value).Div(hundred)
	default:
		amount = p.Value
	}
	return ClampDiscount(amount.Round(2), subtotal)
}

// ClampDiscount bounds a discount into [0, subtotal].
func ClampDiscount(amount, subtotal decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	if amount.GreaterThan(subtotal) {
		return subtotal
	}
	return amount
}

func findPromo(code string, codes []PromoCode) (PromoCode, bool) {
	for _, candidate := range codes {
		if strings.EqualFold(strings.TrimSpace(candidate.Code), code) {
			return candidate, true
		}
	}
	return PromoCode{}, false
}
