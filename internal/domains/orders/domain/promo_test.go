package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var evalNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func TestEvaluatePromo_PercentageDiscount(t *testing.T) {
	codes := []PromoCode{{Code: "SAVE20", Kind: DiscountPercentage, Value: dec("20"), Active: true}}

	applied, err := EvaluatePromo("save20", dec("250"), codes, evalNow)
	require.NoError(t, err)
	require.Equal(t, "SAVE20", applied.Code)
	require.True(t, applied.Amount.Equal(dec("50.00")), "got %s", applied.Amount)
	require.True(t, dec("250").Sub(applied.Amount).Equal(dec("200.00")))
}

func TestEvaluatePromo_FixedDiscountClampsToSubtotal(t *testing.T) {
	codes := []PromoCode{{Code: "BIG300", Kind: DiscountFixed, Value: dec("300"), Active: true}}

	applied, err := EvaluatePromo("BIG300", dec("250"), codes, evalNow)
	require.NoError(t, err)
	require.True(t, applied.Amount.Equal(dec("250.00")), "got %s", applied.Amount)
}

func TestEvaluatePromo_MinimumOrderBoundary(t *testing.T) {
	codes := []PromoCode{{Code: "MIN100", Kind: DiscountFixed, Value: dec("10"), MinOrderAmount: dec("100"), Active: true}}

	_, err := EvaluatePromo("MIN100", dec("99.99"), codes, evalNow)
	kind, ok := PromoErrorKindOf(err)
	require.True(t, ok)
	require.Equal(t, PromoBelowMinimum, kind)

	applied, err := EvaluatePromo("MIN100", dec("100.00"), codes, evalNow)
	require.NoError(t, err)
	require.True(t, applied.Amount.Equal(dec("10")))
}

func TestEvaluatePromo_Rejections(t *testing.T) {
	codes := []PromoCode{
		{Code: "OFF", Kind: DiscountFixed, Value: dec("10"), Active: false},
		{Code: "LATER", Kind: DiscountFixed, Value: dec("10"), Active: true, ValidFrom: timePtr(evalNow.Add(time.Hour))},
		{Code: "OLD", Kind: DiscountFixed, Value: dec("10"), Active: true, ValidUntil: timePtr(evalNow.Add(-time.Hour))},
		{Code: "USED", Kind: DiscountFixed, Value: dec("10"), Active: true, MaxUses: intPtr(5), CurrentUses: 5},
	}

	tests := []struct {
		code string
		kind PromoErrorKind
	}{
		{code: "MISSING", kind: PromoNotFound},
		{code: "off", kind: PromoInactive},
		{code: "LATER", kind: PromoNotYetValid},
		{code: "OLD", kind: PromoExpired},
		{code: "USED", kind: PromoUsageExceeded},
	}
	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			_, err := EvaluatePromo(tc.code, dec("500"), codes, evalNow)
			require.ErrorIs(t, err, ErrPromoRejected)
			kind, ok := PromoErrorKindOf(err)
			require.True(t, ok)
			require.Equal(t, tc.kind, kind)
		})
	}
}

func TestEvaluatePromo_ZeroMaxUsesMeansUnlimited(t *testing.T) {
	codes := []PromoCode{{Code: "FREE", Kind: DiscountFixed, Value: dec("5"), Active: true, MaxUses: intPtr(0), CurrentUses: 99}}

	_, err := EvaluatePromo("FREE", dec("50"), codes, evalNow)
	require.NoError(t, err)
}

func TestEvaluatePromo_IsPure(t *testing.T) {
	codes := []PromoCode{{Code: "SAVE20", Kind: DiscountPercentage, Value: dec("20"), Active: true, MaxUses: intPtr(3), CurrentUses: 1}}

	first, err1 := EvaluatePromo("SAVE20", dec("123.45"), codes, evalNow)
	second, err2 := EvaluatePromo("SAVE20", dec("123.45"), codes, evalNow)
	require.NoError(t, err1)
	require.NoError(t, err2)
	require.Equal(t, first.Code, second.Code)
	require.True(t, first.Amount.Equal(second.Amount))
	require.Equal(t, 1, codes[0].CurrentUses)
}

func TestIsWellFormedPromoCode(t *testing.T) {
	require.True(t, IsWellFormedPromoCode(" save20 "))
	require.False(t, IsWellFormedPromoCode("AB"))
	require.False(t, IsWellFormedPromoCode("WITH-DASH"))
}
