package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrVendorConflict  = errors.New("cart items belong to different vendors")
	ErrInvalidItem     = errors.New("cart item is invalid")
	ErrInvalidForm     = errors.New("delivery form is invalid")
	ErrInvalidDiscount = errors.New("discount must not be negative")
	ErrInvalidStatus   = errors.New("order status is invalid")
	ErrScheduling      = errors.New("delivery schedule is not acceptable")
	ErrPromoRejected   = errors.New("promo code rejected")
)

// ValidationError reports field-level problems with the delivery form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrInvalidForm.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s (%s)", ErrInvalidForm.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidForm }

func (e *ValidationError) add(field, reason string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = reason
	}
}

func (e *ValidationError) orNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// SchedulingError explains why a requested delivery slot was refused.
type SchedulingError struct {
	Reason string
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("%s: %s", ErrScheduling.Error(), e.Reason)
}

func (e *SchedulingError) Unwrap() error { return ErrScheduling }

// PromoErrorKind names the reason a promo code was not applied.
type PromoErrorKind string

const (
	PromoNotFound      PromoErrorKind = "NOT_FOUND"
	PromoInactive      PromoErrorKind = "INACTIVE"
	PromoNotYetValid   PromoErrorKind = "NOT_YET_VALID"
	PromoExpired       PromoErrorKind = "EXPIRED"
	PromoUsageExceeded PromoErrorKind = "USAGE_EXCEEDED"
	PromoBelowMinimum  PromoErrorKind = "BELOW_MINIMUM"
)

// PromoError is returned by EvaluatePromo for every rejection.
type PromoError struct {
	Kind PromoErrorKind
	Code string
}

func (e *PromoError) Error() string {
	return fmt.Sprintf("promo code %q rejected: %s", e.Code, e.Kind.describe())
}

func (e *PromoError) Unwrap() error { return ErrPromoRejected }

func (k PromoErrorKind) describe() string {
	switch k {
	case PromoNotFound:
		return "code not found"
	case PromoInactive:
		return "code is not active"
	case PromoNotYetValid:
		return "code is not valid yet"
	case PromoExpired:
		return "code has expired"
	case PromoUsageExceeded:
		return "code usage limit reached"
	case PromoBelowMinimum:
		return "order subtotal is below the code minimum"
	default:
		return strings.ToLower(string(k))
	}
}

// PromoErrorKindOf extracts the rejection kind from an error chain.
func PromoErrorKindOf(err error) (PromoErrorKind, bool) {
	var promoErr *PromoError
	if errors.As(err, &promoErr) {
		return promoErr.Kind, true
	}
	return "", false
}
