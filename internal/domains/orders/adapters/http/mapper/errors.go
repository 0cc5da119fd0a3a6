package mapper

import (
	"errors"

	ordersapp "github.com/Apurer/ghadwa-checkout/internal/domains/orders/application"
	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/ports"
	apierrors "github.com/Apurer/ghadwa-checkout/internal/shared/errors"
)

// ProblemFor maps checkout errors to problem details. It is an apierrors.ErrorMapper.
func ProblemFor(err error) (apierrors.ProblemDetail, bool) {
	if err == nil {
		return apierrors.ProblemDetail{}, false
	}
	var validation *domain.ValidationError
	var promo *domain.PromoError
	var scheduling *domain.SchedulingError
	switch {
	case errors.As(err, &validation):
		return apierrors.NewValidationProblem(validation.Fields).WithDetail(domain.ErrInvalidForm.Error()), true
	case errors.Is(err, domain.ErrVendorConflict):
		return apierrors.ErrVendorConflict.WithDetail(domain.ErrVendorConflict.Error()), true
	case errors.As(err, &promo):
		return apierrors.ErrPromoRejected.
			WithDetail(promo.Error()).
			WithExtension("reason", string(promo.Kind)).
			WithExtension("code", promo.Code), true
	case errors.As(err, &scheduling):
		return apierrors.ErrScheduling.WithDetail(scheduling.Reason), true
	case errors.Is(err, ports.ErrIdempotencyInProgress):
		return apierrors.ErrConflict.
			WithDetail("a checkout with this idempotency key is still being processed, retry shortly"), true
	case errors.Is(err, ports.ErrIdempotencyConflict):
		return apierrors.ErrIdempotencyConflict.
			WithDetail("the idempotency key was already used for a different checkout"), true
	case errors.Is(err, ports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(ports.ErrNotFound.Error()), true
	case errors.Is(err, ordersapp.ErrPersistence):
		return apierrors.ErrServiceUnavailable.WithDetail(ordersapp.ErrPersistence.Error()), true
	case errors.Is(err, ordersapp.ErrInvalidInput):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}
