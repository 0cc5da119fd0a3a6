package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
)

var (
	// ErrInvalidInput signals the checkout request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid checkout input")
	// ErrPersistence signals the data store could not record the order.
	ErrPersistence = errors.New("order not placed, try again")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmptyCart) ||
		errors.Is(err, domain.ErrInvalidItem) ||
		errors.Is(err, domain.ErrInvalidForm) ||
		errors.Is(err, domain.ErrInvalidDiscount) ||
		errors.Is(err, domain.ErrInvalidStatus) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
