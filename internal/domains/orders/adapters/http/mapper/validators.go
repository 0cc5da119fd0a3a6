package mapper

import (
	"github.com/go-playground/validator/v10"

	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
)

// PhoneTag is the binding tag for local mobile numbers.
const PhoneTag = "egphone"

// RegisterValidators adds the checkout binding tags to v.
func RegisterValidators(v *validator.Validate) error {
	return v.RegisterValidation(PhoneTag, func(fl validator.FieldLevel) bool {
		return domain.IsValidPhone(fl.Field().String())
	})
}
