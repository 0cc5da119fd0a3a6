package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	orderstypes "github.com/Apurer/ghadwa-checkout/internal/domains/orders/application/types"
	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
)

type normalizedCheckout struct {
	Items     []normalizedItem `json:"items"`
	Form      normalizedForm   `json:"form"`
	PromoCode string           `json:"promoCode,omitempty"`
}

type normalizedItem struct {
	ProductID string `json:"productId"`
	VendorID  string `json:"vendorId"`
	Name      string `json:"name"`
	UnitPrice string `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

type normalizedForm struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Notes   string `json:"notes,omitempty"`
	Date    string `json:"date,omitempty"`
	Slot    string `json:"slot,omitempty"`
}

// FingerprintCheckout hashes the checkout payload, excluding the idempotency key,
// so retries of the same cart map to the same fingerprint.
func FingerprintCheckout(input orderstypes.CheckoutInput) (string, error) {
	payload, err := json.Marshal(normalizeCheckout(input))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func normalizeCheckout(input orderstypes.CheckoutInput) normalizedCheckout {
	items := make([]normalizedItem, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, normalizedItem{
			ProductID: strings.TrimSpace(item.ProductID),
			VendorID:  strings.TrimSpace(item.VendorID),
			Name:      strings.TrimSpace(item.Name),
			UnitPrice: item.UnitPrice.Round(2).StringFixed(2),
			Quantity:  item.Quantity,
		})
	}
	form := normalizedForm{
		Name:    strings.TrimSpace(input.Form.Name),
		Phone:   domain.NormalizePhone(input.Form.Phone),
		Address: strings.TrimSpace(input.Form.Address),
		Notes:   strings.TrimSpace(input.Form.Notes),
	}
	if input.Form.Schedule != nil {
		form.Date = input.Form.Schedule.Date.Format(domain.DateLayout)
		form.Slot = strings.TrimSpace(input.Form.Schedule.Slot)
	}
	return normalizedCheckout{
		Items:     items,
		Form:      form,
		PromoCode: domain.NormalizePromoCode(input.PromoCode),
	}
}
