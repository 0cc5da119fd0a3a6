package domain

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	maxNameLength    = 100
	minAddressLength = 5
	maxAddressLength = 200
	maxNotesLength   = 500
)

var phonePattern = regexp.MustCompile(`^01[0125][0-9]{8}$`)

// CartItem is what the storefront sends for each product in the cart.
type CartItem struct {
	ProductID string
	VendorID  string
	Name      string
	ImageURL  string
	UnitPrice decimal.Decimal
	Quantity  int
}

// DeliveryForm carries the customer's delivery details.
type DeliveryForm struct {
	Name     string
	Phone    string
	Address  string
	Notes    string
	Schedule *ScheduleRequest
}

// ScheduleRequest is an unvalidated delivery slot choice.
type ScheduleRequest struct {
	Date time.Time
	Slot string
}

// ValidateCart checks the cart is non-empty, single-vendor and well formed.
// It returns the vendor id and the subtotal.
func ValidateCart(items []CartItem) (string, decimal.Decimal, error) {
	if len(items) == 0 {
		return "", decimal.Zero, ErrEmptyCart
	}
	vendorID := strings.TrimSpace(items[0].VendorID)
	subtotal := decimal.Zero
	for _, item := range items {
		if strings.TrimSpace(item.VendorID) != vendorID {
			return "", decimal.Zero, ErrVendorConflict
		}
		if strings.TrimSpace(item.Name) == "" || item.Quantity <= 0 || item.UnitPrice.IsNegative() {
			return "", decimal.Zero, ErrInvalidItem
		}
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2))
	}
	return vendorID, subtotal, nil
}

// NormalizePhone strips the separators customers commonly type.
func NormalizePhone(phone string) string {
	replacer := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
	return replacer.Replace(strings.TrimSpace(phone))
}

// IsValidPhone reports whether the phone matches the accepted local mobile format.
func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(NormalizePhone(phone))
}

// Validate returns a *ValidationError naming every offending field.
func (f DeliveryForm) Validate() error {
	verr := &ValidationError{}
	name := strings.TrimSpace(f.Name)
	switch {
	case name == "":
		verr.add("name", "name is required")
	case utf8.RuneCountInString(name) > maxNameLength:
		verr.add("name", "name is too long")
	}
	if strings.TrimSpace(f.Phone) == "" {
		verr.add("phone", "phone is required")
	} else if !IsValidPhone(f.Phone) {
		verr.add("phone", "phone must be an 11 digit mobile number starting with 010, 011, 012 or 015")
	}
	address := strings.TrimSpace(f.Address)
	switch n := utf8.RuneCountInString(address); {
	case n == 0:
		verr.add("address", "address is required")
	case n < minAddressLength:
		verr.add("address", "address is too short")
	case n > maxAddressLength:
		verr.add("address", "address is too long")
	}
	if utf8.RuneCountInString(f.Notes) > maxNotesLength {
		verr.add("notes", "notes are too long")
	}
	return verr.orNil()
}
