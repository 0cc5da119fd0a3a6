package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status enumerates order progression. Transitions after placement happen outside checkout.
type Status string

const (
	StatusPlaced         Status = "placed"
	StatusConfirmed      Status = "confirmed"
	StatusPreparing      Status = "preparing"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// PaymentMethod is how the customer settles the order.
type PaymentMethod string

const PaymentCash PaymentMethod = "cash"

// Customer holds the delivery contact captured at checkout.
type Customer struct {
	Name    string
	Phone   string
	Address string
}

// Schedule is a requested delivery slot. A nil schedule means deliver immediately.
type Schedule struct {
	Date time.Time
	Slot string
}

// DateString renders the schedule date as YYYY-MM-DD.
func (s Schedule) DateString() string {
	return s.Date.Format(DateLayout)
}

// LineItem snapshots a purchased product at order time.
type LineItem struct {
	ProductID string
	Name      string
	ImageURL  string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Total is always unit price times quantity.
func (li LineItem) Total() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity))).Round(2)
}

// Order is the checkout aggregate. It is frozen once assembled.
type Order struct {
	ID            uuid.UUID
	Number        string
	VendorID      string
	Customer      Customer
	Notes         string
	Items         []LineItem
	Discount      decimal.Decimal
	PromoCode     string
	Status        Status
	PaymentMethod PaymentMethod
	Schedule      *Schedule
	CreatedAt     time.Time
}

// Subtotal sums the line totals.
func (o *Order) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range o.Items {
		sum = sum.Add(item.Total())
	}
	return sum
}

// Total is the subtotal minus the discount.
func (o *Order) Total() decimal.Decimal {
	return o.Subtotal().Sub(o.Discount)
}

// Reference is the human readable number when one was assigned, otherwise the UUID.
func (o *Order) Reference() string {
	if strings.TrimSpace(o.Number) != "" {
		return o.Number
	}
	return o.ID.String()
}

// ItemNames lists product names in cart order.
func (o *Order) ItemNames() []string {
	names := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		names = append(names, item.Name)
	}
	return names
}

// Validate enforces the aggregate invariants.
func (o *Order) Validate() error {
	if len(o.Items) == 0 {
		return ErrEmptyCart
	}
	for _, item := range o.Items {
		if item.Quantity <= 0 || item.UnitPrice.IsNegative() {
			return ErrInvalidItem
		}
	}
	if o.Discount.IsNegative() || o.Discount.GreaterThan(o.Subtotal()) {
		return ErrInvalidDiscount
	}
	if !IsValidStatus(o.Status) {
		return ErrInvalidStatus
	}
	return nil
}

// WithNumber returns a copy of the order carrying the store-assigned number.
func (o *Order) WithNumber(number string) *Order {
	clone := o.Clone()
	clone.Number = number
	return clone
}

// Clone deep-copies the order so callers cannot mutate shared state.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]LineItem(nil), o.Items...)
	if o.Schedule != nil {
		schedule := *o.Schedule
		clone.Schedule = &schedule
	}
	return &clone
}

func IsValidStatus(status Status) bool {
	switch status {
	case StatusPlaced, StatusConfirmed, StatusPreparing, StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}
