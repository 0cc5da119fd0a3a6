package application

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
)

// Assembler turns a validated cart and delivery form into a frozen order.
type Assembler struct {
	now    func() time.Time
	newID  func() uuid.UUID
	policy domain.SchedulePolicy
}

// AssemblerOption customizes an Assembler.
type AssemblerOption func(*Assembler)

// WithAssemblerClock overrides the time source for CreatedAt and schedule checks.
func WithAssemblerClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) {
		if now != nil {
			a.now = now
		}
	}
}

// WithIDGenerator overrides how order ids are minted.
func WithIDGenerator(newID func() uuid.UUID) AssemblerOption {
	return func(a *Assembler) {
		if newID != nil {
			a.newID = newID
		}
	}
}

// WithSchedulePolicy replaces the default delivery slot policy.
func WithSchedulePolicy(policy domain.SchedulePolicy) AssemblerOption {
	return func(a *Assembler) {
		a.policy = policy
	}
}

func NewAssembler(opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		now:    time.Now,
		newID:  uuid.New,
		policy: domain.DefaultSchedulePolicy(time.UTC),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Policy exposes the delivery slot policy in use.
func (a *Assembler) Policy() domain.SchedulePolicy { return a.policy }

// Validate runs every precondition check and returns the cart subtotal.
func (a *Assembler) Validate(items []domain.CartItem, form domain.DeliveryForm) (decimal.Decimal, error) {
	_, subtotal, _, err := a.check(items, form)
	return subtotal, err
}

// Assemble builds an order from the cart, the form and an optional priced promo.
func (a *Assembler) Assemble(items []domain.CartItem, form domain.DeliveryForm, applied *domain.AppliedPromo) (*domain.Order, error) {
	vendorID, subtotal, schedule, err := a.check(items, form)
	if err != nil {
		return nil, err
	}

	discount := decimal.Zero
	promoCode := ""
	if applied != nil {
		if applied.Amount.IsNegative() {
			return nil, domain.ErrInvalidDiscount
		}
		discount = domain.ClampDiscount(applied.Amount, subtotal)
		promoCode = applied.Code
	}

	lines := make([]domain.LineItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, domain.LineItem{
			ProductID: strings.TrimSpace(item.ProductID),
			Name:      strings.TrimSpace(item.Name),
			ImageURL:  strings.TrimSpace(item.ImageURL),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.Round(2),
		})
	}

	order := &domain.Order{
		ID:       a.newID(),
		VendorID: vendorID,
		Customer: domain.Customer{
			Name:    strings.TrimSpace(form.Name),
			Phone:   domain.NormalizePhone(form.Phone),
			Address: strings.TrimSpace(form.Address),
		},
		Notes:         strings.TrimSpace(form.Notes),
		Items:         lines,
		Discount:      discount,
		PromoCode:     promoCode,
		Status:        domain.StatusPlaced,
		PaymentMethod: domain.PaymentCash,
		Schedule:      schedule,
		CreatedAt:     a.now().UTC(),
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

func (a *Assembler) check(items []domain.CartItem, form domain.DeliveryForm) (string, decimal.Decimal, *domain.Schedule, error) {
	vendorID, subtotal, err := domain.ValidateCart(items)
	if err != nil {
		return "", decimal.Zero, nil, err
	}
	if err := form.Validate(); err != nil {
		return "", decimal.Zero, nil, err
	}
	var schedule *domain.Schedule
	if form.Schedule != nil {
		schedule, err = a.policy.Validate(a.now(), form.Schedule.Date, form.Schedule.Slot)
		if err != nil {
			return "", decimal.Zero, nil, err
		}
	}
	return vendorID, subtotal, schedule, nil
}
