package mapper

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	orderstypes "github.com/Apurer/ghadwa-checkout/internal/domains/orders/application/types"
	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
)

// CartItem is one product line sent by the storefront.
type CartItem struct {
	ProductID string          `json:"productId" binding:"required"`
	ChefID    string          `json:"chefId" binding:"required"`
	Name      string          `json:"name" binding:"required"`
	ImageURL  string          `json:"imageUrl,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity" binding:"required,gt=0"`
}

// DeliveryDetails is the checkout form.
type DeliveryDetails struct {
	Name    string `json:"name" binding:"required,max=100"`
	Phone   string `json:"phone" binding:"required,egphone"`
	Address string `json:"address" binding:"required"`
	Notes   string `json:"notes,omitempty" binding:"max=500"`
}

// ScheduleRequest picks a delivery slot. Omit it to deliver immediately.
type ScheduleRequest struct {
	Date string `json:"date" binding:"required,datetime=2006-01-02"`
	Slot string `json:"slot" binding:"required"`
}

// CheckoutRequest is the body of POST /v1/checkout/orders.
type CheckoutRequest struct {
	Items     []CartItem       `json:"items" binding:"required,min=1,dive"`
	Customer  DeliveryDetails  `json:"customer"`
	PromoCode string           `json:"promoCode,omitempty"`
	Schedule  *ScheduleRequest `json:"schedule,omitempty"`
}

// PromoEvaluateRequest is the body of POST /v1/promo-codes/evaluate.
type PromoEvaluateRequest struct {
	Code     string          `json:"code" binding:"required"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type LineItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	ImageURL  string `json:"imageUrl,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	LineTotal string `json:"lineTotal"`
}

type Schedule struct {
	Date string `json:"date"`
	Slot string `json:"slot"`
}

// Order is the HTTP representation of a placed order. Money is rendered with two decimals.
type Order struct {
	ID            string     `json:"id"`
	OrderNumber   string     `json:"orderNumber"`
	ChefID        string     `json:"chefId"`
	Status        string     `json:"status"`
	PaymentMethod string     `json:"paymentMethod"`
	Customer      Customer   `json:"customer"`
	Notes         string     `json:"notes,omitempty"`
	Items         []LineItem `json:"items"`
	Subtotal      string     `json:"subtotal"`
	Discount      string     `json:"discount"`
	Total         string     `json:"total"`
	PromoCode     string     `json:"promoCode,omitempty"`
	Schedule      *Schedule  `json:"schedule,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// PlacementResponse is returned by checkout.
type PlacementResponse struct {
	Order
	Degraded bool `json:"degraded,omitempty"`
	Replayed bool `json:"replayed,omitempty"`
}

type PromoPreview struct {
	Code     string `json:"code"`
	Discount string `json:"discount"`
	Total    string `json:"total"`
}

type DeliverySlots struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

// ToCheckoutInput converts a checkout payload into the application input.
func ToCheckoutInput(req CheckoutRequest, idempotencyKey string) (orderstypes.CheckoutInput, error) {
	items := make([]domain.CartItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.CartItem{
			ProductID: strings.TrimSpace(item.ProductID),
			VendorID:  strings.TrimSpace(item.ChefID),
			Name:      item.Name,
			ImageURL:  item.ImageURL,
			UnitPrice: item.Price,
			Quantity:  item.Quantity,
		})
	}
	form := domain.DeliveryForm{
		Name:    req.Customer.Name,
		Phone:   req.Customer.Phone,
		Address: req.Customer.Address,
		Notes:   req.Customer.Notes,
	}
	if req.Schedule != nil {
		date, err := domain.ParseDate(req.Schedule.Date)
		if err != nil {
			return orderstypes.CheckoutInput{}, err
		}
		form.Schedule = &domain.ScheduleRequest{Date: date, Slot: strings.TrimSpace(req.Schedule.Slot)}
	}
	return orderstypes.CheckoutInput{
		Items:          items,
		Form:           form,
		PromoCode:      req.PromoCode,
		IdempotencyKey: strings.TrimSpace(idempotencyKey),
	}, nil
}

// ToPromoPreviewInput converts a promo preview payload into the application input.
func ToPromoPreviewInput(req PromoEvaluateRequest) orderstypes.PromoPreviewInput {
	return orderstypes.PromoPreviewInput{Code: req.Code, Subtotal: req.Subtotal}
}

// FromDomainOrder maps a domain order into its transport shape.
func FromDomainOrder(o *domain.Order) Order {
	if o == nil {
		return Order{}
	}
	items := make([]LineItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, LineItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			ImageURL:  item.ImageURL,
			Quantity:  item.Quantity,
			UnitPrice: money(item.UnitPrice),
			LineTotal: money(item.Total()),
		})
	}
	var schedule *Schedule
	if o.Schedule != nil {
		schedule = &Schedule{Date: o.Schedule.DateString(), Slot: o.Schedule.Slot}
	}
	return Order{
		ID:            o.ID.String(),
		OrderNumber:   o.Number,
		ChefID:        o.VendorID,
		Status:        string(o.Status),
		PaymentMethod: string(o.PaymentMethod),
		Customer:      Customer{Name: o.Customer.Name, Phone: o.Customer.Phone, Address: o.Customer.Address},
		Notes:         o.Notes,
		Items:         items,
		Subtotal:      money(o.Subtotal()),
		Discount:      money(o.Discount),
		Total:         money(o.Total()),
		PromoCode:     o.PromoCode,
		Schedule:      schedule,
		CreatedAt:     o.CreatedAt,
	}
}

// FromPlacement maps a checkout outcome.
func FromPlacement(p *orderstypes.Placement) PlacementResponse {
	if p == nil {
		return PlacementResponse{}
	}
	return PlacementResponse{Order: FromDomainOrder(p.Order), Degraded: p.Degraded, Replayed: p.Replayed}
}

// FromProjection maps a tracked order including persistence metadata.
func FromProjection(p *orderstypes.OrderProjection) Order {
	if p == nil {
		return Order{}
	}
	order := FromDomainOrder(&p.Entity)
	if !p.Metadata.CreatedAt.IsZero() {
		order.CreatedAt = p.Metadata.CreatedAt
	}
	if !p.Metadata.UpdatedAt.IsZero() {
		updated := p.Metadata.UpdatedAt
		order.UpdatedAt = &updated
	}
	return order
}

func FromPromoPreview(p *orderstypes.PromoPreview) PromoPreview {
	if p == nil {
		return PromoPreview{}
	}
	return PromoPreview{Code: p.Code, Discount: money(p.Discount), Total: money(p.Total)}
}

func FromDeliverySlots(s *orderstypes.DeliverySlots) DeliverySlots {
	if s == nil {
		return DeliverySlots{Slots: []string{}}
	}
	slots := append([]string{}, s.Slots...)
	return DeliverySlots{Date: s.Date.Format(domain.DateLayout), Slots: slots}
}

func money(value decimal.Decimal) string {
	return value.StringFixed(2)
}
