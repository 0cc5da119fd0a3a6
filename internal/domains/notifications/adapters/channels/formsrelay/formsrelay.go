// Package formsrelay submits order notifications as localized key/value fields to a
// no-signup forms relay that forwards them to the recipient's inbox.
package formsrelay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/Apurer/ghadwa-checkout/internal/clients/http/outbound"
	"github.com/Apurer/ghadwa-checkout/internal/domains/notifications/domain"
	"github.com/Apurer/ghadwa-checkout/internal/domains/notifications/ports"
	ordersdomain "github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
)

const (
	DefaultEndpoint = "https://formsubmit.co/ajax"
	DefaultTimeout  = 10 * time.Second

	emptyValue = "—"
)

// Locale selects the language of field labels and display values.
type Locale string

const (
	LocaleArabic  Locale = "ar"
	LocaleEnglish Locale = "en"
)

// Labels are the display names of the submitted fields.
type Labels struct {
	OrderNumber  string
	CustomerName string
	Phone        string
	Address      string
	Items        string
	Subtotal     string
	Discount     string
	Total        string
	DeliveryTime string
	Notes        string

	Subject   func(ref, customer string) string
	Currency  string
	At        string
	Immediate string
}

var labelsByLocale = map[Locale]Labels{
	LocaleArabic: {
		OrderNumber:  "رقم الطلب",
		CustomerName: "اسم العميل",
		Phone:        "رقم الموبايل",
		Address:      "العنوان الكامل",
		Items:        "الأصناف",
		Subtotal:     "المجموع",
		Discount:     "الخصم",
		Total:        "الإجمالي",
		DeliveryTime: "موعد التوصيل",
		Notes:        "ملاحظات",
		Subject: func(ref, customer string) string {
			return fmt.Sprintf("🎉 طلب جديد %s - %s", ref, customer)
		},
		Currency:  "ج.م",
		At:        "الساعة",
		Immediate: "🚚 توصيل فوري",
	},
	LocaleEnglish: {
		OrderNumber:  "Order Number",
		CustomerName: "Customer Name",
		Phone:        "Phone",
		Address:      "Full Address",
		Items:        "Items",
		Subtotal:     "Subtotal",
		Discount:     "Discount",
		Total:        "Total",
		DeliveryTime: "Delivery Time",
		Notes:        "Notes",
		Subject: func(ref, customer string) string {
			return fmt.Sprintf("🎉 New order %s - %s", ref, customer)
		},
		Currency:  "EGP",
		At:        "at",
		Immediate: "🚚 Immediate delivery",
	},
}

// Config points the channel at a relay endpoint and recipient inbox.
type Config struct {
	Endpoint  string
	Recipient string
	Locale    Locale
	Timeout   time.Duration
}

// Channel posts one form submission per order with no retry.
type Channel struct {
	cfg     Config
	labels  Labels
	client  *resty.Client
	enabled bool
}

// New builds the forms relay channel. A nil client gets the shared instrumented client.
func New(cfg Config, client *resty.Client) *Channel {
	cfg.Endpoint = strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	cfg.Recipient = strings.TrimSpace(cfg.Recipient)
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	labels, ok := labelsByLocale[cfg.Locale]
	if !ok {
		cfg.Locale = LocaleArabic
		labels = labelsByLocale[LocaleArabic]
	}
	if client == nil {
		client = outbound.NewClient(nil)
	}
	return &Channel{
		cfg:     cfg,
		labels:  labels,
		client:  client,
		enabled: outbound.IsHTTPURL(cfg.Endpoint) && validator.New().Var(cfg.Recipient, "required,email") == nil,
	}
}

func (c *Channel) Name() string { return domain.ChannelFormsRelay }

func (c *Channel) Enabled() bool { return c.enabled }

func (c *Channel) Endpoint() string { return outbound.RedactEndpoint(c.cfg.Endpoint) }

func (c *Channel) SendOrderNotification(ctx context.Context, order *ordersdomain.Order) error {
	if !c.enabled {
		return domain.ErrNotConfigured
	}
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	resp, err := c.client.R().
		SetContext(attemptCtx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetBody(c.Fields(order)).
		Post(c.cfg.Endpoint + "/" + c.cfg.Recipient)
	return outbound.Check(attemptCtx, resp, err, true)
}

// Fields renders the submission: relay control fields plus localized, pre-formatted values.
func (c *Channel) Fields(order *ordersdomain.Order) map[string]string {
	l := c.labels
	discount := emptyValue
	if order.Discount.IsPositive() {
		discount = c.currency(order.Discount)
	}
	notes := strings.TrimSpace(order.Notes)
	if notes == "" {
		notes = emptyValue
	}
	return map[string]string{
		"_subject":      l.Subject(order.Reference(), order.Customer.Name),
		"_template":     "table",
		"_captcha":      "false",
		"_autoresponse": "false",

		l.OrderNumber:  order.Reference(),
		l.CustomerName: order.Customer.Name,
		l.Phone:        order.Customer.Phone,
		l.Address:      order.Customer.Address,
		l.Items:        c.itemsText(order),
		l.Subtotal:     c.currency(order.Subtotal()),
		l.Discount:     discount,
		l.Total:        "⭐ " + c.currency(order.Total()),
		l.DeliveryTime: c.deliveryTime(order),
		l.Notes:        notes,
	}
}

func (c *Channel) itemsText(order *ordersdomain.Order) string {
	parts := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		parts = append(parts, fmt.Sprintf("%s × %d = %s", item.Name, item.Quantity, c.currency(item.Total())))
	}
	return strings.Join(parts, " | ")
}

func (c *Channel) deliveryTime(order *ordersdomain.Order) string {
	if order.Schedule == nil {
		return c.labels.Immediate
	}
	return fmt.Sprintf("%s %s %s", order.Schedule.DateString(), c.labels.At, order.Schedule.Slot)
}

func (c *Channel) currency(amount decimal.Decimal) string {
	return amount.StringFixed(0) + " " + c.labels.Currency
}

var _ ports.Channel = (*Channel)(nil)
