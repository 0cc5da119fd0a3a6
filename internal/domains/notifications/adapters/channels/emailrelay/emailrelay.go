// Package emailrelay sends order notifications through a transactional email provider.
// The provider is picked from a marker in the configured endpoint URL.
package emailrelay

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Apurer/ghadwa-checkout/internal/clients/http/outbound"
	"github.com/Apurer/ghadwa-checkout/internal/domains/notifications/domain"
	"github.com/Apurer/ghadwa-checkout/internal/domains/notifications/ports"
	ordersdomain "github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
)

// Provider identifies the relay service behind the endpoint.
type Provider string

const (
	ProviderNone      Provider = ""
	ProviderEmailJS   Provider = "emailjs"
	ProviderFormspree Provider = "formspree"
)

const (
	emailJSMarker   = "emailjs.com"
	formspreeMarker = "formspree.io"
	fromName        = "Ghadwa Platform"

	DefaultTimeout = 10 * time.Second
)

// Config carries the provider endpoint and routing identifiers.
type Config struct {
	URL        string
	ServiceID  string
	TemplateID string
	UserID     string
	ToEmail    string
	Timeout    time.Duration
}

// DetectProvider inspects the endpoint for a known provider marker.
// EmailJS additionally needs a user id before it counts as configured.
func DetectProvider(cfg Config) Provider {
	url := strings.ToLower(strings.TrimSpace(cfg.URL))
	if !outbound.IsHTTPURL(url) {
		return ProviderNone
	}
	switch {
	case strings.Contains(url, emailJSMarker) && strings.TrimSpace(cfg.UserID) != "":
		return ProviderEmailJS
	case strings.Contains(url, formspreeMarker):
		return ProviderFormspree
	default:
		return ProviderNone
	}
}

// Channel posts to the detected provider without retrying.
type Channel struct {
	cfg      Config
	provider Provider
	client   *resty.Client
}

// New builds the email relay channel. A nil client gets the shared instrumented client.
func New(cfg Config, client *resty.Client) *Channel {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	cfg.URL = strings.TrimSpace(cfg.URL)
	if client == nil {
		client = outbound.NewClient(nil)
	}
	return &Channel{cfg: cfg, provider: DetectProvider(cfg), client: client}
}

func (c *Channel) Name() string { return domain.ChannelEmailRelay }

func (c *Channel) Enabled() bool { return c.provider != ProviderNone }

func (c *Channel) Endpoint() string { return outbound.RedactEndpoint(c.cfg.URL) }

// Provider reports which relay the channel talks to.
func (c *Channel) Provider() Provider { return c.provider }

type emailJSRequest struct {
	ServiceID      string         `json:"service_id"`
	TemplateID     string         `json:"template_id"`
	UserID         string         `json:"user_id"`
	TemplateParams templateParams `json:"template_params"`
}

type templateParams struct {
	FromName     string `json:"from_name"`
	ToEmail      string `json:"to_email"`
	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Items        string `json:"items"`
	Price        string `json:"price"`
	Notes        string `json:"notes"`
	OrderID      string `json:"order_id"`
	Timestamp    string `json:"timestamp"`
}

func (c *Channel) SendOrderNotification(ctx context.Context, order *ordersdomain.Order) error {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var request *resty.Request
	switch c.provider {
	case ProviderEmailJS:
		request = c.client.R().
			SetHeader("Content-Type", "application/json").
			SetBody(c.emailJSBody(order))
	case ProviderFormspree:
		request = c.client.R().
			SetHeader("Accept", "application/json").
			SetFormData(c.formspreeFields(order))
	default:
		return domain.ErrNotConfigured
	}
	resp, err := request.SetContext(attemptCtx).Post(c.cfg.URL)
	return outbound.Check(attemptCtx, resp, err, false)
}

func (c *Channel) emailJSBody(order *ordersdomain.Order) emailJSRequest {
	return emailJSRequest{
		ServiceID:  c.cfg.ServiceID,
		TemplateID: c.cfg.TemplateID,
		UserID:     c.cfg.UserID,
		TemplateParams: templateParams{
			FromName:     fromName,
			ToEmail:      c.cfg.ToEmail,
			CustomerName: order.Customer.Name,
			Phone:        order.Customer.Phone,
			Address:      order.Customer.Address,
			Items:        domain.ItemsSummary(order),
			Price:        order.Total().String(),
			Notes:        notesOrDefault(order.Notes),
			OrderID:      order.Reference(),
			Timestamp:    domain.Timestamp(order),
		},
	}
}

func (c *Channel) formspreeFields(order *ordersdomain.Order) map[string]string {
	fields := map[string]string{
		"_subject":      fmt.Sprintf("طلب جديد - New Order %s", order.Reference()),
		"message":       domain.FormatOrderMessage(order),
		"customer_name": order.Customer.Name,
		"phone":         order.Customer.Phone,
		"address":       order.Customer.Address,
		"items":         domain.ItemsSummary(order),
		"price":         order.Total().String() + " EGP",
		"order_id":      order.Reference(),
		"timestamp":     domain.Timestamp(order),
	}
	if to := strings.TrimSpace(c.cfg.ToEmail); to != "" {
		fields["email"] = to
		fields["_replyto"] = to
	}
	return fields
}

func notesOrDefault(notes string) string {
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		return trimmed
	}
	return "No notes"
}

var _ ports.Channel = (*Channel)(nil)
