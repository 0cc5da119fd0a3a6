// Package webhook posts order notifications as JSON to a generic webhook with bounded retries.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"

	"github.com/Apurer/ghadwa-checkout/internal/clients/http/outbound"
	"github.com/Apurer/ghadwa-checkout/internal/domains/notifications/domain"
	"github.com/Apurer/ghadwa-checkout/internal/domains/notifications/ports"
	ordersdomain "github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
)

const (
	DefaultTimeout     = 10 * time.Second
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
	DefaultMaxDelay    = 30 * time.Second
)

// Config configures the webhook channel. Zero values take the defaults above.
type Config struct {
	URL         string
	Timeout     time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Channel delivers notifications to Config.URL.
type Channel struct {
	cfg    Config
	client *resty.Client
	sleep  SleepFunc
}

// Option customises a Channel.
type Option func(*Channel)

// WithClient replaces the HTTP client.
func WithClient(client *resty.Client) Option {
	return func(c *Channel) {
		if client != nil {
			c.client = client
		}
	}
}

// WithSleep replaces the delay between attempts.
func WithSleep(sleep SleepFunc) Option {
	return func(c *Channel) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// New builds the webhook channel.
func New(cfg Config, opts ...Option) *Channel {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
	cfg.URL = strings.TrimSpace(cfg.URL)
	c := &Channel{cfg: cfg, client: outbound.NewClient(nil), sleep: sleepContext}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *Channel) Name() string { return domain.ChannelWebhook }

func (c *Channel) Enabled() bool { return outbound.IsHTTPURL(c.cfg.URL) }

func (c *Channel) Endpoint() string { return outbound.RedactEndpoint(c.cfg.URL) }

// payload is the JSON body accepted by the operations webhook.
type payload struct {
	Text         string  `json:"text"`
	OrderID      string  `json:"orderId"`
	CustomerName string  `json:"customerName"`
	PhoneNumber  string  `json:"phoneNumber"`
	Address      string  `json:"address"`
	Items        string  `json:"items"`
	TotalPrice   float64 `json:"totalPrice"`
	Notes        string  `json:"notes,omitempty"`
	Timestamp    string  `json:"timestamp"`
}

func newPayload(order *ordersdomain.Order) payload {
	return payload{
		Text:         domain.FormatOrderMessage(order),
		OrderID:      order.Reference(),
		CustomerName: order.Customer.Name,
		PhoneNumber:  order.Customer.Phone,
		Address:      order.Customer.Address,
		Items:        domain.ItemsSummary(order),
		TotalPrice:   order.Total().InexactFloat64(),
		Notes:        strings.TrimSpace(order.Notes),
		Timestamp:    domain.Timestamp(order),
	}
}

// SendOrderNotification posts the order, retrying timeouts, 429s and 5xx responses
// up to MaxAttempts times with exponential backoff.
func (c *Channel) SendOrderNotification(ctx context.Context, order *ordersdomain.Order) error {
	if !c.Enabled() {
		return domain.ErrNotConfigured
	}
	body := newPayload(order)
	delays := c.newBackOff()
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		domain.CountAttempt(ctx)
		lastErr = c.post(ctx, body)
		if lastErr == nil {
			return nil
		}
		if !outbound.IsRetryable(lastErr) || attempt == c.cfg.MaxAttempts {
			return &DeliveryError{attempts: attempt, err: lastErr}
		}
		if err := c.sleep(ctx, c.delay(delays.NextBackOff(), lastErr)); err != nil {
			return &DeliveryError{attempts: attempt, err: errors.Join(lastErr, err)}
		}
	}
	return &DeliveryError{attempts: c.cfg.MaxAttempts, err: lastErr}
}

func (c *Channel) post(ctx context.Context, body payload) error {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	resp, err := c.client.R().
		SetContext(attemptCtx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(c.cfg.URL)
	return outbound.Check(attemptCtx, resp, err, true)
}

func (c *Channel) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = c.cfg.MaxDelay
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// delay stretches the backoff to honour a rate limit hint, never beyond MaxDelay.
func (c *Channel) delay(next time.Duration, err error) time.Duration {
	var statusErr *outbound.StatusError
	if errors.As(err, &statusErr) {
		if hint := min(statusErr.RetryAfter(), c.cfg.MaxDelay); hint > next {
			return hint
		}
	}
	return next
}

// DeliveryError wraps the last failure together with the number of attempts made.
type DeliveryError struct {
	attempts int
	err      error
}

func (e *DeliveryError) Error() string {
	if e.attempts <= 1 {
		return e.err.Error()
	}
	return fmt.Sprintf("%s (after %d attempts)", e.err.Error(), e.attempts)
}

func (e *DeliveryError) Unwrap() error { return e.err }

func (e *DeliveryError) Attempts() int { return e.attempts }

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ ports.Channel = (*Channel)(nil)
