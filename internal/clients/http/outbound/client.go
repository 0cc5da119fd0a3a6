// Package outbound builds the instrumented HTTP client shared by notification channels
// and classifies their responses.
package outbound

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// UserAgent identifies the platform to third-party relays.
const UserAgent = "Ghadwa-Platform/1.0"

// DefaultRetryAfter applies when a 429 carries no usable Retry-After header.
const DefaultRetryAfter = 60 * time.Second

const maxErrorBody = 512

var (
	// ErrTimeout marks a request that hit its deadline.
	ErrTimeout = errors.New("request timeout")
	// ErrNetwork marks a request that never produced a response.
	ErrNetwork = errors.New("network error")
)

// NewClient returns a resty client whose transport is traced with OpenTelemetry.
// Retries are left to callers so every attempt is visible to them.
func NewClient(transport http.RoundTripper) *resty.Client {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return resty.New().
		SetTransport(otelhttp.NewTransport(transport)).
		SetHeader("User-Agent", UserAgent).
		SetRetryCount(0)
}

// StatusError is a non-2xx response from a relay.
type StatusError struct {
	Status     int
	Body       string
	retryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Status == http.StatusTooManyRequests {
		return fmt.Sprintf("rate limited (retry after %s)", e.retryAfter)
	}
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Body)
}

// RetryAfter is the server supplied backoff hint, only set for 429 responses.
func (e *StatusError) RetryAfter() time.Duration { return e.retryAfter }

// Temporary reports whether repeating the request could succeed.
func (e *StatusError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}

// Check converts a resty result into nil or a classified error.
// attemptCtx is the per-request context whose deadline distinguishes timeouts from cancellation.
func Check(attemptCtx context.Context, resp *resty.Response, err error, includeBody bool) error {
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	if resp == nil {
		return fmt.Errorf("%w: empty response", ErrNetwork)
	}
	if resp.IsSuccess() {
		return nil
	}
	statusErr := &StatusError{Status: resp.StatusCode()}
	if statusErr.Status == http.StatusTooManyRequests {
		statusErr.retryAfter = ParseRetryAfter(resp.Header().Get("Retry-After"), time.Now())
	}
	if includeBody {
		statusErr.Body = truncate(strings.TrimSpace(resp.String()), maxErrorBody)
	}
	return statusErr
}

// IsRetryable reports whether err is a timeout, a rate limit, or a 5xx.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrTimeout) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return false
}

// ParseRetryAfter reads delta-seconds or an HTTP date, falling back to DefaultRetryAfter.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return DefaultRetryAfter
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return DefaultRetryAfter
		}
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d.Round(time.Second)
		}
		return 0
	}
	return DefaultRetryAfter
}

// RedactEndpoint keeps only scheme and host so credentials in paths or queries are not exposed.
func RedactEndpoint(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}

// IsHTTPURL reports whether raw is an absolute http or https URL.
func IsHTTPURL(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}
