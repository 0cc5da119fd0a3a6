package api

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/ghadwa-checkout/internal/clients/http/outbound"
	"github.com/Apurer/ghadwa-checkout/internal/domains/notifications/adapters/channels/formsrelay"
	notificationsdomain "github.com/Apurer/ghadwa-checkout/internal/domains/notifications/domain"
	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/adapters/cache"
	ordersapp "github.com/Apurer/ghadwa-checkout/internal/domains/orders/application"
)

// DefaultChannelOrder is the notification priority when NOTIFY_CHANNEL_ORDER is unset.
var DefaultChannelOrder = []string{
	notificationsdomain.ChannelFormsRelay,
	notificationsdomain.ChannelEmailRelay,
	notificationsdomain.ChannelWebhook,
}

// Config carries settings for the API and worker processes.
// Values come from defaults, then CONFIG_FILE (YAML), then environment variables.
type Config struct {
	Port              string        `koanf:"port"`
	PostgresDSN       string        `koanf:"postgres_dsn"`
	RedisAddr         string        `koanf:"redis_addr"`
	RedisPassword     string        `koanf:"redis_password"`
	IdempotencyTTL    time.Duration `koanf:"idempotency_ttl"`
	TemporalAddress   string        `koanf:"temporal_address"`
	TemporalNamespace string        `koanf:"temporal_namespace"`
	TemporalDisabled  bool          `koanf:"-"`
	LogFile           string        `koanf:"log_file"`
	LogLevel          string        `koanf:"log_level"`
	ScheduleTimezone  string        `koanf:"schedule_timezone"`

	NotifyWebhookURL      string        `koanf:"notify_webhook_url"`
	NotifyEmailURL        string        `koanf:"notify_email_url"`
	NotifyEmailServiceID  string        `koanf:"notify_email_service_id"`
	NotifyEmailTemplateID string        `koanf:"notify_email_template_id"`
	NotifyEmailUserID     string        `koanf:"notify_email_user_id"`
	NotifyRecipientEmail  string        `koanf:"notify_recipient_email"`
	NotifyFormsEndpoint   string        `koanf:"notify_forms_endpoint"`
	NotifyFormsLocale     string        `koanf:"notify_forms_locale"`
	NotifyChannelOrder    []string      `koanf:"notify_channel_order"`
	NotifyTimeout         time.Duration `koanf:"notify_timeout"`
	// NotifyAdminToken guards POST /v1/notifications/test. Empty disables the endpoint.
	NotifyAdminToken      string        `koanf:"notify_admin_token"`

	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

func defaultConfig() Config {
	return Config{
		Port:                "8080",
		IdempotencyTTL:      cache.DefaultTTL,
		TemporalAddress:     client.DefaultHostPort,
		TemporalNamespace:   client.DefaultNamespace,
		LogLevel:            "info",
		ScheduleTimezone:    "Africa/Cairo",
		NotifyFormsEndpoint: formsrelay.DefaultEndpoint,
		NotifyFormsLocale:   string(formsrelay.LocaleArabic),
		NotifyTimeout:       ordersapp.DefaultNotifyTimeout,
	}
}

// LoadConfig reads .env, CONFIG_FILE and the environment, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}
	// Empty variables are skipped so they fall back to the file or the default.
	if err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		if strings.TrimSpace(value) == "" {
			return "", nil
		}
		return strings.ToLower(key), value
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	cfg := defaultConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.TemporalDisabled = isTruthy(k.String("temporal_disabled"))
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Port = strings.TrimSpace(c.Port)
	c.PostgresDSN = strings.TrimSpace(c.PostgresDSN)
	c.RedisAddr = strings.TrimSpace(c.RedisAddr)
	c.NotifyFormsLocale = strings.ToLower(strings.TrimSpace(c.NotifyFormsLocale))
	c.NotifyAdminToken = strings.TrimSpace(c.NotifyAdminToken)
	c.NotifyChannelOrder = trimAll(c.NotifyChannelOrder)
	if len(c.NotifyChannelOrder) == 0 {
		c.NotifyChannelOrder = append([]string(nil), DefaultChannelOrder...)
	}
	c.CORSAllowedOrigins = trimAll(c.CORSAllowedOrigins)
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("PORT must be a TCP port, got %q", c.Port)
	}
	if c.IdempotencyTTL <= 0 {
		return errors.New("IDEMPOTENCY_TTL must be a positive duration")
	}
	if c.NotifyTimeout <= 0 {
		return errors.New("NOTIFY_TIMEOUT must be a positive duration")
	}
	if _, err := time.LoadLocation(c.ScheduleTimezone); err != nil {
		return fmt.Errorf("SCHEDULE_TIMEZONE %q is not a known time zone", c.ScheduleTimezone)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.NotifyFormsLocale != string(formsrelay.LocaleArabic) && c.NotifyFormsLocale != string(formsrelay.LocaleEnglish) {
		return fmt.Errorf("NOTIFY_FORMS_LOCALE must be ar or en, got %q", c.NotifyFormsLocale)
	}
	seen := map[string]bool{}
	for _, name := range c.NotifyChannelOrder {
		if !isKnownChannel(name) {
			return fmt.Errorf("NOTIFY_CHANNEL_ORDER contains unknown channel %q", name)
		}
		if seen[name] {
			return fmt.Errorf("NOTIFY_CHANNEL_ORDER lists %q twice", name)
		}
		seen[name] = true
	}
	for key, raw := range map[string]string{
		"NOTIFY_WEBHOOK_URL":    c.NotifyWebhookURL,
		"NOTIFY_EMAIL_URL":      c.NotifyEmailURL,
		"NOTIFY_FORMS_ENDPOINT": c.NotifyFormsEndpoint,
	} {
		if strings.TrimSpace(raw) != "" && !outbound.IsHTTPURL(raw) {
			return fmt.Errorf("%s must be an http(s) URL", key)
		}
	}
	return nil
}

// Location is the time zone delivery slots are expressed in.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ScheduleTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SlogLevel converts LOG_LEVEL, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", raw)
	}
	return level, nil
}

func isKnownChannel(name string) bool {
	for _, known := range DefaultChannelOrder {
		if name == known {
			return true
		}
	}
	return false
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
