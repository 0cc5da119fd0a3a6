package api

import (
	"errors"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	"github.com/Apurer/ghadwa-checkout/internal/clients/http/outbound"
	"github.com/Apurer/ghadwa-checkout/internal/domains/notifications/adapters/channels/emailrelay"
	"github.com/Apurer/ghadwa-checkout/internal/domains/notifications/adapters/channels/formsrelay"
	"github.com/Apurer/ghadwa-checkout/internal/domains/notifications/adapters/channels/webhook"
	notificationsobs "github.com/Apurer/ghadwa-checkout/internal/domains/notifications/adapters/observability"
	notificationsapp "github.com/Apurer/ghadwa-checkout/internal/domains/notifications/application"
	notificationsdomain "github.com/Apurer/ghadwa-checkout/internal/domains/notifications/domain"
	notificationsports "github.com/Apurer/ghadwa-checkout/internal/domains/notifications/ports"
	platformobservability "github.com/Apurer/ghadwa-checkout/internal/platform/observability"
)

// BuildChannels returns the configured channels in NOTIFY_CHANNEL_ORDER order.
// Channels without configuration are still returned; the dispatcher skips them.
func BuildChannels(cfg Config) []notificationsports.Channel {
	httpClient := outbound.NewClient(nil)
	byName := map[string]notificationsports.Channel{
		notificationsdomain.ChannelWebhook: webhook.New(
			webhook.Config{URL: cfg.NotifyWebhookURL},
			webhook.WithClient(httpClient),
		),
		notificationsdomain.ChannelEmailRelay: emailrelay.New(emailrelay.Config{
			URL:        cfg.NotifyEmailURL,
			ServiceID:  cfg.NotifyEmailServiceID,
			TemplateID: cfg.NotifyEmailTemplateID,
			UserID:     cfg.NotifyEmailUserID,
			ToEmail:    cfg.NotifyRecipientEmail,
		}, httpClient),
		notificationsdomain.ChannelFormsRelay: formsrelay.New(formsrelay.Config{
			Endpoint:  cfg.NotifyFormsEndpoint,
			Recipient: cfg.NotifyRecipientEmail,
			Locale:    formsrelay.Locale(cfg.NotifyFormsLocale),
		}, httpClient),
	}
	channels := make([]notificationsports.Channel, 0, len(cfg.NotifyChannelOrder))
	for _, name := range cfg.NotifyChannelOrder {
		if channel, ok := byName[name]; ok {
			channels = append(channels, channel)
		}
	}
	return channels
}

// BuildDispatcher wires the channels into an instrumented dispatcher.
func BuildDispatcher(cfg Config, instruments *platformobservability.Instruments) notificationsports.Dispatcher {
	logger := effectiveLogger(instruments)
	core := notificationsapp.NewDispatcher(BuildChannels(cfg), notificationsapp.WithLogger(logger))
	opts := []notificationsobs.Option{}
	if instruments != nil {
		opts = append(opts,
			notificationsobs.WithTracer(instruments.Tracer("internal.notifications.application")),
			notificationsobs.WithMeter(instruments.Meter("internal.notifications.application")))
	}
	dispatcher := notificationsobs.New(core, opts...)
	for _, info := range dispatcher.AvailableChannels() {
		logger.Info("notification channel",
			slog.String("channel", info.Name),
			slog.Bool("configured", info.Configured),
			slog.String("endpoint", info.Endpoint))
	}
	return dispatcher
}

// DialTemporal connects a traced Temporal client unless TEMPORAL_DISABLED is set.
func DialTemporal(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}
