package api

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	ordersmemory "github.com/Apurer/ghadwa-checkout/internal/domains/orders/adapters/memory"
)

func TestBuildChannels_FollowsConfiguredOrder(t *testing.T) {
	cfg := defaultConfig()
	cfg.NotifyChannelOrder = []string{"forms-relay", "webhook"}
	cfg.NotifyWebhookURL = "https://hooks.ghadwa.example/orders"

	channels := BuildChannels(cfg)
	require.Len(t, channels, 2)
	require.Equal(t, "forms-relay", channels[0].Name())
	require.False(t, channels[0].Enabled(), "forms relay needs a recipient")
	require.Equal(t, "webhook", channels[1].Name())
	require.True(t, channels[1].Enabled())
}

func TestBuildDispatcher_ReportsChannels(t *testing.T) {
	cfg := defaultConfig()
	cfg.NotifyChannelOrder = DefaultChannelOrder
	cfg.NotifyRecipientEmail = "ops@ghadwa.example"

	infos := BuildDispatcher(cfg, nil).AvailableChannels()
	require.Len(t, infos, 3)
	require.Equal(t, "forms-relay", infos[0].Name)
	require.True(t, infos[0].Configured)
	require.Equal(t, "email-relay", infos[1].Name)
	require.False(t, infos[1].Configured)
	require.Equal(t, "webhook", infos[2].Name)
	require.False(t, infos[2].Configured)
}

func TestBuildIdempotencyStore_FallsBackToMemory(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := buildIdempotencyStore(defaultConfig(), nil, nil, logger)
	_, ok := store.(*ordersmemory.IdempotencyStore)
	require.True(t, ok)

	_, ok = buildOrderStore(nil, logger).(*ordersmemory.DataStore)
	require.True(t, ok)
}

func TestCORSConfig(t *testing.T) {
	cfg := defaultConfig()
	require.True(t, corsConfig(cfg).AllowAllOrigins)

	cfg.CORSAllowedOrigins = []string{"https://ghadwa.example"}
	config := corsConfig(cfg)
	require.False(t, config.AllowAllOrigins)
	require.Equal(t, []string{"https://ghadwa.example"}, config.AllowOrigins)
	require.NoError(t, config.Validate())
}
