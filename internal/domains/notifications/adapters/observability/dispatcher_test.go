package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Apurer/ghadwa-checkout/internal/domains/notifications/domain"
	ordersdomain "github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
)

type stubDispatcher struct {
	result domain.DispatchResult
}

func (s stubDispatcher) DispatchOrderNotification(context.Context, *ordersdomain.Order) domain.DispatchResult {
	return s.result
}

func (s stubDispatcher) DispatchToAllChannels(context.Context, *ordersdomain.Order) domain.BroadcastResult {
	return domain.BroadcastResult{}
}

func (s stubDispatcher) TestAllChannels(context.Context) domain.BroadcastResult {
	return domain.BroadcastResult{}
}

func (s stubDispatcher) AvailableChannels() []domain.ChannelInfo {
	return []domain.ChannelInfo{{Name: domain.ChannelWebhook, Configured: true}}
}

func TestDispatcher_CountsAttemptsAndExhaustion(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	meter := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test")

	inner := stubDispatcher{result: domain.DispatchResult{
		Success: false,
		Message: domain.MessageExhausted,
		Attempts: []domain.Result{
			{Channel: domain.ChannelFormsRelay, Error: "HTTP 500", Attempts: 1},
			{Channel: domain.ChannelWebhook, Error: "request timeout", Attempts: 3},
		},
	}}
	dispatcher := New(inner, WithMeter(meter))

	result := dispatcher.DispatchOrderNotification(context.Background(), &ordersdomain.Order{Number: "GHD-1001"})
	require.False(t, result.Success)
	require.Len(t, dispatcher.AvailableChannels(), 1)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	totals := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, point := range sum.DataPoints {
				totals[m.Name] += point.Value
			}
		}
	}
	require.Equal(t, int64(2), totals["notifications.channel.attempts"])
	require.Equal(t, int64(1), totals["notifications.dispatch.exhausted"])
}
