package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/ghadwa-checkout/internal/domains/notifications/domain"
	"github.com/Apurer/ghadwa-checkout/internal/domains/notifications/ports"
	ordersdomain "github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
)

const tracerName = "github.com/Apurer/ghadwa-checkout/internal/domains/notifications/adapters/observability/dispatcher"

// Dispatcher decorates a notification dispatcher with spans and per-channel counters.
// Per-attempt logging stays in the dispatcher itself.
type Dispatcher struct {
	inner   ports.Dispatcher
	tracer  trace.Tracer
	metrics dispatchMetrics
}

type Option func(*Dispatcher)

func WithTracer(tr trace.Tracer) Option {
	return func(d *Dispatcher) {
		d.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(d *Dispatcher) {
		d.metrics = newDispatchMetrics(m)
	}
}

func New(inner ports.Dispatcher, opts ...Option) ports.Dispatcher {
	d := &Dispatcher{inner: inner}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	if d.tracer == nil {
		d.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return d
}

func (d *Dispatcher) DispatchOrderNotification(ctx context.Context, order *ordersdomain.Order) domain.DispatchResult {
	ctx, span := d.tracer.Start(ctx, "Dispatcher.DispatchOrderNotification",
		trace.WithAttributes(attribute.String("order.ref", order.Reference())))
	defer span.End()

	result := d.inner.DispatchOrderNotification(ctx, order)
	d.metrics.recordResults(ctx, result.Attempts)
	span.SetAttributes(
		attribute.Bool("notification.success", result.Success),
		attribute.Int("notification.attempts", len(result.Attempts)))
	if result.Success {
		span.SetAttributes(attribute.String("notification.channel", result.Channel))
	} else {
		d.metrics.recordExhausted(ctx)
		span.SetStatus(codes.Error, result.Message)
	}
	return result
}

func (d *Dispatcher) DispatchToAllChannels(ctx context.Context, order *ordersdomain.Order) domain.BroadcastResult {
	ctx, span := d.tracer.Start(ctx, "Dispatcher.DispatchToAllChannels",
		trace.WithAttributes(attribute.String("order.ref", order.Reference())))
	defer span.End()

	result := d.inner.DispatchToAllChannels(ctx, order)
	d.observeBroadcast(ctx, span, result)
	return result
}

func (d *Dispatcher) TestAllChannels(ctx context.Context) domain.BroadcastResult {
	ctx, span := d.tracer.Start(ctx, "Dispatcher.TestAllChannels")
	defer span.End()

	result := d.inner.TestAllChannels(ctx)
	d.observeBroadcast(ctx, span, result)
	return result
}

func (d *Dispatcher) AvailableChannels() []domain.ChannelInfo {
	return d.inner.AvailableChannels()
}

func (d *Dispatcher) observeBroadcast(ctx context.Context, span trace.Span, result domain.BroadcastResult) {
	d.metrics.recordResults(ctx, result.Results)
	span.SetAttributes(
		attribute.Int("notification.success_count", result.SuccessCount),
		attribute.Bool("notification.success", result.OverallSuccess))
	if !result.OverallSuccess {
		span.SetStatus(codes.Error, domain.MessageExhausted)
	}
}

type dispatchMetrics struct {
	attempts  metric.Int64Counter
	exhausted metric.Int64Counter
}

func newDispatchMetrics(m metric.Meter) dispatchMetrics {
	if m == nil {
		return dispatchMetrics{}
	}
	attempts, _ := m.Int64Counter("notifications.channel.attempts", metric.WithDescription("Channel deliveries by outcome"))
	exhausted, _ := m.Int64Counter("notifications.dispatch.exhausted", metric.WithDescription("Orders no channel could announce"))
	return dispatchMetrics{attempts: attempts, exhausted: exhausted}
}

func (m dispatchMetrics) recordResults(ctx context.Context, results []domain.Result) {
	if m.attempts == nil {
		return
	}
	for _, result := range results {
		if result.Skipped {
			continue
		}
		m.attempts.Add(ctx, 1, metric.WithAttributes(
			attribute.String("channel", result.Channel),
			attribute.Bool("success", result.Success)))
	}
}

func (m dispatchMetrics) recordExhausted(ctx context.Context) {
	if m.exhausted == nil {
		return
	}
	m.exhausted.Add(ctx, 1)
}

var _ ports.Dispatcher = (*Dispatcher)(nil)
