package observability

import (
	"context"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	orderstypes "github.com/Apurer/ghadwa-checkout/internal/domains/orders/application/types"
	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/ghadwa-checkout/internal/domains/orders/adapters/observability/service"

// Service decorates the checkout port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

// PlaceOrder runs checkout with instrumentation.
func (s *Service) PlaceOrder(ctx context.Context, input orderstypes.CheckoutInput) (*orderstypes.Placement, error) {
	ctx, span := s.startSpan(ctx, "Service.PlaceOrder",
		attribute.Int("cart.items", len(input.Items)),
		attribute.Bool("checkout.promo", input.PromoCode != ""),
		attribute.Bool("checkout.idempotent", input.IdempotencyKey != ""))
	defer span.End()

	s.logInfo(ctx, "placing order", slog.Int("cart.items", len(input.Items)))
	result, err := s.inner.PlaceOrder(ctx, input)
	if err != nil {
		s.metrics.recordRejected(ctx, rejectionKind(err))
		return nil, s.handleError(ctx, span, err, "failed to place order", slog.String("reason", rejectionKind(err)))
	}
	if result != nil && result.Order != nil {
		order := result.Order
		span.SetAttributes(
			attribute.String("order.id", order.ID.String()),
			attribute.String("order.number", order.Number),
			attribute.Bool("order.degraded", result.Degraded),
			attribute.Bool("order.replayed", result.Replayed))
		if !result.Replayed {
			s.metrics.recordPlaced(ctx, result.Degraded)
		}
		s.logInfo(ctx, "order placed",
			slog.String("order.id", order.ID.String()),
			slog.String("order.number", order.Number),
			slog.String("order.total", order.Total().StringFixed(2)),
			slog.Bool("degraded", result.Degraded),
			slog.Bool("replayed", result.Replayed))
	}
	return result, nil
}

// EvaluatePromo previews a promo code with instrumentation.
func (s *Service) EvaluatePromo(ctx context.Context, input orderstypes.PromoPreviewInput) (*orderstypes.PromoPreview, error) {
	ctx, span := s.startSpan(ctx, "Service.EvaluatePromo", attribute.String("promo.code", input.Code))
	defer span.End()

	result, err := s.inner.EvaluatePromo(ctx, input)
	if err != nil {
		if kind, ok := domain.PromoErrorKindOf(err); ok {
			s.metrics.recordPromoRejected(ctx, kind)
		}
		return nil, s.handleError(ctx, span, err, "promo evaluation failed", slog.String("promo.code", input.Code))
	}
	s.logInfo(ctx, "promo evaluated", slog.String("promo.code", result.Code), slog.String("discount", result.Discount.StringFixed(2)))
	return result, nil
}

// TrackOrder loads an order with instrumentation.
func (s *Service) TrackOrder(ctx context.Context, ref string) (*orderstypes.OrderProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.TrackOrder", attribute.String("order.ref", ref))
	defer span.End()

	result, err := s.inner.TrackOrder(ctx, ref)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to track order", slog.String("order.ref", ref))
	}
	return result, nil
}

// DeliverySlots lists delivery slots with instrumentation.
func (s *Service) DeliverySlots(ctx context.Context, date time.Time) (*orderstypes.DeliverySlots, error) {
	ctx, span := s.startSpan(ctx, "Service.DeliverySlots", attribute.String("delivery.date", date.Format(domain.DateLayout)))
	defer span.End()

	result, err := s.inner.DeliverySlots(ctx, date)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list delivery slots")
	}
	span.SetAttributes(attribute.Int("delivery.slots", len(result.Slots)))
	return result, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	ordersPlaced   metric.Int64Counter
	ordersRejected metric.Int64Counter
	promoRejected  metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersPlaced, _ := m.Int64Counter("orders.checkout.placed", metric.WithDescription("Number of orders placed"))
	ordersRejected, _ := m.Int64Counter("orders.checkout.rejected", metric.WithDescription("Number of checkouts refused"))
	promoRejected, _ := m.Int64Counter("orders.promo.rejected", metric.WithDescription("Number of promo codes refused"))
	return serviceMetrics{
		ordersPlaced:   ordersPlaced,
		ordersRejected: ordersRejected,
		promoRejected:  promoRejected,
	}
}

func (m serviceMetrics) recordPlaced(ctx context.Context, degraded bool) {
	addCounter(ctx, m.ordersPlaced, 1, attribute.Bool("order.degraded", degraded))
}

func (m serviceMetrics) recordRejected(ctx context.Context, reason string) {
	addCounter(ctx, m.ordersRejected, 1, attribute.String("reason", reason))
}

func (m serviceMetrics) recordPromoRejected(ctx context.Context, kind domain.PromoErrorKind) {
	addCounter(ctx, m.promoRejected, 1, attribute.String("promo.reason", string(kind)))
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
