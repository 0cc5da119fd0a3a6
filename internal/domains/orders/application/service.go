package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	orderstypes "github.com/Apurer/ghadwa-checkout/internal/domains/orders/application/types"
	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/ports"
)

// DefaultNotifyTimeout bounds the background notification run for one order.
const DefaultNotifyTimeout = 2 * time.Minute

// DefaultClaimWait is how long a duplicate request waits for the first holder of its key.
const DefaultClaimWait = 5 * time.Second

const (
	claimPollInterval = 25 * time.Millisecond
	abandonedClaimAge = 2 * time.Minute
)

// Service orchestrates the checkout use cases.
type Service struct {
	store         ports.DataStore
	finder        ports.OrderFinder
	idempotency   ports.IdempotencyStore
	notifier      ports.NotificationOrchestrator
	logger        *slog.Logger
	now           func() time.Time
	notifyTimeout time.Duration
	claimWait     time.Duration

	assemblerOpts []AssemblerOption
	assembler     *Assembler
	promos        *PromoEvaluator
	gateway       *SubmissionGateway

	inflight sync.WaitGroup
}

// Option configures optional collaborators on the service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source for order timestamps, promo validity and scheduling.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
			s.assemblerOpts = append(s.assemblerOpts, WithAssemblerClock(now))
		}
	}
}

func WithOrderIDs(newID func() uuid.UUID) Option {
	return func(s *Service) {
		s.assemblerOpts = append(s.assemblerOpts, WithIDGenerator(newID))
	}
}

func WithDeliveryPolicy(policy domain.SchedulePolicy) Option {
	return func(s *Service) {
		s.assemblerOpts = append(s.assemblerOpts, WithSchedulePolicy(policy))
	}
}

// WithIdempotencyStore enables replay of checkout requests carrying an idempotency key.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) {
		s.idempotency = store
	}
}

// WithNotifier sets who announces placed orders. Without one no notification is sent.
func WithNotifier(notifier ports.NotificationOrchestrator) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

// WithClaimWait bounds how long a request waits on a key claimed by a concurrent request.
func WithClaimWait(wait time.Duration) Option {
	return func(s *Service) {
		if wait > 0 {
			s.claimWait = wait
		}
	}
}

func WithNotifyTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.notifyTimeout = timeout
		}
	}
}

// NewService wires the checkout service with its data store and order lookup.
func NewService(store ports.DataStore, finder ports.OrderFinder, opts ...Option) *Service {
	s := &Service{
		store:         store,
		finder:        finder,
		logger:        slog.Default(),
		now:           time.Now,
		notifyTimeout: DefaultNotifyTimeout,
		claimWait:     DefaultClaimWait,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.assembler = NewAssembler(s.assemblerOpts...)
	s.promos = NewPromoEvaluator(store, s.now)
	s.gateway = NewSubmissionGateway(store, s.logger)
	return s
}

// PlaceOrder validates, prices and stores the order, then announces it in the background.
// A request with an idempotency key claims the key first, so concurrent duplicates
// replay the first order instead of placing another.
func (s *Service) PlaceOrder(ctx context.Context, input orderstypes.CheckoutInput) (*orderstypes.Placement, error) {
	key := strings.TrimSpace(input.IdempotencyKey)
	if key == "" || s.idempotency == nil {
		return s.place(ctx, input)
	}

	fingerprint, err := FingerprintCheckout(input)
	if err != nil {
		return nil, err
	}
	replayed, err := s.claim(ctx, key, fingerprint)
	if err != nil || replayed != nil {
		return replayed, err
	}

	placement, err := s.place(ctx, input)
	if err != nil {
		if releaseErr := s.idempotency.Release(context.WithoutCancel(ctx), key); releaseErr != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "idempotency claim not released",
				slog.String("idempotency.key", key), slog.String("error", releaseErr.Error()))
		}
		return nil, err
	}
	if err := s.idempotency.Complete(context.WithoutCancel(ctx), key, placement.Order.ID); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "idempotency record not completed",
			slog.String("idempotency.key", key), slog.String("order.id", placement.Order.ID.String()),
			slog.String("error", err.Error()))
	}
	return placement, nil
}

func (s *Service) place(ctx context.Context, input orderstypes.CheckoutInput) (*orderstypes.Placement, error) {
	subtotal, err := s.assembler.Validate(input.Items, input.Form)
	if err != nil {
		return nil, mapError(err)
	}

	var applied *domain.AppliedPromo
	if strings.TrimSpace(input.PromoCode) != "" {
		promo, err := s.promos.Evaluate(ctx, input.PromoCode, subtotal)
		if err != nil {
			return nil, mapError(err)
		}
		applied = &promo
	}

	order, err := s.assembler.Assemble(input.Items, input.Form, applied)
	if err != nil {
		return nil, mapError(err)
	}

	result := s.gateway.Submit(ctx, order)
	if result.Outcome == OutcomeFailed {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, result.Err)
	}
	s.notifyInBackground(ctx, result.Order)
	return &orderstypes.Placement{Order: result.Order, Degraded: result.Outcome == OutcomeDegraded}, nil
}

// EvaluatePromo previews a promo code against a subtotal.
func (s *Service) EvaluatePromo(ctx context.Context, input orderstypes.PromoPreviewInput) (*orderstypes.PromoPreview, error) {
	if input.Subtotal.IsNegative() {
		return nil, fmt.Errorf("%w: subtotal must not be negative", ErrInvalidInput)
	}
	applied, err := s.promos.Evaluate(ctx, input.Code, input.Subtotal)
	if err != nil {
		return nil, mapError(err)
	}
	return &orderstypes.PromoPreview{
		Code:     applied.Code,
		Discount: applied.Amount,
		Total:    input.Subtotal.Sub(applied.Amount),
	}, nil
}

// TrackOrder loads a placed order by UUID or order number.
func (s *Service) TrackOrder(ctx context.Context, ref string) (*orderstypes.OrderProjection, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || s.finder == nil {
		return nil, ports.ErrNotFound
	}
	return s.finder.FindOrder(ctx, ref)
}

// DeliverySlots lists the slots still bookable on date.
func (s *Service) DeliverySlots(_ context.Context, date time.Time) (*orderstypes.DeliverySlots, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	return &orderstypes.DeliverySlots{
		Date:  date,
		Slots: s.assembler.Policy().AvailableSlots(s.now(), date),
	}, nil
}

// Wait blocks until background notifications have finished.
func (s *Service) Wait() {
	s.inflight.Wait()
}

// claim takes the key for this request. It returns a placement when the key already
// belongs to a finished checkout of the same payload, and nil when the caller owns the key.
func (s *Service) claim(ctx context.Context, key, fingerprint string) (*orderstypes.Placement, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.claimWait)
	defer cancel()

	for {
		record, won, err := s.idempotency.Claim(ctx, ports.IdempotencyRecord{
			Key:         key,
			RequestHash: fingerprint,
			CreatedAt:   s.now().UTC(),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: idempotency claim: %w", ErrPersistence, err)
		}
		if won {
			return nil, nil
		}
		if record.RequestHash != fingerprint {
			return nil, ports.ErrIdempotencyConflict
		}
		if !record.Pending() {
			return s.replay(ctx, record)
		}
		if s.now().Sub(record.CreatedAt) > abandonedClaimAge {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "dropping abandoned idempotency claim",
				slog.String("idempotency.key", key), slog.Time("claimed_at", record.CreatedAt))
			if err := s.idempotency.Release(ctx, key); err != nil {
				return nil, fmt.Errorf("%w: idempotency release: %w", ErrPersistence, err)
			}
			continue
		}

		select {
		case <-waitCtx.Done():
			return nil, ports.ErrIdempotencyInProgress
		case <-time.After(claimPollInterval):
		}
	}
}

func (s *Service) replay(ctx context.Context, record *ports.IdempotencyRecord) (*orderstypes.Placement, error) {
	stored, err := s.finder.FindOrder(ctx, record.OrderID.String())
	if err != nil {
		return nil, fmt.Errorf("%w: load replayed order: %w", ErrPersistence, err)
	}
	order := stored.Entity
	return &orderstypes.Placement{Order: &order, Replayed: true}, nil
}

func (s *Service) notifyInBackground(ctx context.Context, order *domain.Order) {
	if s.notifier == nil {
		return
	}
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer cancel()
		attrs := []slog.Attr{
			slog.String("order.id", order.ID.String()),
			slog.String("order.ref", order.Reference()),
		}
		defer func() {
			if r := recover(); r != nil {
				s.logger.LogAttrs(notifyCtx, slog.LevelError, "order notification panicked",
					append(attrs, slog.Any("panic", r))...)
			}
		}()
		result, err := s.notifier.NotifyOrderPlaced(notifyCtx, order)
		switch {
		case err != nil:
			s.logger.LogAttrs(notifyCtx, slog.LevelError, "order notification failed",
				append(attrs, slog.String("error", err.Error()))...)
		case !result.Success:
			s.logger.LogAttrs(notifyCtx, slog.LevelWarn, "order notification not delivered",
				append(attrs, slog.String("reason", result.Message), slog.Int("attempts", len(result.Attempts)))...)
		default:
			s.logger.LogAttrs(notifyCtx, slog.LevelInfo, "order notification delivered",
				append(attrs, slog.String("channel", result.Channel))...)
		}
	}()
}

var _ ports.Service = (*Service)(nil)
