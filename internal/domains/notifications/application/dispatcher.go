package application

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Apurer/ghadwa-checkout/internal/domains/notifications/domain"
	"github.com/Apurer/ghadwa-checkout/internal/domains/notifications/ports"
	ordersdomain "github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
)

// Dispatcher tries notification channels in priority order.
type Dispatcher struct {
	channels []ports.Channel
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures optional collaborators on the dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for per-attempt log lines.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithClock overrides the time source used for sample orders.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDispatcher keeps channels in the given priority order.
func NewDispatcher(channels []ports.Channel, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		channels: append([]ports.Channel(nil), channels...),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// DispatchOrderNotification stops at the first channel that accepts the order.
// Channels are tried one at a time and disabled channels are never invoked.
func (d *Dispatcher) DispatchOrderNotification(ctx context.Context, order *ordersdomain.Order) domain.DispatchResult {
	var attempts []domain.Result
	for _, channel := range d.channels {
		if !channel.Enabled() {
			d.logger.LogAttrs(ctx, slog.LevelDebug, "notification channel skipped",
				slog.String("channel", channel.Name()), slog.String("reason", domain.MessageNotConfigured))
			continue
		}
		result := d.send(ctx, channel, order)
		attempts = append(attempts, result)
		if result.Success {
			return domain.DispatchResult{Success: true, Channel: channel.Name(), Attempts: attempts}
		}
		if ctx.Err() != nil {
			break
		}
	}
	d.logger.LogAttrs(ctx, slog.LevelWarn, domain.MessageExhausted,
		slog.String("order.ref", order.Reference()), slog.Int("attempted", len(attempts)))
	return domain.DispatchResult{Success: false, Message: domain.MessageExhausted, Attempts: attempts}
}

// DispatchToAllChannels sends through every enabled channel concurrently.
// Results are aligned with the channel list.
func (d *Dispatcher) DispatchToAllChannels(ctx context.Context, order *ordersdomain.Order) domain.BroadcastResult {
	results := make([]domain.Result, len(d.channels))
	g, gctx := errgroup.WithContext(ctx)
	for i, channel := range d.channels {
		if !channel.Enabled() {
			results[i] = domain.Result{Channel: channel.Name(), Error: domain.MessageNotConfigured, Skipped: true}
			continue
		}
		g.Go(func() error {
			results[i] = d.send(gctx, channel, order)
			return nil
		})
	}
	_ = g.Wait()

	broadcast := domain.BroadcastResult{Results: results}
	for _, result := range results {
		if result.Success {
			broadcast.SuccessCount++
		}
	}
	broadcast.OverallSuccess = broadcast.SuccessCount > 0
	return broadcast
}

// TestAllChannels broadcasts a generated sample order.
func (d *Dispatcher) TestAllChannels(ctx context.Context) domain.BroadcastResult {
	return d.DispatchToAllChannels(ctx, domain.SampleOrder(d.now()))
}

// AvailableChannels reports which channels are configured.
func (d *Dispatcher) AvailableChannels() []domain.ChannelInfo {
	infos := make([]domain.ChannelInfo, 0, len(d.channels))
	for _, channel := range d.channels {
		infos = append(infos, domain.ChannelInfo{
			Name:       channel.Name(),
			Configured: channel.Enabled(),
			Endpoint:   channel.Endpoint(),
		})
	}
	return infos
}

// send runs one channel. A panicking channel is reported as a failed result so the
// remaining channels still run.
func (d *Dispatcher) send(ctx context.Context, channel ports.Channel, order *ordersdomain.Order) (result domain.Result) {
	start := time.Now()
	attrs := []slog.Attr{
		slog.String("channel", channel.Name()),
		slog.String("order.ref", order.Reference()),
	}
	defer func() {
		if r := recover(); r != nil {
			result = domain.Result{Channel: channel.Name(), Error: fmt.Sprintf("channel panicked: %v", r), Attempts: 1}
			d.logger.LogAttrs(ctx, slog.LevelError, "notification channel panicked",
				append(attrs, slog.Any("panic", r), slog.String("stack", string(debug.Stack())))...)
		}
	}()

	sendCtx, counter := domain.WithAttemptCounter(ctx)
	err := channel.SendOrderNotification(sendCtx, order)
	result = domain.ResultFromError(channel.Name(), err)
	if result.Success {
		result.Attempts = max(1, counter.Count())
	}
	attrs = append(attrs,
		slog.Bool("success", result.Success),
		slog.Int("attempts", result.Attempts),
		slog.Duration("elapsed", time.Since(start)),
	)
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		if result.RetryAfter > 0 {
			attrs = append(attrs, slog.Duration("retry_after", result.RetryAfter))
		}
		d.logger.LogAttrs(ctx, slog.LevelWarn, "notification channel failed", attrs...)
		return result
	}
	d.logger.LogAttrs(ctx, slog.LevelInfo, "notification channel delivered", attrs...)
	return result
}

var _ ports.Dispatcher = (*Dispatcher)(nil)
