package notifications

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	notificationsdomain "github.com/Apurer/ghadwa-checkout/internal/domains/notifications/domain"
	notificationsports "github.com/Apurer/ghadwa-checkout/internal/domains/notifications/ports"
	ordersdomain "github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
)

const (
	// DispatchOrderNotificationActivityName announces a placed order through the first channel that accepts it.
	DispatchOrderNotificationActivityName = "notifications.activities.DispatchOrderNotification"

	// ErrTypeNoChannels marks a dispatch that failed because nothing is configured. It is not retried.
	ErrTypeNoChannels = "NoNotificationChannels"
	// ErrTypeExhausted marks a dispatch where every configured channel failed.
	ErrTypeExhausted = "NotificationChannelsExhausted"
)

// DefaultHeartbeatInterval is how often a running dispatch reports liveness to Temporal.
const DefaultHeartbeatInterval = 10 * time.Second

// Activities groups activities that operate on the notifications bounded context.
type Activities struct {
	dispatcher        notificationsports.Dispatcher
	heartbeatInterval time.Duration
}

// Option configures the activities bundle.
type Option func(*Activities)

func WithHeartbeatInterval(interval time.Duration) Option {
	return func(a *Activities) {
		if interval > 0 {
			a.heartbeatInterval = interval
		}
	}
}

// NewActivities wires the dispatcher into the Temporal activities bundle.
func NewActivities(dispatcher notificationsports.Dispatcher, opts ...Option) *Activities {
	a := &Activities{dispatcher: dispatcher, heartbeatInterval: DefaultHeartbeatInterval}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// DispatchOrderNotification runs one first-success dispatch. A failed dispatch is returned
// as an application error so the workflow retry policy can try again later.
func (a *Activities) DispatchOrderNotification(ctx context.Context, order *ordersdomain.Order) (*notificationsdomain.DispatchResult, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.dispatcher == nil {
		logger.Error("notification activity not initialized")
		return nil, errors.New("notification activity not initialized")
	}
	if order == nil {
		return nil, temporal.NewNonRetryableApplicationError("order is required", "InvalidOrder", nil)
	}

	logger.Info("DispatchOrderNotification activity started", "orderNumber", order.Number, "attempt", activity.GetInfo(ctx).Attempt)
	stop := heartbeatWhileRunning(ctx, a.heartbeatInterval, order.Reference())
	result := a.dispatcher.DispatchOrderNotification(ctx, order)
	stop()
	if !result.Success {
		if !anyConfigured(a.dispatcher.AvailableChannels()) {
			logger.Error("DispatchOrderNotification has no configured channels", "orderNumber", order.Number)
			return nil, temporal.NewNonRetryableApplicationError(result.Message, ErrTypeNoChannels, nil)
		}
		logger.Warn("DispatchOrderNotification exhausted channels", "orderNumber", order.Number, "attempts", len(result.Attempts))
		return nil, temporal.NewApplicationError(result.Message, ErrTypeExhausted, result)
	}
	logger.Info("DispatchOrderNotification activity completed", "orderNumber", order.Number, "channel", result.Channel)
	return &result, nil
}

func anyConfigured(channels []notificationsdomain.ChannelInfo) bool {
	for _, channel := range channels {
		if channel.Configured {
			return true
		}
	}
	return false
}

// heartbeatWhileRunning records a heartbeat right away and then every interval until stop
// is called, so slow channel retries are not mistaken for a dead worker.
func heartbeatWhileRunning(ctx context.Context, interval time.Duration, orderRef string) (stop func()) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		activity.RecordHeartbeat(ctx, orderRef)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				activity.RecordHeartbeat(ctx, orderRef)
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}
