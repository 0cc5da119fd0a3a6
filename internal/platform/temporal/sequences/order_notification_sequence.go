package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	notificationsdomain "github.com/Apurer/ghadwa-checkout/internal/domains/notifications/domain"
	ordersdomain "github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
	notificationactivities "github.com/Apurer/ghadwa-checkout/internal/platform/temporal/activities/notifications"
)

// NotificationActivityOptions bounds one dispatch attempt. A webhook run with three tries and
// capped Retry-After hints fits well inside the start-to-close timeout. The heartbeat timeout
// is three heartbeat intervals.
func NotificationActivityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		HeartbeatTimeout:    3 * notificationactivities.DefaultHeartbeatInterval,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        30 * time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        5 * time.Minute,
			MaximumAttempts:        4,
			NonRetryableErrorTypes: []string{notificationactivities.ErrTypeNoChannels},
		},
	}
}

// RunOrderNotificationSequence dispatches the order notification with durable retries.
func RunOrderNotificationSequence(ctx workflow.Context, order *ordersdomain.Order) (*notificationsdomain.DispatchResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("order notification sequence started", "orderNumber", order.Number)

	var result notificationsdomain.DispatchResult
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, NotificationActivityOptions()),
		notificationactivities.DispatchOrderNotificationActivityName, order).Get(ctx, &result)
	if err != nil {
		logger.Error("order notification sequence failed", "orderNumber", order.Number, "error", err)
		return nil, err
	}
	logger.Info("order notification sequence delivered", "orderNumber", order.Number, "channel", result.Channel)
	return &result, nil
}
