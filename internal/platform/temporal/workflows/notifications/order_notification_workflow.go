package notifications

import (
	"go.temporal.io/sdk/workflow"

	notificationsdomain "github.com/Apurer/ghadwa-checkout/internal/domains/notifications/domain"
	ordersdomain "github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
	"github.com/Apurer/ghadwa-checkout/internal/platform/temporal/sequences"
)

const (
	// OrderNotificationWorkflowName is the public identifier for registering the workflow.
	OrderNotificationWorkflowName = "notifications.workflows.OrderPlaced"
	// OrderNotificationTaskQueue is the queue consumed by the notifications worker.
	OrderNotificationTaskQueue = "ORDER_NOTIFICATIONS"
)

// OrderNotificationWorkflowInput carries the placed order to announce.
type OrderNotificationWorkflowInput struct {
	Order   *ordersdomain.Order
	TraceID string
}

// OrderNotificationWorkflow tells operations staff about a placed order.
func OrderNotificationWorkflow(ctx workflow.Context, input OrderNotificationWorkflowInput) (*notificationsdomain.DispatchResult, error) {
	logger := workflow.GetLogger(ctx)
	if input.Order == nil {
		logger.Error("OrderNotificationWorkflow started without an order", withTraceID(input.TraceID)...)
		return &notificationsdomain.DispatchResult{Message: "order is required"}, nil
	}
	number := input.Order.Number
	logger.Info("OrderNotificationWorkflow started", withTraceID(input.TraceID, "orderNumber", number)...)
	result, err := sequences.RunOrderNotificationSequence(ctx, input.Order)
	if err != nil {
		logger.Error("OrderNotificationWorkflow failed", withTraceID(input.TraceID, "orderNumber", number, "error", err)...)
		return nil, err
	}
	logger.Info("OrderNotificationWorkflow completed", withTraceID(input.TraceID, "orderNumber", number, "channel", result.Channel)...)
	return result, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
