package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	notificationsdomain "github.com/Apurer/ghadwa-checkout/internal/domains/notifications/domain"
	notificationsports "github.com/Apurer/ghadwa-checkout/internal/domains/notifications/ports"
	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/ports"
	notificationworkflows "github.com/Apurer/ghadwa-checkout/internal/platform/temporal/workflows/notifications"
)

var (
	_ ports.NotificationOrchestrator = (*TemporalOrderNotifications)(nil)
	_ ports.NotificationOrchestrator = (*InlineOrderNotifications)(nil)
)

// TemporalOrderNotifications hands order notifications to a Temporal workflow.
type TemporalOrderNotifications struct {
	client    client.Client
	taskQueue string
}

// NewTemporalOrderNotifications wires a Temporal client into the orchestrator.
func NewTemporalOrderNotifications(c client.Client) *TemporalOrderNotifications {
	return &TemporalOrderNotifications{client: c, taskQueue: notificationworkflows.OrderNotificationTaskQueue}
}

// NotifyOrderPlaced starts the notification workflow for the order and waits for its outcome.
// The workflow ID is derived from the order, so a replayed checkout joins the existing run.
// When ctx ends first the workflow keeps running and the returned result says so.
func (o *TemporalOrderNotifications) NotifyOrderPlaced(ctx context.Context, order *domain.Order) (notificationsdomain.DispatchResult, error) {
	if o == nil || o.client == nil {
		return notificationsdomain.DispatchResult{}, errors.New("temporal order notifications not configured")
	}
	if order == nil {
		return notificationsdomain.DispatchResult{}, errors.New("order is required")
	}
	workflowID := BuildOrderNotificationWorkflowID(order)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		notificationworkflows.OrderNotificationWorkflowName,
		notificationworkflows.OrderNotificationWorkflowInput{Order: order, TraceID: workflowTraceID(ctx)},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if !errors.As(err, &alreadyStarted) {
			return notificationsdomain.DispatchResult{}, err
		}
		run = o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
	}
	var result notificationsdomain.DispatchResult
	if err := run.Get(ctx, &result); err != nil {
		if ctx.Err() != nil {
			return notificationsdomain.DispatchResult{
				Message: fmt.Sprintf("notification workflow %s still running", workflowID),
			}, nil
		}
		return notificationsdomain.DispatchResult{}, err
	}
	return result, nil
}

// InlineOrderNotifications dispatches in-process without Temporal, useful for tests or dev fallbacks.
type InlineOrderNotifications struct {
	dispatcher notificationsports.Dispatcher
}

// NewInlineOrderNotifications wraps the dispatcher for synchronous execution.
func NewInlineOrderNotifications(dispatcher notificationsports.Dispatcher) *InlineOrderNotifications {
	return &InlineOrderNotifications{dispatcher: dispatcher}
}

// NotifyOrderPlaced delegates to the dispatcher without durable orchestration.
func (o *InlineOrderNotifications) NotifyOrderPlaced(ctx context.Context, order *domain.Order) (notificationsdomain.DispatchResult, error) {
	if o == nil || o.dispatcher == nil {
		return notificationsdomain.DispatchResult{}, errors.New("inline order notifications not configured")
	}
	return o.dispatcher.DispatchOrderNotification(ctx, order), nil
}

// BuildOrderNotificationWorkflowID names the notification run of one order.
func BuildOrderNotificationWorkflowID(order *domain.Order) string {
	if order.ID != uuid.Nil {
		return fmt.Sprintf("order-notification-%s", order.ID)
	}
	return fmt.Sprintf("order-notification-%s-%d", order.Number, time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	span := oteltrace.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	traceID := spanCtx.TraceID()
	if !traceID.IsValid() {
		return ""
	}
	return traceID.String()
}
