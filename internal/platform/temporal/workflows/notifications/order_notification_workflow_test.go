package notifications

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/converter"
	"go.temporal.io/sdk/testsuite"

	notificationsdomain "github.com/Apurer/ghadwa-checkout/internal/domains/notifications/domain"
	ordersdomain "github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
	notificationactivities "github.com/Apurer/ghadwa-checkout/internal/platform/temporal/activities/notifications"
)

type scriptedDispatcher struct {
	results  []notificationsdomain.DispatchResult
	channels []notificationsdomain.ChannelInfo
	delay    time.Duration
	calls    int
}

func (d *scriptedDispatcher) DispatchOrderNotification(context.Context, *ordersdomain.Order) notificationsdomain.DispatchResult {
	time.Sleep(d.delay)
	result := d.results[min(d.calls, len(d.results)-1)]
	d.calls++
	return result
}

func (d *scriptedDispatcher) DispatchToAllChannels(context.Context, *ordersdomain.Order) notificationsdomain.BroadcastResult {
	return notificationsdomain.BroadcastResult{}
}

func (d *scriptedDispatcher) TestAllChannels(context.Context) notificationsdomain.BroadcastResult {
	return notificationsdomain.BroadcastResult{}
}

func (d *scriptedDispatcher) AvailableChannels() []notificationsdomain.ChannelInfo { return d.channels }

func runWorkflow(t *testing.T, dispatcher *scriptedDispatcher, setup ...func(*testsuite.TestWorkflowEnvironment)) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	for _, fn := range setup {
		fn(env)
	}
	activities := notificationactivities.NewActivities(dispatcher, notificationactivities.WithHeartbeatInterval(10*time.Millisecond))
	env.RegisterActivityWithOptions(activities.DispatchOrderNotification,
		activity.RegisterOptions{Name: notificationactivities.DispatchOrderNotificationActivityName})
	env.ExecuteWorkflow(OrderNotificationWorkflow, OrderNotificationWorkflowInput{
		Order:   &ordersdomain.Order{Number: "GHD-1001"},
		TraceID: "4bf92f3577b34da6a3ce929d0e0e4736",
	})
	require.True(t, env.IsWorkflowCompleted())
	return env
}

func TestOrderNotificationWorkflow_RetriesUntilDelivered(t *testing.T) {
	exhausted := notificationsdomain.DispatchResult{Message: notificationsdomain.MessageExhausted}
	delivered := notificationsdomain.DispatchResult{Success: true, Channel: notificationsdomain.ChannelWebhook}
	dispatcher := &scriptedDispatcher{
		results:  []notificationsdomain.DispatchResult{exhausted, delivered},
		channels: []notificationsdomain.ChannelInfo{{Name: notificationsdomain.ChannelWebhook, Configured: true}},
	}

	env := runWorkflow(t, dispatcher)
	require.NoError(t, env.GetWorkflowError())
	var result notificationsdomain.DispatchResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.True(t, result.Success)
	require.Equal(t, notificationsdomain.ChannelWebhook, result.Channel)
	require.Equal(t, 2, dispatcher.calls)
}

func TestOrderNotificationWorkflow_StopsWithoutConfiguredChannels(t *testing.T) {
	dispatcher := &scriptedDispatcher{
		results:  []notificationsdomain.DispatchResult{{Message: notificationsdomain.MessageExhausted}},
		channels: []notificationsdomain.ChannelInfo{{Name: notificationsdomain.ChannelWebhook}},
	}

	env := runWorkflow(t, dispatcher)
	require.Error(t, env.GetWorkflowError())
	require.Equal(t, 1, dispatcher.calls)
}

func TestOrderNotificationWorkflow_HeartbeatsDuringDispatch(t *testing.T) {
	dispatcher := &scriptedDispatcher{
		results:  []notificationsdomain.DispatchResult{{Success: true, Channel: notificationsdomain.ChannelFormsRelay}},
		channels: []notificationsdomain.ChannelInfo{{Name: notificationsdomain.ChannelFormsRelay, Configured: true}},
		delay:    80 * time.Millisecond,
	}
	var beats atomic.Int32
	var ref string

	env := runWorkflow(t, dispatcher, func(env *testsuite.TestWorkflowEnvironment) {
		env.SetOnActivityHeartbeatListener(func(_ *activity.Info, details converter.EncodedValues) {
			if beats.Add(1) == 1 {
				_ = details.Get(&ref)
			}
		})
	})

	require.NoError(t, env.GetWorkflowError())
	require.GreaterOrEqual(t, beats.Load(), int32(1))
	require.Equal(t, "GHD-1001", ref)
	require.Equal(t, 1, dispatcher.calls)
}
