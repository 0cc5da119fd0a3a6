package ports

import (
	"context"

	"github.com/Apurer/ghadwa-checkout/internal/domains/notifications/domain"
	ordersdomain "github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
)

// Channel is one way of telling operations staff about a new order.
type Channel interface {
	Name() string
	// Enabled reports whether the channel has the configuration it needs.
	// Dispatchers never call SendOrderNotification on a disabled channel.
	Enabled() bool
	// Endpoint is a redacted description of where the channel sends.
	Endpoint() string
	SendOrderNotification(ctx context.Context, order *ordersdomain.Order) error
}

// Dispatcher fans an order notification out across channels.
type Dispatcher interface {
	DispatchOrderNotification(ctx context.Context, order *ordersdomain.Order) domain.DispatchResult
	DispatchToAllChannels(ctx context.Context, order *ordersdomain.Order) domain.BroadcastResult
	TestAllChannels(ctx context.Context) domain.BroadcastResult
	AvailableChannels() []domain.ChannelInfo
}
