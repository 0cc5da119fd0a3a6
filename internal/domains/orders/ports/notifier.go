package ports

import (
	"context"

	notificationsdomain "github.com/Apurer/ghadwa-checkout/internal/domains/notifications/domain"
	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
)

// NotificationOrchestrator announces a placed order to operations staff.
type NotificationOrchestrator interface {
	NotifyOrderPlaced(ctx context.Context, order *domain.Order) (notificationsdomain.DispatchResult, error)
}
