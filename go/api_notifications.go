package checkoutserver

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	notificationsports "github.com/Apurer/ghadwa-checkout/internal/domains/notifications/ports"
)

// AdminTokenHeader carries the operator token for endpoints that send real notifications.
const AdminTokenHeader = "X-Admin-Token"

// NotificationsAPI exposes notification channel diagnostics for operations staff.
type NotificationsAPI struct {
	dispatcher notificationsports.Dispatcher
	adminToken string
}

// NewNotificationsAPI builds the diagnostics handlers. An empty adminToken disables the channel test.
func NewNotificationsAPI(dispatcher notificationsports.Dispatcher, adminToken string) NotificationsAPI {
	return NotificationsAPI{dispatcher: dispatcher, adminToken: strings.TrimSpace(adminToken)}
}

// Get /v1/notifications/channels
// Lists notification channels in priority order
func (api *NotificationsAPI) ListChannels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"channels": channelStatuses(api.dispatcher.AvailableChannels())})
}

// Post /v1/notifications/test
// Sends a sample order through every channel at once
func (api *NotificationsAPI) TestChannels(c *gin.Context) {
	if !api.authorized(c) {
		return
	}
	report := broadcastReport(api.dispatcher.TestAllChannels(c.Request.Context()))
	status := http.StatusOK
	if !report.OverallSuccess {
		status = http.StatusBadGateway
	}
	c.JSON(status, report)
}

func (api *NotificationsAPI) authorized(c *gin.Context) bool {
	if api.adminToken == "" {
		responder.Forbidden(c, "channel test is disabled until NOTIFY_ADMIN_TOKEN is configured")
		return false
	}
	given := strings.TrimSpace(c.GetHeader(AdminTokenHeader))
	if subtle.ConstantTimeCompare([]byte(given), []byte(api.adminToken)) != 1 {
		responder.Forbidden(c, "a valid "+AdminTokenHeader+" header is required")
		return false
	}
	return true
}
