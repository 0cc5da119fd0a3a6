package checkoutserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	ordershttpmapper "github.com/Apurer/ghadwa-checkout/internal/domains/orders/adapters/http/mapper"
	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
	ordersports "github.com/Apurer/ghadwa-checkout/internal/domains/orders/ports"
)

// IdempotencyKeyHeader lets the storefront retry a checkout without placing a second order.
const IdempotencyKeyHeader = "X-Idempotency-Key"

const maxIdempotencyKeyLength = 128

// CheckoutAPI wires HTTP transport with the checkout service.
type CheckoutAPI struct {
	service ordersports.Service
}

// NewCheckoutAPI creates a CheckoutAPI backed by the provided service.
func NewCheckoutAPI(service ordersports.Service) CheckoutAPI {
	return CheckoutAPI{service: service}
}

// Post /v1/checkout/orders
// Places an order from the cart. 201 on a new order, 200 when an idempotent retry is replayed.
func (api *CheckoutAPI) PlaceOrder(c *gin.Context) {
	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLength {
		responder.ValidationFailed(c, map[string]string{
			IdempotencyKeyHeader: "must be at most 128 characters",
		})
		return
	}
	var payload ordershttpmapper.CheckoutRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}
	input, err := ordershttpmapper.ToCheckoutInput(payload, key)
	if err != nil {
		responder.ValidationFailed(c, map[string]string{"schedule.date": "must be a date formatted as " + domain.DateLayout})
		return
	}
	placement, err := api.service.PlaceOrder(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusCreated
	if placement.Replayed {
		status = http.StatusOK
	}
	response := ordershttpmapper.FromPlacement(placement)
	c.Header("Location", "/v1/orders/"+response.ID)
	c.JSON(status, response)
}

// Post /v1/promo-codes/evaluate
// Previews what a promo code is worth for a subtotal
func (api *CheckoutAPI) EvaluatePromo(c *gin.Context) {
	var payload ordershttpmapper.PromoEvaluateRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}
	preview, err := api.service.EvaluatePromo(c.Request.Context(), ordershttpmapper.ToPromoPreviewInput(payload))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromPromoPreview(preview))
}

// Get /v1/orders/:ref
// Tracks an order by id or order number
func (api *CheckoutAPI) GetOrder(c *gin.Context) {
	ref := strings.TrimSpace(c.Param("ref"))
	order, err := api.service.TrackOrder(c.Request.Context(), ref)
	if err != nil {
		if problem, ok := ordershttpmapper.ProblemFor(err); ok && problem.Status == http.StatusNotFound {
			responder.NotFound(c, "order", ref)
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromProjection(order))
}

// Get /v1/delivery-slots
// Lists bookable delivery slots for ?date=YYYY-MM-DD
func (api *CheckoutAPI) ListDeliverySlots(c *gin.Context) {
	date, err := domain.ParseDate(c.Query("date"))
	if err != nil {
		responder.ValidationFailed(c, map[string]string{"date": "must be a date formatted as " + domain.DateLayout})
		return
	}
	slots, err := api.service.DeliverySlots(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordershttpmapper.FromDeliverySlots(slots))
}
