package checkoutserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// ApiHandleFunctions groups the handlers of every API.
type ApiHandleFunctions struct {
	CheckoutAPI      CheckoutAPI
	NotificationsAPI NotificationsAPI
	HealthAPI        HealthAPI
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
}

// NewRouter returns a new router with every route registered.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds the routes to an existing gin engine.
// Middleware must be attached with engine.Use before calling it.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, route.HandlerFunc)
		case http.MethodPost:
			router.POST(route.Pattern, route.HandlerFunc)
		}
	}
	return router
}

// DefaultHandleFunc answers routes that have no handler wired.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	routes := []Route{
		{"PlaceOrder", http.MethodPost, "/v1/checkout/orders", handleFunctions.CheckoutAPI.PlaceOrder},
		{"EvaluatePromo", http.MethodPost, "/v1/promo-codes/evaluate", handleFunctions.CheckoutAPI.EvaluatePromo},
		{"GetOrder", http.MethodGet, "/v1/orders/:ref", handleFunctions.CheckoutAPI.GetOrder},
		{"ListDeliverySlots", http.MethodGet, "/v1/delivery-slots", handleFunctions.CheckoutAPI.ListDeliverySlots},
		{"ListChannels", http.MethodGet, "/v1/notifications/channels", handleFunctions.NotificationsAPI.ListChannels},
		{"TestChannels", http.MethodPost, "/v1/notifications/test", handleFunctions.NotificationsAPI.TestChannels},
		{"Healthz", http.MethodGet, "/healthz", handleFunctions.HealthAPI.Healthz},
	}
	if handleFunctions.MetricsHandler != nil {
		routes = append(routes, Route{"Metrics", http.MethodGet, "/metrics", gin.WrapH(handleFunctions.MetricsHandler)})
	}
	return routes
}
