//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	pacttest "github.com/Apurer/ghadwa-checkout/test/pact"

	checkoutserver "github.com/Apurer/ghadwa-checkout/go"
	ordersmemory "github.com/Apurer/ghadwa-checkout/internal/domains/orders/adapters/memory"
	ordersobs "github.com/Apurer/ghadwa-checkout/internal/domains/orders/adapters/observability"
	ordersapp "github.com/Apurer/ghadwa-checkout/internal/domains/orders/application"
	orderstypes "github.com/Apurer/ghadwa-checkout/internal/domains/orders/application/types"
	ordersdomain "github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var lunchtime = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestCheckoutProviderPact(t *testing.T) {
	gin.SetMode(gin.TestMode)
	require.NoError(t, checkoutserver.RegisterBindingValidators())

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	reset := func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
		app.reset()
		return nil, nil
	}
	verifier := pactprovider.NewVerifier()
	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers: models.StateHandlers{
			pacttest.StatePromosSeeded: reset,
			pacttest.StateOrderMissing: reset,
			pacttest.StateOrderExists: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
				app.reset()
				if setup {
					return nil, app.seedOrder()
				}
				return nil, nil
			},
		},
		BeforeEach: func() error {
			app.reset()
			return nil
		},
	})
	require.NoError(t, err)
}

// contractProviderApp rebuilds the in-memory stack per provider state behind one server.
type contractProviderApp struct {
	mu      sync.RWMutex
	router  *gin.Engine
	service *ordersapp.Service
	server  *httptest.Server
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()
	app := &contractProviderApp{}
	app.reset()
	app.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.mu.RLock()
		router := app.router
		app.mu.RUnlock()
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(app.server.Close)
	return app
}

func (a *contractProviderApp) reset() {
	clock := func() time.Time { return lunchtime }
	store := ordersmemory.NewDataStore(ordersmemory.DemoPromoCodes()...)
	store.WithClock(clock)
	idempotency := ordersmemory.NewIdempotencyStore()
	idempotency.WithClock(clock)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := ordersapp.NewService(store, store,
		ordersapp.WithClock(clock),
		ordersapp.WithIdempotencyStore(idempotency),
		ordersapp.WithLogger(logger),
	)

	router := gin.New()
	router.Use(gin.Recovery())
	router = checkoutserver.NewRouterWithGinEngine(router, checkoutserver.ApiHandleFunctions{
		CheckoutAPI: checkoutserver.NewCheckoutAPI(ordersobs.New(service, ordersobs.WithLogger(logger))),
	})

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.service != nil {
		a.service.Wait()
	}
	a.router = router
	a.service = service
}

func (a *contractProviderApp) seedOrder() error {
	a.mu.RLock()
	service := a.service
	a.mu.RUnlock()
	placement, err := service.PlaceOrder(context.Background(), orderstypes.CheckoutInput{
		Items: []ordersdomain.CartItem{
			{ProductID: "p-1", VendorID: "chef-7", Name: "Molokhia", UnitPrice: decimal.NewFromInt(125), Quantity: 2},
		},
		Form:      ordersdomain.DeliveryForm{Name: "Mona Adel", Phone: "01001234567", Address: "12 Tahrir St, Cairo"},
		PromoCode: "WELCOME20",
	})
	if err != nil {
		return err
	}
	if placement.Order.Number != pacttest.ExistingOrderNumber {
		return errors.New("seeded order got number " + placement.Order.Number)
	}
	return nil
}
