//go:build pact
// +build pact

package consumer_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	pacttest "github.com/Apurer/ghadwa-checkout/test/pact"

	"github.com/google/uuid"
	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/ghadwa-checkout/internal/domains/notifications/adapters/channels/webhook"
	ordersdomain "github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
)

func TestOpsWebhookContract(t *testing.T) {
	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.WebhookConsumerName,
		Provider: pacttest.WebhookProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	pact.AddInteraction().
		Given(pacttest.StateWebhookReady).
		UponReceiving("an order placed notification").
		WithRequest(http.MethodPost, pacttest.WebhookPath, func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.Regex("application/json", "application\\/json.*"))
			b.JSONBody(matchers.Map{
				"text":         matchers.Like("new order"),
				"orderId":      matchers.S(pacttest.ExistingOrderNumber),
				"customerName": matchers.Like("Mona Adel"),
				"phoneNumber":  matchers.Like("01001234567"),
				"address":      matchers.Like("12 Tahrir St, Cairo"),
				"items":        matchers.Like("Molokhia x2"),
				"totalPrice":   matchers.Like(200.0),
				"notes":        matchers.Like("ring twice"),
				"timestamp":    matchers.Like("2025-03-10T12:00:00Z"),
			})
		}).
		WillRespondWith(http.StatusOK)

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		host := config.Host
		if host == "" {
			host = "localhost"
		}
		channel := webhook.New(webhook.Config{
			URL:         fmt.Sprintf("http://%s:%d%s", host, config.Port, pacttest.WebhookPath),
			MaxAttempts: 1,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return channel.SendOrderNotification(ctx, pactOrder())
	})
	require.NoError(t, err)
}

func pactOrder() *ordersdomain.Order {
	return &ordersdomain.Order{
		ID:       uuid.MustParse("6f1c7f4e-2a7b-4f63-9a55-0d8f7f1d2c11"),
		Number:   pacttest.ExistingOrderNumber,
		VendorID: "chef-7",
		Customer: ordersdomain.Customer{Name: "Mona Adel", Phone: "01001234567", Address: "12 Tahrir St, Cairo"},
		Notes:    "ring twice",
		Items: []ordersdomain.LineItem{
			{ProductID: "p-1", Name: "Molokhia", Quantity: 2, UnitPrice: decimal.NewFromInt(125)},
		},
		Discount:  decimal.NewFromInt(50),
		Status:    ordersdomain.StatusPlaced,
		CreatedAt: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}
