package formsrelay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	ordersdomain "github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
)

func sampleOrder() *ordersdomain.Order {
	return &ordersdomain.Order{
		ID:       uuid.New(),
		Number:   "GHD-1003",
		Customer: ordersdomain.Customer{Name: "Salma", Phone: "01212345678", Address: "9 El Geish St, Tanta"},
		Items: []ordersdomain.LineItem{
			{Name: "Feteer", Quantity: 2, UnitPrice: decimal.NewFromInt(60)},
			{Name: "Honey", Quantity: 1, UnitPrice: decimal.NewFromInt(25)},
		},
		Discount:  decimal.NewFromInt(20),
		Status:    ordersdomain.StatusPlaced,
		CreatedAt: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestFields_ArabicDefaults(t *testing.T) {
	channel := New(Config{Recipient: "ops@ghadwa.example"}, nil)
	fields := channel.Fields(sampleOrder())

	require.Equal(t, "table", fields["_template"])
	require.Equal(t, "false", fields["_captcha"])
	require.Equal(t, "GHD-1003", fields["رقم الطلب"])
	require.Equal(t, "Feteer × 2 = 120 ج.م | Honey × 1 = 25 ج.م", fields["الأصناف"])
	require.Equal(t, "145 ج.م", fields["المجموع"])
	require.Equal(t, "20 ج.م", fields["الخصم"])
	require.Equal(t, "⭐ 125 ج.م", fields["الإجمالي"])
	require.Equal(t, "🚚 توصيل فوري", fields["موعد التوصيل"])
	require.Equal(t, "—", fields["ملاحظات"])
}

func TestFields_EnglishScheduledNoDiscount(t *testing.T) {
	order := sampleOrder()
	order.Discount = decimal.Zero
	order.Notes = "no onions"
	order.Schedule = &ordersdomain.Schedule{Date: time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), Slot: "14:00"}

	fields := New(Config{Recipient: "ops@ghadwa.example", Locale: LocaleEnglish}, nil).Fields(order)

	require.Equal(t, "—", fields["Discount"])
	require.Equal(t, "⭐ 145 EGP", fields["Total"])
	require.Equal(t, "2025-03-11 at 14:00", fields["Delivery Time"])
	require.Equal(t, "no onions", fields["Notes"])
}

func TestSendOrderNotification_PostsToRecipientPath(t *testing.T) {
	var path string
	var body map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	channel := New(Config{Endpoint: server.URL + "/ajax/", Recipient: "ops@ghadwa.example"}, nil)
	require.NoError(t, channel.SendOrderNotification(context.Background(), sampleOrder()))
	require.Equal(t, "/ajax/ops@ghadwa.example", path)
	require.Equal(t, "Salma", body["اسم العميل"])
}

func TestSendOrderNotification_FailsOnStatus(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := New(Config{Endpoint: server.URL, Recipient: "ops@ghadwa.example"}, nil).
		SendOrderNotification(context.Background(), sampleOrder())
	require.EqualError(t, err, "HTTP 500")
	require.Equal(t, 1, calls)
}

func TestEnabledRequiresValidRecipient(t *testing.T) {
	require.False(t, New(Config{}, nil).Enabled())
	require.False(t, New(Config{Recipient: "not-an-email"}, nil).Enabled())
	require.True(t, New(Config{Recipient: "ops@ghadwa.example"}, nil).Enabled())
	require.Equal(t, "https://formsubmit.co", New(Config{Recipient: "ops@ghadwa.example"}, nil).Endpoint())
}
