package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ordersdomain "github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
)

// ItemsSummary joins the item names of an order.
func ItemsSummary(order *ordersdomain.Order) string {
	return strings.Join(order.ItemNames(), ", ")
}

// Timestamp renders the order creation time for outbound payloads.
func Timestamp(order *ordersdomain.Order) string {
	return order.CreatedAt.UTC().Format(time.RFC3339)
}

// FormatOrderMessage renders the bilingual text announced to operations staff.
func FormatOrderMessage(order *ordersdomain.Order) string {
	lines := []string{
		"🍽️ **طلب جديد - New Order**",
		"",
		fmt.Sprintf("👤 **العميل - Customer:** %s", order.Customer.Name),
		fmt.Sprintf("📱 **الهاتف - Phone:** %s", order.Customer.Phone),
		fmt.Sprintf("📍 **العنوان - Address:** %s", order.Customer.Address),
		"",
		fmt.Sprintf("🍲 **الطلب - Order:** %s", ItemsSummary(order)),
		fmt.Sprintf("💰 **الإجمالي - Total:** %s EGP", order.Total().String()),
	}
	if notes := strings.TrimSpace(order.Notes); notes != "" {
		lines = append(lines, fmt.Sprintf("📝 **ملاحظات - Notes:** %s", notes))
	}
	if order.Schedule != nil {
		lines = append(lines, fmt.Sprintf("🚚 **موعد التوصيل - Delivery:** %s %s", order.Schedule.DateString(), order.Schedule.Slot))
	}
	lines = append(lines,
		"",
		fmt.Sprintf("🕐 **الوقت - Time:** %s", Timestamp(order)),
		fmt.Sprintf("🆔 **رقم الطلب - Order ID:** %s", order.Reference()),
	)
	return strings.Join(lines, "\n")
}

// SampleOrder builds the order used to exercise channels from diagnostics.
func SampleOrder(now time.Time) *ordersdomain.Order {
	return &ordersdomain.Order{
		ID:       uuid.New(),
		Number:   fmt.Sprintf("TEST-%d", now.Unix()),
		VendorID: "test-vendor",
		Customer: ordersdomain.Customer{
			Name:    "Test Customer - عميل تجريبي",
			Phone:   "01000000000",
			Address: "Test Address, Tanta, Egypt - عنوان تجريبي، طنطا، مصر",
		},
		Items: []ordersdomain.LineItem{{
			ProductID: "test-item-1",
			Name:      "Test Meal - وجبة تجريبية",
			Quantity:  1,
			UnitPrice: decimal.NewFromInt(50),
		}},
		Status:        ordersdomain.StatusPlaced,
		PaymentMethod: ordersdomain.PaymentCash,
		CreatedAt:     now,
	}
}
