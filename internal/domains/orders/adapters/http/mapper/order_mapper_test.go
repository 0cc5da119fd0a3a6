package mapper

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	orderstypes "github.com/Apurer/ghadwa-checkout/internal/domains/orders/application/types"
	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
	"github.com/Apurer/ghadwa-checkout/internal/shared/projection"
)

func TestToCheckoutInput_MapsCartFormAndSchedule(t *testing.T) {
	req := CheckoutRequest{
		Items: []CartItem{{ProductID: " p-1 ", ChefID: " chef-7 ", Name: "Molokhia", Price: decimal.RequireFromString("125.50"), Quantity: 2}},
		Customer: DeliveryDetails{
			Name:    "Mona",
			Phone:   "0100 123 4567",
			Address: "12 Tahrir St, Cairo",
			Notes:   "ring twice",
		},
		PromoCode: "welcome20",
		Schedule:  &ScheduleRequest{Date: "2025-03-11", Slot: " 13:00 "},
	}

	input, err := ToCheckoutInput(req, " key-1 ")
	require.NoError(t, err)
	require.Equal(t, "key-1", input.IdempotencyKey)
	require.Equal(t, "welcome20", input.PromoCode)
	require.Len(t, input.Items, 1)
	require.Equal(t, "p-1", input.Items[0].ProductID)
	require.Equal(t, "chef-7", input.Items[0].VendorID)
	require.True(t, input.Items[0].UnitPrice.Equal(decimal.RequireFromString("125.5")))
	require.NotNil(t, input.Form.Schedule)
	require.Equal(t, "13:00", input.Form.Schedule.Slot)
	require.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), input.Form.Schedule.Date)

	req.Schedule = &ScheduleRequest{Date: "11/03/2025", Slot: "13:00"}
	_, err = ToCheckoutInput(req, "")
	require.Error(t, err)
}

func TestFromDomainOrder_RendersMoneyWithTwoDecimals(t *testing.T) {
	id := uuid.MustParse("0f8b5e8e-3c55-4b62-9a3f-5d4a7c2b1e90")
	order := &domain.Order{
		ID:            id,
		Number:        "GHD-1001",
		VendorID:      "chef-7",
		Customer:      domain.Customer{Name: "Mona", Phone: "01001234567", Address: "12 Tahrir St"},
		Items:         []domain.LineItem{{ProductID: "p-1", Name: "Molokhia", Quantity: 2, UnitPrice: decimal.RequireFromString("125")}},
		Discount:      decimal.RequireFromString("50"),
		PromoCode:     "WELCOME20",
		Status:        domain.StatusPlaced,
		PaymentMethod: domain.PaymentCash,
		Schedule:      &domain.Schedule{Date: time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), Slot: "13:00"},
	}

	resp := FromPlacement(&orderstypes.Placement{Order: order, Degraded: true})
	require.Equal(t, id.String(), resp.ID)
	require.Equal(t, "250.00", resp.Subtotal)
	require.Equal(t, "50.00", resp.Discount)
	require.Equal(t, "200.00", resp.Total)
	require.Equal(t, "250.00", resp.Items[0].LineTotal)
	require.Equal(t, "cash", resp.PaymentMethod)
	require.Equal(t, &Schedule{Date: "2025-03-11", Slot: "13:00"}, resp.Schedule)
	require.True(t, resp.Degraded)
	require.False(t, resp.Replayed)
}

func TestFromProjection_PrefersStoredTimestamps(t *testing.T) {
	created := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)
	proj := &orderstypes.OrderProjection{
		Entity:   domain.Order{Number: "GHD-1002", CreatedAt: created.Add(-time.Minute)},
		Metadata: projection.Metadata{CreatedAt: created, UpdatedAt: updated},
	}

	resp := FromProjection(proj)
	require.Equal(t, created, resp.CreatedAt)
	require.NotNil(t, resp.UpdatedAt)
	require.Equal(t, updated, *resp.UpdatedAt)
	require.Empty(t, resp.Items)
}

func TestRegisterValidators_Phone(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterValidators(v))

	type form struct {
		Phone string `validate:"egphone"`
	}
	require.NoError(t, v.Struct(form{Phone: "011-2345-6789"}))
	require.Error(t, v.Struct(form{Phone: "0131234567"}))
}
