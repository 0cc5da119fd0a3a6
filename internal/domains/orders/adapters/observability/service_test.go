package observability

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/application"
	orderstypes "github.com/Apurer/ghadwa-checkout/internal/domains/orders/application/types"
	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
)

type stubService struct {
	placeErr error
}

func (s stubService) PlaceOrder(context.Context, orderstypes.CheckoutInput) (*orderstypes.Placement, error) {
	if s.placeErr != nil {
		return nil, s.placeErr
	}
	return &orderstypes.Placement{Order: &domain.Order{ID: uuid.New(), Number: "GHD-1001"}}, nil
}

func (s stubService) EvaluatePromo(context.Context, orderstypes.PromoPreviewInput) (*orderstypes.PromoPreview, error) {
	return nil, &domain.PromoError{Kind: domain.PromoExpired, Code: "OLD"}
}

func (s stubService) TrackOrder(context.Context, string) (*orderstypes.OrderProjection, error) {
	return &orderstypes.OrderProjection{}, nil
}

func (s stubService) DeliverySlots(_ context.Context, date time.Time) (*orderstypes.DeliverySlots, error) {
	return &orderstypes.DeliverySlots{Date: date, Slots: []string{"09:00"}}, nil
}

func TestService_LogsPlacementAndFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	svc := New(stubService{}, WithLogger(logger))
	placement, err := svc.PlaceOrder(context.Background(), orderstypes.CheckoutInput{})
	require.NoError(t, err)
	require.Equal(t, "GHD-1001", placement.Order.Number)
	require.Contains(t, buf.String(), `"msg":"order placed"`)
	require.Contains(t, buf.String(), `"order.number":"GHD-1001"`)

	buf.Reset()
	failing := New(stubService{placeErr: fmt.Errorf("%w: boom", application.ErrPersistence)}, WithLogger(logger))
	_, err = failing.PlaceOrder(context.Background(), orderstypes.CheckoutInput{})
	require.ErrorIs(t, err, application.ErrPersistence)
	require.Contains(t, buf.String(), `"reason":"persistence"`)

	_, err = failing.EvaluatePromo(context.Background(), orderstypes.PromoPreviewInput{Code: "OLD"})
	kind, ok := domain.PromoErrorKindOf(err)
	require.True(t, ok)
	require.Equal(t, domain.PromoExpired, kind)
}

func TestRejectionKind(t *testing.T) {
	require.Equal(t, "vendor_conflict", rejectionKind(domain.ErrVendorConflict))
	require.Equal(t, "promo", rejectionKind(&domain.PromoError{Kind: domain.PromoNotFound}))
	require.Equal(t, "scheduling", rejectionKind(&domain.SchedulingError{Reason: "late"}))
	require.Equal(t, "validation", rejectionKind(fmt.Errorf("%w: %w", application.ErrInvalidInput, domain.ErrEmptyCart)))
	require.Equal(t, "other", rejectionKind(fmt.Errorf("unexpected")))
}
