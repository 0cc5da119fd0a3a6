package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	notificationsdomain "github.com/Apurer/ghadwa-checkout/internal/domains/notifications/domain"
	ordersmemory "github.com/Apurer/ghadwa-checkout/internal/domains/orders/adapters/memory"
	orderstypes "github.com/Apurer/ghadwa-checkout/internal/domains/orders/application/types"
	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/domain"
	"github.com/Apurer/ghadwa-checkout/internal/domains/orders/ports"
)

var morning = time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

type recordingStore struct {
	*ordersmemory.DataStore
	headerErr    error
	itemsErr     error
	beforeInsert func()

	mu         sync.Mutex
	promoCalls int
	headers    int
	itemCalls  int
}

func newRecordingStore() *recordingStore {
	return &recordingStore{DataStore: ordersmemory.NewDataStore(ordersmemory.DemoPromoCodes()...)}
}

func (s *recordingStore) PromoCodes(ctx context.Context) ([]domain.PromoCode, error) {
	s.mu.Lock()
	s.promoCalls++
	s.mu.Unlock()
	return s.DataStore.PromoCodes(ctx)
}

func (s *recordingStore) InsertOrder(ctx context.Context, order *domain.Order) (string, error) {
	s.mu.Lock()
	s.headers++
	s.mu.Unlock()
	if s.beforeInsert != nil {
		s.beforeInsert()
	}
	if s.headerErr != nil {
		return "", s.headerErr
	}
	return s.DataStore.InsertOrder(ctx, order)
}

func (s *recordingStore) InsertOrderItems(ctx context.Context, id uuid.UUID, items []domain.LineItem) error {
	s.mu.Lock()
	s.itemCalls++
	s.mu.Unlock()
	if s.itemsErr != nil {
		return s.itemsErr
	}
	return s.DataStore.InsertOrderItems(ctx, id, items)
}

func (s *recordingStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.promoCalls + s.headers + s.itemCalls
}

type recordingNotifier struct {
	mu     sync.Mutex
	orders []*domain.Order
}

func (n *recordingNotifier) NotifyOrderPlaced(_ context.Context, order *domain.Order) (notificationsdomain.DispatchResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, order)
	return notificationsdomain.DispatchResult{Success: true, Channel: notificationsdomain.ChannelWebhook}, nil
}

type panickingNotifier struct{}

func (panickingNotifier) NotifyOrderPlaced(context.Context, *domain.Order) (notificationsdomain.DispatchResult, error) {
	panic("relay client not initialised")
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.orders)
}

func newService(store *recordingStore, notifier *recordingNotifier, now time.Time, opts ...Option) *Service {
	base := []Option{
		WithClock(func() time.Time { return now }),
		WithNotifier(notifier),
		WithIdempotencyStore(ordersmemory.NewIdempotencyStore()),
	}
	return NewService(store, store, append(base, opts...)...)
}

func cart() []domain.CartItem {
	return []domain.CartItem{
		{ProductID: "p-1", VendorID: "chef-1", Name: "Molokhia", UnitPrice: decimal.NewFromInt(85), Quantity: 2},
		{ProductID: "p-2", VendorID: "chef-1", Name: "Rice", UnitPrice: decimal.NewFromInt(30), Quantity: 1},
	}
}

func form() domain.DeliveryForm {
	return domain.DeliveryForm{Name: "Mona", Phone: "010 1234 5678", Address: "12 Tahrir St, Cairo"}
}

func TestPlaceOrder_StoresAndNotifies(t *testing.T) {
	store := newRecordingStore()
	notifier := &recordingNotifier{}
	svc := newService(store, notifier, morning)

	placement, err := svc.PlaceOrder(context.Background(), orderstypes.CheckoutInput{Items: cart(), Form: form()})
	require.NoError(t, err)
	svc.Wait()

	order := placement.Order
	require.False(t, placement.Degraded)
	require.Equal(t, "GHD-1001", order.Number)
	require.Equal(t, "01012345678", order.Customer.Phone)
	require.Equal(t, domain.StatusPlaced, order.Status)
	require.Equal(t, domain.PaymentCash, order.PaymentMethod)
	require.True(t, decimal.NewFromInt(200).Equal(order.Total()))
	require.Equal(t, morning, order.CreatedAt)
	require.Equal(t, 1, notifier.count())

	tracked, err := svc.TrackOrder(context.Background(), "GHD-1001")
	require.NoError(t, err)
	require.Len(t, tracked.Entity.Items, 2)
}

func TestPlaceOrder_AppliesPromo(t *testing.T) {
	store := newRecordingStore()
	svc := newService(store, &recordingNotifier{}, morning)

	placement, err := svc.PlaceOrder(context.Background(), orderstypes.CheckoutInput{Items: cart(), Form: form(), PromoCode: " welcome20 "})
	require.NoError(t, err)
	svc.Wait()

	require.Equal(t, "WELCOME20", placement.Order.PromoCode)
	require.True(t, decimal.NewFromInt(40).Equal(placement.Order.Discount))
	require.True(t, decimal.NewFromInt(160).Equal(placement.Order.Total()))
}

func TestPlaceOrder_VendorConflictNeverTouchesStore(t *testing.T) {
	store := newRecordingStore()
	notifier := &recordingNotifier{}
	svc := newService(store, notifier, morning)
	items := cart()
	items[1].VendorID = "chef-2"

	_, err := svc.PlaceOrder(context.Background(), orderstypes.CheckoutInput{Items: items, Form: form(), PromoCode: "WELCOME20"})
	svc.Wait()

	require.ErrorIs(t, err, domain.ErrVendorConflict)
	require.Zero(t, store.calls())
	require.Zero(t, notifier.count())
}

func TestPlaceOrder_InvalidFormReportsFields(t *testing.T) {
	svc := newService(newRecordingStore(), &recordingNotifier{}, morning)
	bad := form()
	bad.Phone = "0201234567"
	bad.Address = "x"

	_, err := svc.PlaceOrder(context.Background(), orderstypes.CheckoutInput{Items: cart(), Form: bad})

	require.ErrorIs(t, err, ErrInvalidInput)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Contains(t, verr.Fields, "phone")
	require.Contains(t, verr.Fields, "address")
}

func TestPlaceOrder_PromoRejections(t *testing.T) {
	store := newRecordingStore()
	svc := newService(store, &recordingNotifier{}, morning)

	_, err := svc.PlaceOrder(context.Background(), orderstypes.CheckoutInput{Items: cart(), Form: form(), PromoCode: "x!"})
	kind, ok := domain.PromoErrorKindOf(err)
	require.True(t, ok)
	require.Equal(t, domain.PromoNotFound, kind)
	require.Zero(t, store.promoCalls)

	small := []domain.CartItem{{VendorID: "chef-1", Name: "Rice", UnitPrice: decimal.NewFromInt(30), Quantity: 1}}
	_, err = svc.PlaceOrder(context.Background(), orderstypes.CheckoutInput{Items: small, Form: form(), PromoCode: "GHADWA50"})
	kind, ok = domain.PromoErrorKindOf(err)
	require.True(t, ok)
	require.Equal(t, domain.PromoBelowMinimum, kind)
	require.Zero(t, store.headers)
}

func TestPlaceOrder_SchedulingAfterCutoff(t *testing.T) {
	evening := time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)
	svc := newService(newRecordingStore(), &recordingNotifier{}, evening)
	scheduled := form()
	scheduled.Schedule = &domain.ScheduleRequest{Date: evening, Slot: "22:30"}

	_, err := svc.PlaceOrder(context.Background(), orderstypes.CheckoutInput{Items: cart(), Form: scheduled})
	var schedErr *domain.SchedulingError
	require.True(t, errors.As(err, &schedErr))

	scheduled.Schedule = &domain.ScheduleRequest{Date: evening.AddDate(0, 0, 1), Slot: "09:00"}
	placement, err := svc.PlaceOrder(context.Background(), orderstypes.CheckoutInput{Items: cart(), Form: scheduled})
	require.NoError(t, err)
	svc.Wait()
	require.Equal(t, "2025-03-11", placement.Order.Schedule.DateString())
	require.Equal(t, "09:00", placement.Order.Schedule.Slot)
}

func TestPlaceOrder_HeaderFailureSkipsItemsAndNotification(t *testing.T) {
	store := newRecordingStore()
	store.headerErr = errors.New("connection refused")
	notifier := &recordingNotifier{}
	svc := newService(store, notifier, morning)

	_, err := svc.PlaceOrder(context.Background(), orderstypes.CheckoutInput{Items: cart(), Form: form()})
	svc.Wait()

	require.ErrorIs(t, err, ErrPersistence)
	require.Equal(t, 1, store.headers)
	require.Zero(t, store.itemCalls)
	require.Zero(t, notifier.count())
}

func TestPlaceOrder_ItemFailureIsDegradedButNotified(t *testing.T) {
	store := newRecordingStore()
	store.itemsErr = errors.New("order_items unavailable")
	notifier := &recordingNotifier{}
	svc := newService(store, notifier, morning)

	placement, err := svc.PlaceOrder(context.Background(), orderstypes.CheckoutInput{Items: cart(), Form: form()})
	require.NoError(t, err)
	svc.Wait()

	require.True(t, placement.Degraded)
	require.Equal(t, "GHD-1001", placement.Order.Number)
	require.Equal(t, 1, notifier.count())
}

func TestPlaceOrder_IdempotentReplay(t *testing.T) {
	store := newRecordingStore()
	notifier := &recordingNotifier{}
	svc := newService(store, notifier, morning)
	input := orderstypes.CheckoutInput{Items: cart(), Form: form(), IdempotencyKey: "cart-42"}

	first, err := svc.PlaceOrder(context.Background(), input)
	require.NoError(t, err)
	second, err := svc.PlaceOrder(context.Background(), input)
	require.NoError(t, err)
	svc.Wait()

	require.True(t, second.Replayed)
	require.Equal(t, first.Order.ID, second.Order.ID)
	require.Equal(t, 1, store.headers)
	require.Equal(t, 1, notifier.count())

	changed := input
	changed.Form.Notes = "extra bread"
	_, err = svc.PlaceOrder(context.Background(), changed)
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
}

func TestPlaceOrder_ConcurrentSameKeyPlacesOnce(t *testing.T) {
	store := newRecordingStore()
	store.beforeInsert = func() { time.Sleep(50 * time.Millisecond) }
	notifier := &recordingNotifier{}
	svc := newService(store, notifier, morning)
	input := orderstypes.CheckoutInput{Items: cart(), Form: form(), IdempotencyKey: "double-click"}

	const clicks = 5
	placements := make([]*orderstypes.Placement, clicks)
	errs := make([]error, clicks)
	var wg sync.WaitGroup
	for i := 0; i < clicks; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			placements[i], errs[i] = svc.PlaceOrder(context.Background(), input)
		}(i)
	}
	wg.Wait()
	svc.Wait()

	fresh := 0
	for i := 0; i < clicks; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, placements[0].Order.ID, placements[i].Order.ID)
		if !placements[i].Replayed {
			fresh++
		}
	}
	require.Equal(t, 1, fresh)
	require.Equal(t, 1, store.headers)
	require.Equal(t, 1, notifier.count())
}

func TestPlaceOrder_SameKeyInProgressTimesOut(t *testing.T) {
	store := newRecordingStore()
	inserting := make(chan struct{})
	unblock := make(chan struct{})
	store.beforeInsert = func() {
		close(inserting)
		<-unblock
	}
	svc := newService(store, &recordingNotifier{}, morning, WithClaimWait(20*time.Millisecond))
	input := orderstypes.CheckoutInput{Items: cart(), Form: form(), IdempotencyKey: "slow-db"}

	done := make(chan error, 1)
	go func() {
		_, err := svc.PlaceOrder(context.Background(), input)
		done <- err
	}()
	<-inserting

	_, err := svc.PlaceOrder(context.Background(), input)
	require.ErrorIs(t, err, ports.ErrIdempotencyInProgress)
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)

	close(unblock)
	require.NoError(t, <-done)
	svc.Wait()
	require.Equal(t, 1, store.headers)
}

func TestPlaceOrder_FailedCheckoutReleasesKey(t *testing.T) {
	store := newRecordingStore()
	store.headerErr = errors.New("connection refused")
	notifier := &recordingNotifier{}
	svc := newService(store, notifier, morning)
	input := orderstypes.CheckoutInput{Items: cart(), Form: form(), IdempotencyKey: "retry-me"}

	_, err := svc.PlaceOrder(context.Background(), input)
	require.ErrorIs(t, err, ErrPersistence)

	store.headerErr = nil
	placement, err := svc.PlaceOrder(context.Background(), input)
	require.NoError(t, err)
	svc.Wait()

	require.False(t, placement.Replayed)
	require.Equal(t, 1, notifier.count())
}

func TestPlaceOrder_NotifierPanicIsContained(t *testing.T) {
	store := newRecordingStore()
	svc := NewService(store, store,
		WithClock(func() time.Time { return morning }),
		WithNotifier(panickingNotifier{}),
	)

	placement, err := svc.PlaceOrder(context.Background(), orderstypes.CheckoutInput{Items: cart(), Form: form()})
	require.NoError(t, err)
	require.NotPanics(t, svc.Wait)
	require.Equal(t, "GHD-1001", placement.Order.Number)
}

func TestEvaluatePromo_Preview(t *testing.T) {
	svc := newService(newRecordingStore(), &recordingNotifier{}, morning)

	preview, err := svc.EvaluatePromo(context.Background(), orderstypes.PromoPreviewInput{Code: "WELCOME20", Subtotal: decimal.NewFromInt(250)})
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(50).Equal(preview.Discount))
	require.True(t, decimal.NewFromInt(200).Equal(preview.Total))

	_, err = svc.EvaluatePromo(context.Background(), orderstypes.PromoPreviewInput{Code: "WELCOME20", Subtotal: decimal.NewFromInt(-1)})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeliverySlots(t *testing.T) {
	svc := newService(newRecordingStore(), &recordingNotifier{}, morning)

	today, err := svc.DeliverySlots(context.Background(), morning)
	require.NoError(t, err)
	require.Equal(t, "12:00", today.Slots[0])

	tomorrow, err := svc.DeliverySlots(context.Background(), morning.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Equal(t, "09:00", tomorrow.Slots[0])
	require.Equal(t, "23:30", tomorrow.Slots[len(tomorrow.Slots)-1])
}

func TestTrackOrder_NotFound(t *testing.T) {
	svc := newService(newRecordingStore(), &recordingNotifier{}, morning)
	_, err := svc.TrackOrder(context.Background(), "GHD-4040")
	require.ErrorIs(t, err, ports.ErrNotFound)
}
