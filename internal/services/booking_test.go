package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"eventhub/internal/config"
	"eventhub/internal/kafka"
	"eventhub/internal/logger"
	"eventhub/internal/models"
	"eventhub/internal/storage"
)

type fakeLock struct {
	held     bool
	acquired int
	released int
}

func (f *fakeLock) AcquirePaymentLock(_ context.Context, _, _ string) (bool, error) {
	if f.held {
		return false, nil
	}
	f.acquired++
	return true, nil
}

func (f *fakeLock) ReleasePaymentLock(_ context.Context, _, _ string) error {
	f.released++
	return nil
}

func newTestBookingService(t *testing.T) (*BookingService, *storage.InMemoryStore, *fakeLock) {
	t.Helper()

	log := logger.NewLogger()
	t.Cleanup(func() { log.Close() })

	producer, err := kafka.NewProducer(nil, true, log)
	require.NoError(t, err)

	store := storage.NewInMemoryStore()
	locks := &fakeLock{}
	svc := NewBookingService(store, producer, log, locks, config.BookingConfig{CancelWindow: 12 * time.Hour})
	return svc, store, locks
}

func validBookingRequest() *models.BookingRequest {
	return &models.BookingRequest{
		ProviderID:    "provider-1",
		FullName:      "Amara Silva",
		Email:         "amara@example.com",
		Phone:         "+94771234567",
		EventDate:     time.Now().Add(30 * 24 * time.Hour),
		EventLocation: "Colombo",
		EventType:     "wedding",
		CrowdSize:     150,
		PaymentMethod: "card",
		PaymentAmount: 25_000,
		TotalAmount:   100_000,
	}
}

func TestCreateBookingRecordsAdvance(t *testing.T) {
	svc, _, _ := newTestBookingService(t)

	booking, err := svc.Create(context.Background(), validBookingRequest(), "customer-1")
	require.NoError(t, err)

	assert.Equal(t, models.BookingPending, booking.Status)
	assert.Equal(t, int64(75_000), booking.RemainingAmount)
	require.Len(t, booking.Payments, 1)
	assert.Equal(t, models.PaymentAdvance, booking.Payments[0].Type)
	assert.Equal(t, int64(25_000), booking.Payments[0].Amount)
	assert.False(t, booking.ID.IsZero())
}

func TestCreateBookingRejectsInconsistentAmounts(t *testing.T) {
	svc, _, _ := newTestBookingService(t)

	req := validBookingRequest()
	req.PaymentAmount = 150_000 // exceeds total
	_, err := svc.Create(context.Background(), req, "customer-1")
	assert.ErrorIs(t, err, ErrInvalidPayment)

	req = validBookingRequest()
	req.PaymentAmount = -1
	_, err = svc.Create(context.Background(), req, "customer-1")
	assert.ErrorIs(t, err, ErrInvalidPayment)
}

func TestApplyPaymentReducesRemaining(t *testing.T) {
	svc, _, _ := newTestBookingService(t)

	booking, err := svc.Create(context.Background(), validBookingRequest(), "customer-1")
	require.NoError(t, err)

	updated, err := svc.ApplyPayment(context.Background(), booking.ID.Hex(), 30_000, "card", "customer-1")
	require.NoError(t, err)

	assert.Equal(t, int64(45_000), updated.RemainingAmount)
	assert.Equal(t, models.BookingPending, updated.Status)
	require.Len(t, updated.Payments, 2)
	assert.Equal(t, models.PaymentBalance, updated.Payments[1].Type)
}

func TestApplyPaymentSettlingConfirms(t *testing.T) {
	svc, _, _ := newTestBookingService(t)

	booking, err := svc.Create(context.Background(), validBookingRequest(), "customer-1")
	require.NoError(t, err)

	updated, err := svc.ApplyPayment(context.Background(), booking.ID.Hex(), 75_000, "card", "customer-1")
	require.NoError(t, err)

	assert.Equal(t, int64(0), updated.RemainingAmount)
	assert.Equal(t, models.BookingConfirmed, updated.Status)
}

func TestApplyPaymentClampsOverpayment(t *testing.T) {
	svc, _, _ := newTestBookingService(t)

	booking, err := svc.Create(context.Background(), validBookingRequest(), "customer-1")
	require.NoError(t, err)

	updated, err := svc.ApplyPayment(context.Background(), booking.ID.Hex(), 200_000, "card", "customer-1")
	require.NoError(t, err)

	assert.Equal(t, int64(0), updated.RemainingAmount)
	assert.Equal(t, models.BookingConfirmed, updated.Status)
}

func TestApplyPaymentLedgerInvariant(t *testing.T) {
	svc, _, _ := newTestBookingService(t)

	booking, err := svc.Create(context.Background(), validBookingRequest(), "customer-1")
	require.NoError(t, err)

	for _, amount := range []int64{10_000, 20_000, 5_000} {
		booking, err = svc.ApplyPayment(context.Background(), booking.ID.Hex(), amount, "card", "customer-1")
		require.NoError(t, err)

		var paid int64
		for _, p := range booking.Payments {
			paid += p.Amount
		}
		assert.Equal(t, booking.TotalAmount-paid, booking.RemainingAmount)
	}
}

func TestApplyPaymentRejectsNonPositiveAmount(t *testing.T) {
	svc, _, _ := newTestBookingService(t)

	booking, err := svc.Create(context.Background(), validBookingRequest(), "customer-1")
	require.NoError(t, err)

	_, err = svc.ApplyPayment(context.Background(), booking.ID.Hex(), 0, "card", "customer-1")
	assert.ErrorIs(t, err, ErrInvalidPayment)

	_, err = svc.ApplyPayment(context.Background(), booking.ID.Hex(), -500, "card", "customer-1")
	assert.ErrorIs(t, err, ErrInvalidPayment)
}

func TestApplyPaymentUnknownBooking(t *testing.T) {
	svc, _, _ := newTestBookingService(t)

	_, err := svc.ApplyPayment(context.Background(), primitive.NewObjectID().Hex(), 10_000, "card", "customer-1")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestApplyPaymentWrongOwner(t *testing.T) {
	svc, _, _ := newTestBookingService(t)

	booking, err := svc.Create(context.Background(), validBookingRequest(), "customer-1")
	require.NoError(t, err)

	_, err = svc.ApplyPayment(context.Background(), booking.ID.Hex(), 10_000, "card", "someone-else")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestApplyPaymentAgainstCancelledBooking(t *testing.T) {
	svc, _, _ := newTestBookingService(t)

	booking, err := svc.Create(context.Background(), validBookingRequest(), "customer-1")
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), booking.ID.Hex(), "customer-1")
	require.NoError(t, err)

	_, err = svc.ApplyPayment(context.Background(), booking.ID.Hex(), 10_000, "card", "customer-1")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestApplyPaymentWhileLockHeld(t *testing.T) {
	svc, _, locks := newTestBookingService(t)

	booking, err := svc.Create(context.Background(), validBookingRequest(), "customer-1")
	require.NoError(t, err)

	locks.held = true
	_, err = svc.ApplyPayment(context.Background(), booking.ID.Hex(), 10_000, "card", "customer-1")
	assert.ErrorIs(t, err, ErrPaymentConflict)
}

func TestApplyPaymentReleasesLock(t *testing.T) {
	svc, _, locks := newTestBookingService(t)

	booking, err := svc.Create(context.Background(), validBookingRequest(), "customer-1")
	require.NoError(t, err)

	_, err = svc.ApplyPayment(context.Background(), booking.ID.Hex(), 10_000, "card", "customer-1")
	require.NoError(t, err)

	assert.Equal(t, locks.acquired, locks.released)
}

func TestCancelWithinWindow(t *testing.T) {
	svc, _, _ := newTestBookingService(t)

	booking, err := svc.Create(context.Background(), validBookingRequest(), "customer-1")
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), booking.ID.Hex(), "customer-1")
	require.NoError(t, err)

	assert.Equal(t, models.BookingCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
}

func TestCancelByProvider(t *testing.T) {
	svc, _, _ := newTestBookingService(t)

	booking, err := svc.Create(context.Background(), validBookingRequest(), "customer-1")
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), booking.ID.Hex(), "provider-1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)
}

func TestCancelAfterWindowExpires(t *testing.T) {
	svc, store, _ := newTestBookingService(t)

	booking := seedBooking(t, store, "customer-1", "provider-1", models.BookingPending, time.Now().UTC().Add(-12*time.Hour-time.Second))

	_, err := svc.Cancel(context.Background(), booking.ID.Hex(), "customer-1")
	assert.ErrorIs(t, err, ErrWindowExpired)
}

func TestCancelJustInsideWindow(t *testing.T) {
	svc, store, _ := newTestBookingService(t)

	booking := seedBooking(t, store, "customer-1", "provider-1", models.BookingPending, time.Now().UTC().Add(-12*time.Hour+time.Minute))

	cancelled, err := svc.Cancel(context.Background(), booking.ID.Hex(), "customer-1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)
}

func TestCancelTwice(t *testing.T) {
	svc, _, _ := newTestBookingService(t)

	booking, err := svc.Create(context.Background(), validBookingRequest(), "customer-1")
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), booking.ID.Hex(), "customer-1")
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), booking.ID.Hex(), "customer-1")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestMarkPaidSettlesBalance(t *testing.T) {
	svc, _, _ := newTestBookingService(t)

	booking, err := svc.Create(context.Background(), validBookingRequest(), "customer-1")
	require.NoError(t, err)

	settled, err := svc.MarkPaid(context.Background(), booking.ID.Hex(), "provider-1")
	require.NoError(t, err)

	assert.Equal(t, int64(0), settled.RemainingAmount)
	assert.Equal(t, models.BookingConfirmed, settled.Status)
	require.Len(t, settled.Payments, 2)
	assert.Equal(t, models.MethodMarkedByProvider, settled.Payments[1].Method)
	assert.Equal(t, int64(75_000), settled.Payments[1].Amount)
}

func TestMarkPaidIdempotentWhenSettled(t *testing.T) {
	svc, _, _ := newTestBookingService(t)

	booking, err := svc.Create(context.Background(), validBookingRequest(), "customer-1")
	require.NoError(t, err)

	_, err = svc.MarkPaid(context.Background(), booking.ID.Hex(), "provider-1")
	require.NoError(t, err)

	settled, err := svc.MarkPaid(context.Background(), booking.ID.Hex(), "provider-1")
	require.NoError(t, err)
	assert.Len(t, settled.Payments, 2) // no extra ledger entry
}

func TestListForCustomerAutoConfirmsStale(t *testing.T) {
	svc, store, _ := newTestBookingService(t)

	stale := seedBooking(t, store, "customer-1", "provider-1", models.BookingPending, time.Now().UTC().Add(-13*time.Hour))
	fresh := seedBooking(t, store, "customer-1", "provider-1", models.BookingPending, time.Now().UTC().Add(-time.Hour))

	bookings, err := svc.ListForCustomer(context.Background(), "customer-1")
	require.NoError(t, err)
	require.Len(t, bookings, 2)

	byID := map[string]*models.Booking{}
	for _, b := range bookings {
		byID[b.ID.Hex()] = b
	}

	assert.Equal(t, models.BookingConfirmed, byID[stale.ID.Hex()].Status)
	assert.NotNil(t, byID[stale.ID.Hex()].AutoAcceptedAt)
	assert.Equal(t, models.BookingPending, byID[fresh.ID.Hex()].Status)
	assert.Nil(t, byID[fresh.ID.Hex()].AutoAcceptedAt)
}

func TestListForCustomerEnrichesProvider(t *testing.T) {
	svc, store, _ := newTestBookingService(t)

	store.SeedProvider(&models.ProviderProfile{
		UserID:         "provider-1",
		ProviderName:   "Nimal Perera",
		BusinessName:   "Perera Photography",
		ServiceType:    "photography",
		ApprovalStatus: models.ApprovalApproved,
	})
	seedBooking(t, store, "customer-1", "provider-1", models.BookingPending, time.Now().UTC())

	bookings, err := svc.ListForCustomer(context.Background(), "customer-1")
	require.NoError(t, err)
	require.Len(t, bookings, 1)

	assert.Equal(t, "Nimal Perera", bookings[0].ProviderName)
	assert.Equal(t, "Perera Photography", bookings[0].BusinessName)
}

func TestListForProviderEnrichesCustomer(t *testing.T) {
	svc, store, _ := newTestBookingService(t)

	store.SeedUser("customer-1", &models.UserContact{
		Name:  "Amara Silva",
		Email: "amara@example.com",
		Phone: "+94771234567",
	})
	seedBooking(t, store, "customer-1", "provider-1", models.BookingPending, time.Now().UTC())

	bookings, err := svc.ListForProvider(context.Background(), "provider-1")
	require.NoError(t, err)
	require.Len(t, bookings, 1)

	assert.Equal(t, "Amara Silva", bookings[0].CustomerName)
	assert.Equal(t, "amara@example.com", bookings[0].CustomerEmail)
}

func TestProviderStats(t *testing.T) {
	svc, store, _ := newTestBookingService(t)

	pending := seedBooking(t, store, "customer-1", "provider-1", models.BookingPending, time.Now().UTC())
	seedBooking(t, store, "customer-2", "provider-1", models.BookingPending, time.Now().UTC())
	seedBooking(t, store, "customer-3", "other-provider", models.BookingPending, time.Now().UTC())

	_, err := svc.ApplyPayment(context.Background(), pending.ID.Hex(), 75_000, "card", "customer-1")
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background(), "provider-1")
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.TotalBookings)
	assert.Equal(t, int64(1), stats.PendingBookings)
	assert.Equal(t, int64(1), stats.ConfirmedBookings)
	assert.Equal(t, int64(0), stats.CancelledBookings)
	assert.Equal(t, int64(125_000), stats.RevenueCollected) // two advances plus the settlement
	assert.Equal(t, int64(75_000), stats.RevenueOutstanding)
}

func seedBooking(t *testing.T, store *storage.InMemoryStore, customerID, providerID string, status models.BookingStatus, createdAt time.Time) *models.Booking {
	t.Helper()

	booking := &models.Booking{
		UserID:          customerID,
		ProviderID:      providerID,
		FullName:        "Amara Silva",
		Email:           "amara@example.com",
		Phone:           "+94771234567",
		EventDate:       time.Now().Add(30 * 24 * time.Hour),
		EventLocation:   "Colombo",
		EventType:       "wedding",
		CrowdSize:       150,
		TotalAmount:     100_000,
		RemainingAmount: 75_000,
		Payments: []models.PaymentRecord{{
			Amount: 25_000,
			Method: "card",
			Date:   createdAt,
			Status: "completed",
			Type:   models.PaymentAdvance,
		}},
		Status:    status,
		CreatedAt: createdAt,
	}

	_, err := store.CreateBooking(context.Background(), booking)
	require.NoError(t, err)
	return booking
}
