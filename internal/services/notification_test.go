package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"eventhub/internal/logger"
	"eventhub/internal/models"
	"eventhub/internal/storage"
)

func newTestNotificationService(t *testing.T) (*NotificationService, *storage.InMemoryStore) {
	t.Helper()

	log := logger.NewLogger()
	t.Cleanup(func() { log.Close() })

	store := storage.NewInMemoryStore()
	return NewNotificationService(store, log), store
}

func bookingEvent(eventType string) *models.BookingEvent {
	return &models.BookingEvent{
		Type:      eventType,
		BookingID: primitive.NewObjectID().Hex(),
		Booking: &models.Booking{
			UserID:     "customer-1",
			ProviderID: "provider-1",
			FullName:   "Amara Silva",
			EventType:  "wedding",
		},
		Timestamp: time.Now().UTC(),
	}
}

func TestHandleBookingCreatedNotifiesProvider(t *testing.T) {
	svc, store := newTestNotificationService(t)

	require.NoError(t, svc.HandleBookingEvent(bookingEvent("booking.created")))

	providerNotifs, err := store.ListNotifications(context.Background(), "provider-1")
	require.NoError(t, err)
	require.Len(t, providerNotifs, 1)
	assert.Equal(t, "booking_request", providerNotifs[0].Type)
	assert.False(t, providerNotifs[0].Read)

	customerNotifs, err := store.ListNotifications(context.Background(), "customer-1")
	require.NoError(t, err)
	assert.Empty(t, customerNotifs)
}

func TestHandleBookingConfirmedNotifiesCustomer(t *testing.T) {
	svc, store := newTestNotificationService(t)

	require.NoError(t, svc.HandleBookingEvent(bookingEvent("booking.confirmed")))

	customerNotifs, err := store.ListNotifications(context.Background(), "customer-1")
	require.NoError(t, err)
	require.Len(t, customerNotifs, 1)
	assert.Equal(t, "booking_confirmed", customerNotifs[0].Type)
}

func TestHandleBookingCancelledNotifiesBoth(t *testing.T) {
	svc, store := newTestNotificationService(t)

	require.NoError(t, svc.HandleBookingEvent(bookingEvent("booking.cancelled")))

	customerNotifs, err := store.ListNotifications(context.Background(), "customer-1")
	require.NoError(t, err)
	require.Len(t, customerNotifs, 1)

	providerNotifs, err := store.ListNotifications(context.Background(), "provider-1")
	require.NoError(t, err)
	require.Len(t, providerNotifs, 1)
}

func TestHandleUnknownEventTypeIgnored(t *testing.T) {
	svc, store := newTestNotificationService(t)

	require.NoError(t, svc.HandleBookingEvent(bookingEvent("booking.something-new")))

	notifs, err := store.ListNotifications(context.Background(), "provider-1")
	require.NoError(t, err)
	assert.Empty(t, notifs)
}

func TestHandleEventWithoutPayload(t *testing.T) {
	svc, _ := newTestNotificationService(t)

	err := svc.HandleBookingEvent(&models.BookingEvent{Type: "booking.created", BookingID: "abc"})
	assert.Error(t, err)
}

func TestMarkReadScopedToOwner(t *testing.T) {
	svc, store := newTestNotificationService(t)

	require.NoError(t, svc.HandleBookingEvent(bookingEvent("booking.created")))

	notifs, err := store.ListNotifications(context.Background(), "provider-1")
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	id := notifs[0].ID.Hex()

	err = svc.MarkRead(context.Background(), id, "someone-else")
	assert.ErrorIs(t, err, ErrNotificationNotFound)

	require.NoError(t, svc.MarkRead(context.Background(), id, "provider-1"))

	notifs, err = svc.List(context.Background(), "provider-1")
	require.NoError(t, err)
	assert.True(t, notifs[0].Read)
}

func TestMarkAllRead(t *testing.T) {
	svc, _ := newTestNotificationService(t)

	require.NoError(t, svc.HandleBookingEvent(bookingEvent("booking.created")))
	require.NoError(t, svc.HandleBookingEvent(bookingEvent("booking.created")))

	modified, err := svc.MarkAllRead(context.Background(), "provider-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), modified)

	modified, err = svc.MarkAllRead(context.Background(), "provider-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), modified)
}
