package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventhub/internal/logger"
	"eventhub/internal/models"
	"eventhub/internal/storage"
)

// NotificationService fans booking events out into per-user notification
// documents and serves the read side.
type NotificationService struct {
	store storage.Store
	log   *logger.Logger
}

func NewNotificationService(store storage.Store, log *logger.Logger) *NotificationService {
	return &NotificationService{store: store, log: log}
}

// HandleBookingEvent translates one consumed booking event into notification
// documents. Unknown event types are ignored so new producers can roll out
// ahead of this consumer.
func (s *NotificationService) HandleBookingEvent(event *models.BookingEvent) error {
	if event.Booking == nil {
		return fmt.Errorf("booking event %s has no payload", event.BookingID)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	booking := event.Booking
	switch event.Type {
	case "booking.created":
		return s.insert(ctx, booking.ProviderID, "booking_request", "New Booking Request",
			fmt.Sprintf("%s requested a booking for %s", booking.FullName, booking.EventType), event.BookingID)
	case "booking.confirmed":
		return s.insert(ctx, booking.UserID, "booking_confirmed", "Booking Confirmed",
			fmt.Sprintf("Your %s booking is confirmed", booking.EventType), event.BookingID)
	case "booking.cancelled":
		if err := s.insert(ctx, booking.UserID, "booking_cancelled", "Booking Cancelled",
			fmt.Sprintf("Your %s booking was cancelled", booking.EventType), event.BookingID); err != nil {
			return err
		}
		return s.insert(ctx, booking.ProviderID, "booking_cancelled", "Booking Cancelled",
			fmt.Sprintf("The %s booking from %s was cancelled", booking.EventType, booking.FullName), event.BookingID)
	default:
		s.log.Warn("NOTIFICATION", fmt.Sprintf("Ignoring unknown event type %q for booking %s", event.Type, event.BookingID))
		return nil
	}
}

func (s *NotificationService) insert(ctx context.Context, userID, notifType, title, message, bookingID string) error {
	n := &models.Notification{
		UserID:    userID,
		Type:      notifType,
		Title:     title,
		Message:   message,
		BookingID: bookingID,
		Read:      false,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.InsertNotification(ctx, n); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	s.log.LogDatabase("INSERT", "notifications", fmt.Sprintf("%s notification for user %s", notifType, userID))
	return nil
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string) ([]*models.Notification, error) {
	notifications, err := s.store.ListNotifications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	if err := s.store.MarkNotificationRead(ctx, notificationID, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	modified, err := s.store.MarkAllNotificationsRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return modified, nil
}
