package storage

import (
	"context"
	"errors"
	"time"

	"eventhub/internal/models"
)

var (
	// ErrNotFound means no document matched the owner-scoped filter.
	ErrNotFound = errors.New("document not found")
	// ErrConflict means a conditional update matched the id but not the
	// expected precondition (lost an optimistic race).
	ErrConflict = errors.New("document changed concurrently")
)

// PackageQuery is the filter for an active-package search. Nil pointer fields
// leave the dimension unconstrained.
type PackageQuery struct {
	EventType   string
	MinPrice    *int64
	MaxPrice    *int64
	CrowdSize   *int
	ProviderIDs []string
}

type Store interface {
	// Booking operations
	CreateBooking(ctx context.Context, booking *models.Booking) (string, error)
	// GetBookingForOwner matches the booking id against either the owning
	// customer or the owning provider.
	GetBookingForOwner(ctx context.Context, bookingID, ownerID string) (*models.Booking, error)
	ListBookingsByCustomer(ctx context.Context, userID string) ([]*models.Booking, error)
	ListBookingsByProvider(ctx context.Context, providerID string) ([]*models.Booking, error)
	// AppendPayment pushes one ledger record and sets the new remaining
	// amount and status, conditional on remainingAmount still being
	// prevRemaining. Returns ErrConflict when the precondition fails.
	AppendPayment(ctx context.Context, bookingID string, prevRemaining int64, payment models.PaymentRecord, remaining int64, status models.BookingStatus) error
	// CancelBooking flips the status to cancelled, conditional on the
	// current status still allowing it.
	CancelBooking(ctx context.Context, bookingID string, at time.Time) error
	// AutoConfirmStale bulk-confirms the customer's pending bookings created
	// before cutoff, stamping autoAcceptedAt with now. Idempotent.
	AutoConfirmStale(ctx context.Context, userID string, cutoff, now time.Time) (int64, error)
	CountBookings(ctx context.Context, providerID string, status models.BookingStatus) (int64, error)

	// Package operations
	CreatePackage(ctx context.Context, pkg *models.Package) (string, error)
	GetPackage(ctx context.Context, packageID string) (*models.Package, error)
	// UpdatePackage is scoped to the owning provider.
	UpdatePackage(ctx context.Context, pkg *models.Package) error
	ListPackagesByProvider(ctx context.Context, providerID string) ([]*models.Package, error)
	FindActivePackages(ctx context.Context, q PackageQuery) ([]*models.Package, error)
	IncrementPackageBookings(ctx context.Context, packageID string) error

	// Provider / user collaborator reads
	ListApprovedProviders(ctx context.Context) ([]*models.ProviderProfile, error)
	GetProviderProfile(ctx context.Context, userID string) (*models.ProviderProfile, error)
	GetUserContact(ctx context.Context, userID string) (*models.UserContact, error)

	// Notifications
	InsertNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID string) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID, userID string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)

	HealthCheck(ctx context.Context) error
}
