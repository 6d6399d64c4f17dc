package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventhub/internal/config"
	"eventhub/internal/kafka"
	"eventhub/internal/logger"
	"eventhub/internal/models"
	"eventhub/internal/storage"
	"eventhub/internal/utils"
)

// PaymentLock serializes payment writes against a single booking.
type PaymentLock interface {
	AcquirePaymentLock(ctx context.Context, bookingID, token string) (bool, error)
	ReleasePaymentLock(ctx context.Context, bookingID, token string) error
}

type BookingService struct {
	store    storage.Store
	producer *kafka.Producer
	log      *logger.Logger
	locks    PaymentLock
	cfg      config.BookingConfig
}

func NewBookingService(store storage.Store, producer *kafka.Producer, log *logger.Logger, locks PaymentLock, cfg config.BookingConfig) *BookingService {
	return &BookingService{
		store:    store,
		producer: producer,
		log:      log,
		locks:    locks,
		cfg:      cfg,
	}
}

// Create inserts a new pending booking with its advance payment record.
// The advance must fit inside the total; the ledger invariant
// remaining = total - sum(payments) holds from the first write on.
func (s *BookingService) Create(ctx context.Context, req *models.BookingRequest, customerID string) (*models.Booking, error) {
	s.log.LogBooking("CREATE", "new", fmt.Sprintf("Creating booking for customer %s with provider %s", customerID, req.ProviderID))

	if req.TotalAmount < 0 || req.PaymentAmount < 0 || req.PaymentAmount > req.TotalAmount {
		s.log.LogBooking("REJECTED", "new", fmt.Sprintf("Inconsistent amounts: total %d, advance %d", req.TotalAmount, req.PaymentAmount))
		return nil, ErrInvalidPayment
	}

	now := time.Now().UTC()
	booking := &models.Booking{
		UserID:                  customerID,
		ProviderID:              req.ProviderID,
		PackageID:               req.PackageID,
		FullName:                req.FullName,
		Email:                   req.Email,
		Phone:                   req.Phone,
		EventDate:               req.EventDate,
		EventLocation:           req.EventLocation,
		EventType:               req.EventType,
		CrowdSize:               req.CrowdSize,
		EventCoordinatorName:    req.EventCoordinatorName,
		EventCoordinatorContact: req.EventCoordinatorContact,
		TotalAmount:             req.TotalAmount,
		RemainingAmount:         req.TotalAmount - req.PaymentAmount,
		Payments: []models.PaymentRecord{{
			Amount: req.PaymentAmount,
			Method: req.PaymentMethod,
			Date:   now,
			Status: "completed",
			Type:   models.PaymentAdvance,
		}},
		Status:    models.BookingPending,
		CreatedAt: now,
	}

	id, err := s.store.CreateBooking(ctx, booking)
	if err != nil {
		s.log.Error("BOOKING", fmt.Sprintf("Failed to save booking: %v", err))
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	s.log.LogBooking("CREATED", id, fmt.Sprintf("Booking created with remaining amount %d", booking.RemainingAmount))

	// Booking counter on the package is best effort; the two documents are
	// not updated atomically.
	if req.PackageID != "" {
		if err := s.store.IncrementPackageBookings(ctx, req.PackageID); err != nil {
			s.log.Warn("BOOKING", fmt.Sprintf("Failed to bump booking counter for package %s: %v", req.PackageID, err))
		}
	}

	s.publishBookingEvent("booking.created", booking)
	return booking, nil
}

// ApplyPayment appends one balance installment. Remaining amount is clamped
// at zero; reaching zero confirms the booking.
func (s *BookingService) ApplyPayment(ctx context.Context, bookingID string, amount int64, method, requesterID string) (*models.Booking, error) {
	s.log.LogBooking("PAYMENT", bookingID, fmt.Sprintf("Payment of %d via %s requested by %s", amount, method, requesterID))

	if amount <= 0 {
		return nil, ErrInvalidPayment
	}

	token := utils.GenerateUUID()
	ok, err := s.locks.AcquirePaymentLock(ctx, bookingID, token)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire payment lock: %w", err)
	}
	if !ok {
		return nil, ErrPaymentConflict
	}
	defer func() {
		if err := s.locks.ReleasePaymentLock(ctx, bookingID, token); err != nil {
			s.log.Warn("BOOKING", fmt.Sprintf("Failed to release payment lock for %s: %v", bookingID, err))
		}
	}()

	booking, err := s.store.GetBookingForOwner(ctx, bookingID, requesterID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	if !booking.Status.CanTransact() {
		s.log.LogBooking("REJECTED", bookingID, fmt.Sprintf("Payment against %s booking", booking.Status))
		return nil, ErrInvalidState
	}

	payment := models.PaymentRecord{
		Amount: amount,
		Method: method,
		Date:   time.Now().UTC(),
		Status: "completed",
		Type:   models.PaymentBalance,
	}

	remaining := booking.RemainingAmount - amount
	if remaining < 0 {
		remaining = 0
	}
	status := booking.Status
	if remaining == 0 {
		status = models.BookingConfirmed
	}

	if err := s.store.AppendPayment(ctx, bookingID, booking.RemainingAmount, payment, remaining, status); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrPaymentConflict
		}
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	prevStatus := booking.Status
	booking.Payments = append(booking.Payments, payment)
	booking.RemainingAmount = remaining
	booking.Status = status

	s.log.LogBooking("PAID", bookingID, fmt.Sprintf("Remaining amount now %d, status %s", remaining, status))

	if status == models.BookingConfirmed && prevStatus == models.BookingPending {
		s.publishBookingEvent("booking.confirmed", booking)
	}
	return booking, nil
}

// MarkPaid settles the whole outstanding balance in one provider-recorded
// installment.
func (s *BookingService) MarkPaid(ctx context.Context, bookingID, providerID string) (*models.Booking, error) {
	s.log.LogBooking("MARK_PAID", bookingID, fmt.Sprintf("Provider %s settling remaining balance", providerID))

	token := utils.GenerateUUID()
	ok, err := s.locks.AcquirePaymentLock(ctx, bookingID, token)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire payment lock: %w", err)
	}
	if !ok {
		return nil, ErrPaymentConflict
	}
	defer func() {
		if err := s.locks.ReleasePaymentLock(ctx, bookingID, token); err != nil {
			s.log.Warn("BOOKING", fmt.Sprintf("Failed to release payment lock for %s: %v", bookingID, err))
		}
	}()

	booking, err := s.store.GetBookingForOwner(ctx, bookingID, providerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	if !booking.Status.CanTransact() {
		return nil, ErrInvalidState
	}

	if booking.RemainingAmount > 0 {
		payment := models.PaymentRecord{
			Amount: booking.RemainingAmount,
			Method: models.MethodMarkedByProvider,
			Date:   time.Now().UTC(),
			Status: "completed",
			Type:   models.PaymentBalance,
		}

		if err := s.store.AppendPayment(ctx, bookingID, booking.RemainingAmount, payment, 0, models.BookingConfirmed); err != nil {
			if errors.Is(err, storage.ErrConflict) {
				return nil, ErrPaymentConflict
			}
			return nil, fmt.Errorf("failed to record payment: %w", err)
		}

		prevStatus := booking.Status
		booking.Payments = append(booking.Payments, payment)
		booking.RemainingAmount = 0
		booking.Status = models.BookingConfirmed

		s.log.LogBooking("PAID", bookingID, "Booking marked fully paid by provider")
		if prevStatus == models.BookingPending {
			s.publishBookingEvent("booking.confirmed", booking)
		}
	}

	return booking, nil
}

// Cancel is allowed to either owner while the booking is pending or confirmed
// and the cancellation window since creation has not elapsed.
func (s *BookingService) Cancel(ctx context.Context, bookingID, requesterID string) (*models.Booking, error) {
	s.log.LogBooking("CANCEL", bookingID, fmt.Sprintf("Cancellation requested by %s", requesterID))

	booking, err := s.store.GetBookingForOwner(ctx, bookingID, requesterID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	if !booking.Status.CanTransact() {
		s.log.LogBooking("REJECTED", bookingID, fmt.Sprintf("Cancel against %s booking", booking.Status))
		return nil, ErrInvalidState
	}

	if time.Since(booking.CreatedAt) > s.cfg.CancelWindow {
		s.log.LogBooking("REJECTED", bookingID, "Cancellation window expired")
		return nil, ErrWindowExpired
	}

	now := time.Now().UTC()
	if err := s.store.CancelBooking(ctx, bookingID, now); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			// status changed under us, no longer cancellable
			return nil, ErrInvalidState
		}
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}

	booking.Status = models.BookingCancelled
	booking.CancelledAt = &now

	s.log.LogBooking("CANCELLED", bookingID, "Booking cancelled")
	s.publishBookingEvent("booking.cancelled", booking)
	return booking, nil
}

// AutoAdvancePending confirms every pending booking of the customer older
// than the window, stamping autoAcceptedAt and leaving the ledger untouched.
// It is a lazy policy run from listing reads, not a scheduled sweep; the
// underlying bulk update is idempotent and safe to run concurrently.
func (s *BookingService) AutoAdvancePending(ctx context.Context, customerID string) (int64, error) {
	now := time.Now().UTC()
	cutoff := now.Add(-s.cfg.CancelWindow)

	modified, err := s.store.AutoConfirmStale(ctx, customerID, cutoff, now)
	if err != nil {
		return 0, fmt.Errorf("failed to auto-confirm bookings: %w", err)
	}

	if modified > 0 {
		s.log.LogBooking("AUTO_CONFIRM", customerID, fmt.Sprintf("Auto-confirmed %d stale bookings", modified))
	}
	return modified, nil
}

func (s *BookingService) Get(ctx context.Context, bookingID, requesterID string) (*models.Booking, error) {
	booking, err := s.store.GetBookingForOwner(ctx, bookingID, requesterID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

// ListForCustomer applies the auto-advance policy, then returns the
// customer's bookings enriched with provider display data.
func (s *BookingService) ListForCustomer(ctx context.Context, customerID string) ([]*models.Booking, error) {
	if _, err := s.AutoAdvancePending(ctx, customerID); err != nil {
		return nil, err
	}

	bookings, err := s.store.ListBookingsByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	for _, booking := range bookings {
		s.enrichProviderInfo(ctx, booking)
	}
	return bookings, nil
}

// ListForProvider returns the provider's bookings enriched with customer
// contact data.
func (s *BookingService) ListForProvider(ctx context.Context, providerID string) ([]*models.Booking, error) {
	bookings, err := s.store.ListBookingsByProvider(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	for _, booking := range bookings {
		contact, err := s.store.GetUserContact(ctx, booking.UserID)
		if err != nil {
			booking.CustomerName = "Unknown Customer"
			continue
		}
		booking.CustomerName = contact.Name
		booking.CustomerEmail = contact.Email
		booking.CustomerPhone = contact.Phone
	}
	return bookings, nil
}

// Stats aggregates the provider's booking book for the dashboard.
func (s *BookingService) Stats(ctx context.Context, providerID string) (*models.ProviderStats, error) {
	stats := &models.ProviderStats{}

	var err error
	if stats.TotalBookings, err = s.store.CountBookings(ctx, providerID, ""); err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}
	if stats.PendingBookings, err = s.store.CountBookings(ctx, providerID, models.BookingPending); err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}
	if stats.ConfirmedBookings, err = s.store.CountBookings(ctx, providerID, models.BookingConfirmed); err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}
	if stats.CancelledBookings, err = s.store.CountBookings(ctx, providerID, models.BookingCancelled); err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}

	bookings, err := s.store.ListBookingsByProvider(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	for _, booking := range bookings {
		if booking.Status == models.BookingCancelled {
			continue
		}
		for _, p := range booking.Payments {
			stats.RevenueCollected += p.Amount
		}
		stats.RevenueOutstanding += booking.RemainingAmount
	}

	return stats, nil
}

func (s *BookingService) enrichProviderInfo(ctx context.Context, booking *models.Booking) {
	profile, err := s.store.GetProviderProfile(ctx, booking.ProviderID)
	if err == nil {
		booking.ProviderName = profile.ProviderName
		booking.BusinessName = profile.BusinessName
	} else {
		contact, err := s.store.GetUserContact(ctx, booking.ProviderID)
		if err == nil {
			booking.ProviderName = contact.Name
			booking.BusinessName = contact.Name + "'s Business"
		} else {
			booking.ProviderName = "Unknown Provider"
			booking.BusinessName = "Unknown Business"
		}
	}

	if len(booking.Services) == 0 && booking.PackageID != "" {
		if pkg, err := s.store.GetPackage(ctx, booking.PackageID); err == nil {
			booking.Services = []string{pkg.Name}
		}
	}
}

func (s *BookingService) publishBookingEvent(eventType string, booking *models.Booking) {
	event := &models.BookingEvent{
		Type:      eventType,
		BookingID: booking.ID.Hex(),
		Booking:   booking,
		Timestamp: time.Now().UTC(),
	}

	if err := s.producer.PublishBookingEvent(event); err != nil {
		s.log.Error("KAFKA", fmt.Sprintf("Failed to publish %s for booking %s: %v", eventType, event.BookingID, err))
	}
}
