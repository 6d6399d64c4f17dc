package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"eventhub/internal/models"
)

// InMemoryStore mirrors the Mongo store's semantics (owner-scoped filters,
// conditional updates) for tests and mock-mode development.
type InMemoryStore struct {
	mutex         sync.RWMutex
	bookings      map[string]*models.Booking
	packages      map[string]*models.Package
	profiles      map[string]*models.ProviderProfile
	users         map[string]*models.UserContact
	notifications map[string]*models.Notification

	// insertion order, so listings are deterministic
	bookingOrder      []string
	packageOrder      []string
	notificationOrder []string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		bookings:      make(map[string]*models.Booking),
		packages:      make(map[string]*models.Package),
		profiles:      make(map[string]*models.ProviderProfile),
		users:         make(map[string]*models.UserContact),
		notifications: make(map[string]*models.Notification),
	}
}

// SeedProvider registers a provider profile, optionally with user contact data.
func (s *InMemoryStore) SeedProvider(profile *models.ProviderProfile) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.profiles[profile.UserID] = profile
}

func (s *InMemoryStore) SeedUser(userID string, contact *models.UserContact) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.users[userID] = contact
}

func (s *InMemoryStore) CreateBooking(_ context.Context, booking *models.Booking) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}
	id := booking.ID.Hex()
	clone := *booking
	s.bookings[id] = &clone
	s.bookingOrder = append(s.bookingOrder, id)
	return id, nil
}

func (s *InMemoryStore) GetBookingForOwner(_ context.Context, bookingID, ownerID string) (*models.Booking, error) {
	if _, err := primitive.ObjectIDFromHex(bookingID); err != nil {
		return nil, ErrNotFound
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	booking, ok := s.bookings[bookingID]
	if !ok || (booking.UserID != ownerID && booking.ProviderID != ownerID) {
		return nil, ErrNotFound
	}

	clone := *booking
	return &clone, nil
}

func (s *InMemoryStore) ListBookingsByCustomer(_ context.Context, userID string) ([]*models.Booking, error) {
	return s.listBookings(func(b *models.Booking) bool { return b.UserID == userID })
}

func (s *InMemoryStore) ListBookingsByProvider(_ context.Context, providerID string) ([]*models.Booking, error) {
	return s.listBookings(func(b *models.Booking) bool { return b.ProviderID == providerID })
}

func (s *InMemoryStore) listBookings(match func(*models.Booking) bool) ([]*models.Booking, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var result []*models.Booking
	for _, id := range s.bookingOrder {
		if b := s.bookings[id]; match(b) {
			clone := *b
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (s *InMemoryStore) AppendPayment(_ context.Context, bookingID string, prevRemaining int64, payment models.PaymentRecord, remaining int64, status models.BookingStatus) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	booking, ok := s.bookings[bookingID]
	if !ok {
		return ErrNotFound
	}
	if booking.RemainingAmount != prevRemaining {
		return ErrConflict
	}

	now := time.Now().UTC()
	booking.Payments = append(booking.Payments, payment)
	booking.RemainingAmount = remaining
	booking.Status = status
	booking.UpdatedAt = &now
	return nil
}

func (s *InMemoryStore) CancelBooking(_ context.Context, bookingID string, at time.Time) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	booking, ok := s.bookings[bookingID]
	if !ok {
		return ErrNotFound
	}
	if !booking.Status.CanTransact() {
		return ErrConflict
	}

	booking.Status = models.BookingCancelled
	stamp := at
	booking.CancelledAt = &stamp
	return nil
}

func (s *InMemoryStore) AutoConfirmStale(_ context.Context, userID string, cutoff, now time.Time) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var modified int64
	for _, booking := range s.bookings {
		if booking.UserID == userID && booking.Status == models.BookingPending && booking.CreatedAt.Before(cutoff) {
			booking.Status = models.BookingConfirmed
			stamp := now
			booking.AutoAcceptedAt = &stamp
			modified++
		}
	}
	return modified, nil
}

func (s *InMemoryStore) CountBookings(_ context.Context, providerID string, status models.BookingStatus) (int64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var count int64
	for _, b := range s.bookings {
		if b.ProviderID == providerID && (status == "" || b.Status == status) {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) CreatePackage(_ context.Context, pkg *models.Package) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if pkg.ID.IsZero() {
		pkg.ID = primitive.NewObjectID()
	}
	id := pkg.ID.Hex()
	clone := *pkg
	s.packages[id] = &clone
	s.packageOrder = append(s.packageOrder, id)
	return id, nil
}

func (s *InMemoryStore) GetPackage(_ context.Context, packageID string) (*models.Package, error) {
	if _, err := primitive.ObjectIDFromHex(packageID); err != nil {
		return nil, ErrNotFound
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	pkg, ok := s.packages[packageID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *pkg
	return &clone, nil
}

func (s *InMemoryStore) UpdatePackage(_ context.Context, pkg *models.Package) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	existing, ok := s.packages[pkg.ID.Hex()]
	if !ok || existing.ProviderID != pkg.ProviderID {
		return ErrNotFound
	}

	clone := *pkg
	clone.Bookings = existing.Bookings
	clone.CreatedAt = existing.CreatedAt
	s.packages[pkg.ID.Hex()] = &clone
	return nil
}

func (s *InMemoryStore) ListPackagesByProvider(_ context.Context, providerID string) ([]*models.Package, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var result []*models.Package
	for _, id := range s.packageOrder {
		if p := s.packages[id]; p.ProviderID == providerID {
			clone := *p
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (s *InMemoryStore) FindActivePackages(_ context.Context, q PackageQuery) ([]*models.Package, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var allowed map[string]bool
	if q.ProviderIDs != nil {
		allowed = make(map[string]bool, len(q.ProviderIDs))
		for _, id := range q.ProviderIDs {
			allowed[id] = true
		}
	}

	var result []*models.Package
	for _, id := range s.packageOrder {
		p := s.packages[id]
		if p.Status != models.PackageActive {
			continue
		}
		if allowed != nil && !allowed[p.ProviderID] {
			continue
		}
		if q.EventType != "" && !contains(p.EventTypes, q.EventType) {
			continue
		}
		if q.MinPrice != nil && p.Price < *q.MinPrice {
			continue
		}
		if q.MaxPrice != nil && p.Price > *q.MaxPrice {
			continue
		}
		if q.CrowdSize != nil && (p.CrowdSizeMin > *q.CrowdSize || p.CrowdSizeMax < *q.CrowdSize) {
			continue
		}
		clone := *p
		result = append(result, &clone)
	}
	return result, nil
}

func (s *InMemoryStore) IncrementPackageBookings(_ context.Context, packageID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	pkg, ok := s.packages[packageID]
	if !ok {
		return ErrNotFound
	}
	pkg.Bookings++
	return nil
}

func (s *InMemoryStore) ListApprovedProviders(_ context.Context) ([]*models.ProviderProfile, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var result []*models.ProviderProfile
	for _, p := range s.profiles {
		if p.ApprovalStatus == models.ApprovalApproved {
			clone := *p
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

func (s *InMemoryStore) GetProviderProfile(_ context.Context, userID string) (*models.ProviderProfile, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	profile, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *profile
	return &clone, nil
}

func (s *InMemoryStore) GetUserContact(_ context.Context, userID string) (*models.UserContact, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	contact, ok := s.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *contact
	return &clone, nil
}

func (s *InMemoryStore) InsertNotification(_ context.Context, n *models.Notification) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	id := n.ID.Hex()
	clone := *n
	s.notifications[id] = &clone
	s.notificationOrder = append(s.notificationOrder, id)
	return nil
}

func (s *InMemoryStore) ListNotifications(_ context.Context, userID string) ([]*models.Notification, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var result []*models.Notification
	// newest first, like the Mongo sort
	for i := len(s.notificationOrder) - 1; i >= 0; i-- {
		if n := s.notifications[s.notificationOrder[i]]; n.UserID == userID {
			clone := *n
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (s *InMemoryStore) MarkNotificationRead(_ context.Context, notificationID, userID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	n, ok := s.notifications[notificationID]
	if !ok || n.UserID != userID {
		return ErrNotFound
	}
	n.Read = true
	return nil
}

func (s *InMemoryStore) MarkAllNotificationsRead(_ context.Context, userID string) (int64, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var modified int64
	for _, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			modified++
		}
	}
	return modified, nil
}

func (s *InMemoryStore) HealthCheck(_ context.Context) error {
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
