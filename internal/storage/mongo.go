package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"eventhub/internal/config"
	"eventhub/internal/logger"
	"eventhub/internal/models"
)

type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	log    *logger.Logger

	bookings      *mongo.Collection
	packages      *mongo.Collection
	profiles      *mongo.Collection
	users         *mongo.Collection
	notifications *mongo.Collection
}

func NewMongoStore(cfg config.MongoConfig, log *logger.Logger) (*MongoStore, error) {
	log.LogDatabase("CONNECT", "mongo", fmt.Sprintf("Connecting to MongoDB at %s", cfg.URI))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		log.Error("DATABASE", "Failed to open MongoDB connection: "+err.Error())
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		log.Error("DATABASE", "Failed to ping MongoDB: "+err.Error())
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := client.Database(cfg.Database)
	store := &MongoStore{
		client:        client,
		db:            db,
		log:           log,
		bookings:      db.Collection("bookings"),
		packages:      db.Collection("provider_packages"),
		profiles:      db.Collection("service_provider_profiles"),
		users:         db.Collection("users"),
		notifications: db.Collection("notifications"),
	}

	if err := store.ensureIndexes(ctx); err != nil {
		log.Error("DATABASE", "Failed to ensure indexes: "+err.Error())
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}

	log.LogDatabase("SUCCESS", "mongo", "MongoDB connection established and indexes ensured")
	return store, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	s.log.LogDatabase("MIGRATE", "mongo", "Ensuring collection indexes")

	_, err := s.bookings.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "providerId", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("bookings indexes: %w", err)
	}

	_, err = s.packages.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "provider_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "price", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("packages indexes: %w", err)
	}

	_, err = s.notifications.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("notifications indexes: %w", err)
	}

	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	s.log.LogDatabase("CLOSE", "mongo", "Closing MongoDB connection")
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// parseID validates the 24-hex identifier format. A malformed id can never
// match a document, so it maps to ErrNotFound rather than a crash.
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}

func (s *MongoStore) CreateBooking(ctx context.Context, booking *models.Booking) (string, error) {
	res, err := s.bookings.InsertOne(ctx, booking)
	if err != nil {
		s.log.Error("DATABASE", "Failed to insert booking: "+err.Error())
		return "", fmt.Errorf("failed to insert booking: %w", err)
	}

	oid := res.InsertedID.(primitive.ObjectID)
	booking.ID = oid
	s.log.LogDatabase("INSERT", "bookings", fmt.Sprintf("Booking %s saved", oid.Hex()))
	return oid.Hex(), nil
}

func (s *MongoStore) GetBookingForOwner(ctx context.Context, bookingID, ownerID string) (*models.Booking, error) {
	oid, err := parseID(bookingID)
	if err != nil {
		return nil, err
	}

	filter := bson.M{
		"_id": oid,
		"$or": bson.A{
			bson.M{"userId": ownerID},
			bson.M{"providerId": ownerID},
		},
	}

	var booking models.Booking
	if err := s.bookings.FindOne(ctx, filter).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return &booking, nil
}

func (s *MongoStore) ListBookingsByCustomer(ctx context.Context, userID string) ([]*models.Booking, error) {
	return s.listBookings(ctx, bson.M{"userId": userID})
}

func (s *MongoStore) ListBookingsByProvider(ctx context.Context, providerID string) ([]*models.Booking, error) {
	return s.listBookings(ctx, bson.M{"providerId": providerID})
}

func (s *MongoStore) listBookings(ctx context.Context, filter bson.M) ([]*models.Booking, error) {
	cursor, err := s.bookings.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (s *MongoStore) AppendPayment(ctx context.Context, bookingID string, prevRemaining int64, payment models.PaymentRecord, remaining int64, status models.BookingStatus) error {
	oid, err := parseID(bookingID)
	if err != nil {
		return err
	}

	// remainingAmount acts as the optimistic version: a concurrent payment
	// changes it and voids this update.
	filter := bson.M{"_id": oid, "remainingAmount": prevRemaining}
	update := bson.M{
		"$push": bson.M{"payments": payment},
		"$set": bson.M{
			"remainingAmount": remaining,
			"status":          status,
			"updatedAt":       time.Now().UTC(),
		},
	}

	res, err := s.bookings.UpdateOne(ctx, filter, update)
	if err != nil {
		s.log.Error("DATABASE", fmt.Sprintf("Failed to append payment to booking %s: %v", bookingID, err))
		return fmt.Errorf("failed to append payment: %w", err)
	}
	if res.MatchedCount == 0 {
		s.log.LogDatabase("CONFLICT", "bookings", fmt.Sprintf("Payment precondition failed for booking %s", bookingID))
		return ErrConflict
	}

	s.log.LogDatabase("UPDATE", "bookings", fmt.Sprintf("Payment of %d appended to booking %s", payment.Amount, bookingID))
	return nil
}

func (s *MongoStore) CancelBooking(ctx context.Context, bookingID string, at time.Time) error {
	oid, err := parseID(bookingID)
	if err != nil {
		return err
	}

	filter := bson.M{
		"_id":    oid,
		"status": bson.M{"$in": bson.A{models.BookingPending, models.BookingConfirmed}},
	}
	update := bson.M{"$set": bson.M{"status": models.BookingCancelled, "cancelledAt": at}}

	res, err := s.bookings.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	if res.ModifiedCount == 0 {
		return ErrConflict
	}

	s.log.LogDatabase("UPDATE", "bookings", fmt.Sprintf("Booking %s cancelled", bookingID))
	return nil
}

func (s *MongoStore) AutoConfirmStale(ctx context.Context, userID string, cutoff, now time.Time) (int64, error) {
	filter := bson.M{
		"userId":    userID,
		"status":    models.BookingPending,
		"createdAt": bson.M{"$lt": cutoff},
	}
	update := bson.M{"$set": bson.M{"status": models.BookingConfirmed, "autoAcceptedAt": now}}

	res, err := s.bookings.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to auto-confirm bookings: %w", err)
	}

	if res.ModifiedCount > 0 {
		s.log.LogDatabase("UPDATE", "bookings", fmt.Sprintf("Auto-confirmed %d stale bookings for user %s", res.ModifiedCount, userID))
	}
	return res.ModifiedCount, nil
}

func (s *MongoStore) CountBookings(ctx context.Context, providerID string, status models.BookingStatus) (int64, error) {
	filter := bson.M{"providerId": providerID}
	if status != "" {
		filter["status"] = status
	}

	count, err := s.bookings.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (s *MongoStore) CreatePackage(ctx context.Context, pkg *models.Package) (string, error) {
	res, err := s.packages.InsertOne(ctx, pkg)
	if err != nil {
		return "", fmt.Errorf("failed to insert package: %w", err)
	}

	oid := res.InsertedID.(primitive.ObjectID)
	pkg.ID = oid
	s.log.LogDatabase("INSERT", "provider_packages", fmt.Sprintf("Package %s saved", oid.Hex()))
	return oid.Hex(), nil
}

func (s *MongoStore) GetPackage(ctx context.Context, packageID string) (*models.Package, error) {
	oid, err := parseID(packageID)
	if err != nil {
		return nil, err
	}

	var pkg models.Package
	if err := s.packages.FindOne(ctx, bson.M{"_id": oid}).Decode(&pkg); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	return &pkg, nil
}

func (s *MongoStore) UpdatePackage(ctx context.Context, pkg *models.Package) error {
	filter := bson.M{"_id": pkg.ID, "provider_id": pkg.ProviderID}
	update := bson.M{"$set": bson.M{
		"name":         pkg.Name,
		"description":  pkg.Description,
		"price":        pkg.Price,
		"currency":     pkg.Currency,
		"features":     pkg.Features,
		"crowdSizeMin": pkg.CrowdSizeMin,
		"crowdSizeMax": pkg.CrowdSizeMax,
		"eventTypes":   pkg.EventTypes,
		"images":       pkg.Images,
		"status":       pkg.Status,
		"updated_at":   pkg.UpdatedAt,
	}}

	res, err := s.packages.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update package: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	s.log.LogDatabase("UPDATE", "provider_packages", fmt.Sprintf("Package %s updated", pkg.ID.Hex()))
	return nil
}

func (s *MongoStore) ListPackagesByProvider(ctx context.Context, providerID string) ([]*models.Package, error) {
	cursor, err := s.packages.Find(ctx, bson.M{"provider_id": providerID})
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer cursor.Close(ctx)

	var packages []*models.Package
	if err := cursor.All(ctx, &packages); err != nil {
		return nil, fmt.Errorf("failed to decode packages: %w", err)
	}
	return packages, nil
}

func (s *MongoStore) FindActivePackages(ctx context.Context, q PackageQuery) ([]*models.Package, error) {
	filter := bson.M{"status": models.PackageActive}

	if q.EventType != "" {
		filter["eventTypes"] = bson.M{"$in": bson.A{q.EventType}}
	}

	price := bson.M{}
	if q.MinPrice != nil {
		price["$gte"] = *q.MinPrice
	}
	if q.MaxPrice != nil {
		price["$lte"] = *q.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}

	if q.CrowdSize != nil {
		filter["$and"] = bson.A{
			bson.M{"crowdSizeMin": bson.M{"$lte": *q.CrowdSize}},
			bson.M{"crowdSizeMax": bson.M{"$gte": *q.CrowdSize}},
		}
	}

	if q.ProviderIDs != nil {
		filter["provider_id"] = bson.M{"$in": q.ProviderIDs}
	}

	cursor, err := s.packages.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find packages: %w", err)
	}
	defer cursor.Close(ctx)

	var packages []*models.Package
	if err := cursor.All(ctx, &packages); err != nil {
		return nil, fmt.Errorf("failed to decode packages: %w", err)
	}

	s.log.LogDatabase("SELECT", "provider_packages", fmt.Sprintf("Found %d active packages", len(packages)))
	return packages, nil
}

func (s *MongoStore) IncrementPackageBookings(ctx context.Context, packageID string) error {
	oid, err := parseID(packageID)
	if err != nil {
		return err
	}

	_, err = s.packages.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"bookings": 1}})
	if err != nil {
		return fmt.Errorf("failed to increment package bookings: %w", err)
	}
	return nil
}

func (s *MongoStore) ListApprovedProviders(ctx context.Context) ([]*models.ProviderProfile, error) {
	cursor, err := s.profiles.Find(ctx, bson.M{"approval_status": models.ApprovalApproved})
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	defer cursor.Close(ctx)

	var profiles []*models.ProviderProfile
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("failed to decode providers: %w", err)
	}
	return profiles, nil
}

func (s *MongoStore) GetProviderProfile(ctx context.Context, userID string) (*models.ProviderProfile, error) {
	var profile models.ProviderProfile
	if err := s.profiles.FindOne(ctx, bson.M{"user_id": userID}).Decode(&profile); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get provider profile: %w", err)
	}
	return &profile, nil
}

func (s *MongoStore) GetUserContact(ctx context.Context, userID string) (*models.UserContact, error) {
	oid, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	var contact models.UserContact
	opts := options.FindOne().SetProjection(bson.M{"name": 1, "email": 1, "phone": 1})
	if err := s.users.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&contact); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &contact, nil
}

func (s *MongoStore) InsertNotification(ctx context.Context, n *models.Notification) error {
	res, err := s.notifications.InsertOne(ctx, n)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	n.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *MongoStore) ListNotifications(ctx context.Context, userID string) ([]*models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(100)
	cursor, err := s.notifications.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var notifications []*models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifications, nil
}

func (s *MongoStore) MarkNotificationRead(ctx context.Context, notificationID, userID string) error {
	oid, err := parseID(notificationID)
	if err != nil {
		return err
	}

	res, err := s.notifications.UpdateOne(ctx,
		bson.M{"_id": oid, "userId": userID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	res, err := s.notifications.UpdateMany(ctx,
		bson.M{"userId": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return res.ModifiedCount, nil
}
