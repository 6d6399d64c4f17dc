package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleProvider Role = "service_provider"
	RoleAdmin    Role = "admin"
)

// Actor is the authenticated caller identity resolved by the auth middleware.
type Actor struct {
	ID   string
	Role Role
}

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// ProviderProfile is the slice of a service-provider account the booking core
// reads: service type for combination grouping, display names for response
// enrichment, approval status for listing eligibility.
type ProviderProfile struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         string             `bson:"user_id" json:"user_id"`
	ProviderName   string             `bson:"provider_name" json:"provider_name"`
	BusinessName   string             `bson:"business_name" json:"business_name"`
	ServiceType    string             `bson:"service_type" json:"service_type"`
	ProfileImage   string             `bson:"profile_picture_url,omitempty" json:"profile_picture_url,omitempty"`
	ApprovalStatus ApprovalStatus     `bson:"approval_status" json:"approval_status"`
}

type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"userId" json:"userId"`
	Type      string             `bson:"type" json:"type"`
	Title     string             `bson:"title" json:"title"`
	Message   string             `bson:"message" json:"message"`
	BookingID string             `bson:"bookingId,omitempty" json:"bookingId,omitempty"`
	Read      bool               `bson:"read" json:"read"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// UserContact is the customer-facing slice of a user account read for
// booking enrichment.
type UserContact struct {
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
	Phone string `bson:"phone" json:"phone"`
}

// ProviderStats summarizes a provider's booking book for the dashboard.
type ProviderStats struct {
	TotalBookings      int64 `json:"totalBookings"`
	PendingBookings    int64 `json:"pendingBookings"`
	ConfirmedBookings  int64 `json:"confirmedBookings"`
	CancelledBookings  int64 `json:"cancelledBookings"`
	RevenueCollected   int64 `json:"revenueCollected"`
	RevenueOutstanding int64 `json:"revenueOutstanding"`
}
