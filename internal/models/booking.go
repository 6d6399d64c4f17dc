package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// CanTransact reports whether the booking still accepts payments or a
// cancellation attempt. Completed and cancelled are terminal.
func (s BookingStatus) CanTransact() bool {
	return s == BookingPending || s == BookingConfirmed
}

type PaymentType string

const (
	PaymentAdvance PaymentType = "advance"
	PaymentBalance PaymentType = "balance"
)

// MethodMarkedByProvider is recorded when a provider settles the outstanding
// balance manually instead of the customer paying through the app.
const MethodMarkedByProvider = "marked_by_provider"

// PaymentRecord is one entry of a booking's installment ledger. All amounts
// are integer minor currency units. Status is always "completed"; partial or
// failed installments are not modeled.
type PaymentRecord struct {
	Amount int64       `bson:"amount" json:"amount"`
	Method string      `bson:"method" json:"method"`
	Date   time.Time   `bson:"date" json:"date"`
	Status string      `bson:"status" json:"status"`
	Type   PaymentType `bson:"type" json:"type"`
}

type Booking struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     string             `bson:"userId" json:"userId"`
	ProviderID string             `bson:"providerId" json:"providerId"`
	PackageID  string             `bson:"packageId,omitempty" json:"packageId,omitempty"`

	FullName string `bson:"fullName" json:"fullName"`
	Email    string `bson:"email" json:"email"`
	Phone    string `bson:"phone" json:"phone"`

	EventDate               time.Time `bson:"eventDate" json:"eventDate"`
	EventLocation           string    `bson:"eventLocation" json:"eventLocation"`
	EventType               string    `bson:"eventType" json:"eventType"`
	CrowdSize               int       `bson:"crowdSize" json:"crowdSize"`
	EventCoordinatorName    string    `bson:"eventCoordinatorName,omitempty" json:"eventCoordinatorName,omitempty"`
	EventCoordinatorContact string    `bson:"eventCoordinatorContact,omitempty" json:"eventCoordinatorContact,omitempty"`

	TotalAmount     int64           `bson:"totalAmount" json:"totalAmount"`
	RemainingAmount int64           `bson:"remainingAmount" json:"remainingAmount"`
	Payments        []PaymentRecord `bson:"payments" json:"payments"`

	Status         BookingStatus `bson:"status" json:"status"`
	CreatedAt      time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt      *time.Time    `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
	CancelledAt    *time.Time    `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	AutoAcceptedAt *time.Time    `bson:"autoAcceptedAt,omitempty" json:"autoAcceptedAt,omitempty"`

	// Display-only enrichment, never persisted.
	ProviderName  string   `bson:"-" json:"providerName,omitempty"`
	BusinessName  string   `bson:"-" json:"businessName,omitempty"`
	CustomerName  string   `bson:"-" json:"customerName,omitempty"`
	CustomerEmail string   `bson:"-" json:"customerEmail,omitempty"`
	CustomerPhone string   `bson:"-" json:"customerPhone,omitempty"`
	Services      []string `bson:"-" json:"services,omitempty"`
}

type BookingRequest struct {
	ProviderID              string    `json:"providerId" binding:"required"`
	PackageID               string    `json:"packageId"`
	FullName                string    `json:"fullName" binding:"required"`
	Email                   string    `json:"email" binding:"required,email"`
	Phone                   string    `json:"phone" binding:"required"`
	EventDate               time.Time `json:"eventDate" binding:"required"`
	EventLocation           string    `json:"eventLocation" binding:"required"`
	EventType               string    `json:"eventType" binding:"required"`
	CrowdSize               int       `json:"crowdSize" binding:"required"`
	EventCoordinatorName    string    `json:"eventCoordinatorName"`
	EventCoordinatorContact string    `json:"eventCoordinatorContact"`
	PaymentMethod           string    `json:"paymentMethod" binding:"required"`
	PaymentAmount           int64     `json:"paymentAmount"`
	TotalAmount             int64     `json:"totalAmount" binding:"required"`
}

type PaymentRequest struct {
	Amount int64  `json:"amount" binding:"required"`
	Method string `json:"method" binding:"required"`
}

type BookingEvent struct {
	Type      string    `json:"type"`
	BookingID string    `json:"booking_id"`
	Booking   *Booking  `json:"booking"`
	Timestamp time.Time `json:"timestamp"`
}
