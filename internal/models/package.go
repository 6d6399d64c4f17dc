package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PackageStatus string

const (
	PackageActive   PackageStatus = "active"
	PackageInactive PackageStatus = "inactive"
)

type Package struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProviderID   string             `bson:"provider_id" json:"provider_id"`
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description" json:"description"`
	Price        int64              `bson:"price" json:"price"`
	Currency     string             `bson:"currency" json:"currency"`
	Features     []string           `bson:"features" json:"features"`
	CrowdSizeMin int                `bson:"crowdSizeMin" json:"crowdSizeMin"`
	CrowdSizeMax int                `bson:"crowdSizeMax" json:"crowdSizeMax"`
	EventTypes   []string           `bson:"eventTypes" json:"eventTypes"`
	Images       []string           `bson:"images" json:"images"`
	Status       PackageStatus      `bson:"status" json:"status"`
	Bookings     int                `bson:"bookings" json:"bookings"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`

	// Derived from the owning provider's profile at query time.
	ServiceType  string        `bson:"-" json:"serviceType,omitempty"`
	ProviderInfo *ProviderInfo `bson:"-" json:"providerInfo,omitempty"`
}

type ProviderInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	BusinessName string `json:"businessName"`
	ServiceType  string `json:"serviceType"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// CombinedPackage is a synthetic two-vendor bundle built at query time and
// discarded after the response.
type CombinedPackage struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        int64     `json:"price"`
	Currency     string    `json:"currency"`
	EventTypes   []string  `json:"eventTypes"`
	CrowdSizeMin int       `json:"crowdSizeMin"`
	CrowdSizeMax int       `json:"crowdSizeMax"`
	Images       []string  `json:"images"`
	Combined     bool      `json:"combined"`
	Packages     []Package `json:"packages"`
	ServiceTypes []string  `json:"serviceTypes"`
}

// SearchFilter carries the pre-resolved query parameters for a package search.
type SearchFilter struct {
	EventType        string
	MinPrice         *int64
	MaxPrice         *int64
	CrowdSize        *int
	ServiceType      string
	MaxBudget        *int64
	RequiredServices []string
	Grouped          bool
}

type PackageRequest struct {
	Name         string   `json:"name" binding:"required"`
	Description  string   `json:"description" binding:"required"`
	Price        int64    `json:"price" binding:"required"`
	Currency     string   `json:"currency"`
	Features     []string `json:"features"`
	CrowdSizeMin int      `json:"crowdSizeMin" binding:"required"`
	CrowdSizeMax int      `json:"crowdSizeMax" binding:"required"`
	EventTypes   []string `json:"eventTypes" binding:"required"`
	Images       []string `json:"images"`
	Status       string   `json:"status"`
}
