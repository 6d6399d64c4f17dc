package services

import "errors"

var (
	ErrBookingNotFound      = errors.New("booking not found")
	ErrInvalidState         = errors.New("booking status does not allow this operation")
	ErrWindowExpired        = errors.New("booking can only be cancelled within the allowed window")
	ErrInvalidPayment       = errors.New("invalid payment amount")
	ErrPaymentConflict      = errors.New("a concurrent payment is in progress")
	ErrPackageNotFound      = errors.New("package not found")
	ErrProviderNotFound     = errors.New("provider not found")
	ErrInvalidCrowdRange    = errors.New("minimum crowd size exceeds maximum")
	ErrInvalidPrice         = errors.New("price must not be negative")
	ErrNotificationNotFound = errors.New("notification not found")
)
