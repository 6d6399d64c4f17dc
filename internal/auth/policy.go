package auth

import (
	"errors"
	"fmt"

	"eventhub/internal/models"
)

var ErrForbidden = errors.New("actor is not allowed to perform this action")

type Action string

const (
	ActionBookingCreate   Action = "booking.create"
	ActionBookingRead     Action = "booking.read"
	ActionBookingPay      Action = "booking.pay"
	ActionBookingCancel   Action = "booking.cancel"
	ActionBookingMarkPaid Action = "booking.mark_paid"
	ActionPackageManage   Action = "package.manage"
	ActionStatsRead       Action = "stats.read"
	ActionNotifyRead      Action = "notification.read"
)

type Resource string

const (
	ResourceBooking      Resource = "booking"
	ResourcePackage      Resource = "package"
	ResourceStats        Resource = "stats"
	ResourceNotification Resource = "notification"
)

// policy is the single decision table replacing per-route role checks.
// Ownership is enforced separately by owner-scoped storage filters.
var policy = map[Action][]models.Role{
	ActionBookingCreate:   {models.RoleCustomer},
	ActionBookingRead:     {models.RoleCustomer, models.RoleProvider, models.RoleAdmin},
	ActionBookingPay:      {models.RoleCustomer},
	ActionBookingCancel:   {models.RoleCustomer, models.RoleProvider},
	ActionBookingMarkPaid: {models.RoleProvider},
	ActionPackageManage:   {models.RoleProvider},
	ActionStatsRead:       {models.RoleProvider, models.RoleAdmin},
	ActionNotifyRead:      {models.RoleCustomer, models.RoleProvider, models.RoleAdmin},
}

// Authorize returns nil when the actor's role may perform action on the
// resource kind. Admins pass every check.
func Authorize(actor models.Actor, action Action, resource Resource) error {
	if actor.ID == "" {
		return fmt.Errorf("%w: anonymous actor on %s", ErrForbidden, resource)
	}
	if actor.Role == models.RoleAdmin {
		return nil
	}

	for _, role := range policy[action] {
		if actor.Role == role {
			return nil
		}
	}
	return fmt.Errorf("%w: role %s cannot %s %s", ErrForbidden, actor.Role, action, resource)
}
