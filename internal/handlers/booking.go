package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"eventhub/internal/auth"
	"eventhub/internal/middleware"
	"eventhub/internal/models"
	"eventhub/internal/services"
	"eventhub/internal/utils"
)

type BookingHandler struct {
	bookingService *services.BookingService
}

func NewBookingHandler(bookingService *services.BookingService) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
	}
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if err := auth.Authorize(actor, auth.ActionBookingCreate, auth.ResourceBooking); err != nil {
		c.JSON(http.StatusForbidden, utils.ErrorResponse("Not allowed", err.Error()))
		return
	}

	var req models.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	booking, err := h.bookingService.Create(c.Request.Context(), &req, actor.ID)
	if err != nil {
		if errors.Is(err, services.ErrInvalidPayment) {
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Validation failed", err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to create booking", err.Error()))
		return
	}

	c.JSON(http.StatusCreated, utils.SuccessResponse("Booking created", booking))
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if err := auth.Authorize(actor, auth.ActionBookingRead, auth.ResourceBooking); err != nil {
		c.JSON(http.StatusForbidden, utils.ErrorResponse("Not allowed", err.Error()))
		return
	}

	booking, err := h.bookingService.Get(c.Request.Context(), c.Param("id"), actor.ID)
	if err != nil {
		if errors.Is(err, services.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Booking not found", err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to retrieve booking", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Booking retrieved", booking))
}

func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if err := auth.Authorize(actor, auth.ActionBookingRead, auth.ResourceBooking); err != nil {
		c.JSON(http.StatusForbidden, utils.ErrorResponse("Not allowed", err.Error()))
		return
	}

	bookings, err := h.bookingService.ListForCustomer(c.Request.Context(), actor.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to list bookings", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Bookings retrieved", bookings))
}

func (h *BookingHandler) ListProviderBookings(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if err := auth.Authorize(actor, auth.ActionBookingRead, auth.ResourceBooking); err != nil {
		c.JSON(http.StatusForbidden, utils.ErrorResponse("Not allowed", err.Error()))
		return
	}

	bookings, err := h.bookingService.ListForProvider(c.Request.Context(), actor.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to list bookings", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Bookings retrieved", bookings))
}

func (h *BookingHandler) RecordPayment(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if err := auth.Authorize(actor, auth.ActionBookingPay, auth.ResourceBooking); err != nil {
		c.JSON(http.StatusForbidden, utils.ErrorResponse("Not allowed", err.Error()))
		return
	}

	var req models.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	booking, err := h.bookingService.ApplyPayment(c.Request.Context(), c.Param("id"), req.Amount, req.Method, actor.ID)
	if err != nil {
		h.respondBookingError(c, err, "Failed to record payment")
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Payment recorded", booking))
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if err := auth.Authorize(actor, auth.ActionBookingCancel, auth.ResourceBooking); err != nil {
		c.JSON(http.StatusForbidden, utils.ErrorResponse("Not allowed", err.Error()))
		return
	}

	booking, err := h.bookingService.Cancel(c.Request.Context(), c.Param("id"), actor.ID)
	if err != nil {
		h.respondBookingError(c, err, "Failed to cancel booking")
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Booking cancelled", booking))
}

func (h *BookingHandler) MarkPaid(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if err := auth.Authorize(actor, auth.ActionBookingMarkPaid, auth.ResourceBooking); err != nil {
		c.JSON(http.StatusForbidden, utils.ErrorResponse("Not allowed", err.Error()))
		return
	}

	booking, err := h.bookingService.MarkPaid(c.Request.Context(), c.Param("id"), actor.ID)
	if err != nil {
		h.respondBookingError(c, err, "Failed to mark booking paid")
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Booking marked as paid", booking))
}

func (h *BookingHandler) ProviderStats(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if err := auth.Authorize(actor, auth.ActionStatsRead, auth.ResourceStats); err != nil {
		c.JSON(http.StatusForbidden, utils.ErrorResponse("Not allowed", err.Error()))
		return
	}

	stats, err := h.bookingService.Stats(c.Request.Context(), actor.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to compute stats", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Stats retrieved", stats))
}

func (h *BookingHandler) respondBookingError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, utils.ErrorResponse("Booking not found", err.Error()))
	case errors.Is(err, services.ErrInvalidState):
		c.JSON(http.StatusConflict, utils.ErrorResponse("Booking state does not allow this", err.Error()))
	case errors.Is(err, services.ErrWindowExpired):
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Cancellation window expired", err.Error()))
	case errors.Is(err, services.ErrInvalidPayment):
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid payment", err.Error()))
	case errors.Is(err, services.ErrPaymentConflict):
		c.JSON(http.StatusConflict, utils.ErrorResponse("Concurrent payment in progress", err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse(fallback, err.Error()))
	}
}
