package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"eventhub/internal/auth"
	"eventhub/internal/middleware"
	"eventhub/internal/services"
	"eventhub/internal/utils"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if err := auth.Authorize(actor, auth.ActionNotifyRead, auth.ResourceNotification); err != nil {
		c.JSON(http.StatusForbidden, utils.ErrorResponse("Not allowed", err.Error()))
		return
	}

	notifications, err := h.notificationService.List(c.Request.Context(), actor.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to list notifications", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Notifications retrieved", notifications))
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if err := auth.Authorize(actor, auth.ActionNotifyRead, auth.ResourceNotification); err != nil {
		c.JSON(http.StatusForbidden, utils.ErrorResponse("Not allowed", err.Error()))
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), c.Param("id"), actor.ID); err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, utils.ErrorResponse("Notification not found", err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to mark notification read", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Notification marked read", nil))
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if err := auth.Authorize(actor, auth.ActionNotifyRead, auth.ResourceNotification); err != nil {
		c.JSON(http.StatusForbidden, utils.ErrorResponse("Not allowed", err.Error()))
		return
	}

	modified, err := h.notificationService.MarkAllRead(c.Request.Context(), actor.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to mark notifications read", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Notifications marked read", gin.H{"modified": modified}))
}
