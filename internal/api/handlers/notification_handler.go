package handlers

import (
	"net/http"
	"time"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"

	"github.com/labstack/echo/v4"
)

type NotificationHandler struct {
	store domain.NotificationRepository
	log   logger.Logger
}

func NewNotificationHandler(store domain.NotificationRepository, log logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		store: store,
		log:   log,
	}
}

type NotificationResponse struct {
	NotificationID string    `json:"notification_id"`
	Kind           string    `json:"kind"`
	Message        string    `json:"message"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}

func (h *NotificationHandler) List(c echo.Context) error {
	user := userID(c)
	if user == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
	}

	unreadOnly := c.QueryParam("unread") == "true"
	notifications, err := h.store.ListNotifications(c.Request().Context(), user, unreadOnly)
	if err != nil {
		return respondError(c, err)
	}

	responses := make([]NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		responses = append(responses, NotificationResponse{
			NotificationID: n.ID,
			Kind:           string(n.Kind),
			Message:        n.Message,
			Read:           n.Read,
			CreatedAt:      n.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"notifications": responses})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	user := userID(c)
	if user == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Authentication required"})
	}

	if err := h.store.MarkRead(c.Request().Context(), user, c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Notification marked as read"})
}
