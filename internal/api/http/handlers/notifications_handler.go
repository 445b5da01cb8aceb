package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/complykit/request-service/internal/api/dto"
	"github.com/complykit/request-service/internal/auth"
	"github.com/complykit/request-service/internal/repository"
	apperrors "github.com/complykit/request-service/pkg/util/errorutil"
)

// NotificationsHandler serves the in-app notification feed.
type NotificationsHandler struct {
	notifications repository.NotificationRepository
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications repository.NotificationRepository) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

// ListNotifications GET /notifications.
func (h *NotificationsHandler) ListNotifications(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	unreadOnly := c.QueryBool("unread")
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)

	rows, err := h.notifications.ListByRecipient(c.UserContext(), principal.User.ID, unreadOnly, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.NotificationResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.NotificationResponse{
			ID:          row.ID,
			ActorID:     row.ActorID,
			RequestID:   row.RequestID,
			Verb:        row.Verb,
			Description: row.Description,
			Unread:      row.Unread,
			CreatedAt:   row.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// MarkRead POST /notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.notifications.MarkRead(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
