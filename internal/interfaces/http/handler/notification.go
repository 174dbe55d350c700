package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	appnotification "github.com/smartqueue/backend/internal/application/notification"
	"github.com/smartqueue/backend/internal/domain/identity"
	"github.com/smartqueue/backend/internal/domain/shared"
)

// NotificationService lists sent notifications
type NotificationService interface {
	List(ctx context.Context, actor identity.Actor, filter appnotification.NotificationListFilter) (*shared.Paginated[appnotification.NotificationResponse], error)
}

// NotificationHandler handles notification endpoints
type NotificationHandler struct {
	BaseHandler
	notifications NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifications NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List godoc
// @ID           listNotifications
// @Summary      List notifications
// @Description  Customers see the messages sent to them, staff their organization's
// @Tags         notifications
// @Produce      json
// @Param        organization_id query string false "Organization (super admin only)" format(uuid)
// @Param        kind query string false "Notification kind"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]appnotification.NotificationResponse]
// @Security     BearerAuth
// @Router       /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var filter appnotification.NotificationListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if filter.OrganizationID, ok = h.queryUUID(c, "organization_id"); !ok {
		return
	}
	page, err := h.notifications.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}
