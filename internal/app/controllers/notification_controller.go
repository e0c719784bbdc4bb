package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolyard/internal/app/services"
)

// NotificationController serves the caller's inbox over plain HTTP. Live
// delivery goes through /ws/notifications.
type NotificationController struct {
	notifications services.NotificationService
}

// NewNotificationController creates a new NotificationController
func NewNotificationController(notifications services.NotificationService) *NotificationController {
	return &NotificationController{notifications: notifications}
}

// List returns the newest notifications and the unread count
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.NotificationList}
// @Router /notifications [get]
func (c *NotificationController) List(ctx *gin.Context) {
	list, err := c.notifications.List(ctx.Request.Context(), viewerOf(ctx))
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, list)
}

// UnreadCount returns the unread counter
func (c *NotificationController) UnreadCount(ctx *gin.Context) {
	count, err := c.notifications.UnreadCount(ctx.Request.Context(), viewerOf(ctx))
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, gin.H{"unreadCount": count})
}

// MarkRead marks one notification read
func (c *NotificationController) MarkRead(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}

	if err := c.notifications.MarkRead(ctx.Request.Context(), viewerOf(ctx), id); err != nil {
		fail(ctx, err)
		return
	}
	c.List(ctx)
}

// MarkAllRead marks every unread notification read
func (c *NotificationController) MarkAllRead(ctx *gin.Context) {
	updated, err := c.notifications.MarkAllRead(ctx.Request.Context(), viewerOf(ctx))
	if err != nil {
		fail(ctx, err)
		return
	}
	ok(ctx, gin.H{"updated": updated})
}
