package dto

import (
	"time"

	"github.com/yigit/schoolyard/internal/app/models"
)

// NotificationView is a notification as returned to its owner
type NotificationView struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      *string   `json:"body,omitempty"`
	LinkURL   *string   `json:"linkUrl,omitempty"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewNotificationView converts a notification row
func NewNotificationView(n *models.Notification) NotificationView {
	return NotificationView{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		LinkURL:   n.LinkURL,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

// NotificationList is the inbox snapshot: newest notifications and the unread counter
type NotificationList struct {
	Notifications []NotificationView `json:"notifications"`
	UnreadCount   int                `json:"unreadCount"`
}
