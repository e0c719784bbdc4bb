package models

import "time"

// Notification is addressed to one profile. The snake_case json tags match
// the row payload published by the database trigger.
type Notification struct {
	ID        string    `json:"id" db:"id"`
	ProfileID string    `json:"profile_id" db:"profile_id"`
	Type      string    `json:"type" db:"type"`
	Title     string    `json:"title" db:"title"`
	Body      *string   `json:"body" db:"body"`
	LinkURL   *string   `json:"link_url" db:"link_url"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Notification types written by this service
const (
	NotificationFriendRequest  = "friend_request"
	NotificationFriendAccepted = "friend_accepted"
	NotificationComment        = "comment"
)
