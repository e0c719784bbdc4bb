package models

import "time"

// GroupChat belongs to a school, optionally restricted to a grade level
type GroupChat struct {
	ID         string    `json:"id" db:"id"`
	SchoolID   string    `json:"schoolId" db:"school_id"`
	GradeLevel *string   `json:"gradeLevel,omitempty" db:"grade_level"`
	Name       string    `json:"name" db:"name"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// Message is an append-only chat line. Its json tags follow the column
// names so realtime payloads decode straight into it.
type Message struct {
	ID        string    `json:"id" db:"id"`
	ChatID    string    `json:"chat_id" db:"chat_id"`
	SenderID  string    `json:"sender_id" db:"sender_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// MessageEntry is a message joined with its sender's username.
type MessageEntry struct {
	Message
	SenderUsername *string
}
