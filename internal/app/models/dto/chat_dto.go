package dto

import (
	"time"

	"github.com/yigit/schoolyard/internal/app/models"
)

// ChatView is a group chat visible to the viewer
type ChatView struct {
	ID         string    `json:"id"`
	SchoolID   string    `json:"schoolId"`
	GradeLevel *string   `json:"gradeLevel,omitempty"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewChatView converts a chat row
func NewChatView(c *models.GroupChat) ChatView {
	return ChatView{
		ID:         c.ID,
		SchoolID:   c.SchoolID,
		GradeLevel: c.GradeLevel,
		Name:       c.Name,
		CreatedAt:  c.CreatedAt,
	}
}

// MessageView is a chat message with its sender's username
type MessageView struct {
	ID             string    `json:"id"`
	ChatID         string    `json:"chatId"`
	SenderID       string    `json:"senderId"`
	SenderUsername *string   `json:"senderUsername,omitempty"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewMessageView converts a message row and a resolved username
func NewMessageView(m *models.Message, senderUsername *string) MessageView {
	return MessageView{
		ID:             m.ID,
		ChatID:         m.ChatID,
		SenderID:       m.SenderID,
		SenderUsername: senderUsername,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

// SendMessageRequest represents data for a new chat message
type SendMessageRequest struct {
	Content string `json:"content" binding:"required,max=2000"`
}
