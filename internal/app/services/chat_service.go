package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/app/models/dto"
	"github.com/yigit/schoolyard/internal/app/repositories"
	"github.com/yigit/schoolyard/internal/app/session"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
	"github.com/yigit/schoolyard/internal/pkg/monitoring"
	"github.com/yigit/schoolyard/internal/pkg/validation"
)

// ChatService defines the interface for group chat operations
type ChatService interface {
	// ListChats returns the chats of the viewer's school visible at the viewer's grade, by name.
	ListChats(ctx context.Context, viewer *session.Viewer) ([]dto.ChatView, error)
	// ListMessages returns the latest MessageHistoryLimit messages, oldest first.
	ListMessages(ctx context.Context, viewer *session.Viewer, chatID string) ([]dto.MessageView, error)
	// SendMessage inserts a message. Open rooms receive it through the realtime channel.
	SendMessage(ctx context.Context, viewer *session.Viewer, chatID, content string) (*dto.MessageView, error)
	// SenderUsername resolves a profile id to its username, nil when unknown.
	SenderUsername(ctx context.Context, profileID string) *string
}

// chatServiceImpl implements ChatService
type chatServiceImpl struct {
	chats    repositories.ChatStore
	profiles repositories.ProfileStore
	logger   zerolog.Logger
}

// NewChatService creates a new ChatService
func NewChatService(repos *repositories.Repositories, logger zerolog.Logger) ChatService {
	return &chatServiceImpl{
		chats:    repos.Chats,
		profiles: repos.Profiles,
		logger:   logger,
	}
}

// ListChats lists the viewer's chats
func (s *chatServiceImpl) ListChats(ctx context.Context, viewer *session.Viewer) ([]dto.ChatView, error) {
	if err := viewer.RequireProfile(); err != nil {
		return nil, err
	}
	if viewer.School() == "" {
		return []dto.ChatView{}, nil
	}

	chats, err := s.chats.ListChats(ctx, viewer.School(), viewer.GradeLevel)
	if err != nil {
		s.logger.Error().Err(err).Str("schoolID", viewer.School()).Msg("Failed to list chats")
		return nil, fmt.Errorf("error listing chats: %w", err)
	}
	views := make([]dto.ChatView, 0, len(chats))
	for _, c := range chats {
		views = append(views, dto.NewChatView(c))
	}
	return views, nil
}

// authorize loads the chat and checks it belongs to the viewer's school and grade
func (s *chatServiceImpl) authorize(ctx context.Context, viewer *session.Viewer, chatID string) (*models.GroupChat, error) {
	if err := viewer.RequireProfile(); err != nil {
		return nil, err
	}
	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat.SchoolID != viewer.School() {
		return nil, apperrors.NewForbiddenError("chat belongs to another school")
	}
	if chat.GradeLevel != nil && (viewer.GradeLevel == nil || *chat.GradeLevel != *viewer.GradeLevel) {
		return nil, apperrors.NewForbiddenError("chat is restricted to another grade")
	}
	return chat, nil
}

// ListMessages returns the chat history
func (s *chatServiceImpl) ListMessages(ctx context.Context, viewer *session.Viewer, chatID string) ([]dto.MessageView, error) {
	if _, err := s.authorize(ctx, viewer, chatID); err != nil {
		return nil, err
	}

	s.logger.Debug().Str("chatID", chatID).Msg("Retrieving chat messages")
	entries, err := s.chats.ListMessages(ctx, chatID, repositories.MessageHistoryLimit)
	if err != nil {
		s.logger.Error().Err(err).Str("chatID", chatID).Msg("Failed to retrieve chat messages")
		return nil, fmt.Errorf("error retrieving chat messages: %w", err)
	}

	views := make([]dto.MessageView, 0, len(entries))
	for _, e := range entries {
		views = append(views, dto.NewMessageView(&e.Message, e.SenderUsername))
	}
	return views, nil
}

// SendMessage stores a message from the viewer
func (s *chatServiceImpl) SendMessage(ctx context.Context, viewer *session.Viewer, chatID, content string) (*dto.MessageView, error) {
	if err := validation.NewStringValidation("content", content).
		WithMaxLength(validation.MessageMaxLength).
		Validate(); err != nil {
		return nil, err
	}
	if _, err := s.authorize(ctx, viewer, chatID); err != nil {
		return nil, err
	}

	msg := &models.Message{ChatID: chatID, SenderID: viewer.ProfileID, Content: strings.TrimSpace(content)}
	if err := s.chats.CreateMessage(ctx, msg); err != nil {
		s.logger.Error().Err(err).
			Str("chatID", chatID).
			Str("profileID", viewer.ProfileID).
			Msg("Failed to send message")
		return nil, fmt.Errorf("error sending message: %w", err)
	}

	monitoring.RecordEvent("message")
	username := viewer.Username
	view := dto.NewMessageView(msg, &username)
	return &view, nil
}

// SenderUsername looks up a sender's username
func (s *chatServiceImpl) SenderUsername(ctx context.Context, profileID string) *string {
	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		s.logger.Debug().Err(err).Str("profileID", profileID).Msg("Sender lookup failed")
		return nil
	}
	return &profile.Username
}
