package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/app/models/dto"
	"github.com/yigit/schoolyard/internal/app/repositories"
	"github.com/yigit/schoolyard/internal/app/session"
	"github.com/yigit/schoolyard/internal/pkg/monitoring"
)

// NotificationService reads and marks a viewer's notifications and writes new ones
type NotificationService interface {
	List(ctx context.Context, viewer *session.Viewer) (*dto.NotificationList, error)
	UnreadCount(ctx context.Context, viewer *session.Viewer) (int, error)
	MarkRead(ctx context.Context, viewer *session.Viewer, id string) error
	MarkAllRead(ctx context.Context, viewer *session.Viewer) (int64, error)
	// Notify inserts a notification for profileID. The insert reaches open
	// inboxes through the realtime channel.
	Notify(ctx context.Context, profileID, kind, title string, body, link *string) (*models.Notification, error)
}

type notificationServiceImpl struct {
	notifications repositories.NotificationStore
	logger        zerolog.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(repos *repositories.Repositories, logger zerolog.Logger) NotificationService {
	return &notificationServiceImpl{
		notifications: repos.Notifications,
		logger:        logger,
	}
}

// List returns the newest notifications and the unread count
func (s *notificationServiceImpl) List(ctx context.Context, viewer *session.Viewer) (*dto.NotificationList, error) {
	if err := viewer.RequireProfile(); err != nil {
		return nil, err
	}

	rows, err := s.notifications.List(ctx, viewer.ProfileID, repositories.NotificationLimit)
	if err != nil {
		s.logger.Error().Err(err).Str("profileID", viewer.ProfileID).Msg("Failed to list notifications")
		return nil, fmt.Errorf("error listing notifications: %w", err)
	}
	unread, err := s.notifications.CountUnread(ctx, viewer.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("error counting unread notifications: %w", err)
	}

	list := &dto.NotificationList{
		Notifications: make([]dto.NotificationView, 0, len(rows)),
		UnreadCount:   unread,
	}
	for _, n := range rows {
		list.Notifications = append(list.Notifications, dto.NewNotificationView(n))
	}
	return list, nil
}

// UnreadCount returns the number of unread notifications
func (s *notificationServiceImpl) UnreadCount(ctx context.Context, viewer *session.Viewer) (int, error) {
	if err := viewer.RequireProfile(); err != nil {
		return 0, err
	}
	return s.notifications.CountUnread(ctx, viewer.ProfileID)
}

// MarkRead flips one of the viewer's notifications to read
func (s *notificationServiceImpl) MarkRead(ctx context.Context, viewer *session.Viewer, id string) error {
	if err := viewer.RequireProfile(); err != nil {
		return err
	}
	if err := s.notifications.MarkRead(ctx, id, viewer.ProfileID); err != nil {
		return err
	}
	s.logger.Debug().Str("profileID", viewer.ProfileID).Str("notificationID", id).Msg("Notification marked read")
	return nil
}

// MarkAllRead flips every unread notification of the viewer and returns how many changed
func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, viewer *session.Viewer) (int64, error) {
	if err := viewer.RequireProfile(); err != nil {
		return 0, err
	}
	n, err := s.notifications.MarkAllRead(ctx, viewer.ProfileID)
	if err != nil {
		return 0, fmt.Errorf("error marking notifications read: %w", err)
	}
	s.logger.Debug().Str("profileID", viewer.ProfileID).Int64("count", n).Msg("All notifications marked read")
	return n, nil
}

// Notify inserts a notification
func (s *notificationServiceImpl) Notify(ctx context.Context, profileID, kind, title string, body, link *string) (*models.Notification, error) {
	n := &models.Notification{
		ProfileID: profileID,
		Type:      kind,
		Title:     title,
		Body:      body,
		LinkURL:   link,
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		s.logger.Error().Err(err).Str("profileID", profileID).Str("type", kind).Msg("Failed to create notification")
		return nil, fmt.Errorf("error creating notification: %w", err)
	}
	monitoring.RecordEvent("notification")
	return n, nil
}
