package memory

import (
	"context"

	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/app/repositories"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
)

type notificationStore struct{ *Store }

func (s *notificationStore) List(_ context.Context, profileID string, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = repositories.NotificationLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Notification
	for i := len(s.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if n := s.notifications[i]; n.ProfileID == profileID {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *notificationStore) CountUnread(_ context.Context, profileID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.notifications {
		if n.ProfileID == profileID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *notificationStore) MarkRead(_ context.Context, id, profileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.ID == id && n.ProfileID == profileID {
			n.IsRead = true
			return nil
		}
	}
	return apperrors.NewResourceNotFoundError("notification not found")
}

func (s *notificationStore) MarkAllRead(_ context.Context, profileID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var changed int64
	for _, n := range s.notifications {
		if n.ProfileID == profileID && !n.IsRead {
			n.IsRead = true
			changed++
		}
	}
	return changed, nil
}

func (s *notificationStore) Create(_ context.Context, notification *models.Notification) error {
	s.mu.Lock()
	if s.profile(notification.ProfileID) == nil {
		s.mu.Unlock()
		return apperrors.ErrProfileNotFound
	}
	notification.ID = newID()
	notification.IsRead = false
	notification.CreatedAt = s.stamp()
	cp := *notification
	s.notifications = append(s.notifications, &cp)
	s.mu.Unlock()

	s.publish(models.RelationNotifications, cp)
	return nil
}
