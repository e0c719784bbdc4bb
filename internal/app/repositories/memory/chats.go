package memory

import (
	"context"
	"sort"

	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/app/repositories"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
)

type chatStore struct{ *Store }

func (s *chatStore) ListChats(_ context.Context, schoolID string, gradeLevel *string) ([]*models.GroupChat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.GroupChat
	for _, c := range s.chats {
		if c.SchoolID != schoolID {
			continue
		}
		if c.GradeLevel != nil && (gradeLevel == nil || *c.GradeLevel != *gradeLevel) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *chatStore) GetChat(_ context.Context, id string) (*models.GroupChat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.chats {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperrors.NewResourceNotFoundError("chat not found")
}

func (s *chatStore) CreateChat(_ context.Context, chat *models.GroupChat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.school(chat.SchoolID) == nil {
		return apperrors.NewResourceNotFoundError("school not found")
	}
	chat.ID = newID()
	chat.CreatedAt = s.stamp()
	cp := *chat
	s.chats = append(s.chats, &cp)
	return nil
}

func (s *chatStore) ListMessages(_ context.Context, chatID string, limit int) ([]*models.MessageEntry, error) {
	if limit <= 0 {
		limit = repositories.MessageHistoryLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest []*models.MessageEntry
	for i := len(s.messages) - 1; i >= 0 && len(latest) < limit; i-- {
		if m := s.messages[i]; m.ChatID == chatID {
			latest = append(latest, &models.MessageEntry{Message: *m, SenderUsername: s.username(m.SenderID)})
		}
	}
	for i, j := 0, len(latest)-1; i < j; i, j = i+1, j-1 {
		latest[i], latest[j] = latest[j], latest[i]
	}
	return latest, nil
}

func (s *chatStore) CreateMessage(_ context.Context, message *models.Message) error {
	s.mu.Lock()
	found := false
	for _, c := range s.chats {
		if c.ID == message.ChatID {
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return apperrors.NewResourceNotFoundError("chat not found")
	}
	message.ID = newID()
	message.CreatedAt = s.stamp()
	cp := *message
	s.messages = append(s.messages, &cp)
	s.mu.Unlock()

	s.publish(models.RelationMessages, cp)
	return nil
}
