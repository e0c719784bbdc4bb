package services

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/app/models/dto"
	"github.com/yigit/schoolyard/internal/app/session"
	"github.com/yigit/schoolyard/internal/pkg/monitoring"
	"github.com/yigit/schoolyard/internal/pkg/realtime"
)

// ChatRoom is the open chat of one session. Only one chat is active at a
// time; Switch tears down the previous subscription and deliveries that
// belong to an earlier chat are dropped.
type ChatRoom struct {
	service    ChatService
	subscriber realtime.Subscriber
	viewer     *session.Viewer
	logger     zerolog.Logger

	mu         sync.Mutex
	generation uint64
	chatID     string
	messages   []dto.MessageView
	sub        *realtime.Subscription
	closed     bool

	updates   chan dto.MessageView
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewChatRoom creates a room with no active chat
func NewChatRoom(service ChatService, subscriber realtime.Subscriber, viewer *session.Viewer, logger zerolog.Logger) (*ChatRoom, error) {
	if err := viewer.RequireProfile(); err != nil {
		return nil, err
	}
	return &ChatRoom{
		service:    service,
		subscriber: subscriber,
		viewer:     viewer,
		logger:     logger.With().Str("profileID", viewer.ProfileID).Logger(),
		updates:    make(chan dto.MessageView, realtime.DefaultBuffer),
	}, nil
}

// Switch makes chatID the active chat: it releases the previous
// subscription, subscribes to the new chat and loads its history.
func (r *ChatRoom) Switch(ctx context.Context, chatID string) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.generation++
	gen := r.generation
	if r.sub != nil {
		r.sub.Close()
	}
	sub := r.subscriber.Subscribe(models.RelationMessages, realtime.Eq("chat_id", chatID))
	r.sub = sub
	r.chatID = chatID
	r.messages = nil
	r.mu.Unlock()

	history, err := r.service.ListMessages(ctx, r.viewer, chatID)
	if err != nil {
		r.mu.Lock()
		if r.generation == gen {
			sub.Close()
			r.sub = nil
			r.chatID = ""
		}
		r.mu.Unlock()
		return err
	}

	r.mu.Lock()
	if r.generation != gen {
		// a newer Switch owns the room now
		r.mu.Unlock()
		return nil
	}
	r.messages = history
	r.wg.Add(1)
	r.mu.Unlock()

	go r.pump(gen, sub)

	r.logger.Debug().Str("chatID", chatID).Int("history", len(history)).Msg("Chat switched")
	return nil
}

func (r *ChatRoom) pump(gen uint64, sub *realtime.Subscription) {
	defer r.wg.Done()
	for ev := range sub.C {
		var msg models.Message
		if err := ev.Decode(&msg); err != nil {
			r.logger.Error().Err(err).Msg("Dropping undecodable message")
			continue
		}
		username := r.service.SenderUsername(context.Background(), msg.SenderID)
		view := dto.NewMessageView(&msg, username)
		if !r.append(gen, view) {
			continue
		}
		monitoring.RealtimeDeliveries.WithLabelValues(models.RelationMessages).Inc()
		select {
		case r.updates <- view:
		default:
			r.logger.Warn().Str("messageID", msg.ID).Msg("Chat update queue full")
		}
	}
}

func (r *ChatRoom) append(gen uint64, view dto.MessageView) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation || view.ChatID != r.chatID {
		return false
	}
	for _, m := range r.messages {
		if m.ID == view.ID {
			return false
		}
	}
	r.messages = append(r.messages, view)
	return true
}

// ChatID returns the active chat, or "" when none
func (r *ChatRoom) ChatID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.chatID
}

// Messages returns a copy of the active chat's messages, oldest first
func (r *ChatRoom) Messages() []dto.MessageView {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]dto.MessageView, len(r.messages))
	copy(out, r.messages)
	return out
}

// Send posts to the active chat
func (r *ChatRoom) Send(ctx context.Context, content string) (*dto.MessageView, error) {
	return r.service.SendMessage(ctx, r.viewer, r.ChatID(), content)
}

// Updates delivers each pushed message once it has been appended. Closed by Close.
func (r *ChatRoom) Updates() <-chan dto.MessageView {
	return r.updates
}

// Close releases the active subscription and closes Updates
func (r *ChatRoom) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.generation++
		if r.sub != nil {
			r.sub.Close()
			r.sub = nil
		}
		r.mu.Unlock()

		r.wg.Wait()
		close(r.updates)
	})
}
