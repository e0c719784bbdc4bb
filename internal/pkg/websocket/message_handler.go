package websocket

import (
	"context"
	"strings"

	"github.com/yigit/schoolyard/internal/app/services"
	"github.com/yigit/schoolyard/internal/pkg/apperrors"
)

func errorFrame(err error) Frame {
	return Frame{Type: "error", Error: apperrors.Message(err)}
}

func pipe[T any](src <-chan T, kind string) <-chan Frame {
	out := make(chan Frame, cap(src))
	go func() {
		defer close(out)
		for v := range src {
			out <- Frame{Type: kind, Data: v}
		}
	}()
	return out
}

// InboxSession drives a NotificationInbox over a socket
type InboxSession struct {
	inbox   *services.NotificationInbox
	updates <-chan Frame
}

// NewInboxSession wraps an opened inbox
func NewInboxSession(inbox *services.NotificationInbox) *InboxSession {
	return &InboxSession{inbox: inbox, updates: pipe(inbox.Updates(), "notification")}
}

func (s *InboxSession) snapshot() Frame {
	return Frame{Type: "snapshot", Data: s.inbox.Snapshot()}
}

// Initial sends the loaded list and counter
func (s *InboxSession) Initial() []Frame {
	return []Frame{s.snapshot()}
}

// Handle runs mark_read, mark_all_read and reload. Each reply carries the new snapshot.
func (s *InboxSession) Handle(ctx context.Context, in Frame) []Frame {
	var err error
	switch in.Type {
	case "mark_read":
		err = s.inbox.MarkRead(ctx, in.ID)
	case "mark_all_read":
		err = s.inbox.MarkAllRead(ctx)
	case "reload":
		err = s.inbox.Load(ctx)
	default:
		err = apperrors.NewBadRequestError("unknown command " + in.Type)
	}
	if err != nil {
		return []Frame{errorFrame(err)}
	}
	return []Frame{s.snapshot()}
}

// Updates streams pushed notifications
func (s *InboxSession) Updates() <-chan Frame {
	return s.updates
}

// Close releases the inbox
func (s *InboxSession) Close() {
	s.inbox.Close()
}

// ChatSession drives a ChatRoom over a socket
type ChatSession struct {
	room    *services.ChatRoom
	updates <-chan Frame
}

// NewChatSession wraps a room that already has an active chat
func NewChatSession(room *services.ChatRoom) *ChatSession {
	return &ChatSession{room: room, updates: pipe(room.Updates(), "message")}
}

func (s *ChatSession) snapshot() Frame {
	return Frame{Type: "snapshot", ID: s.room.ChatID(), Data: s.room.Messages()}
}

// Initial sends the active chat's history
func (s *ChatSession) Initial() []Frame {
	return []Frame{s.snapshot()}
}

// Handle runs send and switch
func (s *ChatSession) Handle(ctx context.Context, in Frame) []Frame {
	switch in.Type {
	case "send":
		msg, err := s.room.Send(ctx, in.Content)
		if err != nil {
			return []Frame{errorFrame(err)}
		}
		return []Frame{{Type: "ack", ID: msg.ID, Data: msg}}
	case "switch":
		if err := s.room.Switch(ctx, strings.TrimSpace(in.ID)); err != nil {
			return []Frame{errorFrame(err)}
		}
		return []Frame{s.snapshot()}
	}
	return []Frame{errorFrame(apperrors.NewBadRequestError("unknown command " + in.Type))}
}

// Updates streams pushed messages of the active chat
func (s *ChatSession) Updates() <-chan Frame {
	return s.updates
}

// Close releases the room
func (s *ChatSession) Close() {
	s.room.Close()
}

var (
	_ Session = (*InboxSession)(nil)
	_ Session = (*ChatSession)(nil)
)
