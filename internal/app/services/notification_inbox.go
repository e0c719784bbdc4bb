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

// NotificationInbox is the live notification list of one session. Pushed
// rows are prepended and bump the unread counter by one each; everything
// else is loaded from the service.
type NotificationInbox struct {
	service    NotificationService
	subscriber realtime.Subscriber
	viewer     *session.Viewer
	logger     zerolog.Logger

	mu     sync.Mutex
	items  []dto.NotificationView
	unread int
	sub    *realtime.Subscription
	closed bool

	updates   chan dto.NotificationView
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewNotificationInbox creates an inbox for viewer. Call Open before use and Close when done.
func NewNotificationInbox(service NotificationService, subscriber realtime.Subscriber, viewer *session.Viewer, logger zerolog.Logger) (*NotificationInbox, error) {
	if err := viewer.RequireProfile(); err != nil {
		return nil, err
	}
	return &NotificationInbox{
		service:    service,
		subscriber: subscriber,
		viewer:     viewer,
		logger:     logger.With().Str("profileID", viewer.ProfileID).Logger(),
		updates:    make(chan dto.NotificationView, realtime.DefaultBuffer),
	}, nil
}

// Open subscribes to the viewer's notification inserts and loads the current list.
// Rows that arrive while loading are deduplicated by id.
func (i *NotificationInbox) Open(ctx context.Context) error {
	sub := i.subscriber.Subscribe(models.RelationNotifications, realtime.Eq("profile_id", i.viewer.ProfileID))

	if err := i.Load(ctx); err != nil {
		sub.Close()
		return err
	}

	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		sub.Close()
		return nil
	}
	i.sub = sub
	i.wg.Add(1)
	i.mu.Unlock()

	go i.pump(sub)
	return nil
}

// Load replaces the list and counter with a fresh read.
func (i *NotificationInbox) Load(ctx context.Context) error {
	list, err := i.service.List(ctx, i.viewer)
	if err != nil {
		return err
	}
	i.mu.Lock()
	i.items = list.Notifications
	i.unread = list.UnreadCount
	i.mu.Unlock()
	return nil
}

func (i *NotificationInbox) pump(sub *realtime.Subscription) {
	defer i.wg.Done()
	for ev := range sub.C {
		var n models.Notification
		if err := ev.Decode(&n); err != nil {
			i.logger.Error().Err(err).Msg("Dropping undecodable notification")
			continue
		}
		view, ok := i.push(&n)
		if !ok {
			continue
		}
		monitoring.RealtimeDeliveries.WithLabelValues(models.RelationNotifications).Inc()
		select {
		case i.updates <- view:
		default:
			i.logger.Warn().Str("notificationID", n.ID).Msg("Inbox update queue full")
		}
	}
}

func (i *NotificationInbox) push(n *models.Notification) (dto.NotificationView, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, item := range i.items {
		if item.ID == n.ID {
			return dto.NotificationView{}, false
		}
	}
	view := dto.NewNotificationView(n)
	i.items = append([]dto.NotificationView{view}, i.items...)
	i.unread++
	return view, true
}

// Updates delivers each pushed notification after it has been applied.
// The channel is closed by Close.
func (i *NotificationInbox) Updates() <-chan dto.NotificationView {
	return i.updates
}

// Snapshot returns a copy of the list and the unread counter.
func (i *NotificationInbox) Snapshot() dto.NotificationList {
	i.mu.Lock()
	defer i.mu.Unlock()
	items := make([]dto.NotificationView, len(i.items))
	copy(items, i.items)
	return dto.NotificationList{Notifications: items, UnreadCount: i.unread}
}

// UnreadCount returns the cached unread counter.
func (i *NotificationInbox) UnreadCount() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.unread
}

// MarkRead marks one notification read and decrements the counter, never below zero.
func (i *NotificationInbox) MarkRead(ctx context.Context, id string) error {
	if err := i.service.MarkRead(ctx, i.viewer, id); err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	for idx := range i.items {
		if i.items[idx].ID != id {
			continue
		}
		if i.items[idx].IsRead {
			return nil
		}
		i.items[idx].IsRead = true
		break
	}
	if i.unread > 0 {
		i.unread--
	}
	return nil
}

// MarkAllRead marks everything read and zeroes the counter.
func (i *NotificationInbox) MarkAllRead(ctx context.Context) error {
	if _, err := i.service.MarkAllRead(ctx, i.viewer); err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	for idx := range i.items {
		i.items[idx].IsRead = true
	}
	i.unread = 0
	return nil
}

// Close releases the subscription and closes Updates. Safe to call more than once.
func (i *NotificationInbox) Close() {
	i.closeOnce.Do(func() {
		i.mu.Lock()
		sub := i.sub
		i.sub = nil
		i.closed = true
		i.mu.Unlock()

		if sub != nil {
			sub.Close()
		}
		i.wg.Wait()
		close(i.updates)
	})
}
