// Package memory keeps every store in process memory. It backs tests and the
// "memory" store mode, and publishes notification and message inserts the way
// the database trigger does.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/schoolyard/internal/app/models"
	"github.com/yigit/schoolyard/internal/app/repositories"
	"github.com/yigit/schoolyard/internal/pkg/realtime"
)

type (
	// Store holds all tables behind one lock so joined reads stay consistent.
	Store struct {
		mu        sync.RWMutex
		now       func() time.Time
		last      time.Time
		publisher realtime.Publisher
		logger    zerolog.Logger

		users         []*models.User
		profiles      []*models.Profile
		schools       []*models.School
		interests     []interestRow
		requests      []*models.FriendRequest
		friendships   []*models.Friendship
		posts         []*models.Post
		votes         []*models.Vote
		comments      []*models.Comment
		communities   []*models.Community
		groups        []*models.Group
		members       map[models.MembershipKind][]memberRow
		challenges    []*models.Challenge
		progress      []*models.SchoolChallenge
		rivalries     []*models.Rivalry
		notifications []*models.Notification
		chats         []*models.GroupChat
		messages      []*models.Message
		teachers      []*models.Teacher
		ratings       []*models.Rating
	}

	interestRow struct {
		profileID string
		tag       string
	}

	memberRow struct {
		entityID  string
		profileID string
	}
)

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used when publishing fails.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates an empty Store. publisher may be nil.
func New(publisher realtime.Publisher, opts ...Option) *Store {
	s := &Store{
		now:       time.Now,
		publisher: publisher,
		logger:    zerolog.Nop(),
		members:   make(map[models.MembershipKind][]memberRow),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() *repositories.Repositories {
	return &repositories.Repositories{
		Users:         &userStore{s},
		Profiles:      &profileStore{s},
		Schools:       &schoolStore{s},
		Interests:     &interestStore{s},
		Friends:       &friendStore{s},
		Posts:         &postStore{s},
		Memberships:   &membershipStore{s},
		Challenges:    &challengeStore{s},
		Notifications: &notificationStore{s},
		Chats:         &chatStore{s},
		Teachers:      &teacherStore{s},
	}
}

// stamp returns a strictly increasing timestamp. Callers hold the write lock.
func (s *Store) stamp() time.Time {
	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func newID() string {
	return uuid.NewString()
}

func (s *Store) publish(table string, row interface{}) {
	if s.publisher == nil {
		return
	}
	ev, err := realtime.NewEvent(table, row)
	if err != nil {
		s.logger.Error().Err(err).Str("table", table).Msg("Failed to encode realtime event")
		return
	}
	s.publisher.Publish(ev)
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func strPtr(s string) *string {
	return &s
}
