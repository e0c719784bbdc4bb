// Package services holds the aggregators between the stores and the HTTP
// layer. Every operation takes the caller as an explicit *session.Viewer.
package services

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolyard/internal/app/repositories"
	"github.com/yigit/schoolyard/internal/pkg/auth"
	"github.com/yigit/schoolyard/internal/pkg/cache"
	"github.com/yigit/schoolyard/internal/pkg/filestorage"
)

// Services groups the aggregators built over one set of repositories
type Services struct {
	Identity      IdentityService
	Friends       FriendService
	Interests     InterestService
	Feed          FeedService
	Memberships   MembershipService
	Challenges    ChallengeService
	Notifications NotificationService
	Chats         ChatService
	Ratings       RatingService
	Reconciler    *Reconciler
}

// Options carries the optional collaborators of New
type Options struct {
	Storage        filestorage.FileStorage
	Cache          cache.Cache
	LeaderboardTTL time.Duration
}

// New wires every service
func New(repos *repositories.Repositories, jwtService *auth.JWTService, opts Options, logger zerolog.Logger) *Services {
	notifications := NewNotificationService(repos, logger.With().Str("service", "notifications").Logger())
	memberships := NewMembershipService(repos, logger.With().Str("service", "memberships").Logger())

	return &Services{
		Identity:      NewIdentityService(repos, jwtService, logger.With().Str("service", "identity").Logger()),
		Friends:       NewFriendService(repos, notifications, logger.With().Str("service", "friends").Logger()),
		Interests:     NewInterestService(repos, logger.With().Str("service", "interests").Logger()),
		Feed:          NewFeedService(repos, opts.Storage, notifications, logger.With().Str("service", "feed").Logger()),
		Memberships:   memberships,
		Challenges:    NewChallengeService(repos, opts.Cache, opts.LeaderboardTTL, logger.With().Str("service", "challenges").Logger()),
		Notifications: notifications,
		Chats:         NewChatService(repos, logger.With().Str("service", "chats").Logger()),
		Ratings:       NewRatingService(repos, logger.With().Str("service", "ratings").Logger()),
		Reconciler:    NewReconciler(repos, memberships, logger.With().Str("service", "reconciler").Logger()),
	}
}
