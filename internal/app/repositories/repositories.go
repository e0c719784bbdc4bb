package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/schoolyard/internal/app/models"
)

// Default fetch caps shared by both store implementations.
const (
	FeedLimit           = 50
	DiscoverLimit       = 50
	NotificationLimit   = 50
	MessageHistoryLimit = 100
)

// Not-found lookups return apperrors.ErrResourceNotFound (or a more specific
// sentinel that wraps the same meaning) and unique violations return
// apperrors.ErrConflict, regardless of the backing store.

// UserStore persists authentication identities.
type UserStore interface {
	// CreateWithProfile inserts the user and its profile atomically.
	CreateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string) error
}

// ProfileStore reads and updates profiles.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	ListByIDs(ctx context.Context, ids []string) ([]*models.Profile, error)
	// ListBySchool returns up to limit profiles of the school other than excludeID.
	ListBySchool(ctx context.Context, schoolID, excludeID string, limit int) ([]*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
}

// SchoolStore reads schools.
type SchoolStore interface {
	List(ctx context.Context) ([]*models.School, error)
	GetByID(ctx context.Context, id string) (*models.School, error)
	Create(ctx context.Context, school *models.School) error
}

// InterestStore holds profile interest tags.
type InterestStore interface {
	ListByProfile(ctx context.Context, profileID string) ([]string, error)
	ListByProfiles(ctx context.Context, profileIDs []string) (map[string][]string, error)
	Add(ctx context.Context, profileID, tag string) error
	Remove(ctx context.Context, profileID, tag string) error
}

// RequestFilter narrows friend request listings. Empty fields are ignored.
type RequestFilter struct {
	SenderID   string
	ReceiverID string
	// EitherID matches requests where the profile is sender or receiver.
	EitherID string
	Status   models.FriendRequestStatus
}

// FriendStore owns friend requests and canonical friendships.
type FriendStore interface {
	ListFriendships(ctx context.Context, profileID string) ([]*models.Friendship, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]*models.FriendRequest, error)
	GetRequest(ctx context.Context, id string) (*models.FriendRequest, error)
	// CreateRequest fails with ErrConflict when a pending request exists in either direction.
	CreateRequest(ctx context.Context, req *models.FriendRequest) error
	// AcceptRequest marks a pending request addressed to receiverID accepted and
	// inserts the canonical friendship in the same transaction.
	AcceptRequest(ctx context.Context, requestID, receiverID string) (*models.Friendship, error)
	RejectRequest(ctx context.Context, requestID, receiverID string) error
	// EnsureFriendship inserts the canonical pair unless it exists and reports whether it inserted.
	EnsureFriendship(ctx context.Context, a, b string) (bool, error)
	DeleteFriendship(ctx context.Context, a, b string) error
	// ListOrphanedAccepts returns accepted requests with no matching friendship.
	ListOrphanedAccepts(ctx context.Context) ([]*models.FriendRequest, error)
}

// PostFilter narrows the feed query.
type PostFilter struct {
	SchoolID string
	Limit    int
}

// PostStore owns posts, the vote ledger and comments.
type PostStore interface {
	List(ctx context.Context, filter PostFilter) ([]*models.PostEntry, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	Create(ctx context.Context, post *models.Post) error
	ListVotes(ctx context.Context, postIDs []string) ([]*models.Vote, error)
	GetVote(ctx context.Context, postID, userID string) (*models.Vote, error)
	// UpsertVote writes the vote keyed on (post_id, user_id).
	UpsertVote(ctx context.Context, vote *models.Vote) error
	DeleteVote(ctx context.Context, postID, userID string) error
	CountComments(ctx context.Context, postIDs []string) (map[string]int, error)
	ListComments(ctx context.Context, postID string) ([]*models.CommentEntry, error)
	CreateComment(ctx context.Context, comment *models.Comment) error
}

// MembershipStore owns communities, groups and their member edges.
type MembershipStore interface {
	ListCommunities(ctx context.Context) ([]*models.Community, error)
	GetCommunity(ctx context.Context, id string) (*models.Community, error)
	CreateCommunity(ctx context.Context, community *models.Community) error
	ListGroups(ctx context.Context, schoolID string) ([]*models.GroupEntry, error)
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	CreateGroup(ctx context.Context, group *models.Group) error
	MemberOf(ctx context.Context, kind models.MembershipKind, profileID string) ([]string, error)
	// Join inserts the edge and increments member_count in one transaction.
	Join(ctx context.Context, kind models.MembershipKind, entityID, profileID string) error
	// Leave deletes the edge and decrements member_count (floor 0) in one transaction.
	Leave(ctx context.Context, kind models.MembershipKind, entityID, profileID string) error
	// ReconcileCounts rewrites member_count from the edge table and returns the rows it changed.
	ReconcileCounts(ctx context.Context, kind models.MembershipKind) ([]models.CountCorrection, error)
}

// ChallengeStore owns challenges, progress rows and rivalries.
type ChallengeStore interface {
	ListChallenges(ctx context.Context) ([]*models.Challenge, error)
	GetChallenge(ctx context.Context, id string) (*models.Challenge, error)
	CreateChallenge(ctx context.Context, challenge *models.Challenge) error
	// ListProgress returns progress rows in insertion order, optionally for one school.
	ListProgress(ctx context.Context, schoolID string) ([]*models.SchoolChallengeEntry, error)
	ListRivalries(ctx context.Context, schoolID string) ([]*models.RivalryEntry, error)
	CreateRivalry(ctx context.Context, rivalry *models.Rivalry) error
	// PointTotals sums current_points per school for the given schools.
	PointTotals(ctx context.Context, schoolIDs []string) (map[string]int, error)
	// AddPoints upserts the progress row, capping current_points at the challenge's max.
	AddPoints(ctx context.Context, schoolID, challengeID string, points int) (*models.SchoolChallenge, error)
}

// NotificationStore owns notifications.
type NotificationStore interface {
	List(ctx context.Context, profileID string, limit int) ([]*models.Notification, error)
	CountUnread(ctx context.Context, profileID string) (int, error)
	MarkRead(ctx context.Context, id, profileID string) error
	MarkAllRead(ctx context.Context, profileID string) (int64, error)
	Create(ctx context.Context, notification *models.Notification) error
}

// ChatStore owns group chats and messages.
type ChatStore interface {
	// ListChats returns the school's chats visible at gradeLevel, ordered by name.
	ListChats(ctx context.Context, schoolID string, gradeLevel *string) ([]*models.GroupChat, error)
	GetChat(ctx context.Context, id string) (*models.GroupChat, error)
	CreateChat(ctx context.Context, chat *models.GroupChat) error
	// ListMessages returns the latest limit messages in ascending order.
	ListMessages(ctx context.Context, chatID string, limit int) ([]*models.MessageEntry, error)
	CreateMessage(ctx context.Context, message *models.Message) error
}

// TeacherStore owns teachers and the rating ledger.
type TeacherStore interface {
	List(ctx context.Context, schoolID string) ([]*models.Teacher, error)
	GetByID(ctx context.Context, id string) (*models.Teacher, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	RatingStats(ctx context.Context, targetType string, targetIDs []string) (map[string]models.RatingStats, error)
	RatingsBy(ctx context.Context, targetType, raterID string, targetIDs []string) (map[string]int, error)
	// UpsertRating writes the rating keyed on (target_type, target_id, rater_id).
	UpsertRating(ctx context.Context, rating *models.Rating) error
}

// Repositories groups every store the services depend on.
type Repositories struct {
	Users         UserStore
	Profiles      ProfileStore
	Schools       SchoolStore
	Interests     InterestStore
	Friends       FriendStore
	Posts         PostStore
	Memberships   MembershipStore
	Challenges    ChallengeStore
	Notifications NotificationStore
	Chats         ChatStore
	Teachers      TeacherStore
}

// NewRepositories initializes the PostgreSQL-backed stores
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		Users:         NewUserRepository(db),
		Profiles:      NewProfileRepository(db),
		Schools:       NewSchoolRepository(db),
		Interests:     NewInterestRepository(db),
		Friends:       NewFriendRepository(db),
		Posts:         NewPostRepository(db),
		Memberships:   NewMembershipRepository(db),
		Challenges:    NewChallengeRepository(db),
		Notifications: NewNotificationRepository(db),
		Chats:         NewChatRepository(db),
		Teachers:      NewTeacherRepository(db),
	}
}
